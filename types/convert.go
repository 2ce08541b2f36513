package types

import (
	"gonum.org/v1/gonum/mat"
)

// RowsToDense packs row vectors into a dense matrix
func RowsToDense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	out := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		out.SetRow(i, r)
	}
	return out
}

// DenseToRows unpacks a dense matrix into row vectors
func DenseToRows(m *mat.Dense) [][]float64 {
	n, d := m.Dims()
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, d)
		mat.Row(row, i, m)
		out[i] = row
	}
	return out
}

// ObservationsDense packs the batch observations for model input
func (b *Batch) ObservationsDense() *mat.Dense {
	return RowsToDense(b.Observations)
}

// ActionsDense packs the batch actions for model input
func (b *Batch) ActionsDense() *mat.Dense {
	return RowsToDense(b.Actions)
}

// NextObservationsDense packs the batch next-observations for model
// input
func (b *Batch) NextObservationsDense() *mat.Dense {
	return RowsToDense(b.NextObservations)
}
