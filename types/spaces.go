package types

import (
	"golang.org/x/exp/rand"
)

// Space describes the set of valid observations or actions of an
// environment. Values are always flat float64 vectors; discrete
// choices are encoded as a single index component.
type Space interface {
	// Dim is the number of components in a single value
	Dim() int
	// Sample draws a uniformly random value from the space
	Sample(rng *rand.Rand) []float64
}

// Box is a bounded continuous space
type Box struct {
	Low  []float64
	High []float64
}

var _ Space = &Box{}

func NewBox(low, high []float64) *Box {
	if len(low) != len(high) {
		panic("box bounds must have equal lengths")
	}
	return &Box{Low: low, High: high}
}

// UniformBox is a box with the same bounds in every dimension
func UniformBox(low, high float64, dim int) *Box {
	l := make([]float64, dim)
	h := make([]float64, dim)
	for i := 0; i < dim; i++ {
		l[i] = low
		h[i] = high
	}
	return &Box{Low: l, High: h}
}

func (b *Box) Dim() int {
	return len(b.Low)
}

func (b *Box) Sample(rng *rand.Rand) []float64 {
	out := make([]float64, len(b.Low))
	for i := range out {
		out[i] = b.Low[i] + rng.Float64()*(b.High[i]-b.Low[i])
	}
	return out
}

// Discrete is a space of n distinct choices, encoded as a single
// float64 index
type Discrete struct {
	N int
}

var _ Space = &Discrete{}

func (d *Discrete) Dim() int {
	return 1
}

func (d *Discrete) Sample(rng *rand.Rand) []float64 {
	return []float64{float64(rng.Intn(d.N))}
}
