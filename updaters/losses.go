package updaters

import "math"

// Loss is a regression distance with an analytic gradient with respect
// to the predictions
type Loss interface {
	Loss(pred, target []float64) float64
	Grad(pred, target []float64) []float64
}

// MSELoss is the mean squared error
type MSELoss struct{}

var _ Loss = MSELoss{}

func (MSELoss) Loss(pred, target []float64) float64 {
	sum := 0.0
	for i := range pred {
		d := pred[i] - target[i]
		sum += d * d
	}
	return sum / float64(len(pred))
}

func (MSELoss) Grad(pred, target []float64) []float64 {
	n := float64(len(pred))
	out := make([]float64, len(pred))
	for i := range pred {
		out[i] = 2 * (pred[i] - target[i]) / n
	}
	return out
}

// HuberLoss is quadratic below Delta and linear above it
type HuberLoss struct {
	Delta float64
}

var _ Loss = HuberLoss{}

func (h HuberLoss) delta() float64 {
	if h.Delta <= 0 {
		return 1
	}
	return h.Delta
}

func (h HuberLoss) Loss(pred, target []float64) float64 {
	d := h.delta()
	sum := 0.0
	for i := range pred {
		r := math.Abs(pred[i] - target[i])
		if r <= d {
			sum += 0.5 * r * r
		} else {
			sum += d * (r - 0.5*d)
		}
	}
	return sum / float64(len(pred))
}

func (h HuberLoss) Grad(pred, target []float64) []float64 {
	d := h.delta()
	n := float64(len(pred))
	out := make([]float64, len(pred))
	for i := range pred {
		r := pred[i] - target[i]
		switch {
		case r > d:
			out[i] = d / n
		case r < -d:
			out[i] = -d / n
		default:
			out[i] = r / n
		}
	}
	return out
}
