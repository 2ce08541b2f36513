package types

import (
	"gonum.org/v1/gonum/mat"
)

// Model is the surface of the parametric model the orchestrator needs:
// batched action prediction plus a train/eval mode switch
type Model interface {
	// Predict returns one action row per observation row
	Predict(observations *mat.Dense) *mat.Dense
	Train()
	Eval()
}

// Explorer decides per interaction whether to sample a random action or
// delegate to the model, based on its own internal step count
type Explorer interface {
	Action(model Model, observations *mat.Dense, step int) *mat.Dense
}

// Callback is consulted once per environment interaction. Returning
// false vetoes continued training.
type Callback interface {
	OnStep(step int) bool
}
