package types

// Environment is a single gym-like environment
type Environment interface {
	ObservationSpace() Space
	ActionSpace() Space
	// Reset starts a new episode and returns the initial observation
	Reset() []float64
	// Step applies an action and returns the next observation, the
	// reward and whether the episode has ended
	Step(action []float64) ([]float64, float64, bool)
}

// VectorEnvironment steps multiple independent environment instances
// in lockstep, batched along the leading dimension
type VectorEnvironment interface {
	NumEnvs() int
	SingleObservationSpace() Space
	SingleActionSpace() Space
	// Reset starts a new episode in every environment
	Reset() [][]float64
	// ResetAt starts a new episode in a single environment, leaving
	// the others untouched
	ResetAt(i int) []float64
	// Step applies one action per environment
	Step(actions [][]float64) ([][]float64, []float64, []bool)
}

// Renderer is implemented by environments that can draw themselves
type Renderer interface {
	Render()
}
