package types

// Batch is a set of transitions assembled by a buffer. When sampled
// with flattening, every row is a single environment transition and
// NumEnvs is 1. Without flattening, rows are grouped per timestep in
// timestep-major order and NumEnvs is the parallel environment count.
type Batch struct {
	Observations     [][]float64
	Actions          [][]float64
	Rewards          []float64
	NextObservations [][]float64
	Dones            []float64
	NumEnvs          int
}

// Len is the number of transition rows in the batch
func (b *Batch) Len() int {
	return len(b.Rewards)
}

// RewardSumsPerEnv sums the rewards of each environment column across
// all timesteps in an unflattened batch. Used by population-based
// agents to score candidates.
func (b *Batch) RewardSumsPerEnv() []float64 {
	sums := make([]float64, b.NumEnvs)
	for i, r := range b.Rewards {
		sums[i%b.NumEnvs] += r
	}
	return sums
}

// Buffer is the experience store. Transition ownership passes to the
// buffer on AddTrajectory; callers must not retain the slices.
type Buffer interface {
	// AddTrajectory records one logical environment step across all
	// parallel environments
	AddTrajectory(observations, actions [][]float64, rewards []float64, nextObservations [][]float64, dones []bool) error
	// Sample draws a random minibatch of batchSize timesteps, or
	// batchSize individual transitions when flattenEnv is set
	Sample(batchSize int, flattenEnv bool) (*Batch, error)
	// All returns every stored transition since the last Reset
	All() (*Batch, error)
	// Reset discards all stored transitions
	Reset() error
	// Size is the number of stored timesteps
	Size() int
}
