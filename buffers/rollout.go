// Package buffers implements experience stores for the training
// orchestrators.
package buffers

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/LondonNode/anvil/types"
)

// ErrEmptyBuffer is returned when sampling from a buffer with no
// stored transitions
var ErrEmptyBuffer = errors.New("buffer is empty")

// DefaultBufferSize is the default per-environment capacity in
// timesteps
const DefaultBufferSize = 1_000_000

type timestep struct {
	observations     [][]float64
	actions          [][]float64
	rewards          []float64
	nextObservations [][]float64
	dones            []bool
}

// RolloutBufferConfig configures the in-memory store
type RolloutBufferConfig struct {
	// BufferSize is the maximum number of stored timesteps, defaults
	// to DefaultBufferSize
	BufferSize int
	NumEnvs    int
	Seed       uint64
}

// RolloutBuffer is a ring buffer of timesteps. The oldest timestep is
// evicted once capacity is reached.
type RolloutBuffer struct {
	capacity int
	numEnvs  int
	steps    []timestep
	pos      int
	full     bool
	rng      *rand.Rand
}

var _ types.Buffer = &RolloutBuffer{}

func NewRolloutBuffer(cfg RolloutBufferConfig) (*RolloutBuffer, error) {
	if cfg.NumEnvs < 1 {
		return nil, fmt.Errorf("buffer needs at least one environment, got %d", cfg.NumEnvs)
	}
	capacity := cfg.BufferSize
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	return &RolloutBuffer{
		capacity: capacity,
		numEnvs:  cfg.NumEnvs,
		steps:    make([]timestep, 0, min(capacity, 1024)),
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (b *RolloutBuffer) AddTrajectory(observations, actions [][]float64, rewards []float64, nextObservations [][]float64, dones []bool) error {
	if len(rewards) != b.numEnvs {
		return fmt.Errorf("expected %d rewards, got %d", b.numEnvs, len(rewards))
	}
	ts := timestep{
		observations:     observations,
		actions:          actions,
		rewards:          rewards,
		nextObservations: nextObservations,
		dones:            dones,
	}
	if len(b.steps) < b.capacity {
		b.steps = append(b.steps, ts)
		return nil
	}
	b.steps[b.pos] = ts
	b.pos = (b.pos + 1) % b.capacity
	b.full = true
	return nil
}

func (b *RolloutBuffer) Size() int {
	return len(b.steps)
}

// Sample draws a random minibatch. With flattenEnv, rows are individual
// (timestep, environment) transitions; without it, rows are whole
// timesteps in timestep-major order.
func (b *RolloutBuffer) Sample(batchSize int, flattenEnv bool) (*types.Batch, error) {
	if len(b.steps) == 0 {
		return nil, ErrEmptyBuffer
	}
	if flattenEnv {
		batch := newBatch(batchSize, 1)
		for i := 0; i < batchSize; i++ {
			t := b.steps[b.rng.Intn(len(b.steps))]
			e := b.rng.Intn(b.numEnvs)
			appendRow(batch, t, e)
		}
		return batch, nil
	}
	batch := newBatch(batchSize*b.numEnvs, b.numEnvs)
	for i := 0; i < batchSize; i++ {
		t := b.steps[b.rng.Intn(len(b.steps))]
		for e := 0; e < b.numEnvs; e++ {
			appendRow(batch, t, e)
		}
	}
	return batch, nil
}

// All returns every stored timestep in insertion order, unflattened
func (b *RolloutBuffer) All() (*types.Batch, error) {
	if len(b.steps) == 0 {
		return nil, ErrEmptyBuffer
	}
	batch := newBatch(len(b.steps)*b.numEnvs, b.numEnvs)
	start := 0
	if b.full {
		start = b.pos
	}
	for i := 0; i < len(b.steps); i++ {
		t := b.steps[(start+i)%len(b.steps)]
		for e := 0; e < b.numEnvs; e++ {
			appendRow(batch, t, e)
		}
	}
	return batch, nil
}

func (b *RolloutBuffer) Reset() error {
	b.steps = b.steps[:0]
	b.pos = 0
	b.full = false
	return nil
}

func newBatch(rows, numEnvs int) *types.Batch {
	return &types.Batch{
		Observations:     make([][]float64, 0, rows),
		Actions:          make([][]float64, 0, rows),
		Rewards:          make([]float64, 0, rows),
		NextObservations: make([][]float64, 0, rows),
		Dones:            make([]float64, 0, rows),
		NumEnvs:          numEnvs,
	}
}

func appendRow(batch *types.Batch, t timestep, e int) {
	batch.Observations = append(batch.Observations, t.observations[e])
	batch.Actions = append(batch.Actions, t.actions[e])
	batch.Rewards = append(batch.Rewards, t.rewards[e])
	batch.NextObservations = append(batch.NextObservations, t.nextObservations[e])
	if t.dones[e] {
		batch.Dones = append(batch.Dones, 1)
	} else {
		batch.Dones = append(batch.Dones, 0)
	}
}
