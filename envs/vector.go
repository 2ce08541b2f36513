// Package envs provides environments bundled with the harness and the
// vectorization wrapper around single environments.
package envs

import (
	"fmt"

	"github.com/LondonNode/anvil/types"
)

// SyncVectorEnv steps independent environment instances in lockstep.
// Finished environments are not reset automatically; the orchestrator
// resets them individually through ResetAt.
type SyncVectorEnv struct {
	envs []types.Environment
}

var _ types.VectorEnvironment = &SyncVectorEnv{}

// NewSyncVectorEnv builds numEnvs environments from the factory
func NewSyncVectorEnv(makeEnv func() types.Environment, numEnvs int) (*SyncVectorEnv, error) {
	if numEnvs < 1 {
		return nil, fmt.Errorf("need at least one environment, got %d", numEnvs)
	}
	envs := make([]types.Environment, numEnvs)
	for i := range envs {
		envs[i] = makeEnv()
	}
	return &SyncVectorEnv{envs: envs}, nil
}

// Vectorize wraps an existing single environment as a one-environment
// vector
func Vectorize(env types.Environment) *SyncVectorEnv {
	return &SyncVectorEnv{envs: []types.Environment{env}}
}

func (v *SyncVectorEnv) NumEnvs() int {
	return len(v.envs)
}

func (v *SyncVectorEnv) SingleObservationSpace() types.Space {
	return v.envs[0].ObservationSpace()
}

func (v *SyncVectorEnv) SingleActionSpace() types.Space {
	return v.envs[0].ActionSpace()
}

func (v *SyncVectorEnv) Reset() [][]float64 {
	out := make([][]float64, len(v.envs))
	for i, e := range v.envs {
		out[i] = e.Reset()
	}
	return out
}

func (v *SyncVectorEnv) ResetAt(i int) []float64 {
	return v.envs[i].Reset()
}

func (v *SyncVectorEnv) Step(actions [][]float64) ([][]float64, []float64, []bool) {
	obs := make([][]float64, len(v.envs))
	rewards := make([]float64, len(v.envs))
	dones := make([]bool, len(v.envs))
	for i, e := range v.envs {
		obs[i], rewards[i], dones[i] = e.Step(actions[i])
	}
	return obs, rewards, dones
}

// Render draws every wrapped environment that can draw itself
func (v *SyncVectorEnv) Render() {
	for _, e := range v.envs {
		if r, ok := e.(types.Renderer); ok {
			r.Render()
		}
	}
}
