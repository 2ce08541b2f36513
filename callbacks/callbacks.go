// Package callbacks implements the per-step hooks consulted by the
// orchestrators. A callback returning false vetoes continued training.
package callbacks

import (
	"fmt"
	"path"

	"github.com/LondonNode/anvil/loggers"
	"github.com/LondonNode/anvil/types"
	"github.com/LondonNode/anvil/util"
)

// CallbackSettings carries the options of all callbacks; each callback
// reads the fields that apply to it
type CallbackSettings struct {
	// SaveFreq is how often (in steps) Checkpoint saves, defaults to
	// 10000
	SaveFreq int
	// SavePath is the directory Checkpoint writes to
	SavePath string
	// NamePrefix prefixes checkpoint file names, defaults to "model"
	NamePrefix string
	// RewardThreshold stops training once the mean episode return
	// reaches it
	RewardThreshold float64
}

// Constructor builds a callback bound to the run's logger and model
type Constructor func(logger *loggers.Logger, model types.Model, settings CallbackSettings) types.Callback

// WeightsProvider is implemented by models that can flatten their
// parameters for checkpointing
type WeightsProvider interface {
	Weights() map[string][]float64
}

// Checkpoint periodically saves the model weights as JSON
type Checkpoint struct {
	model    types.Model
	saveFreq int
	savePath string
	prefix   string
}

var _ types.Callback = &Checkpoint{}

func NewCheckpoint(_ *loggers.Logger, model types.Model, settings CallbackSettings) types.Callback {
	saveFreq := settings.SaveFreq
	if saveFreq <= 0 {
		saveFreq = 10000
	}
	prefix := settings.NamePrefix
	if prefix == "" {
		prefix = "model"
	}
	return &Checkpoint{
		model:    model,
		saveFreq: saveFreq,
		savePath: settings.SavePath,
		prefix:   prefix,
	}
}

// OnStep saves on every SaveFreq-th step and never vetoes
func (c *Checkpoint) OnStep(step int) bool {
	if step == 0 || step%c.saveFreq != 0 {
		return true
	}
	provider, ok := c.model.(WeightsProvider)
	if !ok {
		return true
	}
	file := path.Join(c.savePath, fmt.Sprintf("%s_%d.json", c.prefix, step))
	if err := util.AppendJSONLine(file, provider.Weights()); err != nil {
		fmt.Printf("\nfailed to save checkpoint %s: %v\n", file, err)
	}
	return true
}

// RewardThreshold vetoes training once the logged mean episode return
// reaches the configured threshold
type RewardThreshold struct {
	logger    *loggers.Logger
	threshold float64
}

var _ types.Callback = &RewardThreshold{}

func NewRewardThreshold(logger *loggers.Logger, _ types.Model, settings CallbackSettings) types.Callback {
	return &RewardThreshold{
		logger:    logger,
		threshold: settings.RewardThreshold,
	}
}

func (r *RewardThreshold) OnStep(_ int) bool {
	ret, ok := r.logger.LastReturn()
	if !ok {
		return true
	}
	return ret < r.threshold
}
