package callbacks

import (
	"os"
	"path"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/LondonNode/anvil/loggers"
)

type weightedModel struct{}

func (weightedModel) Predict(observations *mat.Dense) *mat.Dense { return observations }
func (weightedModel) Train()                                     {}
func (weightedModel) Eval()                                      {}
func (weightedModel) Weights() map[string][]float64 {
	return map[string][]float64{"w": {1, 2}}
}

type plainModel struct{}

func (plainModel) Predict(observations *mat.Dense) *mat.Dense { return observations }
func (plainModel) Train()                                     {}
func (plainModel) Eval()                                      {}

func TestRewardThreshold(t *testing.T) {
	logger := loggers.NewLogger(loggers.LoggerSettings{NumEnvs: 1})
	cb := NewRewardThreshold(logger, nil, CallbackSettings{RewardThreshold: 10})

	if !cb.OnStep(0) {
		t.Errorf("no written return yet, the callback must not veto")
	}

	logger.AddReward([]float64{5})
	logger.WriteLog(1)
	if !cb.OnStep(1) {
		t.Errorf("a return below the threshold must not veto")
	}

	logger.ResetEpisodeLog()
	logger.AddReward([]float64{15})
	logger.WriteLog(2)
	if cb.OnStep(2) {
		t.Errorf("a return at or above the threshold should veto")
	}
}

func TestCheckpointSaves(t *testing.T) {
	dir := t.TempDir()
	cb := NewCheckpoint(nil, weightedModel{}, CallbackSettings{
		SaveFreq:   5,
		SavePath:   dir,
		NamePrefix: "test",
	})

	if !cb.OnStep(0) {
		t.Errorf("the checkpoint callback must never veto")
	}
	if !cb.OnStep(5) {
		t.Errorf("the checkpoint callback must never veto")
	}
	if _, err := os.Stat(path.Join(dir, "test_5.json")); err != nil {
		t.Errorf("expected a checkpoint file at step 5: %v", err)
	}
	if _, err := os.Stat(path.Join(dir, "test_0.json")); err == nil {
		t.Errorf("step 0 must not produce a checkpoint")
	}
	if _, err := os.Stat(path.Join(dir, "test_3.json")); err == nil {
		t.Errorf("off-cadence steps must not produce a checkpoint")
	}
}

func TestCheckpointIgnoresModelsWithoutWeights(t *testing.T) {
	cb := NewCheckpoint(nil, plainModel{}, CallbackSettings{SaveFreq: 1, SavePath: t.TempDir()})
	if !cb.OnStep(1) {
		t.Errorf("a model without weights must not veto")
	}
}
