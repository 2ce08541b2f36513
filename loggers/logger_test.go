package loggers

import (
	"testing"

	"github.com/LondonNode/anvil/types"
)

func TestLoggerEpisodeMask(t *testing.T) {
	l := NewLogger(LoggerSettings{NumEnvs: 2})
	if l.AllEpisodesDone() {
		t.Fatalf("a fresh logger should not report all episodes done")
	}
	l.EpisodeDones[0] = true
	if l.AllEpisodesDone() {
		t.Errorf("a partial mask must not report all episodes done")
	}
	l.EpisodeDones[1] = true
	if !l.AllEpisodesDone() {
		t.Errorf("a full mask should report all episodes done")
	}
	l.ResetEpisodeLog()
	if l.AllEpisodesDone() {
		t.Errorf("resetting the episode log should clear the mask")
	}
}

func TestLoggerAddRewardBroadcast(t *testing.T) {
	l := NewLogger(LoggerSettings{NumEnvs: 2})
	l.AddReward([]float64{1, 2})
	// a single value is broadcast to every environment
	l.AddReward([]float64{3})
	l.WriteLog(2)

	ret, ok := l.LastReturn()
	if !ok {
		t.Fatalf("expected a written return")
	}
	// returns are [4 5], mean 4.5
	if ret != 4.5 {
		t.Errorf("expected mean return 4.5, got %v", ret)
	}
}

func TestLoggerRewardHistory(t *testing.T) {
	l := NewLogger(LoggerSettings{NumEnvs: 1})
	l.AddReward([]float64{1})
	l.WriteLog(1)
	l.ResetEpisodeLog()
	l.AddReward([]float64{3})
	l.WriteLog(2)

	history := l.RewardHistory()
	if len(history) != 2 || history[0] != 1 || history[1] != 3 {
		t.Errorf("expected history [1 3], got %v", history)
	}
}

func TestLoggerResetClearsReturns(t *testing.T) {
	l := NewLogger(LoggerSettings{NumEnvs: 1})
	l.AddReward([]float64{5})
	l.ResetEpisodeLog()
	l.AddReward([]float64{1})
	l.WriteLog(1)

	ret, _ := l.LastReturn()
	if ret != 1 {
		t.Errorf("rewards before the reset must not leak into the next episode, got %v", ret)
	}
}

func TestLoggerTrainLog(t *testing.T) {
	l := NewLogger(LoggerSettings{NumEnvs: 1})
	if _, ok := l.LastTrainLog(); ok {
		t.Fatalf("a fresh logger should have no train log")
	}
	l.AddTrainLog(nil)
	if _, ok := l.LastTrainLog(); ok {
		t.Errorf("a nil log must be ignored")
	}
	l.AddTrainLog(&types.Log{CriticLoss: 0.5})
	log, ok := l.LastTrainLog()
	if !ok || log.CriticLoss != 0.5 {
		t.Errorf("expected the recorded train log, got %v (%v)", log, ok)
	}
}
