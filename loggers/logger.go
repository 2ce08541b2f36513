// Package loggers tracks per-episode rewards and training diagnostics
// for the orchestrators.
package loggers

import (
	"fmt"
	"path"

	"github.com/LondonNode/anvil/types"
	"github.com/LondonNode/anvil/util"
)

// LoggerSettings configures the episode logger
type LoggerSettings struct {
	// Path is the directory episode records and plots are written to;
	// empty disables file output
	Path string
	// Verbose enables terminal progress output
	Verbose bool
	NumEnvs int
}

// episodeRecord is the JSONL format of one finished episode log
type episodeRecord struct {
	Step    int     `json:"step"`
	Episode int     `json:"episode"`
	Return  float64 `json:"return"`
	Length  int     `json:"length"`
}

// Logger accumulates rewards for the episode in flight and owns the
// per-environment done mask. An episode log is flushed exactly when
// every mask entry is true.
type Logger struct {
	numEnvs int
	verbose bool
	path    string

	// EpisodeDones is the per-environment completion mask, flipped by
	// the orchestrator as individual environments finish
	EpisodeDones []bool

	episodeReturns []float64
	episodeLength  int
	written        int

	rewardHistory []float64
	trainHistory  []types.Log
}

func NewLogger(settings LoggerSettings) *Logger {
	numEnvs := settings.NumEnvs
	if numEnvs < 1 {
		numEnvs = 1
	}
	return &Logger{
		numEnvs:        numEnvs,
		verbose:        settings.Verbose,
		path:           settings.Path,
		EpisodeDones:   make([]bool, numEnvs),
		episodeReturns: make([]float64, numEnvs),
	}
}

func (l *Logger) NumEnvs() int {
	return l.numEnvs
}

// AddReward adds one reward per environment to the episode in flight.
// A single value is broadcast to every environment.
func (l *Logger) AddReward(rewards []float64) {
	if len(rewards) == 1 && l.numEnvs > 1 {
		for i := range l.episodeReturns {
			l.episodeReturns[i] += rewards[0]
		}
	} else {
		for i := range rewards {
			l.episodeReturns[i] += rewards[i]
		}
	}
	l.episodeLength++
}

// AllEpisodesDone reports whether every environment has finished its
// episode
func (l *Logger) AllEpisodesDone() bool {
	for _, d := range l.EpisodeDones {
		if !d {
			return false
		}
	}
	return true
}

// WriteLog records the episode in flight: mean return across
// environments, appended to the reward history, the episode file and
// optionally the terminal
func (l *Logger) WriteLog(step int) {
	mean := 0.0
	for _, r := range l.episodeReturns {
		mean += r
	}
	mean /= float64(l.numEnvs)
	l.written++
	l.rewardHistory = append(l.rewardHistory, mean)

	if l.verbose {
		fmt.Printf("\rEpisode %6d | Step %8d | Return %9.3f | Length %5d", l.written, step, mean, l.episodeLength)
	}
	if l.path != "" {
		util.AppendJSONLine(path.Join(l.path, "episodes.jsonl"), episodeRecord{
			Step:    step,
			Episode: l.written,
			Return:  mean,
			Length:  l.episodeLength,
		})
	}
}

// ResetEpisodeLog clears the reward accumulator and the done mask
func (l *Logger) ResetEpisodeLog() {
	for i := range l.episodeReturns {
		l.episodeReturns[i] = 0
		l.EpisodeDones[i] = false
	}
	l.episodeLength = 0
}

// AddTrainLog appends the diagnostics of one training trigger
func (l *Logger) AddTrainLog(log *types.Log) {
	if log == nil {
		return
	}
	l.trainHistory = append(l.trainHistory, *log)
	if l.path != "" {
		util.AppendJSONLine(path.Join(l.path, "train.jsonl"), log)
	}
}

// RewardHistory is the mean return of every written episode log
func (l *Logger) RewardHistory() []float64 {
	return l.rewardHistory
}

// LastReturn is the most recently written mean episode return
func (l *Logger) LastReturn() (float64, bool) {
	if len(l.rewardHistory) == 0 {
		return 0, false
	}
	return l.rewardHistory[len(l.rewardHistory)-1], true
}

// LastTrainLog is the most recently appended training log
func (l *Logger) LastTrainLog() (types.Log, bool) {
	if len(l.trainHistory) == 0 {
		return types.Log{}, false
	}
	return l.trainHistory[len(l.trainHistory)-1], true
}
