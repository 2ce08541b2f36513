package types

import (
	"fmt"
	"strings"
)

// TrainFrequencyType selects whether training triggers are counted in
// environment steps or in completed episodes
type TrainFrequencyType int

const (
	TrainFrequencyStep TrainFrequencyType = iota
	TrainFrequencyEpisode
)

func (t TrainFrequencyType) String() string {
	switch t {
	case TrainFrequencyStep:
		return "step"
	case TrainFrequencyEpisode:
		return "episode"
	}
	return "unknown"
}

// TrainFrequency is the cadence between successive training triggers.
// Immutable once constructed.
type TrainFrequency struct {
	kind TrainFrequencyType
	n    int
}

// NewTrainFrequency normalizes a (kind, count) pair. The kind string is
// case-insensitive and must be "step" or "episode"; n must be at least 1.
func NewTrainFrequency(kind string, n int) (TrainFrequency, error) {
	if n < 1 {
		return TrainFrequency{}, fmt.Errorf("train frequency count must be at least 1, got %d", n)
	}
	switch strings.ToLower(kind) {
	case "step":
		return TrainFrequency{kind: TrainFrequencyStep, n: n}, nil
	case "episode":
		return TrainFrequency{kind: TrainFrequencyEpisode, n: n}, nil
	}
	return TrainFrequency{}, fmt.Errorf("unrecognized train frequency kind %q", kind)
}

// EveryStep is the default cadence of one training trigger per step
func EveryStep() TrainFrequency {
	return TrainFrequency{kind: TrainFrequencyStep, n: 1}
}

func (f TrainFrequency) Kind() TrainFrequencyType {
	return f.kind
}

func (f TrainFrequency) N() int {
	return f.n
}

// Valid reports whether the frequency was properly constructed
func (f TrainFrequency) Valid() bool {
	return f.n >= 1
}
