package types

// UpdaterLog records the outcome of a single update step. Value
// semantics, immutable once returned.
type UpdaterLog struct {
	Loss       float64
	Divergence float64
	Entropy    float64
}

// Log aggregates the diagnostics of one training trigger
type Log struct {
	ActorLoss  float64
	CriticLoss float64
	Divergence float64
	Entropy    float64
}
