package updaters

// SoftQTarget computes the soft-actor-critic bootstrapped regression
// target
//
//	target = reward + gamma*(1-done)*(qNext - alpha*logProb)
//
// A done flag of 1 zeroes the bootstrap term, so terminal transitions
// regress to the raw reward.
func SoftQTarget(rewards, dones, qNext, logProbs []float64, alpha, gamma float64) []float64 {
	out := make([]float64, len(rewards))
	for i := range rewards {
		out[i] = rewards[i] + gamma*(1-dones[i])*(qNext[i]-alpha*logProbs[i])
	}
	return out
}
