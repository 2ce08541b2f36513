package types

import (
	"testing"
)

func TestBatchRewardSumsPerEnv(t *testing.T) {
	batch := &Batch{
		Rewards: []float64{1, 2, 3, 4},
		NumEnvs: 2,
	}
	sums := batch.RewardSumsPerEnv()
	if len(sums) != 2 {
		t.Fatalf("expected 2 sums, got %d", len(sums))
	}
	if sums[0] != 4 || sums[1] != 6 {
		t.Errorf("expected sums [4 6], got %v", sums)
	}
}

func TestBatchLen(t *testing.T) {
	batch := &Batch{Rewards: []float64{1, 2, 3}, NumEnvs: 1}
	if batch.Len() != 3 {
		t.Errorf("expected length 3, got %d", batch.Len())
	}
}
