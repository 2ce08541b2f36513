package buffers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/rand"

	"github.com/LondonNode/anvil/types"
)

// redisTimestep is the wire format of one stored timestep
type redisTimestep struct {
	Observations     [][]float64 `json:"obs"`
	Actions          [][]float64 `json:"actions"`
	Rewards          []float64   `json:"rewards"`
	NextObservations [][]float64 `json:"next_obs"`
	Dones            []bool      `json:"dones"`
}

// RedisBufferConfig configures the Redis-backed store
type RedisBufferConfig struct {
	Addr string
	// Key is the list key transitions are stored under, defaults to
	// "anvil:buffer"
	Key string
	// BufferSize caps the list length, defaults to DefaultBufferSize
	BufferSize int
	NumEnvs    int
	Seed       uint64
}

// RedisBuffer keeps the experience store in a Redis list, so rollout
// collection and training can live in separate processes
type RedisBuffer struct {
	client   *redis.Client
	ctx      context.Context
	key      string
	capacity int
	numEnvs  int
	rng      *rand.Rand
}

var _ types.Buffer = &RedisBuffer{}

func NewRedisBuffer(cfg RedisBufferConfig) (*RedisBuffer, error) {
	if cfg.NumEnvs < 1 {
		return nil, fmt.Errorf("buffer needs at least one environment, got %d", cfg.NumEnvs)
	}
	key := cfg.Key
	if key == "" {
		key = "anvil:buffer"
	}
	capacity := cfg.BufferSize
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = 1
	}
	b := &RedisBuffer{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr}),
		ctx:      context.Background(),
		key:      key,
		capacity: capacity,
		numEnvs:  cfg.NumEnvs,
		rng:      rand.New(rand.NewSource(seed)),
	}
	if err := b.client.Ping(b.ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return b, nil
}

func (b *RedisBuffer) AddTrajectory(observations, actions [][]float64, rewards []float64, nextObservations [][]float64, dones []bool) error {
	if len(rewards) != b.numEnvs {
		return fmt.Errorf("expected %d rewards, got %d", b.numEnvs, len(rewards))
	}
	bs, err := json.Marshal(redisTimestep{
		Observations:     observations,
		Actions:          actions,
		Rewards:          rewards,
		NextObservations: nextObservations,
		Dones:            dones,
	})
	if err != nil {
		return err
	}
	if err := b.client.RPush(b.ctx, b.key, bs).Err(); err != nil {
		return err
	}
	// keep only the freshest capacity entries
	return b.client.LTrim(b.ctx, b.key, int64(-b.capacity), -1).Err()
}

func (b *RedisBuffer) Size() int {
	n, err := b.client.LLen(b.ctx, b.key).Result()
	if err != nil {
		return 0
	}
	return int(n)
}

func (b *RedisBuffer) Sample(batchSize int, flattenEnv bool) (*types.Batch, error) {
	size := b.Size()
	if size == 0 {
		return nil, ErrEmptyBuffer
	}
	rows := batchSize
	if !flattenEnv {
		rows = batchSize * b.numEnvs
	}
	numEnvs := 1
	if !flattenEnv {
		numEnvs = b.numEnvs
	}
	batch := newBatch(rows, numEnvs)
	for i := 0; i < batchSize; i++ {
		t, err := b.fetch(int64(b.rng.Intn(size)))
		if err != nil {
			return nil, err
		}
		if flattenEnv {
			appendRow(batch, t, b.rng.Intn(b.numEnvs))
			continue
		}
		for e := 0; e < b.numEnvs; e++ {
			appendRow(batch, t, e)
		}
	}
	return batch, nil
}

func (b *RedisBuffer) All() (*types.Batch, error) {
	entries, err := b.client.LRange(b.ctx, b.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyBuffer
	}
	batch := newBatch(len(entries)*b.numEnvs, b.numEnvs)
	for _, raw := range entries {
		var t redisTimestep
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, err
		}
		for e := 0; e < b.numEnvs; e++ {
			appendRow(batch, t.toTimestep(), e)
		}
	}
	return batch, nil
}

func (b *RedisBuffer) Reset() error {
	return b.client.Del(b.ctx, b.key).Err()
}

func (b *RedisBuffer) fetch(index int64) (timestep, error) {
	raw, err := b.client.LIndex(b.ctx, b.key, index).Result()
	if err != nil {
		return timestep{}, err
	}
	var t redisTimestep
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return timestep{}, err
	}
	return t.toTimestep(), nil
}

func (t redisTimestep) toTimestep() timestep {
	return timestep{
		observations:     t.Observations,
		actions:          t.Actions,
		rewards:          t.Rewards,
		nextObservations: t.NextObservations,
		dones:            t.Dones,
	}
}
