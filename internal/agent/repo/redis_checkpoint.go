// Package repo implements checkpoint persistence for conversation threads.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vision-csa/server/internal/agent/model"
	errx "github.com/vision-csa/server/internal/core/error"
)

const defaultCheckpointTTL = 15 * time.Minute

func checkpointKey(threadID string) string {
	return fmt.Sprintf("thread:%s:checkpoint", threadID)
}

// RedisCheckpointStore keeps one JSON checkpoint per thread with a rolling
// TTL. Writes are last-write-wins.
type RedisCheckpointStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ model.CheckpointStore = (*RedisCheckpointStore)(nil)

// NewRedisCheckpointStore builds the store. ttl accepts a duration string
// such as "15m"; empty or invalid values fall back to the default.
func NewRedisCheckpointStore(client *redis.Client, ttl string) *RedisCheckpointStore {
	d, err := time.ParseDuration(ttl)
	if err != nil || d <= 0 {
		d = defaultCheckpointTTL
	}
	return &RedisCheckpointStore{client: client, ttl: d}
}

// Get loads the checkpoint for a thread, or (nil, nil) when none exists.
func (s *RedisCheckpointStore) Get(ctx context.Context, threadID string) (*model.Checkpoint, error) {
	raw, err := s.client.Get(ctx, checkpointKey(threadID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errx.WrapRedis(err)
	}

	var cp model.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, errx.New(err, errx.StatusInternal, errx.CheckpointErrorMessage)
	}
	return &cp, nil
}

// Put stores the checkpoint and refreshes the TTL.
func (s *RedisCheckpointStore) Put(ctx context.Context, threadID string, cp *model.Checkpoint) error {
	if cp == nil {
		return errx.New(fmt.Errorf("nil checkpoint"), errx.StatusInternal, errx.CheckpointErrorMessage)
	}
	raw, err := json.Marshal(cp)
	if err != nil {
		return errx.New(err, errx.StatusInternal, errx.CheckpointErrorMessage)
	}
	if err := s.client.Set(ctx, checkpointKey(threadID), raw, s.ttl).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}
