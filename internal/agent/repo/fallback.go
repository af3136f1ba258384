package repo

import (
	"context"
	"sync"

	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

// FallbackCheckpointStore wraps a primary store and degrades to an in-memory
// one on the first primary failure. The degradation is permanent for the
// process lifetime; per-call probing would make thread history flap between
// backends.
type FallbackCheckpointStore struct {
	primary model.CheckpointStore
	memory  *MemoryCheckpointStore

	mu       sync.Mutex
	degraded bool
}

var _ model.CheckpointStore = (*FallbackCheckpointStore)(nil)

// NewFallbackCheckpointStore wraps the primary store.
func NewFallbackCheckpointStore(primary model.CheckpointStore) *FallbackCheckpointStore {
	return &FallbackCheckpointStore{
		primary: primary,
		memory:  NewMemoryCheckpointStore(),
	}
}

// Degraded reports whether the store has switched to memory.
func (s *FallbackCheckpointStore) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *FallbackCheckpointStore) degrade(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		return
	}
	s.degraded = true
	logx.Error().
		Err(err).
		Str("operation", op).
		Msg("checkpoint primary failed, degrading to in-memory store for the rest of the process")
}

// Get reads from the primary until it fails once, then from memory.
func (s *FallbackCheckpointStore) Get(ctx context.Context, threadID string) (*model.Checkpoint, error) {
	if !s.Degraded() {
		cp, err := s.primary.Get(ctx, threadID)
		if err == nil {
			return cp, nil
		}
		s.degrade("get", err)
	}
	return s.memory.Get(ctx, threadID)
}

// Put writes to the primary until it fails once, then to memory.
func (s *FallbackCheckpointStore) Put(ctx context.Context, threadID string, cp *model.Checkpoint) error {
	if !s.Degraded() {
		err := s.primary.Put(ctx, threadID, cp)
		if err == nil {
			return nil
		}
		s.degrade("put", err)
	}
	return s.memory.Put(ctx, threadID, cp)
}
