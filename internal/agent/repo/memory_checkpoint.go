package repo

import (
	"context"
	"sync"

	"github.com/vision-csa/server/internal/agent/model"
)

// MemoryCheckpointStore is a process-local checkpoint store. It backs tests
// and the degraded mode of FallbackCheckpointStore. Entries never expire.
type MemoryCheckpointStore struct {
	mu          sync.RWMutex
	checkpoints map[string]*model.Checkpoint
}

var _ model.CheckpointStore = (*MemoryCheckpointStore)(nil)

// NewMemoryCheckpointStore builds an empty in-memory store.
func NewMemoryCheckpointStore() *MemoryCheckpointStore {
	return &MemoryCheckpointStore{checkpoints: make(map[string]*model.Checkpoint)}
}

// Get returns a copy of the stored checkpoint, or (nil, nil) when absent.
func (s *MemoryCheckpointStore) Get(_ context.Context, threadID string) (*model.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.checkpoints[threadID]
	if !ok {
		return nil, nil
	}
	cloned := *cp
	cloned.Messages = append([]model.Message(nil), cp.Messages...)
	if cp.Entities != nil {
		cloned.Entities = make(map[string]any, len(cp.Entities))
		for k, v := range cp.Entities {
			cloned.Entities[k] = v
		}
	}
	return &cloned, nil
}

// Put stores a copy of the checkpoint.
func (s *MemoryCheckpointStore) Put(_ context.Context, threadID string, cp *model.Checkpoint) error {
	cloned := *cp
	cloned.Messages = append([]model.Message(nil), cp.Messages...)
	if cp.Entities != nil {
		cloned.Entities = make(map[string]any, len(cp.Entities))
		for k, v := range cp.Entities {
			cloned.Entities[k] = v
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkpoints[threadID] = &cloned
	return nil
}
