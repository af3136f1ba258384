package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-csa/server/internal/agent/model"
)

func sampleCheckpoint() *model.Checkpoint {
	return &model.Checkpoint{
		Messages: []model.Message{
			{Role: model.RoleHuman, Content: "hi"},
			{Role: model.RoleAI, Content: "hello"},
		},
		Entities:  map[string]any{"orderId": "12345"},
		Language:  "en",
		UpdatedAt: time.Now().UTC(),
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryCheckpointStore()
	ctx := context.Background()

	cp, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, cp)

	require.NoError(t, s.Put(ctx, "t1", sampleCheckpoint()))

	cp, err = s.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Len(t, cp.Messages, 2)
	assert.Equal(t, "12345", cp.Entities["orderId"])
	assert.Equal(t, "en", cp.Language)
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	s := NewMemoryCheckpointStore()
	ctx := context.Background()

	in := sampleCheckpoint()
	require.NoError(t, s.Put(ctx, "t1", in))

	// mutating the caller's copy must not leak into the store
	in.Entities["orderId"] = "mutated"
	in.Messages[0].Content = "mutated"

	cp, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "12345", cp.Entities["orderId"])
	assert.Equal(t, "hi", cp.Messages[0].Content)

	// mutating a Get result must not leak either
	cp.Entities["orderId"] = "again"
	cp2, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "12345", cp2.Entities["orderId"])
}

type failingStore struct {
	failGet bool
	failPut bool
	inner   *MemoryCheckpointStore
}

func (f *failingStore) Get(ctx context.Context, threadID string) (*model.Checkpoint, error) {
	if f.failGet {
		return nil, errors.New("primary down")
	}
	return f.inner.Get(ctx, threadID)
}

func (f *failingStore) Put(ctx context.Context, threadID string, cp *model.Checkpoint) error {
	if f.failPut {
		return errors.New("primary down")
	}
	return f.inner.Put(ctx, threadID, cp)
}

func TestFallbackUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &failingStore{inner: NewMemoryCheckpointStore()}
	s := NewFallbackCheckpointStore(primary)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", sampleCheckpoint()))
	cp, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.False(t, s.Degraded())
}

func TestFallbackDegradesPermanently(t *testing.T) {
	primary := &failingStore{failPut: true, inner: NewMemoryCheckpointStore()}
	s := NewFallbackCheckpointStore(primary)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", sampleCheckpoint()))
	assert.True(t, s.Degraded())

	// primary recovers, but the store stays on memory
	primary.failPut = false
	cp, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Len(t, cp.Messages, 2)

	// nothing ever reached the primary
	got, err := primary.inner.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisCheckpointKey(t *testing.T) {
	assert.Equal(t, "thread:abc:checkpoint", checkpointKey("abc"))
}

func TestRedisStoreTTLFallback(t *testing.T) {
	s := NewRedisCheckpointStore(nil, "not a duration")
	assert.Equal(t, defaultCheckpointTTL, s.ttl)

	s = NewRedisCheckpointStore(nil, "30m")
	assert.Equal(t, 30*time.Minute, s.ttl)
}
