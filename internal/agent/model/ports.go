package model

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// NamedEntity is one generic entity found by the annotator.
type NamedEntity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Annotation is the raw output of one external NLU call, before
// normalization.
type Annotation struct {
	SentimentScore     float64
	SentimentMagnitude float64
	Entities           []NamedEntity
	Language           string
}

// Annotator wraps one external sentiment/entity analysis call.
type Annotator interface {
	Analyze(ctx context.Context, text string) (*Annotation, error)
}

// KnowledgeStore is an opaque keyword search over support articles. It may
// return an empty slice; a store-level failure is returned as an error.
type KnowledgeStore interface {
	Search(ctx context.Context, query string) ([]Article, error)
}

// Generator is an opaque text-completion service. It is used with three
// distinct prompt templates: re-rank scoring, synthesis, and final
// composition.
type Generator interface {
	Complete(ctx context.Context, messages []*schema.Message) (string, error)
}

// IntegrationService performs one named external operation and returns its
// decoded JSON payload. One attempt per turn; retry policy belongs to the
// implementation's own client, never to the workflow core.
type IntegrationService interface {
	Invoke(ctx context.Context, op Operation, params map[string]any) (map[string]any, error)
}

// CheckpointStore persists conversation checkpoints keyed by thread id.
// Get returns (nil, nil) when no checkpoint exists for the thread.
// Semantics are last-write-wins per thread id.
type CheckpointStore interface {
	Get(ctx context.Context, threadID string) (*Checkpoint, error)
	Put(ctx context.Context, threadID string, cp *Checkpoint) error
}
