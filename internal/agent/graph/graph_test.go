package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vision-csa/server/internal/agent/actions"
	"github.com/vision-csa/server/internal/agent/dialog"
	"github.com/vision-csa/server/internal/agent/knowledge"
	"github.com/vision-csa/server/internal/agent/model"
	"github.com/vision-csa/server/internal/agent/repo"
)

// --- mocks ---

type mockAnnotator struct {
	ann   *model.Annotation
	err   error
	calls int
}

func (m *mockAnnotator) Analyze(_ context.Context, _ string) (*model.Annotation, error) {
	m.calls++
	return m.ann, m.err
}

type mockStore struct {
	articles []model.Article
	err      error
}

func (m *mockStore) Search(_ context.Context, _ string) ([]model.Article, error) {
	return m.articles, m.err
}

// mockGenerator answers rerank, synthesis and dialog prompts by shape.
type mockGenerator struct {
	rerankScore string
	synthesis   string
	reply       string
}

func (m *mockGenerator) Complete(_ context.Context, msgs []*schema.Message) (string, error) {
	if len(msgs) == 1 && strings.Contains(msgs[0].Content, "Relevance score:") {
		return m.rerankScore, nil
	}
	if len(msgs) == 1 && strings.Contains(msgs[0].Content, "Excerpts:") {
		return m.synthesis, nil
	}
	return m.reply, nil
}

type mockIntegration struct {
	lastOp model.Operation
	data   map[string]any
	err    error
}

func (m *mockIntegration) Invoke(_ context.Context, op model.Operation, _ map[string]any) (map[string]any, error) {
	m.lastOp = op
	return m.data, m.err
}

type fixture struct {
	annotator   *mockAnnotator
	integration *mockIntegration
	checkpoints *repo.MemoryCheckpointStore
	runner      Runner
}

func neutralAnnotation() *model.Annotation {
	return &model.Annotation{Language: "en"}
}

func buildFixture(t *testing.T, ann *mockAnnotator, store *mockStore, gen *mockGenerator, integ *mockIntegration) *fixture {
	t.Helper()

	checkpoints := repo.NewMemoryCheckpointStore()
	var routing model.RoutingConfig
	routing.EscalateBelow = 0.4
	routing.RespondAbove = 0.8
	routing.ClarifyAbove = 0.5
	routing.NegativeScoreBelow = -0.3
	routing.MaxClarifications = 1

	runner, err := BuildSupportGraph(context.Background(), Config{
		Annotator:   ann,
		Knowledge:   knowledge.NewPipeline(store, gen, model.KnowledgeConfig{TopN: 3, RerankEnabled: true}),
		Dispatcher:  actions.NewDispatcher(integ, 0),
		Composer:    dialog.NewComposer(gen, model.PromptConfig{AgentName: "Vision AI"}),
		Checkpoints: checkpoints,
		Routing:     routing,
	})
	require.NoError(t, err)

	return &fixture{annotator: ann, integration: integ, checkpoints: checkpoints, runner: runner}
}

// --- tests ---

func TestOrderStatusRunsAction(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{ann: neutralAnnotation()},
		&mockStore{},
		&mockGenerator{reply: "Order 12345 is on its way."},
		&mockIntegration{data: map[string]any{"status": "shipped"}},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "Where is my order #12345?", "thread-1")
	require.NoError(t, err)
	assert.Equal(t, "Order 12345 is on its way.", out)
	assert.Equal(t, model.OpGetOrderStatus, f.integration.lastOp)

	cp, err := f.checkpoints.Get(context.Background(), "thread-1")
	require.NoError(t, err)
	require.NotNil(t, cp)
	require.Len(t, cp.Messages, 2)
	assert.Equal(t, model.RoleHuman, cp.Messages[0].Role)
	assert.Equal(t, model.RoleAI, cp.Messages[1].Role)
	assert.Equal(t, "12345", cp.Entities[model.SlotOrderID])
}

func TestEscalationCreatesTicket(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{ann: &model.Annotation{SentimentScore: -0.6, SentimentMagnitude: 0.8, Language: "en"}},
		&mockStore{},
		&mockGenerator{},
		&mockIntegration{data: map[string]any{"ticket_id": "HS-881"}},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "I need to speak with a human agent now.", "thread-2")
	require.NoError(t, err)
	assert.Contains(t, out, "HS-881")
	assert.Contains(t, out, "human support team")
	assert.Equal(t, model.OpCreateTicket, f.integration.lastOp)
}

func TestEscalationTicketFailureStillReplies(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{ann: neutralAnnotation()},
		&mockStore{},
		&mockGenerator{},
		&mockIntegration{err: errors.New("webhook down")},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "let me talk to a human", "thread-3")
	require.NoError(t, err)
	assert.Contains(t, out, "escalating this to a human agent")
}

func TestAnnotatorFailureEscalates(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{err: errors.New("nlu service down")},
		&mockStore{},
		&mockGenerator{},
		&mockIntegration{data: map[string]any{"ticket_id": "HS-1"}},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "anything at all", "thread-4")
	require.NoError(t, err)
	assert.Contains(t, out, "support ticket")
	assert.Equal(t, model.OpCreateTicket, f.integration.lastOp)
}

func TestQuestionWithStrongKnowledgeConverses(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{ann: neutralAnnotation()},
		&mockStore{articles: []model.Article{{Title: "Refund policy", Content: "5 business days."}}},
		&mockGenerator{rerankScore: "0.9", synthesis: "Refunds take 5 business days.", reply: "Refunds take about 5 business days to process."},
		&mockIntegration{},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "How long do refunds take?", "thread-5")
	require.NoError(t, err)
	assert.Equal(t, "Refunds take about 5 business days to process.", out)
	assert.Empty(t, f.integration.lastOp)
}

func TestClarificationLoopIsBounded(t *testing.T) {
	// middling knowledge confidence on a non-question keeps routing back to
	// understanding until the per-turn budget runs out
	ann := &mockAnnotator{ann: neutralAnnotation()}
	f := buildFixture(t,
		ann,
		&mockStore{articles: []model.Article{{Title: "Support", Content: "General help."}}},
		&mockGenerator{rerankScore: "0.7", synthesis: "Some help text.", reply: "Happy to help, could you tell me more?"},
		&mockIntegration{},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "hello there", "thread-6")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help, could you tell me more?", out)
	// one loop-back means two understanding passes
	assert.Equal(t, 2, ann.calls)
}

func TestStatementEscalatesOnLowConfidence(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{ann: neutralAnnotation()},
		&mockStore{},
		&mockGenerator{},
		&mockIntegration{data: map[string]any{"ticket_id": "HS-9"}},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "This is a statement.", "thread-7")
	require.NoError(t, err)
	assert.Contains(t, out, "support ticket")
}

func TestHistoryGrowsAcrossTurns(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{ann: neutralAnnotation()},
		&mockStore{articles: []model.Article{{Title: "FAQ", Content: "Answers."}}},
		&mockGenerator{rerankScore: "0.9", synthesis: "Answer.", reply: "Here you go."},
		&mockIntegration{},
	)
	ctx := context.Background()

	_, err := f.runner.ProcessMessage(ctx, "What are your support hours?", "thread-8")
	require.NoError(t, err)
	_, err = f.runner.ProcessMessage(ctx, "And on weekends?", "thread-8")
	require.NoError(t, err)

	cp, err := f.checkpoints.Get(ctx, "thread-8")
	require.NoError(t, err)
	require.NotNil(t, cp)
	assert.Len(t, cp.Messages, 4)
	assert.Equal(t, "What are your support hours?", cp.Messages[0].Content)
	assert.Equal(t, "And on weekends?", cp.Messages[2].Content)
}

func TestEmptyThreadIDGetsGenerated(t *testing.T) {
	f := buildFixture(t,
		&mockAnnotator{ann: neutralAnnotation()},
		&mockStore{articles: []model.Article{{Title: "FAQ", Content: "Answers."}}},
		&mockGenerator{rerankScore: "0.9", synthesis: "Answer.", reply: "Hi!"},
		&mockIntegration{},
	)

	out, err := f.runner.ProcessMessage(context.Background(), "What services do you offer?", "")
	require.NoError(t, err)
	assert.Equal(t, "Hi!", out)
}

func TestBuildValidatesConfig(t *testing.T) {
	_, err := BuildSupportGraph(context.Background(), Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "annotator is nil")
}
