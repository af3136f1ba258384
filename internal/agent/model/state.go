package model

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// Message is one entry in a conversation history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SentimentLabel is the normalized polarity bucket of a sentiment score.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "positive"
	SentimentNeutral  SentimentLabel = "neutral"
	SentimentNegative SentimentLabel = "negative"
)

// Sentiment holds the normalized output of the annotator for one turn.
// Score is in [-1, 1], Magnitude is >= 0.
type Sentiment struct {
	Score     float64        `json:"score"`
	Magnitude float64        `json:"magnitude"`
	Label     SentimentLabel `json:"label"`
}

// NeutralSentiment is the safe default used whenever annotation fails.
func NeutralSentiment() Sentiment {
	return Sentiment{Score: 0, Magnitude: 0, Label: SentimentNeutral}
}

// Article is one knowledge-base candidate returned by the article store.
// RerankScore is assigned during the re-ranking pass; it is zero until then.
type Article struct {
	Title       string  `json:"title"`
	Content     string  `json:"content"`
	Source      string  `json:"source"`
	Relevance   float64 `json:"relevance"`
	RerankScore float64 `json:"rerank_score,omitempty"`
}

// ActionResult is the normalized envelope for one dispatched backend action.
// Err carries the underlying failure detail for logs only; Message is always
// safe to show to the end user.
type ActionResult struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
	Err     string         `json:"error,omitempty"`
}

// ConversationState is the mutable state threaded through one workflow
// invocation. It is exclusively owned by that invocation; persistence across
// turns goes through the CheckpointStore as a Checkpoint slice of it.
type ConversationState struct {
	ThreadID  string `json:"thread_id"`
	UserInput string `json:"user_input"`

	Intent        Intent         `json:"intent"`
	Entities      map[string]any `json:"entities"`
	Sentiment     Sentiment      `json:"sentiment"`
	Language      string         `json:"language"`
	NLUConfidence float64        `json:"nlu_confidence"`

	RetrievedDocs       []Article `json:"retrieved_docs"`
	Context             string    `json:"context"`
	KnowledgeConfidence float64   `json:"knowledge_confidence"`

	ActionTaken  Intent        `json:"action_taken,omitempty"`
	ActionResult *ActionResult `json:"action_result,omitempty"`

	History       []Message `json:"conversation_history"`
	FinalResponse string    `json:"final_response"`
}

// AppendHuman appends the user's message to the history.
func (s *ConversationState) AppendHuman(content string) {
	s.History = append(s.History, Message{Role: RoleHuman, Content: content})
}

// AppendAI appends an agent reply to the history.
func (s *ConversationState) AppendAI(content string) {
	s.History = append(s.History, Message{Role: RoleAI, Content: content})
}

// LastTurns returns the trailing n messages without sharing the backing array.
func (s *ConversationState) LastTurns(n int) []Message {
	msgs := s.History
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Checkpoint is the slice of conversation state persisted between turns,
// keyed by thread id. Messages are append-only within a thread; Entities
// carry extracted slots forward so a follow-up turn can complete an action
// the previous turn could not.
type Checkpoint struct {
	Messages  []Message      `json:"messages"`
	Entities  map[string]any `json:"entities,omitempty"`
	Language  string         `json:"language,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// QueryInput is the public input of one workflow invocation.
type QueryInput struct {
	ThreadID string `json:"thread_id"`
	Query    string `json:"query"`
}

// TurnState is the eino graph local state for one invocation.
// Concurrency model:
//   - Registered via compose.WithGenLocalState; reads and writes happen only
//     inside state handlers or compose.ProcessState, which eino serializes.
//   - Never touched outside handlers; the ConversationState payload flowing
//     through the nodes carries everything else.
type TurnState struct {
	ThreadID       string
	Stages         []string // visited stage names, in order
	Clarifications int      // retrieve -> understand loop-backs taken this turn
}
