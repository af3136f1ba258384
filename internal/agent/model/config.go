package model

// ================ Config ================

// RoutingConfig holds the hand-tuned confidence thresholds that drive the
// workflow's conditional edges. They are configuration rather than literals
// so they can be tuned without code changes.
type RoutingConfig struct {
	// Understanding below this escalates straight to a human.
	EscalateBelow float64 `envconfig:"ROUTING_ESCALATE_BELOW" default:"0.4"`
	// Knowledge confidence above this answers directly.
	RespondAbove float64 `envconfig:"ROUTING_RESPOND_ABOVE" default:"0.8"`
	// Knowledge confidence above this (but not above RespondAbove) asks for
	// clarification by looping back to understanding.
	ClarifyAbove float64 `envconfig:"ROUTING_CLARIFY_ABOVE" default:"0.5"`
	// Sentiment score below this counts as hot enough to escalate when
	// knowledge is middling.
	NegativeScoreBelow float64 `envconfig:"ROUTING_NEGATIVE_SCORE_BELOW" default:"-0.3"`
	// Maximum retrieve -> understand loop-backs in one turn.
	MaxClarifications int `envconfig:"ROUTING_MAX_CLARIFICATIONS" default:"1"`
}

// KnowledgeConfig configures the retrieval and synthesis pipeline.
type KnowledgeConfig struct {
	// DSN selects the article store backend: postgres:// for PostgreSQL
	// full-text search, anything else is treated as a SQLite file path.
	DSN string `envconfig:"KNOWLEDGE_DSN" default:"kb.db"`
	// MaxCandidates caps how many store hits enter the re-ranking pass.
	MaxCandidates int `envconfig:"KNOWLEDGE_MAX_CANDIDATES" default:"5"`
	// TopN articles survive re-ranking into synthesis.
	TopN int `envconfig:"KNOWLEDGE_TOP_N" default:"3"`
	// RerankEnabled toggles the per-article scoring pass. When disabled the
	// pipeline keeps store order and reports the default confidence.
	RerankEnabled bool `envconfig:"KNOWLEDGE_RERANK_ENABLED" default:"true"`
}

// ConversationConfig configures history persistence and summarization.
type ConversationConfig struct {
	TTL string `envconfig:"CONVERSATION_TTL" default:"15m"`
	// SummaryTurns is how many trailing messages feed an escalation summary.
	SummaryTurns int `envconfig:"CONVERSATION_SUMMARY_TURNS" default:"4"`
}

// AnnotatorModelConfig configures the chat model behind the annotator.
type AnnotatorModelConfig struct {
	Model       string  `envconfig:"ANNOTATOR_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"ANNOTATOR_MAX_TOKENS" default:"1000"`
	Temperature float32 `envconfig:"ANNOTATOR_TEMPERATURE" default:"0.1"`
}

// GeneratorModelConfig configures the chat model behind re-rank scoring,
// synthesis, and composition.
type GeneratorModelConfig struct {
	Model       string  `envconfig:"GENERATOR_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"GENERATOR_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"GENERATOR_TEMPERATURE" default:"0.4"`
}

// PromptConfig carries the agent persona rendered into the dialog prompt.
type PromptConfig struct {
	AgentName string `envconfig:"PROMPT_AGENT_NAME" default:"Vision AI"`
}
