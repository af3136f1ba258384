package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/vision-csa/server/internal/agent/actions"
	"github.com/vision-csa/server/internal/agent/dialog"
	"github.com/vision-csa/server/internal/agent/graph"
	"github.com/vision-csa/server/internal/agent/knowledge"
	"github.com/vision-csa/server/internal/agent/model"
	"github.com/vision-csa/server/internal/agent/repo"
	"github.com/vision-csa/server/internal/core"
	"github.com/vision-csa/server/internal/integrations"
	"github.com/vision-csa/server/internal/provider/gemini"
	"github.com/vision-csa/server/internal/provider/openai"
	"github.com/vision-csa/server/internal/store"
	logx "github.com/vision-csa/server/pkg/logger"
	pkgredis "github.com/vision-csa/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent demo, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	Provider     string `envconfig:"GENAI_PROVIDER" default:"gemini"`
	APIKey       string `envconfig:"GEMINI_API_KEY"`
	BaseURL      string `envconfig:"GEMINI_BASE_URL"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL"`

	// Agent configs
	Annotator    model.AnnotatorModelConfig
	Generator    model.GeneratorModelConfig
	Prompt       model.PromptConfig
	Routing      model.RoutingConfig
	Knowledge    model.KnowledgeConfig
	Conversation model.ConversationConfig
	Webhooks     integrations.WebhookConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	// Gemini is always needed for annotation; the generator backend is
	// selectable.
	models, err := gemini.NewModels(ctx, gemini.Config{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		AnnotatorCfg: &cfg.Annotator,
		GeneratorCfg: &cfg.Generator,
	})
	if err != nil {
		log.Fatalf("Failed to create Gemini models: %v", err)
	}

	var generator model.Generator = gemini.NewGenerator(models)
	if cfg.Provider == "openai" {
		generator, err = openai.NewGenerator(openai.Config{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
		})
		if err != nil {
			log.Fatalf("Failed to create OpenAI generator: %v", err)
		}
	}

	articles, err := store.Open(cfg.Knowledge.DSN, cfg.Knowledge.MaxCandidates)
	if err != nil {
		log.Fatalf("Failed to open knowledge store: %v", err)
	}
	defer articles.Close()

	// Checkpoints live in Redis with an in-memory fallback; an unreachable
	// Redis at startup means starting degraded, not crashing.
	var checkpoints model.CheckpointStore
	if rdb, rerr := cfg.Redis.New(ctx); rerr != nil {
		log.Printf("Warning: Redis unavailable, using in-memory checkpoints: %v", rerr)
		checkpoints = repo.NewMemoryCheckpointStore()
	} else {
		defer rdb.Close()
		checkpoints = repo.NewFallbackCheckpointStore(
			repo.NewRedisCheckpointStore(rdb, cfg.Conversation.TTL))
	}

	runner, err := graph.BuildSupportGraph(ctx, graph.Config{
		Annotator:   gemini.NewAnnotator(models),
		Knowledge:   knowledge.NewPipeline(articles, generator, cfg.Knowledge),
		Dispatcher:  actions.NewDispatcher(integrations.NewWebhookService(cfg.Webhooks), cfg.Conversation.SummaryTurns),
		Composer:    dialog.NewComposer(generator, cfg.Prompt),
		Checkpoints: checkpoints,
		Routing:     cfg.Routing,
	})
	if err != nil {
		log.Fatalf("Failed to build workflow: %v", err)
	}

	testQueries := []struct {
		description string
		query       string
	}{
		{
			description: "Order status with an order id",
			query:       "Where is my order #12345?",
		},
		{
			description: "Knowledge question",
			query:       "How long do refunds usually take?",
		},
		{
			description: "Escalation request",
			query:       "I need to speak with a human agent now.",
		},
	}

	threadID := "demo-thread-001"

	for i, test := range testQueries {
		fmt.Printf("\nTest %d: %s\n", i+1, test.description)
		fmt.Printf("Query: %q\n", test.query)

		response, err := runner.ProcessMessage(ctx, test.query, threadID)
		if err != nil {
			log.Fatalf("Failed to process message for test %d: %v", i+1, err)
		}

		fmt.Printf("Response %d: %s\n", i+1, response)
		time.Sleep(500 * time.Millisecond)
	}

	fmt.Println("\nAll demo turns completed.")
}
