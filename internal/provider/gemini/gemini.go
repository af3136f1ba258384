// Package gemini wires the Gemini-backed annotator and generator used by the
// support agent. Both share one genai client.
package gemini

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

// Config holds everything needed to build both chat models.
type Config struct {
	APIKey       string
	BaseURL      string
	AnnotatorCfg *model.AnnotatorModelConfig
	GeneratorCfg *model.GeneratorModelConfig
}

// Models holds the annotator and generator chat models.
type Models struct {
	Annotator          *gemini.ChatModel
	Generator          *gemini.ChatModel
	AnnotatorModelName string
	GeneratorModelName string
}

// NewModels creates both chat models over a shared Gemini client.
func NewModels(ctx context.Context, config Config) (*Models, error) {
	if config.AnnotatorCfg == nil || config.GeneratorCfg == nil {
		return nil, fmt.Errorf("gemini model configs are required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	annotator, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.AnnotatorCfg.Model,
		Temperature: &config.AnnotatorCfg.Temperature,
		MaxTokens:   &config.AnnotatorCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating annotator model")
		return nil, fmt.Errorf("error creating annotator model: %w", err)
	}

	generator, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.GeneratorCfg.Model,
		Temperature: &config.GeneratorCfg.Temperature,
		MaxTokens:   &config.GeneratorCfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating generator model")
		return nil, fmt.Errorf("error creating generator model: %w", err)
	}

	return &Models{
		Annotator:          annotator,
		Generator:          generator,
		AnnotatorModelName: config.AnnotatorCfg.Model,
		GeneratorModelName: config.GeneratorCfg.Model,
	}, nil
}

func logUsage(modelName string, msg *schema.Message) {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return
	}
	usage := msg.ResponseMeta.Usage
	inCost, outCost, totalCost := model.ComputeCost(usage, model.ResolvePricing(modelName))
	logx.Debug().
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Float64("input_cost_usd", inCost).
		Float64("output_cost_usd", outCost).
		Float64("total_cost_usd", totalCost).
		Msg("model usage")
}
