// Package openai provides an alternate generator backend over the OpenAI
// chat completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

// Config selects the model and credentials for the OpenAI backend.
type Config struct {
	APIKey string
	Model  string
}

// Generator implements the text completion port on top of OpenAI chat
// completions.
type Generator struct {
	client    openai.Client
	modelName string
}

var _ model.Generator = (*Generator)(nil)

// NewGenerator builds the OpenAI-backed generator.
func NewGenerator(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	name := cfg.Model
	if name == "" {
		name = openai.ChatModelGPT4oMini
	}
	return &Generator{
		client:    openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		modelName: name,
	}, nil
}

// Complete runs one chat completion over the given messages.
func (g *Generator) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    g.modelName,
		Messages: toOpenAIMessages(messages),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		logx.Error().Err(err).Str("model", g.modelName).Msg("openai completion failed")
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: no choices")
	}

	usage := &schema.TokenUsage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	inCost, outCost, totalCost := model.ComputeCost(usage, model.ResolvePricing(g.modelName))
	logx.Debug().
		Str("model", g.modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Float64("input_cost_usd", inCost).
		Float64("output_cost_usd", outCost).
		Float64("total_cost_usd", totalCost).
		Msg("model usage")

	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(m.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
