package gemini

import (
	"context"
	"fmt"

	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"

	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

// Generator adapts the generator chat model to the text completion port used
// by knowledge synthesis and dialogue composition.
type Generator struct {
	chat      *einogemini.ChatModel
	modelName string
}

var _ model.Generator = (*Generator)(nil)

// NewGenerator wraps the generator chat model.
func NewGenerator(m *Models) *Generator {
	return &Generator{chat: m.Generator, modelName: m.GeneratorModelName}
}

// Complete runs one generation over the given messages and returns the text.
func (g *Generator) Complete(ctx context.Context, messages []*schema.Message) (string, error) {
	resp, err := g.chat.Generate(ctx, messages)
	if err != nil {
		logx.Error().Err(err).Str("model", g.modelName).Msg("generator generate failed")
		return "", fmt.Errorf("generator generate: %w", err)
	}
	logUsage(g.modelName, resp)
	return resp.Content, nil
}
