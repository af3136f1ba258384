package gemini

import (
	"context"
	"fmt"

	einogemini "github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/schema"

	"github.com/vision-csa/server/internal/agent/graph/parsers"
	"github.com/vision-csa/server/internal/agent/graph/prompts"
	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

// Annotator runs the annotation prompt against the annotator chat model and
// parses the tuple output.
type Annotator struct {
	chat      *einogemini.ChatModel
	modelName string
}

var _ model.Annotator = (*Annotator)(nil)

// NewAnnotator wraps the annotator chat model.
func NewAnnotator(m *Models) *Annotator {
	return &Annotator{chat: m.Annotator, modelName: m.AnnotatorModelName}
}

// Analyze sends the text through the annotation prompt and returns the parsed
// sentiment, entities and language.
func (a *Annotator) Analyze(ctx context.Context, text string) (*model.Annotation, error) {
	sys, err := prompts.RenderAnnotatorSystem(ctx)
	if err != nil {
		return nil, fmt.Errorf("annotator prompt: %w", err)
	}

	resp, err := a.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(sys),
		schema.UserMessage(text),
	})
	if err != nil {
		logx.Error().Err(err).Str("model", a.modelName).Msg("annotator generate failed")
		return nil, fmt.Errorf("annotator generate: %w", err)
	}
	logUsage(a.modelName, resp)

	ann, err := parsers.ParseAnnotation(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("annotator parse: %w", err)
	}
	return ann, nil
}
