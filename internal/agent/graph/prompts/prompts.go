// Package prompts holds the embedded prompt templates and their renderers.
// Rendering goes through the Eino prompt component so prompt callbacks fire.
package prompts

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/vision-csa/server/internal/agent/model"
)

//go:embed template/*.txt
var templateFS embed.FS

func mustTemplate(name string) string {
	b, err := templateFS.ReadFile("template/" + name)
	if err != nil {
		panic(fmt.Sprintf("missing embedded template %s: %v", name, err))
	}
	return string(b)
}

var (
	annotatorSystemPrompt = mustTemplate("annotator_prompt.txt")
	rerankPrompt          = mustTemplate("rerank_prompt.txt")
	synthesisPrompt       = mustTemplate("synthesis_prompt.txt")
	dialogSystemPrompt    = mustTemplate("dialog_prompt.txt")
)

// RenderAnnotatorSystem renders the annotator system prompt. Delimiter tokens
// are substituted with a Replacer so the tuple examples in the template do not
// collide with template syntax.
func RenderAnnotatorSystem(ctx context.Context) (string, error) {
	content := strings.NewReplacer(
		"{TD}", "<||>",
		"{RD}", "##",
		"{CD}", "<|COMPLETE|>",
	).Replace(annotatorSystemPrompt)

	// Wrap via a messages placeholder so prompt callbacks still fire.
	tpl := prompt.FromMessages(
		schema.FString,
		schema.MessagesPlaceholder("system_messages", false),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"system_messages": []*schema.Message{schema.SystemMessage(content)},
	})
	if err != nil {
		return "", fmt.Errorf("annotator prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("annotator prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderRerank renders the relevance scoring prompt for one article.
func RenderRerank(ctx context.Context, query string, art model.Article) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(rerankPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Query":   query,
		"Title":   art.Title,
		"Content": art.Content,
	})
	if err != nil {
		return "", fmt.Errorf("rerank prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("rerank prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// RenderSynthesis renders the answer synthesis prompt over the top articles.
func RenderSynthesis(ctx context.Context, query string, articles []model.Article) (string, error) {
	var b strings.Builder
	for i, a := range articles {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s\n%s", i+1, a.Title, a.Content)
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.UserMessage(synthesisPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"Query":    query,
		"Excerpts": b.String(),
	})
	if err != nil {
		return "", fmt.Errorf("synthesis prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("synthesis prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// DialogVars carries everything the dialog system prompt interpolates.
type DialogVars struct {
	AgentName string
	History   string
	Context   string
	UserInput string
	Intent    string
	Sentiment string
}

// RenderDialogSystem renders the conversational system prompt.
func RenderDialogSystem(ctx context.Context, vars DialogVars) (string, error) {
	if vars.AgentName == "" {
		vars.AgentName = "Support Assistant"
	}
	if vars.History == "" {
		vars.History = "(no prior turns)"
	}
	if vars.Context == "" {
		vars.Context = "(none)"
	}

	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(dialogSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"AgentName": vars.AgentName,
		"History":   vars.History,
		"Context":   vars.Context,
		"UserInput": vars.UserInput,
		"Intent":    vars.Intent,
		"Sentiment": vars.Sentiment,
	})
	if err != nil {
		return "", fmt.Errorf("dialog prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("dialog prompt render: empty result")
	}
	return msgs[0].Content, nil
}
