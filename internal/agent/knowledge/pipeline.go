// Package knowledge implements retrieval over the knowledge store with model
// based re-ranking and answer synthesis.
package knowledge

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/vision-csa/server/internal/agent/graph/prompts"
	"github.com/vision-csa/server/internal/agent/model"
	logx "github.com/vision-csa/server/pkg/logger"
)

const (
	// NoResultsMessage is surfaced as context when the store returns nothing.
	NoResultsMessage = "No relevant information found in the knowledge base."
	// AccessErrorMessage is surfaced as context when the store fails.
	AccessErrorMessage = "There was an issue accessing the knowledge base."
)

// confidence levels for the degraded paths
const (
	errorConfidence     = 0.1
	emptyConfidence     = 0.2
	unrankedConfidence  = 0.8
	fallbackConfidence  = 0.5
	failedRerankScore   = 0.1
	unparsedRerankScore = 0.2
)

// Result is what a retrieval pass hands back to the workflow.
type Result struct {
	Context    string
	Confidence float64
	Articles   []model.Article
}

// Pipeline runs search, re-rank and synthesis against the configured store
// and generator.
type Pipeline struct {
	store model.KnowledgeStore
	gen   model.Generator
	cfg   model.KnowledgeConfig
}

// NewPipeline wires the retrieval pipeline.
func NewPipeline(store model.KnowledgeStore, gen model.Generator, cfg model.KnowledgeConfig) *Pipeline {
	return &Pipeline{store: store, gen: gen, cfg: cfg}
}

// Retrieve searches the store for the query, re-ranks candidates when
// enabled, and synthesizes the top articles into a context block. It never
// returns an error: degraded paths map onto low confidence results so the
// workflow can route on them.
func (p *Pipeline) Retrieve(ctx context.Context, query string) Result {
	candidates, err := p.store.Search(ctx, query)
	if err != nil {
		logx.Error().Err(err).Str("query", query).Msg("knowledge store search failed")
		return Result{
			Context:    AccessErrorMessage,
			Confidence: errorConfidence,
			Articles:   []model.Article{{Title: "error", Content: AccessErrorMessage, Source: "database_error"}},
		}
	}
	if len(candidates) == 0 {
		return Result{Context: NoResultsMessage, Confidence: emptyConfidence}
	}

	top, confidence := p.rank(ctx, query, candidates)

	synthesized, serr := p.synthesize(ctx, query, top)
	if serr != nil {
		logx.Warn().Err(serr).Msg("knowledge synthesis failed, using raw excerpts")
		return Result{
			Context:    concatArticles(top),
			Confidence: fallbackConfidence,
			Articles:   top,
		}
	}

	return Result{Context: synthesized, Confidence: confidence, Articles: top}
}

// rank scores each candidate with the generator and keeps the best TopN.
// With re-ranking disabled the store order stands and confidence is fixed.
func (p *Pipeline) rank(ctx context.Context, query string, candidates []model.Article) ([]model.Article, float64) {
	topN := p.cfg.TopN
	if topN <= 0 {
		topN = 3
	}

	if !p.cfg.RerankEnabled {
		if len(candidates) > topN {
			candidates = candidates[:topN]
		}
		return candidates, unrankedConfidence
	}

	scored := make([]model.Article, len(candidates))
	copy(scored, candidates)
	for i := range scored {
		scored[i].RerankScore = p.scoreArticle(ctx, query, scored[i])
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].RerankScore > scored[b].RerankScore
	})
	if len(scored) > topN {
		scored = scored[:topN]
	}

	confidence := errorConfidence
	if len(scored) > 0 {
		confidence = scored[0].RerankScore
	}
	return scored, confidence
}

func (p *Pipeline) scoreArticle(ctx context.Context, query string, art model.Article) float64 {
	promptText, err := prompts.RenderRerank(ctx, query, art)
	if err != nil {
		return failedRerankScore
	}
	out, err := p.gen.Complete(ctx, []*schema.Message{schema.UserMessage(promptText)})
	if err != nil {
		logx.Warn().Err(err).Str("title", art.Title).Msg("rerank scoring failed")
		return failedRerankScore
	}
	score, ok := firstFloat(out)
	if !ok || score < 0 || score > 1 {
		logx.Debug().Str("output", strings.TrimSpace(out)).Msg("unparseable rerank score")
		return unparsedRerankScore
	}
	return score
}

func (p *Pipeline) synthesize(ctx context.Context, query string, top []model.Article) (string, error) {
	promptText, err := prompts.RenderSynthesis(ctx, query, top)
	if err != nil {
		return "", err
	}
	out, err := p.gen.Complete(ctx, []*schema.Message{schema.UserMessage(promptText)})
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("empty synthesis output")
	}
	return out, nil
}

func concatArticles(arts []model.Article) string {
	parts := make([]string, 0, len(arts))
	for _, a := range arts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Title, a.Content))
	}
	return strings.Join(parts, "\n\n")
}

var floatRe = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

func firstFloat(s string) (float64, bool) {
	m := floatRe.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
