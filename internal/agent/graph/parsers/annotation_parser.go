// Package parsers decodes the delimiter-tuple annotation format produced by
// the annotator model into structured sentiment and entity data.
package parsers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/vision-csa/server/internal/agent/model"
	errx "github.com/vision-csa/server/internal/core/error"
	logx "github.com/vision-csa/server/pkg/logger"
)

const (
	recDelim = "##"
	tupDelim = "<||>"
	endDelim = "<|COMPLETE|>"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxRecords    = 200
	maxTupleLen   = 4 * 1024 // 4KB per tuple
	maxErrSnippet = 200
)

type rawTuple struct {
	Type  string
	Parts []string
}

func parseRawTuple(s string) (*rawTuple, error) {
	if s == "" {
		return nil, fmt.Errorf("empty tuple")
	}
	if len(s) > maxTupleLen {
		return nil, fmt.Errorf("tuple too large")
	}

	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, fmt.Errorf("invalid tuple parens")
	}
	inner := s[1 : len(s)-1]
	parts := strings.SplitN(inner, tupDelim, 4)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid tuple parts")
	}
	return &rawTuple{Type: strings.Trim(strings.TrimSpace(parts[0]), `"`), Parts: parts}, nil
}

func parseFloatInRange(s, name string, min, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%s parse: %w", name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%s invalid number", name)
	}
	if v < min || v > max {
		return 0, fmt.Errorf("%s out of range", name)
	}
	return v, nil
}

// ParseAnnotation parses the annotator model's tuple output into a raw
// Annotation. Malformed records are skipped, never fatal; the returned
// annotation always has valid, defaulted fields so downstream normalization
// can proceed. Only a full parser panic surfaces as an error.
func ParseAnnotation(content string) (ann *model.Annotation, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "annotation_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("annotation parser panic"), errx.StatusInternal, errx.SystemErrorMessage)
			ann = nil
		}
	}()

	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "annotation_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content truncated due to size limit")
		content = content[:maxContentLen]
	}
	// honor completion delimiter if present
	if idx := strings.Index(content, endDelim); idx >= 0 {
		content = content[:idx]
	}

	ann = &model.Annotation{
		Entities: []model.NamedEntity{},
	}

	records := strings.Split(content, recDelim)
	processed := 0
	for _, rec := range records {
		if processed >= maxRecords {
			logx.Warn().
				Str("component", "annotation_parser").
				Int("max_records", maxRecords).
				Msg("record processing capped")
			break
		}
		rec = strings.TrimSpace(rec)
		if rec == "" || rec == endDelim {
			continue
		}
		processed++

		rt, rerr := parseRawTuple(rec)
		if rerr != nil {
			logx.Debug().Str("record", safeSnippet(rec)).Err(rerr).Msg("skipping bad annotation record")
			continue
		}

		switch rt.Type {
		case "sentiment":
			if len(rt.Parts) < 3 {
				continue
			}
			score, serr := parseFloatInRange(rt.Parts[1], "sentiment.score", -1, 1)
			if serr != nil {
				continue
			}
			mag := 0.0
			if len(rt.Parts) >= 3 {
				if m, merr := parseFloatInRange(rt.Parts[2], "sentiment.magnitude", 0, math.MaxFloat64); merr == nil {
					mag = m
				}
			}
			ann.SentimentScore = score
			ann.SentimentMagnitude = mag

		case "entity":
			if len(rt.Parts) < 3 {
				continue
			}
			etype := strings.TrimSpace(rt.Parts[1])
			val := strings.TrimSpace(rt.Parts[2])
			if etype == "" || val == "" || !utf8.ValidString(etype) || !utf8.ValidString(val) {
				continue
			}
			ann.Entities = append(ann.Entities, model.NamedEntity{Type: etype, Value: val})

		case "language":
			code := strings.ToLower(strings.TrimSpace(rt.Parts[1]))
			if isLanguageCode(code) {
				ann.Language = code
			}

		default:
			logx.Debug().Str("type", rt.Type).Msg("unknown annotation tuple type")
		}
	}

	return ann, nil
}

// --- helpers ---

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}

// isLanguageCode accepts two or three letter ISO-style codes.
func isLanguageCode(code string) bool {
	if len(code) != 2 && len(code) != 3 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}
