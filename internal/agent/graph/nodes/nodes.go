// Package nodes holds the workflow's node lambdas, state handlers, and
// routing conditions.
package nodes

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"

	"github.com/vision-csa/server/internal/agent/actions"
	"github.com/vision-csa/server/internal/agent/dialog"
	"github.com/vision-csa/server/internal/agent/knowledge"
	"github.com/vision-csa/server/internal/agent/model"
	"github.com/vision-csa/server/internal/agent/nlu"
	errx "github.com/vision-csa/server/internal/core/error"
	logx "github.com/vision-csa/server/pkg/logger"
)

// Node names used across the graph wiring.
const (
	NodeLoad       = "load"
	NodeUnderstand = "understand"
	NodeRetrieve   = "retrieve"
	NodeAct        = "act"
	NodeEscalate   = "escalate"
	NodeConverse   = "converse"
	NodePersist    = "persist"
)

const nluErrorConfidence = 0.1

// Deps carries the collaborators the node lambdas close over.
type Deps struct {
	Annotator   model.Annotator
	Knowledge   *knowledge.Pipeline
	Dispatcher  *actions.Dispatcher
	Composer    *dialog.Composer
	Checkpoints model.CheckpointStore
	Routing     model.RoutingConfig
}

// NewLoadPreHandler seeds the turn state with the thread id.
func NewLoadPreHandler() func(context.Context, model.QueryInput, *model.TurnState) (model.QueryInput, error) {
	return func(ctx context.Context, in model.QueryInput, ts *model.TurnState) (model.QueryInput, error) {
		ts.ThreadID = in.ThreadID
		ts.Stages = ts.Stages[:0]
		ts.Clarifications = 0
		return in, nil
	}
}

// NewStageTracePreHandler records each visited stage on the turn state.
func NewStageTracePreHandler(stage string) func(context.Context, *model.ConversationState, *model.TurnState) (*model.ConversationState, error) {
	return func(ctx context.Context, st *model.ConversationState, ts *model.TurnState) (*model.ConversationState, error) {
		ts.Stages = append(ts.Stages, stage)
		logx.Debug().Str("thread_id", ts.ThreadID).Str("stage", stage).Msg("entering stage")
		return st, nil
	}
}

// NewLoadNode reads the thread checkpoint and builds the turn's initial
// state. A failed read starts a fresh thread rather than aborting the turn.
func NewLoadNode(deps *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.QueryInput) (*model.ConversationState, error) {
		st := &model.ConversationState{
			ThreadID:  in.ThreadID,
			UserInput: in.Query,
			Entities:  map[string]any{},
			Sentiment: model.NeutralSentiment(),
			Language:  "en",
		}

		cp, err := deps.Checkpoints.Get(ctx, in.ThreadID)
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", in.ThreadID).Msg("checkpoint read failed, starting fresh")
		} else if cp != nil {
			st.History = append(st.History, cp.Messages...)
			for k, v := range cp.Entities {
				st.Entities[k] = v
			}
			if cp.Language != "" {
				st.Language = cp.Language
			}
		}

		st.AppendHuman(in.Query)
		return st, nil
	})
}

// NewUnderstandNode annotates the input, classifies intent, and scores
// confidence. Annotation failure degrades to nlu_error instead of ending
// the turn with an unset routing field.
func NewUnderstandNode(deps *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *model.ConversationState) (*model.ConversationState, error) {
		ann, err := deps.Annotator.Analyze(ctx, st.UserInput)
		if err != nil {
			logx.Warn().Err(err).Str("thread_id", st.ThreadID).Msg("annotation failed")
			st.Sentiment = model.NeutralSentiment()
			st.Intent = model.IntentNLUError
			st.NLUConfidence = nluErrorConfidence
			return st, nil
		}

		st.Sentiment = nlu.NormalizeSentiment(ann.SentimentScore, ann.SentimentMagnitude)
		if ann.Language != "" {
			st.Language = ann.Language
		}

		previous := st.Entities
		for k, v := range nlu.EntityMap(ann.Entities) {
			if previous == nil {
				previous = map[string]any{}
			}
			previous[k] = v
		}

		cls := nlu.Classify(st.UserInput, previous)
		st.Intent = cls.Intent
		st.Entities = cls.Entities
		st.NLUConfidence = nlu.ScoreConfidence(cls.Intent, cls.Entities, st.Sentiment.Label, st.UserInput)

		logx.Debug().
			Str("thread_id", st.ThreadID).
			Str("intent", string(st.Intent)).
			Float64("confidence", st.NLUConfidence).
			Str("sentiment", string(st.Sentiment.Label)).
			Msg("understanding complete")
		return st, nil
	})
}

// NewRetrieveNode runs the knowledge pipeline. Intent-bearing turns search
// by intent name; open questions search by the raw input.
func NewRetrieveNode(deps *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *model.ConversationState) (*model.ConversationState, error) {
		query := string(st.Intent)
		if st.Intent == model.IntentAskQuestion || st.Intent == model.IntentUnknown {
			query = st.UserInput
		}

		res := deps.Knowledge.Retrieve(ctx, query)
		st.RetrievedDocs = res.Articles
		st.Context = res.Context
		st.KnowledgeConfidence = res.Confidence

		logx.Debug().
			Str("thread_id", st.ThreadID).
			Int("articles", len(res.Articles)).
			Float64("knowledge_confidence", res.Confidence).
			Msg("retrieval complete")
		return st, nil
	})
}

// NewActNode dispatches the intent's backend operation.
func NewActNode(deps *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *model.ConversationState) (*model.ConversationState, error) {
		res := deps.Dispatcher.Dispatch(ctx, st)
		st.ActionTaken = st.Intent
		st.ActionResult = &res
		return st, nil
	})
}

// NewEscalateNode opens a ticket and composes the terminal handoff reply.
func NewEscalateNode(deps *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *model.ConversationState) (*model.ConversationState, error) {
		res := deps.Dispatcher.Escalate(ctx, st)
		st.ActionTaken = model.IntentEscalateToHuman
		st.ActionResult = &res

		var reply string
		if res.Success {
			ticketID := "pending"
			if v, ok := res.Data["ticket_id"]; ok {
				ticketID = fmt.Sprintf("%v", v)
			}
			reply = fmt.Sprintf(
				"I've created a support ticket for you and escalated this to our human support team. Your ticket reference is: %s. A human agent will follow up with you soon.",
				ticketID)
		} else {
			reply = "I'm escalating this to a human agent. There may be a brief delay in ticket creation, but someone will follow up with you soon."
		}

		st.FinalResponse = reply
		st.AppendAI(reply)
		return st, nil
	})
}

// NewConverseNode generates the terminal conversational reply.
func NewConverseNode(deps *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *model.ConversationState) (*model.ConversationState, error) {
		reply := deps.Composer.Compose(ctx, st)
		st.FinalResponse = reply
		st.AppendAI(reply)
		return st, nil
	})
}

// NewPersistNode writes the thread checkpoint. A write failure is the one
// stage error that surfaces to the caller.
func NewPersistNode(deps *Deps) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, st *model.ConversationState) (*model.ConversationState, error) {
		cp := &model.Checkpoint{
			Messages:  st.History,
			Entities:  st.Entities,
			Language:  st.Language,
			UpdatedAt: time.Now().UTC(),
		}
		if err := deps.Checkpoints.Put(ctx, st.ThreadID, cp); err != nil {
			logx.Error().Err(err).Str("thread_id", st.ThreadID).Msg("checkpoint write failed")
			return nil, errx.New(err, errx.StatusInternal, errx.CheckpointErrorMessage)
		}
		return st, nil
	})
}

// NewUnderstandCondition routes the turn after understanding. Order matters:
// classifier errors and explicit escalations outrank confidence checks.
func NewUnderstandCondition(routing model.RoutingConfig) func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, st *model.ConversationState) (string, error) {
		switch {
		case st.Intent == model.IntentNLUError:
			return NodeEscalate, nil
		case st.Intent == model.IntentEscalateToHuman:
			return NodeEscalate, nil
		case st.Intent == model.IntentCheckOrderStatus:
			return NodeAct, nil
		case st.Intent.InfoSeeking():
			return NodeRetrieve, nil
		case st.NLUConfidence < routing.EscalateBelow:
			return NodeEscalate, nil
		default:
			// Remaining intents flow through retrieval regardless of
			// confidence; the direct converse edge stays wired but idle.
			return NodeRetrieve, nil
		}
	}
}

// NewRetrieveCondition routes on knowledge confidence. The loop back to
// understanding is bounded per turn so every turn terminates in a reply.
func NewRetrieveCondition(routing model.RoutingConfig) func(context.Context, *model.ConversationState) (string, error) {
	return func(ctx context.Context, st *model.ConversationState) (string, error) {
		hotSentiment := st.Sentiment.Label == model.SentimentNegative &&
			st.Sentiment.Score < routing.NegativeScoreBelow

		if st.KnowledgeConfidence > routing.RespondAbove {
			return NodeConverse, nil
		}

		if st.KnowledgeConfidence > routing.ClarifyAbove {
			if hotSentiment {
				return NodeEscalate, nil
			}
			if st.Intent == model.IntentAskQuestion {
				return NodeConverse, nil
			}
			var looped bool
			if err := compose.ProcessState(ctx, func(_ context.Context, ts *model.TurnState) error {
				if ts.Clarifications < routing.MaxClarifications {
					ts.Clarifications++
					looped = true
				}
				return nil
			}); err != nil {
				return "", err
			}
			if looped {
				return NodeUnderstand, nil
			}
			return NodeConverse, nil
		}

		if st.Intent.ActionEligible() {
			return NodeAct, nil
		}
		if st.Sentiment.Label == model.SentimentNegative || st.NLUConfidence < routing.EscalateBelow {
			return NodeEscalate, nil
		}
		return NodeConverse, nil
	}
}
