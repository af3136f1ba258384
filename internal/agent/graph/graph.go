// Package graph composes the conversation workflow: understand the turn,
// retrieve knowledge, act or escalate, compose the reply, persist the thread.
package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"

	"github.com/vision-csa/server/internal/agent/actions"
	"github.com/vision-csa/server/internal/agent/dialog"
	"github.com/vision-csa/server/internal/agent/graph/nodes"
	"github.com/vision-csa/server/internal/agent/graph/observers"
	"github.com/vision-csa/server/internal/agent/knowledge"
	"github.com/vision-csa/server/internal/agent/model"
	errx "github.com/vision-csa/server/internal/core/error"
	logx "github.com/vision-csa/server/pkg/logger"
)

const maxRunSteps = 20

// NoResponseMessage is returned when a terminal stage somehow produced no
// reply text.
const NoResponseMessage = "No response generated."

// Runner executes the compiled workflow for one turn at a time.
type Runner interface {
	ProcessMessage(ctx context.Context, userInput, threadID string) (string, error)
}

// Config carries the collaborators and tuning for the workflow.
type Config struct {
	Annotator   model.Annotator
	Knowledge   *knowledge.Pipeline
	Dispatcher  *actions.Dispatcher
	Composer    *dialog.Composer
	Checkpoints model.CheckpointStore
	Routing     model.RoutingConfig
}

type graphRunner struct {
	runnable compose.Runnable[model.QueryInput, *model.ConversationState]
}

// ProcessMessage runs one conversation turn. An empty thread id starts a new
// thread under a generated id.
func (r *graphRunner) ProcessMessage(ctx context.Context, userInput, threadID string) (string, error) {
	if threadID == "" {
		threadID = uuid.NewString()
		logx.Debug().Str("thread_id", threadID).Msg("started new thread")
	}

	out, err := r.runnable.Invoke(ctx, model.QueryInput{
		ThreadID: threadID,
		Query:    userInput,
	}, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		return "", err
	}
	if out == nil || out.FinalResponse == "" {
		return NoResponseMessage, nil
	}
	return out.FinalResponse, nil
}

// BuildSupportGraph validates the config, wires the workflow graph, and
// compiles it into a Runner. Configuration errors are fatal here rather than
// surfacing mid-turn.
func BuildSupportGraph(ctx context.Context, cfg Config) (Runner, error) {
	if err := validate(cfg); err != nil {
		return nil, errx.New(err, errx.StatusInternal, errx.WorkflowConfigErrorMessage)
	}

	deps := &nodes.Deps{
		Annotator:   cfg.Annotator,
		Knowledge:   cfg.Knowledge,
		Dispatcher:  cfg.Dispatcher,
		Composer:    cfg.Composer,
		Checkpoints: cfg.Checkpoints,
		Routing:     cfg.Routing,
	}

	g := compose.NewGraph[model.QueryInput, *model.ConversationState](
		compose.WithGenLocalState(func(ctx context.Context) *model.TurnState {
			return &model.TurnState{}
		}),
	)

	g.AddLambdaNode(nodes.NodeLoad, nodes.NewLoadNode(deps),
		compose.WithStatePreHandler(nodes.NewLoadPreHandler()),
	)
	g.AddLambdaNode(nodes.NodeUnderstand, nodes.NewUnderstandNode(deps),
		compose.WithStatePreHandler(nodes.NewStageTracePreHandler(nodes.NodeUnderstand)),
	)
	g.AddLambdaNode(nodes.NodeRetrieve, nodes.NewRetrieveNode(deps),
		compose.WithStatePreHandler(nodes.NewStageTracePreHandler(nodes.NodeRetrieve)),
	)
	g.AddLambdaNode(nodes.NodeAct, nodes.NewActNode(deps),
		compose.WithStatePreHandler(nodes.NewStageTracePreHandler(nodes.NodeAct)),
	)
	g.AddLambdaNode(nodes.NodeEscalate, nodes.NewEscalateNode(deps),
		compose.WithStatePreHandler(nodes.NewStageTracePreHandler(nodes.NodeEscalate)),
	)
	g.AddLambdaNode(nodes.NodeConverse, nodes.NewConverseNode(deps),
		compose.WithStatePreHandler(nodes.NewStageTracePreHandler(nodes.NodeConverse)),
	)
	g.AddLambdaNode(nodes.NodePersist, nodes.NewPersistNode(deps),
		compose.WithStatePreHandler(nodes.NewStageTracePreHandler(nodes.NodePersist)),
	)

	edges := [][2]string{
		{compose.START, nodes.NodeLoad},
		{nodes.NodeLoad, nodes.NodeUnderstand},
		{nodes.NodeAct, nodes.NodeConverse},
		{nodes.NodeConverse, nodes.NodePersist},
		{nodes.NodeEscalate, nodes.NodePersist},
		{nodes.NodePersist, compose.END},
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			return nil, errx.New(fmt.Errorf("edge %s -> %s: %w", e[0], e[1], err),
				errx.StatusInternal, errx.WorkflowConfigErrorMessage)
		}
	}

	understandBranch := compose.NewGraphBranch(
		nodes.NewUnderstandCondition(cfg.Routing),
		map[string]bool{
			nodes.NodeRetrieve: true,
			nodes.NodeAct:      true,
			nodes.NodeEscalate: true,
			nodes.NodeConverse: true,
		},
	)
	if err := g.AddBranch(nodes.NodeUnderstand, understandBranch); err != nil {
		return nil, errx.New(fmt.Errorf("understand branch: %w", err),
			errx.StatusInternal, errx.WorkflowConfigErrorMessage)
	}

	retrieveBranch := compose.NewGraphBranch(
		nodes.NewRetrieveCondition(cfg.Routing),
		map[string]bool{
			nodes.NodeConverse:   true,
			nodes.NodeUnderstand: true,
			nodes.NodeEscalate:   true,
			nodes.NodeAct:        true,
		},
	)
	if err := g.AddBranch(nodes.NodeRetrieve, retrieveBranch); err != nil {
		return nil, errx.New(fmt.Errorf("retrieve branch: %w", err),
			errx.StatusInternal, errx.WorkflowConfigErrorMessage)
	}

	runnable, err := g.Compile(ctx, compose.WithMaxRunSteps(maxRunSteps))
	if err != nil {
		return nil, errx.New(fmt.Errorf("compile workflow: %w", err),
			errx.StatusInternal, errx.WorkflowConfigErrorMessage)
	}

	logx.Debug().Msg("support workflow compiled")
	return &graphRunner{runnable: runnable}, nil
}

func validate(cfg Config) error {
	switch {
	case cfg.Annotator == nil:
		return fmt.Errorf("annotator is nil")
	case cfg.Knowledge == nil:
		return fmt.Errorf("knowledge pipeline is nil")
	case cfg.Dispatcher == nil:
		return fmt.Errorf("action dispatcher is nil")
	case cfg.Composer == nil:
		return fmt.Errorf("dialog composer is nil")
	case cfg.Checkpoints == nil:
		return fmt.Errorf("checkpoint store is nil")
	case cfg.Routing.MaxClarifications < 0:
		return fmt.Errorf("max clarifications must be non-negative")
	}
	return nil
}
