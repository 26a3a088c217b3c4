package dialogue

import (
	"context"
	"fmt"
	"sync"

	"github.com/subthread/companion/core"
	"github.com/subthread/companion/logging"
	"github.com/subthread/companion/model"
	"github.com/subthread/companion/tool"
)

// ModelEngineOptions configures a ModelEngine.
type ModelEngineOptions struct {
	Logger logging.Logger
}

// ModelEngine is a minimal text-only Engine over a model.Model, used for
// local runs and tests. It keeps the turn history, fires the user-turn
// hook and can dispatch tools by name, but implements no tool-use policy
// of its own.
type ModelEngine struct {
	mu      sync.Mutex
	model   model.Model
	logger  logging.Logger
	started bool

	instructions string
	tools        map[string]tool.Tool
	hook         TurnHook
	history      []core.Turn
}

// NewModelEngine builds a ModelEngine.
func NewModelEngine(m model.Model, optFns ...func(o *ModelEngineOptions)) *ModelEngine {
	opts := ModelEngineOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelEngine{model: m, logger: opts.Logger}
}

// Start implements Engine. The context bundle is folded into the base
// instructions so every reply is grounded on it.
func (e *ModelEngine) Start(_ context.Context, opts StartOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.model == nil {
		return fmt.Errorf("dialogue engine has no model")
	}
	if e.started {
		return fmt.Errorf("dialogue engine already started")
	}

	e.instructions = opts.Instructions
	if opts.Bundle != nil && !opts.Bundle.Empty() {
		e.instructions += "\n\n" + opts.Bundle.Render()
	}

	e.tools = make(map[string]tool.Tool, len(opts.Tools))
	for _, t := range opts.Tools {
		e.tools[t.Name()] = t
	}
	e.hook = opts.OnUserTurnCompleted
	e.started = true

	e.logger.Info("dialogue engine started",
		"model", e.model.Info().Name, "tools", len(e.tools))
	return nil
}

// Instruct implements Engine: one scripted assistant turn driven by ad-hoc
// instructions layered over the base ones.
func (e *ModelEngine) Instruct(ctx context.Context, instructions string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return fmt.Errorf("dialogue engine not started")
	}

	reply, err := e.model.GenerateReply(ctx, model.Request{
		Instructions: e.instructions + "\n\n" + instructions,
		History:      e.history,
	})
	if err != nil {
		return fmt.Errorf("scripted turn: %w", err)
	}
	e.history = append(e.history, core.NewTurn(core.RoleAssistant, reply))
	return nil
}

// Say feeds one user utterance through the engine and returns the reply.
// The user-turn hook fires before the model is asked to respond, mirroring
// when a voice pipeline would have finalized the turn.
func (e *ModelEngine) Say(ctx context.Context, content string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.started {
		return "", fmt.Errorf("dialogue engine not started")
	}

	turn := core.NewTurn(core.RoleUser, content)
	if e.hook != nil {
		turn = e.hook(e.history, turn)
	}
	e.history = append(e.history, turn)

	reply, err := e.model.GenerateReply(ctx, model.Request{
		Instructions: e.instructions,
		History:      e.history,
	})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	e.history = append(e.history, core.NewTurn(core.RoleAssistant, reply))
	return reply, nil
}

// Dispatch invokes a registered tool by name.
func (e *ModelEngine) Dispatch(ctx context.Context, name string, args map[string]any) (any, error) {
	e.mu.Lock()
	t, ok := e.tools[name]
	e.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t.Call(ctx, args)
}

// History returns a copy of the turn history.
func (e *ModelEngine) History() []core.Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.Turn, len(e.history))
	copy(out, e.history)
	return out
}
