// Package dialogue defines the boundary to the conversational engine. The
// real voice pipeline (STT, turn detection, TTS) lives outside this
// backend; everything here is expressed against the Engine interface so
// the session runner and tests stay independent of it.
package dialogue

import (
	"context"

	"github.com/subthread/companion/bundle"
	"github.com/subthread/companion/core"
	"github.com/subthread/companion/tool"
)

// TurnHook observes a completed user turn before the engine replies to it.
// The returned turn replaces the observed one in engine history, so a hook
// must return its input unchanged unless it means to rewrite the turn.
type TurnHook func(prior []core.Turn, newTurn core.Turn) core.Turn

// StartOptions carries everything the engine needs to open a conversation.
type StartOptions struct {
	// Instructions is the agent variant's base guidance.
	Instructions string
	// Bundle is the initial context loaded before dialogue start.
	Bundle *bundle.Bundle
	// Tools the engine may dispatch during the conversation.
	Tools []tool.Tool
	// OnUserTurnCompleted fires for every completed user turn.
	OnUserTurnCompleted TurnHook
}

// Engine is the conversational engine as seen by the session runner.
type Engine interface {
	// Start opens the conversation. A Start failure is fatal to the session.
	Start(ctx context.Context, opts StartOptions) error

	// Instruct makes the engine produce one scripted assistant turn (the
	// greeting, a wrap-up) outside the normal reply loop.
	Instruct(ctx context.Context, instructions string) error
}
