// Package runner drives the lifecycle of one companion call: identity
// resolution, context aggregation, dialogue start and teardown. Each call
// is a job moving through an explicit state machine; failures before the
// dialogue is active abort the job, failures after stay component-local.
package runner

import (
	"context"
	"fmt"

	"github.com/subthread/companion/bundle"
	"github.com/subthread/companion/core"
	"github.com/subthread/companion/dialogue"
	"github.com/subthread/companion/ingest"
	"github.com/subthread/companion/logging"
	"github.com/subthread/companion/memory"
	"github.com/subthread/companion/tool"
)

// State is the lifecycle position of a call job. Transitions are strictly
// sequential and never retried.
type State int

const (
	StateConnecting State = iota
	StateIdentityResolved
	StateContextReady
	StateDialogueActive
	StateEnded
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateIdentityResolved:
		return "identity_resolved"
	case StateContextReady:
		return "context_ready"
	case StateDialogueActive:
		return "dialogue_active"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Resolver maps a connection to a caller.
type Resolver interface {
	Resolve(ctx context.Context, participantID, roomName string) (*core.Caller, error)
}

// Aggregator loads the initial context bundle and memory session.
type Aggregator interface {
	Load(ctx context.Context, caller *core.Caller, topic string) bundle.Result
}

// EngineFactory builds a fresh dialogue engine for one call.
type EngineFactory func(caller *core.Caller) dialogue.Engine

// ToolsetFactory builds the subject-variant tool set for one call.
type ToolsetFactory func(caller *core.Caller) []tool.Tool

// Options configures a Runner.
type Options struct {
	// CompanionInstructions is the base guidance for subject calls.
	CompanionInstructions string
	// OnboardingInstructions is the base guidance for delegate calls.
	OnboardingInstructions string
	Logger                 logging.Logger
}

const defaultCompanionInstructions = "You are Noah, a warm and adaptive voice companion for elderly people. " +
	"Support the user with reminders, stories, games and family connection. " +
	"Treat the user as a lucid equal, never patronizing."

const defaultOnboardingInstructions = "You are Noah, a voice companion with long-term memory. " +
	"You are talking to a family member of your primary user. Learn as much as " +
	"possible about the primary user so you can support them better. If you do " +
	"not know the primary user's name yet, ask for it."

// Runner creates and supervises call jobs.
type Runner struct {
	resolver   Resolver
	aggregator Aggregator
	store      memory.Store
	newEngine  EngineFactory
	newToolset ToolsetFactory

	companionInstructions  string
	onboardingInstructions string
	logger                 logging.Logger
}

// New builds a Runner.
func New(
	resolver Resolver,
	aggregator Aggregator,
	store memory.Store,
	newEngine EngineFactory,
	newToolset ToolsetFactory,
	optFns ...func(o *Options),
) *Runner {
	opts := Options{
		CompanionInstructions:  defaultCompanionInstructions,
		OnboardingInstructions: defaultOnboardingInstructions,
		Logger:                 logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{
		resolver:               resolver,
		aggregator:             aggregator,
		store:                  store,
		newEngine:              newEngine,
		newToolset:             newToolset,
		companionInstructions:  opts.CompanionInstructions,
		onboardingInstructions: opts.OnboardingInstructions,
		logger:                 opts.Logger,
	}
}

// Session is one live call after a successful Run. End must be called when
// the connection tears down; calling it more than once is harmless.
type Session struct {
	Caller *core.Caller
	Engine dialogue.Engine

	state    State
	ingestor *ingest.Ingestor
	logger   logging.Logger
}

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.state }

// End closes the session: the ingestion worker is stopped and the state
// moves to Ended. Queued memory writes that have not started are abandoned.
func (s *Session) End() {
	if s.state == StateEnded {
		return
	}
	if s.ingestor != nil {
		s.ingestor.Close()
	}
	s.transition(StateEnded)
}

func (s *Session) transition(next State) {
	s.logger.Info("session state changed", "from", s.state.String(), "to", next.String())
	s.state = next
}

// Run takes a fresh connection through the lifecycle up to an active
// dialogue and returns the live session. Errors before DialogueActive are
// fatal: nothing is left running and the connection should be dropped.
func (r *Runner) Run(ctx context.Context, conn core.Connection) (*Session, error) {
	logger := r.logger
	sess := &Session{state: StateConnecting, logger: logger}

	logger.Info("call connecting",
		"participant_id", conn.ParticipantID, "room", conn.RoomName)

	caller, err := r.resolver.Resolve(ctx, conn.ParticipantID, conn.RoomName)
	if err != nil {
		sess.transition(StateEnded)
		return nil, fmt.Errorf("identity resolution: %w", err)
	}
	sess.Caller = caller
	sess.transition(StateIdentityResolved)
	logger.Info("caller resolved",
		"subject_id", caller.Subject.ID,
		"delegate", caller.IsDelegate,
		"degraded", caller.Degraded)

	res := r.aggregator.Load(ctx, caller, conn.Topic())
	sess.transition(StateContextReady)

	sess.ingestor = ingest.New(ctx, r.store, res.SessionID, caller.DisplayName(),
		func(o *ingest.Options) {
			o.Logger = logger
			if caller.IsDelegate {
				o.Role = memory.RoleFamilyMember
			}
		})

	instructions, tools := r.variant(caller)
	engine := r.newEngine(caller)
	if err := engine.Start(ctx, dialogue.StartOptions{
		Instructions:        instructions,
		Bundle:              res.Bundle,
		Tools:               tools,
		OnUserTurnCompleted: sess.ingestor.OnUserTurnCompleted,
	}); err != nil {
		sess.ingestor.Close()
		sess.transition(StateEnded)
		return nil, fmt.Errorf("dialogue start: %w", err)
	}
	sess.Engine = engine
	sess.transition(StateDialogueActive)

	// The greeting is best-effort: a failed scripted turn leaves a silent
	// opening, not a dead call.
	greeting := fmt.Sprintf(
		"Greet the user and offer your assistance. Respond in the language with code %q.",
		caller.Language())
	if err := engine.Instruct(ctx, greeting); err != nil {
		logger.Warn("greeting failed", "error", err.Error())
	}

	return sess, nil
}

// variant selects instructions and tool set for the caller. Delegates get
// the onboarding conversation without device or automation access.
func (r *Runner) variant(caller *core.Caller) (string, []tool.Tool) {
	if caller.IsDelegate {
		return r.onboardingInstructions, nil
	}
	return r.companionInstructions, r.newToolset(caller)
}
