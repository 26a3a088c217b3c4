// Package ingest persists completed turn pairs to the memory store in the
// background. Each session gets a single-worker FIFO queue so pairs are
// ingested in the order their triggering user turns occurred, while the
// dialogue loop never blocks on a store call.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/subthread/companion/core"
	"github.com/subthread/companion/logging"
	"github.com/subthread/companion/memory"
)

// DefaultQueueSize bounds the per-session ingestion backlog. A full queue
// drops the newest pair with a warning rather than stalling the dialogue.
const DefaultQueueSize = 16

// Options configures an Ingestor.
type Options struct {
	QueueSize int
	// Role is stamped on every serialized entry when non-empty. Delegate
	// onboarding calls use memory.RoleFamilyMember.
	Role   string
	Logger logging.Logger
}

// Ingestor owns memory ingestion for one call. Created after context
// aggregation; Close abandons in-flight work best-effort when the
// connection tears down.
type Ingestor struct {
	store       memory.Store
	sessionID   string
	displayName string
	role        string
	logger      logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	queue chan []memory.TurnEntry
	done  chan struct{}
	once  sync.Once
}

// New builds an Ingestor and starts its worker. An empty sessionID makes
// every hook invocation a permanent no-op (memory session creation failed
// for this call).
func New(ctx context.Context, store memory.Store, sessionID, displayName string, optFns ...func(o *Options)) *Ingestor {
	opts := Options{QueueSize: DefaultQueueSize, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	workerCtx, cancel := context.WithCancel(ctx)
	ing := &Ingestor{
		store:       store,
		sessionID:   sessionID,
		displayName: displayName,
		role:        opts.Role,
		logger:      opts.Logger,
		ctx:         workerCtx,
		cancel:      cancel,
		queue:       make(chan []memory.TurnEntry, opts.QueueSize),
		done:        make(chan struct{}),
	}

	if sessionID == "" {
		close(ing.done)
		cancel()
		return ing
	}

	go ing.run()
	return ing
}

// OnUserTurnCompleted is the dialogue engine's turn-completion hook. The
// new turn is returned unchanged; ingestion is a side effect.
//
// A pair is dispatched iff the new turn is user-authored and the
// immediately preceding turn exists and is assistant-authored. Any other
// adjacency is a no-op.
func (i *Ingestor) OnUserTurnCompleted(prior []core.Turn, newTurn core.Turn) core.Turn {
	if i.sessionID == "" {
		return newTurn
	}

	preceding, ok := core.LastTurn(prior)
	if newTurn.Role != core.RoleUser || !ok || preceding.Role != core.RoleAssistant {
		return newTurn
	}

	// Newest first, preceding second; user entries carry the speaker
	// prefix so the extractor can attribute facts.
	pair := []memory.TurnEntry{
		i.toEntry(newTurn),
		i.toEntry(preceding),
	}

	select {
	case i.queue <- pair:
	default:
		i.logger.Warn("ingestion queue full, dropping turn pair", "session_id", i.sessionID)
	}
	return newTurn
}

// Close stops the worker. Queued pairs that have not started dispatching
// are abandoned; an in-flight store call finishes or is cancelled with the
// worker context. Safe to call more than once.
func (i *Ingestor) Close() {
	i.once.Do(func() {
		i.cancel()
		if i.sessionID != "" {
			<-i.done
		}
	})
}

func (i *Ingestor) run() {
	defer close(i.done)
	for {
		select {
		case <-i.ctx.Done():
			return
		case pair := <-i.queue:
			i.dispatch(pair)
		}
	}
}

// dispatch sends one pair to the store. Failures are logged with the
// offending payload and swallowed; ingestion never surfaces to the caller.
func (i *Ingestor) dispatch(pair []memory.TurnEntry) {
	start := time.Now()
	err := i.store.AddTurns(i.ctx, i.sessionID, pair, []string{memory.RoleTypeAssistant})
	if err != nil {
		i.logger.Error("ingestion failed",
			"session_id", i.sessionID,
			"payload", fmt.Sprintf("%+v", pair),
			"error", err.Error())
		return
	}
	i.logger.Debug("ingested turn pair",
		"session_id", i.sessionID,
		"duration_ms", time.Since(start).Milliseconds())
}

func (i *Ingestor) toEntry(turn core.Turn) memory.TurnEntry {
	if turn.Role == core.RoleUser {
		name := i.displayName
		if name == "" {
			name = core.UnknownCallerName
		}
		return memory.TurnEntry{
			Content:  fmt.Sprintf("%s: %s", name, turn.Content),
			Role:     i.role,
			RoleType: memory.RoleTypeUser,
		}
	}
	return memory.TurnEntry{Content: turn.Content, Role: i.role, RoleType: memory.RoleTypeAssistant}
}
