package bundle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/subthread/companion/core"
	"github.com/subthread/companion/directory"
	"github.com/subthread/companion/logging"
	"github.com/subthread/companion/memory"
)

// Directory is the slice of the directory client the aggregator needs.
type Directory interface {
	People(ctx context.Context, subjectID string) ([]directory.Person, error)
	UpcomingEvents(ctx context.Context, subjectID string, days int) ([]directory.Event, error)
}

// Result is the outcome of context aggregation. SessionID is "" when
// memory session creation failed, which permanently disables turn
// ingestion for the call.
type Result struct {
	Bundle    *Bundle
	SessionID string
}

// Options configures an Aggregator.
type Options struct {
	// LookaheadDays bounds the upcoming-events window.
	LookaheadDays int
	// Skills is the capability description rendered as the first block.
	Skills string
	Logger logging.Logger
}

// Aggregator fetches memory summary, people graph and upcoming events
// concurrently and creates the memory session, joining all four before
// dialogue start. Call setup must not block the audio channel, so the
// fetches are issued together and joined once.
type Aggregator struct {
	dir           Directory
	store         memory.Store
	lookaheadDays int
	skills        string
	logger        logging.Logger
}

// NewAggregator builds an Aggregator.
func NewAggregator(dir Directory, store memory.Store, optFns ...func(o *Options)) *Aggregator {
	opts := Options{LookaheadDays: 7, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Aggregator{
		dir:           dir,
		store:         store,
		lookaheadDays: opts.LookaheadDays,
		skills:        opts.Skills,
		logger:        opts.Logger,
	}
}

// Load assembles the context bundle for a resolved caller. Every fetch is
// independently fault-tolerant: missing data degrades to an omitted block
// and a log line, never a failure. Delegate callers only get a memory
// session; their conversation is scoped narrowly.
func (a *Aggregator) Load(ctx context.Context, caller *core.Caller, topic string) Result {
	subjectID := caller.Subject.ID

	var (
		wg        sync.WaitGroup
		memoryCtx string
		peopleTxt string
		eventsTxt string
		sessionID string
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		id, err := a.store.CreateSession(ctx, subjectID)
		if err != nil {
			a.logger.Warn("memory session creation failed, ingestion disabled",
				"subject_id", subjectID, "error", err.Error())
			return
		}
		sessionID = id
	}()

	if !caller.IsDelegate {
		wg.Add(3)
		go func() {
			defer wg.Done()
			blob, err := a.store.RecentContext(ctx, subjectID)
			if err != nil {
				a.logger.Warn("memory summary fetch failed", "subject_id", subjectID, "error", err.Error())
				return
			}
			memoryCtx = blob
		}()
		go func() {
			defer wg.Done()
			people, err := a.dir.People(ctx, subjectID)
			if err != nil {
				a.logger.Warn("people fetch failed", "subject_id", subjectID, "error", err.Error())
				return
			}
			peopleTxt = formatPeople(people)
		}()
		go func() {
			defer wg.Done()
			events, err := a.dir.UpcomingEvents(ctx, subjectID, a.lookaheadDays)
			if err != nil {
				a.logger.Warn("events fetch failed", "subject_id", subjectID, "error", err.Error())
				return
			}
			eventsTxt = formatEvents(events)
		}()
	}

	wg.Wait()

	skills := a.skills
	if caller.IsDelegate {
		skills = ""
	}

	return Result{
		Bundle:    Compose(skills, memoryCtx, peopleTxt, eventsTxt, topic),
		SessionID: sessionID,
	}
}

// formatPeople renders the contacts graph as one line per person.
func formatPeople(people []directory.Person) string {
	if len(people) == 0 {
		return ""
	}
	lines := make([]string, 0, len(people))
	for _, p := range people {
		line := p.Name
		if p.Relation != "" {
			line = fmt.Sprintf("%s (%s)", p.Name, p.Relation)
		}
		if p.Birthday != "" {
			line += ", birthday " + p.Birthday
		}
		if p.Notes != "" {
			line += " - " + p.Notes
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// formatEvents renders upcoming events as one line per entry.
func formatEvents(events []directory.Event) string {
	if len(events) == 0 {
		return ""
	}
	lines := make([]string, 0, len(events))
	for _, e := range events {
		line := fmt.Sprintf("%s: %s", e.Date, e.Title)
		if e.Notes != "" {
			line += " - " + e.Notes
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
