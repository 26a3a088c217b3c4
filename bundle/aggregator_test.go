package bundle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subthread/companion/core"
	"github.com/subthread/companion/directory"
	"github.com/subthread/companion/memory"
)

type fakeAggDirectory struct {
	people    []directory.Person
	events    []directory.Event
	peopleErr error
	eventsErr error

	mu         sync.Mutex
	eventsDays int
	delay      time.Duration
}

func (f *fakeAggDirectory) People(_ context.Context, _ string) ([]directory.Person, error) {
	time.Sleep(f.delay)
	if f.peopleErr != nil {
		return nil, f.peopleErr
	}
	return f.people, nil
}

func (f *fakeAggDirectory) UpcomingEvents(_ context.Context, _ string, days int) ([]directory.Event, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	f.eventsDays = days
	f.mu.Unlock()
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.events, nil
}

func subjectCaller() *core.Caller {
	return &core.Caller{RawIdentity: "u1", Subject: core.Subject{ID: "u1", Name: "Annie"}}
}

func TestLoadAssemblesAllBlocks(t *testing.T) {
	dir := &fakeAggDirectory{
		people: []directory.Person{{Name: "Sarah", Relation: "daughter"}},
		events: []directory.Event{{Title: "doctor visit", Date: "2026-09-03"}},
	}
	store := memory.NewInMemoryStore()
	store.SeedContext("u1", "likes gardening")

	agg := NewAggregator(dir, store, func(o *Options) {
		o.Skills = "reminders, stories, games"
		o.LookaheadDays = 7
	})

	res := agg.Load(context.Background(), subjectCaller(), "the news")
	require.NotEmpty(t, res.SessionID)
	assert.Equal(t,
		[]Tag{TagSkills, TagMemory, TagPeople, TagEvents, TagRequest},
		tagsOf(res.Bundle))
	assert.Contains(t, res.Bundle.Render(), "Sarah (daughter)")
	assert.Equal(t, 7, dir.eventsDays)
}

func TestLoadDegradesOnFetchFailures(t *testing.T) {
	dir := &fakeAggDirectory{
		peopleErr: errors.New("people down"),
		eventsErr: errors.New("events down"),
	}
	store := memory.NewInMemoryStore()

	agg := NewAggregator(dir, store, func(o *Options) { o.Skills = "skills" })
	res := agg.Load(context.Background(), subjectCaller(), "")

	// Session still created; failed blocks simply omitted.
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, []Tag{TagSkills}, tagsOf(res.Bundle))
}

type failingSessionStore struct {
	*memory.InMemoryStore
}

func (f *failingSessionStore) CreateSession(context.Context, string) (string, error) {
	return "", errors.New("memory partner down")
}

func TestLoadSessionCreationFailureDisablesIngestion(t *testing.T) {
	dir := &fakeAggDirectory{people: []directory.Person{{Name: "Sarah"}}}
	store := &failingSessionStore{memory.NewInMemoryStore()}

	agg := NewAggregator(dir, store)
	res := agg.Load(context.Background(), subjectCaller(), "")

	assert.Empty(t, res.SessionID)
	assert.Equal(t, []Tag{TagPeople}, tagsOf(res.Bundle))
}

func TestLoadDelegateOnlyCreatesSession(t *testing.T) {
	dir := &fakeAggDirectory{
		people: []directory.Person{{Name: "Sarah"}},
		events: []directory.Event{{Title: "visit", Date: "2026-09-02"}},
	}
	store := memory.NewInMemoryStore()
	store.SeedContext("u1", "likes gardening")

	agg := NewAggregator(dir, store, func(o *Options) { o.Skills = "skills" })
	caller := &core.Caller{
		RawIdentity: "sip_+31600000001",
		Subject:     core.Subject{ID: "u1", Name: "Annie"},
		IsDelegate:  true,
	}

	res := agg.Load(context.Background(), caller, "")
	assert.NotEmpty(t, res.SessionID)
	assert.True(t, res.Bundle.Empty())
	assert.Zero(t, dir.eventsDays)
}

func TestLoadRunsFetchesConcurrently(t *testing.T) {
	dir := &fakeAggDirectory{delay: 50 * time.Millisecond}
	store := memory.NewInMemoryStore()

	agg := NewAggregator(dir, store)
	start := time.Now()
	agg.Load(context.Background(), subjectCaller(), "")

	// Two 50ms fetches joined once should be well under their sum.
	assert.Less(t, time.Since(start), 90*time.Millisecond)
}
