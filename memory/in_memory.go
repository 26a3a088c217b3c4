package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/subthread/companion/core"
)

// sessionRecord is the internal representation persisted by InMemoryStore.
type sessionRecord struct {
	ID        string
	SubjectID string
	Created   time.Time
	Entries   []TurnEntry
	Ignored   [][]string
}

// InMemoryStore is a volatile Store implementation keeping sessions in a
// process-local map. It is safe for concurrent access and best suited for
// tests or local development runs.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRecord
	// ordered session ids per subject, newest last
	bySubject map[string][]string
	contexts  map[string]string
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:  make(map[string]*sessionRecord),
		bySubject: make(map[string][]string),
		contexts:  make(map[string]string),
	}
}

// CreateSession registers a new session for the subject.
func (s *InMemoryStore) CreateSession(_ context.Context, subjectID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := core.NewID()
	s.sessions[id] = &sessionRecord{ID: id, SubjectID: subjectID, Created: time.Now()}
	s.bySubject[subjectID] = append(s.bySubject[subjectID], id)
	return id, nil
}

// AddTurns appends entries to an existing session.
func (s *InMemoryStore) AddTurns(_ context.Context, sessionID string, entries []TurnEntry, ignoreRoleTypes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	rec.Entries = append(rec.Entries, entries...)
	rec.Ignored = append(rec.Ignored, ignoreRoleTypes)
	return nil
}

// RecentContext returns the summary blob seeded for the subject, or ""
// when none is set.
func (s *InMemoryStore) RecentContext(_ context.Context, subjectID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.contexts[subjectID], nil
}

// SeedContext sets the summary blob returned by RecentContext. Test helper.
func (s *InMemoryStore) SeedContext(subjectID, blob string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contexts[subjectID] = blob
}

// Entries returns a copy of the entries ingested into a session.
func (s *InMemoryStore) Entries(sessionID string) []TurnEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]TurnEntry, len(rec.Entries))
	copy(out, rec.Entries)
	return out
}

// IgnoredRoleTypes returns the ignore lists recorded per AddTurns call.
func (s *InMemoryStore) IgnoredRoleTypes(sessionID string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([][]string, len(rec.Ignored))
	copy(out, rec.Ignored)
	return out
}

// Sessions returns the ordered session ids created for a subject.
func (s *InMemoryStore) Sessions(subjectID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.bySubject[subjectID]))
	copy(out, s.bySubject[subjectID])
	return out
}
