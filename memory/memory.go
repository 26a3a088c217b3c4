// Package memory defines the conversational memory store contract and its
// implementations. Sessions are append-only: they are created once per
// connection, receive turn pairs for the lifetime of the call and are
// never explicitly closed.
package memory

import "context"

// RoleTypeAssistant is the role-type tag excluded from long-term fact
// extraction. Assistant turns are still retained in raw session history so
// the extractor can ground ambiguous user turns such as "Yes.".
const RoleTypeAssistant = "assistant"

// RoleTypeUser tags caller-authored entries.
const RoleTypeUser = "user"

// RoleFamilyMember marks entries from delegate onboarding calls so the
// fact extractor attributes them to a family member rather than the
// subject. Subject calls leave Role empty.
const RoleFamilyMember = "family_member"

// TurnEntry is one serialized dialogue turn as submitted for ingestion.
type TurnEntry struct {
	Content  string `json:"content"`
	Role     string `json:"role,omitempty"`
	RoleType string `json:"role_type"`
}

// Store persists conversational memory. Implementations must be safe for
// concurrent use; ordering of AddTurns calls within a session is the
// caller's responsibility.
type Store interface {
	// CreateSession registers a new append-only session for a subject and
	// returns its generated identifier.
	CreateSession(ctx context.Context, subjectID string) (string, error)

	// AddTurns appends turn entries to a session. Role types listed in
	// ignoreRoleTypes are kept in raw history but excluded from fact
	// extraction.
	AddTurns(ctx context.Context, sessionID string, entries []TurnEntry, ignoreRoleTypes []string) error

	// RecentContext returns the free-text summary of the subject's most
	// recent session, or "" when the subject has no prior sessions.
	RecentContext(ctx context.Context, subjectID string) (string, error)
}
