package memory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/subthread/companion/core"
	"github.com/subthread/companion/gateway"
)

// RemoteStore talks to the hosted memory partner through the shared
// gateway. Session identifiers are generated client-side so a failed
// create never leaves an anonymous half-session behind.
type RemoteStore struct {
	gw *gateway.Client
}

// NewRemoteStore wraps a gateway client scoped to the memory partner.
func NewRemoteStore(gw *gateway.Client) *RemoteStore {
	return &RemoteStore{gw: gw}
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type addTurnsRequest struct {
	Messages    []TurnEntry `json:"messages"`
	IgnoreRoles []string    `json:"ignore_roles,omitempty"`
}

type contextResponse struct {
	Context string `json:"context"`
}

// CreateSession registers a new session keyed by a generated identifier
// and the subject id.
func (s *RemoteStore) CreateSession(ctx context.Context, subjectID string) (string, error) {
	sessionID := core.NewID()
	body := createSessionRequest{SessionID: sessionID, UserID: subjectID}
	if _, err := s.gw.Do(ctx, http.MethodPost, "/sessions", body); err != nil {
		return "", fmt.Errorf("create memory session: %w", err)
	}
	return sessionID, nil
}

// AddTurns appends serialized turns to a session.
func (s *RemoteStore) AddTurns(ctx context.Context, sessionID string, entries []TurnEntry, ignoreRoleTypes []string) error {
	body := addTurnsRequest{Messages: entries, IgnoreRoles: ignoreRoleTypes}
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if _, err := s.gw.Do(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("add turns: %w", err)
	}
	return nil
}

// RecentContext fetches the summary blob of the subject's most recent
// session. A 404 from the partner means no prior context and is not an
// error.
func (s *RemoteStore) RecentContext(ctx context.Context, subjectID string) (string, error) {
	var res contextResponse
	path := "/users/" + url.PathEscape(subjectID) + "/context"
	if err := s.gw.Get(ctx, path, &res); err != nil {
		var statusErr *gateway.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return "", nil
		}
		return "", fmt.Errorf("recent context: %w", err)
	}
	return res.Context, nil
}
