package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subthread/companion/gateway"
)

func TestRemoteStoreCreateAndAdd(t *testing.T) {
	var created createSessionRequest
	var added addTurnsRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/sessions":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&created))
			_, _ = w.Write([]byte(`{}`))
		case r.Method == http.MethodPost && r.URL.Path == "/sessions/"+created.SessionID+"/messages":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&added))
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	store := NewRemoteStore(gateway.New(srv.URL))
	ctx := context.Background()

	id, err := store.CreateSession(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, id, created.SessionID)
	assert.Equal(t, "u1", created.UserID)

	entries := []TurnEntry{{Content: "Annie: Hello", RoleType: RoleTypeUser}}
	require.NoError(t, store.AddTurns(ctx, id, entries, []string{RoleTypeAssistant}))
	assert.Equal(t, entries, added.Messages)
	assert.Equal(t, []string{RoleTypeAssistant}, added.IgnoreRoles)
}

func TestRemoteStoreRecentContextNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	store := NewRemoteStore(gateway.New(srv.URL))
	blob, err := store.RecentContext(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, blob)
}

func TestRemoteStoreRecentContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/u1/context", r.URL.Path)
		_, _ = w.Write([]byte(`{"context":"likes gardening"}`))
	}))
	defer srv.Close()

	store := NewRemoteStore(gateway.New(srv.URL))
	blob, err := store.RecentContext(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "likes gardening", blob)
}
