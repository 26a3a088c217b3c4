package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSetsContentTypeAndHeaders(t *testing.T) {
	var gotContentType, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("X-Automation-Key")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, func(o *Options) {
		o.Headers = map[string]string{"X-Automation-Key": "k1"}
	})
	data, err := c.Do(context.Background(), http.MethodGet, "/users/u1", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "k1", gotKey)
}

func TestDoSurfacesStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Do(context.Background(), http.MethodGet, "/users/nope", nil)
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
}

func TestDoHonorsTimeoutBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := New(srv.URL, func(o *Options) { o.Timeout = 50 * time.Millisecond })
	start := time.Now()
	_, err := c.Do(context.Background(), http.MethodGet, "/slow", nil)
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestGetDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"u1","name":"Annie"}`))
	}))
	defer srv.Close()

	var out struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	c := New(srv.URL)
	require.NoError(t, c.Get(context.Background(), "/users/u1", &out))
	assert.Equal(t, "Annie", out.Name)
}
