package beeminder

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/beefocus/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/v1/", srv.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestListGoals(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/users/alice/goals.json", r.URL.Path)
		assert.Equal(t, "s3cr3t", r.URL.Query().Get("auth_token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[
			{"slug": "focus", "title": "Deep work", "gunits": "minutes"},
			{"slug": "reading", "gunits": "hours"}
		]`)
	})

	goals, err := client.ListGoals(context.Background(), "alice", "s3cr3t")
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "Deep work", goals[0].DisplayName())
	assert.Equal(t, "minutes", goals[0].Unit)
	assert.Nil(t, goals[1].Title)
	assert.Equal(t, "reading", goals[1].DisplayName())
}

func TestListGoalsRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":"Unauthorized"}`, http.StatusUnauthorized)
	})

	_, err := client.ListGoals(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, core.ErrRemote)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestPostDatapoint(t *testing.T) {
	var calls int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/users/alice/goals/focus/datapoints.json", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "s3cr3t", r.PostForm.Get("auth_token"))
		assert.Equal(t, "20", r.PostForm.Get("value"))
		assert.Equal(t, "deep work", r.PostForm.Get("comment"))
		assert.Equal(t, "1772355600", r.PostForm.Get("timestamp"))
		_, _ = io.WriteString(w, `{"id": "1"}`)
	})

	err := client.PostDatapoint(context.Background(), "alice", "s3cr3t", core.Datapoint{
		Goal:      "focus",
		Value:     core.Minutes(1200),
		Comment:   "deep work",
		Timestamp: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPostDatapointRemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, "value is not a number")
	})

	err := client.PostDatapoint(context.Background(), "alice", "s3cr3t", core.Datapoint{Goal: "focus", Value: 1})
	require.ErrorIs(t, err, core.ErrRemote)
	assert.Contains(t, err.Error(), "value is not a number")
}

func TestEmptyErrorBodyUsesStatusText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.ListGoals(context.Background(), "alice", "s3cr3t")
	require.ErrorIs(t, err, core.ErrRemote)
	assert.Contains(t, err.Error(), "Bad Gateway")
}

func TestPathEscaping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/a%2Fb/goals/x%20y/datapoints.json", r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{}`)
	})

	err := client.PostDatapoint(context.Background(), "a/b", "t", core.Datapoint{Goal: "x y", Value: 1})
	require.NoError(t, err)
}
