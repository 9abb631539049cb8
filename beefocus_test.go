package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/beefocus/internal/core"
	"github.com/rezmoss/beefocus/internal/store"
	"github.com/rezmoss/beefocus/internal/timer"
)

func newTestRepo(t *testing.T) *store.Store {
	t.Helper()
	b, err := store.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	return store.New(b, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"25", 25 * time.Minute, false},
		{"1:30", 90 * time.Minute, false},
		{"00:20", 20 * time.Minute, false},
		{"0", 0, true},
		{"abc", 0, true},
		{"1:2:3", 0, true},
	}
	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestApplySetting(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, applySetting(repo, "username=alice"))
	require.NoError(t, applySetting(repo, "token= s3cr3t "))
	require.NoError(t, applySetting(repo, "goal=focus"))
	assert.Error(t, applySetting(repo, "colour=blue"))
	assert.Error(t, applySetting(repo, "username"))

	got, err := repo.LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, core.Settings{Username: "alice", Token: "s3cr3t", Goal: "focus"}, got)
}

type stubTracker struct {
	goals []core.Goal
}

func (s stubTracker) ListGoals(context.Context, string, string) ([]core.Goal, error) {
	return s.goals, nil
}

func (s stubTracker) PostDatapoint(context.Context, string, string, core.Datapoint) error {
	return nil
}

func TestRefreshGoals(t *testing.T) {
	repo := newTestRepo(t)
	title := "Deep work"
	tracker := stubTracker{goals: []core.Goal{
		{Slug: "focus", Title: &title, Unit: "minutes"},
		{Slug: "gym", Unit: "hours"},
	}}

	var out bytes.Buffer
	err := refreshGoals(context.Background(), &out, repo, tracker, "")
	require.ErrorIs(t, err, core.ErrMissingField)

	require.NoError(t, repo.SaveSettings(core.Settings{Username: "alice", Token: "t", Goal: "focus"}))
	require.NoError(t, refreshGoals(context.Background(), &out, repo, tracker, "minutes"))
	assert.Contains(t, out.String(), "focus *")
	assert.Contains(t, out.String(), "Deep work")
	assert.NotContains(t, out.String(), "gym")

	cache, err := repo.LoadGoals()
	require.NoError(t, err)
	assert.Len(t, cache.Goals, 1)
}

func TestPrintStatus(t *testing.T) {
	repo := newTestRepo(t)
	clock := timer.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	var out bytes.Buffer
	require.NoError(t, printStatus(&out, repo, clock))
	assert.Equal(t, "idle\n", out.String())

	m := timer.New(clock, repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, m.Start(core.Settings{Username: "a", Token: "t"}, "focus", 25*time.Minute, "notes"))
	clock.Advance(5 * time.Minute)

	out.Reset()
	require.NoError(t, printStatus(&out, repo, clock))
	assert.Equal(t, "running: focus, 20m0s left of 25m0s - \"notes\"\n", out.String())

	// sub-second remainders round the same way the countdown does
	clock.Advance(1400 * time.Millisecond)
	out.Reset()
	require.NoError(t, printStatus(&out, repo, clock))
	assert.Equal(t, "running: focus, 19m59s left of 25m0s - \"notes\"\n", out.String())
}

func TestPrintStatusShowsFailure(t *testing.T) {
	repo := newTestRepo(t)
	clock := timer.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	m := timer.New(clock, repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, m.Start(core.Settings{Username: "a", Token: "t"}, "focus", time.Minute, ""))
	session := m.State().Session
	clock.Advance(time.Minute)
	require.NotNil(t, m.Tick())
	require.True(t, m.Resolve(session, errors.New("remote request failed: 401: bad token")))

	var out bytes.Buffer
	require.NoError(t, printStatus(&out, repo, clock))
	assert.Equal(t, "error: focus, 0s left of 1m0s (remote request failed: 401: bad token)\n", out.String())
}
