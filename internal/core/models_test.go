package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{1200, "20"},
		{1500, "25"},
		{90, "1.5"},
		{61, "1.02"},
		{20, "0.33"},
		{3600, "60"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(Minutes(tt.seconds)), "seconds=%d", tt.seconds)
	}
}

func TestGoalDisplayName(t *testing.T) {
	title := "Deep work"
	blank := "  "
	assert.Equal(t, "Deep work", Goal{Slug: "focus", Title: &title}.DisplayName())
	assert.Equal(t, "focus", Goal{Slug: "focus"}.DisplayName())
	assert.Equal(t, "focus", Goal{Slug: "focus", Title: &blank}.DisplayName())
}

func TestFilterByUnit(t *testing.T) {
	goals := []Goal{{Slug: "a", Unit: "minutes"}, {Slug: "b", Unit: "Hours"}, {Slug: "c", Unit: "MINUTES"}}

	assert.Len(t, FilterByUnit(goals, ""), 3)

	got := FilterByUnit(goals, "minutes")
	if assert.Len(t, got, 2) {
		assert.Equal(t, "a", got[0].Slug)
		assert.Equal(t, "c", got[1].Slug)
	}
	assert.Empty(t, FilterByUnit(goals, "pages"))
}

func TestSettingsMissing(t *testing.T) {
	assert.Empty(t, Settings{Username: "alice", Token: "t"}.Missing())
	assert.Equal(t, []string{"username", "token"}, Settings{Username: " "}.Missing())
	assert.Equal(t, []string{"token"}, Settings{Username: "alice"}.Missing())
}

func TestTimerStateElapsed(t *testing.T) {
	rem := 400
	s := TimerState{Status: StatusRunning, Remaining: &rem, Duration: 600}
	assert.True(t, s.Active())
	assert.Equal(t, 200, s.Elapsed())
	assert.Equal(t, 0, TimerState{Status: StatusIdle}.Elapsed())
	assert.False(t, TimerState{Status: StatusIdle}.Active())
}
