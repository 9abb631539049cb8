package core

import (
	"strconv"
	"strings"
	"time"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusRunning  Status = "running"
	StatusPosting  Status = "posting"
	StatusFinished Status = "finished"
	StatusError    Status = "error"
)

// Known reports whether s is one of the timer statuses above.
func (s Status) Known() bool {
	switch s {
	case StatusIdle, StatusRunning, StatusPosting, StatusFinished, StatusError:
		return true
	}
	return false
}

// TimerState is the in-flight session. Deadline is set only while the
// timer is running and not paused; Remaining is nil when no timer is active.
// Message carries the failure text of an error state across restarts.
type TimerState struct {
	Status    Status     `json:"status"`
	Remaining *int       `json:"remaining"`
	Deadline  *time.Time `json:"deadline"`
	Paused    bool       `json:"paused"`
	Goal      string     `json:"goal"`
	Duration  int        `json:"duration"`
	Comment   string     `json:"comment"`
	Session   string     `json:"session,omitempty"`
	Flushing  bool       `json:"flushing,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// Active reports whether a countdown exists (running or paused).
func (s TimerState) Active() bool {
	return s.Status == StatusRunning && s.Remaining != nil
}

// Elapsed is the number of seconds already counted down.
func (s TimerState) Elapsed() int {
	if s.Remaining == nil {
		return 0
	}
	return s.Duration - *s.Remaining
}

type Settings struct {
	Username string `json:"username"`
	Token    string `json:"token"`
	Goal     string `json:"goal"`
}

// Missing returns the names of required settings that are empty.
func (s Settings) Missing() []string {
	var missing []string
	if strings.TrimSpace(s.Username) == "" {
		missing = append(missing, "username")
	}
	if strings.TrimSpace(s.Token) == "" {
		missing = append(missing, "token")
	}
	return missing
}

type Goal struct {
	Slug  string  `json:"slug"`
	Title *string `json:"title,omitempty"`
	Unit  string  `json:"gunits"`
}

// DisplayName falls back to the slug when the goal has no title.
func (g Goal) DisplayName() string {
	if g.Title == nil || strings.TrimSpace(*g.Title) == "" {
		return g.Slug
	}
	return *g.Title
}

type GoalCache struct {
	Goals       []Goal    `json:"goals"`
	RefreshedAt time.Time `json:"refreshed_at"`
}

// Find returns the cached goal with the given slug.
func (c GoalCache) Find(slug string) (Goal, bool) {
	for _, g := range c.Goals {
		if g.Slug == slug {
			return g, true
		}
	}
	return Goal{}, false
}

// FilterByUnit keeps goals measured in unit. An empty unit keeps everything.
func FilterByUnit(goals []Goal, unit string) []Goal {
	if unit == "" {
		return goals
	}
	var out []Goal
	for _, g := range goals {
		if strings.EqualFold(g.Unit, unit) {
			out = append(out, g)
		}
	}
	return out
}

// Datapoint is a value in minutes logged against a goal.
type Datapoint struct {
	Goal      string
	Value     float64
	Comment   string
	Timestamp time.Time
}

// Minutes converts a number of seconds into a datapoint value.
func Minutes(seconds int) float64 {
	return float64(seconds) / 60
}

// FormatValue renders v with at most two decimals: 20 -> "20", 1.5 -> "1.5".
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
