package core

import "context"

// Repository persists the three local records. Load methods return the
// zero value when a record is absent or unreadable.
type Repository interface {
	LoadSettings() (Settings, error)
	SaveSettings(Settings) error

	LoadGoals() (GoalCache, error)
	SaveGoals(GoalCache) error

	LoadTimer() (*TimerState, error)
	SaveTimer(TimerState) error
	ClearTimer() error
}

// Tracker is the remote habit-tracking service.
type Tracker interface {
	ListGoals(ctx context.Context, username, token string) ([]Goal, error)
	PostDatapoint(ctx context.Context, username, token string, dp Datapoint) error
}
