package timer

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rezmoss/beefocus/internal/core"
)

// Machine owns the timer state. It is not safe for concurrent use; every
// call is expected to come from the single UI event loop.
type Machine struct {
	clock Clock
	repo  core.Repository
	log   *slog.Logger
	newID func() string

	state   core.TimerState
	message string
}

func New(clock Clock, repo core.Repository, log *slog.Logger) *Machine {
	return &Machine{
		clock: clock,
		repo:  repo,
		log:   log,
		newID: uuid.NewString,
		state: core.TimerState{Status: core.StatusIdle},
	}
}

// State returns a copy of the current timer state.
func (m *Machine) State() core.TimerState {
	s := m.state
	if s.Remaining != nil {
		r := *s.Remaining
		s.Remaining = &r
	}
	if s.Deadline != nil {
		d := *s.Deadline
		s.Deadline = &d
	}
	return s
}

// Message is the last user-facing note: an error text, "nothing to flush", etc.
func (m *Machine) Message() string { return m.message }

// Restore rehydrates the machine from the persisted timer record.
func (m *Machine) Restore() error {
	saved, err := m.repo.LoadTimer()
	if err != nil {
		return fmt.Errorf("load timer state: %w", err)
	}
	if saved == nil {
		return nil
	}
	s := *saved
	if reason := invalidState(s); reason != "" {
		m.log.Warn("discarding invalid timer state", "reason", reason, "session", s.Session)
		return m.clear()
	}

	switch s.Status {
	case core.StatusRunning:
		if s.Remaining == nil {
			m.log.Warn("discarding timer state without remaining time", "session", s.Session)
			return m.clear()
		}
		if s.Paused {
			s.Deadline = nil
			break
		}
		if s.Deadline == nil {
			// An unpaused countdown with no deadline cannot be resumed
			// faithfully, keep what is left and pause it.
			s.Paused = true
			break
		}
		rem := remainingOf(s, m.clock.Now())
		s.Remaining = &rem
	case core.StatusPosting:
		s.Status = core.StatusError
		s.Deadline = nil
		s.Message = "interrupted while posting; datapoint may not have been logged"
		m.message = s.Message
		m.state = s
		m.log.Info("timer restored", "status", s.Status, "goal", s.Goal, "session", s.Session)
		return m.persist()
	case core.StatusFinished, core.StatusError:
		s.Deadline = nil
		m.message = s.Message
	case core.StatusIdle:
		return nil
	}

	m.state = s
	m.log.Info("timer restored", "status", s.Status, "goal", s.Goal, "session", s.Session)
	return nil
}

// Start moves idle -> running. Missing required fields put the machine in
// the error state and no datapoint will ever be produced for the attempt.
func (m *Machine) Start(settings core.Settings, goal string, duration time.Duration, comment string) error {
	if m.state.Status != core.StatusIdle {
		return fmt.Errorf("%w: start while %s", core.ErrInvalidTransition, m.state.Status)
	}

	missing := settings.Missing()
	if strings.TrimSpace(goal) == "" {
		missing = append([]string{"goal"}, missing...)
	}
	secs := int(duration / time.Second)
	if secs <= 0 {
		missing = append(missing, "duration")
	}
	if len(missing) > 0 {
		err := fmt.Errorf("%w: %s", core.ErrMissingField, strings.Join(missing, ", "))
		m.state = core.TimerState{Status: core.StatusError, Goal: goal, Duration: secs, Comment: comment, Message: err.Error()}
		m.message = err.Error()
		m.log.Warn("start rejected", "error", err)
		return err
	}

	deadline := m.clock.Now().Add(time.Duration(secs) * time.Second)
	m.state = core.TimerState{
		Status:    core.StatusRunning,
		Remaining: &secs,
		Deadline:  &deadline,
		Goal:      goal,
		Duration:  secs,
		Comment:   comment,
		Session:   m.newID(),
	}
	m.message = ""
	m.log.Info("timer started", "goal", goal, "duration", secs, "session", m.state.Session)
	return m.persist()
}

func (m *Machine) Pause() error {
	if !m.state.Active() || m.state.Paused {
		return fmt.Errorf("%w: pause while %s", core.ErrInvalidTransition, m.describe())
	}
	rem := remainingOf(m.state, m.clock.Now())
	m.state.Remaining = &rem
	m.state.Deadline = nil
	m.state.Paused = true
	return m.persist()
}

func (m *Machine) Resume() error {
	if !m.state.Active() || !m.state.Paused {
		return fmt.Errorf("%w: resume while %s", core.ErrInvalidTransition, m.describe())
	}
	deadline := m.clock.Now().Add(time.Duration(*m.state.Remaining) * time.Second)
	m.state.Deadline = &deadline
	m.state.Paused = false
	return m.persist()
}

// Tick recomputes the remaining time from the deadline. When the countdown
// reaches zero the machine enters posting and the completion datapoint is
// returned; the caller is responsible for sending it and calling Resolve.
func (m *Machine) Tick() *core.Datapoint {
	if m.state.Status != core.StatusRunning || m.state.Paused || m.state.Deadline == nil {
		return nil
	}
	now := m.clock.Now()
	rem := remainingOf(m.state, now)
	m.state.Remaining = &rem
	if rem > 0 {
		return nil
	}

	m.state.Status = core.StatusPosting
	m.state.Deadline = nil
	if err := m.persist(); err != nil {
		m.log.Warn("persist posting state", "error", err)
	}
	return &core.Datapoint{
		Goal:      m.state.Goal,
		Value:     core.Minutes(m.state.Duration),
		Comment:   m.state.Comment,
		Timestamp: now,
	}
}

// Flush posts the part of the session already elapsed and, once resolved,
// returns the machine to idle.
func (m *Machine) Flush() (*core.Datapoint, error) {
	if !m.state.Active() {
		return nil, fmt.Errorf("%w: flush while %s", core.ErrInvalidTransition, m.describe())
	}
	now := m.clock.Now()
	if !m.state.Paused && m.state.Deadline != nil {
		rem := remainingOf(m.state, now)
		m.state.Remaining = &rem
	}

	elapsed := m.state.Elapsed()
	if elapsed <= 0 {
		m.message = core.ErrNothingToFlush.Error()
		return nil, core.ErrNothingToFlush
	}

	m.state.Status = core.StatusPosting
	m.state.Deadline = nil
	m.state.Paused = false
	m.state.Flushing = true
	m.message = ""
	if err := m.persist(); err != nil {
		m.log.Warn("persist flushing state", "error", err)
	}
	return &core.Datapoint{
		Goal:      m.state.Goal,
		Value:     core.Minutes(elapsed),
		Comment:   m.state.Comment,
		Timestamp: now,
	}, nil
}

// Resolve applies the outcome of a post. Results for a session that is no
// longer posting (cancelled or reset meanwhile) are dropped and false is
// returned; the request itself was never aborted and may still have landed.
func (m *Machine) Resolve(session string, postErr error) bool {
	if m.state.Status != core.StatusPosting || m.state.Session != session {
		m.log.Warn("dropping stale post result", "session", session, "error", postErr)
		return false
	}

	if postErr != nil {
		m.state.Status = core.StatusError
		m.state.Message = postErr.Error()
		m.message = m.state.Message
		m.log.Error("post failed", "goal", m.state.Goal, "session", session, "error", postErr)
		if err := m.persist(); err != nil {
			m.log.Warn("persist error state", "error", err)
		}
		return true
	}

	if m.state.Flushing {
		elapsed := m.state.Elapsed()
		m.message = fmt.Sprintf("flushed %s min to %s", core.FormatValue(core.Minutes(elapsed)), m.state.Goal)
		m.log.Info("session flushed", "goal", m.state.Goal, "elapsed", elapsed, "session", session)
		m.state = core.TimerState{Status: core.StatusIdle}
		m.clearQuietly()
		return true
	}

	m.state.Status = core.StatusFinished
	m.message = fmt.Sprintf("logged %s min to %s", core.FormatValue(core.Minutes(m.state.Duration)), m.state.Goal)
	m.log.Info("session finished", "goal", m.state.Goal, "duration", m.state.Duration, "session", session)
	m.clearQuietly()
	return true
}

// Cancel abandons any non-idle state.
func (m *Machine) Cancel() error {
	if m.state.Status == core.StatusIdle {
		return fmt.Errorf("%w: nothing to cancel", core.ErrInvalidTransition)
	}
	if m.state.Status == core.StatusPosting {
		m.log.Warn("cancel during post; the request is still in flight", "session", m.state.Session)
	}
	m.state = core.TimerState{Status: core.StatusIdle}
	m.message = "cancelled"
	return m.clear()
}

// Reset acknowledges a finished or failed session.
func (m *Machine) Reset() error {
	if m.state.Status != core.StatusFinished && m.state.Status != core.StatusError {
		return fmt.Errorf("%w: reset while %s", core.ErrInvalidTransition, m.state.Status)
	}
	m.state = core.TimerState{Status: core.StatusIdle}
	m.message = ""
	return m.clear()
}

// remainingOf reads the countdown from the deadline, never above the
// session length.
func remainingOf(s core.TimerState, now time.Time) int {
	return min(RemainingUntil(*s.Deadline, now), s.Duration)
}

// invalidState names what makes a persisted record unusable, or returns "".
func invalidState(s core.TimerState) string {
	switch {
	case !s.Status.Known():
		return fmt.Sprintf("unknown status %q", s.Status)
	case s.Duration < 0:
		return "negative duration"
	case s.Remaining != nil && *s.Remaining < 0:
		return "negative remaining time"
	case s.Remaining != nil && *s.Remaining > s.Duration:
		return "remaining time exceeds duration"
	}
	return ""
}

func (m *Machine) describe() string {
	if m.state.Paused {
		return "paused"
	}
	return string(m.state.Status)
}

func (m *Machine) persist() error {
	if err := m.repo.SaveTimer(m.state); err != nil {
		return fmt.Errorf("save timer state: %w", err)
	}
	return nil
}

func (m *Machine) clear() error {
	if err := m.repo.ClearTimer(); err != nil {
		return fmt.Errorf("clear timer state: %w", err)
	}
	return nil
}

func (m *Machine) clearQuietly() {
	if err := m.clear(); err != nil {
		m.log.Warn("clear timer state", "error", err)
	}
}
