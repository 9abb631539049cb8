package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rezmoss/beefocus/internal/core"
	"github.com/rezmoss/beefocus/internal/timer"
)

const durationStep = 5 * time.Minute

type Notifier interface {
	Send(title, body string)
}

type Deps struct {
	Machine  *timer.Machine
	Repo     core.Repository
	Tracker  core.Tracker
	Notifier Notifier
	Clock    timer.Clock
	Log      *slog.Logger

	UnitFilter      string
	DefaultDuration time.Duration
	TickInterval    time.Duration
}

// Options pre-fill the session form. With AutoStart the timer starts as
// soon as the model is built.
type Options struct {
	Goal      string
	Duration  time.Duration
	Comment   string
	AutoStart bool
}

type mode int

const (
	modeMain mode = iota
	modeComment
	modeSettings
)

const (
	fieldUsername = iota
	fieldToken
	fieldGoal
	fieldCount
)

type tickMsg struct {
	gen int
}

type postResultMsg struct {
	session string
	flush   bool
	err     error
}

type goalsMsg struct {
	goals []core.Goal
	err   error
}

type Model struct {
	deps Deps

	settings core.Settings
	goals    core.GoalCache
	goal     string
	duration time.Duration

	mode    mode
	comment textinput.Model
	form    [fieldCount]textinput.Model
	focus   int
	notice  string
	loading bool
	tickGen int
	width   int
	height  int
}

func NewModel(deps Deps, opts Options) (Model, error) {
	if deps.TickInterval <= 0 {
		deps.TickInterval = 250 * time.Millisecond
	}
	if deps.DefaultDuration <= 0 {
		deps.DefaultDuration = 25 * time.Minute
	}

	m := Model{deps: deps, tickGen: 1}

	settings, err := deps.Repo.LoadSettings()
	if err != nil {
		return m, err
	}
	goals, err := deps.Repo.LoadGoals()
	if err != nil {
		return m, err
	}
	if err := deps.Machine.Restore(); err != nil {
		return m, err
	}
	m.settings = settings
	m.goals = goals

	state := deps.Machine.State()
	m.goal = firstNonEmpty(opts.Goal, state.Goal, settings.Goal)
	if m.goal == "" && len(goals.Goals) > 0 {
		m.goal = goals.Goals[0].Slug
	}
	m.duration = deps.DefaultDuration
	switch {
	case opts.Duration > 0:
		m.duration = opts.Duration
	case state.Duration > 0:
		m.duration = time.Duration(state.Duration) * time.Second
	}

	m.comment = textinput.New()
	m.comment.Placeholder = "comment for the datapoint"
	m.comment.CharLimit = 200
	m.comment.Width = 40
	m.comment.SetValue(firstNonEmpty(opts.Comment, state.Comment))

	m.form = newSettingsForm(settings)

	if opts.AutoStart && state.Status == core.StatusIdle {
		if err := deps.Machine.Start(m.settings, m.goal, m.duration, m.comment.Value()); err != nil {
			deps.Log.Warn("auto start failed", "error", err)
		}
	}
	return m, nil
}

func newSettingsForm(s core.Settings) [fieldCount]textinput.Model {
	var form [fieldCount]textinput.Model
	for i := range form {
		in := textinput.New()
		in.CharLimit = 128
		in.Width = 32
		form[i] = in
	}
	form[fieldUsername].Placeholder = "username"
	form[fieldUsername].SetValue(s.Username)
	form[fieldToken].Placeholder = "auth token"
	form[fieldToken].EchoMode = textinput.EchoPassword
	form[fieldToken].EchoCharacter = '•'
	form[fieldToken].SetValue(s.Token)
	form[fieldGoal].Placeholder = "default goal slug"
	form[fieldGoal].SetValue(s.Goal)
	return form
}

func (m Model) Init() tea.Cmd {
	if m.ticking() {
		return m.tick()
	}
	return nil
}

func (m Model) ticking() bool {
	s := m.deps.Machine.State()
	return s.Status == core.StatusRunning && !s.Paused
}

func (m Model) tick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.deps.TickInterval, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		return m.onTick(msg)
	case postResultMsg:
		return m.onPostResult(msg)
	case goalsMsg:
		return m.onGoals(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeComment:
			return m.updateComment(msg)
		case modeSettings:
			return m.updateSettings(msg)
		}
		return m.updateMain(msg)
	}
	return m, nil
}

func (m Model) onTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.tickGen {
		return m, nil
	}
	if dp := m.deps.Machine.Tick(); dp != nil {
		return m, m.post(*dp, false)
	}
	if m.ticking() {
		return m, m.tick()
	}
	return m, nil
}

func (m Model) onPostResult(msg postResultMsg) (tea.Model, tea.Cmd) {
	if !m.deps.Machine.Resolve(msg.session, msg.err) {
		return m, nil
	}
	if msg.err == nil && !msg.flush {
		m.deps.Notifier.Send("Focus session complete", m.deps.Machine.Message())
	}
	return m, nil
}

func (m Model) onGoals(msg goalsMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.notice = msg.err.Error()
		return m, nil
	}
	m.goals = core.GoalCache{
		Goals:       core.FilterByUnit(msg.goals, m.deps.UnitFilter),
		RefreshedAt: m.deps.Clock.Now(),
	}
	if err := m.deps.Repo.SaveGoals(m.goals); err != nil {
		m.deps.Log.Warn("save goal cache", "error", err)
	}
	if _, ok := m.goals.Find(m.goal); !ok && len(m.goals.Goals) > 0 && m.deps.Machine.State().Status == core.StatusIdle {
		m.goal = m.goals.Goals[0].Slug
	}
	m.notice = fmt.Sprintf("%d goals refreshed", len(m.goals.Goals))
	return m, nil
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	machine := m.deps.Machine
	state := machine.State()
	m.notice = ""

	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "s":
		if err := machine.Start(m.settings, m.goal, m.duration, m.comment.Value()); err != nil {
			if !errors.Is(err, core.ErrMissingField) {
				m.notice = noticeFor(err)
			}
			if machine.State().Status != core.StatusRunning {
				return m, nil
			}
		}
		m.tickGen++
		return m, m.tick()

	case "p", " ":
		if state.Paused {
			if err := machine.Resume(); err != nil {
				m.notice = noticeFor(err)
			}
			m.tickGen++
			if m.ticking() {
				return m, m.tick()
			}
			return m, nil
		}
		if err := machine.Pause(); err != nil {
			m.notice = noticeFor(err)
		}
		m.tickGen++
		return m, nil

	case "f":
		dp, err := machine.Flush()
		if err != nil {
			m.notice = noticeFor(err)
			return m, nil
		}
		m.tickGen++
		return m, m.post(*dp, true)

	case "x":
		if err := machine.Cancel(); err != nil {
			m.notice = noticeFor(err)
		}
		m.tickGen++
		return m, nil

	case "r":
		if err := machine.Reset(); err != nil {
			m.notice = noticeFor(err)
		}
		return m, nil

	case "g":
		return m.refreshGoals()

	case "tab", "shift+tab":
		if state.Status == core.StatusIdle {
			m.cycleGoal(msg.String() == "tab")
		}
		return m, nil

	case "+", "=":
		if state.Status == core.StatusIdle {
			m.duration += durationStep
		}
		return m, nil

	case "-":
		if state.Status == core.StatusIdle && m.duration > durationStep {
			m.duration -= durationStep
		}
		return m, nil

	case "c":
		if state.Status == core.StatusIdle {
			m.mode = modeComment
			cmd := m.comment.Focus()
			return m, cmd
		}
		return m, nil

	case "o":
		m.mode = modeSettings
		m.form = newSettingsForm(m.settings)
		m.focus = fieldUsername
		cmd := m.form[m.focus].Focus()
		return m, cmd
	}
	return m, nil
}

func (m Model) updateComment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.comment.Blur()
		m.mode = modeMain
		return m, nil
	}
	var cmd tea.Cmd
	m.comment, cmd = m.comment.Update(msg)
	return m, cmd
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form[m.focus].Blur()
		m.mode = modeMain
		return m, nil
	case "tab", "down":
		cmd := m.focusField((m.focus + 1) % fieldCount)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.focusField((m.focus + fieldCount - 1) % fieldCount)
		return m, cmd
	case "enter":
		if m.focus < fieldCount-1 {
			cmd := m.focusField(m.focus + 1)
			return m, cmd
		}
		return m.saveSettings()
	case "ctrl+s":
		return m.saveSettings()
	}
	var cmd tea.Cmd
	m.form[m.focus], cmd = m.form[m.focus].Update(msg)
	return m, cmd
}

func (m *Model) focusField(i int) tea.Cmd {
	m.form[m.focus].Blur()
	m.focus = i
	return m.form[m.focus].Focus()
}

func (m Model) saveSettings() (tea.Model, tea.Cmd) {
	settings := core.Settings{
		Username: m.form[fieldUsername].Value(),
		Token:    m.form[fieldToken].Value(),
		Goal:     m.form[fieldGoal].Value(),
	}
	m.form[m.focus].Blur()
	m.mode = modeMain
	if err := m.deps.Repo.SaveSettings(settings); err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.settings = settings
	if settings.Goal != "" && m.deps.Machine.State().Status == core.StatusIdle {
		m.goal = settings.Goal
	}
	m.notice = "settings saved"
	return m, nil
}

func (m Model) refreshGoals() (tea.Model, tea.Cmd) {
	if missing := m.settings.Missing(); len(missing) > 0 {
		m.notice = noticeFor(fmt.Errorf("%w: %s", core.ErrMissingField, strings.Join(missing, ", ")))
		return m, nil
	}
	if m.loading {
		return m, nil
	}
	m.loading = true
	tracker, settings := m.deps.Tracker, m.settings
	return m, func() tea.Msg {
		goals, err := tracker.ListGoals(context.Background(), settings.Username, settings.Token)
		return goalsMsg{goals: goals, err: err}
	}
}

// post sends dp in the background. The session id ties the answer back to
// the attempt that produced it.
func (m Model) post(dp core.Datapoint, flush bool) tea.Cmd {
	tracker, settings := m.deps.Tracker, m.settings
	session := m.deps.Machine.State().Session
	return func() tea.Msg {
		err := tracker.PostDatapoint(context.Background(), settings.Username, settings.Token, dp)
		return postResultMsg{session: session, flush: flush, err: err}
	}
}

func (m *Model) cycleGoal(forward bool) {
	n := len(m.goals.Goals)
	if n == 0 {
		return
	}
	idx := -1
	for i, g := range m.goals.Goals {
		if g.Slug == m.goal {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		idx = 0
	case forward:
		idx = (idx + 1) % n
	default:
		idx = (idx + n - 1) % n
	}
	m.goal = m.goals.Goals[idx].Slug
}

func (m Model) goalName() string {
	if g, ok := m.goals.Find(m.goal); ok {
		return g.DisplayName()
	}
	if m.goal == "" {
		return "(none)"
	}
	return m.goal
}

func noticeFor(err error) string {
	switch {
	case errors.Is(err, core.ErrNothingToFlush):
		return "nothing to flush"
	case errors.Is(err, core.ErrInvalidTransition):
		return "not now: " + err.Error()
	default:
		return err.Error()
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
