package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rezmoss/beefocus/internal/core"
)

func (m Model) View() string {
	width := m.width
	if width == 0 {
		width = 60
	}
	state := m.deps.Machine.State()

	header := headerStyle.Width(width).Render(
		fmt.Sprintf("🐝 beefocus - %s", m.deps.Clock.Now().Format("Jan 2, 2006 15:04:05")),
	)

	var body string
	switch m.mode {
	case modeSettings:
		body = m.settingsView(width)
	default:
		body = lipgloss.JoinVertical(lipgloss.Left, m.timerView(state, width), m.sessionView(state, width))
	}

	parts := []string{header, body}
	if line := m.messageLine(state); line != "" {
		parts = append(parts, line)
	}
	parts = append(parts, mutedStyle.Width(width).Render(m.help(state)))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) timerView(state core.TimerState, width int) string {
	remaining := int(m.duration / time.Second)
	total := remaining
	if state.Remaining != nil {
		remaining = *state.Remaining
		total = state.Duration
	}

	barWidth := width - 12
	if barWidth > 50 {
		barWidth = 50
	}
	return boxStyle.Width(width - 4).Render(fmt.Sprintf(
		"%s\n\n%s\n\n%s",
		statusStyle(state).Render(statusLabel(state)),
		clockStyle.Render(clock(remaining)),
		progressBar(total-remaining, total, barWidth),
	))
}

func (m Model) sessionView(state core.TimerState, width int) string {
	goal := m.goalName()
	if state.Status != core.StatusIdle && state.Goal != "" {
		goal = state.Goal
		if g, ok := m.goals.Find(state.Goal); ok {
			goal = g.DisplayName()
		}
	}

	length := humanDuration(int(m.duration / time.Minute))
	if state.Duration > 0 && state.Status != core.StatusIdle {
		length = humanDuration(state.Duration / 60)
	}

	comment := m.comment.Value()
	if m.mode == modeComment {
		comment = m.comment.View()
	} else if comment == "" {
		comment = mutedStyle.Render("(none)")
	}

	refreshed := "never"
	if !m.goals.RefreshedAt.IsZero() {
		refreshed = m.goals.RefreshedAt.Format("Jan 2 15:04")
	}
	if m.loading {
		refreshed = "refreshing..."
	}

	return boxStyle.Width(width - 4).Render(fmt.Sprintf(
		"🎯 SESSION\n\nGoal:     %s\nLength:   %s\nComment:  %s\nGoals:    %d cached, refreshed %s",
		goal, length, comment, len(m.goals.Goals), refreshed,
	))
}

func (m Model) settingsView(width int) string {
	labels := [fieldCount]string{"Username", "Token", "Goal"}
	var b strings.Builder
	b.WriteString("⚙ SETTINGS\n\n")
	for i, in := range m.form {
		fmt.Fprintf(&b, "%-9s %s\n", labels[i]+":", in.View())
	}
	return boxStyle.Width(width - 4).Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) messageLine(state core.TimerState) string {
	var lines []string
	if msg := m.deps.Machine.Message(); msg != "" {
		if state.Status == core.StatusError {
			lines = append(lines, errorStyle.Render(msg))
		} else {
			lines = append(lines, runningStyle.Render(msg))
		}
	}
	if m.notice != "" {
		lines = append(lines, pendingStyle.Render(m.notice))
	}
	return strings.Join(lines, "\n")
}

func (m Model) help(state core.TimerState) string {
	switch m.mode {
	case modeComment:
		return "enter/esc done"
	case modeSettings:
		return "tab next field • enter/ctrl+s save • esc back"
	}
	switch state.Status {
	case core.StatusRunning:
		return "p pause/resume • f flush • x cancel • q quit"
	case core.StatusPosting:
		return "x cancel • q quit"
	case core.StatusFinished, core.StatusError:
		return "r reset • q quit"
	default:
		return "s start • tab goal • +/- length • c comment • g refresh goals • o settings • q quit"
	}
}
