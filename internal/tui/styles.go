package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rezmoss/beefocus/internal/core"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4A90E2")).
			Padding(0, 1).
			MarginBottom(1)

	runningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F7DC6F")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(1, 2).
			MarginBottom(1)
)

func statusStyle(s core.TimerState) lipgloss.Style {
	switch {
	case s.Status == core.StatusRunning && s.Paused:
		return pendingStyle
	case s.Status == core.StatusRunning, s.Status == core.StatusFinished:
		return runningStyle
	case s.Status == core.StatusPosting:
		return pendingStyle
	case s.Status == core.StatusError:
		return errorStyle
	default:
		return mutedStyle
	}
}

func statusLabel(s core.TimerState) string {
	switch {
	case s.Status == core.StatusRunning && s.Paused:
		return "⏸ PAUSED"
	case s.Status == core.StatusRunning:
		return "▶ RUNNING"
	case s.Status == core.StatusPosting:
		return "⇡ POSTING"
	case s.Status == core.StatusFinished:
		return "✔ FINISHED"
	case s.Status == core.StatusError:
		return "✖ ERROR"
	default:
		return "● IDLE"
	}
}

func progressBar(done, total, width int) string {
	if width < 10 {
		width = 10
	}
	filled := 0
	if total > 0 {
		filled = done * width / total
	}
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render(bar)
}

// clock renders seconds as MM:SS, or H:MM:SS past the hour.
func clock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	h, m, s := secs/3600, secs%3600/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func humanDuration(mins int) string {
	h := mins / 60
	m := mins % 60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%d hr %d mins", h, m)
	case h > 0:
		if h == 1 {
			return "1 hr"
		}
		return fmt.Sprintf("%d hrs", h)
	case m == 1:
		return "1 min"
	default:
		return fmt.Sprintf("%d mins", m)
	}
}
