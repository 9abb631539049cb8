package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strconv"
)

// Notifier dispatches desktop notifications. Sending is best-effort: a
// missing notifier binary or a refused notification is only logged.
type Notifier struct {
	log     *slog.Logger
	enabled bool
	goos    string
	run     func(name string, args ...string) error
}

func New(enabled bool, log *slog.Logger) *Notifier {
	return &Notifier{
		log:     log,
		enabled: enabled,
		goos:    runtime.GOOS,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// command returns the notifier invocation for the current OS, or "" when
// the platform has none.
func (n *Notifier) command(title, body string) (string, []string) {
	switch n.goos {
	case "linux", "freebsd", "openbsd":
		return "notify-send", []string{"--app-name=beefocus", title, body}
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(body), strconv.Quote(title))
		return "/usr/bin/osascript", []string{"-e", script}
	default:
		return "", nil
	}
}

func (n *Notifier) Send(title, body string) {
	if !n.enabled {
		return
	}
	name, args := n.command(title, body)
	if name == "" {
		n.log.Debug("notifications unsupported", "os", n.goos)
		return
	}
	if err := n.run(name, args...); err != nil {
		n.log.Debug("notification not delivered", "error", err)
	}
}
