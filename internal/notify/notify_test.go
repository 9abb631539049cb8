package notify

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) run(name string, args ...string) error {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.err
}

func newTestNotifier(enabled bool, goos string, rec *recorder) *Notifier {
	n := New(enabled, slog.New(slog.NewTextHandler(io.Discard, nil)))
	n.goos = goos
	n.run = rec.run
	return n
}

func TestSendLinux(t *testing.T) {
	rec := &recorder{}
	newTestNotifier(true, "linux", rec).Send("Focus session complete", "logged 25 min to focus")

	if assert.Len(t, rec.calls, 1) {
		assert.Equal(t, []string{"notify-send", "--app-name=beefocus", "Focus session complete", "logged 25 min to focus"}, rec.calls[0])
	}
}

func TestSendDarwinQuotesText(t *testing.T) {
	rec := &recorder{}
	newTestNotifier(true, "darwin", rec).Send("Done", `say "hi"`)

	if assert.Len(t, rec.calls, 1) {
		assert.Equal(t, "/usr/bin/osascript", rec.calls[0][0])
		assert.Equal(t, `display notification "say \"hi\"" with title "Done"`, rec.calls[0][2])
	}
}

func TestSendIsBestEffort(t *testing.T) {
	rec := &recorder{err: errors.New("exec: notify-send: not found")}
	assert.NotPanics(t, func() {
		newTestNotifier(true, "linux", rec).Send("a", "b")
	})
	assert.Len(t, rec.calls, 1)
}

func TestSendSkippedWhenDisabledOrUnsupported(t *testing.T) {
	rec := &recorder{}
	newTestNotifier(false, "linux", rec).Send("a", "b")
	newTestNotifier(true, "plan9", rec).Send("a", "b")
	assert.Empty(t, rec.calls)
}
