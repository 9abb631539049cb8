package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rezmoss/beefocus/internal/beeminder"
	"github.com/rezmoss/beefocus/internal/config"
	"github.com/rezmoss/beefocus/internal/core"
	"github.com/rezmoss/beefocus/internal/notify"
	"github.com/rezmoss/beefocus/internal/store"
	"github.com/rezmoss/beefocus/internal/timer"
	"github.com/rezmoss/beefocus/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	dataDir := flag.String("data", "", "data directory (overrides config)")
	setFlag := flag.String("set", "", "save a setting as key=value (username, token, goal)")
	goalsFlag := flag.Bool("goals", false, "refresh the goal list, print it and exit")
	statusFlag := flag.Bool("status", false, "print the saved timer state and exit")
	initConfig := flag.String("init-config", "", "write the default config to this path and exit")
	startFlag := flag.String("start", "", "start immediately for this long (minutes or HH:MM)")
	goalFlag := flag.String("goal", "", "goal slug for this session")
	commentFlag := flag.String("comment", "", "comment for this session's datapoint")

	flag.Parse()

	if *initConfig != "" {
		if err := config.WriteDefault(*initConfig); err != nil {
			fmt.Fprintln(os.Stderr, "write config:", err)
			os.Exit(1)
		}
		fmt.Println("Config written:", *initConfig)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}

	log, closeLog, err := makeLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open log:", err)
		os.Exit(1)
	}
	defer closeLog()

	backend, err := store.Open(cfg.Backend, cfg.DataDir, cfg.DBDebug, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open store:", err)
		os.Exit(1)
	}

	repo := store.New(backend, log)
	defer func() { _ = repo.Close() }()

	switch {
	case *setFlag != "":
		if err := applySetting(repo, *setFlag); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	case *statusFlag:
		if err := printStatus(os.Stdout, repo, timer.SystemClock); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	tracker := beeminder.NewClient(cfg.BaseURL, nil, log)

	if *goalsFlag {
		if err := refreshGoals(context.Background(), os.Stdout, repo, tracker, cfg.UnitFilter); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	opts := tui.Options{Goal: *goalFlag, Comment: *commentFlag}
	if *startFlag != "" {
		d, err := parseDuration(*startFlag)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Invalid duration:", err)
			os.Exit(1)
		}
		opts.Duration = d
		opts.AutoStart = true
	}

	m, err := tui.NewModel(tui.Deps{
		Machine:         timer.New(timer.SystemClock, repo, log),
		Repo:            repo,
		Tracker:         tracker,
		Notifier:        notify.New(!cfg.Quiet, log),
		Clock:           timer.SystemClock,
		Log:             log,
		UnitFilter:      cfg.UnitFilter,
		DefaultDuration: cfg.DefaultDuration,
		TickInterval:    cfg.TickInterval,
	}, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "init:", err)
		os.Exit(1)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running timer: %v\n", err)
		os.Exit(1)
	}
}

// makeLogger writes to a file because the terminal belongs to the TUI.
func makeLogger(cfg config.Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return log, func() { _ = f.Close() }, nil
}

func applySetting(repo core.Repository, kv string) error {
	parts := strings.SplitN(kv, "=", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid setting format, use key=value")
	}
	settings, err := repo.LoadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	value := strings.TrimSpace(parts[1])
	switch parts[0] {
	case "username":
		settings.Username = value
	case "token":
		settings.Token = value
	case "goal":
		settings.Goal = value
	default:
		return fmt.Errorf("unknown setting: %s", parts[0])
	}

	if err := repo.SaveSettings(settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if parts[0] == "token" {
		value = strings.Repeat("•", len(value))
	}
	fmt.Printf("Setting updated: %s=%s\n", parts[0], value)
	return nil
}

func refreshGoals(ctx context.Context, w io.Writer, repo core.Repository, tracker core.Tracker, unit string) error {
	settings, err := repo.LoadSettings()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if missing := settings.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", core.ErrMissingField, strings.Join(missing, ", "))
	}

	goals, err := tracker.ListGoals(ctx, settings.Username, settings.Token)
	if err != nil {
		return err
	}
	cache := core.GoalCache{Goals: core.FilterByUnit(goals, unit), RefreshedAt: time.Now()}
	if err := repo.SaveGoals(cache); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLUG\tTITLE\tUNIT")
	for _, g := range cache.Goals {
		marker := ""
		if g.Slug == settings.Goal {
			marker = " *"
		}
		fmt.Fprintf(tw, "%s%s\t%s\t%s\n", g.Slug, marker, g.DisplayName(), g.Unit)
	}
	return tw.Flush()
}

func printStatus(w io.Writer, repo core.Repository, clk timer.Clock) error {
	state, err := repo.LoadTimer()
	if err != nil {
		return fmt.Errorf("load timer: %w", err)
	}
	if state == nil {
		fmt.Fprintln(w, "idle")
		return nil
	}

	remaining := 0
	if state.Remaining != nil {
		remaining = *state.Remaining
	}
	if state.Deadline != nil && !state.Paused {
		remaining = timer.RemainingUntil(*state.Deadline, clk.Now())
	}

	label := string(state.Status)
	if state.Paused {
		label += " (paused)"
	}
	fmt.Fprintf(w, "%s: %s, %s left of %s", label, state.Goal,
		(time.Duration(remaining) * time.Second).String(),
		(time.Duration(state.Duration) * time.Second).String())
	if state.Comment != "" {
		fmt.Fprintf(w, " - %q", state.Comment)
	}
	if state.Message != "" {
		fmt.Fprintf(w, " (%s)", state.Message)
	}
	fmt.Fprintln(w)
	return nil
}

// parseDuration accepts whole minutes ("25") or HH:MM ("1:30").
func parseDuration(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 1:
		mins, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		if mins <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return time.Duration(mins) * time.Minute, nil
	case 2:
		hours, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, err
		}
		mins, err := strconv.Atoi(parts[1])
		if err != nil {
			return 0, err
		}
		total := hours*60 + mins
		if total <= 0 {
			return 0, fmt.Errorf("duration must be positive")
		}
		return time.Duration(total) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration format, use minutes or HH:MM")
	}
}
