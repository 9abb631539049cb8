package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"github.com/rezmoss/beefocus/internal/beeminder"
)

type Config struct {
	BaseURL         string        `yaml:"base_url" env:"BEEFOCUS_BASE_URL"`
	DataDir         string        `yaml:"data_dir" env:"BEEFOCUS_DATA_DIR"`
	Backend         string        `yaml:"backend" env:"BEEFOCUS_BACKEND"`
	DBDebug         bool          `yaml:"db_debug" env:"BEEFOCUS_DB_DEBUG"`
	LogLevel        string        `yaml:"log_level" env:"BEEFOCUS_LOG_LEVEL"`
	LogFile         string        `yaml:"log_file" env:"BEEFOCUS_LOG_FILE"`
	DefaultDuration time.Duration `yaml:"default_duration" env:"BEEFOCUS_DEFAULT_DURATION"`
	UnitFilter      string        `yaml:"unit_filter" env:"BEEFOCUS_UNIT_FILTER"`
	Quiet           bool          `yaml:"quiet" env:"BEEFOCUS_QUIET"`
	TickInterval    time.Duration `yaml:"tick_interval" env:"BEEFOCUS_TICK_INTERVAL"`
}

// Load reads path when it exists and falls back to the environment alone
// when it does not. An empty path means environment only. Fields left
// unset take their value from Default.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("cannot read env: %w", err)
		}
		return cfg.withDefaults()
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return cfg, fmt.Errorf("cannot read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return cfg, fmt.Errorf("cannot read env: %w", err)
		}
	}
	return cfg.withDefaults()
}

func (c Config) withDefaults() (Config, error) {
	def := Default()
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	if c.Backend == "" {
		c.Backend = def.Backend
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.LogFile == "" {
		c.LogFile = def.LogFile
	}
	if c.DefaultDuration <= 0 {
		c.DefaultDuration = def.DefaultDuration
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.DataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return c, err
		}
		c.DataDir = dir
	}
	return c, nil
}

// LogPath resolves the log file relative to the data directory.
func (c Config) LogPath() string {
	if filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, c.LogFile)
}

func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".beefocus"), nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		BaseURL:         beeminder.DefaultBaseURL,
		Backend:         "file",
		LogLevel:        "INFO",
		LogFile:         "beefocus.log",
		DefaultDuration: 25 * time.Minute,
		TickInterval:    250 * time.Millisecond,
	}
}

// WriteDefault stores the default configuration as YAML at path.
func WriteDefault(path string) error {
	cfg := Default()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
