package store

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rezmoss/beefocus/internal/core"
)

const (
	keySettings = "settings"
	keyGoals    = "goals"
	keyTimer    = "timer"
)

// Store implements core.Repository over a Backend. Unreadable records are
// logged and treated as absent.
type Store struct {
	kv  Backend
	log *slog.Logger
}

var _ core.Repository = (*Store)(nil)

func New(kv Backend, log *slog.Logger) *Store {
	return &Store{kv: kv, log: log}
}

func (s *Store) Close() error { return s.kv.Close() }

func (s *Store) LoadSettings() (core.Settings, error) {
	var v core.Settings
	found, err := s.load(keySettings, &v)
	if !found {
		return core.Settings{}, err
	}
	return v, err
}

func (s *Store) SaveSettings(v core.Settings) error {
	return s.save(keySettings, v)
}

func (s *Store) LoadGoals() (core.GoalCache, error) {
	var v core.GoalCache
	found, err := s.load(keyGoals, &v)
	if !found {
		return core.GoalCache{}, err
	}
	return v, err
}

func (s *Store) SaveGoals(v core.GoalCache) error {
	return s.save(keyGoals, v)
}

func (s *Store) LoadTimer() (*core.TimerState, error) {
	var v core.TimerState
	found, err := s.load(keyTimer, &v)
	if err != nil || !found {
		return nil, err
	}
	return &v, nil
}

func (s *Store) SaveTimer(v core.TimerState) error {
	return s.save(keyTimer, v)
}

func (s *Store) ClearTimer() error {
	return s.kv.Delete(keyTimer)
}

func (s *Store) load(key string, v any) (bool, error) {
	data, err := s.kv.Get(key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		s.log.Warn("ignoring malformed record", "key", key, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Store) save(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.kv.Put(key, data); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}
