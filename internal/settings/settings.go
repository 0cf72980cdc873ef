// Package settings persists the user's pet settings as JSON.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/anima/internal/model"
)

// Store reads and writes the settings document at a fixed path.
type Store struct {
	path     string
	defaults model.Settings
	l        logrus.FieldLogger
}

// New returns a Store for path. defaults are returned by Load for anything the file lacks.
func New(path string, defaults model.Settings, l logrus.FieldLogger) *Store {
	defaults.Opacity = model.ClampOpacity(defaults.Opacity)
	return &Store{path: path, defaults: defaults, l: l}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored settings. It never fails: read and parse problems yield defaults.
func (s *Store) Load() model.Settings {
	result, err := s.read()
	if err != nil {
		var rerr *model.ConfigReadError
		if errors.As(err, &rerr) && errors.Is(rerr.Err, os.ErrNotExist) {
			s.l.Debugf("No settings at [%s], using defaults.", s.path)
		} else {
			s.l.WithError(err).Warnf("Unable to load settings, using defaults.")
		}
		return s.defaults
	}
	return result
}

func (s *Store) read() (model.Settings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return model.Settings{}, &model.ConfigReadError{Path: s.path, Err: err}
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Settings{}, &model.ConfigReadError{Path: s.path, Err: err}
	}

	out := s.defaults
	var selected string
	if s.decodeField(doc, "selectedCharacter", &selected) && selected != "" {
		out.SelectedCharacter = selected
	}
	var opacity float64
	if s.decodeField(doc, "opacity", &opacity) {
		out.Opacity = model.ClampOpacity(opacity)
	}
	var position map[string]json.RawMessage
	if s.decodeField(doc, "position", &position) {
		var x, y int
		if s.decodeField(position, "x", &x) {
			out.Position.X = x
		}
		if s.decodeField(position, "y", &y) {
			out.Position.Y = y
		}
	}
	return out, nil
}

// decodeField decodes doc[name] into target and reports success. Bad values fall back to defaults.
func (s *Store) decodeField(doc map[string]json.RawMessage, name string, target any) bool {
	raw, ok := doc[name]
	if !ok || string(raw) == "null" {
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		s.l.WithError(err).Warnf("Settings field [%s] is invalid, using its default.", name)
		return false
	}
	return true
}

// Save writes settings atomically (temp file + rename) with opacity clamped.
func (s *Store) Save(settings model.Settings) error {
	settings.Opacity = model.ClampOpacity(settings.Opacity)
	if err := s.write(settings); err != nil {
		return &model.ConfigWriteError{Path: s.path, Err: err}
	}
	return nil
}

func (s *Store) write(settings model.Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	data = append(data, '\n')
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "settings-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
