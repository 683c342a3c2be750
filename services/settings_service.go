package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/open-teleop/dronecontrols/pkg/config"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"gopkg.in/yaml.v3"
)

// SettingsPublisher announces that new settings are active.
type SettingsPublisher interface {
	PublishSettingsUpdated(settings *config.Settings) error
}

// SettingsApplier pushes settings into the running controller.
type SettingsApplier interface {
	ApplySettings(settings *config.Settings) error
}

// SettingsService manages the operational drone settings file.
type SettingsService interface {
	LoadSettings() error
	GetSettings() *config.Settings
	GetSettingsYAML() ([]byte, error)
	UpdateSettings(settings *config.Settings) error
	UpdateSettingsYAML(data []byte) error
	SetPublisher(p SettingsPublisher)
	SetApplier(a SettingsApplier)
}

type settingsService struct {
	path      string
	logger    customlog.Logger
	publisher SettingsPublisher
	applier   SettingsApplier
	current   *config.Settings
	mu        sync.RWMutex
}

// NewSettingsService creates the service and loads path. A missing file is
// created with DefaultSettings.
func NewSettingsService(path string, logger customlog.Logger) (SettingsService, error) {
	if path == "" {
		return nil, fmt.Errorf("settings path cannot be empty")
	}
	if logger == nil {
		logger = customlog.NewNopLogger()
	}

	s := &settingsService{path: path, logger: logger}
	if err := s.LoadSettings(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSettings reads the settings file, writing defaults when it is absent.
func (s *settingsService) LoadSettings() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Loading drone settings from: %s", s.path)
	settings, err := config.LoadSettings(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warnf("Settings file '%s' not found, writing defaults", s.path)
		settings = config.DefaultSettings()
		if err := s.persistUnlocked(settings); err != nil {
			return err
		}
	} else if err != nil {
		return fmt.Errorf("error loading settings '%s': %w", s.path, err)
	}

	s.current = settings
	s.logger.Infof("Loaded drone settings ID: %s, Version: %s", settings.SettingsID, settings.Version)
	return nil
}

// GetSettings returns a copy of the active settings.
func (s *settingsService) GetSettings() *config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// GetSettingsYAML returns the active settings as YAML.
func (s *settingsService) GetSettingsYAML() ([]byte, error) {
	return yaml.Marshal(s.GetSettings())
}

// UpdateSettingsYAML parses data on top of the defaults and applies it.
func (s *settingsService) UpdateSettingsYAML(data []byte) error {
	settings, err := config.ParseSettings(data)
	if err != nil {
		s.logger.Errorf("Rejected settings update: %v", err)
		return err
	}
	return s.UpdateSettings(settings)
}

// UpdateSettings validates, persists and applies settings, then notifies the
// publisher in the background.
func (s *settingsService) UpdateSettings(settings *config.Settings) error {
	if settings == nil {
		return fmt.Errorf("%w: settings are empty", config.ErrInvalidSettings)
	}
	if err := settings.Validate(); err != nil {
		s.logger.Errorf("Rejected settings update: %v", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := *settings
	next.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	if err := s.persistUnlocked(&next); err != nil {
		return err
	}

	oldID := "N/A"
	if s.current != nil {
		oldID = s.current.SettingsID
	}
	s.current = &next
	s.logger.Infof("Updated drone settings. ID %s -> %s, Version: %s", oldID, next.SettingsID, next.Version)

	if s.applier != nil {
		if err := s.applier.ApplySettings(&next); err != nil {
			// Persisted settings still take effect on the next start.
			s.logger.Warnf("Failed to apply settings to the running controller: %v", err)
		}
	}

	if s.publisher != nil {
		published := next
		go func(p SettingsPublisher) {
			if err := p.PublishSettingsUpdated(&published); err != nil {
				s.logger.Warnf("Failed to publish settings update: %v", err)
			}
		}(s.publisher)
	}
	return nil
}

func (s *settingsService) persistUnlocked(settings *config.Settings) error {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("error creating settings directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.logger.Errorf("Error writing settings file '%s': %v", s.path, err)
		return fmt.Errorf("error writing settings file '%s': %w", s.path, err)
	}
	s.logger.Debugf("Persisted drone settings to %s", s.path)
	return nil
}

func (s *settingsService) SetPublisher(p SettingsPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

func (s *settingsService) SetApplier(a SettingsApplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applier = a
}
