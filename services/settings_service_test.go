package services

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/open-teleop/dronecontrols/pkg/config"
)

type recordingApplier struct {
	applied []*config.Settings
	err     error
}

func (a *recordingApplier) ApplySettings(settings *config.Settings) error {
	a.applied = append(a.applied, settings)
	return a.err
}

type chanPublisher chan *config.Settings

func (p chanPublisher) PublishSettingsUpdated(settings *config.Settings) error {
	p <- settings
	return nil
}

func TestNewSettingsServiceWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "drone_settings.yaml")

	svc, err := NewSettingsService(path, nil)
	if err != nil {
		t.Fatalf("NewSettingsService failed: %v", err)
	}

	if got := svc.GetSettings(); got.SettingsID != "default" {
		t.Errorf("Expected default settings, got ID %q", got.SettingsID)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected defaults to be written to %s: %v", path, err)
	}
	loaded, err := config.LoadSettings(path)
	if err != nil {
		t.Fatalf("Written defaults do not load: %v", err)
	}
	if loaded.Input.YawScale != 2.5 {
		t.Errorf("Expected yaw scale 2.5, got %v", loaded.Input.YawScale)
	}
}

func TestNewSettingsServiceRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drone_settings.yaml")
	if err := os.WriteFile(path, []byte("motion:\n  move_rate: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewSettingsService(path, nil); !errors.Is(err, config.ErrInvalidSettings) {
		t.Fatalf("Expected ErrInvalidSettings, got %v", err)
	}
}

func TestUpdateSettingsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drone_settings.yaml")
	svc, err := NewSettingsService(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	applier := &recordingApplier{}
	publisher := make(chanPublisher, 1)
	svc.SetApplier(applier)
	svc.SetPublisher(publisher)

	update := `
settings_id: "tuned"
version: "1.1"
drone_id: "drone-7"
motion:
  move_rate: 0.5
input:
  yaw_scale: 5
  pitch_scale: -2
`
	if err := svc.UpdateSettingsYAML([]byte(update)); err != nil {
		t.Fatalf("UpdateSettingsYAML failed: %v", err)
	}

	got := svc.GetSettings()
	if got.SettingsID != "tuned" || got.Motion.MoveRate != 0.5 {
		t.Errorf("Unexpected active settings: %+v", got)
	}
	// Unset fields keep their defaults.
	if got.Motion.TurnDelaySeconds != 1.5 {
		t.Errorf("Expected default turn delay, got %v", got.Motion.TurnDelaySeconds)
	}
	if got.LastUpdated == "" {
		t.Error("Expected LastUpdated to be stamped")
	}

	if len(applier.applied) != 1 || applier.applied[0].Input.YawScale != 5 {
		t.Errorf("Expected one applied update with yaw scale 5, got %+v", applier.applied)
	}

	select {
	case p := <-publisher:
		if p.SettingsID != "tuned" {
			t.Errorf("Published wrong settings: %s", p.SettingsID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the settings notification")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "drone-7") {
		t.Errorf("Expected persisted file to contain the new drone id:\n%s", data)
	}
}

func TestUpdateSettingsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drone_settings.yaml")
	svc, err := NewSettingsService(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	applier := &recordingApplier{}
	svc.SetApplier(applier)

	bad := svc.GetSettings()
	bad.Recorder.TraceLength = 0
	if err := svc.UpdateSettings(bad); !errors.Is(err, config.ErrInvalidSettings) {
		t.Fatalf("Expected ErrInvalidSettings, got %v", err)
	}
	if err := svc.UpdateSettings(nil); !errors.Is(err, config.ErrInvalidSettings) {
		t.Fatalf("Expected ErrInvalidSettings for nil, got %v", err)
	}
	if err := svc.UpdateSettingsYAML([]byte("settings_id: [")); err == nil {
		t.Fatal("Expected a parse error")
	}

	if len(applier.applied) != 0 {
		t.Errorf("Invalid settings must not be applied")
	}
	if svc.GetSettings().Recorder.TraceLength != 1000000.0 {
		t.Errorf("Active settings changed after a rejected update")
	}
}

func TestUpdateSettingsApplyFailureStillPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drone_settings.yaml")
	svc, err := NewSettingsService(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	svc.SetApplier(&recordingApplier{err: errors.New("runner stopped")})

	next := svc.GetSettings()
	next.SettingsID = "after-stop"
	if err := svc.UpdateSettings(next); err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}

	loaded, err := config.LoadSettings(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.SettingsID != "after-stop" {
		t.Errorf("Expected persisted settings, got %s", loaded.SettingsID)
	}
}

func TestGetSettingsReturnsCopy(t *testing.T) {
	svc, err := NewSettingsService(filepath.Join(t.TempDir(), "s.yaml"), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := svc.GetSettings()
	s.DroneID = "mutated"
	if svc.GetSettings().DroneID == "mutated" {
		t.Error("GetSettings must not expose the active settings")
	}
}
