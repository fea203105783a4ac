package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

// loadFresh resets viper's global state before loading, so one test's
// config file or env vars never leak into the next.
func loadFresh(t *testing.T, projectRoot string) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return Load(projectRoot)
}

func writeConfigFile(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, ".lopen")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFresh(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Session.Retention != 10 {
		t.Errorf("Session.Retention = %d, want 10", cfg.Session.Retention)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want true by default")
	}
	if cfg.Cache.WatchInvalidation {
		t.Error("Cache.WatchInvalidation = true, want false by default")
	}
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Logging.Level = %q, want INFO", cfg.Logging.Level)
	}
}

func TestLoad_ConfigFileOverridesDefaults(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, `{
		"session": {"retention": 5},
		"logging": {"level": "DEBUG"}
	}`)

	cfg, err := loadFresh(t, root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.Retention != 5 {
		t.Errorf("Session.Retention = %d, want 5", cfg.Session.Retention)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG", cfg.Logging.Level)
	}
	// Untouched sections keep their defaults.
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled = false, want default true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LOPEN_SESSION_RETENTION", "3")

	cfg, err := loadFresh(t, t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.Retention != 3 {
		t.Errorf("Session.Retention = %d, want 3 from env", cfg.Session.Retention)
	}
}

func TestLoad_InvalidRetention(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, `{"session": {"retention": 0}}`)

	_, err := loadFresh(t, root)
	if err == nil {
		t.Fatal("Load accepted a zero retention")
	}
	if !strings.Contains(err.Error(), "session.retention") {
		t.Errorf("error %q does not name the offending field", err)
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, `{"logging": {"level": "LOUD"}}`)

	_, err := loadFresh(t, root)
	if err == nil {
		t.Fatal("Load accepted an unknown log level")
	}
	if !strings.Contains(err.Error(), "logging.level") {
		t.Errorf("error %q does not name the offending field", err)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Retention: -1},
		Logging: LoggingConfig{Level: "nope"},
	}

	errs := cfg.Validate()
	if len(errs) != 2 {
		t.Fatalf("Validate returned %d errors, want 2: %v", len(errs), errs)
	}

	msg := ValidationErrors(errs).Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("combined message = %q", msg)
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	cfg := &Config{
		Session: SessionConfig{Retention: 1},
		Logging: LoggingConfig{Level: "debug"},
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("lower-case level rejected: %v", errs)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Field: "session.retention", Value: 0, Message: "must be at least 1"}
	want := "session.retention: must be at least 1 (got: 0)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
