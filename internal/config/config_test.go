package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConcurrent != 3 || cfg.TimeoutSeconds != 60 || cfg.Engine != "subprocess" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadYAMLOverrides(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
max_concurrent: 5
timeout_seconds: 120
engine: api
model: claude-sonnet-4-5-20250929
cache:
  analysis_ttl_minutes: 15
`)

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConcurrent != 5 {
		t.Errorf("max_concurrent = %d, want 5", cfg.MaxConcurrent)
	}
	if cfg.Engine != "api" {
		t.Errorf("engine = %q, want api", cfg.Engine)
	}
	if cfg.Cache.AnalysisTTLMinutes != 15 {
		t.Errorf("analysis_ttl_minutes = %d, want 15", cfg.Cache.AnalysisTTLMinutes)
	}
	// Unset fields keep their defaults.
	if cfg.MaxTurns != 10 {
		t.Errorf("max_turns = %d, want default 10", cfg.MaxTurns)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "max_concurrent: 5\n")
	t.Setenv("OVERSIGHT_MAX_CONCURRENT", "7")

	cfg, err := Load(root)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.MaxConcurrent != 7 {
		t.Errorf("env override ignored: max_concurrent = %d", cfg.MaxConcurrent)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "engine: carrier_pigeon\n")

	if _, err := Load(root); err == nil || !strings.Contains(err.Error(), "engine") {
		t.Errorf("expected engine validation error, got %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "max_concurrent: [not an int\n")

	if _, err := Load(root); err == nil {
		t.Error("expected parse error for malformed YAML")
	}
}

func TestLoadRejectsBadEnvInt(t *testing.T) {
	t.Setenv("OVERSIGHT_TIMEOUT_SECONDS", "soon")
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for non-numeric env value")
	}
}

func TestTimeoutConversion(t *testing.T) {
	cfg := Default()
	if got := time.Duration(cfg.TimeoutSeconds) * time.Second; got != 60*time.Second {
		t.Errorf("unexpected timeout: %v", got)
	}
}

func writeConfig(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, ConfigDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}
