package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	// Paths
	assertEqual(t, "Paths.Studies", "studies/", cfg.Paths.Studies)
	assertEqual(t, "Paths.Results", "results/", cfg.Paths.Results)
	assertEqual(t, "Paths.Database", "brandpulse.db", cfg.Paths.Database)

	// Defaults
	assertEqual(t, "Defaults.Engine", "openai", cfg.Defaults.Engine)
	if len(cfg.Defaults.Models) != 1 || cfg.Defaults.Models[0] != "gpt-4o-mini" {
		t.Errorf("Defaults.Models = %v, want [gpt-4o-mini]", cfg.Defaults.Models)
	}
	assertEqual(t, "Defaults.BaseURL", "", cfg.Defaults.BaseURL)
	assertEqualInt(t, "Defaults.Timeout", 120, cfg.Defaults.Timeout)
	assertEqualInt(t, "Defaults.Workers", 4, cfg.Defaults.Workers)
	assertEqualInt(t, "Defaults.Iterations", 10, cfg.Defaults.Iterations)
	assertBoolPtr(t, "Defaults.Verbose", false, cfg.Defaults.Verbose)

	// Server
	assertEqualInt(t, "Server.Port", 3000, cfg.Server.Port)
	assertEqual(t, "Server.Host", "", cfg.Server.Host)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".brandpulse.yaml", `
paths:
  studies: "custom-studies/"
  results: "custom-results/"
  database: "custom.db"
defaults:
  engine: mock
  models: [gpt-4o, gpt-4o-mini]
  base_url: "http://localhost:11434/v1"
  timeout: 600
  workers: 8
  iterations: 25
  verbose: true
server:
  port: 8080
  host: "0.0.0.0"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Paths.Studies", "custom-studies/", cfg.Paths.Studies)
	assertEqual(t, "Paths.Results", "custom-results/", cfg.Paths.Results)
	assertEqual(t, "Paths.Database", "custom.db", cfg.Paths.Database)
	assertEqual(t, "Defaults.Engine", "mock", cfg.Defaults.Engine)
	if len(cfg.Defaults.Models) != 2 {
		t.Errorf("Defaults.Models = %v, want two entries", cfg.Defaults.Models)
	}
	assertEqual(t, "Defaults.BaseURL", "http://localhost:11434/v1", cfg.Defaults.BaseURL)
	assertEqualInt(t, "Defaults.Timeout", 600, cfg.Defaults.Timeout)
	assertEqualInt(t, "Defaults.Workers", 8, cfg.Defaults.Workers)
	assertEqualInt(t, "Defaults.Iterations", 25, cfg.Defaults.Iterations)
	assertBoolPtr(t, "Defaults.Verbose", true, cfg.Defaults.Verbose)
	assertEqualInt(t, "Server.Port", 8080, cfg.Server.Port)
	assertEqual(t, "Server.Host", "0.0.0.0", cfg.Server.Host)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".brandpulse.yaml", `
defaults:
  engine: mock
  models: [gpt-4o-mini]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Overridden
	assertEqual(t, "Defaults.Engine", "mock", cfg.Defaults.Engine)

	// Defaults preserved
	assertEqual(t, "Paths.Studies", "studies/", cfg.Paths.Studies)
	assertEqualInt(t, "Defaults.Timeout", 120, cfg.Defaults.Timeout)
	assertEqualInt(t, "Defaults.Iterations", 10, cfg.Defaults.Iterations)
	assertEqualInt(t, "Server.Port", 3000, cfg.Server.Port)
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Should be identical to New()
	defaults := New()
	assertEqual(t, "Defaults.Engine", defaults.Defaults.Engine, cfg.Defaults.Engine)
	assertEqualInt(t, "Defaults.Timeout", defaults.Defaults.Timeout, cfg.Defaults.Timeout)
	assertEqualInt(t, "Server.Port", defaults.Server.Port, cfg.Server.Port)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".brandpulse.yaml", `
defaults:
  engine: [not valid yaml
    this is broken
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should return error for invalid YAML")
	}
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".brandpulse.yaml", `
defaults:
  engine: found-it
`)

	child := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(child)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Defaults.Engine", "found-it", cfg.Defaults.Engine)
	// Other defaults still populated
	assertEqualInt(t, "Defaults.Workers", 4, cfg.Defaults.Workers)
}

func TestBoolPointerFields(t *testing.T) {
	t.Run("defaults preserved when not set in YAML", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".brandpulse.yaml", `
defaults:
  engine: mock
`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		// Verbose not in file → default (false) preserved by merge
		assertBoolPtr(t, "Defaults.Verbose", false, cfg.Defaults.Verbose)
	})

	t.Run("explicitly false", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".brandpulse.yaml", `
defaults:
  verbose: false
`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Defaults.Verbose", false, cfg.Defaults.Verbose)
	})

	t.Run("explicitly true", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, ".brandpulse.yaml", `
defaults:
  verbose: true
`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Defaults.Verbose", true, cfg.Defaults.Verbose)
	})
}

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertBoolPtr(t *testing.T, field string, want bool, got *bool) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want *%v", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", field, *got, want)
	}
}
