// Package projectconfig provides the ProjectConfig struct and loader for
// .brandpulse.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file looked up from the working
// directory upward.
const ConfigFileName = ".brandpulse.yaml"

// Default values for project configuration. These are the single source of
// truth — New() references them and no other code should duplicate them.
const (
	DefaultStudiesDir   = "studies/"
	DefaultResultsDir   = "results/"
	DefaultDatabaseFile = "brandpulse.db"

	DefaultEngine     = "openai"
	DefaultModel      = "gpt-4o-mini"
	DefaultTimeout    = 120
	DefaultWorkers    = 4
	DefaultIterations = 10

	DefaultServerPort = 3000
)

// PathsConfig holds directory paths for study files and exported results.
type PathsConfig struct {
	Studies  string `yaml:"studies,omitempty"`
	Results  string `yaml:"results,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// DefaultsConfig holds default collection parameters.
type DefaultsConfig struct {
	Engine     string   `yaml:"engine,omitempty"`
	Models     []string `yaml:"models,omitempty"`
	BaseURL    string   `yaml:"base_url,omitempty"`
	Timeout    int      `yaml:"timeout,omitempty"`
	Workers    int      `yaml:"workers,omitempty"`
	Iterations int      `yaml:"iterations,omitempty"`
	Verbose    *bool    `yaml:"verbose,omitempty"`
}

// ServerConfig holds API server settings.
type ServerConfig struct {
	Port int    `yaml:"port,omitempty"`
	Host string `yaml:"host,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .brandpulse.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Studies:  DefaultStudiesDir,
			Results:  DefaultResultsDir,
			Database: DefaultDatabaseFile,
		},
		Defaults: DefaultsConfig{
			Engine:     DefaultEngine,
			Models:     []string{DefaultModel},
			Timeout:    DefaultTimeout,
			Workers:    DefaultWorkers,
			Iterations: DefaultIterations,
			Verbose:    boolPtr(false),
		},
		Server: ServerConfig{
			Port: DefaultServerPort,
		},
	}
}

// Load finds .brandpulse.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil // no file found → return defaults
		}
		return nil, fmt.Errorf("loading %s: %w", ConfigFileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ConfigFileName, err)
	}

	// Merge file values onto defaults.
	mergeConfig(cfg, &fileCfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .brandpulse.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found. Propagates real
// I/O errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	// Convert to absolute path so filepath.Dir(".") walks correctly.
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ConfigFileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Studies != "" {
		dst.Paths.Studies = src.Paths.Studies
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.Database != "" {
		dst.Paths.Database = src.Paths.Database
	}

	// Defaults
	if src.Defaults.Engine != "" {
		dst.Defaults.Engine = src.Defaults.Engine
	}
	if len(src.Defaults.Models) > 0 {
		dst.Defaults.Models = src.Defaults.Models
	}
	if src.Defaults.BaseURL != "" {
		dst.Defaults.BaseURL = src.Defaults.BaseURL
	}
	if src.Defaults.Timeout != 0 {
		dst.Defaults.Timeout = src.Defaults.Timeout
	}
	if src.Defaults.Workers != 0 {
		dst.Defaults.Workers = src.Defaults.Workers
	}
	if src.Defaults.Iterations != 0 {
		dst.Defaults.Iterations = src.Defaults.Iterations
	}
	if src.Defaults.Verbose != nil {
		dst.Defaults.Verbose = src.Defaults.Verbose
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.Host != "" {
		dst.Server.Host = src.Server.Host
	}
}

func boolPtr(b bool) *bool {
	return &b
}
