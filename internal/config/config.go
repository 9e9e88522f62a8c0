// Package config loads the judge configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"ringjudge/internal/interactor"
	"ringjudge/internal/logging"
	"ringjudge/internal/tactile"
)

// Config holds all ringjudge configuration.
type Config struct {
	// Judge timing and output
	Judge JudgeConfig `yaml:"judge"`

	// Candidate launch commands keyed by algorithm name
	Candidates map[string]tactile.Command `yaml:"candidates"`

	// Outcome ledger
	Store StoreConfig `yaml:"store"`

	// Metrics export
	Metrics MetricsConfig `yaml:"metrics"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// JudgeConfig bounds a session and its teardown. Durations are Go duration strings.
type JudgeConfig struct {
	CommandTimeout     string `yaml:"command_timeout"`
	ProcessTimeout     string `yaml:"process_timeout"`
	GracePeriod        string `yaml:"grace_period"`
	KillWait           string `yaml:"kill_wait"`
	JoinWait           string `yaml:"join_wait"`
	MaxDiagnosticBytes int64  `yaml:"max_diagnostic_bytes"`

	// OutputDir receives summaries, aggregates and failure dumps.
	OutputDir string `yaml:"output_dir"`
}

// StoreConfig configures the SQLite outcome ledger.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig configures the Prometheus textfile export. Empty disables it.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, text
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Judge: JudgeConfig{
			CommandTimeout:     "12s",
			ProcessTimeout:     "120s",
			GracePeriod:        "500ms",
			KillWait:           "2s",
			JoinWait:           "500ms",
			MaxDiagnosticBytes: 1 << 20,
			OutputDir:          "results",
		},

		Candidates: map[string]tactile.Command{
			"astar": {
				Binary:    "java",
				Arguments: []string{"-cp", "bin/astar", "Astar"},
			},
			"backtracking": {
				Binary:    "java",
				Arguments: []string{"-cp", "bin/backtracking", "Backtracking"},
			},
		},

		Store: StoreConfig{
			Enabled: true,
			Path:    ".ringjudge/runs.db",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RINGJUDGE_COMMAND_TIMEOUT"); v != "" {
		c.Judge.CommandTimeout = v
	}
	if v := os.Getenv("RINGJUDGE_PROCESS_TIMEOUT"); v != "" {
		c.Judge.ProcessTimeout = v
	}

	if path := os.Getenv("RINGJUDGE_DB"); path != "" {
		c.Store.Path = path
	}

	// Point every java candidate at a specific JVM
	if java := os.Getenv("RINGJUDGE_JAVA"); java != "" {
		for name, cmd := range c.Candidates {
			if cmd.Binary == "java" {
				cmd.Binary = java
				c.Candidates[name] = cmd
			}
		}
	}
}

// Validate checks that durations parse and every candidate names a binary.
func (c *Config) Validate() error {
	for key, value := range map[string]string{
		"judge.command_timeout": c.Judge.CommandTimeout,
		"judge.process_timeout": c.Judge.ProcessTimeout,
		"judge.grace_period":    c.Judge.GracePeriod,
		"judge.kill_wait":       c.Judge.KillWait,
		"judge.join_wait":       c.Judge.JoinWait,
	} {
		if value == "" {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			return fmt.Errorf("invalid %s: %q", key, value)
		}
	}
	for name, cmd := range c.Candidates {
		if cmd.Binary == "" {
			return fmt.Errorf("candidate %q has no binary", name)
		}
	}
	return nil
}

// GetCommandTimeout returns the per-command wait as a duration.
func (c *Config) GetCommandTimeout() time.Duration {
	return parseDuration(c.Judge.CommandTimeout, 12*time.Second)
}

// GetProcessTimeout returns the wall-clock session budget as a duration.
func (c *Config) GetProcessTimeout() time.Duration {
	return parseDuration(c.Judge.ProcessTimeout, 120*time.Second)
}

// Session returns the interactor timing derived from the judge section.
func (c *Config) Session() interactor.Config {
	return interactor.Config{
		CommandTimeout: c.GetCommandTimeout(),
		ProcessTimeout: c.GetProcessTimeout(),
	}
}

// Teardown returns the process shutdown bounds. Unset values fall back to
// tactile.DefaultTeardown.
func (c *Config) Teardown() tactile.Teardown {
	d := tactile.DefaultTeardown()
	return tactile.Teardown{
		GracePeriod:        parseDuration(c.Judge.GracePeriod, d.GracePeriod),
		KillWait:           parseDuration(c.Judge.KillWait, d.KillWait),
		JoinWait:           parseDuration(c.Judge.JoinWait, d.JoinWait),
		MaxDiagnosticBytes: c.Judge.MaxDiagnosticBytes,
		QueueSize:          d.QueueSize,
	}
}

// Candidate returns the launch command for algo.
func (c *Config) Candidate(algo string) (tactile.Command, error) {
	cmd, ok := c.Candidates[algo]
	if !ok {
		return tactile.Command{}, fmt.Errorf("unknown candidate %q (configured: %v)", algo, c.CandidateNames())
	}
	return cmd, nil
}

// CandidateNames lists configured algorithms in sorted order.
func (c *Config) CandidateNames() []string {
	names := make([]string, 0, len(c.Candidates))
	for name := range c.Candidates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoggingSettings converts the logging section for logging.Initialize.
func (c *Config) LoggingSettings() logging.Settings {
	return logging.Settings{
		DebugMode:  c.Logging.DebugMode,
		Categories: c.Logging.Categories,
		Level:      c.Logging.Level,
		JSONFormat: c.Logging.Format == "json",
	}
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
