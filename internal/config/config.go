// Package config provides unified configuration loading for gardenseer.
// Settings come from a YAML file with defaults for everything, so a
// missing file is not an error. The data directory is always an explicit
// configuration value; nothing is derived from ambient environment
// variables except ${VAR} references the file itself asks for.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config contains all gardenseer configuration settings.
type Config struct {
	// Logging contains settings for operational and run-trace logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`

	// Simulation contains default simulation parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Storage contains persistence settings.
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`

	// TraceRuns enables the JSONL run-trace log in the data directory.
	TraceRuns bool `json:"trace_runs" yaml:"trace_runs"`
}

// SimulationConfig holds the defaults applied when a simulation request
// leaves a parameter unset.
type SimulationConfig struct {
	// MonteCarloRuns is the default run count per branch.
	MonteCarloRuns int `json:"monte_carlo_runs" yaml:"monte_carlo_runs"`

	// TimeHorizon is the default simulated duration.
	TimeHorizon Duration `json:"time_horizon" yaml:"time_horizon"`

	// Seed is the default base seed; 0 means derive one from the clock.
	Seed int64 `json:"seed" yaml:"seed"`

	// Budget is the default wall-clock budget per simulation call;
	// 0 disables the budget.
	Budget Duration `json:"budget" yaml:"budget"`
}

// StorageConfig configures where artifacts and the timeline live.
type StorageConfig struct {
	// DataDir overrides the default <root>/.gardenseer data directory.
	// Supports ${VAR} syntax for env vars.
	DataDir string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Logging: LoggingConfig{
			Level:     "info",
			TraceRuns: true,
		},
		Simulation: SimulationConfig{
			MonteCarloRuns: 10,
			TimeHorizon:    Duration(time.Hour),
		},
	}
}

// Load reads configuration from the given YAML file, applying defaults for
// everything the file omits. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Storage.DataDir = expandEnv(cfg.Storage.DataDir)
	return cfg, nil
}

// expandEnv expands ${VAR} references; values without references pass
// through untouched.
func expandEnv(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.ExpandEnv(s)
}
