// Package config loads nsnetsim's runtime configuration: logging setup and
// the daemon runtime defaults (runtime directory, readiness polling,
// graceful-kill grace period, daemon binaries). Topology definitions
// themselves are supplied programmatically through the topo builder API,
// not through this file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete nsnetsim process configuration.
type Config struct {
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Daemons DaemonsConfig `yaml:"daemons" json:"daemons"`
}

// LoggingConfig controls the package-level logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// DaemonsConfig controls how routing daemon supervisors materialise
// runtime directories and decide a daemon is ready or hung (spec §4.6).
type DaemonsConfig struct {
	RuntimeBaseDir        string        `yaml:"runtime_base_dir" json:"runtime_base_dir"`
	ReadinessTimeout      time.Duration `yaml:"readiness_timeout" json:"readiness_timeout"`
	ReadinessPollInterval time.Duration `yaml:"readiness_poll_interval" json:"readiness_poll_interval"`
	GracefulKillGrace     time.Duration `yaml:"graceful_kill_grace" json:"graceful_kill_grace"`
	BirdBinary            string        `yaml:"bird_binary" json:"bird_binary"`
	ExaBGPBinary          string        `yaml:"exabgp_binary" json:"exabgp_binary"`
}

// DefaultConfig provides the built-in defaults, overridden by a config
// file and then by environment variables in LoadConfig.
var DefaultConfig = Config{
	Logging: LoggingConfig{
		Level:  "INFO",
		Format: "text",
		Output: "stdout",
	},
	Daemons: DaemonsConfig{
		RuntimeBaseDir:        "/run/nsnetsim",
		ReadinessTimeout:      10 * time.Second,
		ReadinessPollInterval: 100 * time.Millisecond,
		GracefulKillGrace:     5 * time.Second,
		BirdBinary:            "bird",
		ExaBGPBinary:          "exabgp",
	},
}

// LoadConfig loads configuration from the first YAML file found among the
// well-known locations (see loadFromFile), applies NSNETSIM_* environment
// overrides, validates the result, and returns it together with the path
// the file came from (or "built-in defaults" if none was found).
func LoadConfig() (*Config, string, error) {
	cfg := DefaultConfig

	path, err := loadFromFile(&cfg)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	if val := os.Getenv("NSNETSIM_LOG_LEVEL"); val != "" {
		cfg.Logging.Level = val
	}
	if val := os.Getenv("NSNETSIM_LOG_FORMAT"); val != "" {
		cfg.Logging.Format = val
	}
	if val := os.Getenv("NSNETSIM_RUNTIME_DIR"); val != "" {
		cfg.Daemons.RuntimeBaseDir = val
	}
	if val := os.Getenv("NSNETSIM_BIRD_BINARY"); val != "" {
		cfg.Daemons.BirdBinary = val
	}
	if val := os.Getenv("NSNETSIM_EXABGP_BINARY"); val != "" {
		cfg.Daemons.ExaBGPBinary = val
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, path, nil
}

// loadFromFile searches common configuration locations for the first
// existing YAML file and unmarshals it over cfg. Returns
// "built-in defaults (no config file found)" if none exists; a missing
// file is not an error, a malformed one is.
func loadFromFile(cfg *Config) (string, error) {
	paths := []string{
		os.Getenv("NSNETSIM_CONFIG_PATH"),
		"./nsnetsim.yml",
		"./config/nsnetsim.yml",
		"/etc/nsnetsim/nsnetsim.yml",
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

// Validate checks that the configuration is internally consistent:
// a known log level, an absolute runtime directory, and positive
// timing values.
func (c *Config) Validate() error {
	if _, err := normalizeLevel(c.Logging.Level); err != nil {
		return err
	}

	if !filepath.IsAbs(c.Daemons.RuntimeBaseDir) {
		return fmt.Errorf("daemons.runtime_base_dir must be an absolute path: %s", c.Daemons.RuntimeBaseDir)
	}
	if c.Daemons.ReadinessTimeout <= 0 {
		return fmt.Errorf("daemons.readiness_timeout must be positive")
	}
	if c.Daemons.ReadinessPollInterval <= 0 {
		return fmt.Errorf("daemons.readiness_poll_interval must be positive")
	}
	if c.Daemons.ReadinessPollInterval > c.Daemons.ReadinessTimeout {
		return fmt.Errorf("daemons.readiness_poll_interval must not exceed readiness_timeout")
	}
	if c.Daemons.GracefulKillGrace <= 0 {
		return fmt.Errorf("daemons.graceful_kill_grace must be positive")
	}
	if c.Daemons.BirdBinary == "" {
		return fmt.Errorf("daemons.bird_binary must not be empty")
	}
	if c.Daemons.ExaBGPBinary == "" {
		return fmt.Errorf("daemons.exabgp_binary must not be empty")
	}

	return nil
}

func normalizeLevel(level string) (string, error) {
	switch level {
	case "DEBUG", "INFO", "WARN", "ERROR",
		"debug", "info", "warn", "error":
		return level, nil
	default:
		return "", fmt.Errorf("invalid log level: %s", level)
	}
}

// RuntimeDir returns the per-node runtime directory a daemon supervisor
// should materialise for nodeName (spec §4.6): <runtime_base_dir>/<node>.
// Defined on DaemonsConfig (not Config) since internal/daemon's Factory
// and Supervisor carry a DaemonsConfig value, not the whole Config.
func (d DaemonsConfig) RuntimeDir(nodeName string) string {
	return filepath.Join(d.RuntimeBaseDir, nodeName)
}
