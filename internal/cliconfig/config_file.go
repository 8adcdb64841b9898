package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Key          string `toml:"key"`
	Input        string `toml:"input"`
	Output       string `toml:"output"`
	Follow       *bool  `toml:"follow"`
	PollInterval string `toml:"poll_interval"`
	SinkURL      string `toml:"sink_url"`
	AuthKey      string `toml:"auth_key"`
	HTTPTimeout  string `toml:"http_timeout"`
	MaxRetries   *int   `toml:"max_retries"`
	StateDir     string `toml:"state_dir"`
	Resume       *bool  `toml:"resume"`
	SkipEmpty    *bool  `toml:"skip_empty"`
	Pretty       *bool  `toml:"pretty"`
	LogLevel     string `toml:"log_level"`
	MetricsAddr  string `toml:"metrics_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.batchby/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".batchby", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("key", fc.Key, &cfg.Key)
	s.setString("input", fc.Input, &cfg.Input)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("sink-url", fc.SinkURL, &cfg.SinkURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	s.setBool("follow", fc.Follow, &cfg.Follow)
	s.setBool("resume", fc.Resume, &cfg.Resume)
	s.setBool("skip-empty", fc.SkipEmpty, &cfg.SkipEmpty)
	s.setBool("pretty", fc.Pretty, &cfg.Pretty)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
