package cliconfig

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnvFile loads BATCHBY_* variables from a .env file into the process
// environment. Variables already set in the environment are kept.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (BATCHBY_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("key", os.Getenv("BATCHBY_KEY"), &cfg.Key)
	s.setString("input", os.Getenv("BATCHBY_INPUT"), &cfg.Input)
	s.setString("output", os.Getenv("BATCHBY_OUTPUT"), &cfg.Output)
	s.setString("sink-url", os.Getenv("BATCHBY_SINK_URL"), &cfg.SinkURL)
	s.setString("auth-key", os.Getenv("BATCHBY_AUTH_KEY"), &cfg.AuthKey)
	s.setString("state-dir", os.Getenv("BATCHBY_STATE_DIR"), &cfg.StateDir)
	s.setString("log-level", os.Getenv("BATCHBY_LOG_LEVEL"), &cfg.LogLevel)
	s.setString("metrics-addr", os.Getenv("BATCHBY_METRICS_ADDR"), &cfg.MetricsAddr)

	if err := s.setDuration("poll", os.Getenv("BATCHBY_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("BATCHBY_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-retries", os.Getenv("BATCHBY_MAX_RETRIES"), &cfg.MaxRetries); err != nil {
		return err
	}

	s.setBoolFromString("follow", os.Getenv("BATCHBY_FOLLOW"), &cfg.Follow)
	s.setBoolFromString("resume", os.Getenv("BATCHBY_RESUME"), &cfg.Resume)
	s.setBoolFromString("skip-empty", os.Getenv("BATCHBY_SKIP_EMPTY"), &cfg.SkipEmpty)
	s.setBoolFromString("pretty", os.Getenv("BATCHBY_PRETTY"), &cfg.Pretty)

	return nil
}
