package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StdStream is the Input and Output value naming stdin and stdout.
const StdStream = "-"

// Config holds CLI configuration for batchby.
type Config struct {
	Key string

	Input        string
	Output       string
	Follow       bool
	PollInterval time.Duration

	SinkURL     string
	AuthKey     string
	HTTPTimeout time.Duration
	MaxRetries  int

	StateDir string
	Resume   bool

	SkipEmpty bool
	Pretty    bool

	LogLevel    string
	MetricsAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Input:        StdStream,
		Output:       "", // stdout unless a sink URL is set, see Validate
		PollInterval: 500 * time.Millisecond,
		HTTPTimeout:  15 * time.Second,
		MaxRetries:   3,
		StateDir:     "", // Derived from Input during Validate
		LogLevel:     "info",
		AuthKey:      os.Getenv("BATCHBY_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Key == "" {
		return fmt.Errorf("key is required")
	}

	if c.Input == "" {
		c.Input = StdStream
	}
	if c.Output == "" && c.SinkURL == "" {
		c.Output = StdStream
	}

	if c.Follow && c.Input == StdStream {
		return fmt.Errorf("follow requires an input file")
	}
	if c.Resume && c.Input == StdStream {
		return fmt.Errorf("resume requires an input file")
	}

	if c.StateDir == "" && c.Input != StdStream {
		c.StateDir = filepath.Dir(c.Input)
	}

	// Ensure no trailing slash
	c.SinkURL = strings.TrimRight(c.SinkURL, "/")

	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

// Level returns the parsed LogLevel. An empty LogLevel means info.
func (c Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value from a pointer if not nil and flag not changed.
// Zero is a meaningful value, so absence is signalled by nil.
func (s *configSetter) setInt(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
