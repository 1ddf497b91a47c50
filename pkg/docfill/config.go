package docfill

import (
	"errors"
	"os"
	"strings"
)

// Config contains all configuration options for the docfill engine
type Config struct {
	// OpenDelimiter starts a placeholder. Defaults to "[".
	OpenDelimiter string
	// CloseDelimiter ends a placeholder. Defaults to "]".
	CloseDelimiter string
	// LineBreaks renders newlines in values as Word line breaks
	LineBreaks bool
	// LogLevel controls the verbosity of logging (debug, info, warn, error, off)
	LogLevel string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		OpenDelimiter:  "[",
		CloseDelimiter: "]",
		LineBreaks:     true,
		LogLevel:       "info",
	}
}

// ConfigFromEnvironment creates a configuration from environment variables
func ConfigFromEnvironment() *Config {
	config := DefaultConfig()

	// DOCFILL_OPEN_DELIMITER
	if val := os.Getenv("DOCFILL_OPEN_DELIMITER"); val != "" {
		config.OpenDelimiter = val
	}

	// DOCFILL_CLOSE_DELIMITER
	if val := os.Getenv("DOCFILL_CLOSE_DELIMITER"); val != "" {
		config.CloseDelimiter = val
	}

	// DOCFILL_LINE_BREAKS
	if val := os.Getenv("DOCFILL_LINE_BREAKS"); val != "" {
		config.LineBreaks = parseBool(val)
	}

	// DOCFILL_LOG_LEVEL
	if val := os.Getenv("DOCFILL_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// NewConfigWithDefaults creates a new configuration with defaults applied to unset fields
func NewConfigWithDefaults(overrides *Config) *Config {
	defaults := DefaultConfig()

	if overrides == nil {
		return defaults
	}

	config := *overrides

	if config.OpenDelimiter == "" {
		config.OpenDelimiter = defaults.OpenDelimiter
	}

	if config.CloseDelimiter == "" {
		config.CloseDelimiter = defaults.CloseDelimiter
	}

	if config.LogLevel == "" {
		config.LogLevel = defaults.LogLevel
	}

	return &config
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.OpenDelimiter == "" || c.CloseDelimiter == "" {
		return errors.New("delimiters cannot be empty")
	}

	if c.OpenDelimiter == c.CloseDelimiter {
		return errors.New("open and close delimiters must differ")
	}

	for _, d := range []string{c.OpenDelimiter, c.CloseDelimiter} {
		if strings.ContainsAny(d, "<>&\"'\r\n") {
			return errors.New("invalid delimiter: " + d)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"off":   true,
	}

	if !validLogLevels[c.LogLevel] {
		return errors.New("invalid log level: " + c.LogLevel)
	}

	return nil
}

// parseBool parses a boolean value from a string
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes" || s == "on"
}
