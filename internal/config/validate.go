package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Validation range constants.
const (
	minPort           = 1
	maxPort           = 65535
	minConnectTimeout = 1 * time.Second
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateConnection(&cfg.ConnectionConfig)...)
	errs = append(errs, validateAuth(&cfg.AuthConfig)...)
	errs = append(errs, validateNetwork(&cfg.NetworkConfig)...)
	errs = append(errs, validateLogging(&cfg.LoggingConfig)...)
	errs = append(errs, validateMonitor(&cfg.MonitorConfig)...)

	return errors.Join(errs...)
}

// ValidateResolved checks constraints that only make sense after the
// override chain has been applied and paths have been expanded.
func ValidateResolved(cfg *Config) error {
	var errs []error

	if cfg.TokenPath != "" && !filepath.IsAbs(cfg.TokenPath) {
		errs = append(errs, fmt.Errorf("token_path: must be absolute after expansion, got %q", cfg.TokenPath))
	}

	if cfg.DatabasePath != "" && !filepath.IsAbs(cfg.DatabasePath) {
		errs = append(errs, fmt.Errorf("database_path: must be absolute after expansion, got %q", cfg.DatabasePath))
	}

	return errors.Join(errs...)
}

func validateConnection(c *ConnectionConfig) []error {
	var errs []error

	if c.Host == "" {
		errs = append(errs, errors.New("host: must not be empty"))
	}

	if c.Port < minPort || c.Port > maxPort {
		errs = append(errs, fmt.Errorf("port: must be between %d and %d, got %d", minPort, maxPort, c.Port))
	}

	if !c.SSLEnabled && c.CACert != "" {
		errs = append(errs, errors.New("ca_cert: requires ssl_enabled = true"))
	}

	if c.CACert != "" && c.InsecureSkipVerify {
		errs = append(errs, errors.New("insecure_skip_verify: cannot be combined with ca_cert"))
	}

	return errs
}

func validateAuth(a *AuthConfig) []error {
	if a.TokenPath == "" {
		return []error{errors.New("token_path: must not be empty")}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationNonNeg("request_timeout", n.RequestTimeout)...)

	return errs
}

func validateMonitor(m *MonitorConfig) []error {
	return validateDurationNonNeg("cache_interval", m.CacheInterval)
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < minimum {
		return []error{fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)}
	}

	return nil
}

func validateDurationNonNeg(field, value string) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < 0 {
		return []error{fmt.Errorf("%s: must be >= 0, got %s", field, d)}
	}

	return nil
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("log_format: must be one of auto, text, json; got %q", l.LogFormat))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

// mustDuration parses a duration that Validate has already accepted.
func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}

	return d
}

// ConnectTimeoutDuration returns the parsed connect timeout.
func (n NetworkConfig) ConnectTimeoutDuration() time.Duration {
	return mustDuration(n.ConnectTimeout)
}

// RequestTimeoutDuration returns the parsed overall request timeout; zero
// means none.
func (n NetworkConfig) RequestTimeoutDuration() time.Duration {
	return mustDuration(n.RequestTimeout)
}

// CacheIntervalDuration returns the parsed metering cache lifetime.
func (m MonitorConfig) CacheIntervalDuration() time.Duration {
	return mustDuration(m.CacheInterval)
}
