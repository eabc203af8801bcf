package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.TokenPath = "/etc/zvmsdk/token.dat"
	cfg.DatabasePath = "/var/lib/zvmconnector/records.db"

	return cfg
}

func TestValidate_Defaults(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_Connection(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty host", func(c *Config) { c.Host = "" }, "host: must not be empty"},
		{"port zero", func(c *Config) { c.Port = 0 }, "port: must be between"},
		{"port too high", func(c *Config) { c.Port = 65536 }, "port: must be between"},
		{"ca without ssl", func(c *Config) { c.CACert = "/ca.pem" }, "ca_cert: requires ssl_enabled"},
		{"ca with insecure", func(c *Config) {
			c.SSLEnabled = true
			c.CACert = "/ca.pem"
			c.InsecureSkipVerify = true
		}, "insecure_skip_verify"},
		{"empty token path", func(c *Config) { c.TokenPath = "" }, "token_path: must not be empty"},
		{"bad connect timeout", func(c *Config) { c.ConnectTimeout = "soon" }, "connect_timeout: invalid duration"},
		{"short connect timeout", func(c *Config) { c.ConnectTimeout = "10ms" }, "connect_timeout: must be >="},
		{"negative request timeout", func(c *Config) { c.RequestTimeout = "-1s" }, "request_timeout: must be >= 0"},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"bad cache interval", func(c *Config) { c.CacheInterval = "300" }, "cache_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_SSLWithCA(t *testing.T) {
	cfg := validConfig()
	cfg.SSLEnabled = true
	cfg.CACert = "/etc/pki/ca.pem"

	assert.NoError(t, Validate(cfg))
}

func TestValidateResolved(t *testing.T) {
	assert.NoError(t, ValidateResolved(validConfig()))

	cfg := validConfig()
	cfg.TokenPath = "relative/token.dat"
	cfg.DatabasePath = "records.db"

	err := ValidateResolved(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_path")
	assert.Contains(t, err.Error(), "database_path")
}

func TestDurationAccessors_InvalidIsZero(t *testing.T) {
	n := NetworkConfig{ConnectTimeout: "bogus", RequestTimeout: "0"}
	assert.Zero(t, n.ConnectTimeoutDuration())
	assert.Zero(t, n.RequestTimeoutDuration())
}
