// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for zvmconnector. It supports a
// four-layer override chain (defaults -> config file -> environment -> CLI
// flags). All keys are flat and live at the top level of the file.
package config

// Config is the top-level configuration structure parsed from a TOML file.
// The embedded sections only group related fields in Go; in the file every
// key is top-level.
type Config struct {
	ConnectionConfig
	AuthConfig
	NetworkConfig
	LoggingConfig
	DatabaseConfig
	MonitorConfig
}

// ConnectionConfig locates the cloud connector service.
type ConnectionConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	SSLEnabled         bool   `toml:"ssl_enabled"`
	CACert             string `toml:"ca_cert"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// AuthConfig controls where the admin credential lives and whether issued
// tokens may be reused across calls. Reuse is off by default: every call
// exchanges the credential for a fresh token.
type AuthConfig struct {
	TokenPath  string `toml:"token_path"`
	TokenReuse bool   `toml:"token_reuse"`
}

// NetworkConfig controls HTTP client behavior. A request_timeout of "0"
// means no overall deadline; callers bound calls with their context.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	RequestTimeout string `toml:"request_timeout"`
}

// LoggingConfig controls log output behavior: level, destination, format.
type LoggingConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	LogFormat string `toml:"log_format"`
}

// DatabaseConfig locates the local record database.
type DatabaseConfig struct {
	DatabasePath string `toml:"database_path"`
}

// MonitorConfig controls the metering cache.
type MonitorConfig struct {
	CacheInterval string `toml:"cache_interval"`
	CacheEnabled  bool   `toml:"cache_enabled"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath string  // --config flag (empty = use default)
	Host       *string // --host flag
	Port       *int    // --port flag
	TokenPath  *string // --token-path flag
	SSLEnabled *bool   // --ssl flag
}
