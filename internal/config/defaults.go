package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and match a connector service listening
// on its standard local port.
const (
	defaultHost           = "127.0.0.1"
	defaultPort           = 8888
	defaultConnectTimeout = "10s"
	defaultRequestTimeout = "0"
	defaultLogLevel       = "info"
	defaultLogFormat      = "auto"
	defaultCacheInterval  = "300s"
	tokenFileName         = "token.dat"
	databaseFileName      = "zvmconnector.db"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
// Paths default to the platform data directory.
func DefaultConfig() *Config {
	return &Config{
		ConnectionConfig: defaultConnectionConfig(),
		AuthConfig:       defaultAuthConfig(),
		NetworkConfig:    defaultNetworkConfig(),
		LoggingConfig:    defaultLoggingConfig(),
		DatabaseConfig:   defaultDatabaseConfig(),
		MonitorConfig:    defaultMonitorConfig(),
	}
}

func defaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		Host: defaultHost,
		Port: defaultPort,
	}
}

func defaultAuthConfig() AuthConfig {
	return AuthConfig{
		TokenPath: DefaultTokenPath(),
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		ConnectTimeout: defaultConnectTimeout,
		RequestTimeout: defaultRequestTimeout,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:  defaultLogLevel,
		LogFormat: defaultLogFormat,
	}
}

func defaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		DatabasePath: DefaultDatabasePath(),
	}
}

func defaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CacheInterval: defaultCacheInterval,
		CacheEnabled:  true,
	}
}
