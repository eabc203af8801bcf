package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig    = "ZVMCONNECTOR_CONFIG"
	EnvHost      = "ZVMCONNECTOR_HOST"
	EnvTokenPath = "ZVMCONNECTOR_TOKEN_PATH"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath string // ZVMCONNECTOR_CONFIG: override config file path
	Host       string // ZVMCONNECTOR_HOST: service host
	TokenPath  string // ZVMCONNECTOR_TOKEN_PATH: admin credential file
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; Resolve applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		Host:       os.Getenv(EnvHost),
		TokenPath:  os.Getenv(EnvTokenPath),
	}
}
