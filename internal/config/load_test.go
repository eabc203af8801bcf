package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

// isolateEnv points every override variable at nothing and the platform
// directories at a temp home, so tests never see the developer's files.
func isolateEnv(t *testing.T) string {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv(EnvConfig, "")
	t.Setenv(EnvHost, "")
	t.Setenv(EnvTokenPath, "")

	return home
}

func TestLoad_ValidFullConfig(t *testing.T) {
	path := writeTestConfig(t, `
host = "zvm.example.com"
port = 443
ssl_enabled = true
ca_cert = "/etc/pki/zvm-ca.pem"

token_path = "/etc/zvmsdk/token.dat"
token_reuse = true

connect_timeout = "5s"
request_timeout = "2m"

log_level = "debug"
log_file = "/var/log/zvmconnector.log"
log_format = "json"

database_path = "/var/lib/zvmconnector/records.db"
cache_interval = "60s"
cache_enabled = false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "zvm.example.com", cfg.Host)
	assert.Equal(t, 443, cfg.Port)
	assert.True(t, cfg.SSLEnabled)
	assert.Equal(t, "/etc/pki/zvm-ca.pem", cfg.CACert)
	assert.Equal(t, "/etc/zvmsdk/token.dat", cfg.TokenPath)
	assert.True(t, cfg.TokenReuse)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeoutDuration())
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeoutDuration())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/var/lib/zvmconnector/records.db", cfg.DatabasePath)
	assert.Equal(t, time.Minute, cfg.CacheIntervalDuration())
	assert.False(t, cfg.CacheEnabled)
}

func TestLoad_PartialConfigKeepsDefaults(t *testing.T) {
	isolateEnv(t)

	path := writeTestConfig(t, `host = "10.0.0.5"`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, defaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultTokenPath(), cfg.TokenPath)
	assert.True(t, cfg.CacheEnabled)
	assert.Zero(t, cfg.RequestTimeoutDuration())
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTestConfig(t, `host = `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_ValidationErrorsAccumulate(t *testing.T) {
	path := writeTestConfig(t, `
port = 0
log_level = "verbose"
cache_interval = "-1s"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "cache_interval")
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	isolateEnv(t)

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestResolvePath_Precedence(t *testing.T) {
	isolateEnv(t)

	assert.Equal(t, DefaultConfigPath(), ResolvePath(EnvOverrides{}, CLIOverrides{}))
	assert.Equal(t, "/env.toml", ResolvePath(EnvOverrides{ConfigPath: "/env.toml"}, CLIOverrides{}))
	assert.Equal(t, "/cli.toml",
		ResolvePath(EnvOverrides{ConfigPath: "/env.toml"}, CLIOverrides{ConfigPath: "/cli.toml"}))
}

func TestResolve_FourLayers(t *testing.T) {
	isolateEnv(t)

	path := writeTestConfig(t, `
host = "file-host"
port = 9000
token_path = "/file/token.dat"
`)

	// File only.
	cfg, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "file-host", cfg.Host)
	assert.Equal(t, 9000, cfg.Port)

	// Env beats file.
	env := EnvOverrides{Host: "env-host", TokenPath: "/env/token.dat"}
	cfg, err = Resolve(env, CLIOverrides{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "env-host", cfg.Host)
	assert.Equal(t, "/env/token.dat", cfg.TokenPath)

	// CLI beats env.
	host, port, ssl := "cli-host", 443, true
	cfg, err = Resolve(env, CLIOverrides{ConfigPath: path, Host: &host, Port: &port, SSLEnabled: &ssl})
	require.NoError(t, err)
	assert.Equal(t, "cli-host", cfg.Host)
	assert.Equal(t, 443, cfg.Port)
	assert.True(t, cfg.SSLEnabled)
	assert.Equal(t, "/env/token.dat", cfg.TokenPath)
}

func TestResolve_ExpandsTilde(t *testing.T) {
	home := isolateEnv(t)

	path := writeTestConfig(t, `
token_path = "~/zvm/token.dat"
database_path = "~/zvm/records.db"
`)

	cfg, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: path})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "zvm", "token.dat"), cfg.TokenPath)
	assert.Equal(t, filepath.Join(home, "zvm", "records.db"), cfg.DatabasePath)
}

func TestResolve_RelativeTokenPathRejected(t *testing.T) {
	isolateEnv(t)

	rel := "token.dat"

	_, err := Resolve(EnvOverrides{}, CLIOverrides{
		ConfigPath: filepath.Join(t.TempDir(), "absent.toml"),
		TokenPath:  &rel,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_path")
}

func TestResolve_InvalidCLIOverride(t *testing.T) {
	isolateEnv(t)

	port := 70000

	_, err := Resolve(EnvOverrides{}, CLIOverrides{ConfigPath: filepath.Join(t.TempDir(), "absent.toml"), Port: &port})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestReadEnvOverrides(t *testing.T) {
	t.Setenv(EnvConfig, "/custom/config.toml")
	t.Setenv(EnvHost, "zvm01")
	t.Setenv(EnvTokenPath, "")

	overrides := ReadEnvOverrides()
	assert.Equal(t, "/custom/config.toml", overrides.ConfigPath)
	assert.Equal(t, "zvm01", overrides.Host)
	assert.Empty(t, overrides.TokenPath)
}

func TestExpandTilde(t *testing.T) {
	home := isolateEnv(t)

	assert.Equal(t, home, expandTilde("~"))
	assert.Equal(t, filepath.Join(home, "a"), expandTilde("~/a"))
	assert.Equal(t, "/abs/~/a", expandTilde("/abs/~/a"))
	assert.Equal(t, "~user/a", expandTilde("~user/a"))
	assert.Equal(t, "", expandTilde(""))
}
