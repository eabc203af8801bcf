package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigDir_NonEmpty(t *testing.T) {
	dir := DefaultConfigDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, appName))
}

func TestDefaultDataDir_NonEmpty(t *testing.T) {
	dir := DefaultDataDir()
	assert.NotEmpty(t, dir)
	assert.True(t, strings.Contains(dir, appName))
}

func TestDefaultConfigPath_EndsWithConfigToml(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultConfigPath(), "config.toml"))
}

func TestDefaultDataFiles(t *testing.T) {
	assert.Equal(t, filepath.Join(DefaultDataDir(), tokenFileName), DefaultTokenPath())
	assert.Equal(t, filepath.Join(DefaultDataDir(), databaseFileName), DefaultDatabasePath())
}

func TestDefaultDirs_XDG(t *testing.T) {
	if runtime.GOOS != platformLinux {
		t.Skip("Linux-only test")
	}

	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")

	assert.Equal(t, "/xdg/config/zvmconnector", DefaultConfigDir())
	assert.Equal(t, "/xdg/data/zvmconnector", DefaultDataDir())
}

func TestDefaultDirs_XDGUnset(t *testing.T) {
	if runtime.GOOS != platformLinux {
		t.Skip("Linux-only test")
	}

	t.Setenv("HOME", "/home/testuser")
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")

	assert.Equal(t, "/home/testuser/.config/zvmconnector", DefaultConfigDir())
	assert.Equal(t, "/home/testuser/.local/share/zvmconnector", DefaultDataDir())
}

func TestDefaultConfigDir_MacOS(t *testing.T) {
	if runtime.GOOS != platformDarwin {
		t.Skip("macOS-only test")
	}

	assert.Contains(t, DefaultConfigDir(), "Library/Application Support")
}
