package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// configFilePermissions is the standard permission mode for config files.
const configFilePermissions = 0o644

// configDirPermissions is the standard permission mode for config directories.
const configDirPermissions = 0o755

// ErrConfigExists is returned by CreateDefault when the target already exists.
var ErrConfigExists = errors.New("config: file already exists")

// configTemplate is the config file written by "config init". Every setting
// is present as a commented-out default so users can discover options
// without reading docs.
const configTemplate = `# zvmconnector configuration

# ── Connection ──
# host = "127.0.0.1"
# port = 8888
# ssl_enabled = false
# ca_cert = ""
# insecure_skip_verify = false

# ── Authentication ──
# Admin credential file, exchanged for a short-lived token on every call.
# token_path = ""
# Reuse an issued token until shortly before it expires.
# token_reuse = false

# ── Network ──
# connect_timeout = "10s"
# request_timeout = "0"

# ── Logging ──
# Verbosity: debug, info, warn, error
# log_level = "info"
# log_file = ""
# Format: auto, text, json
# log_format = "auto"

# ── Records and metering ──
# database_path = ""
# cache_interval = "300s"
# cache_enabled = true
`

// CreateDefault writes the commented default config to path. It refuses to
// overwrite an existing file.
func CreateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	slog.Info("creating config file", slog.String("path", path))

	return atomicWriteFile(path, []byte(configTemplate))
}

// SetKey sets a top-level key in the config file at path. An existing line
// for the key, commented out or not, is replaced in place; otherwise the
// key is appended. The file is created from the template when missing.
// The edited file must still load cleanly.
func SetKey(path, key, value string) error {
	if !knownKeys[key] {
		return unknownKeyError(key)
	}

	slog.Info("setting config key",
		slog.String("path", path),
		slog.String("key", key),
		slog.String("value", value),
	)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		data = []byte(configTemplate)
	} else if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	newLine := fmt.Sprintf("%s = %s", key, formatTOMLValue(key, value))
	lines := setKeyLine(strings.Split(string(data), "\n"), key, newLine)
	edited := []byte(strings.Join(lines, "\n"))

	if err := validateContent(path, edited); err != nil {
		return err
	}

	return atomicWriteFile(path, edited)
}

// setKeyLine replaces the first active line for key, else the first
// commented-out default for key, else appends newLine.
func setKeyLine(lines []string, key, newLine string) []string {
	commented := -1

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if lineKey(trimmed) == key {
			lines[i] = newLine
			return lines
		}

		if commented < 0 && strings.HasPrefix(trimmed, "#") &&
			lineKey(strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))) == key {
			commented = i
		}
	}

	if commented >= 0 {
		lines[commented] = newLine
		return lines
	}

	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines[n-1] = newLine
		return append(lines, "")
	}

	return append(lines, newLine)
}

// lineKey returns the key of a "key = value" line, or "".
func lineKey(line string) string {
	k, _, ok := strings.Cut(line, "=")
	if !ok {
		return ""
	}

	return strings.TrimSpace(k)
}

// bareKeys are written without quotes: booleans and integers.
var bareKeys = map[string]bool{
	"port": true, "ssl_enabled": true, "insecure_skip_verify": true,
	"token_reuse": true, "cache_enabled": true,
}

// formatTOMLValue formats a value for TOML output. Values of boolean and
// integer keys are written bare; all other values are quoted strings.
func formatTOMLValue(key, value string) string {
	if bareKeys[key] {
		return value
	}

	return strconv.Quote(value)
}

// validateContent loads edited config text through a scratch file so a bad
// edit never replaces a working config.
func validateContent(path string, data []byte) error {
	tmp, err := os.CreateTemp("", "zvmconnector-config-*.toml")
	if err != nil {
		return fmt.Errorf("creating scratch file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing scratch file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing scratch file: %w", err)
	}

	if _, err := Load(tmp.Name()); err != nil {
		return fmt.Errorf("edit would make %s invalid: %w", path, err)
	}

	return nil
}

// atomicWriteFile writes data to a temporary file in the same directory as
// path, then renames it to the target path. Parent directories are created
// as needed.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, configDirPermissions); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, configFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}
