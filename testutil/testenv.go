// Package testutil provides shared environment helpers for tests that run
// against a live cloud connector. It depends only on stdlib so that E2E
// tests (which cannot import internal/) can use it.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables read by the live test suites.
const (
	EnvTestHost       = "ZVMCONNECTOR_TEST_HOST"
	EnvTestPort       = "ZVMCONNECTOR_TEST_PORT"
	EnvTestCredential = "ZVMCONNECTOR_TEST_CREDENTIAL"
	EnvTestGuest      = "ZVMCONNECTOR_TEST_GUEST"
	EnvAllowedHosts   = "ZVMCONNECTOR_ALLOWED_TEST_HOSTS"
)

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	f, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// ValidateAllowedHost crashes the process unless the host named by
// EnvTestHost appears in EnvAllowedHosts. Live suites create and delete
// guests, so they must never run against a connector nobody listed.
func ValidateAllowedHost() string {
	allowlist := os.Getenv(EnvAllowedHosts)
	if allowlist == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", EnvAllowedHosts)
		fmt.Fprintln(os.Stderr, "Set it in .env or as an environment variable.")
		fmt.Fprintf(os.Stderr, "Example: %s=zvmtest01.example.com\n", EnvAllowedHosts)
		os.Exit(1)
	}

	host := os.Getenv(EnvTestHost)
	if host == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", EnvTestHost)
		os.Exit(1)
	}

	for _, a := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(a) == host {
			return host
		}
	}

	fmt.Fprintf(os.Stderr, "FATAL: %s=%q is not in %s=%q\n", EnvTestHost, host, EnvAllowedHosts, allowlist)
	os.Exit(1)

	return ""
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}

// WriteClientConfig writes a config file and credential file into dir that
// point the client at host:port, and returns the config path. Records and
// logs stay inside dir as well.
func WriteClientConfig(dir, host, port, credential string) (string, error) {
	tokenPath := filepath.Join(dir, "token.dat")
	if err := os.WriteFile(tokenPath, []byte(credential+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing credential: %w", err)
	}

	lines := []string{
		fmt.Sprintf("host = %q", host),
		fmt.Sprintf("token_path = %q", tokenPath),
		fmt.Sprintf("database_path = %q", filepath.Join(dir, "records.db")),
		fmt.Sprintf("log_file = %q", filepath.Join(dir, "client.log")),
		`log_level = "debug"`,
	}

	if port != "" {
		lines = append(lines, "port = "+port)
	}

	cfgPath := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte(strings.Join(lines, "\n")+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("writing config: %w", err)
	}

	return cfgPath, nil
}
