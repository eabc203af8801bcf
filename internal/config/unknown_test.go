package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_UnknownKey_TopLevel(t *testing.T) {
	path := writeTestConfig(t, `
unknown_section = "value"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoad_UnknownKey_Suggestion(t *testing.T) {
	path := writeTestConfig(t, `tokn_path = "/etc/zvmsdk/token.dat"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `did you mean "token_path"`)
}

func TestLoad_UnknownKey_Table(t *testing.T) {
	path := writeTestConfig(t, "[network]\ntimeout = \"5s\"\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "network"`)
}

func TestLoad_UnknownKey_AllReported(t *testing.T) {
	path := writeTestConfig(t, `
hots = "a"
prot = 1
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"host"`)
	assert.Contains(t, err.Error(), `"port"`)
}

func TestClosestMatch(t *testing.T) {
	assert.Equal(t, "log_level", closestMatch("log_levl", knownKeysList))
	assert.Equal(t, "ssl_enabled", closestMatch("ssl_enable", knownKeysList))
	assert.Empty(t, closestMatch("completely_different", knownKeysList))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"host", "host", 0},
		{"host", "hots", 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestKnownKeysMatchTemplate(t *testing.T) {
	for _, key := range knownKeysList {
		assert.Contains(t, configTemplate, "# "+key+" = ", key)
	}
}
