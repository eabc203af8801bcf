package config

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEffective(t *testing.T) {
	cfg := validConfig()
	cfg.Host = "zvm01"
	cfg.TokenReuse = true

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(cfg, "/etc/zvmconnector/config.toml", &buf))

	out := buf.String()
	assert.Contains(t, out, "/etc/zvmconnector/config.toml")
	assert.Contains(t, out, `host                 = "zvm01"`)
	assert.Contains(t, out, "token_reuse          = true")

	for _, key := range knownKeysList {
		assert.True(t, strings.Contains(out, "\n"+key+" "), key)
	}
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, os.ErrClosed
}

func TestRenderEffective_WriteError(t *testing.T) {
	assert.ErrorIs(t, RenderEffective(validConfig(), "x", failWriter{}), os.ErrClosed)
}
