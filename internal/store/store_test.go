package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger returns a debug-level logger that writes to t.Log.
func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(&testLogWriter{t: t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type testLogWriter struct {
	t *testing.T
}

func (w *testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))

	return len(p), nil
}

// newTestStore opens a store in a temp directory with a fixed clock and
// sequential IDs.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "records.db"), testLogger(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, s.Close())
	})

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.nowFunc = func() time.Time { return fixed }

	seq := 0
	s.newID = func() string {
		seq++
		return "id-" + strconv.Itoa(seq)
	}

	return s
}

func TestOpen_CreatesNestedDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "records.db")

	s, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_ReopenKeepsRecords(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "records.db")

	s, err := Open(ctx, path, testLogger(t))
	require.NoError(t, err)
	_, err = s.AddGuest(ctx, "guest01", "", "")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, path, testLogger(t))
	require.NoError(t, err)
	defer s.Close()

	g, err := s.GuestByUserID(ctx, "GUEST01")
	require.NoError(t, err)
	assert.Equal(t, "GUEST01", g.UserID)
}
