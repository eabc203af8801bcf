package tokenfile

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_FileNotFound(t *testing.T) {
	r := NewReader("/nonexistent/path/token.dat")

	tok, err := r.Read()
	assert.Empty(t, tok)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrRead)
}

func TestRead_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.dat")
	require.NoError(t, os.WriteFile(path, []byte("  admin-secret\n\n"), 0o600))

	tok, err := NewReader(path).Read()
	require.NoError(t, err)
	assert.Equal(t, "admin-secret", tok)
}

func TestRead_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.dat")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))

	_, err := NewReader(path).Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRead_Directory(t *testing.T) {
	dir := t.TempDir()

	_, err := NewReader(dir).Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRead)
}

func TestRead_Unreadable(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for this user")
	}

	path := filepath.Join(t.TempDir(), "token.dat")
	require.NoError(t, os.WriteFile(path, []byte("secret"), 0o000))

	_, err := NewReader(path).Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRead)
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "token.dat")

	require.NoError(t, Save(path, "fresh-token"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())

	tok, err := NewReader(path).Read()
	require.NoError(t, err)
	assert.Equal(t, "fresh-token", tok)
}

func TestSave_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.dat")

	require.NoError(t, Save(path, "one"))
	require.NoError(t, Save(path, "two"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "token.dat", entries[0].Name())
}

// Readers racing a writer must always observe one complete token.
func TestRead_ConcurrentNeverTorn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.dat")
	tokA := strings.Repeat("a", 4096)
	tokB := strings.Repeat("b", 4096)
	require.NoError(t, Save(path, tokA))

	r := NewReader(path)

	var wg sync.WaitGroup

	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()

		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}

			next := tokA
			if i%2 == 0 {
				next = tokB
			}

			assert.NoError(t, Save(path, next))
		}
	}()

	var readers sync.WaitGroup
	for range 8 {
		readers.Add(1)
		go func() {
			defer readers.Done()

			for range 50 {
				tok, err := r.Read()
				if !assert.NoError(t, err) {
					return
				}

				assert.True(t, tok == tokA || tok == tokB, "torn read of length %d", len(tok))
			}
		}()
	}

	readers.Wait()
	close(stop)
	wg.Wait()
}
