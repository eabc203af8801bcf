// Package tokenfile reads and writes the admin credential file: a local file
// holding a single long-lived admin token string. The connector exchanges that
// token for a short-lived bearer token on every call. This is a leaf package
// imported by both config/ and connector/.
package tokenfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FilePerms restricts credential files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the credential directory.
const DirPerms = 0o700

// Sentinel errors for credential access. Use errors.Is to check.
var (
	ErrNotFound = errors.New("tokenfile: credential file not found")
	ErrRead     = errors.New("tokenfile: credential file read failed")
	ErrEmpty    = errors.New("tokenfile: credential file is empty")
)

// Reader reads the admin credential from a fixed path. The mutex serializes
// concurrent reads against a writer replacing the file; it is held only for
// the read itself, never across a network exchange.
type Reader struct {
	path string
	mu   sync.Mutex
}

// NewReader returns a Reader for the credential file at path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// Path returns the credential file path.
func (r *Reader) Path() string {
	return r.path
}

// Read returns the trimmed credential. A missing file yields ErrNotFound;
// any other I/O failure (including an empty file) yields ErrRead.
func (r *Reader) Read() (string, error) {
	if _, err := os.Stat(r.path); errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, r.path)
	}

	r.mu.Lock()
	data, err := os.ReadFile(r.path)
	r.mu.Unlock()

	if err != nil {
		// The file can vanish between Stat and ReadFile.
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, r.path)
		}

		return "", fmt.Errorf("%w: %s: %w", ErrRead, r.path, err)
	}

	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return "", fmt.Errorf("%w: %w: %s", ErrRead, ErrEmpty, r.path)
	}

	return tok, nil
}

// Save writes a credential file atomically (write-to-temp + rename) with 0600
// permissions, so concurrent readers observe either the old or the new token
// and never a partial one. Never logs token values.
func Save(path, token string) error {
	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("tokenfile: creating directory %s: %w", dir, mkErr)
	}

	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: setting permissions: %w", err)
	}

	if _, err := tmp.WriteString(strings.TrimSpace(token) + "\n"); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tokenfile: renaming: %w", err)
	}

	success = true

	return nil
}
