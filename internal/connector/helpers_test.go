package connector

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/zvmconnector-go/internal/tokenfile"
)

const (
	testAdminSecret = "admin-secret"
	testIssuedToken = "issued-token"
)

// recordedRequest is an operation request as the fake service saw it.
type recordedRequest struct {
	Method    string
	Path      string
	RawQuery  string
	Header    http.Header
	Body      []byte
	AuthToken string
}

// fakeService is an httptest server speaking the token exchange plus a
// caller-supplied handler for every other path.
type fakeService struct {
	srv        *httptest.Server
	tokenCalls atomic.Int32
	opCalls    atomic.Int32

	mu       sync.Mutex
	requests []recordedRequest

	// tokenHandler overrides the default token endpoint when set.
	tokenHandler http.HandlerFunc
}

func newFakeService(t *testing.T, handler http.HandlerFunc) *fakeService {
	t.Helper()

	fs := &fakeService{}

	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == tokenPath && r.Method == http.MethodPost && r.Header.Get(adminTokenHeader) != "" {
			fs.tokenCalls.Add(1)

			if fs.tokenHandler != nil {
				fs.tokenHandler(w, r)
				return
			}

			if r.Header.Get(adminTokenHeader) != testAdminSecret {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}

			w.Header().Set(authTokenHeader, testIssuedToken)
			w.WriteHeader(http.StatusOK)

			return
		}

		fs.opCalls.Add(1)

		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		fs.mu.Lock()
		fs.requests = append(fs.requests, recordedRequest{
			Method:    r.Method,
			Path:      r.URL.Path,
			RawQuery:  r.URL.RawQuery,
			Header:    r.Header.Clone(),
			Body:      body,
			AuthToken: r.Header.Get(authTokenHeader),
		})
		fs.mu.Unlock()

		r.Body = io.NopCloser(bytes.NewReader(body))
		handler(w, r)
	}))
	t.Cleanup(fs.srv.Close)

	return fs
}

// lastRequest returns the most recent operation request.
func (fs *fakeService) lastRequest(t *testing.T) recordedRequest {
	t.Helper()

	fs.mu.Lock()
	defer fs.mu.Unlock()

	require.NotEmpty(t, fs.requests, "no operation request reached the service")

	return fs.requests[len(fs.requests)-1]
}

// totalCalls counts every request the service received, token exchanges
// included.
func (fs *fakeService) totalCalls() int32 {
	return fs.tokenCalls.Load() + fs.opCalls.Load()
}

// writeCredential stores the admin secret in a fresh temp dir and returns
// its path.
func writeCredential(t *testing.T, secret string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "token.dat")
	require.NoError(t, tokenfile.Save(path, secret))

	return path
}

// newTestClient returns a client for fs that authenticates with the test
// admin secret.
func newTestClient(t *testing.T, fs *fakeService) *Client {
	t.Helper()

	return newTestClientWithCredential(t, fs, writeCredential(t, testAdminSecret), nil)
}

func newTestClientWithCredential(t *testing.T, fs *fakeService, credentialPath string, logger *slog.Logger) *Client {
	t.Helper()

	tm := NewTokenManager(fs.srv.URL, fs.srv.Client(), tokenfile.NewReader(credentialPath), logger)

	return NewClient(fs.srv.URL, fs.srv.Client(), tm, logger)
}

// jsonHandler responds with status and the given JSON document.
func jsonHandler(status int, doc string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(status)
		_, _ = io.WriteString(w, doc)
	}
}

// closeTracker records whether Close was called on a body.
type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func bg() context.Context {
	return context.Background()
}
