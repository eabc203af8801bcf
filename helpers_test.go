package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testAdminCredential = "admin-secret"
	testIssuedToken     = "issued-token"
)

// fakeConnector is an httptest server speaking the token exchange plus
// whatever operation routes a test registers.
type fakeConnector struct {
	srv *httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	requests []string
}

func newFakeConnector(t *testing.T) *fakeConnector {
	t.Helper()

	f := &fakeConnector{mux: http.NewServeMux()}

	f.mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		// A holder of an issued token may also ask for a new one.
		admin := r.Header.Get("X-Admin-Token") == testAdminCredential
		if !admin && r.Header.Get("X-Auth-Token") != testIssuedToken {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error":"bad credential"}`)

			return
		}

		w.Header().Set("X-Auth-Token", testIssuedToken)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{}`)
	})

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.RequestURI())
		f.mu.Unlock()

		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)

	return f
}

// handleEnvelope registers pattern to answer with a success envelope.
func (f *fakeConnector) handleEnvelope(pattern string, output any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Auth-Token") != testIssuedToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"overallRC": 0, "modID": nil, "rc": 0, "rs": 0, "errmsg": "", "output": output,
		})
	})
}

func (f *fakeConnector) hostPort(t *testing.T) (string, int) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(f.srv.Listener.Addr().String())
	require.NoError(t, err)

	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return host, port
}

func (f *fakeConnector) seen() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.requests...)
}

// cliEnv is an isolated home with a config pointing at a fake connector.
type cliEnv struct {
	dir        string
	configPath string
	tokenPath  string
	dbPath     string
}

func newCLIEnv(t *testing.T, f *fakeConnector, extra string) *cliEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	t.Setenv("ZVMCONNECTOR_CONFIG", "")
	t.Setenv("ZVMCONNECTOR_HOST", "")
	t.Setenv("ZVMCONNECTOR_TOKEN_PATH", "")

	env := &cliEnv{
		dir:        home,
		configPath: filepath.Join(home, "config.toml"),
		tokenPath:  filepath.Join(home, "token.dat"),
		dbPath:     filepath.Join(home, "records.db"),
	}

	host, port := "127.0.0.1", 1
	if f != nil {
		host, port = f.hostPort(t)
	}

	cfg := fmt.Sprintf("host = %q\nport = %d\ntoken_path = %q\ndatabase_path = %q\nlog_level = \"error\"\n%s",
		host, port, env.tokenPath, env.dbPath, extra)
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o600))
	require.NoError(t, os.WriteFile(env.tokenPath, []byte(testAdminCredential+"\n"), 0o600))

	return env
}

// runCLI executes the root command with args and returns what it wrote to
// stdout. Not safe for parallel tests: os.Stdout is swapped.
func runCLI(t *testing.T, env *cliEnv, args ...string) (string, error) {
	t.Helper()

	return runCLIWithInput(t, env, nil, args...)
}

func runCLIWithInput(t *testing.T, env *cliEnv, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w

	var (
		out  bytes.Buffer
		done = make(chan struct{})
	)

	go func() {
		_, _ = io.Copy(&out, r)
		close(done)
	}()

	cmd := newRootCmd()
	if stdin != nil {
		cmd.SetIn(stdin)
	}

	full := args
	if env != nil {
		full = append([]string{"--config", env.configPath}, args...)
	}

	cmd.SetArgs(full)
	runErr := cmd.ExecuteContext(context.Background())

	os.Stdout = orig
	require.NoError(t, w.Close())
	<-done
	require.NoError(t, r.Close())

	return out.String(), runErr
}
