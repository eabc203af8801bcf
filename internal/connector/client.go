package connector

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"

	"golang.org/x/oauth2"
)

// Content types the service speaks.
const (
	contentTypeJSON   = "application/json"
	contentTypeBinary = "application/octet-stream"
	userAgent         = "zvmconnector-go/0.1"
)

// maxLoggedBody bounds the request body excerpt written to the debug log.
const maxLoggedBody = 512

// Client issues operations against the cloud connector service. It is safe
// for concurrent use: every call builds its own request and fetches its own
// token, and nothing is shared between calls except the credential reader's
// lock and the http.Client's connection pool.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
}

// NewClient creates a client for baseURL (e.g. "http://127.0.0.1:8888").
// token is usually a *TokenManager, optionally wrapped by ReuseTokens.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
		logger:     logger,
	}
}

// BaseURL builds the service base URL from its parts.
func BaseURL(host string, port int, sslEnabled bool) string {
	scheme := "http"
	if sslEnabled {
		scheme = "https"
	}

	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}

// TLSConfig returns the TLS settings for an HTTPS connection. caCertPath,
// when set, must name a PEM bundle that becomes the only trusted root;
// a missing file is ErrCACertNotFound. insecure disables verification.
func TLSConfig(caCertPath string, insecure bool) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, //nolint:gosec // explicit opt-in via configuration
	}

	if caCertPath == "" {
		return cfg, nil
	}

	pem, err := os.ReadFile(caCertPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCACertNotFound, caCertPath, err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("connector: no certificates found in %s", caCertPath)
	}

	cfg.RootCAs = pool

	return cfg, nil
}

// contextTokenSource is satisfied by *TokenManager. Checked at runtime so a
// plain oauth2 source still works as a TokenSource.
type contextTokenSource interface {
	TokenContext(ctx context.Context) (*oauth2.Token, error)
}

// fetchToken obtains the bearer token for one outbound request.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	var (
		tok *oauth2.Token
		err error
	)

	if cs, ok := c.token.(contextTokenSource); ok {
		tok, err = cs.TokenContext(ctx)
	} else {
		tok, err = c.token.Token()
	}

	if err != nil {
		return "", err
	}

	return tok.AccessToken, nil
}

// execute sends one request. Structured bodies are JSON-encoded; an
// *UploadSource is streamed as-is with its known length. The caller owns
// the response body.
func (c *Client) execute(
	ctx context.Context, method, url string, body any, header map[string]string,
) (*http.Response, error) {
	var (
		reader  io.Reader
		length  int64
		logBody string
	)

	switch b := body.(type) {
	case nil:
	case *UploadSource:
		reader = b
		length = b.Size()
		logBody = fmt.Sprintf("<binary %d bytes>", length)
	case []byte:
		reader = bytes.NewReader(b)
		length = int64(len(b))
		logBody = string(b)
	case string:
		reader = strings.NewReader(b)
		length = int64(len(b))
		logBody = b
	default:
		encoded, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("connector: encoding request body: %w", err)
		}

		reader = bytes.NewReader(encoded)
		length = int64(len(encoded))
		logBody = string(encoded)
	}

	token, err := c.fetchToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("connector: creating request: %w", err)
	}

	if reader != nil {
		// -1 tells net/http to use chunked transfer encoding.
		req.ContentLength = length
		if length == 0 {
			req.Body = http.NoBody
		}
	}

	for k, v := range header {
		req.Header.Set(k, v)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(authTokenHeader, token)

	c.logCurl(req, logBody)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connector: %s %s: %w", method, url, err)
	}

	return resp, nil
}

// logCurl writes the request as an equivalent curl command at debug level.
// Token headers are redacted. Logging never affects the request.
func (c *Client) logCurl(req *http.Request, body string) {
	if !c.logger.Enabled(req.Context(), slog.LevelDebug) {
		return
	}

	parts := []string{"curl -g -i -X " + req.Method}

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		v := req.Header.Get(k)
		if strings.EqualFold(k, authTokenHeader) || strings.EqualFold(k, adminTokenHeader) {
			v = "<redacted>"
		}

		parts = append(parts, fmt.Sprintf("-H '%s: %s'", k, v))
	}

	if body != "" {
		if len(body) > maxLoggedBody {
			body = body[:maxLoggedBody] + "..."
		}

		parts = append(parts, fmt.Sprintf("-d '%s'", body))
	}

	parts = append(parts, req.URL.String())

	c.logger.Debug("sending request", slog.String("curl", strings.Join(parts, " ")))
}
