package connector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/tonimelisma/zvmconnector-go/internal/tokenfile"
)

// Token exchange protocol.
const (
	tokenPath         = "/token"
	adminTokenHeader  = "X-Admin-Token" //nolint:gosec // G101: header name, not a credential
	authTokenHeader   = "X-Auth-Token"  //nolint:gosec // G101: header name, not a credential
	authTokenType     = authTokenHeader
	issuedTokenExpiry = 30 * time.Second
	reuseEarlyExpiry  = 5 * time.Second
)

// TokenSource provides bearer tokens for outbound requests. Defined at the
// consumer; *TokenManager is the real implementation.
type TokenSource interface {
	Token() (*oauth2.Token, error)
}

// TokenManager exchanges the locally stored admin credential for a
// short-lived token on every call. Issued tokens are never cached or
// persisted here; wrap it with ReuseTokens to opt into reuse.
type TokenManager struct {
	baseURL    string
	httpClient *http.Client
	credential *tokenfile.Reader
	logger     *slog.Logger
}

// NewTokenManager creates a TokenManager that reads the admin credential
// through credential and posts it to baseURL + "/token".
func NewTokenManager(baseURL string, httpClient *http.Client, credential *tokenfile.Reader, logger *slog.Logger) *TokenManager {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &TokenManager{
		baseURL:    baseURL,
		httpClient: httpClient,
		credential: credential,
		logger:     logger,
	}
}

// Token satisfies oauth2.TokenSource. It uses a background context; callers
// that need cancellation use TokenContext.
func (m *TokenManager) Token() (*oauth2.Token, error) {
	return m.TokenContext(context.Background())
}

// TokenContext runs the exchange: read the credential under the reader's
// lock, POST it to the token endpoint, and return the token from the
// X-Auth-Token response header.
func (m *TokenManager) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	admin, err := m.credential.Read()
	if err != nil {
		if errors.Is(err, tokenfile.ErrNotFound) {
			return nil, fmt.Errorf("%w: %w", ErrCredentialNotFound, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrCredentialRead, err)
	}

	url := m.baseURL + tokenPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("connector: creating token request: %w", err)
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(adminTokenHeader, admin)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("connector: token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusServiceUnavailable {
		m.logger.Warn("token endpoint unavailable", slog.String("url", url))
		return nil, newResponseError(ErrServiceUnavailable, url, resp)
	}

	issued := resp.Header.Get(authTokenHeader)
	if issued == "" {
		m.logger.Error("token response missing auth token header",
			slog.String("url", url),
			slog.Int("status", resp.StatusCode),
		)

		return nil, newResponseError(ErrUnexpectedResponse, url, resp)
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorText))

	m.logger.Debug("token issued", slog.String("url", url))

	return &oauth2.Token{
		AccessToken: issued,
		TokenType:   authTokenType,
		Expiry:      time.Now().Add(issuedTokenExpiry),
	}, nil
}

// ReuseTokens wraps src so an issued token is reused until shortly before the
// service's validity window closes. This trades fewer token exchanges for
// the chance of presenting a token the service has already revoked. The
// wrapper keeps TokenContext, so exchanges still honor the caller's context.
func ReuseTokens(src TokenSource) TokenSource {
	return &reuseTokenSource{src: src, now: time.Now}
}

// reuseTokenSource holds the last issued token. The mutex is held across the
// exchange so concurrent callers share one refresh.
type reuseTokenSource struct {
	src TokenSource
	now func() time.Time

	mu  sync.Mutex
	tok *oauth2.Token
}

func (r *reuseTokenSource) Token() (*oauth2.Token, error) {
	return r.TokenContext(context.Background())
}

func (r *reuseTokenSource) TokenContext(ctx context.Context) (*oauth2.Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tok != nil && r.now().Add(reuseEarlyExpiry).Before(r.tok.Expiry) {
		return r.tok, nil
	}

	var (
		tok *oauth2.Token
		err error
	)

	if cs, ok := r.src.(contextTokenSource); ok {
		tok, err = cs.TokenContext(ctx)
	} else {
		tok, err = r.src.Token()
	}

	if err != nil {
		return nil, err
	}

	r.tok = tok

	return tok, nil
}

// newResponseError captures status, reason and a bounded excerpt of the body.
func newResponseError(sentinel error, url string, resp *http.Response) *ResponseError {
	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorText))

	return &ResponseError{
		URL:        url,
		StatusCode: resp.StatusCode,
		Reason:     reasonPhrase(resp),
		Text:       string(text),
		Err:        sentinel,
	}
}
