package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/tonimelisma/zvmconnector-go/internal/config"
	"github.com/tonimelisma/zvmconnector-go/internal/connector"
	"github.com/tonimelisma/zvmconnector-go/internal/metering"
	"github.com/tonimelisma/zvmconnector-go/internal/store"
	"github.com/tonimelisma/zvmconnector-go/internal/tokenfile"
)

// Transport tuning for a single-host CLI client.
const (
	maxIdleConnsPerHost = 4
	idleConnTimeout     = 90 * time.Second
)

// newHTTPClient builds the HTTP client for the configured endpoint.
// connect_timeout bounds dialing and the TLS handshake; request_timeout,
// when non-zero, bounds each whole request.
func newHTTPClient(cfg *config.Config) (*http.Client, error) {
	connectTimeout := cfg.ConnectTimeoutDuration()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}

	if cfg.SSLEnabled {
		tlsCfg, err := connector.TLSConfig(cfg.CACert, cfg.InsecureSkipVerify)
		if err != nil {
			return nil, err
		}

		transport.TLSClientConfig = tlsCfg
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeoutDuration(),
	}, nil
}

// newConnectorClient wires the HTTP client, the credential reader and the
// token manager into a connector.Client.
func newConnectorClient(cc *CLIContext) (*connector.Client, error) {
	httpClient, err := newHTTPClient(cc.Cfg)
	if err != nil {
		return nil, fmt.Errorf("configuring transport: %w", err)
	}

	baseURL := connector.BaseURL(cc.Cfg.Host, cc.Cfg.Port, cc.Cfg.SSLEnabled)
	credential := tokenfile.NewReader(cc.Cfg.TokenPath)

	var tokens connector.TokenSource = connector.NewTokenManager(baseURL, httpClient, credential, cc.Logger)
	if cc.Cfg.TokenReuse {
		tokens = connector.ReuseTokens(tokens)
	}

	cc.Logger.Debug("connector client ready",
		slog.String("base_url", baseURL),
		slog.String("token_path", credential.Path()),
		slog.Bool("token_reuse", cc.Cfg.TokenReuse),
	)

	return connector.NewClient(baseURL, httpClient, tokens, cc.Logger), nil
}

// newMonitor builds the metering monitor; a disabled cache leaves the
// interval at zero so every request goes to the service.
func newMonitor(cc *CLIContext, caller metering.Caller) *metering.Monitor {
	var interval time.Duration
	if cc.Cfg.CacheEnabled {
		interval = cc.Cfg.CacheIntervalDuration()
	}

	return metering.NewMonitor(caller, metering.Options{
		CacheInterval: interval,
		Logger:        cc.Logger,
	})
}

// openRecords opens the local records database. Callers that only record
// outcomes treat a failure as a warning.
func openRecords(ctx context.Context, cc *CLIContext) (*store.Store, error) {
	st, err := store.Open(ctx, cc.Cfg.DatabasePath, cc.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening records database: %w", err)
	}

	return st, nil
}
