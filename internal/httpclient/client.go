// Package httpclient builds the HTTP transport ("connector") and
// session ("client") used by the post-download pool, keeping the two
// separate so a session can be rebuilt without tearing down the
// underlying connection pool.
package httpclient

import (
	"net/http"
	"time"
)

const (
	// DefaultMaxIdleConns bounds total idle connections held by the
	// shared transport.
	DefaultMaxIdleConns = 30
	// DefaultMaxIdleConnsPerHost matches the pool's fixed 30-connection
	// budget, since a PostPool only ever talks to one host.
	DefaultMaxIdleConnsPerHost = 30
	// DefaultIdleConnTimeout is how long an idle connection is kept
	// before the transport closes it.
	DefaultIdleConnTimeout = 90 * time.Second
	// DefaultSessionTimeout is the pool session's total per-request
	// timeout, matching the original source's aiohttp ClientTimeout.
	DefaultSessionTimeout = 20 * time.Second
	// DefaultUserAgent mirrors the desktop-browser UA used by the
	// original downloader so the platform doesn't special-case a bot UA.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:65.0) Gecko/20100101 Firefox/65.0"
)

// NewTransport builds the connector shared across session rebuilds.
// Its lifetime is owned by the caller (typically a PostPool) and must
// outlive every *http.Client built from it.
func NewTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        DefaultMaxIdleConns,
		MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
		IdleConnTimeout:     DefaultIdleConnTimeout,
	}
}

// NewSession builds a new HTTP client ("session") against an existing
// transport ("connector"). Rebuilding a session never closes transport;
// only the client is discarded. This is the Go equivalent of the
// original source's connector_owner=false sessions.
func NewSession(transport *http.Transport) *http.Client {
	return &http.Client{
		Timeout:   DefaultSessionTimeout,
		Transport: transport,
	}
}

// NewDefaultClient builds a generic client for components that don't
// need the connector/session split (feed fetching, coordinator calls).
func NewDefaultClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultSessionTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
		},
	}
}
