package connectivity

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Strategy is a single reachability test. Probe reports true only when the
// target answered within timeout; it never panics and swallows every error.
type Strategy interface {
	Probe(ctx context.Context, target *url.URL, timeout time.Duration) bool
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx context.Context, target *url.URL, timeout time.Duration) bool

// Probe calls f.
func (f StrategyFunc) Probe(ctx context.Context, target *url.URL, timeout time.Duration) bool {
	return f(ctx, target, timeout)
}

// NewHTTPClient builds the client shared by the HTTP based strategies.
// Redirects are followed up to the net/http default of ten hops.
func NewHTTPClient(skipTLSVerify bool) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   DefaultTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:       tlsConfig(skipTLSVerify),
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   DefaultTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: transport}
}

func tlsConfig(skipTLSVerify bool) *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: skipTLSVerify, //nolint:gosec // opt-in for self-signed appliances
	}
}

func probeContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
