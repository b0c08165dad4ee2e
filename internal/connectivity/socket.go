package connectivity

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// HandshakeProbe opens a websocket to the target host and succeeds when the
// upgrade completes. The connection is closed straight away.
type HandshakeProbe struct {
	dialer *websocket.Dialer
}

// NewHandshakeProbe builds a HandshakeProbe.
func NewHandshakeProbe(skipTLSVerify bool) *HandshakeProbe {
	return &HandshakeProbe{
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: DefaultTimeout,
			TLSClientConfig:  tlsConfig(skipTLSVerify),
		},
	}
}

// Probe implements Strategy.
func (p *HandshakeProbe) Probe(ctx context.Context, target *url.URL, timeout time.Duration) bool {
	ctx, cancel := probeContext(ctx, timeout)
	defer cancel()

	conn, resp, err := p.dialer.DialContext(ctx, socketURL(target), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func socketURL(target *url.URL) string {
	scheme := "ws"
	if target.Scheme == "https" {
		scheme = "wss"
	}
	u := url.URL{Scheme: scheme, Host: target.Host, Path: "/"}
	return u.String()
}
