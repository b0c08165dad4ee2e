package connectivity

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// FetchProbe issues a HEAD request and treats any completed round trip as
// reachable. Status codes are deliberately ignored: an error page still
// proves the host answered.
type FetchProbe struct {
	client *http.Client
}

// NewFetchProbe returns a FetchProbe using client, or a default client when nil.
func NewFetchProbe(client *http.Client) *FetchProbe {
	if client == nil {
		client = NewHTTPClient(false)
	}
	return &FetchProbe{client: client}
}

// Probe implements Strategy.
func (p *FetchProbe) Probe(ctx context.Context, target *url.URL, timeout time.Duration) bool {
	ctx, cancel := probeContext(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target.String(), nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}
