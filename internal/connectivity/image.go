package connectivity

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const sniffLen = 512

// ImageProbe loads <origin>/favicon.ico with a cache-busting query and
// succeeds only when an image comes back.
type ImageProbe struct {
	client *http.Client
	now    func() time.Time
}

// NewImageProbe returns an ImageProbe using client, or a default client when nil.
func NewImageProbe(client *http.Client) *ImageProbe {
	if client == nil {
		client = NewHTTPClient(false)
	}
	return &ImageProbe{client: client, now: time.Now}
}

// Probe implements Strategy.
func (p *ImageProbe) Probe(ctx context.Context, target *url.URL, timeout time.Duration) bool {
	ctx, cancel := probeContext(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.iconURL(target), nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	head, err := io.ReadAll(io.LimitReader(resp.Body, sniffLen))
	if err != nil || len(head) == 0 {
		return false
	}
	return isImage(http.DetectContentType(head)) || isImage(resp.Header.Get("Content-Type"))
}

func (p *ImageProbe) iconURL(target *url.URL) string {
	icon := url.URL{
		Scheme:   target.Scheme,
		Host:     target.Host,
		Path:     "/favicon.ico",
		RawQuery: strconv.FormatInt(p.now().UnixMilli(), 10),
	}
	return icon.String()
}

func isImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}
