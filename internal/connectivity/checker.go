package connectivity

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/filecoin-project/go-clock"
	"github.com/hashicorp/go-hclog"
)

var errInvalidTarget = errors.New(errInvalidURL)

// Checker runs the probe strategies in fallback order (fetch, image, then
// websocket for local hosts) and reduces them to one Result.
type Checker struct {
	logger       hclog.Logger
	fetch        Strategy
	image        Strategy
	socket       Strategy
	clock        clock.Clock
	originScheme string
	defaults     Options
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithStrategies replaces the probe strategies. Nil arguments keep the current ones.
func WithStrategies(fetch, image, socket Strategy) CheckerOption {
	return func(c *Checker) {
		if fetch != nil {
			c.fetch = fetch
		}
		if image != nil {
			c.image = image
		}
		if socket != nil {
			c.socket = socket
		}
	}
}

// WithClock sets the clock used for retry delays.
func WithClock(clk clock.Clock) CheckerOption {
	return func(c *Checker) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithOriginScheme sets the scheme the dashboard itself is served over.
// With "https", plain http local targets get one extra attempt over https.
func WithOriginScheme(scheme string) CheckerOption {
	return func(c *Checker) {
		c.originScheme = strings.ToLower(strings.TrimSpace(scheme))
	}
}

// WithDefaults sets the options used by Check.
func WithDefaults(opts Options) CheckerOption {
	return func(c *Checker) {
		c.defaults = opts.sanitized()
	}
}

// WithSkipTLSVerify rebuilds the network strategies with certificate
// verification disabled.
func WithSkipTLSVerify(skip bool) CheckerOption {
	return func(c *Checker) {
		client := NewHTTPClient(skip)
		c.fetch = NewFetchProbe(client)
		c.image = NewImageProbe(client)
		c.socket = NewHandshakeProbe(skip)
	}
}

// NewChecker builds a Checker with network backed strategies.
func NewChecker(logger hclog.Logger, opts ...CheckerOption) *Checker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	client := NewHTTPClient(false)
	c := &Checker{
		logger:       logger,
		fetch:        NewFetchProbe(client),
		image:        NewImageProbe(client),
		socket:       NewHandshakeProbe(false),
		clock:        clock.New(),
		originScheme: string(ProtocolHTTP),
		defaults:     DefaultOptions(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check runs an orchestrated check with the checker's default options.
func (c *Checker) Check(ctx context.Context, raw string) Result {
	return c.CheckWith(ctx, raw, c.defaults)
}

// CheckWith runs an orchestrated check against raw. It never fails; every
// problem is folded into the returned Result.
func (c *Checker) CheckWith(ctx context.Context, raw string, opts Options) Result {
	opts = opts.sanitized()

	target, err := parseTarget(raw)
	if err != nil {
		c.logger.Debug("rejecting target", "url", raw, "error", err)
		return Result{Method: MethodFallback, Error: errInvalidURL}
	}

	local := IsLocalNetwork(target.String())
	protocol := Protocol(target.Scheme)
	logger := c.logger.With("url", target.String(), "local", local)

	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if c.fetch.Probe(ctx, target, opts.Timeout) {
			logger.Debug("reachable", "method", MethodFetch, "attempt", attempt+1)
			return Result{IsReachable: true, Method: MethodFetch, Protocol: protocol}
		}
		if attempt < opts.Retries {
			if !c.wait(ctx, opts.RetryDelay) {
				return Result{Method: MethodFallback, Protocol: protocol, Error: errCheckCancelled}
			}
			continue
		}

		if c.originScheme == string(ProtocolHTTPS) && protocol == ProtocolHTTP && local {
			secure := *target
			secure.Scheme = string(ProtocolHTTPS)
			if c.fetch.Probe(ctx, &secure, opts.Timeout) {
				logger.Debug("reachable over https upgrade", "method", MethodFetch)
				return Result{IsReachable: true, Method: MethodFetch, Protocol: ProtocolHTTPS}
			}
		}
	}

	if c.image.Probe(ctx, target, opts.Timeout) {
		logger.Debug("reachable", "method", MethodImage)
		return Result{IsReachable: true, Method: MethodImage, Protocol: protocol}
	}

	if local && c.socket.Probe(ctx, target, opts.Timeout) {
		logger.Debug("reachable", "method", MethodWebSocket)
		return Result{IsReachable: true, Method: MethodWebSocket, Protocol: protocol}
	}

	logger.Debug("unreachable")
	return Result{Method: MethodFallback, Protocol: protocol, Error: errAllMethodsFailed}
}

func (c *Checker) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := c.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func parseTarget(raw string) (*url.URL, error) {
	normalized := NormalizeURL(strings.TrimSpace(raw), true)

	u, err := url.Parse(normalized)
	if err != nil {
		return nil, errInvalidTarget
	}
	if u.Hostname() == "" {
		return nil, errInvalidTarget
	}
	if u.Scheme != string(ProtocolHTTP) && u.Scheme != string(ProtocolHTTPS) {
		return nil, errInvalidTarget
	}
	return u, nil
}
