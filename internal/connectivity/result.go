package connectivity

import "time"

// Method names the strategy that produced a verdict.
type Method string

const (
	MethodFetch     Method = "fetch"
	MethodImage     Method = "image"
	MethodWebSocket Method = "websocket"
	MethodFallback  Method = "fallback"
)

// Protocol is the scheme a verdict was reached over.
type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
)

const (
	DefaultTimeout    = 5 * time.Second
	DefaultRetries    = 1
	DefaultRetryDelay = time.Second

	errInvalidURL       = "Invalid URL format"
	errAllMethodsFailed = "All connectivity methods failed"
	errCheckCancelled   = "check cancelled"
)

// Result is the outcome of one orchestrated check.
type Result struct {
	IsReachable bool     `json:"is_reachable"`
	Method      Method   `json:"method"`
	Protocol    Protocol `json:"protocol,omitempty"`
	Error       string   `json:"error,omitempty"`
}

// Options tunes a single check.
type Options struct {
	Timeout    time.Duration
	Retries    int
	RetryDelay time.Duration
}

// DefaultOptions returns the stock timeout and retry policy.
func DefaultOptions() Options {
	return Options{
		Timeout:    DefaultTimeout,
		Retries:    DefaultRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

func (o Options) sanitized() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryDelay < 0 {
		o.RetryDelay = 0
	}
	return o
}
