package connectivity

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/miekg/dns"
)

// InternetMethod selects how general internet reachability is tested.
type InternetMethod string

const (
	// InternetDoH queries a public DNS-over-HTTPS resolver.
	InternetDoH InternetMethod = "doh"
	// InternetDNS sends a plain DNS query.
	InternetDNS InternetMethod = "dns"
	// InternetTCP only opens a TCP connection to the resolver.
	InternetTCP InternetMethod = "tcp"

	DefaultInternetEndpoint = "https://dns.google/resolve?name=google.com&type=A"
	DefaultDNSServer        = "1.1.1.1:53"

	internetProbeName = "google.com"
)

// InternetConfig configures an InternetChecker.
type InternetConfig struct {
	Method    InternetMethod
	Endpoint  string
	DNSServer string
	Timeout   time.Duration
}

// InternetChecker answers whether the general internet is reachable.
type InternetChecker struct {
	logger    hclog.Logger
	cfg       InternetConfig
	client    *http.Client
	dnsClient *dns.Client
}

// NewInternetChecker fills in defaults for cfg and returns a checker. A nil
// client gets a default one.
func NewInternetChecker(logger hclog.Logger, cfg InternetConfig, client *http.Client) *InternetChecker {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.Method == "" {
		cfg.Method = InternetDoH
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultInternetEndpoint
	}
	if strings.TrimSpace(cfg.DNSServer) == "" {
		cfg.DNSServer = DefaultDNSServer
	}
	if !strings.Contains(cfg.DNSServer, ":") {
		cfg.DNSServer = net.JoinHostPort(cfg.DNSServer, "53")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if client == nil {
		client = NewHTTPClient(false)
	}

	return &InternetChecker{
		logger:    logger,
		cfg:       cfg,
		client:    client,
		dnsClient: &dns.Client{Timeout: cfg.Timeout},
	}
}

// Online runs one check. Any failure reads as offline.
func (c *InternetChecker) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		ok  bool
		err error
	)
	switch c.cfg.Method {
	case InternetDNS:
		ok, err = c.queryDNS(ctx)
	case InternetTCP:
		ok, err = c.dial(ctx)
	default:
		ok, err = c.resolveDoH(ctx)
	}
	if err != nil {
		c.logger.Debug("internet check failed", "method", c.cfg.Method, "error", err)
	}
	return ok
}

func (c *InternetChecker) resolveDoH(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

func (c *InternetChecker) queryDNS(ctx context.Context) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(internetProbeName), dns.TypeA)

	resp, _, err := c.dnsClient.ExchangeContext(ctx, msg, c.cfg.DNSServer)
	if err != nil {
		return false, err
	}
	return resp.Rcode == dns.RcodeSuccess, nil
}

func (c *InternetChecker) dial(ctx context.Context) (bool, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.cfg.DNSServer)
	if err != nil {
		return false, err
	}
	_ = conn.Close()
	return true, nil
}
