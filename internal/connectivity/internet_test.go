package connectivity

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/require"
)

func TestInternetChecker_DoH(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   bool
	}{
		{name: "resolver answers", status: http.StatusOK, want: true},
		{name: "resolver errors", status: http.StatusBadGateway, want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					w.WriteHeader(http.StatusMethodNotAllowed)
					return
				}
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			c := NewInternetChecker(nil, InternetConfig{Endpoint: srv.URL + "/resolve", Timeout: time.Second}, srv.Client())
			require.Equal(t, tc.want, c.Online(context.Background()))
		})
	}
}

func TestInternetChecker_DNS(t *testing.T) {
	t.Parallel()

	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := &dns.Server{
		PacketConn: pc,
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			m := new(dns.Msg)
			m.SetReply(r)
			_ = w.WriteMsg(m)
		}),
	}
	go func() { _ = srv.ActivateAndServe() }()
	defer func() { _ = srv.Shutdown() }()

	c := NewInternetChecker(nil, InternetConfig{
		Method:    InternetDNS,
		DNSServer: pc.LocalAddr().String(),
		Timeout:   2 * time.Second,
	}, nil)

	require.True(t, c.Online(context.Background()))
}

func TestInternetChecker_TCP(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()

	c := NewInternetChecker(nil, InternetConfig{Method: InternetTCP, DNSServer: addr, Timeout: time.Second}, nil)
	require.True(t, c.Online(context.Background()))

	require.NoError(t, ln.Close())
	require.False(t, c.Online(context.Background()))
}

func TestNewInternetChecker_Defaults(t *testing.T) {
	t.Parallel()

	c := NewInternetChecker(nil, InternetConfig{DNSServer: "9.9.9.9"}, nil)

	require.Equal(t, InternetDoH, c.cfg.Method)
	require.Equal(t, DefaultInternetEndpoint, c.cfg.Endpoint)
	require.Equal(t, "9.9.9.9:53", c.cfg.DNSServer)
	require.Equal(t, DefaultTimeout, c.cfg.Timeout)
}
