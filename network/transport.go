package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 15 * time.Second

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 16
	t.MaxConnsPerHost = 32
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 5 * time.Second
	return t
}

// fingerprinted sends https requests with a Chrome 120 ClientHello. Hosters behind
// anti-bot fronts reject the stock Go handshake. Plain http goes through the fallback.
//
// Protocol negotiation tries an h2 connection first and retries the same request over
// a forced http/1.1 handshake when that fails.
type fingerprinted struct {
	plain http.RoundTripper

	h2Once sync.Once
	h2     *http2.Transport
	h1     *http.Transport
}

func newFingerprinted(plain http.RoundTripper) *fingerprinted {
	return &fingerprinted{
		plain: plain,
		h1: &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialChrome(ctx, network, addr, []string{"http/1.1"})
			},
			MaxIdleConnsPerHost: 16,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}

func (f *fingerprinted) http2() *http2.Transport {
	f.h2Once.Do(func() {
		f.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialChrome(ctx, network, addr, nil)
			},
		}
	})
	return f.h2
}

func (f *fingerprinted) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return f.plain.RoundTrip(req)
	}

	resp, err := f.http2().RoundTrip(req)
	if err == nil {
		return resp, nil
	}

	if req.Context().Err() != nil {
		return nil, req.Context().Err()
	}

	retry := req.Clone(req.Context())
	if req.Body != nil && req.GetBody != nil {
		if retry.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}

	return f.h1.RoundTrip(retry)
}

// dialChrome opens a TLS connection mimicking Chrome 120's fingerprint.
// A nil protos keeps Chrome's own ALPN list (h2 and http/1.1).
func dialChrome(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName:         host,
		InsecureSkipVerify: true,
		MinVersion:         tls.VersionTLS12,
		NextProtos:         protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
