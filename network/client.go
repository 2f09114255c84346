// Package network provides the HTTP client shared by every extractor and hoster strategy.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/constant"
	"github.com/streamscout/streamscout/key"
)

// maxBody caps how much of a page is read. Embed pages are small; anything larger is not a player.
const maxBody = 8 << 20

// Page is a fetched document.
type Page struct {
	// URL is the final URL after redirects.
	URL    string
	Status int
	Header http.Header
	Body   string
}

// OK reports a 2xx status.
func (p *Page) OK() bool {
	return p.Status >= 200 && p.Status < 300
}

// Fetcher is what extractors need from the network. Tests substitute httptest-backed clients.
type Fetcher interface {
	Get(ctx context.Context, url string, headers map[string]string) (*Page, error)
}

// Options tune a Client.
type Options struct {
	Timeout     time.Duration
	Retries     uint
	Fingerprint bool
	UserAgent   string
}

// Client fetches pages with browser-like headers, a per-call timeout and retries on transport failures.
type Client struct {
	http    *http.Client
	timeout time.Duration
	retries uint
	ua      string
}

// New builds a Client from options. Zero values fall back to sane defaults.
func New(options Options) *Client {
	plain := newTransport()

	var transport http.RoundTripper = plain
	if options.Fingerprint {
		transport = newFingerprinted(plain)
	}

	return &Client{
		http:    &http.Client{Transport: transport},
		timeout: lo.Ternary(options.Timeout > 0, options.Timeout, 15*time.Second),
		retries: options.Retries,
		ua:      lo.Ternary(options.UserAgent != "", options.UserAgent, constant.UserAgent),
	}
}

// FromConfig builds a Client from the network.* settings.
func FromConfig() *Client {
	return New(Options{
		Timeout:     viper.GetDuration(key.NetworkTimeout),
		Retries:     viper.GetUint(key.NetworkRetries),
		Fingerprint: viper.GetBool(key.NetworkTLSFingerprint),
		UserAgent:   viper.GetString(key.NetworkUserAgent),
	})
}

// UserAgent returns the UA sent with every request.
func (c *Client) UserAgent() string {
	return c.ua
}

// Get fetches url. Non-2xx statuses are returned as pages, not errors; only transport
// failures and 5xx responses are retried.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Page, error) {
	attempts := c.retries + 1

	page, err := retry.DoWithData(
		func() (*Page, error) {
			page, err := c.get(ctx, url, headers)
			if err != nil {
				return nil, err
			}
			if page.Status >= 500 {
				return page, &statusError{page: page}
			}
			return page, nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(250*time.Millisecond),
		retry.LastErrorOnly(true),
	)

	var status *statusError
	if errors.As(err, &status) {
		return status.page, nil
	}

	return page, err
}

func (c *Client) get(ctx context.Context, url string, headers map[string]string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}

	return &Page{
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   string(body),
	}, nil
}

type statusError struct {
	page *Page
}

func (e *statusError) Error() string {
	return fmt.Sprintf("server error: %d", e.page.Status)
}
