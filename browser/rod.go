package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/spf13/viper"
	"github.com/streamscout/streamscout/key"
	"github.com/streamscout/streamscout/log"
)

// LaunchOptions configure a locally launched browser.
type LaunchOptions struct {
	// Bin is the browser executable. Empty means look it up on the system.
	Bin       string
	NoSandbox bool
}

// Rod is a Browser backed by a Chrome DevTools connection.
type Rod struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// Launch starts a local headless browser. It never downloads one.
func Launch(options LaunchOptions) (*Rod, error) {
	bin := options.Bin
	if bin == "" {
		path, found := launcher.LookPath()
		if !found {
			return nil, fmt.Errorf("%w: no browser executable found", ErrUnavailable)
		}
		bin = path
	}

	l := launcher.New().
		Bin(bin).
		Headless(true).
		NoSandbox(options.NoSandbox)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	r, err := connect(controlURL)
	if err != nil {
		l.Kill()
		return nil, err
	}

	r.launcher = l
	return r, nil
}

// Connect attaches to a browser already running at controlURL.
func Connect(controlURL string) (*Rod, error) {
	return connect(controlURL)
}

func connect(controlURL string) (*Rod, error) {
	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	log.Infof("connected to headless browser at %s", controlURL)
	return &Rod{browser: b}, nil
}

// FromConfig connects to headless.control_url when set, otherwise launches a local browser.
func FromConfig() (*Rod, error) {
	if !viper.GetBool(key.HeadlessEnable) {
		return nil, fmt.Errorf("%w: disabled by %s", ErrUnavailable, key.HeadlessEnable)
	}

	if u := viper.GetString(key.HeadlessControlURL); u != "" {
		return Connect(u)
	}

	return Launch(LaunchOptions{
		Bin:       viper.GetString(key.HeadlessBin),
		NoSandbox: viper.GetBool(key.HeadlessNoSandbox),
	})
}

// NewContext opens an incognito context with one page.
func (r *Rod) NewContext(ctx context.Context, options ContextOptions) (Context, error) {
	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}

	if options.IgnoreHTTPSErrors {
		if err := incognito.IgnoreCertErrors(true); err != nil {
			_ = incognito.Close()
			return nil, fmt.Errorf("ignore cert errors: %w", err)
		}
	}

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("create page: %w", err)
	}

	if options.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: options.UserAgent}); err != nil {
			_ = incognito.Close()
			return nil, fmt.Errorf("set user agent: %w", err)
		}
	}

	eventCtx, cancel := context.WithCancel(ctx)

	return &rodContext{
		incognito: incognito,
		page:      page,
		events:    page.Context(eventCtx),
		cancel:    cancel,
		referers:  map[proto.NetworkRequestID]string{},
	}, nil
}

// Close shuts the browser down, killing it when it was launched locally.
func (r *Rod) Close() error {
	err := r.browser.Close()
	if r.launcher != nil {
		r.launcher.Kill()
	}
	return err
}

type rodContext struct {
	incognito *rod.Browser
	page      *rod.Page
	events    *rod.Page
	cancel    context.CancelFunc

	mu       sync.Mutex
	referers map[proto.NetworkRequestID]string

	closeOnce sync.Once
	closeErr  error
}

func (c *rodContext) OnResponse(handler func(Response)) {
	wait := c.events.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if e.Request == nil {
				return
			}

			referer := header(e.Request.Headers, "Referer")
			if referer == "" {
				referer = e.DocumentURL
			}

			c.mu.Lock()
			c.referers[e.RequestID] = referer
			c.mu.Unlock()
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Response == nil {
				return
			}

			c.mu.Lock()
			referer := c.referers[e.RequestID]
			c.mu.Unlock()

			handler(Response{
				URL:      e.Response.URL,
				Referer:  referer,
				MimeType: e.Response.MIMEType,
				Status:   e.Response.Status,
			})
		},
	)

	go wait()
}

func (c *rodContext) Navigate(ctx context.Context, url string) error {
	return c.page.Context(ctx).Navigate(url)
}

func (c *rodContext) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		_ = c.page.Close()
		c.closeErr = c.incognito.Close()
	})
	return c.closeErr
}

func header(headers proto.NetworkHeaders, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v.Str()
		}
	}
	return ""
}
