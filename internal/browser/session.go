// Package browser owns the lifecycle of one browser tab and exposes the
// host-side DOM accessors the detection and filling pipeline operates on.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

var (
	// ErrLaunch reports that the underlying browser engine could not start.
	ErrLaunch = errors.New("browser launch failed")
	// ErrInvalidURL reports a malformed URL, rejected before any navigation.
	ErrInvalidURL = errors.New("invalid url")
	// ErrNotOpen reports an operation against a session that was never opened.
	ErrNotOpen = errors.New("browser session is not open")
)

const (
	DefaultTimeout         = 30 * time.Second
	DefaultNetworkIdleWait = 10 * time.Second
	DefaultViewportWidth   = 1280
	DefaultViewportHeight  = 720

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Options configures a browser session.
type Options struct {
	Headless        bool
	Timeout         time.Duration
	NetworkIdleWait time.Duration
	ViewportWidth   int
	ViewportHeight  int
	UserAgent       string
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.NetworkIdleWait <= 0 {
		o.NetworkIdleWait = DefaultNetworkIdleWait
	}
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return o
}

// Session owns exactly one browser tab and its navigation lifecycle.
// A session is not safe for concurrent use from multiple flows.
type Session struct {
	logger *zap.Logger
	opts   Options

	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page

	open bool
}

// NewSession creates an unopened session. Open must be called before use.
func NewSession(opts Options, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		logger: logger,
		opts:   opts.withDefaults(),
	}
}

// Open launches the browser engine, context and tab. Calling Open on an
// already open session is a no-op.
func (s *Session) Open() error {
	if s.open {
		return nil
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("%w: installing driver: %v", ErrLaunch, err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("%w: starting driver: %v", ErrLaunch, err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.opts.Headless),
		Args:     []string{"--disable-blink-features=AutomationControlled"},
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  s.opts.ViewportWidth,
			Height: s.opts.ViewportHeight,
		},
		UserAgent: playwright.String(s.opts.UserAgent),
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("%w: creating context: %v", ErrLaunch, err)
	}

	page, err := context.NewPage()
	if err != nil {
		context.Close()
		browser.Close()
		pw.Stop()
		return fmt.Errorf("%w: creating page: %v", ErrLaunch, err)
	}

	page.SetDefaultTimeout(float64(s.opts.Timeout.Milliseconds()))

	s.pw = pw
	s.browser = browser
	s.context = context
	s.page = page
	s.open = true

	s.logger.Info("browser session started", zap.Bool("headless", s.opts.Headless))
	return nil
}

// ValidateURL rejects URLs without an http(s) scheme and a host.
func ValidateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidURL, raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%w: %q: scheme must be http or https", ErrInvalidURL, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%w: %q: missing host", ErrInvalidURL, raw)
	}
	return nil
}

// Navigate loads the URL in the owned tab, waiting for DOM content and then,
// best effort, for network quiescence. The returned bool reports navigation
// success; navigation failures are logged, not returned as errors. Only a
// malformed URL, an unopened session or a canceled context yield an error.
func (s *Session) Navigate(ctx context.Context, rawURL string) (bool, error) {
	if !s.open {
		return false, ErrNotOpen
	}
	if err := ValidateURL(rawURL); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.logger.Info("navigating", zap.String("url", rawURL))

	_, err := s.page.Goto(rawURL, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(s.opts.Timeout.Milliseconds())),
	})
	if err != nil {
		s.logger.Error("navigation failed", zap.String("url", rawURL), zap.Error(err))
		return false, nil
	}

	// Dynamic pages keep loading after domcontentloaded. A timeout here is
	// tolerated: whatever has rendered is still worth detecting.
	if err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(float64(s.opts.NetworkIdleWait.Milliseconds())),
	}); err != nil {
		s.logger.Debug("network idle wait elapsed", zap.String("url", rawURL), zap.Error(err))
	}

	s.logger.Info("page loaded", zap.String("url", s.page.URL()))
	return true, nil
}

// CurrentURL returns the URL of the owned tab, or an empty string when the
// session is not open.
func (s *Session) CurrentURL() string {
	if !s.open {
		return ""
	}
	return s.page.URL()
}

// Page returns the live-page accessor for the owned tab, or nil when the
// session is not open.
func (s *Session) Page() Page {
	if !s.open {
		return nil
	}
	return &pwPage{page: s.page}
}

// Close releases the tab and its context. Idempotent.
func (s *Session) Close() {
	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}
	if s.context != nil {
		_ = s.context.Close()
		s.context = nil
	}
	s.open = false
}

// Shutdown releases the tab, the browser process and the driver. Idempotent.
func (s *Session) Shutdown() {
	s.Close()

	if s.browser != nil {
		_ = s.browser.Close()
		s.browser = nil
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			s.logger.Warn("stopping browser driver", zap.Error(err))
		}
		s.pw = nil
	}
}
