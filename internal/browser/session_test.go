package browser

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com/careers/apply",
		"http://jobs.example.com?id=42",
	}
	for _, raw := range valid {
		if err := ValidateURL(raw); err != nil {
			t.Errorf("expected %q to be valid, got %v", raw, err)
		}
	}

	invalid := []string{
		"",
		"example.com/apply",
		"ftp://example.com",
		"https://",
		"not a url at all",
	}
	for _, raw := range invalid {
		err := ValidateURL(raw)
		if err == nil {
			t.Errorf("expected %q to be rejected", raw)
			continue
		}
		if !errors.Is(err, ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL for %q, got %v", raw, err)
		}
	}
}

func TestNavigateRequiresOpenSession(t *testing.T) {
	s := NewSession(Options{}, nil)

	ok, err := s.Navigate(context.Background(), "https://example.com")
	if ok {
		t.Fatal("navigation must not succeed on an unopened session")
	}
	if !errors.Is(err, ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestNavigateRejectsMalformedURLBeforeOpening(t *testing.T) {
	s := NewSession(Options{}, nil)
	s.open = true // URL validation must run before any page access

	ok, err := s.Navigate(context.Background(), "://broken")
	if ok {
		t.Fatal("navigation must fail for a malformed url")
	}
	if !errors.Is(err, ErrInvalidURL) {
		t.Fatalf("expected ErrInvalidURL, got %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}.withDefaults()

	if opts.Timeout != DefaultTimeout {
		t.Errorf("unexpected timeout: %v", opts.Timeout)
	}
	if opts.NetworkIdleWait != DefaultNetworkIdleWait {
		t.Errorf("unexpected network idle wait: %v", opts.NetworkIdleWait)
	}
	if opts.ViewportWidth != DefaultViewportWidth || opts.ViewportHeight != DefaultViewportHeight {
		t.Errorf("unexpected viewport: %dx%d", opts.ViewportWidth, opts.ViewportHeight)
	}
	if opts.UserAgent == "" {
		t.Error("expected a default user agent")
	}
}

func TestOptionsOverridesKept(t *testing.T) {
	opts := Options{Timeout: time.Second, ViewportWidth: 800}.withDefaults()

	if opts.Timeout != time.Second {
		t.Errorf("override lost: %v", opts.Timeout)
	}
	if opts.ViewportWidth != 800 {
		t.Errorf("override lost: %d", opts.ViewportWidth)
	}
}

func TestCloseAndShutdownAreIdempotent(t *testing.T) {
	s := NewSession(Options{}, nil)

	s.Close()
	s.Close()
	s.Shutdown()
	s.Shutdown()

	if s.Page() != nil {
		t.Fatal("closed session must not expose a page")
	}
	if s.CurrentURL() != "" {
		t.Fatal("closed session must not report a url")
	}
}
