// Package snapshot renders the page in a headless browser and captures it as PNG.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	DefaultWidth   = 1280
	DefaultHeight  = 1024
	DefaultTimeout = 30 * time.Second
	// globe.gl draws into a canvas inside #globe, the placeholder page has none
	globeSelector = "#globe canvas"
	settleDelay   = 2 * time.Second
)

// ErrEmptyScreenshot is returned when the browser produced no image
var ErrEmptyScreenshot = errors.New("browser returned an empty screenshot")

// Options controls a capture
type Options struct {
	Width   int
	Height  int
	Timeout time.Duration
	// WaitForGlobe waits for the globe canvas instead of just the body
	WaitForGlobe bool
	// ExecPath overrides the browser binary
	ExecPath string
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

type Capturer struct {
	logger *zap.Logger
}

func NewCapturer(logger *zap.Logger) *Capturer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capturer{logger: logger}
}

// ValidateURL accepts absolute http and https URLs only
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", rawURL)
	}
	return nil
}

// Capture loads pageURL and returns a PNG screenshot of the viewport
func (c *Capturer) Capture(ctx context.Context, pageURL string, opts Options) ([]byte, error) {
	if err := ValidateURL(pageURL); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	c.logger.Info("Capturing page", zap.String("url", pageURL), zap.Int("width", opts.Width), zap.Int("height", opts.Height))

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	selector := "body"
	if opts.WaitForGlobe {
		selector = globeSelector
	}

	var screenshot []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.CaptureScreenshot(&screenshot),
	)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", pageURL, err)
	}
	if len(screenshot) == 0 {
		return nil, ErrEmptyScreenshot
	}

	c.logger.Info("Captured page", zap.String("url", pageURL), zap.Int("bytes", len(screenshot)))
	return screenshot, nil
}

// WriteFile stores a screenshot at path, creating parent directories
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
