// Package render produces page screenshots with headless Chrome and loads
// screenshot references handed in by clients.
package render

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/chromedp/chromedp"

	"phish_backend/internal/feature/reversesearch/usecase"
)

// Config controls the headless browser.
type Config struct {
	// Timeout bounds a single render. Defaults to 20s.
	Timeout time.Duration
	Width   int64
	Height  int64
	// ExecPath selects the browser binary; empty means chromedp's lookup.
	ExecPath string
}

// ChromeRenderer implements usecase.Renderer. Every render opens a fresh tab
// in one shared browser process.
type ChromeRenderer struct {
	cfg         Config
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
}

var _ usecase.Renderer = (*ChromeRenderer)(nil)

// NewChromeRenderer prepares a browser allocator. The browser itself starts
// on the first render.
func NewChromeRenderer(cfg Config) *ChromeRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 800
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(int(cfg.Width), int(cfg.Height)),
		chromedp.Flag("ignore-certificate-errors", true),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeRenderer{cfg: cfg, allocCtx: allocCtx, cancelAlloc: cancel}
}

// Close shuts the browser down.
func (r *ChromeRenderer) Close() {
	r.cancelAlloc()
}

// Render navigates to rawURL and returns a PNG of the viewport.
func (r *ChromeRenderer) Render(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("cannot render %q: unsupported scheme %q", rawURL, u.Scheme)
	}

	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.cfg.Timeout)
	defer cancelTimeout()

	var buf []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(r.cfg.Width, r.cfg.Height),
		chromedp.Navigate(u.String()),
		chromedp.CaptureScreenshot(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}
	return buf, nil
}
