package di

import (
	"context"
	"sync"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/infrastructure/browser/rod"
)

// lazyBrowser starts Chrome on the first session request. A failed launch
// is retried on the next request.
type lazyBrowser struct {
	cfg    rod.BrowserConfig
	logger output.LoggerPort

	mu      sync.Mutex
	browser *rod.Browser
	closed  bool
}

var _ output.BrowserPort = (*lazyBrowser)(nil)

func newLazyBrowser(cfg rod.BrowserConfig, logger output.LoggerPort) *lazyBrowser {
	return &lazyBrowser{cfg: cfg, logger: logger}
}

func (b *lazyBrowser) NewSession(ctx context.Context) (output.SessionPort, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, output.ErrBrowserClosed
	}
	if b.browser == nil {
		browser, err := rod.NewBrowser(ctx, b.cfg)
		if err != nil {
			b.mu.Unlock()
			return nil, err
		}
		b.logger.Info("Browser started", "headless", b.cfg.Headless)
		b.browser = browser
	}
	browser := b.browser
	b.mu.Unlock()

	return browser.NewSession(ctx)
}

func (b *lazyBrowser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	if b.browser != nil {
		b.browser.Close()
		b.browser = nil
	}
}
