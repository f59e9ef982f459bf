package rod

import (
	"context"
	"fmt"
	"sync"
	"time"

	"broker-removal/internal/application/port/output"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

var _ output.BrowserPort = (*Browser)(nil)

const (
	defaultSettle         = 500 * time.Millisecond
	defaultScreenshotJPEG = 80
)

type BrowserConfig struct {
	Headless   bool
	NoSandbox  bool
	SlowMotion time.Duration
	// Settle is how long the DOM must stay quiet after a submit.
	Settle time.Duration
	// Bin points at a local Chrome; empty lets the launcher download one.
	Bin string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:   true,
		NoSandbox:  false,
		SlowMotion: 0,
		Settle:     defaultSettle,
	}
}

// Browser owns the Chrome process. Sessions are incognito contexts on top of
// it, so one process serves every concurrent batch.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      BrowserConfig

	mu     sync.Mutex
	closed bool
}

func NewBrowser(ctx context.Context, cfg BrowserConfig) (*Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Settle <= 0 {
		cfg.Settle = defaultSettle
	}

	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox).
		Delete("use-mock-keychain")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{
		browser:  browser,
		launcher: l,
		cfg:      cfg,
	}, nil
}

func (b *Browser) NewSession(ctx context.Context) (output.SessionPort, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil, output.ErrBrowserClosed
	}

	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, fmt.Errorf("failed to open incognito context: %w", err)
	}
	// Detach from the caller's ctx; steps bind their own.
	incognito = incognito.Context(context.Background())

	page, err := incognito.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = incognito.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Session{
		context: incognito,
		page:    page,
		settle:  b.cfg.Settle,
	}, nil
}

// Close stops Chrome. Open sessions fail on their next step.
func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true

	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}
