// Package fakebrowser is a scripted stand-in for the browser driver used by
// tests: pages are described by which selectors exist and what HTML they
// render.
package fakebrowser

import (
	"context"
	"fmt"
	"sync"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
)

var (
	_ output.BrowserPort = (*Browser)(nil)
	_ output.SessionPort = (*Session)(nil)
)

// Site describes the fake page state seen by a session.
type Site struct {
	// Present maps a selector to the number of matching elements.
	Present map[string]int
	// Texts lists text markers visible on the page.
	Texts map[string]bool
	HTML  string
	// Errors forces an error for "<op> <arg>", e.g. "navigate https://x".
	Errors map[string]error
	// Block makes "<op> <arg>" wait until its context is done.
	Block map[string]bool
}

// Browser hands out sessions. SiteFor picks the site per navigated URL;
// when nil, Default is used for every URL.
type Browser struct {
	mu       sync.Mutex
	Default  Site
	Sites    map[string]Site
	sessions []*Session
	closed   bool
	NewErr   error
}

func New(site Site) *Browser {
	return &Browser{Default: site, Sites: make(map[string]Site)}
}

func (b *Browser) NewSession(ctx context.Context) (output.SessionPort, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.NewErr != nil {
		return nil, b.NewErr
	}
	if b.closed {
		return nil, output.ErrBrowserClosed
	}
	s := &Session{browser: b, site: b.Default}
	b.sessions = append(b.sessions, s)
	return s, nil
}

func (b *Browser) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
}

func (b *Browser) Sessions() []*Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Session(nil), b.sessions...)
}

func (b *Browser) siteFor(url string) Site {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.Sites[url]; ok {
		return s
	}
	return b.Default
}

type Session struct {
	browser *Browser
	mu      sync.Mutex
	site    Site
	url     string
	calls   []string
	closed  bool
}

// Calls returns the recorded operations in order.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) step(ctx context.Context, op, arg string) error {
	s.mu.Lock()
	s.calls = append(s.calls, op+" "+arg)
	site := s.site
	s.mu.Unlock()

	key := op + " " + arg
	if site.Block[key] {
		<-ctx.Done()
		return ctx.Err()
	}
	if err := site.Errors[key]; err != nil {
		return err
	}
	return ctx.Err()
}

func (s *Session) requirePresent(sel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.site.Present[sel] == 0 {
		return fmt.Errorf("%w: %s", output.ErrElementNotFound, sel)
	}
	return nil
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.step(ctx, "navigate", url); err != nil {
		return err
	}
	site := s.browser.siteFor(url)
	s.mu.Lock()
	s.url = url
	s.site = site
	s.mu.Unlock()
	return nil
}

func (s *Session) Fill(ctx context.Context, selector, text string) error {
	if err := s.step(ctx, "fill", selector); err != nil {
		return err
	}
	if err := s.requirePresent(selector); err != nil {
		return err
	}
	s.mu.Lock()
	s.calls = append(s.calls, "value "+text)
	s.mu.Unlock()
	return nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	if err := s.step(ctx, "click", selector); err != nil {
		return err
	}
	return s.requirePresent(selector)
}

func (s *Session) ClickNth(ctx context.Context, selector string, index int) error {
	if err := s.step(ctx, "click_nth", selector); err != nil {
		return err
	}
	s.mu.Lock()
	n := s.site.Present[selector]
	s.mu.Unlock()
	if index >= n {
		return fmt.Errorf("%w: %s[%d]", output.ErrElementNotFound, selector, index)
	}
	return nil
}

func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	if err := s.step(ctx, "select", selector); err != nil {
		return err
	}
	return s.requirePresent(selector)
}

func (s *Session) Check(ctx context.Context, selector string) error {
	if err := s.step(ctx, "check", selector); err != nil {
		return err
	}
	return s.requirePresent(selector)
}

func (s *Session) Submit(ctx context.Context, selector string) error {
	if err := s.step(ctx, "submit", selector); err != nil {
		return err
	}
	return s.requirePresent(selector)
}

func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	if err := s.step(ctx, "wait", selector); err != nil {
		return err
	}
	return s.requirePresent(selector)
}

func (s *Session) WaitText(ctx context.Context, text string) error {
	if err := s.step(ctx, "wait_text", text); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.site.Texts[text] {
		return fmt.Errorf("%w: text %q", output.ErrElementNotFound, text)
	}
	return nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	if err := s.step(ctx, "count", selector); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.site.Present[selector], nil
}

func (s *Session) PageHTML(ctx context.Context) (string, error) {
	if err := s.step(ctx, "html", ""); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.site.HTML, nil
}

func (s *Session) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	if err := s.step(ctx, "screenshot", ""); err != nil {
		return nil, err
	}
	return &entity.Screenshot{Data: []byte{0xff, 0xd8}, Format: "jpeg", Width: 1, Height: 1}, nil
}

func (s *Session) CurrentURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
