package rod

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"net/url"
	"regexp"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

// ErrInvalidURL is returned for targets that are not http(s).
var ErrInvalidURL = fmt.Errorf("%w: invalid url", output.ErrNavigation)

var _ output.SessionPort = (*Session)(nil)

// Session is one incognito browser context with a single tab. Every step
// binds the caller's ctx to the page, so deadlines and cancellation abort
// the pending CDP call.
type Session struct {
	context *rod.Browser
	page    *rod.Page
	settle  time.Duration
}

func (s *Session) Navigate(ctx context.Context, target string) error {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, target)
	}

	p := s.page.Context(ctx)
	if err := p.Navigate(target); err != nil {
		return navigationErr(ctx, target, err)
	}
	if err := p.WaitLoad(); err != nil {
		return navigationErr(ctx, target, err)
	}
	return nil
}

func (s *Session) Fill(ctx context.Context, selector, text string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input %s: %w", selector, err)
	}
	return nil
}

func (s *Session) Click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s: %w", selector, err)
	}
	return nil
}

func (s *Session) ClickNth(ctx context.Context, selector string, index int) error {
	if _, err := s.element(ctx, selector); err != nil {
		return err
	}
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return elementErr(ctx, selector, err)
	}
	if index < 0 || index >= len(els) {
		return fmt.Errorf("%w: %s[%d] of %d", output.ErrElementNotFound, selector, index, len(els))
	}
	if err := els[index].Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click %s[%d]: %w", selector, index, err)
	}
	return nil
}

// SelectOption picks an option by its value attribute, then by visible text.
func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}

	byValue := fmt.Sprintf("option[value=%q]", value)
	if err := el.Select([]string{byValue}, true, rod.SelectorTypeCSSSector); err == nil {
		return nil
	}
	if err := el.Select([]string{"^" + regexp.QuoteMeta(value) + "$"}, true, rod.SelectorTypeRegex); err != nil {
		return fmt.Errorf("%w: option %q in %s", output.ErrElementNotFound, value, selector)
	}
	return nil
}

func (s *Session) Check(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	checked, err := el.Property("checked")
	if err != nil {
		return fmt.Errorf("read %s: %w", selector, err)
	}
	if checked.Bool() {
		return nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("check %s: %w", selector, err)
	}
	return nil
}

func (s *Session) Submit(ctx context.Context, selector string) error {
	if err := s.Click(ctx, selector); err != nil {
		return err
	}
	if err := s.page.Context(ctx).WaitStable(s.settle); err != nil {
		return navigationErr(ctx, selector, err)
	}
	return nil
}

func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.WaitVisible(); err != nil {
		return elementErr(ctx, selector, err)
	}
	return nil
}

// WaitText waits until the body text contains text, case-insensitively.
func (s *Session) WaitText(ctx context.Context, text string) error {
	pattern := "/" + regexp.QuoteMeta(text) + "/i"
	if _, err := s.page.Context(ctx).ElementR("body", pattern); err != nil {
		return elementErr(ctx, "text "+text, err)
	}
	return nil
}

func (s *Session) Count(ctx context.Context, selector string) (int, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return 0, elementErr(ctx, selector, err)
	}
	return len(els), nil
}

func (s *Session) PageHTML(ctx context.Context) (string, error) {
	html, err := s.page.Context(ctx).HTML()
	if err != nil {
		return "", navigationErr(ctx, "page html", err)
	}
	return html, nil
}

func (s *Session) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	data, err := s.page.Context(ctx).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(defaultScreenshotJPEG),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   data,
		Format: "jpeg",
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

func (s *Session) CurrentURL() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

// Close disposes the incognito context together with its cookies and tab.
func (s *Session) Close() error {
	_ = s.page.Close()
	if err := s.context.Close(); err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// element waits for selector until ctx expires.
func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Element(selector)
	if err != nil {
		return nil, elementErr(ctx, selector, err)
	}
	return el, nil
}

func elementErr(ctx context.Context, selector string, err error) error {
	var notFound *rod.ElementNotFoundError
	if errors.As(err, &notFound) || (errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil) {
		return fmt.Errorf("%w: %s: %w", output.ErrElementNotFound, selector, err)
	}
	return fmt.Errorf("%s: %w", selector, err)
}

func navigationErr(ctx context.Context, target string, err error) error {
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return err
	}
	return fmt.Errorf("%w: %s: %w", output.ErrNavigation, target, err)
}
