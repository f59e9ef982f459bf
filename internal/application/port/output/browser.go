package output

import (
	"context"
	"errors"

	"broker-removal/internal/domain/entity"
)

var (
	// ErrElementNotFound means an expected selector or text marker never
	// showed up before the step deadline.
	ErrElementNotFound = errors.New("element not found")
	// ErrNavigation covers page loads that failed or timed out.
	ErrNavigation    = errors.New("navigation failed")
	ErrBrowserClosed = errors.New("browser closed")
)

// BrowserPort is the process-wide browser. Each batch works in its own
// session so cookies never leak between users.
type BrowserPort interface {
	NewSession(ctx context.Context) (SessionPort, error)
	Close()
}

type SessionPort interface {
	Navigate(ctx context.Context, url string) error
	Fill(ctx context.Context, selector, text string) error
	Click(ctx context.Context, selector string) error
	ClickNth(ctx context.Context, selector string, index int) error
	SelectOption(ctx context.Context, selector, value string) error
	Check(ctx context.Context, selector string) error
	// Submit clicks a submit control and waits for the resulting page to settle.
	Submit(ctx context.Context, selector string) error

	WaitVisible(ctx context.Context, selector string) error
	WaitText(ctx context.Context, text string) error
	Count(ctx context.Context, selector string) (int, error)

	PageHTML(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) (*entity.Screenshot, error)
	CurrentURL() string

	Close() error
}
