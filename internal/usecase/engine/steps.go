package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
)

// Timeouts bounds every driver call an adapter makes. The batch as a whole
// has no deadline of its own.
type Timeouts struct {
	Navigation   time.Duration
	Interaction  time.Duration
	Submission   time.Duration
	Confirmation time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation:   30 * time.Second,
		Interaction:  10 * time.Second,
		Submission:   15 * time.Second,
		Confirmation: 10 * time.Second,
	}
}

var _ output.SessionPort = (*timedSession)(nil)

// timedSession wraps a session so every call runs under its step deadline.
// An expired element wait reads as a missing element; an expired page load
// reads as a navigation failure.
type timedSession struct {
	output.SessionPort
	timeouts Timeouts
}

func withStepTimeouts(s output.SessionPort, t Timeouts) *timedSession {
	return &timedSession{SessionPort: s, timeouts: t}
}

func (s *timedSession) run(ctx context.Context, d time.Duration, onExpiry error, what string, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	stepCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	err := fn(stepCtx)
	if err != nil && errors.Is(stepCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		if errors.Is(err, onExpiry) {
			return err
		}
		return fmt.Errorf("%w: %s: timed out after %s", onExpiry, what, d)
	}
	return err
}

func (s *timedSession) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, s.timeouts.Navigation, output.ErrNavigation, url, func(ctx context.Context) error {
		return s.SessionPort.Navigate(ctx, url)
	})
}

func (s *timedSession) Fill(ctx context.Context, selector, text string) error {
	return s.run(ctx, s.timeouts.Interaction, output.ErrElementNotFound, selector, func(ctx context.Context) error {
		return s.SessionPort.Fill(ctx, selector, text)
	})
}

func (s *timedSession) Click(ctx context.Context, selector string) error {
	return s.run(ctx, s.timeouts.Interaction, output.ErrElementNotFound, selector, func(ctx context.Context) error {
		return s.SessionPort.Click(ctx, selector)
	})
}

func (s *timedSession) ClickNth(ctx context.Context, selector string, index int) error {
	return s.run(ctx, s.timeouts.Interaction, output.ErrElementNotFound, selector, func(ctx context.Context) error {
		return s.SessionPort.ClickNth(ctx, selector, index)
	})
}

func (s *timedSession) SelectOption(ctx context.Context, selector, value string) error {
	return s.run(ctx, s.timeouts.Interaction, output.ErrElementNotFound, selector, func(ctx context.Context) error {
		return s.SessionPort.SelectOption(ctx, selector, value)
	})
}

func (s *timedSession) Check(ctx context.Context, selector string) error {
	return s.run(ctx, s.timeouts.Interaction, output.ErrElementNotFound, selector, func(ctx context.Context) error {
		return s.SessionPort.Check(ctx, selector)
	})
}

// Submit deadlines surface as navigation failures: the control was there,
// the site did not answer.
func (s *timedSession) Submit(ctx context.Context, selector string) error {
	return s.run(ctx, s.timeouts.Submission, output.ErrNavigation, selector, func(ctx context.Context) error {
		return s.SessionPort.Submit(ctx, selector)
	})
}

func (s *timedSession) WaitVisible(ctx context.Context, selector string) error {
	return s.run(ctx, s.timeouts.Confirmation, output.ErrElementNotFound, selector, func(ctx context.Context) error {
		return s.SessionPort.WaitVisible(ctx, selector)
	})
}

func (s *timedSession) WaitText(ctx context.Context, text string) error {
	return s.run(ctx, s.timeouts.Confirmation, output.ErrElementNotFound, text, func(ctx context.Context) error {
		return s.SessionPort.WaitText(ctx, text)
	})
}

func (s *timedSession) Count(ctx context.Context, selector string) (int, error) {
	var n int
	err := s.run(ctx, s.timeouts.Interaction, output.ErrElementNotFound, selector, func(ctx context.Context) error {
		var err error
		n, err = s.SessionPort.Count(ctx, selector)
		return err
	})
	return n, err
}

func (s *timedSession) PageHTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.timeouts.Interaction, output.ErrNavigation, "page html", func(ctx context.Context) error {
		var err error
		html, err = s.SessionPort.PageHTML(ctx)
		return err
	})
	return html, err
}

func (s *timedSession) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	var shot *entity.Screenshot
	err := s.run(ctx, s.timeouts.Interaction, output.ErrNavigation, "screenshot", func(ctx context.Context) error {
		var err error
		shot, err = s.SessionPort.Screenshot(ctx)
		return err
	})
	return shot, err
}
