package engine

import (
	"context"
	"time"

	"github.com/juju/clock"
)

// Politeness spaces consecutive broker runs of one batch so target sites do
// not see a burst of automated submissions.
type Politeness struct {
	delay time.Duration
	clock clock.Clock
}

func NewPoliteness(delay time.Duration, clk clock.Clock) *Politeness {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Politeness{delay: delay, clock: clk}
}

func (p *Politeness) Delay() time.Duration {
	return p.delay
}

// Wait blocks for the configured delay. It returns early with the context
// error when the batch is cancelled.
func (p *Politeness) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.clock.After(p.delay):
		return nil
	}
}
