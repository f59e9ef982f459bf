package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/infrastructure/browser/fakebrowser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimedSession(t *testing.T) {
	b := fakebrowser.New(fakebrowser.Site{
		Present: map[string]int{"#ok": 1},
		Block: map[string]bool{
			"fill #slow":   true,
			"submit #slow": true,
		},
	})
	raw, err := b.NewSession(context.Background())
	require.NoError(t, err)

	s := withStepTimeouts(raw, Timeouts{
		Navigation:   time.Second,
		Interaction:  10 * time.Millisecond,
		Submission:   10 * time.Millisecond,
		Confirmation: time.Second,
	})
	ctx := context.Background()

	assert.NoError(t, s.Fill(ctx, "#ok", "x"))

	err = s.Fill(ctx, "#slow", "x")
	assert.ErrorIs(t, err, output.ErrElementNotFound)

	err = s.Submit(ctx, "#slow")
	assert.ErrorIs(t, err, output.ErrNavigation)

	n, err := s.Count(ctx, "#ok")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTimedSession_ParentCancelIsNotATimeout(t *testing.T) {
	b := fakebrowser.New(fakebrowser.Site{Block: map[string]bool{"fill #slow": true}})
	raw, err := b.NewSession(context.Background())
	require.NoError(t, err)

	s := withStepTimeouts(raw, Timeouts{Interaction: time.Minute})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err = s.Fill(ctx, "#slow", "x")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, errors.Is(err, output.ErrElementNotFound))
}
