package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := map[RequestStatus][]RequestStatus{
		StatusPending:        {StatusInProgress, StatusRequiresManual},
		StatusInProgress:     {StatusInProgress, StatusCompleted, StatusFailed, StatusRequiresManual},
		StatusRequiresManual: {StatusCompleted},
		StatusFailed:         {StatusInProgress},
		StatusCompleted:      nil,
	}

	for from, targets := range allowed {
		for _, to := range AllStatuses {
			want := false
			for _, a := range targets {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTransition_CompletedAt(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := &RemovalRequest{Status: StatusPending}

	require.NoError(t, r.Transition(StatusInProgress, now))
	assert.Nil(t, r.CompletedAt)
	assert.Equal(t, now, r.UpdatedAt)

	require.NoError(t, r.Transition(StatusCompleted, now.Add(time.Minute)))
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, now.Add(time.Minute), *r.CompletedAt)

	err := r.Transition(StatusFailed, now)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusCompleted, r.Status)
}

func TestTransition_UnknownStatus(t *testing.T) {
	r := &RemovalRequest{Status: StatusPending}
	assert.ErrorIs(t, r.Transition("archived", time.Now()), ErrInvalidStatus)
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("requires_manual")
	require.NoError(t, err)
	assert.Equal(t, StatusRequiresManual, s)

	_, err = ParseStatus("done")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRequestUpdate_Apply(t *testing.T) {
	r := &RemovalRequest{Status: StatusPending, Notes: "old", RetryCount: 1}
	notes := "new"
	RequestUpdate{Notes: &notes}.Apply(r)

	assert.Equal(t, "new", r.Notes)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, 1, r.RetryCount)
}
