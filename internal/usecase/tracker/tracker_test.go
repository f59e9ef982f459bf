package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"broker-removal/internal/domain/catalog"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/infrastructure/logger"
	"broker-removal/internal/infrastructure/storage/memory"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store   *memory.Store
	clock   *testclock.Clock
	tracker *Tracker
	user    *entity.UserProfile
	brokers []entity.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		store: memory.New(),
		clock: testclock.NewClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)),
		user:  &entity.UserProfile{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"},
	}
	f.tracker = New(f.store, f.store, nil, logger.NewNop(), f.clock)

	require.NoError(t, f.store.CreateUser(ctx, f.user))
	_, err := f.store.SeedBrokers(ctx, catalog.Brokers())
	require.NoError(t, err)
	f.brokers, err = f.store.ListBrokers(ctx)
	require.NoError(t, err)
	return f
}

func (f *fixture) request(t *testing.T, brokerID string) *entity.RemovalRequest {
	t.Helper()
	r, err := f.store.GetRequest(context.Background(), f.user.ID, brokerID)
	require.NoError(t, err)
	return r
}

func outcome(status entity.RequestStatus, msg string) *entity.Outcome {
	return &entity.Outcome{
		Status:      status,
		Succeeded:   status == entity.StatusInProgress,
		Message:     msg,
		ProcessedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestBulkCreate_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.tracker.BulkCreate(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, res.Created)
	assert.Equal(t, 8, res.TotalBrokers)

	res, err = f.tracker.BulkCreate(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 8, res.TotalBrokers)

	requests, err := f.store.ListRequests(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, requests, 8)

	seen := make(map[string]bool)
	for _, r := range requests {
		assert.False(t, seen[r.BrokerID], "duplicate request for %s", r.BrokerID)
		seen[r.BrokerID] = true
		assert.Equal(t, entity.StatusPending, r.Status)
	}
	for _, b := range f.brokers {
		assert.True(t, seen[b.ID], "no request for %s", b.Name)
	}
}

func TestBulkCreate_UnknownUser(t *testing.T) {
	f := newFixture(t)
	_, err := f.tracker.BulkCreate(context.Background(), "nobody")
	assert.ErrorIs(t, err, entity.ErrUserNotFound)
}

func TestLifecycle_CompletedAtOnlyWhenCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brokers[0]

	_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
	require.NoError(t, err)

	require.NoError(t, f.tracker.MarkStarted(ctx, f.user.ID, b.ID))
	r := f.request(t, b.ID)
	assert.Equal(t, entity.StatusInProgress, r.Status)
	assert.Equal(t, "automated", r.MethodUsed)
	assert.Nil(t, r.CompletedAt)

	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, b.ID, outcome(entity.StatusRequiresManual, "Could not locate profile")))
	r = f.request(t, b.ID)
	assert.Equal(t, entity.StatusRequiresManual, r.Status)
	assert.Equal(t, "Could not locate profile", r.Notes)
	assert.Nil(t, r.CompletedAt)

	result := r.ConfirmationDetails["automation_result"].(map[string]any)
	assert.Equal(t, "requires_manual", result["status"])
	assert.Equal(t, "2026-05-01T09:00:00Z", r.ConfirmationDetails["processed_at"])

	f.clock.Advance(time.Hour)
	done, err := f.tracker.MarkManualComplete(ctx, f.user.ID, b.ID, "Opt-out confirmed by email")
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), *done.CompletedAt)
	assert.Contains(t, done.Notes, "Opt-out confirmed by email")

	_, err = f.tracker.MarkManualComplete(ctx, f.user.ID, b.ID, "")
	assert.ErrorIs(t, err, entity.ErrInvalidTransition, "completed is terminal")
}

func TestApplyOutcome_RejectsInvalidTransition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brokers[0]
	_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
	require.NoError(t, err)

	err = f.tracker.ApplyOutcome(ctx, f.user.ID, b.ID, outcome(entity.StatusFailed, "boom"))
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Equal(t, entity.StatusPending, f.request(t, b.ID).Status)
}

func TestApplyOutcome_UnknownRequest(t *testing.T) {
	f := newFixture(t)
	err := f.tracker.ApplyOutcome(context.Background(), f.user.ID, f.brokers[0].ID, outcome(entity.StatusInProgress, "ok"))
	assert.ErrorIs(t, err, entity.ErrRequestNotFound)
}

func TestBeginRetry_CountIncreases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brokers[1]
	_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
	require.NoError(t, err)

	require.NoError(t, f.tracker.MarkStarted(ctx, f.user.ID, b.ID))
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, b.ID, outcome(entity.StatusFailed, "timeout")))

	err = f.tracker.MarkStarted(ctx, f.user.ID, b.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition, "failed requests need an explicit retry")

	last := 0
	for i := 1; i <= 3; i++ {
		r, err := f.tracker.BeginRetry(ctx, f.user.ID, b.ID)
		require.NoError(t, err)
		assert.Greater(t, r.RetryCount, last)
		assert.Equal(t, entity.StatusInProgress, r.Status)
		assert.Nil(t, r.NextRetryAt)
		last = r.RetryCount

		require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, b.ID, outcome(entity.StatusFailed, "timeout")))
	}
	assert.Equal(t, 3, f.request(t, b.ID).RetryCount)
}

func TestBeginAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending, failed, done := f.brokers[0], f.brokers[1], f.brokers[2]
	for _, b := range []entity.Broker{pending, failed, done} {
		_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
		require.NoError(t, err)
	}

	require.NoError(t, f.tracker.BeginAttempt(ctx, f.user.ID, pending.ID))
	r := f.request(t, pending.ID)
	assert.Equal(t, entity.StatusInProgress, r.Status)
	assert.Equal(t, "automated", r.MethodUsed)
	assert.Zero(t, r.RetryCount)

	require.NoError(t, f.tracker.MarkStarted(ctx, f.user.ID, failed.ID))
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, failed.ID, outcome(entity.StatusFailed, "timeout")))
	require.NoError(t, f.tracker.BeginAttempt(ctx, f.user.ID, failed.ID))
	r = f.request(t, failed.ID)
	assert.Equal(t, entity.StatusInProgress, r.Status)
	assert.Equal(t, 1, r.RetryCount)
	assert.Equal(t, "Retry #1 started", r.Notes)
	assert.Nil(t, r.NextRetryAt)

	require.NoError(t, f.tracker.MarkStarted(ctx, f.user.ID, done.ID))
	_, err := f.tracker.MarkManualComplete(ctx, f.user.ID, done.ID, "")
	require.NoError(t, err)
	assert.ErrorIs(t, f.tracker.BeginAttempt(ctx, f.user.ID, done.ID), entity.ErrInvalidTransition)
}

func TestApplyOutcome_FailureSchedulesRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brokers[1]
	_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
	require.NoError(t, err)

	require.NoError(t, f.tracker.MarkStarted(ctx, f.user.ID, b.ID))
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, b.ID, outcome(entity.StatusFailed, "timeout")))
	r := f.request(t, b.ID)
	require.NotNil(t, r.NextRetryAt)
	assert.Equal(t, f.clock.Now().UTC().Add(time.Hour), *r.NextRetryAt)

	_, err = f.tracker.BeginRetry(ctx, f.user.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, b.ID, outcome(entity.StatusFailed, "timeout")))
	r = f.request(t, b.ID)
	require.NotNil(t, r.NextRetryAt)
	assert.Equal(t, f.clock.Now().UTC().Add(2*time.Hour), *r.NextRetryAt)

	_, err = f.tracker.BeginRetry(ctx, f.user.ID, b.ID)
	require.NoError(t, err)
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, b.ID, outcome(entity.StatusInProgress, "submitted")))
	assert.Nil(t, f.request(t, b.ID).NextRetryAt)
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Hour, RetryBackoff(0))
	assert.Equal(t, 2*time.Hour, RetryBackoff(1))
	assert.Equal(t, 16*time.Hour, RetryBackoff(4))
	assert.Equal(t, 24*time.Hour, RetryBackoff(5))
	assert.Equal(t, 24*time.Hour, RetryBackoff(100))
}

func TestBeginRetry_OnlyFromFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brokers[0]
	_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
	require.NoError(t, err)

	_, err = f.tracker.BeginRetry(ctx, f.user.ID, b.ID)
	assert.ErrorIs(t, err, entity.ErrInvalidTransition)
	assert.Zero(t, f.request(t, b.ID).RetryCount)
}

func TestRouteManual(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brokers[3]
	_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
	require.NoError(t, err)

	require.NoError(t, f.tracker.RouteManual(ctx, f.user.ID, b.ID, "PeopleFinder requires manual removal"))
	r := f.request(t, b.ID)
	assert.Equal(t, entity.StatusRequiresManual, r.Status)
	assert.Equal(t, "manual", r.MethodUsed)

	assert.ErrorIs(t, f.tracker.RouteManual(ctx, f.user.ID, b.ID, ""), entity.ErrInvalidTransition)
}

func TestSummarize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	empty, err := f.tracker.Summarize(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalRequests)
	assert.Equal(t, 8, empty.TotalBrokers)
	assert.Zero(t, empty.SuccessRate)

	_, err = f.tracker.BulkCreate(ctx, f.user.ID)
	require.NoError(t, err)

	// 0: completed via manual, 1: failed, 2: requires_manual, 3: in_progress.
	ids := []string{f.brokers[0].ID, f.brokers[1].ID, f.brokers[2].ID, f.brokers[4].ID}
	for _, id := range ids {
		require.NoError(t, f.tracker.MarkStarted(ctx, f.user.ID, id))
	}
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, ids[0], outcome(entity.StatusRequiresManual, "")))
	_, err = f.tracker.MarkManualComplete(ctx, f.user.ID, ids[0], "")
	require.NoError(t, err)
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, ids[1], outcome(entity.StatusFailed, "")))
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, ids[2], outcome(entity.StatusRequiresManual, "")))
	require.NoError(t, f.tracker.ApplyOutcome(ctx, f.user.ID, ids[3], outcome(entity.StatusInProgress, "")))

	s, err := f.tracker.Summarize(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.Summary{
		TotalBrokers:   8,
		TotalRequests:  8,
		Pending:        4,
		InProgress:     1,
		Completed:      1,
		Failed:         1,
		RequiresManual: 1,
		SuccessRate:    12.5,
	}, *s)
}

func TestMutate_SerializesPerPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.brokers[0]
	_, _, err := f.tracker.Create(ctx, f.user.ID, &b)
	require.NoError(t, err)

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tracker.mutate(ctx, f.user.ID, b.ID, func(r *entity.RemovalRequest, _ time.Time) error {
				r.RetryCount++
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, f.request(t, b.ID).RetryCount)
}
