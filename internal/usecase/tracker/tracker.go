package tracker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/usecase/engine"

	"github.com/im7mortal/kmutex"
	"github.com/juju/clock"
)

var _ engine.OutcomeSink = (*Tracker)(nil)

// Tracker owns every status change of a removal request. Changes to one
// (user, broker) pair are serialized so a retry racing a batch run cannot
// lose an update.
type Tracker struct {
	profiles output.ProfileStore
	requests output.RequestStore
	locks    *kmutex.Kmutex
	metrics  output.MetricsPort
	logger   output.LoggerPort
	clock    clock.Clock
}

func New(profiles output.ProfileStore, requests output.RequestStore, metrics output.MetricsPort, logger output.LoggerPort, clk clock.Clock) *Tracker {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	if clk == nil {
		clk = clock.WallClock
	}
	return &Tracker{
		profiles: profiles,
		requests: requests,
		locks:    kmutex.New(),
		metrics:  metrics,
		logger:   logger,
		clock:    clk,
	}
}

func pairKey(userID, brokerID string) string {
	return userID + "|" + brokerID
}

// mutate loads the pair's request under its lock, lets fn change it and
// writes the result back.
func (t *Tracker) mutate(ctx context.Context, userID, brokerID string, fn func(r *entity.RemovalRequest, now time.Time) error) (*entity.RemovalRequest, error) {
	key := pairKey(userID, brokerID)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	r, err := t.requests.GetRequest(ctx, userID, brokerID)
	if err != nil {
		return nil, err
	}
	from := r.Status

	if err := fn(r, t.clock.Now().UTC()); err != nil {
		return nil, err
	}
	if err := t.requests.UpdateRequest(ctx, r.ID, entity.UpdateFrom(r)); err != nil {
		return nil, fmt.Errorf("update request %s: %w", r.ID, err)
	}

	t.metrics.RequestTransition(from, r.Status)
	t.logger.Debug("Request updated", "user_id", userID, "broker_id", brokerID, "from", from, "to", r.Status)
	return r, nil
}

// MarkStarted records that automation began for the pair. Failed requests
// must go through BeginRetry so the attempt is counted.
func (t *Tracker) MarkStarted(ctx context.Context, userID, brokerID string) error {
	_, err := t.mutate(ctx, userID, brokerID, func(r *entity.RemovalRequest, now time.Time) error {
		if r.Status == entity.StatusFailed {
			return fmt.Errorf("%w: failed request needs an explicit retry", entity.ErrInvalidTransition)
		}
		return start(r, now)
	})
	return err
}

// BeginAttempt is called by the engine right before an adapter runs. A
// failed request counts as a retry; any other request is marked started.
func (t *Tracker) BeginAttempt(ctx context.Context, userID, brokerID string) error {
	_, err := t.mutate(ctx, userID, brokerID, func(r *entity.RemovalRequest, now time.Time) error {
		if r.Status == entity.StatusFailed {
			return retry(r, now)
		}
		return start(r, now)
	})
	return err
}

// ApplyOutcome folds one adapter outcome into the pair's request. A failed
// outcome schedules the earliest next retry with exponential backoff.
func (t *Tracker) ApplyOutcome(ctx context.Context, userID, brokerID string, outcome *entity.Outcome) error {
	_, err := t.mutate(ctx, userID, brokerID, func(r *entity.RemovalRequest, now time.Time) error {
		if err := r.Transition(outcome.Status, now); err != nil {
			return err
		}
		r.Notes = outcome.Message
		r.ConfirmationDetails = map[string]any{
			"automation_result": automationResult(outcome),
			"processed_at":      outcome.ProcessedAt.UTC().Format(time.RFC3339),
		}
		r.NextRetryAt = nil
		if outcome.Status == entity.StatusFailed {
			next := now.Add(RetryBackoff(r.RetryCount))
			r.NextRetryAt = &next
		}
		return nil
	})
	return err
}

// BeginRetry moves a failed request back to in_progress and counts the
// attempt.
func (t *Tracker) BeginRetry(ctx context.Context, userID, brokerID string) (*entity.RemovalRequest, error) {
	return t.mutate(ctx, userID, brokerID, func(r *entity.RemovalRequest, now time.Time) error {
		if r.Status != entity.StatusFailed {
			return fmt.Errorf("%w: only failed requests can be retried, request is %s", entity.ErrInvalidTransition, r.Status)
		}
		return retry(r, now)
	})
}

const (
	baseRetryBackoff = time.Hour
	maxRetryBackoff  = 24 * time.Hour
)

// RetryBackoff is the wait suggested after a request failed with the given
// number of retries behind it: one hour, doubling, capped at a day.
func RetryBackoff(retries int) time.Duration {
	d := baseRetryBackoff
	for i := 0; i < retries && d < maxRetryBackoff; i++ {
		d *= 2
	}
	if d > maxRetryBackoff {
		d = maxRetryBackoff
	}
	return d
}

func start(r *entity.RemovalRequest, now time.Time) error {
	if err := r.Transition(entity.StatusInProgress, now); err != nil {
		return err
	}
	r.MethodUsed = "automated"
	return nil
}

func retry(r *entity.RemovalRequest, now time.Time) error {
	if err := start(r, now); err != nil {
		return err
	}
	r.RetryCount++
	r.NextRetryAt = nil
	r.Notes = fmt.Sprintf("Retry #%d started", r.RetryCount)
	return nil
}

// RouteManual sends a pending request down the manual path.
func (t *Tracker) RouteManual(ctx context.Context, userID, brokerID, reason string) error {
	_, err := t.mutate(ctx, userID, brokerID, func(r *entity.RemovalRequest, now time.Time) error {
		if r.Status != entity.StatusPending {
			return fmt.Errorf("%w: %s request cannot be routed to manual", entity.ErrInvalidTransition, r.Status)
		}
		if err := r.Transition(entity.StatusRequiresManual, now); err != nil {
			return err
		}
		r.MethodUsed = "manual"
		r.Notes = reason
		return nil
	})
	return err
}

// MarkManualComplete records the user's confirmation that the broker
// removed the data.
func (t *Tracker) MarkManualComplete(ctx context.Context, userID, brokerID, note string) (*entity.RemovalRequest, error) {
	return t.mutate(ctx, userID, brokerID, func(r *entity.RemovalRequest, now time.Time) error {
		if err := r.Transition(entity.StatusCompleted, now); err != nil {
			return err
		}
		note = strings.TrimSpace(note)
		if note == "" {
			note = "Marked complete by user"
		}
		if r.Notes != "" {
			r.Notes += "\n"
		}
		r.Notes += note
		return nil
	})
}

// Summarize counts the user's requests by status.
func (t *Tracker) Summarize(ctx context.Context, userID string) (*entity.Summary, error) {
	if _, err := t.profiles.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := t.requests.ListRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	brokers, err := t.profiles.ListBrokers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	summary := entity.Summarize(requests, len(brokers))
	return &summary, nil
}

// BulkCreate makes sure the user has one request per catalog broker.
// Running it again creates nothing.
func (t *Tracker) BulkCreate(ctx context.Context, userID string) (*entity.BulkCreateResult, error) {
	if _, err := t.profiles.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	brokers, err := t.profiles.ListBrokers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}

	res := &entity.BulkCreateResult{TotalBrokers: len(brokers)}
	for i := range brokers {
		_, created, err := t.Create(ctx, userID, &brokers[i])
		if err != nil {
			return nil, err
		}
		if created {
			res.Created++
		}
	}
	t.logger.Info("Bulk create finished", "user_id", userID, "created", res.Created, "total_brokers", res.TotalBrokers)
	return res, nil
}

// Create makes the pair's request if it does not exist yet.
func (t *Tracker) Create(ctx context.Context, userID string, broker *entity.Broker) (*entity.RemovalRequest, bool, error) {
	key := pairKey(userID, broker.ID)
	t.locks.Lock(key)
	defer t.locks.Unlock(key)

	r, created, err := t.requests.CreateRequest(ctx, userID, broker)
	if err != nil {
		return nil, false, fmt.Errorf("create request for %s: %w", broker.Name, err)
	}
	return r, created, nil
}

func automationResult(o *entity.Outcome) map[string]any {
	res := map[string]any{
		"broker_id":   o.BrokerID,
		"broker_name": o.BrokerName,
		"success":     o.Succeeded,
		"status":      string(o.Status),
		"message":     o.Message,
	}
	if o.FallbackURL != "" {
		res["fallback_url"] = o.FallbackURL
	}
	if len(o.Detail) > 0 {
		res["details"] = o.Detail
	}
	return res
}
