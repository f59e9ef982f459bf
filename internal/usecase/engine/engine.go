package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"

	"github.com/juju/clock"
)

// ErrManualBroker is returned when a batch contains a broker that has no
// automated removal path.
var ErrManualBroker = errors.New("broker requires manual removal")

// OutcomeSink persists what the engine observes. Calls for one batch arrive
// in broker order. BeginAttempt is called right before a broker's adapter
// runs, so brokers the batch never reaches keep their prior status.
type OutcomeSink interface {
	BeginAttempt(ctx context.Context, userID, brokerID string) error
	ApplyOutcome(ctx context.Context, userID, brokerID string, outcome *entity.Outcome) error
}

type Engine struct {
	browser    output.BrowserPort
	registry   output.AdapterRegistry
	politeness *Politeness
	timeouts   Timeouts
	metrics    output.MetricsPort
	evidence   output.EvidencePort
	logger     output.LoggerPort
	clock      clock.Clock
}

func New(
	browser output.BrowserPort,
	registry output.AdapterRegistry,
	politeness *Politeness,
	timeouts Timeouts,
	metrics output.MetricsPort,
	evidence output.EvidencePort,
	logger output.LoggerPort,
	clk clock.Clock,
) *Engine {
	if metrics == nil {
		metrics = output.NopMetrics{}
	}
	if clk == nil {
		clk = clock.WallClock
	}
	if politeness == nil {
		politeness = NewPoliteness(0, clk)
	}
	return &Engine{
		browser:    browser,
		registry:   registry,
		politeness: politeness,
		timeouts:   timeouts,
		metrics:    metrics,
		evidence:   evidence,
		logger:     logger,
		clock:      clk,
	}
}

// ProcessBatch runs the adapters for one user's brokers, in the given
// order, inside a single isolated browser session. Adapter failures become
// outcomes and never stop the batch. Cancelling ctx stops the batch between
// brokers; outcomes already handed to the sink stay applied and are
// returned together with the context error.
func (e *Engine) ProcessBatch(ctx context.Context, user *entity.UserProfile, brokers []entity.Broker, sink OutcomeSink) ([]entity.Outcome, error) {
	for i := range brokers {
		if !brokers[i].AutomationAvailable {
			return nil, fmt.Errorf("%w: %s", ErrManualBroker, brokers[i].Name)
		}
	}
	if len(brokers) == 0 {
		return nil, nil
	}

	log := e.logger.WithField("user_id", user.ID)

	session, err := e.browser.NewSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("open browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Failed to close browser session", "error", err)
		}
	}()

	e.metrics.BatchStarted()
	defer e.metrics.BatchFinished()

	log.Info("Batch started", "brokers", len(brokers))

	outcomes := make([]entity.Outcome, 0, len(brokers))
	for i := range brokers {
		broker := &brokers[i]

		if err := ctx.Err(); err != nil {
			log.Info("Batch cancelled", "processed", len(outcomes), "remaining", len(brokers)-i)
			return outcomes, err
		}
		if i > 0 {
			if err := e.politeness.Wait(ctx); err != nil {
				log.Info("Batch cancelled", "processed", len(outcomes), "remaining", len(brokers)-i)
				return outcomes, err
			}
		}

		if err := sink.BeginAttempt(ctx, user.ID, broker.ID); err != nil {
			return outcomes, fmt.Errorf("mark %s started: %w", broker.Name, err)
		}

		outcome := e.runOne(ctx, session, user, broker)

		// A run that finished is recorded even if the batch was cancelled
		// meanwhile.
		if err := sink.ApplyOutcome(context.WithoutCancel(ctx), user.ID, broker.ID, &outcome); err != nil {
			return outcomes, fmt.Errorf("apply outcome for %s: %w", broker.Name, err)
		}
		outcomes = append(outcomes, outcome)
	}

	log.Info("Batch finished", "processed", len(outcomes))
	return outcomes, nil
}

func (e *Engine) runOne(ctx context.Context, session output.SessionPort, user *entity.UserProfile, broker *entity.Broker) entity.Outcome {
	adapter := e.registry.Resolve(broker.RecipeRef)
	log := e.logger.WithFields(map[string]any{
		"user_id": user.ID,
		"broker":  broker.Name,
		"adapter": adapter.Name(),
	})

	if missing := user.Missing(adapter.RequiredFields()); len(missing) > 0 {
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		outcome := e.outcome(broker, entity.StatusRequiresManual,
			fmt.Sprintf("Profile is missing %s. Manual removal required.", strings.Join(names, ", ")))
		outcome.SetDetail("missing_fields", names)
		log.Info("Skipping automation, profile incomplete", "missing", names)
		e.metrics.ObserveOutcome(adapter.Name(), outcome.Status, 0)
		return outcome
	}

	// The run finishes its current step even when the batch is cancelled;
	// every step carries its own deadline.
	runCtx := context.WithoutCancel(ctx)

	start := e.clock.Now()
	sig, err := adapter.Run(runCtx, withStepTimeouts(session, e.timeouts), user, broker)
	took := e.clock.Now().Sub(start)

	var outcome entity.Outcome
	switch {
	case err == nil:
		outcome = e.fromSignal(broker, adapter.Shape(), sig)
	case errors.Is(err, output.ErrElementNotFound):
		outcome = e.outcome(broker, entity.StatusRequiresManual,
			fmt.Sprintf("%s page did not match the expected form. Manual removal required.", broker.Name))
		outcome.SetDetail("error", err.Error())
	default:
		outcome = e.outcome(broker, entity.StatusFailed,
			fmt.Sprintf("%s automation failed: %v", broker.Name, err))
		outcome.SetDetail("error", err.Error())
	}
	outcome.SetDetail("adapter", adapter.Name())

	if outcome.Status != entity.StatusInProgress && e.evidence != nil {
		e.captureEvidence(runCtx, session, user, broker, &outcome, log)
	}

	e.metrics.ObserveOutcome(adapter.Name(), outcome.Status, took)
	log.Info("Broker processed", "status", outcome.Status, "took", took)
	return outcome
}

func (e *Engine) fromSignal(broker *entity.Broker, shape recipe.Shape, sig *output.Signal) entity.Outcome {
	if sig == nil {
		sig = &output.Signal{Confirmation: entity.ConfirmationUncertain}
	}

	var outcome entity.Outcome
	switch sig.Confirmation {
	case entity.ConfirmationConfirmed:
		msg := fmt.Sprintf("%s removal request submitted successfully", broker.Name)
		if shape == recipe.ShapeGenericForm {
			msg = fmt.Sprintf("Generic form submission attempted for %s", broker.Name)
		}
		outcome = e.outcome(broker, entity.StatusInProgress, msg)
	case entity.ConfirmationNotFound:
		outcome = e.outcome(broker, entity.StatusRequiresManual,
			fmt.Sprintf("Could not locate a matching %s record. Manual removal required.", broker.Name))
	default:
		outcome = e.outcome(broker, entity.StatusRequiresManual,
			fmt.Sprintf("%s submission could not be confirmed. Verify manually.", broker.Name))
	}
	if sig.Message != "" {
		outcome.Message = sig.Message
	}
	for k, v := range sig.Detail {
		outcome.SetDetail(k, v)
	}
	outcome.SetDetail("confirmation", string(sig.Confirmation))
	return outcome
}

func (e *Engine) outcome(broker *entity.Broker, status entity.RequestStatus, msg string) entity.Outcome {
	o := entity.Outcome{
		BrokerID:    broker.ID,
		BrokerName:  broker.Name,
		Succeeded:   status == entity.StatusInProgress || status == entity.StatusCompleted,
		Status:      status,
		Message:     msg,
		ProcessedAt: e.clock.Now().UTC(),
	}
	if !o.Succeeded {
		o.FallbackURL = fallbackURL(broker)
	}
	return o
}

func (e *Engine) captureEvidence(ctx context.Context, session output.SessionPort, user *entity.UserProfile, broker *entity.Broker, outcome *entity.Outcome, log output.LoggerPort) {
	shot, err := withStepTimeouts(session, e.timeouts).Screenshot(ctx)
	if err != nil {
		log.Warn("Evidence screenshot failed", "error", err)
		return
	}
	path, err := e.evidence.Save(ctx, user.ID, broker.ID, shot)
	if err != nil {
		log.Warn("Evidence save failed", "error", err)
		return
	}
	outcome.SetDetail("evidence", path)
}

func fallbackURL(broker *entity.Broker) string {
	if broker.RemovalURL != "" {
		return broker.RemovalURL
	}
	return broker.Website
}
