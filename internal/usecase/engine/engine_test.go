package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/application/service"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/domain/recipe"
	"broker-removal/internal/infrastructure/browser/fakebrowser"
	"broker-removal/internal/infrastructure/logger"

	"github.com/juju/clock/testclock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcAdapter struct {
	name     string
	shape    recipe.Shape
	required []entity.ProfileField
	run      func(ctx context.Context, session output.SessionPort) (*output.Signal, error)
	calls    int
}

func (a *funcAdapter) Name() string { return a.name }
func (a *funcAdapter) Shape() recipe.Shape {
	if a.shape == "" {
		return recipe.ShapeDirectSubmit
	}
	return a.shape
}
func (a *funcAdapter) RequiredFields() []entity.ProfileField { return a.required }
func (a *funcAdapter) Run(ctx context.Context, session output.SessionPort, user *entity.UserProfile, broker *entity.Broker) (*output.Signal, error) {
	a.calls++
	return a.run(ctx, session)
}

func signal(c entity.Confirmation) func(context.Context, output.SessionPort) (*output.Signal, error) {
	return func(context.Context, output.SessionPort) (*output.Signal, error) {
		return &output.Signal{Confirmation: c}, nil
	}
}

func failing(err error) func(context.Context, output.SessionPort) (*output.Signal, error) {
	return func(context.Context, output.SessionPort) (*output.Signal, error) {
		return nil, err
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []string
	err    error
}

func (s *recordingSink) BeginAttempt(ctx context.Context, userID, brokerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, "started "+brokerID)
	return nil
}

func (s *recordingSink) ApplyOutcome(ctx context.Context, userID, brokerID string, outcome *entity.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, fmt.Sprintf("applied %s %s", brokerID, outcome.Status))
	return s.err
}

func (s *recordingSink) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

type memEvidence struct {
	saved []string
}

func (m *memEvidence) Save(ctx context.Context, userID, brokerID string, shot *entity.Screenshot) (string, error) {
	path := fmt.Sprintf("evidence/%s/%s.jpg", userID, brokerID)
	m.saved = append(m.saved, path)
	return path, nil
}

func broker(id string) entity.Broker {
	return entity.Broker{
		ID:                  id,
		Name:                "Broker " + id,
		RemovalURL:          "https://" + id + ".example/optout",
		AutomationAvailable: true,
		RecipeRef:           id,
	}
}

func user() *entity.UserProfile {
	return &entity.UserProfile{ID: "u1", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
}

type fixture struct {
	browser  *fakebrowser.Browser
	registry *service.AdapterRegistryImpl
	fallback *funcAdapter
	evidence *memEvidence
	engine   *Engine
}

func newFixture(t *testing.T, timeouts Timeouts, politeness *Politeness) *fixture {
	t.Helper()
	f := &fixture{
		browser:  fakebrowser.New(fakebrowser.Site{}),
		fallback: &funcAdapter{name: "generic", shape: recipe.ShapeGenericForm, run: signal(entity.ConfirmationConfirmed)},
		evidence: &memEvidence{},
	}
	f.registry = service.NewAdapterRegistry(f.fallback)
	f.engine = New(f.browser, f.registry, politeness, timeouts, nil, f.evidence, logger.NewNop(), nil)
	return f
}

func TestProcessBatch_FailureDoesNotStopSiblings(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	f.registry.Register(&funcAdapter{name: "a", run: signal(entity.ConfirmationConfirmed)})
	f.registry.Register(&funcAdapter{name: "b", run: failing(errors.New("connection reset"))})
	f.registry.Register(&funcAdapter{name: "c", run: failing(fmt.Errorf("fill: %w", output.ErrElementNotFound))})

	sink := &recordingSink{}
	outcomes, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("a"), broker("b"), broker("c")}, sink)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, entity.StatusInProgress, outcomes[0].Status)
	assert.True(t, outcomes[0].Succeeded)
	assert.Equal(t, "Broker a removal request submitted successfully", outcomes[0].Message)
	assert.Empty(t, outcomes[0].FallbackURL)

	assert.Equal(t, entity.StatusFailed, outcomes[1].Status)
	assert.False(t, outcomes[1].Succeeded)
	assert.Contains(t, outcomes[1].Message, "connection reset")
	assert.Equal(t, "https://b.example/optout", outcomes[1].FallbackURL)

	assert.Equal(t, entity.StatusRequiresManual, outcomes[2].Status)
	assert.NotEmpty(t, outcomes[2].FallbackURL)

	assert.Equal(t, []string{
		"started a", "applied a in_progress",
		"started b", "applied b failed",
		"started c", "applied c requires_manual",
	}, sink.Events())

	sessions := f.browser.Sessions()
	require.Len(t, sessions, 1)
	assert.True(t, sessions[0].Closed())
}

func TestProcessBatch_SignalMapping(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	f.registry.Register(&funcAdapter{name: "uncertain", run: signal(entity.ConfirmationUncertain)})
	f.registry.Register(&funcAdapter{name: "missing", run: func(context.Context, output.SessionPort) (*output.Signal, error) {
		return &output.Signal{Confirmation: entity.ConfirmationNotFound, Message: "No record"}, nil
	}})

	outcomes, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("uncertain"), broker("missing")}, &recordingSink{})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusRequiresManual, outcomes[0].Status)
	assert.Equal(t, "uncertain", outcomes[0].Detail["confirmation"])
	assert.Equal(t, entity.StatusRequiresManual, outcomes[1].Status)
	assert.Equal(t, "No record", outcomes[1].Message)
}

func TestProcessBatch_FallsBackToGeneric(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)

	b := broker("unknown")
	outcomes, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{b}, &recordingSink{})
	require.NoError(t, err)

	assert.Equal(t, 1, f.fallback.calls)
	assert.Equal(t, "Generic form submission attempted for Broker unknown", outcomes[0].Message)
	assert.Equal(t, "generic", outcomes[0].Detail["adapter"])
}

func TestProcessBatch_RejectsManualBroker(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	manual := broker("pf")
	manual.AutomationAvailable = false

	sink := &recordingSink{}
	_, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("a"), manual}, sink)
	require.ErrorIs(t, err, ErrManualBroker)

	assert.Empty(t, sink.Events())
	assert.Empty(t, f.browser.Sessions())
}

func TestProcessBatch_MissingProfileFields(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	a := &funcAdapter{name: "a", required: []entity.ProfileField{entity.FieldEmail, entity.FieldAddress}, run: signal(entity.ConfirmationConfirmed)}
	f.registry.Register(a)

	outcomes, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("a")}, &recordingSink{})
	require.NoError(t, err)

	assert.Equal(t, 0, a.calls)
	assert.Equal(t, entity.StatusRequiresManual, outcomes[0].Status)
	assert.Equal(t, []string{"address"}, outcomes[0].Detail["missing_fields"])
}

func TestProcessBatch_StepTimeouts(t *testing.T) {
	timeouts := Timeouts{
		Navigation:   20 * time.Millisecond,
		Interaction:  20 * time.Millisecond,
		Submission:   20 * time.Millisecond,
		Confirmation: 20 * time.Millisecond,
	}
	f := newFixture(t, timeouts, nil)
	f.browser.Default = fakebrowser.Site{
		Block: map[string]bool{
			"navigate https://slow.example": true,
			"wait .never":                   true,
		},
	}
	f.registry.Register(&funcAdapter{name: "nav", run: func(ctx context.Context, s output.SessionPort) (*output.Signal, error) {
		return nil, s.Navigate(ctx, "https://slow.example")
	}})
	f.registry.Register(&funcAdapter{name: "marker", run: func(ctx context.Context, s output.SessionPort) (*output.Signal, error) {
		return nil, s.WaitVisible(ctx, ".never")
	}})

	outcomes, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("nav"), broker("marker")}, &recordingSink{})
	require.NoError(t, err)

	assert.Equal(t, entity.StatusFailed, outcomes[0].Status)
	assert.Contains(t, outcomes[0].Detail["error"], output.ErrNavigation.Error())
	assert.Equal(t, entity.StatusRequiresManual, outcomes[1].Status)
	assert.Contains(t, outcomes[1].Detail["error"], output.ErrElementNotFound.Error())
}

func TestProcessBatch_CancelBetweenBrokers(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runCtxErr error
	f.registry.Register(&funcAdapter{name: "a", run: func(runCtx context.Context, _ output.SessionPort) (*output.Signal, error) {
		cancel()
		runCtxErr = runCtx.Err()
		return &output.Signal{Confirmation: entity.ConfirmationConfirmed}, nil
	}})
	second := &funcAdapter{name: "b", run: signal(entity.ConfirmationConfirmed)}
	f.registry.Register(second)

	sink := &recordingSink{}
	outcomes, err := f.engine.ProcessBatch(ctx, user(), []entity.Broker{broker("a"), broker("b")}, sink)
	require.ErrorIs(t, err, context.Canceled)

	require.Len(t, outcomes, 1)
	assert.NoError(t, runCtxErr, "the running adapter is not interrupted")
	assert.Equal(t, entity.StatusInProgress, outcomes[0].Status)
	assert.Equal(t, 0, second.calls)
	assert.Equal(t, []string{"started a", "applied a in_progress"}, sink.Events())
}

func TestProcessBatch_SinkErrorAborts(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	f.registry.Register(&funcAdapter{name: "a", run: signal(entity.ConfirmationConfirmed)})

	sink := &recordingSink{err: errors.New("db down")}
	outcomes, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("a"), broker("b")}, sink)
	require.Error(t, err)
	assert.Empty(t, outcomes)
	assert.Len(t, sink.Events(), 2)
}

func TestProcessBatch_CapturesEvidenceOnFailure(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	f.registry.Register(&funcAdapter{name: "a", run: signal(entity.ConfirmationConfirmed)})
	f.registry.Register(&funcAdapter{name: "b", run: failing(errors.New("boom"))})

	outcomes, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("a"), broker("b")}, &recordingSink{})
	require.NoError(t, err)

	assert.NotContains(t, outcomes[0].Detail, "evidence")
	assert.Equal(t, "evidence/u1/b.jpg", outcomes[1].Detail["evidence"])
	assert.Equal(t, []string{"evidence/u1/b.jpg"}, f.evidence.saved)
}

func TestProcessBatch_PolitenessDelay(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	f := newFixture(t, DefaultTimeouts(), NewPoliteness(2*time.Second, clk))
	f.registry.Register(&funcAdapter{name: "a", run: signal(entity.ConfirmationConfirmed)})
	f.registry.Register(&funcAdapter{name: "b", run: signal(entity.ConfirmationConfirmed)})

	sink := &recordingSink{}
	done := make(chan error, 1)
	go func() {
		_, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("a"), broker("b")}, sink)
		done <- err
	}()

	require.NoError(t, clk.WaitAdvance(2*time.Second, time.Second, 1))
	assert.Equal(t, []string{"started a", "applied a in_progress"}, sink.Events())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("batch did not finish after the delay elapsed")
	}
	assert.Len(t, sink.Events(), 4)
}

func TestPoliteness_CancelWhileWaiting(t *testing.T) {
	clk := testclock.NewClock(time.Now())
	p := NewPoliteness(time.Minute, clk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}

func TestProcessBatch_BrowserUnavailable(t *testing.T) {
	f := newFixture(t, DefaultTimeouts(), nil)
	f.browser.NewErr = output.ErrBrowserClosed

	_, err := f.engine.ProcessBatch(context.Background(), user(), []entity.Broker{broker("a")}, &recordingSink{})
	assert.ErrorIs(t, err, output.ErrBrowserClosed)
}
