// Package removal is the entry point for everything a caller can ask of the
// removal system: profiles, the broker catalog, automated batches, retries,
// manual completion and the manual-path material.
package removal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"broker-removal/internal/application/port/input"
	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/catalog"
	"broker-removal/internal/domain/entity"
	"broker-removal/internal/usecase/engine"
	"broker-removal/internal/usecase/tracker"
)

var (
	_ input.RemovalService = (*Service)(nil)
	_ input.ProfileService = (*Service)(nil)
)

const routedToManualNote = "Routed to manual removal"

type Service struct {
	profiles     output.ProfileStore
	requests     output.RequestStore
	tracker      *tracker.Tracker
	engine       *engine.Engine
	pool         *engine.Pool
	instructions output.InstructionGenerator
	logger       output.LoggerPort
}

func New(
	profiles output.ProfileStore,
	requests output.RequestStore,
	tr *tracker.Tracker,
	eng *engine.Engine,
	pool *engine.Pool,
	instructions output.InstructionGenerator,
	logger output.LoggerPort,
) *Service {
	if pool == nil {
		pool = engine.NewPool(1)
	}
	return &Service{
		profiles:     profiles,
		requests:     requests,
		tracker:      tr,
		engine:       eng,
		pool:         pool,
		instructions: instructions,
		logger:       logger,
	}
}

// RunAutomatedBatch submits removals to every automatable broker the user
// has not finished with yet. Missing requests are created first and failed
// ones count as a retry once their adapter runs. Brokers waiting on manual
// action or already completed are left alone.
func (s *Service) RunAutomatedBatch(ctx context.Context, userID string) ([]entity.Outcome, error) {
	var outcomes []entity.Outcome
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		var err error
		outcomes, err = s.runBatch(ctx, userID)
		return err
	})
	return outcomes, err
}

// RunAutomatedBatches runs one batch per user through the worker pool and
// reports the users whose batch did not finish.
func (s *Service) RunAutomatedBatches(ctx context.Context, userIDs []string) map[string]error {
	return s.pool.Each(ctx, userIDs, func(ctx context.Context, userID string) error {
		_, err := s.runBatch(ctx, userID)
		return err
	})
}

func (s *Service) runBatch(ctx context.Context, userID string) ([]entity.Outcome, error) {
	user, err := s.profiles.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	brokers, err := s.profiles.ListBrokers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}

	var batch []entity.Broker
	for i := range brokers {
		b := &brokers[i]
		if !b.AutomationAvailable {
			continue
		}

		req, _, err := s.tracker.Create(ctx, userID, b)
		if err != nil {
			return nil, err
		}
		if req.Status == entity.StatusCompleted || req.Status == entity.StatusRequiresManual {
			continue
		}
		batch = append(batch, *b)
	}

	if len(batch) == 0 {
		s.logger.Info("Nothing to automate", "user_id", userID)
		return []entity.Outcome{}, nil
	}
	return s.engine.ProcessBatch(ctx, user, batch, s.tracker)
}

func (s *Service) GetSummary(ctx context.Context, userID string) (*entity.Summary, error) {
	return s.tracker.Summarize(ctx, userID)
}

// RetryFailed reruns automation for one failed request.
func (s *Service) RetryFailed(ctx context.Context, userID, brokerID string) (*entity.Outcome, error) {
	user, err := s.profiles.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	broker, err := s.profiles.GetBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	if !broker.AutomationAvailable {
		return nil, fmt.Errorf("%w: %s", engine.ErrManualBroker, broker.Name)
	}

	var outcomes []entity.Outcome
	err = s.pool.Do(ctx, func(ctx context.Context) error {
		// The retry itself is counted by the engine once the adapter is
		// about to run.
		req, err := s.requests.GetRequest(ctx, userID, brokerID)
		if err != nil {
			return err
		}
		if req.Status != entity.StatusFailed {
			return fmt.Errorf("%w: only failed requests can be retried, request is %s", entity.ErrInvalidTransition, req.Status)
		}
		outcomes, err = s.engine.ProcessBatch(ctx, user, []entity.Broker{*broker}, s.tracker)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("retry %s: no outcome", broker.Name)
	}
	return &outcomes[0], nil
}

// MarkManualComplete records that the user finished a removal by hand. A
// request still pending is routed to the manual path first.
func (s *Service) MarkManualComplete(ctx context.Context, userID, brokerID, note string) error {
	req, err := s.requests.GetRequest(ctx, userID, brokerID)
	if err != nil {
		return err
	}
	if req.Status == entity.StatusPending {
		if err := s.tracker.RouteManual(ctx, userID, brokerID, routedToManualNote); err != nil {
			return err
		}
	}
	if _, err := s.tracker.MarkManualComplete(ctx, userID, brokerID, note); err != nil {
		return err
	}
	s.logger.Info("Removal marked complete", "user_id", userID, "broker_id", brokerID)
	return nil
}

func (s *Service) BulkCreate(ctx context.Context, userID string) (*entity.BulkCreateResult, error) {
	return s.tracker.BulkCreate(ctx, userID)
}

func (s *Service) CreateRequest(ctx context.Context, userID, brokerID string) (*entity.RemovalRequest, error) {
	if _, err := s.profiles.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	broker, err := s.profiles.GetBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	req, _, err := s.tracker.Create(ctx, userID, broker)
	return req, err
}

func (s *Service) ListRequests(ctx context.Context, userID string) ([]entity.RemovalRequest, error) {
	return s.requests.ListRequests(ctx, userID)
}

// AutomationStatus splits the user's requests by whether their broker can
// be automated.
func (s *Service) AutomationStatus(ctx context.Context, userID string) (*entity.AutomationStatus, error) {
	if _, err := s.profiles.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.requests.ListRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	brokers, err := s.brokersByID(ctx)
	if err != nil {
		return nil, err
	}

	out := &entity.AutomationStatus{
		UserID:        userID,
		TotalRequests: len(requests),
		Automated:     []entity.BrokerStatus{},
		Manual:        []entity.BrokerStatus{},
	}
	for _, r := range requests {
		b, ok := brokers[r.BrokerID]
		if !ok {
			continue
		}
		row := entity.BrokerStatus{
			BrokerID:            b.ID,
			BrokerName:          b.Name,
			Status:              r.Status,
			AutomationAvailable: b.AutomationAvailable,
			RemovalMethod:       b.RemovalMethod,
			SubmittedAt:         r.SubmittedAt.UTC().Format(time.RFC3339),
			Notes:               r.Notes,
		}
		if b.AutomationAvailable {
			out.Automated = append(out.Automated, row)
		} else {
			out.Manual = append(out.Manual, row)
		}
	}
	return out, nil
}

// ManualInstructions builds the checklist for every broker the user has to
// handle by hand: brokers without automation and brokers whose automation
// ended failed or requiring manual action. Completed removals are skipped.
func (s *Service) ManualInstructions(ctx context.Context, userID string) (*entity.RemovalChecklist, error) {
	user, err := s.profiles.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	brokers, err := s.profiles.ListBrokers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	requests, err := s.requests.ListRequests(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	status := make(map[string]entity.RequestStatus, len(requests))
	for _, r := range requests {
		status[r.BrokerID] = r.Status
	}

	var manual []entity.Broker
	for _, b := range brokers {
		st, tracked := status[b.ID]
		if tracked && st == entity.StatusCompleted {
			continue
		}
		if !b.AutomationAvailable || st == entity.StatusFailed || st == entity.StatusRequiresManual {
			manual = append(manual, b)
		}
	}

	return s.instructions.Checklist(user, manual)
}

func (s *Service) EmailTemplate(ctx context.Context, userID, brokerID string) (*entity.EmailTemplate, error) {
	user, err := s.profiles.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	broker, err := s.profiles.GetBroker(ctx, brokerID)
	if err != nil {
		return nil, err
	}
	return s.instructions.EmailTemplate(user, broker)
}

func (s *Service) CreateUser(ctx context.Context, user *entity.UserProfile) (*entity.UserProfile, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.profiles.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("User created", "user_id", user.ID)
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, user *entity.UserProfile) (*entity.UserProfile, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.profiles.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, entity.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.profiles.GetUser(ctx, user.ID)
}

func (s *Service) GetUser(ctx context.Context, id string) (*entity.UserProfile, error) {
	return s.profiles.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]entity.UserProfile, error) {
	return s.profiles.ListUsers(ctx)
}

func (s *Service) ListBrokers(ctx context.Context) ([]entity.Broker, error) {
	return s.profiles.ListBrokers(ctx)
}

func (s *Service) InitializeBrokers(ctx context.Context) (int, error) {
	added, err := s.profiles.SeedBrokers(ctx, catalog.Brokers())
	if err != nil {
		return 0, fmt.Errorf("seed brokers: %w", err)
	}
	s.logger.Info("Broker catalog initialized", "added", added)
	return added, nil
}

func (s *Service) brokersByID(ctx context.Context) (map[string]entity.Broker, error) {
	brokers, err := s.profiles.ListBrokers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brokers: %w", err)
	}
	out := make(map[string]entity.Broker, len(brokers))
	for _, b := range brokers {
		out[b.ID] = b
	}
	return out, nil
}
