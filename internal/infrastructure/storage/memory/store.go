// Package memory keeps profiles, brokers and removal requests in process
// memory. It backs tests and single-run CLI use.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"

	"github.com/google/uuid"
)

var _ output.Store = (*Store)(nil)

type pairKey struct {
	userID   string
	brokerID string
}

type Store struct {
	mu       sync.RWMutex
	now      func() time.Time
	users    map[string]entity.UserProfile
	userIDs  []string
	brokers  []entity.Broker
	requests map[string]*entity.RemovalRequest
	byPair   map[pairKey]string
	order    []string
}

func New() *Store {
	return &Store{
		now:      func() time.Time { return time.Now().UTC() },
		users:    make(map[string]entity.UserProfile),
		requests: make(map[string]*entity.RemovalRequest),
		byPair:   make(map[pairKey]string),
	}
}

func (s *Store) CreateUser(ctx context.Context, user *entity.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, ok := s.users[user.ID]; ok {
		return fmt.Errorf("user %s already exists", user.ID)
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = cloneUser(*user)
	s.userIDs = append(s.userIDs, user.ID)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, user *entity.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrUserNotFound, user.ID)
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = s.now()
	s.users[user.ID] = cloneUser(*user)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*entity.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUserNotFound, id)
	}
	u = cloneUser(u)
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]entity.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entity.UserProfile, 0, len(s.userIDs))
	for _, id := range s.userIDs {
		out = append(out, cloneUser(s.users[id]))
	}
	return out, nil
}

// SeedBrokers adds the catalog entries whose name is not stored yet and
// reports how many were added.
func (s *Store) SeedBrokers(ctx context.Context, brokers []entity.Broker) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(s.brokers))
	for _, b := range s.brokers {
		known[b.Name] = true
	}

	added := 0
	for _, b := range brokers {
		if known[b.Name] {
			continue
		}
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = s.now()
		}
		s.brokers = append(s.brokers, b)
		known[b.Name] = true
		added++
	}
	return added, nil
}

func (s *Store) ListBrokers(ctx context.Context) ([]entity.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entity.Broker(nil), s.brokers...), nil
}

func (s *Store) GetBroker(ctx context.Context, id string) (*entity.Broker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.brokers {
		if b.ID == id {
			return &b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", entity.ErrBrokerNotFound, id)
}

func (s *Store) CreateRequest(ctx context.Context, userID string, broker *entity.Broker) (*entity.RemovalRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{userID: userID, brokerID: broker.ID}
	if id, ok := s.byPair[key]; ok {
		return cloneRequest(s.requests[id]), false, nil
	}

	now := s.now()
	r := &entity.RemovalRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		BrokerID:    broker.ID,
		Status:      entity.StatusPending,
		MethodUsed:  broker.RemovalMethod,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	s.requests[r.ID] = r
	s.byPair[key] = r.ID
	s.order = append(s.order, r.ID)
	return cloneRequest(r), true, nil
}

func (s *Store) GetRequest(ctx context.Context, userID, brokerID string) (*entity.RemovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[pairKey{userID: userID, brokerID: brokerID}]
	if !ok {
		return nil, fmt.Errorf("%w: user %s broker %s", entity.ErrRequestNotFound, userID, brokerID)
	}
	return cloneRequest(s.requests[id]), nil
}

func (s *Store) UpdateRequest(ctx context.Context, id string, update entity.RequestUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("%w: %s", entity.ErrRequestNotFound, id)
	}
	if update.UpdatedAt.IsZero() {
		update.UpdatedAt = s.now()
	}
	update.Apply(r)
	return nil
}

func (s *Store) ListRequests(ctx context.Context, userID string) ([]entity.RemovalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.RemovalRequest
	for _, id := range s.order {
		r := s.requests[id]
		if r.UserID == userID {
			out = append(out, *cloneRequest(r))
		}
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

func cloneUser(u entity.UserProfile) entity.UserProfile {
	u.PreviousAddresses = append([]string(nil), u.PreviousAddresses...)
	u.FamilyMembers = append([]string(nil), u.FamilyMembers...)
	return u
}

func cloneRequest(r *entity.RemovalRequest) *entity.RemovalRequest {
	c := *r
	if r.ConfirmationDetails != nil {
		c.ConfirmationDetails = make(map[string]any, len(r.ConfirmationDetails))
		for k, v := range r.ConfirmationDetails {
			c.ConfirmationDetails[k] = v
		}
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	if r.NextRetryAt != nil {
		t := *r.NextRetryAt
		c.NextRetryAt = &t
	}
	return &c
}
