package output

import (
	"context"

	"broker-removal/internal/domain/entity"
)

type ProfileStore interface {
	CreateUser(ctx context.Context, user *entity.UserProfile) error
	UpdateUser(ctx context.Context, user *entity.UserProfile) error
	GetUser(ctx context.Context, id string) (*entity.UserProfile, error)
	ListUsers(ctx context.Context) ([]entity.UserProfile, error)

	SeedBrokers(ctx context.Context, brokers []entity.Broker) (int, error)
	ListBrokers(ctx context.Context) ([]entity.Broker, error)
	GetBroker(ctx context.Context, id string) (*entity.Broker, error)
}

type RequestStore interface {
	// CreateRequest returns the existing record when the pair already has one.
	CreateRequest(ctx context.Context, userID string, broker *entity.Broker) (*entity.RemovalRequest, bool, error)
	GetRequest(ctx context.Context, userID, brokerID string) (*entity.RemovalRequest, error)
	UpdateRequest(ctx context.Context, id string, update entity.RequestUpdate) error
	ListRequests(ctx context.Context, userID string) ([]entity.RemovalRequest, error)
}

// Store is what every storage backend provides.
type Store interface {
	ProfileStore
	RequestStore
	Close() error
}
