package input

import (
	"context"

	"broker-removal/internal/domain/entity"
)

type ProfileService interface {
	CreateUser(ctx context.Context, user *entity.UserProfile) (*entity.UserProfile, error)
	UpdateUser(ctx context.Context, user *entity.UserProfile) (*entity.UserProfile, error)
	GetUser(ctx context.Context, id string) (*entity.UserProfile, error)
	ListUsers(ctx context.Context) ([]entity.UserProfile, error)

	ListBrokers(ctx context.Context) ([]entity.Broker, error)
	// InitializeBrokers seeds the built-in catalog and reports how many
	// brokers were added.
	InitializeBrokers(ctx context.Context) (int, error)
}
