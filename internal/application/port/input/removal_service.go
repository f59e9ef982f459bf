package input

import (
	"context"

	"broker-removal/internal/domain/entity"
)

type RemovalService interface {
	RunAutomatedBatch(ctx context.Context, userID string) ([]entity.Outcome, error)
	GetSummary(ctx context.Context, userID string) (*entity.Summary, error)
	RetryFailed(ctx context.Context, userID, brokerID string) (*entity.Outcome, error)
	MarkManualComplete(ctx context.Context, userID, brokerID, note string) error

	BulkCreate(ctx context.Context, userID string) (*entity.BulkCreateResult, error)
	// CreateRequest returns the existing request when the pair already has one.
	CreateRequest(ctx context.Context, userID, brokerID string) (*entity.RemovalRequest, error)
	ListRequests(ctx context.Context, userID string) ([]entity.RemovalRequest, error)
	AutomationStatus(ctx context.Context, userID string) (*entity.AutomationStatus, error)
	ManualInstructions(ctx context.Context, userID string) (*entity.RemovalChecklist, error)
	EmailTemplate(ctx context.Context, userID, brokerID string) (*entity.EmailTemplate, error)
}
