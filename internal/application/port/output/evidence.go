package output

import (
	"context"

	"broker-removal/internal/domain/entity"
)

type EvidencePort interface {
	Save(ctx context.Context, userID, brokerID string, shot *entity.Screenshot) (string, error)
}
