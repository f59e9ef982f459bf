package entity

import "time"

// Confirmation is the verdict of the heuristic success detector.
type Confirmation string

const (
	ConfirmationConfirmed Confirmation = "confirmed"
	ConfirmationUncertain Confirmation = "uncertain"
	ConfirmationNotFound  Confirmation = "not_found"
)

// Outcome is the result of one adapter run before it is folded into a
// removal request.
type Outcome struct {
	BrokerID    string         `json:"broker_id"`
	BrokerName  string         `json:"broker_name"`
	Succeeded   bool           `json:"success"`
	Status      RequestStatus  `json:"status"`
	Message     string         `json:"message"`
	FallbackURL string         `json:"fallback_url,omitempty"`
	Detail      map[string]any `json:"details,omitempty"`
	ProcessedAt time.Time      `json:"processed_at"`
}

func (o *Outcome) SetDetail(key string, value any) {
	if o.Detail == nil {
		o.Detail = make(map[string]any)
	}
	o.Detail[key] = value
}
