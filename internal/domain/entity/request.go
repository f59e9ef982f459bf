package entity

import (
	"errors"
	"fmt"
	"time"
)

type RequestStatus string

const (
	StatusPending        RequestStatus = "pending"
	StatusInProgress     RequestStatus = "in_progress"
	StatusCompleted      RequestStatus = "completed"
	StatusFailed         RequestStatus = "failed"
	StatusRequiresManual RequestStatus = "requires_manual"
)

// AllStatuses is the fixed reporting order used by summaries.
var AllStatuses = []RequestStatus{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusFailed,
	StatusRequiresManual,
}

var (
	ErrInvalidStatus     = errors.New("invalid request status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRequestNotFound   = errors.New("removal request not found")
)

func (s RequestStatus) String() string {
	return string(s)
}

func (s RequestStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func ParseStatus(raw string) (RequestStatus, error) {
	s := RequestStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

// transitions lists every edge of the removal request lifecycle.
// in_progress -> in_progress covers a re-submission whose confirmation is
// still pending.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:        {StatusInProgress, StatusRequiresManual},
	StatusInProgress:     {StatusInProgress, StatusCompleted, StatusFailed, StatusRequiresManual},
	StatusRequiresManual: {StatusCompleted},
	StatusFailed:         {StatusInProgress},
	StatusCompleted:      {},
}

func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type RemovalRequest struct {
	ID                  string         `json:"id"`
	UserID              string         `json:"user_id"`
	BrokerID            string         `json:"data_broker_id"`
	Status              RequestStatus  `json:"status"`
	MethodUsed          string         `json:"method_used"`
	SubmittedAt         time.Time      `json:"submitted_at"`
	CompletedAt         *time.Time     `json:"completed_at"`
	ConfirmationDetails map[string]any `json:"confirmation_details"`
	Notes               string         `json:"notes"`
	RetryCount          int            `json:"retry_count"`
	NextRetryAt         *time.Time     `json:"next_retry_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Transition moves the request to the given status, keeping CompletedAt in
// step with it.
func (r *RemovalRequest) Transition(to RequestStatus, now time.Time) error {
	if !to.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}
	if !r.Status.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}

	r.Status = to
	r.UpdatedAt = now
	if to == StatusCompleted {
		completed := now
		r.CompletedAt = &completed
	} else {
		r.CompletedAt = nil
	}
	return nil
}

// RequestUpdate is a partial update applied by the request store. Nil fields
// are left untouched.
type RequestUpdate struct {
	Status              *RequestStatus
	MethodUsed          *string
	CompletedAt         **time.Time
	ConfirmationDetails map[string]any
	Notes               *string
	RetryCount          *int
	NextRetryAt         **time.Time
	UpdatedAt           time.Time
}

// UpdateFrom builds the full update that persists r's mutable fields.
func UpdateFrom(r *RemovalRequest) RequestUpdate {
	status := r.Status
	method := r.MethodUsed
	completedAt := r.CompletedAt
	notes := r.Notes
	retries := r.RetryCount
	nextRetry := r.NextRetryAt
	return RequestUpdate{
		Status:              &status,
		MethodUsed:          &method,
		CompletedAt:         &completedAt,
		ConfirmationDetails: r.ConfirmationDetails,
		Notes:               &notes,
		RetryCount:          &retries,
		NextRetryAt:         &nextRetry,
		UpdatedAt:           r.UpdatedAt,
	}
}

// Apply copies the set fields of u onto r.
func (u RequestUpdate) Apply(r *RemovalRequest) {
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.MethodUsed != nil {
		r.MethodUsed = *u.MethodUsed
	}
	if u.CompletedAt != nil {
		r.CompletedAt = *u.CompletedAt
	}
	if u.ConfirmationDetails != nil {
		r.ConfirmationDetails = u.ConfirmationDetails
	}
	if u.Notes != nil {
		r.Notes = *u.Notes
	}
	if u.RetryCount != nil {
		r.RetryCount = *u.RetryCount
	}
	if u.NextRetryAt != nil {
		r.NextRetryAt = *u.NextRetryAt
	}
	if !u.UpdatedAt.IsZero() {
		r.UpdatedAt = u.UpdatedAt
	}
}
