package output

import (
	"time"

	"broker-removal/internal/domain/entity"
)

type MetricsPort interface {
	ObserveOutcome(adapter string, status entity.RequestStatus, took time.Duration)
	BatchStarted()
	BatchFinished()
	RequestTransition(from, to entity.RequestStatus)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) ObserveOutcome(string, entity.RequestStatus, time.Duration) {}
func (NopMetrics) BatchStarted() {}
func (NopMetrics) BatchFinished() {}
func (NopMetrics) RequestTransition(entity.RequestStatus, entity.RequestStatus) {}
