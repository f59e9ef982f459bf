package entity

import "math"

type Summary struct {
	TotalBrokers   int     `json:"total_brokers"`
	TotalRequests  int     `json:"total_requests"`
	Pending        int     `json:"pending"`
	InProgress     int     `json:"in_progress"`
	Completed      int     `json:"completed"`
	Failed         int     `json:"failed"`
	RequiresManual int     `json:"requires_manual"`
	SuccessRate    float64 `json:"success_rate"`
}

// Summarize counts requests by status. SuccessRate is the completed share
// in percent, rounded to one decimal place.
func Summarize(requests []RemovalRequest, totalBrokers int) Summary {
	s := Summary{TotalBrokers: totalBrokers, TotalRequests: len(requests)}
	for _, r := range requests {
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusInProgress:
			s.InProgress++
		case StatusCompleted:
			s.Completed++
		case StatusFailed:
			s.Failed++
		case StatusRequiresManual:
			s.RequiresManual++
		}
	}
	s.SuccessRate = SuccessRate(s.Completed, s.TotalRequests)
	return s
}

func SuccessRate(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(1000*float64(completed)/float64(total)) / 10
}

type BulkCreateResult struct {
	Created      int `json:"new_requests"`
	TotalBrokers int `json:"total_brokers"`
}

// BrokerStatus is one row of the automation status report.
type BrokerStatus struct {
	BrokerID            string        `json:"broker_id"`
	BrokerName          string        `json:"broker_name"`
	Status              RequestStatus `json:"status"`
	AutomationAvailable bool          `json:"automation_available"`
	RemovalMethod       string        `json:"removal_method"`
	SubmittedAt         string        `json:"submitted_at"`
	Notes               string        `json:"notes,omitempty"`
}

type AutomationStatus struct {
	UserID        string         `json:"user_id"`
	TotalRequests int            `json:"total_requests"`
	Automated     []BrokerStatus `json:"automated_brokers"`
	Manual        []BrokerStatus `json:"manual_brokers"`
}
