package entity

import (
	"errors"
	"strings"
	"time"
)

var ErrBrokerNotFound = errors.New("data broker not found")

type BrokerCategory string

const (
	CategoryPeopleSearch    BrokerCategory = "people_search"
	CategoryMarketing       BrokerCategory = "marketing"
	CategoryBackgroundCheck BrokerCategory = "background_check"
	CategoryPublicRecords   BrokerCategory = "public_records"
	CategorySocialMedia     BrokerCategory = "social_media"
)

type Broker struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Website             string         `json:"website"`
	Category            BrokerCategory `json:"type"`
	RemovalURL          string         `json:"removal_url,omitempty"`
	RemovalMethod       string         `json:"removal_method"`
	AutomationAvailable bool           `json:"automation_available"`
	RemovalInstructions string         `json:"removal_instructions"`
	VerificationMethod  string         `json:"verification_method,omitempty"`
	EstimatedTime       string         `json:"estimated_time"`
	SuccessRate         float64        `json:"success_rate"`
	RecipeRef           string         `json:"recipe_ref,omitempty"`
	InstructionRef      string         `json:"instruction_ref,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// Domain is the bare site host, used to derive contact mailboxes.
func (b *Broker) Domain() string {
	return strings.TrimPrefix(b.Website, "www.")
}
