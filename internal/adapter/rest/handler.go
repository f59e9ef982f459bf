package rest

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"broker-removal/internal/application/port/input"
	"broker-removal/internal/application/port/output"
	"broker-removal/internal/domain/entity"

	"github.com/go-chi/chi/v5"
)

const apiVersion = "1.0.0"

type Handler struct {
	removals input.RemovalService
	profiles input.ProfileService
	logger   output.LoggerPort
}

func NewHandler(removals input.RemovalService, profiles input.ProfileService, logger output.LoggerPort) *Handler {
	return &Handler{removals: removals, profiles: profiles, logger: logger}
}

type userInput struct {
	FullName          string   `json:"full_name"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	CurrentAddress    string   `json:"current_address"`
	PreviousAddresses []string `json:"previous_addresses"`
	DateOfBirth       string   `json:"date_of_birth"`
	FamilyMembers     []string `json:"family_members"`
}

func (in userInput) profile(id string) *entity.UserProfile {
	return &entity.UserProfile{
		ID:                id,
		FullName:          in.FullName,
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		Phone:             in.Phone,
		CurrentAddress:    in.CurrentAddress,
		PreviousAddresses: nonNil(in.PreviousAddresses),
		DateOfBirth:       in.DateOfBirth,
		FamilyMembers:     nonNil(in.FamilyMembers),
	}
}

type pairInput struct {
	UserID   string `json:"user_id"`
	BrokerID string `json:"data_broker_id"`
}

type emailInput struct {
	UserID   string `json:"user_id"`
	BrokerID string `json:"broker_id"`
}

type completeInput struct {
	Note string `json:"note"`
}

type brokerGroup struct {
	Count   int                   `json:"count"`
	Brokers []entity.BrokerStatus `json:"brokers"`
}

type automationStatusBody struct {
	UserID        string      `json:"user_id"`
	TotalRequests int         `json:"total_requests"`
	Automated     brokerGroup `json:"automated_brokers"`
	Manual        brokerGroup `json:"manual_brokers"`
}

type processedBody struct {
	Message   string           `json:"message"`
	Processed int              `json:"processed"`
	Results   []entity.Outcome `json:"results"`
}

type bulkCreateBody struct {
	Message      string `json:"message"`
	TotalBrokers int    `json:"total_brokers"`
	NewRequests  int    `json:"new_requests"`
}

type initializeBody struct {
	Message string `json:"message"`
	Added   int    `json:"added"`
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Data Broker Removal API",
		"version": apiVersion,
	})
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.profiles.CreateUser(r.Context(), in.profile(""))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.profiles.ListUsers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(users))
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.profiles.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := h.profiles.UpdateUser(r.Context(), in.profile(chi.URLParam(r, "userID")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) ListBrokers(w http.ResponseWriter, r *http.Request) {
	brokers, err := h.profiles.ListBrokers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(brokers))
}

func (h *Handler) InitializeBrokers(w http.ResponseWriter, r *http.Request) {
	added, err := h.profiles.InitializeBrokers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := fmt.Sprintf("Initialized %d data brokers", added)
	if added == 0 {
		msg = "Data brokers already initialized"
	}
	writeJSON(w, http.StatusOK, initializeBody{Message: msg, Added: added})
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var in pairInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req, err := h.removals.CreateRequest(r.Context(), in.UserID, in.BrokerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.removals.ListRequests(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(requests))
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.removals.GetSummary(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	res, err := h.removals.BulkCreate(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bulkCreateBody{
		Message:      fmt.Sprintf("Created %d removal requests", res.Created),
		TotalBrokers: res.TotalBrokers,
		NewRequests:  res.Created,
	})
}

// ProcessAutomated runs the user's batch in the request. Closing the
// connection stops the batch after the broker in flight.
func (h *Handler) ProcessAutomated(w http.ResponseWriter, r *http.Request) {
	outcomes, err := h.removals.RunAutomatedBatch(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, processedBody{
		Message:   fmt.Sprintf("Processed %d automated removals", len(outcomes)),
		Processed: len(outcomes),
		Results:   nonNil(outcomes),
	})
}

func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.removals.RetryFailed(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "brokerID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// Complete accepts an optional {"note": "..."} body.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var in completeInput
	if err := decode(r, &in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := h.removals.MarkManualComplete(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "brokerID"), in.Note)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: "Removal marked as completed"})
}

func (h *Handler) AutomationStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.removals.AutomationStatus(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, automationStatusBody{
		UserID:        status.UserID,
		TotalRequests: status.TotalRequests,
		Automated:     brokerGroup{Count: len(status.Automated), Brokers: status.Automated},
		Manual:        brokerGroup{Count: len(status.Manual), Brokers: status.Manual},
	})
}

func (h *Handler) ManualInstructions(w http.ResponseWriter, r *http.Request) {
	checklist, err := h.removals.ManualInstructions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, checklist)
}

func (h *Handler) GenerateEmail(w http.ResponseWriter, r *http.Request) {
	var in emailInput
	if err := decode(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email, err := h.removals.EmailTemplate(r.Context(), in.UserID, in.BrokerID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, email)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
