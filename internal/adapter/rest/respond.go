package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"broker-removal/internal/domain/entity"
	"broker-removal/internal/usecase/engine"
)

type errorBody struct {
	Detail string `json:"detail"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Detail: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrUserNotFound),
		errors.Is(err, entity.ErrBrokerNotFound),
		errors.Is(err, entity.ErrRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, engine.ErrManualBroker),
		errors.Is(err, entity.ErrInvalidProfile),
		errors.Is(err, entity.ErrInvalidStatus):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
