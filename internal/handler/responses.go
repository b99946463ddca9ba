// Package handler contains the HTTP adapters around the progression engine:
// one route per service operation, thin decode/validate/respond shells.
package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/domain"
)

// encodeBuffers recycles buffers across JSON responses.
var encodeBuffers = sync.Pool{
	New: func() any {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// SuccessResponse represents a simple successful operation message
type SuccessResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string   `json:"error"`
	Reasons []string `json:"reasons,omitempty"` // unmet requirements, when applicable
}

// DataResponse represents a response with data payload
type DataResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

// respondJSON sends a JSON response with the given status code and payload
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	buf := encodeBuffers.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		encodeBuffers.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
		return
	}
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response buffer", "error", err)
	}
}

// respondError sends a JSON error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps an engine error onto the HTTP taxonomy and sends
// it. Structured errors carry their detail into the response body.
func respondServiceError(w http.ResponseWriter, err error) {
	var prereq *domain.PrerequisiteError
	if errors.As(err, &prereq) {
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:   prereq.Error(),
			Reasons: prereq.Unmet,
		})
		return
	}

	status, message := mapServiceError(err)
	respondError(w, status, message)
}

// User-facing messages for engine errors
const (
	ErrMsgUnknownError        = "Unknown error"
	ErrMsgGenericServerError  = "Something went wrong"
	ErrMsgNotFoundError       = "Not found"
	ErrMsgUnauthorizedError   = "You don't have permission to do that"
	ErrMsgNotEnoughPointsErr  = "Not enough points"
	ErrMsgPrereqUnmetError    = "Requirements not met"
	ErrMsgInvalidInputError   = "Invalid request. Please check your inputs."
	ErrMsgTreeConfigError     = "Recipe tree configuration is invalid"
)

// mapServiceError converts engine errors to HTTP status codes and messages.
func mapServiceError(err error) (int, string) {
	if err == nil {
		return http.StatusInternalServerError, ErrMsgUnknownError
	}

	switch {
	case errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrTabNotFound),
		errors.Is(err, domain.ErrPlayerNotFound):
		return http.StatusNotFound, ErrMsgNotFoundError
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, ErrMsgUnauthorizedError
	case errors.Is(err, domain.ErrPrerequisiteUnmet):
		return http.StatusConflict, ErrMsgPrereqUnmetError
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusPaymentRequired, ErrMsgNotEnoughPointsErr
	case errors.Is(err, domain.ErrInvariant):
		return http.StatusUnprocessableEntity, ErrMsgInvalidInputError
	case errors.Is(err, domain.ErrConfigCorrupt):
		return http.StatusInternalServerError, ErrMsgTreeConfigError
	}

	return http.StatusInternalServerError, ErrMsgGenericServerError
}
