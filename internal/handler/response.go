// Package handler exposes the REST API over echo: job admission and polling,
// session control, review item access, and agent-assisted reordering.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mgrundel/reviso/internal/agent"
	"github.com/mgrundel/reviso/internal/db"
	"github.com/mgrundel/reviso/internal/pipeline"
)

// Envelope is the standard API response wrapper.
type Envelope struct {
	Data  any       `json:"data,omitempty"`
	Error *APIError `json:"error,omitempty"`
}

// APIError represents an error in the API response.
type APIError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a field-level validation error.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries a single failed field through the error chain.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// JSON writes a JSON response with the standard envelope.
func JSON(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Data: data})
}

// HTTPErrorHandler is the global error handler for echo.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, apiErr := mapError(err)
	if jsonErr := c.JSON(status, Envelope{Error: &apiErr}); jsonErr != nil {
		slog.Error("failed to send error response", "error", jsonErr)
	}
}

func mapError(err error) (int, APIError) {
	// Handle echo's own HTTP errors (404, 405, etc.)
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		msg, _ := echoErr.Message.(string)
		if msg == "" {
			msg = http.StatusText(echoErr.Code)
		}
		return echoErr.Code, APIError{
			Code:    http.StatusText(echoErr.Code),
			Message: msg,
		}
	}

	switch {
	case errors.Is(err, pipeline.ErrResourceLocked):
		return http.StatusConflict, APIError{
			Code:    "resource_locked",
			Message: "Another extraction job is already running for this resource",
		}
	case errors.Is(err, pipeline.ErrJobNotFound),
		errors.Is(err, agent.ErrRequestNotFound),
		errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "The requested record was not found",
		}
	case errors.Is(err, agent.ErrPollTimeout):
		return http.StatusGatewayTimeout, APIError{
			Code:    "poll_timeout",
			Message: "The agent did not respond within the polling window",
		}
	case errors.Is(err, agent.ErrUnavailable):
		return http.StatusBadGateway, APIError{
			Code:    "agent_unavailable",
			Message: "The agent backend could not be reached",
		}
	default:
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return http.StatusBadRequest, APIError{
				Code:    "validation_error",
				Message: "Validation failed",
				Details: []FieldError{
					{Field: validationErr.Field, Message: validationErr.Message},
				},
			}
		}

		slog.Error("unhandled error", "error", err)
		return http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "An unexpected error occurred",
		}
	}
}
