package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SessionControl resets per-resource agent sessions. Implemented by
// agent.Client.
type SessionControl interface {
	ResetSession(resourceID string)
	SessionHandle(resourceID string) string
}

// SessionHandler handles agent session endpoints.
type SessionHandler struct {
	sessions SessionControl
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionControl) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Reset discards the resource's agent conversation. The next agent call
// starts a fresh session with a new handle.
func (h *SessionHandler) Reset(c echo.Context) error {
	resourceID := c.Param("resource_id")
	if resourceID == "" {
		return &ValidationError{Field: "resource_id", Message: "must not be empty"}
	}

	h.sessions.ResetSession(resourceID)
	return JSON(c, http.StatusOK, map[string]string{
		"status":         "session reset",
		"session_handle": h.sessions.SessionHandle(resourceID),
	})
}
