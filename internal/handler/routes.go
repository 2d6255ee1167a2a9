package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Deps bundles the collaborators the API needs.
type Deps struct {
	Runner   JobSubmitter
	Jobs     JobTracker
	Items    ItemStore
	Advisor  OrderAdvisor
	Sessions SessionControl
	Logger   *slog.Logger
}

// NewServer builds the configured echo instance with all routes registered.
func NewServer(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Validator = NewAppValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(RequestLogger(deps.Logger))

	e.GET("/health", func(c echo.Context) error {
		return JSON(c, http.StatusOK, map[string]string{"status": "ok"})
	})

	jobs := NewJobHandler(deps.Runner, deps.Jobs)
	items := NewItemHandler(deps.Items, deps.Advisor)
	sessions := NewSessionHandler(deps.Sessions)

	api := e.Group("/api/v1")
	api.POST("/resources/:resource_id/jobs", jobs.Submit)
	api.GET("/jobs/:job_id", jobs.Get)
	api.POST("/jobs/:job_id/cancel", jobs.Cancel)
	api.POST("/resources/:resource_id/session/reset", sessions.Reset)
	api.GET("/resources/:resource_id/items", items.List)
	api.PATCH("/items/:item_id", items.UpdateStatus)
	api.POST("/reorder", items.Reorder)

	return e
}
