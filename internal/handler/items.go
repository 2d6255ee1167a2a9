package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mgrundel/reviso/internal/models"
)

// ItemStore reads and mutates persisted review items. Implemented by
// db.Client.
type ItemStore interface {
	ListItems(ctx context.Context, resourceID string) ([]models.ReviewItem, error)
	UpdateSortOrders(ctx context.Context, items []models.ReviewItem) error
	UpdateItemStatus(ctx context.Context, id, status string) (*models.ReviewItem, error)
}

// OrderAdvisor proposes a working order for review items. Implemented by
// reorder.Advisor.
type OrderAdvisor interface {
	ProposeOrder(ctx context.Context, items []models.ReviewItem) []models.ReviewItem
}

// ItemHandler handles review item endpoints.
type ItemHandler struct {
	items   ItemStore
	advisor OrderAdvisor
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(items ItemStore, advisor OrderAdvisor) *ItemHandler {
	return &ItemHandler{items: items, advisor: advisor}
}

// List returns a resource's review items in working order.
func (h *ItemHandler) List(c echo.Context) error {
	items, err := h.items.ListItems(c.Request().Context(), c.Param("resource_id"))
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, items)
}

type reorderRequest struct {
	ResourceID string `json:"resource_id" validate:"required"`
}

// Reorder asks the advisor for a new working order of the open items and
// persists it. Synchronous; the agent round trip can take tens of seconds,
// so clients should use a generous timeout.
func (h *ItemHandler) Reorder(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return &ValidationError{Field: "body", Message: "invalid request body"}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	items, err := h.items.ListItems(ctx, req.ResourceID)
	if err != nil {
		return err
	}

	ordered := h.advisor.ProposeOrder(ctx, items)
	if err := h.items.UpdateSortOrders(ctx, ordered); err != nil {
		return err
	}
	return JSON(c, http.StatusOK, ordered)
}

type itemStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=open done"`
}

// UpdateStatus marks a review item open or done.
func (h *ItemHandler) UpdateStatus(c echo.Context) error {
	var req itemStatusRequest
	if err := c.Bind(&req); err != nil {
		return &ValidationError{Field: "body", Message: "invalid request body"}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	item, err := h.items.UpdateItemStatus(c.Request().Context(), c.Param("item_id"), req.Status)
	if err != nil {
		return err
	}
	return JSON(c, http.StatusOK, item)
}
