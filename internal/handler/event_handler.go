package handler

import (
	"net/http"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/dto"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/service"
	"github.com/labstack/echo/v4"
)

type EventHandler struct {
	audit service.AuditService
}

func NewEventHandler(audit service.AuditService) *EventHandler {
	return &EventHandler{audit: audit}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/events/:id/inventory", h.GetInventory)
}

// GetInventory reports per-tier stock and whether it agrees with the ledger.
func (h *EventHandler) GetInventory(c echo.Context) error {
	report, err := h.audit.Inventory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToInventoryResponse(report))
}
