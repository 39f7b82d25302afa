package handler

import (
	"net/http"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/dto"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/middleware"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/service"
	"github.com/labstack/echo/v4"
)

type TicketHandler struct {
	booking service.BookingService
	cancel  service.CancellationService
	checkin service.CheckinService
	ledger  service.LedgerService
}

func NewTicketHandler(
	booking service.BookingService,
	cancel service.CancellationService,
	checkin service.CheckinService,
	ledger service.LedgerService,
) *TicketHandler {
	return &TicketHandler{booking: booking, cancel: cancel, checkin: checkin, ledger: ledger}
}

// RegisterRoutes mounts the ticket API. buyLimit wraps POST /tickets/buy
// only and may be nil.
func (h *TicketHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc, buyLimit echo.MiddlewareFunc) {
	tickets := e.Group("/tickets")

	buyChain := []echo.MiddlewareFunc{auth}
	if buyLimit != nil {
		buyChain = append(buyChain, buyLimit)
	}
	tickets.POST("/buy", h.BuyTicket, buyChain...)
	tickets.POST("/cancel", h.CancelTicket, auth)
	tickets.POST("/use", h.UseTicket, auth)
	tickets.GET("", h.ListOwned, auth)
	tickets.GET("/seller/sales", h.ListSales, auth, middleware.RequireRole(models.RoleSeller, models.RoleAdmin))
	tickets.GET("/:id", h.GetTicket)
}

func (h *TicketHandler) BuyTicket(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req dto.BuyTicketRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, err := h.booking.BuyTicket(c.Request().Context(), service.BuyTicketInput{
		UserID:     actor.ID,
		EventID:    req.EventID,
		TicketType: req.TicketType,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusCreated, dto.TicketEnvelope{Ticket: dto.ToTicketResponse(ticket)})
}

func (h *TicketHandler) CancelTicket(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req dto.TicketActionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, err := h.cancel.CancelTicket(c.Request().Context(), req.TicketID, actor)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.TicketEnvelope{Ticket: dto.ToTicketResponse(ticket)})
}

func (h *TicketHandler) UseTicket(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	var req dto.TicketActionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ticket, err := h.checkin.UseTicket(c.Request().Context(), req.TicketID, actor)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.TicketEnvelope{Ticket: dto.ToTicketResponse(ticket)})
}

func (h *TicketHandler) ListOwned(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	tickets, err := h.ledger.ListOwned(c.Request().Context(), actor.ID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToTicketList(tickets))
}

func (h *TicketHandler) ListSales(c echo.Context) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}

	tickets, err := h.ledger.ListSales(c.Request().Context(), actor.ID)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.ToTicketList(tickets))
}

func (h *TicketHandler) GetTicket(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return invalidRequest("ticket id is required")
	}

	ticket, err := h.ledger.GetTicket(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, dto.TicketEnvelope{Ticket: dto.ToTicketResponse(ticket)})
}

func requireActor(c echo.Context) (models.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return models.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, dto.ErrorResponse{
			Code: "UNAUTHENTICATED", Message: "missing or invalid bearer token",
		})
	}
	return actor, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return invalidRequest("invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return invalidRequest(err.Error())
	}
	return nil
}
