package handler

import (
	"errors"
	"net/http"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/dto"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/service"
	"github.com/labstack/echo/v4"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrEventNotFound, http.StatusNotFound, "EVENT_NOT_FOUND"},
	{service.ErrSalesNotStarted, http.StatusBadRequest, "SALES_NOT_STARTED"},
	{service.ErrSalesEnded, http.StatusBadRequest, "SALES_ENDED"},
	{service.ErrInvalidTier, http.StatusBadRequest, "INVALID_TIER"},
	{service.ErrTierSoldOut, http.StatusConflict, "TIER_SOLD_OUT"},
	{service.ErrEventNotBookable, http.StatusConflict, "EVENT_NOT_BOOKABLE"},
	{service.ErrTicketNotFound, http.StatusNotFound, "TICKET_NOT_FOUND"},
	{service.ErrUnauthorized, http.StatusForbidden, "UNAUTHORIZED"},
	{service.ErrAlreadyCancelled, http.StatusConflict, "ALREADY_CANCELLED"},
	{service.ErrCannotCancelUsed, http.StatusConflict, "CANNOT_CANCEL_USED"},
	{service.ErrAlreadyUsed, http.StatusConflict, "ALREADY_USED"},
	{service.ErrTicketCancelled, http.StatusConflict, "CANCELLED"},
}

// toHTTPError maps a service error onto its status and code. Anything
// unmapped is returned as is and rendered as INTERNAL_ERROR.
func toHTTPError(err error) error {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return echo.NewHTTPError(m.status, dto.ErrorResponse{Code: m.code, Message: err.Error()})
		}
	}
	return err
}

func invalidRequest(msg string) error {
	return echo.NewHTTPError(http.StatusBadRequest, dto.ErrorResponse{Code: "INVALID_REQUEST", Message: msg})
}
