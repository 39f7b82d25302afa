package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/dto"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/logger"
	"github.com/labstack/echo/v4"
)

// ErrorHandler renders every error as dto.ErrorResponse. Messages of
// unexpected errors are never sent to the client.
func ErrorHandler(l logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := http.StatusInternalServerError, dto.ErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "internal server error",
		}

		var he *echo.HTTPError
		var resp dto.ErrorResponse
		switch {
		case errors.As(err, &resp):
			status, body = http.StatusBadRequest, resp
		case errors.As(err, &he):
			status = he.Code
			switch m := he.Message.(type) {
			case dto.ErrorResponse:
				body = m
			case string:
				if status < http.StatusInternalServerError {
					body = dto.ErrorResponse{Code: codeForStatus(status), Message: m}
				}
			}
		}

		if status >= http.StatusInternalServerError {
			l.Errorf(c.Request().Context(), "middleware.ErrorHandler %s %s: %v", c.Request().Method, c.Path(), err)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
