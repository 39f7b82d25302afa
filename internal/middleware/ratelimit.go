package middleware

import (
	"net/http"
	"strconv"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/dto"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/metrics"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/ratelimit"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/pkg/logger"
	"github.com/labstack/echo/v4"
)

// RateLimit throttles authenticated callers per user id. When the limiter
// errors the request is let through.
func RateLimit(limiter ratelimit.Limiter, m *metrics.Metrics, l logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return next(c)
			}

			ctx := c.Request().Context()
			res, err := limiter.Allow(ctx, actor.ID)
			if err != nil {
				l.Warnf(ctx, "middleware.RateLimit: limiter unavailable, allowing %s: %v", actor.ID, err)
				return next(c)
			}
			if !res.Allowed {
				m.RateLimited()
				if secs := int(res.RetryAfter.Seconds()); secs > 0 {
					c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				}
				return echo.NewHTTPError(http.StatusTooManyRequests, dto.ErrorResponse{
					Code: "RATE_LIMITED", Message: "too many purchase attempts, retry later",
				})
			}

			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			return next(c)
		}
	}
}
