package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/dto"
	"github.com/Eursukkul/ticket-marketplace/ticketing-service/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const actorKey = "actor"

var (
	errUnauthenticated = echo.NewHTTPError(http.StatusUnauthorized, dto.ErrorResponse{
		Code: "UNAUTHENTICATED", Message: "missing or invalid bearer token",
	})
	errForbidden = echo.NewHTTPError(http.StatusForbidden, dto.ErrorResponse{
		Code: "FORBIDDEN", Message: "role not permitted",
	})
)

// Claims carry the caller id in sub and its role.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Auth verifies an HS256 bearer token and stores the caller as a
// models.Actor on the echo context.
func Auth(secret string) echo.MiddlewareFunc {
	key := []byte(secret)
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return errUnauthenticated
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return key, nil })
			if err != nil || claims.Subject == "" {
				return errUnauthenticated
			}

			role := claims.Role
			if role == "" {
				role = models.RoleUser
			}
			SetActor(c, models.Actor{ID: claims.Subject, Role: role})
			return next(c)
		}
	}
}

// RequireRole must run after Auth.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFrom(c)
			if !ok {
				return errUnauthenticated
			}
			if !slices.Contains(roles, actor.Role) {
				return errForbidden
			}
			return next(c)
		}
	}
}

func SetActor(c echo.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}

func ActorFrom(c echo.Context) (models.Actor, bool) {
	actor, ok := c.Get(actorKey).(models.Actor)
	return actor, ok
}

// IssueToken signs a token for actor. Used by tooling and tests.
func IssueToken(secret string, actor models.Actor, ttl time.Duration) (string, error) {
	if actor.ID == "" {
		return "", errors.New("actor id is required")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
