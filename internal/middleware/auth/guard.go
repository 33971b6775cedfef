package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stores_api/internal/token"
)

const userIDKey = "userID"

// Require guards a route group with the token authority. When fresh is true
// only tokens obtained through a full login pass; refreshed tokens get 401.
func Require(a *token.Authority, fresh bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := BearerToken(c)
			if err != nil {
				return unauthorized("token_missing", err.Error())
			}

			userID, err := a.Validate(c.Request().Context(), raw, fresh)
			if err != nil {
				switch {
				case errors.Is(err, token.ErrTokenRevoked):
					return unauthorized("token_revoked", "token has been revoked")
				case errors.Is(err, token.ErrTokenStale):
					return unauthorized("fresh_token_required", "fresh token required, log in again")
				default:
					return unauthorized("invalid_token", "invalid or expired token")
				}
			}

			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("authorization header is not a bearer token")
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

// UserID returns the subject resolved by Require for the current request.
func UserID(c echo.Context) uint {
	id, _ := c.Get(userIDKey).(uint)
	return id
}

func unauthorized(code, message string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
		"code":    code,
		"message": message,
	})
}
