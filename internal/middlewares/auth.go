package middlewares

import (
	"crypto/subtle"
	"fmt"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/checkin-dispatch-service/pkg/logger"
	"github.com/onurcolak/checkin-dispatch-service/pkg/response"
)

const (
	APIKeyHeader = "x-checkin-auth-key"

	// GroupContextKey holds the name of the key group that authorized the request.
	GroupContextKey = "apiKeyGroup"
)

func keysMatch(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// APIKeyAuth protects a route group with its own key, read from the
// x-checkin-auth-key header. An unset key is a server misconfiguration and
// every request to the group fails with 500.
func APIKeyAuth(group, apiKey string) echo.MiddlewareFunc {
	if apiKey == "" {
		logger.Warnf("API key for %s is not configured, the group will reject every request", group)

		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return response.InternalServerError(
					c,
					fmt.Errorf("API key is not configured for the %s endpoints", group),
				)
			}
		}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(APIKeyHeader)
			if token == "" || !keysMatch(token, apiKey) {
				logger.Warnf("Rejected %s %s from %s: invalid or missing %s key",
					c.Request().Method, c.Request().URL.Path, c.RealIP(), group)
				return response.Unauthorized(c)
			}

			c.Set(GroupContextKey, group)
			return next(c)
		}
	}
}
