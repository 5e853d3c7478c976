package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// DualAuthMiddleware provides middleware that accepts both JWT and API key authentication
type DualAuthMiddleware struct {
	jwtAuth    *AuthMiddleware
	apiKeyAuth *APIKeyAuthMiddleware
}

// NewDualAuthMiddleware creates a new DualAuthMiddleware. jwtAuth may be
// nil when no JWT issuer is configured; key auth then carries all traffic.
func NewDualAuthMiddleware(jwtAuth *AuthMiddleware, apiKeyAuth *APIKeyAuthMiddleware) *DualAuthMiddleware {
	return &DualAuthMiddleware{
		jwtAuth:    jwtAuth,
		apiKeyAuth: apiKeyAuth,
	}
}

// Authenticate returns an Echo middleware that routes by credential shape:
// configured API keys carry the key prefix, anything else is treated as a JWT
func (m *DualAuthMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			var token string

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
				token = parts[1]
			} else if strings.HasPrefix(authHeader, APIKeyPrefix) {
				// Accept bare API keys (for simple clients)
				token = authHeader
			} else {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			if strings.HasPrefix(token, APIKeyPrefix) {
				log.Debug().Msg("Attempting API key authentication")
				return m.apiKeyAuth.authenticateWithKey(token)(next)(c)
			}

			if m.jwtAuth == nil {
				return unauthorizedError(c, "JWT authentication not configured")
			}

			log.Debug().Msg("Attempting JWT authentication")
			return m.jwtAuth.Authenticate()(next)(c)
		}
	}
}

// APIKeyOnly returns a middleware that only accepts API key authentication
func (m *DualAuthMiddleware) APIKeyOnly() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return unauthorizedError(c, "Missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				return unauthorizedError(c, "Invalid authorization header format")
			}

			token := parts[1]
			if !strings.HasPrefix(token, APIKeyPrefix) {
				log.Debug().Msg("Non-key credential rejected on key-only route")
				return unauthorizedError(c, "This endpoint requires API key authentication")
			}

			return m.apiKeyAuth.Authenticate()(next)(c)
		}
	}
}
