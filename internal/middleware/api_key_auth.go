package middleware

import (
	"context"
	"strings"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	// IdentityKey is the context key for the resolved ledger identity
	IdentityKey contextKey = "ledger_identity"
	// IsAPIKeyAuthKey is the context key indicating API key authentication
	IsAPIKeyAuthKey contextKey = "is_api_key_auth"

	// APIKeyPrefix distinguishes configured API keys from JWTs in the
	// Authorization header
	APIKeyPrefix = domain.APIKeyPrefix
)

// IdentityResolver resolves an API key to the ledger identity it speaks for
type IdentityResolver interface {
	IdentityForKey(key string) (domain.Address, bool)
}

// APIKeyAuthMiddleware provides API key authentication middleware
type APIKeyAuthMiddleware struct {
	resolver IdentityResolver
}

// NewAPIKeyAuthMiddleware creates a new APIKeyAuthMiddleware
func NewAPIKeyAuthMiddleware(resolver IdentityResolver) *APIKeyAuthMiddleware {
	return &APIKeyAuthMiddleware{resolver: resolver}
}

// Authenticate returns an Echo middleware that validates API keys
func (m *APIKeyAuthMiddleware) Authenticate() echo.MiddlewareFunc {
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

			key := parts[1]
			if !strings.HasPrefix(key, APIKeyPrefix) {
				return unauthorizedError(c, "Invalid key format")
			}

			return m.authenticateWithKey(key)(next)(c)
		}
	}
}

// authenticateWithKey resolves an already-extracted key and injects the
// identity into the request context
func (m *APIKeyAuthMiddleware) authenticateWithKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := m.resolver.IdentityForKey(key)
			if !ok {
				log.Debug().Msg("API key not recognized")
				return unauthorizedError(c, "Invalid API key")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, IdentityKey, identity)
			ctx = context.WithValue(ctx, IsAPIKeyAuthKey, true)
			c.SetRequest(c.Request().WithContext(ctx))

			log.Debug().
				Str("identity", identity.String()).
				Msg("API key authentication successful")

			return next(c)
		}
	}
}

// GetIdentity extracts the resolved ledger identity from the context.
// Returns the zero address when the request is unauthenticated.
func GetIdentity(c echo.Context) domain.Address {
	if id, ok := c.Request().Context().Value(IdentityKey).(domain.Address); ok {
		return id
	}
	return domain.ZeroAddress
}

// IsAPIKeyAuth checks if the request was authenticated via API key
func IsAPIKeyAuth(c echo.Context) bool {
	if isKey, ok := c.Request().Context().Value(IsAPIKeyAuthKey).(bool); ok {
		return isKey
	}
	return false
}
