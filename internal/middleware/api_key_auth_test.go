package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/service"
	"github.com/labstack/echo/v4"
)

const (
	testWriterKey      = "dona_writer_key_abc123"
	testWriterIdentity = domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func contextWithIdentity(ctx context.Context, identity domain.Address) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func newResolver() *service.IdentityService {
	resolver := service.NewIdentityService(nil)
	resolver.AddKey(testWriterKey, testWriterIdentity)
	return resolver
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, domain.Address, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var identity domain.Address
	var reached bool
	handler := mw(func(c echo.Context) error {
		reached = true
		identity = GetIdentity(c)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	return rec, identity, reached
}

func TestAPIKeyAuthenticate(t *testing.T) {
	mw := NewAPIKeyAuthMiddleware(newResolver()).Authenticate()

	rec, identity, reached := runAuth(t, mw, "Bearer "+testWriterKey)
	if rec.Code != http.StatusOK || !reached {
		t.Fatalf("status = %d, reached = %v", rec.Code, reached)
	}
	if identity != testWriterIdentity {
		t.Errorf("identity = %s, want %s", identity, testWriterIdentity)
	}
}

func TestAPIKeyAuthenticateRejections(t *testing.T) {
	mw := NewAPIKeyAuthMiddleware(newResolver()).Authenticate()

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"no bearer scheme", testWriterKey},
		{"unknown key", "Bearer dona_unknown_key"},
		{"non-key credential", "Bearer eyJhbGciOiJSUzI1NiJ9.payload.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, reached := runAuth(t, mw, tt.header)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if reached {
				t.Error("handler must not run on rejected credentials")
			}
		})
	}
}

func TestDualAuthRoutesKeysWithoutJWTConfig(t *testing.T) {
	dual := NewDualAuthMiddleware(nil, NewAPIKeyAuthMiddleware(newResolver()))
	mw := dual.Authenticate()

	rec, identity, _ := runAuth(t, mw, "Bearer "+testWriterKey)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if identity != testWriterIdentity {
		t.Errorf("identity = %s", identity)
	}

	// Bare keys are accepted for simple clients.
	rec, identity, _ = runAuth(t, mw, testWriterKey)
	if rec.Code != http.StatusOK || identity != testWriterIdentity {
		t.Errorf("bare key: status = %d, identity = %s", rec.Code, identity)
	}

	// A JWT-shaped credential with no JWT issuer configured is rejected.
	rec, _, reached := runAuth(t, mw, "Bearer eyJhbGciOiJSUzI1NiJ9.payload.sig")
	if rec.Code != http.StatusUnauthorized || reached {
		t.Errorf("jwt without config: status = %d, reached = %v", rec.Code, reached)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiterWithConfig(60, 2)
	defer rl.Stop()
	mw := RateLimitMiddleware(rl)

	e := echo.New()
	call := func(identity domain.Address) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if !identity.IsZero() {
			req = req.WithContext(contextWithIdentity(req.Context(), identity))
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
		if err := handler(c); err != nil {
			t.Fatalf("middleware error: %v", err)
		}
		return rec
	}

	// Burst of 2 for one identity, then 429 with rate limit headers.
	for i := 0; i < 2; i++ {
		if rec := call(testWriterIdentity); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}
	rec := call(testWriterIdentity)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" || rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("missing rate limit headers: %v", rec.Header())
	}

	// Limits are per identity.
	other := domain.Address("0x9999999999999999999999999999999999999999")
	if rec := call(other); rec.Code != http.StatusOK {
		t.Errorf("other identity status = %d", rec.Code)
	}

	// Unauthenticated requests pass through untouched.
	if rec := call(domain.ZeroAddress); rec.Code != http.StatusOK {
		t.Errorf("unauthenticated status = %d", rec.Code)
	}
}
