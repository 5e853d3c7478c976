package handler

import (
	"errors"
	"net/http"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/labstack/echo/v4"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation   = "https://dona.dev/errors/validation"
	ErrorTypeNotFound     = "https://dona.dev/errors/not-found"
	ErrorTypeUnauthorized = "https://dona.dev/errors/unauthorized"
	ErrorTypeForbidden    = "https://dona.dev/errors/forbidden"
	ErrorTypeConflict     = "https://dona.dev/errors/conflict"
	ErrorTypeUpstream     = "https://dona.dev/errors/upstream"
	ErrorTypeInternal     = "https://dona.dev/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnauthorized, ProblemDetails{
		Type:     ErrorTypeUnauthorized,
		Title:    "Unauthorized",
		Status:   http.StatusUnauthorized,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewForbiddenError creates a forbidden error response
func NewForbiddenError(c echo.Context, detail string) error {
	return c.JSON(http.StatusForbidden, ProblemDetails{
		Type:     ErrorTypeForbidden,
		Title:    "Forbidden",
		Status:   http.StatusForbidden,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewBadGatewayError creates a bad gateway error response (transfer rail failure)
func NewBadGatewayError(c echo.Context, detail string) error {
	return c.JSON(http.StatusBadGateway, ProblemDetails{
		Type:     ErrorTypeUpstream,
		Title:    "Upstream Transfer Failed",
		Status:   http.StatusBadGateway,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// handleLedgerError maps ledger domain errors to HTTP responses. The
// error order mirrors the ledger's own precondition order.
func handleLedgerError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return NewForbiddenError(c, "Identity does not hold the required role")
	case errors.Is(err, domain.ErrPaused):
		return NewConflictError(c, "Ledger is paused")
	case errors.Is(err, domain.ErrDuplicateOrder):
		return NewConflictError(c, "Order ID has already been settled")
	case errors.Is(err, domain.ErrInvalidOrderID):
		return NewValidationError(c, "Invalid order ID", nil)
	case errors.Is(err, domain.ErrInvalidIdentity):
		return NewValidationError(c, "Invalid or null address", nil)
	case errors.Is(err, domain.ErrZeroAmount):
		return NewValidationError(c, "Amount must be positive", nil)
	case errors.Is(err, domain.ErrInvalidAmount):
		return NewValidationError(c, "Amount is not representable in base units", nil)
	case errors.Is(err, domain.ErrMemoTooLong):
		return NewValidationError(c, "Memo exceeds maximum length", nil)
	case errors.Is(err, domain.ErrInvalidFeeRate):
		return NewValidationError(c, "Fee rate exceeds 10000 basis points", nil)
	case errors.Is(err, domain.ErrTransferFailed):
		return NewBadGatewayError(c, "Value transfer failed; settlement rolled back")
	case errors.Is(err, domain.ErrReceiptNotFound):
		return NewNotFoundError(c, "Receipt not found")
	case errors.Is(err, domain.ErrNoteNotFound):
		return NewNotFoundError(c, "Note not found")
	default:
		return NewInternalError(c, "Operation failed")
	}
}
