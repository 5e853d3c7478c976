package domain

import "errors"

// Ledger error taxonomy. Every failure is terminal for the call that
// produced it: no partial state is retained, so callers may safely retry
// after fixing the cause.
var (
	ErrUnauthorized    = errors.New("caller is not authorized")
	ErrPaused          = errors.New("ledger is paused")
	ErrDuplicateOrder  = errors.New("order id already settled")
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrZeroAmount      = errors.New("amount must be greater than zero")
	ErrMemoTooLong     = errors.New("memo exceeds maximum length")
	ErrTransferFailed  = errors.New("transfer failed")
	ErrInvalidFeeRate  = errors.New("fee rate outside basis-point domain")
	ErrReentrantCall   = errors.New("reentrant ledger call")

	ErrInvalidOrderID  = errors.New("invalid order id")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrNoteNotFound    = errors.New("note not found")
	ErrInvalidAmount   = errors.New("invalid amount")
)

// Validation constants
const (
	// MemoMaxLen is the maximum memo length in bytes.
	MemoMaxLen = 256
)
