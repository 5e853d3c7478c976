package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/ledger"
	"github.com/donalab/dona-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LedgerHandler serves the ledger's read-only query surface
type LedgerHandler struct {
	ledger       *ledger.Ledger
	adminService *service.AdminService
	receipts     domain.ReceiptArchive
	notes        domain.NoteArchive
}

// NewLedgerHandler creates a new LedgerHandler. The archives may be nil;
// lookups then only see the in-process ledger state.
func NewLedgerHandler(l *ledger.Ledger, adminService *service.AdminService, receipts domain.ReceiptArchive, notes domain.NoteArchive) *LedgerHandler {
	return &LedgerHandler{
		ledger:       l,
		adminService: adminService,
		receipts:     receipts,
		notes:        notes,
	}
}

// LedgerStateResponse is the control-plane read-out
type LedgerStateResponse struct {
	Owner         string `json:"owner"`
	Writer        string `json:"writer"`
	PendingWriter string `json:"pendingWriter,omitempty"`
	Paused        bool   `json:"paused"`
	FeeRateBps    uint16 `json:"feeRateBps"`
	FeeRecipient  string `json:"feeRecipient"`
	NoteSeq       uint64 `json:"noteSeq"`
}

// OrderResponse reports whether an order ID has been settled
type OrderResponse struct {
	OrderID string `json:"orderId"`
	Settled bool   `json:"settled"`
}

// GetState returns the ledger's control-plane state
// @Summary Ledger state
// @Description Returns roles, pause flag, fee policy and note sequence
// @Tags ledger
// @Produce json
// @Success 200 {object} LedgerStateResponse
// @Router /ledger [get]
func (h *LedgerHandler) GetState(c echo.Context) error {
	state := h.adminService.State()
	return c.JSON(http.StatusOK, LedgerStateResponse{
		Owner:         state.Owner.String(),
		Writer:        state.Writer.String(),
		PendingWriter: state.PendingWriter.String(),
		Paused:        state.Paused,
		FeeRateBps:    state.Fee.RateBps,
		FeeRecipient:  state.Fee.Recipient.String(),
		NoteSeq:       state.NoteSeq,
	})
}

// GetOrder reports whether an order ID has been settled
// @Summary Order status
// @Description Reports whether the given order ID (raw 0x form or free-form key) has been settled
// @Tags ledger
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} ProblemDetails
// @Router /orders/{orderId} [get]
func (h *LedgerHandler) GetOrder(c echo.Context) error {
	orderID, err := service.ResolveOrderID(c.Param("orderId"))
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}
	return c.JSON(http.StatusOK, OrderResponse{
		OrderID: orderID.String(),
		Settled: h.ledger.HasOrderID(orderID),
	})
}

// GetReceipt returns the receipt for a settled order ID
// @Summary Receipt lookup
// @Description Returns the immutable receipt for a settled order ID, falling back to the archive for settlements from earlier process lifetimes
// @Tags ledger
// @Produce json
// @Param orderId path string true "Order ID"
// @Success 200 {object} ReceiptResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /receipts/{orderId} [get]
func (h *LedgerHandler) GetReceipt(c echo.Context) error {
	orderID, err := service.ResolveOrderID(c.Param("orderId"))
	if err != nil {
		return NewValidationError(c, "Invalid order ID", nil)
	}

	receipt, err := h.ledger.Receipt(orderID)
	if errors.Is(err, domain.ErrReceiptNotFound) && h.receipts != nil {
		receipt, err = h.receipts.ReceiptByOrderID(c.Request().Context(), orderID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrReceiptNotFound) {
			return NewNotFoundError(c, "Receipt not found")
		}
		log.Error().Err(err).Str("order_id", orderID.String()).Msg("Receipt lookup failed")
		return NewInternalError(c, "Receipt lookup failed")
	}

	return c.JSON(http.StatusOK, newReceiptResponse(receipt))
}

// GetNote returns the note with the given sequence ID
// @Summary Note lookup
// @Description Returns the funds-free note with the given sequence ID
// @Tags ledger
// @Produce json
// @Param id path int true "Note ID"
// @Success 200 {object} NoteResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /notes/{id} [get]
func (h *LedgerHandler) GetNote(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return NewValidationError(c, "Note ID must be a positive integer", nil)
	}

	note, lookupErr := h.ledger.Note(id)
	if errors.Is(lookupErr, domain.ErrNoteNotFound) && h.notes != nil {
		note, lookupErr = h.notes.NoteByID(c.Request().Context(), id)
	}
	if lookupErr != nil {
		if errors.Is(lookupErr, domain.ErrNoteNotFound) {
			return NewNotFoundError(c, "Note not found")
		}
		log.Error().Err(lookupErr).Uint64("note_id", id).Msg("Note lookup failed")
		return NewInternalError(c, "Note lookup failed")
	}

	return c.JSON(http.StatusOK, newNoteResponse(note))
}

// ListNotes returns recently recorded notes from the archive
// @Summary List recent notes
// @Description Lists recently recorded funds-free notes, newest first
// @Tags ledger
// @Produce json
// @Param limit query int false "Maximum results (default 20, max 100)"
// @Success 200 {array} NoteResponse
// @Failure 404 {object} ProblemDetails
// @Router /notes [get]
func (h *LedgerHandler) ListNotes(c echo.Context) error {
	if h.notes == nil {
		return NewNotFoundError(c, "No note archive configured")
	}

	limit := domain.DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return NewValidationError(c, "limit must be a positive integer", nil)
		}
		limit = parsed
	}

	notes, err := h.notes.RecentNotes(c.Request().Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list archived notes")
		return NewInternalError(c, "Failed to list notes")
	}

	out := make([]NoteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, newNoteResponse(n))
	}
	return c.JSON(http.StatusOK, out)
}
