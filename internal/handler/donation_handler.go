package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/middleware"
	"github.com/donalab/dona-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DonationHandler handles the funds-free donation record path and the
// archived donation listing
type DonationHandler struct {
	settlementService *service.SettlementService
	receipts          domain.ReceiptArchive
}

// NewDonationHandler creates a new DonationHandler. receipts may be nil
// when no archive is configured; listing then returns 404.
func NewDonationHandler(settlementService *service.SettlementService, receipts domain.ReceiptArchive) *DonationHandler {
	return &DonationHandler{
		settlementService: settlementService,
		receipts:          receipts,
	}
}

// RecordRequest represents the JSON request for a funds-free donation record
type RecordRequest struct {
	Amount    string          `json:"amount,omitempty"`
	AmountWon decimal.Decimal `json:"amountWon,omitempty"`
	Memo      string          `json:"memo,omitempty"`
}

// NoteResponse represents a recorded donation note
type NoteResponse struct {
	ID         uint64 `json:"id"`
	Amount     string `json:"amount"`
	Memo       string `json:"memo,omitempty"`
	RecordedBy string `json:"recordedBy"`
	RecordedAt string `json:"recordedAt"`
}

func newNoteResponse(n *domain.Note) NoteResponse {
	return NoteResponse{
		ID:         n.ID,
		Amount:     n.Amount.String(),
		Memo:       n.Memo,
		RecordedBy: n.RecordedBy.String(),
		RecordedAt: n.Timestamp.Format(time.RFC3339),
	}
}

// Record appends a funds-free donation note
// @Summary Record donation note
// @Description Appends an audit note for a donation settled through a separate channel. No value moves.
// @Tags donations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecordRequest true "Donation record"
// @Success 201 {object} NoteResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Router /donations/record [post]
func (h *DonationHandler) Record(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	var req RecordRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Amount == "" && req.AmountWon.IsZero() {
		return NewValidationError(c, "Either amount or amountWon is required", nil)
	}

	note, err := h.settlementService.RecordDonation(c.Request().Context(), caller, service.NoteInput{
		Amount:    req.Amount,
		AmountWon: req.AmountWon,
		Memo:      req.Memo,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to record donation note")
		return handleLedgerError(c, err)
	}

	return c.JSON(http.StatusCreated, newNoteResponse(note))
}

// List returns recently archived settlement receipts
// @Summary List recent donations
// @Description Lists recently settled donation receipts from the archive, newest first
// @Tags donations
// @Produce json
// @Param limit query int false "Maximum results (default 20, max 100)"
// @Success 200 {array} ReceiptResponse
// @Failure 404 {object} ProblemDetails
// @Router /donations [get]
func (h *DonationHandler) List(c echo.Context) error {
	if h.receipts == nil {
		return NewNotFoundError(c, "No donation archive configured")
	}

	limit := domain.DefaultListLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return NewValidationError(c, "limit must be a positive integer", nil)
		}
		limit = parsed
	}

	receipts, err := h.receipts.RecentReceipts(c.Request().Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list archived receipts")
		return NewInternalError(c, "Failed to list donations")
	}

	out := make([]ReceiptResponse, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, newReceiptResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}
