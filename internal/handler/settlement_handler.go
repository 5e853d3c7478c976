package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/middleware"
	"github.com/donalab/dona-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SettlementHandler handles settlement HTTP requests
type SettlementHandler struct {
	settlementService *service.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settlementService *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
	}
}

// SettleRequest represents the JSON request for a settlement. Amount is
// in base units; amountWon is in KRW and is converted with the configured
// multiplier. Exactly one of the two must be set.
type SettleRequest struct {
	OrderID     string          `json:"orderId"`
	Donor       string          `json:"donor"`
	Beneficiary string          `json:"beneficiary"`
	Token       string          `json:"token,omitempty"`
	Amount      string          `json:"amount,omitempty"`
	AmountWon   decimal.Decimal `json:"amountWon,omitempty"`
	Memo        string          `json:"memo,omitempty"`
}

// ReceiptResponse represents a committed settlement receipt
type ReceiptResponse struct {
	OrderID     string `json:"orderId"`
	Donor       string `json:"donor"`
	Beneficiary string `json:"beneficiary"`
	Asset       string `json:"asset,omitempty"`
	GrossAmount string `json:"grossAmount"`
	Fee         string `json:"fee"`
	NetAmount   string `json:"netAmount"`
	Memo        string `json:"memo,omitempty"`
	SettledAt   string `json:"settledAt"`
}

func newReceiptResponse(r *domain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		OrderID:     r.OrderID.String(),
		Donor:       r.Donor.String(),
		Beneficiary: r.Beneficiary.String(),
		Asset:       r.Asset.String(),
		GrossAmount: r.GrossAmount.String(),
		Fee:         r.Fee.String(),
		NetAmount:   r.Net().String(),
		Memo:        r.Memo,
		SettledAt:   r.Timestamp.Format(time.RFC3339),
	}
}

// SettleNative settles a native-asset donation
// @Summary Settle native donation
// @Description Atomically splits a native-asset donation into net and fee legs and commits an immutable receipt under the order ID
// @Tags settlements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SettleRequest true "Settlement request"
// @Success 201 {object} ReceiptResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /settlements/native [post]
func (h *SettlementHandler) SettleNative(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	req, err := bindSettleRequest(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	receipt, err := h.settlementService.SettleNative(c.Request().Context(), caller, settleInput(req))
	if err != nil {
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("Failed to settle native donation")
		return handleLedgerError(c, err)
	}

	return c.JSON(http.StatusCreated, newReceiptResponse(receipt))
}

// SettleToken settles a token donation
// @Summary Settle token donation
// @Description Pulls the gross token amount from the caller's allowance, splits it into net and fee legs, and commits an immutable receipt
// @Tags settlements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SettleRequest true "Settlement request (token required)"
// @Success 201 {object} ReceiptResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 409 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /settlements/token [post]
func (h *SettlementHandler) SettleToken(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	req, err := bindSettleRequest(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}
	if req.Token == "" {
		return NewValidationError(c, "Token address is required", nil)
	}

	receipt, err := h.settlementService.SettleToken(c.Request().Context(), caller, settleInput(req))
	if err != nil {
		log.Error().Err(err).Str("order_id", req.OrderID).Msg("Failed to settle token donation")
		return handleLedgerError(c, err)
	}

	return c.JSON(http.StatusCreated, newReceiptResponse(receipt))
}

// bindSettleRequest decodes and validates the request body. It never
// writes to the response; the caller turns a non-nil error into the
// single 400 problem body.
func bindSettleRequest(c echo.Context) (SettleRequest, error) {
	var req SettleRequest
	if err := c.Bind(&req); err != nil {
		return req, errors.New("Invalid request body")
	}
	if req.OrderID == "" {
		return req, errors.New("Order ID is required")
	}
	if req.Donor == "" {
		return req, errors.New("Donor address is required")
	}
	if req.Beneficiary == "" {
		return req, errors.New("Beneficiary address is required")
	}
	if req.Amount == "" && req.AmountWon.IsZero() {
		return req, errors.New("Either amount or amountWon is required")
	}
	if req.Amount != "" && !req.AmountWon.IsZero() {
		return req, errors.New("amount and amountWon are mutually exclusive")
	}
	return req, nil
}

func settleInput(req SettleRequest) service.SettlementInput {
	return service.SettlementInput{
		OrderID:     req.OrderID,
		Donor:       req.Donor,
		Beneficiary: req.Beneficiary,
		Token:       req.Token,
		Amount:      req.Amount,
		AmountWon:   req.AmountWon,
		Memo:        req.Memo,
	}
}
