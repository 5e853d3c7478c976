package handler

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/middleware"
	"github.com/donalab/dona-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AdminHandler handles the ledger's control-plane HTTP requests
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// FeeRequest represents the JSON request for a fee policy update
type FeeRequest struct {
	RateBps   uint16 `json:"rateBps"`
	Recipient string `json:"recipient"`
}

// WriterRequest represents the JSON request for writer handover operations
type WriterRequest struct {
	Writer string `json:"writer"`
}

// PauseRequest represents the JSON request for flipping the pause flag
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// OwnershipRequest represents the JSON request for an ownership transfer
type OwnershipRequest struct {
	NewOwner string `json:"newOwner"`
}

// RescueRequest represents the JSON request for a rescue transfer
type RescueRequest struct {
	Token  string `json:"token,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// SetFee updates the fee policy
// @Summary Update fee policy
// @Description Installs a new fee rate (basis points) and fee recipient. Administrator only.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body FeeRequest true "Fee policy"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /admin/fee [put]
func (h *AdminHandler) SetFee(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	var req FeeRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	recipient, err := domain.ParseAddress(req.Recipient)
	if err != nil {
		return NewValidationError(c, "Invalid fee recipient address", nil)
	}

	if err := h.adminService.SetFee(c.Request().Context(), caller, req.RateBps, recipient); err != nil {
		log.Error().Err(err).Msg("Failed to update fee policy")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ProposeWriter stages a two-phase writer handover
// @Summary Propose writer
// @Description Stages a writer handover; the active writer is unchanged until the candidate accepts. Administrator only.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body WriterRequest true "Candidate writer"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /admin/writer/propose [post]
func (h *AdminHandler) ProposeWriter(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	candidate, err := bindWriterRequest(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.adminService.ProposeWriter(c.Request().Context(), caller, candidate); err != nil {
		log.Error().Err(err).Msg("Failed to propose writer")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AcceptWriter completes a staged writer handover
// @Summary Accept writer handover
// @Description Promotes the caller to writer. Only the proposed identity may accept.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 204
// @Failure 403 {object} ProblemDetails
// @Router /writer/accept [post]
func (h *AdminHandler) AcceptWriter(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	if err := h.adminService.AcceptWriter(c.Request().Context(), caller); err != nil {
		log.Error().Err(err).Msg("Failed to accept writer handover")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ForceSetWriter installs a writer immediately
// @Summary Force-set writer
// @Description Installs the writer immediately, discarding any pending proposal. Administrator only.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body WriterRequest true "New writer"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /admin/writer/force [post]
func (h *AdminHandler) ForceSetWriter(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	writer, err := bindWriterRequest(c)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.adminService.ForceSetWriter(c.Request().Context(), caller, writer); err != nil {
		log.Error().Err(err).Msg("Failed to force-set writer")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// SetPaused flips the pause flag
// @Summary Pause or unpause the ledger
// @Description While paused, writer operations are rejected; administrator operations remain available.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PauseRequest true "Pause flag"
// @Success 204
// @Failure 403 {object} ProblemDetails
// @Router /admin/pause [put]
func (h *AdminHandler) SetPaused(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	var req PauseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	if err := h.adminService.SetPaused(c.Request().Context(), caller, req.Paused); err != nil {
		log.Error().Err(err).Msg("Failed to set pause flag")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// TransferOwnership hands the administrator role to a new identity
// @Summary Transfer ownership
// @Description Hands the administrator role to a new identity immediately. Administrator only.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OwnershipRequest true "New owner"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Router /admin/ownership/transfer [post]
func (h *AdminHandler) TransferOwnership(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	var req OwnershipRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	newOwner, err := domain.ParseAddress(req.NewOwner)
	if err != nil {
		return NewValidationError(c, "Invalid owner address", nil)
	}

	if err := h.adminService.TransferOwnership(c.Request().Context(), caller, newOwner); err != nil {
		log.Error().Err(err).Msg("Failed to transfer ownership")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RescueNative moves stranded native balance out of custody
// @Summary Rescue native balance
// @Description Moves stranded native balance to the given address, bypassing receipt accounting. Administrator only.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RescueRequest true "Rescue transfer"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /admin/rescue/native [post]
func (h *AdminHandler) RescueNative(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	to, amount, _, err := bindRescueRequest(c, false)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.adminService.RescueNative(c.Request().Context(), caller, to, amount); err != nil {
		log.Error().Err(err).Msg("Failed to rescue native balance")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RescueToken moves stranded token balance out of custody
// @Summary Rescue token balance
// @Description Moves stranded token balance to the given address, bypassing receipt accounting. Administrator only.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RescueRequest true "Rescue transfer (token required)"
// @Success 204
// @Failure 400 {object} ProblemDetails
// @Failure 403 {object} ProblemDetails
// @Failure 502 {object} ProblemDetails
// @Router /admin/rescue/token [post]
func (h *AdminHandler) RescueToken(c echo.Context) error {
	caller := middleware.GetIdentity(c)
	if caller.IsZero() {
		return NewUnauthorizedError(c, "Identity required")
	}

	to, amount, token, err := bindRescueRequest(c, true)
	if err != nil {
		return NewValidationError(c, err.Error(), nil)
	}

	if err := h.adminService.RescueToken(c.Request().Context(), caller, token, to, amount); err != nil {
		log.Error().Err(err).Msg("Failed to rescue token balance")
		return handleLedgerError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// The bind helpers never write to the response; the caller turns a
// non-nil error into the single 400 problem body.

func bindWriterRequest(c echo.Context) (domain.Address, error) {
	var req WriterRequest
	if err := c.Bind(&req); err != nil {
		return domain.ZeroAddress, errors.New("Invalid request body")
	}
	writer, err := domain.ParseAddress(req.Writer)
	if err != nil {
		return domain.ZeroAddress, errors.New("Invalid writer address")
	}
	return writer, nil
}

func bindRescueRequest(c echo.Context, wantToken bool) (domain.Address, *big.Int, domain.Address, error) {
	var req RescueRequest
	if err := c.Bind(&req); err != nil {
		return domain.ZeroAddress, nil, domain.ZeroAddress, errors.New("Invalid request body")
	}
	to, err := domain.ParseAddress(req.To)
	if err != nil {
		return domain.ZeroAddress, nil, domain.ZeroAddress, errors.New("Invalid destination address")
	}
	amount, err := domain.ParseBaseUnits(req.Amount)
	if err != nil {
		return domain.ZeroAddress, nil, domain.ZeroAddress, errors.New("Invalid amount")
	}
	var token domain.Address
	if wantToken {
		token, err = domain.ParseAddress(req.Token)
		if err != nil {
			return domain.ZeroAddress, nil, domain.ZeroAddress, errors.New("Invalid token address")
		}
	}
	return to, amount, token, nil
}
