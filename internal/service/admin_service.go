package service

import (
	"context"
	"math/big"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/ledger"
	"github.com/rs/zerolog"
)

// LedgerState is the administrative read-out of the ledger's control
// plane.
type LedgerState struct {
	Owner         domain.Address   `json:"owner"`
	Writer        domain.Address   `json:"writer"`
	PendingWriter domain.Address   `json:"pendingWriter,omitempty"`
	Paused        bool             `json:"paused"`
	Fee           domain.FeeConfig `json:"fee"`
	NoteSeq       uint64           `json:"noteSeq"`
}

// AdminService handles the ledger's control-plane operations: fee policy,
// writer handover, pausing, ownership and rescue.
type AdminService struct {
	ledger *ledger.Ledger
	logger zerolog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(l *ledger.Ledger, logger zerolog.Logger) *AdminService {
	return &AdminService{
		ledger: l,
		logger: logger.With().Str("component", "admin_service").Logger(),
	}
}

// State returns a consistent snapshot of the control plane.
func (s *AdminService) State() LedgerState {
	return LedgerState{
		Owner:         s.ledger.Owner(),
		Writer:        s.ledger.Writer(),
		PendingWriter: s.ledger.PendingWriter(),
		Paused:        s.ledger.Paused(),
		Fee:           s.ledger.FeeConfig(),
		NoteSeq:       s.ledger.NoteSeq(),
	}
}

// SetFee installs a new fee policy
func (s *AdminService) SetFee(ctx context.Context, caller domain.Address, rateBps uint16, recipient domain.Address) error {
	if err := s.ledger.SetFee(ctx, caller, rateBps, recipient); err != nil {
		return err
	}
	s.logger.Info().
		Uint16("rate_bps", rateBps).
		Str("recipient", recipient.String()).
		Msg("Updated fee policy")
	return nil
}

// ProposeWriter stages a two-phase writer handover
func (s *AdminService) ProposeWriter(ctx context.Context, caller, candidate domain.Address) error {
	if err := s.ledger.ProposeWriter(ctx, caller, candidate); err != nil {
		return err
	}
	s.logger.Info().Str("candidate", candidate.String()).Msg("Proposed writer handover")
	return nil
}

// AcceptWriter completes a writer handover; only the proposed identity
// may call this.
func (s *AdminService) AcceptWriter(ctx context.Context, caller domain.Address) error {
	if err := s.ledger.AcceptWriter(ctx, caller); err != nil {
		return err
	}
	s.logger.Info().Str("writer", caller.String()).Msg("Writer handover accepted")
	return nil
}

// ForceSetWriter installs a writer immediately, discarding any pending
// proposal
func (s *AdminService) ForceSetWriter(ctx context.Context, caller, writer domain.Address) error {
	if err := s.ledger.ForceSetWriter(ctx, caller, writer); err != nil {
		return err
	}
	s.logger.Warn().Str("writer", writer.String()).Msg("Writer force-set")
	return nil
}

// SetPaused flips the pause flag
func (s *AdminService) SetPaused(ctx context.Context, caller domain.Address, paused bool) error {
	if err := s.ledger.SetPaused(ctx, caller, paused); err != nil {
		return err
	}
	s.logger.Warn().Bool("paused", paused).Msg("Pause flag changed")
	return nil
}

// TransferOwnership hands the administrator role to a new identity
func (s *AdminService) TransferOwnership(ctx context.Context, caller, newOwner domain.Address) error {
	if err := s.ledger.TransferOwnership(ctx, caller, newOwner); err != nil {
		return err
	}
	s.logger.Warn().Str("owner", newOwner.String()).Msg("Ownership transferred")
	return nil
}

// RescueNative moves stranded native balance out of custody
func (s *AdminService) RescueNative(ctx context.Context, caller, to domain.Address, amount *big.Int) error {
	if err := s.ledger.RescueNative(ctx, caller, to, amount); err != nil {
		return err
	}
	s.logger.Warn().
		Str("to", to.String()).
		Str("amount", amount.String()).
		Msg("Rescued native balance")
	return nil
}

// RescueToken moves stranded token balance out of custody
func (s *AdminService) RescueToken(ctx context.Context, caller, token, to domain.Address, amount *big.Int) error {
	if err := s.ledger.RescueToken(ctx, caller, token, to, amount); err != nil {
		return err
	}
	s.logger.Warn().
		Str("token", token.String()).
		Str("to", to.String()).
		Str("amount", amount.String()).
		Msg("Rescued token balance")
	return nil
}
