package service

import (
	"context"
	"math/big"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SettlementInput carries one settlement request. OrderID is either a
// 0x-prefixed 32-byte hex id or a free-form idempotency key (hashed).
// Exactly one of Amount (base units, decimal string) or AmountWon (KRW)
// must be set.
type SettlementInput struct {
	OrderID     string
	Donor       string
	Beneficiary string
	Token       string // empty for native settlements
	Amount      string
	AmountWon   decimal.Decimal
	Memo        string
}

// NoteInput carries one funds-free donation record.
type NoteInput struct {
	Amount    string
	AmountWon decimal.Decimal
	Memo      string
}

// SettlementService handles settlement operations against the ledger
type SettlementService struct {
	ledger        *ledger.Ledger
	wonMultiplier int64
	logger        zerolog.Logger
}

// NewSettlementService creates a new SettlementService
func NewSettlementService(l *ledger.Ledger, wonMultiplier int64, logger zerolog.Logger) *SettlementService {
	return &SettlementService{
		ledger:        l,
		wonMultiplier: wonMultiplier,
		logger:        logger.With().Str("component", "settlement_service").Logger(),
	}
}

// SettleNative settles a native-asset donation for the given caller
// identity and returns the committed receipt.
func (s *SettlementService) SettleNative(ctx context.Context, caller domain.Address, input SettlementInput) (*domain.Receipt, error) {
	orderID, donor, beneficiary, amount, err := s.resolve(input)
	if err != nil {
		return nil, err
	}

	receipt, err := s.ledger.SettleNative(ctx, caller, orderID, donor, beneficiary, amount, input.Memo)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", receipt.OrderID.String()).
		Str("beneficiary", receipt.Beneficiary.String()).
		Str("gross", receipt.GrossAmount.String()).
		Str("fee", receipt.Fee.String()).
		Msg("Settled native donation")
	return receipt, nil
}

// SettleToken settles a token donation. The gross amount is pulled from
// the caller's token allowance before distribution.
func (s *SettlementService) SettleToken(ctx context.Context, caller domain.Address, input SettlementInput) (*domain.Receipt, error) {
	orderID, donor, beneficiary, amount, err := s.resolve(input)
	if err != nil {
		return nil, err
	}
	token, err := domain.ParseAddress(input.Token)
	if err != nil {
		return nil, err
	}

	receipt, err := s.ledger.SettleToken(ctx, caller, orderID, donor, beneficiary, token, amount, input.Memo)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", receipt.OrderID.String()).
		Str("token", receipt.Asset.String()).
		Str("beneficiary", receipt.Beneficiary.String()).
		Str("gross", receipt.GrossAmount.String()).
		Str("fee", receipt.Fee.String()).
		Msg("Settled token donation")
	return receipt, nil
}

// RecordDonation appends a funds-free note through the compatibility
// path. No value moves; the record exists for callers that settle through
// a separate channel.
func (s *SettlementService) RecordDonation(ctx context.Context, caller domain.Address, input NoteInput) (*domain.Note, error) {
	amount, err := s.resolveAmount(input.Amount, input.AmountWon)
	if err != nil {
		return nil, err
	}

	note, err := s.ledger.RecordNote(ctx, caller, amount, input.Memo)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint64("note_id", note.ID).
		Str("amount", note.Amount.String()).
		Msg("Recorded donation note")
	return note, nil
}

func (s *SettlementService) resolve(input SettlementInput) (domain.OrderID, domain.Address, domain.Address, *big.Int, error) {
	orderID, err := ResolveOrderID(input.OrderID)
	if err != nil {
		return domain.OrderID{}, "", "", nil, err
	}
	donor, err := domain.ParseAddress(input.Donor)
	if err != nil {
		return domain.OrderID{}, "", "", nil, err
	}
	beneficiary, err := domain.ParseAddress(input.Beneficiary)
	if err != nil {
		return domain.OrderID{}, "", "", nil, err
	}
	amount, err := s.resolveAmount(input.Amount, input.AmountWon)
	if err != nil {
		return domain.OrderID{}, "", "", nil, err
	}
	return orderID, donor, beneficiary, amount, nil
}

func (s *SettlementService) resolveAmount(baseUnits string, won decimal.Decimal) (*big.Int, error) {
	if baseUnits != "" {
		return domain.ParseBaseUnits(baseUnits)
	}
	return domain.WonToBaseUnits(won, s.wonMultiplier)
}

// ResolveOrderID accepts either the raw 0x-prefixed 32-byte form or a
// free-form idempotency key, which is hashed into the id space.
func ResolveOrderID(s string) (domain.OrderID, error) {
	if s == "" {
		return domain.OrderID{}, domain.ErrInvalidOrderID
	}
	if id, err := domain.ParseOrderID(s); err == nil {
		return id, nil
	}
	return domain.OrderKey(s), nil
}
