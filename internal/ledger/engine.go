package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/donalab/dona-backend/internal/domain"
)

// SettleNative settles a native-asset transfer: the gross amount is split
// into net and fee legs out of the ledger's custody and an immutable
// receipt is committed under the order id.
func (l *Ledger) SettleNative(ctx context.Context, caller domain.Address, orderID domain.OrderID, donor, beneficiary domain.Address, amount *big.Int, memo string) (*domain.Receipt, error) {
	return l.settle(ctx, caller, orderID, donor, beneficiary, domain.ZeroAddress, amount, memo)
}

// SettleToken settles a token transfer. The gross amount is first pulled
// from the caller's allowance into custody, then distributed.
func (l *Ledger) SettleToken(ctx context.Context, caller domain.Address, orderID domain.OrderID, donor, beneficiary, token domain.Address, amount *big.Int, memo string) (*domain.Receipt, error) {
	if token.IsZero() {
		return nil, domain.ErrInvalidIdentity
	}
	return l.settle(ctx, caller, orderID, donor, beneficiary, token, amount, memo)
}

// settle runs the shared settlement algorithm. The whole call is an
// all-or-nothing unit: a failed transfer rolls the order reservation back
// so the caller may retry the identical order id.
func (l *Ledger) settle(ctx context.Context, caller domain.Address, orderID domain.OrderID, donor, beneficiary, asset domain.Address, amount *big.Int, memo string) (*domain.Receipt, error) {
	ctx, err := l.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer l.exit()

	// Preconditions, first failure wins.
	l.stateMu.Lock()
	if err := l.access.requireWriter(caller); err != nil {
		l.stateMu.Unlock()
		return nil, err
	}
	if l.access.paused {
		l.stateMu.Unlock()
		return nil, domain.ErrPaused
	}
	if l.orders.isUsed(orderID) {
		l.stateMu.Unlock()
		return nil, domain.ErrDuplicateOrder
	}
	if donor.IsZero() || beneficiary.IsZero() {
		l.stateMu.Unlock()
		return nil, domain.ErrInvalidIdentity
	}
	if amount == nil || amount.Sign() <= 0 {
		l.stateMu.Unlock()
		return nil, domain.ErrZeroAmount
	}
	if len(memo) > domain.MemoMaxLen {
		l.stateMu.Unlock()
		return nil, domain.ErrMemoTooLong
	}

	// Reserve before any value moves so a retry with the same order id is
	// rejected deterministically.
	if err := l.orders.reserve(orderID); err != nil {
		l.stateMu.Unlock()
		return nil, err
	}
	feeCfg := l.fee
	l.stateMu.Unlock()

	fee, net := feeCfg.Split(amount)

	if err := l.distribute(ctx, asset, caller, beneficiary, feeCfg.Recipient, amount, net, fee); err != nil {
		l.stateMu.Lock()
		l.orders.rollback(orderID)
		l.stateMu.Unlock()
		return nil, fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}

	receipt := &domain.Receipt{
		OrderID:     orderID,
		Donor:       donor,
		Beneficiary: beneficiary,
		Asset:       asset,
		GrossAmount: new(big.Int).Set(amount),
		Fee:         fee,
		Memo:        memo,
		Timestamp:   l.clock().UTC(),
	}

	l.stateMu.Lock()
	l.orders.commit(orderID, receipt)
	l.stateMu.Unlock()

	l.sink.SettlementSettled(receipt)
	return receipt.Clone(), nil
}

// distribute executes the transfer legs for one settlement.
func (l *Ledger) distribute(ctx context.Context, asset, caller, beneficiary, feeRecipient domain.Address, gross, net, fee *big.Int) error {
	if asset.IsZero() {
		if err := l.transfer.TransferNative(ctx, beneficiary, net); err != nil {
			return err
		}
		if fee.Sign() > 0 {
			if err := l.transfer.TransferNative(ctx, feeRecipient, fee); err != nil {
				return err
			}
		}
		return nil
	}

	if err := l.transfer.PullToken(ctx, asset, caller, gross); err != nil {
		return err
	}
	if err := l.transfer.TransferToken(ctx, asset, beneficiary, net); err != nil {
		return err
	}
	if fee.Sign() > 0 {
		if err := l.transfer.TransferToken(ctx, asset, feeRecipient, fee); err != nil {
			return err
		}
	}
	return nil
}

// RecordNote appends a funds-free note via the compatibility path. It
// moves no value; it exists as an audit-trail adapter for callers that
// settle through a different channel.
func (l *Ledger) RecordNote(ctx context.Context, caller domain.Address, amount *big.Int, memo string) (*domain.Note, error) {
	if _, err := l.enter(ctx); err != nil {
		return nil, err
	}
	defer l.exit()

	l.stateMu.Lock()
	if err := l.access.requireWriter(caller); err != nil {
		l.stateMu.Unlock()
		return nil, err
	}
	if l.access.paused {
		l.stateMu.Unlock()
		return nil, domain.ErrPaused
	}
	if amount == nil || amount.Sign() <= 0 {
		l.stateMu.Unlock()
		return nil, domain.ErrZeroAmount
	}
	if len(memo) > domain.MemoMaxLen {
		l.stateMu.Unlock()
		return nil, domain.ErrMemoTooLong
	}

	note := &domain.Note{
		Amount:     new(big.Int).Set(amount),
		Memo:       memo,
		Timestamp:  l.clock().UTC(),
		RecordedBy: caller,
	}
	l.notes.append(note)
	l.stateMu.Unlock()

	l.sink.NoteRecorded(note)
	return note.Clone(), nil
}
