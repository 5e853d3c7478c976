package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/donalab/dona-backend/internal/domain"
)

// RescueNative moves stranded native balance out of the ledger's custody.
// Administrator-only. No book-keeping accompanies a rescue: it is an
// out-of-band escape hatch that bypasses the receipt ledger's accounting
// guarantees.
func (l *Ledger) RescueNative(ctx context.Context, caller, to domain.Address, amount *big.Int) error {
	return l.rescue(ctx, caller, domain.ZeroAddress, to, amount)
}

// RescueToken moves stranded token balance out of the ledger's custody.
// Same caveats as RescueNative.
func (l *Ledger) RescueToken(ctx context.Context, caller, token, to domain.Address, amount *big.Int) error {
	if token.IsZero() {
		return domain.ErrInvalidIdentity
	}
	return l.rescue(ctx, caller, token, to, amount)
}

func (l *Ledger) rescue(ctx context.Context, caller, asset, to domain.Address, amount *big.Int) error {
	ctx, err := l.enter(ctx)
	if err != nil {
		return err
	}
	defer l.exit()

	l.stateMu.RLock()
	err = l.access.requireOwner(caller)
	l.stateMu.RUnlock()
	if err != nil {
		return err
	}
	if to.IsZero() {
		return domain.ErrInvalidIdentity
	}
	if amount == nil || amount.Sign() <= 0 {
		return domain.ErrZeroAmount
	}

	if asset.IsZero() {
		err = l.transfer.TransferNative(ctx, to, amount)
	} else {
		err = l.transfer.TransferToken(ctx, asset, to, amount)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrTransferFailed, err)
	}
	return nil
}
