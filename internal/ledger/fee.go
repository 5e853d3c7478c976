package ledger

import (
	"context"

	"github.com/donalab/dona-backend/internal/domain"
)

// SetFee installs a new fee policy. Any rate within the basis-point
// domain is accepted, including 0 (free) and 10000 (the entire amount as
// fee): a misconfigured 100% rate is a policy decision, not an error.
func (l *Ledger) SetFee(ctx context.Context, caller domain.Address, rateBps uint16, recipient domain.Address) error {
	if _, err := l.enter(ctx); err != nil {
		return err
	}
	defer l.exit()

	l.stateMu.Lock()
	if err := l.access.requireOwner(caller); err != nil {
		l.stateMu.Unlock()
		return err
	}
	if recipient.IsZero() {
		l.stateMu.Unlock()
		return domain.ErrInvalidIdentity
	}
	if rateBps > domain.MaxFeeBps {
		l.stateMu.Unlock()
		return domain.ErrInvalidFeeRate
	}
	cfg := domain.FeeConfig{RateBps: rateBps, Recipient: recipient}
	l.fee = cfg
	l.stateMu.Unlock()

	l.sink.FeeUpdated(cfg)
	return nil
}
