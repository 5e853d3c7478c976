package ledger

import (
	"context"

	"github.com/donalab/dona-backend/internal/domain"
)

// accessState holds the role assignments. The writer slot is always
// occupied by exactly one non-null identity after construction; the
// pending slot is only occupied while a handover is in flight.
type accessState struct {
	owner         domain.Address
	writer        domain.Address
	pendingWriter domain.Address
	paused        bool
}

func (a *accessState) requireOwner(caller domain.Address) error {
	if caller.IsZero() || caller != a.owner {
		return domain.ErrUnauthorized
	}
	return nil
}

func (a *accessState) requireWriter(caller domain.Address) error {
	if caller.IsZero() || caller != a.writer {
		return domain.ErrUnauthorized
	}
	return nil
}

// ProposeWriter stages a writer handover. The active writer is unchanged
// until the candidate accepts, so a mistyped proposal cannot brick the
// writer role.
func (l *Ledger) ProposeWriter(ctx context.Context, caller, candidate domain.Address) error {
	if _, err := l.enter(ctx); err != nil {
		return err
	}
	defer l.exit()

	l.stateMu.Lock()
	if err := l.access.requireOwner(caller); err != nil {
		l.stateMu.Unlock()
		return err
	}
	if candidate.IsZero() {
		l.stateMu.Unlock()
		return domain.ErrInvalidIdentity
	}
	current := l.access.writer
	l.access.pendingWriter = candidate
	l.stateMu.Unlock()

	l.sink.WriterProposed(current, candidate)
	return nil
}

// AcceptWriter promotes the pending writer. Only the proposed identity
// itself may accept; the promotion and the clearing of the proposal are
// one atomic step.
func (l *Ledger) AcceptWriter(ctx context.Context, caller domain.Address) error {
	if _, err := l.enter(ctx); err != nil {
		return err
	}
	defer l.exit()

	l.stateMu.Lock()
	if caller.IsZero() || l.access.pendingWriter.IsZero() || caller != l.access.pendingWriter {
		l.stateMu.Unlock()
		return domain.ErrUnauthorized
	}
	old := l.access.writer
	l.access.writer = caller
	l.access.pendingWriter = domain.ZeroAddress
	l.stateMu.Unlock()

	l.sink.WriterUpdated(old, caller)
	return nil
}

// ForceSetWriter is the administrator's emergency override: it installs
// the new writer immediately and discards any pending proposal.
func (l *Ledger) ForceSetWriter(ctx context.Context, caller, writer domain.Address) error {
	if _, err := l.enter(ctx); err != nil {
		return err
	}
	defer l.exit()

	l.stateMu.Lock()
	if err := l.access.requireOwner(caller); err != nil {
		l.stateMu.Unlock()
		return err
	}
	if writer.IsZero() {
		l.stateMu.Unlock()
		return domain.ErrInvalidIdentity
	}
	old := l.access.writer
	l.access.writer = writer
	l.access.pendingWriter = domain.ZeroAddress
	l.stateMu.Unlock()

	l.sink.WriterUpdated(old, writer)
	return nil
}

// SetPaused flips the pause flag. While paused, writer-initiated mutating
// operations are rejected; administrator operations remain available.
func (l *Ledger) SetPaused(ctx context.Context, caller domain.Address, paused bool) error {
	if _, err := l.enter(ctx); err != nil {
		return err
	}
	defer l.exit()

	l.stateMu.Lock()
	if err := l.access.requireOwner(caller); err != nil {
		l.stateMu.Unlock()
		return err
	}
	changed := l.access.paused != paused
	l.access.paused = paused
	l.stateMu.Unlock()

	if changed {
		l.sink.PauseChanged(paused)
	}
	return nil
}

// TransferOwnership hands the administrator role to a new identity.
func (l *Ledger) TransferOwnership(ctx context.Context, caller, newOwner domain.Address) error {
	if _, err := l.enter(ctx); err != nil {
		return err
	}
	defer l.exit()

	l.stateMu.Lock()
	if err := l.access.requireOwner(caller); err != nil {
		l.stateMu.Unlock()
		return err
	}
	if newOwner.IsZero() {
		l.stateMu.Unlock()
		return domain.ErrInvalidIdentity
	}
	old := l.access.owner
	l.access.owner = newOwner
	l.stateMu.Unlock()

	l.sink.OwnershipTransferred(old, newOwner)
	return nil
}
