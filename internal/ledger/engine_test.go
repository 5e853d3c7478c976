package ledger

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/donalab/dona-backend/internal/domain"
)

func amt(v int64) *big.Int {
	return big.NewInt(v)
}

func TestSettleNative(t *testing.T) {
	l, transferer, sink := newTestLedger(t, 250)
	ctx := t.Context()

	receipt, err := l.SettleNative(ctx, writerAddr, orderID("order-1"), donorAddr, benefAddr, amt(10000), "first donation")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	if receipt.OrderID != orderID("order-1") {
		t.Errorf("order id = %s", receipt.OrderID)
	}
	if receipt.GrossAmount.Int64() != 10000 || receipt.Fee.Int64() != 250 {
		t.Errorf("gross/fee = %s/%s, want 10000/250", receipt.GrossAmount, receipt.Fee)
	}
	if receipt.Net().Int64() != 9750 {
		t.Errorf("net = %s, want 9750", receipt.Net())
	}
	if !receipt.Native() {
		t.Error("native settlement should have the zero asset")
	}
	if !receipt.Timestamp.Equal(testClock()) {
		t.Errorf("timestamp = %s", receipt.Timestamp)
	}

	// Two native legs: net to the beneficiary, fee to the recipient.
	if got := len(transferer.Calls); got != 2 {
		t.Fatalf("transfer calls = %d, want 2", got)
	}
	if c := transferer.Calls[0]; c.Kind != "native" || c.To != benefAddr || c.Amount.Int64() != 9750 {
		t.Errorf("net leg = %+v", c)
	}
	if c := transferer.Calls[1]; c.Kind != "native" || c.To != feeAddr || c.Amount.Int64() != 250 {
		t.Errorf("fee leg = %+v", c)
	}

	if !l.HasOrderID(orderID("order-1")) {
		t.Error("order should be marked settled")
	}
	if sink.ReceiptCount() != 1 {
		t.Errorf("sink receipts = %d, want 1", sink.ReceiptCount())
	}
}

func TestSettleNativeZeroFeeSkipsFeeLeg(t *testing.T) {
	l, transferer, _ := newTestLedger(t, 0)

	if _, err := l.SettleNative(t.Context(), writerAddr, orderID("free"), donorAddr, benefAddr, amt(777), ""); err != nil {
		t.Fatalf("settle: %v", err)
	}

	if got := len(transferer.Calls); got != 1 {
		t.Fatalf("transfer calls = %d, want 1 (no fee leg at 0 bps)", got)
	}
	if c := transferer.Calls[0]; c.To != benefAddr || c.Amount.Int64() != 777 {
		t.Errorf("net leg = %+v", c)
	}
}

func TestSettleNativeFullFee(t *testing.T) {
	l, transferer, _ := newTestLedger(t, domain.MaxFeeBps)

	receipt, err := l.SettleNative(t.Context(), writerAddr, orderID("full-fee"), donorAddr, benefAddr, amt(500), "")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if receipt.Fee.Int64() != 500 || receipt.Net().Sign() != 0 {
		t.Errorf("fee/net = %s/%s, want 500/0", receipt.Fee, receipt.Net())
	}
	fees := transferer.CallsTo(feeAddr)
	if len(fees) != 1 || fees[0].Amount.Int64() != 500 {
		t.Errorf("fee calls = %+v", fees)
	}
}

func TestSettleToken(t *testing.T) {
	l, transferer, _ := newTestLedger(t, 250)

	receipt, err := l.SettleToken(t.Context(), writerAddr, orderID("tok-1"), donorAddr, benefAddr, tokenAddr, amt(10000), "token donation")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if receipt.Asset != tokenAddr || receipt.Native() {
		t.Errorf("asset = %s", receipt.Asset)
	}

	// Pull gross from the caller, then net and fee legs.
	if got := len(transferer.Calls); got != 3 {
		t.Fatalf("transfer calls = %d, want 3", got)
	}
	if c := transferer.Calls[0]; c.Kind != "pull" || c.From != writerAddr || c.Amount.Int64() != 10000 {
		t.Errorf("pull leg = %+v", c)
	}
	if c := transferer.Calls[1]; c.Kind != "token" || c.To != benefAddr || c.Amount.Int64() != 9750 {
		t.Errorf("net leg = %+v", c)
	}
	if c := transferer.Calls[2]; c.Kind != "token" || c.To != feeAddr || c.Amount.Int64() != 250 {
		t.Errorf("fee leg = %+v", c)
	}
}

func TestSettleTokenRequiresTokenAddress(t *testing.T) {
	l, _, _ := newTestLedger(t, 0)
	_, err := l.SettleToken(t.Context(), writerAddr, orderID("tok-zero"), donorAddr, benefAddr, domain.ZeroAddress, amt(1), "")
	if err != domain.ErrInvalidIdentity {
		t.Errorf("expected ErrInvalidIdentity, got %v", err)
	}
}

func TestSettleDuplicateOrder(t *testing.T) {
	l, _, sink := newTestLedger(t, 0)
	ctx := t.Context()

	if _, err := l.SettleNative(ctx, writerAddr, orderID("dup"), donorAddr, benefAddr, amt(100), ""); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	_, err := l.SettleNative(ctx, writerAddr, orderID("dup"), donorAddr, benefAddr, amt(100), "")
	if err != domain.ErrDuplicateOrder {
		t.Errorf("expected ErrDuplicateOrder, got %v", err)
	}
	if sink.ReceiptCount() != 1 {
		t.Errorf("sink receipts = %d, want 1", sink.ReceiptCount())
	}
}

func TestSettleRollbackOnTransferFailure(t *testing.T) {
	l, transferer, sink := newTestLedger(t, 250)
	ctx := t.Context()

	boom := errors.New("rail down")
	transferer.NativeFn = func(context.Context, domain.Address, *big.Int) error {
		return boom
	}

	_, err := l.SettleNative(ctx, writerAddr, orderID("retry-me"), donorAddr, benefAddr, amt(1000), "")
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	// Nothing committed: the order id is free again and no event fired.
	if l.HasOrderID(orderID("retry-me")) {
		t.Error("failed settlement must not consume the order id")
	}
	if _, err := l.Receipt(orderID("retry-me")); err != domain.ErrReceiptNotFound {
		t.Errorf("expected no receipt, got %v", err)
	}
	if sink.ReceiptCount() != 0 {
		t.Errorf("sink receipts = %d, want 0", sink.ReceiptCount())
	}

	// Retry with the identical order id succeeds once the rail recovers.
	transferer.NativeFn = nil
	if _, err := l.SettleNative(ctx, writerAddr, orderID("retry-me"), donorAddr, benefAddr, amt(1000), ""); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !l.HasOrderID(orderID("retry-me")) {
		t.Error("retry should settle the order")
	}
}

func TestSettleRollbackOnFeeLegFailure(t *testing.T) {
	l, transferer, _ := newTestLedger(t, 250)

	// Net leg succeeds, fee leg fails: still all-or-nothing.
	calls := 0
	transferer.NativeFn = func(context.Context, domain.Address, *big.Int) error {
		calls++
		if calls == 2 {
			return errors.New("fee leg failed")
		}
		return nil
	}

	_, err := l.SettleNative(t.Context(), writerAddr, orderID("fee-fail"), donorAddr, benefAddr, amt(1000), "")
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}
	if l.HasOrderID(orderID("fee-fail")) {
		t.Error("partial settlement must not commit")
	}
}

func TestSettlePreconditions(t *testing.T) {
	tests := []struct {
		name   string
		caller domain.Address
		donor  domain.Address
		benef  domain.Address
		amount *big.Int
		memo   string
		want   error
	}{
		{"non-writer caller", outsiderAddr, donorAddr, benefAddr, amt(100), "", domain.ErrUnauthorized},
		{"owner is not writer", ownerAddr, donorAddr, benefAddr, amt(100), "", domain.ErrUnauthorized},
		{"zero donor", writerAddr, domain.ZeroAddress, benefAddr, amt(100), "", domain.ErrInvalidIdentity},
		{"zero beneficiary", writerAddr, donorAddr, domain.ZeroAddress, amt(100), "", domain.ErrInvalidIdentity},
		{"zero amount", writerAddr, donorAddr, benefAddr, amt(0), "", domain.ErrZeroAmount},
		{"negative amount", writerAddr, donorAddr, benefAddr, amt(-5), "", domain.ErrZeroAmount},
		{"nil amount", writerAddr, donorAddr, benefAddr, nil, "", domain.ErrZeroAmount},
		{"memo too long", writerAddr, donorAddr, benefAddr, amt(100), strings.Repeat("x", domain.MemoMaxLen+1), domain.ErrMemoTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, transferer, _ := newTestLedger(t, 0)
			_, err := l.SettleNative(t.Context(), tt.caller, orderID(tt.name), tt.donor, tt.benef, tt.amount, tt.memo)
			if err != tt.want {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if len(transferer.Calls) != 0 {
				t.Error("rejected settlement must not move value")
			}
		})
	}
}

func TestSettleWhilePaused(t *testing.T) {
	l, _, _ := newTestLedger(t, 0)
	ctx := t.Context()

	if err := l.SetPaused(ctx, ownerAddr, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := l.SettleNative(ctx, writerAddr, orderID("paused"), donorAddr, benefAddr, amt(100), ""); err != domain.ErrPaused {
		t.Errorf("expected ErrPaused, got %v", err)
	}
	// Role check precedes the pause check.
	if _, err := l.SettleNative(ctx, outsiderAddr, orderID("paused"), donorAddr, benefAddr, amt(100), ""); err != domain.ErrUnauthorized {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}

	if err := l.SetPaused(ctx, ownerAddr, false); err != nil {
		t.Fatalf("unpause: %v", err)
	}
	if _, err := l.SettleNative(ctx, writerAddr, orderID("paused"), donorAddr, benefAddr, amt(100), ""); err != nil {
		t.Errorf("settle after unpause: %v", err)
	}
}

func TestSettleRejectsReentry(t *testing.T) {
	l, transferer, _ := newTestLedger(t, 0)

	var reentryErr error
	transferer.NativeFn = func(ctx context.Context, _ domain.Address, _ *big.Int) error {
		// The transfer rail calls back into the ledger mid-settlement.
		_, reentryErr = l.SettleNative(ctx, writerAddr, orderID("inner"), donorAddr, benefAddr, amt(1), "")
		return reentryErr
	}

	_, err := l.SettleNative(t.Context(), writerAddr, orderID("outer"), donorAddr, benefAddr, amt(100), "")
	if !errors.Is(err, domain.ErrTransferFailed) {
		t.Fatalf("outer error = %v, want ErrTransferFailed", err)
	}
	if reentryErr != domain.ErrReentrantCall {
		t.Errorf("inner error = %v, want ErrReentrantCall", reentryErr)
	}
	if l.HasOrderID(orderID("outer")) || l.HasOrderID(orderID("inner")) {
		t.Error("no order may settle from a re-entered call")
	}
}

func TestRescueReentryRejected(t *testing.T) {
	l, transferer, _ := newTestLedger(t, 0)

	var reentryErr error
	transferer.NativeFn = func(ctx context.Context, _ domain.Address, _ *big.Int) error {
		reentryErr = l.RescueNative(ctx, ownerAddr, outsiderAddr, amt(1))
		return nil
	}

	if _, err := l.SettleNative(t.Context(), writerAddr, orderID("r"), donorAddr, benefAddr, amt(100), ""); err != nil {
		t.Fatalf("settle: %v", err)
	}
	if reentryErr != domain.ErrReentrantCall {
		t.Errorf("rescue from transfer callback = %v, want ErrReentrantCall", reentryErr)
	}
}

func TestRecordNote(t *testing.T) {
	l, transferer, sink := newTestLedger(t, 250)
	ctx := t.Context()

	n1, err := l.RecordNote(ctx, writerAddr, amt(5000), "offline donation")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if n1.ID != 1 {
		t.Errorf("first note id = %d, want 1", n1.ID)
	}
	if n1.RecordedBy != writerAddr {
		t.Errorf("recorded by = %s", n1.RecordedBy)
	}

	n2, err := l.RecordNote(ctx, writerAddr, amt(100), "")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if n2.ID != 2 {
		t.Errorf("second note id = %d, want 2", n2.ID)
	}
	if l.NoteSeq() != 2 {
		t.Errorf("note seq = %d, want 2", l.NoteSeq())
	}

	// Notes never move value and never touch the order book.
	if len(transferer.Calls) != 0 {
		t.Error("notes must not move value")
	}
	if len(sink.Notes) != 2 {
		t.Errorf("sink notes = %d, want 2", len(sink.Notes))
	}

	got, err := l.Note(1)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Memo != "offline donation" || got.Amount.Int64() != 5000 {
		t.Errorf("note = %+v", got)
	}
}

func TestRecordNoteGating(t *testing.T) {
	l, _, _ := newTestLedger(t, 0)
	ctx := t.Context()

	if _, err := l.RecordNote(ctx, outsiderAddr, amt(1), ""); err != domain.ErrUnauthorized {
		t.Errorf("non-writer: %v", err)
	}
	if _, err := l.RecordNote(ctx, writerAddr, amt(0), ""); err != domain.ErrZeroAmount {
		t.Errorf("zero amount: %v", err)
	}
	if _, err := l.RecordNote(ctx, writerAddr, amt(1), strings.Repeat("y", domain.MemoMaxLen+1)); err != domain.ErrMemoTooLong {
		t.Errorf("long memo: %v", err)
	}

	if err := l.SetPaused(ctx, ownerAddr, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if _, err := l.RecordNote(ctx, writerAddr, amt(1), ""); err != domain.ErrPaused {
		t.Errorf("paused: %v", err)
	}
}

func TestFeeAppliesAtSettlementTime(t *testing.T) {
	l, transferer, _ := newTestLedger(t, 0)
	ctx := t.Context()

	if err := l.SetFee(ctx, ownerAddr, 1000, feeAddr); err != nil {
		t.Fatalf("set fee: %v", err)
	}
	receipt, err := l.SettleNative(ctx, writerAddr, orderID("after-fee"), donorAddr, benefAddr, amt(1000), "")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if receipt.Fee.Int64() != 100 {
		t.Errorf("fee = %s, want 100 after update to 1000 bps", receipt.Fee)
	}
	fees := transferer.CallsTo(feeAddr)
	if len(fees) != 1 || fees[0].Amount.Int64() != 100 {
		t.Errorf("fee calls = %+v", fees)
	}
}
