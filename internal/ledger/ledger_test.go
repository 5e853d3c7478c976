package ledger

import (
	"strings"
	"testing"
	"time"

	"github.com/donalab/dona-backend/internal/domain"
	"github.com/donalab/dona-backend/internal/testutil"
)

const (
	ownerAddr    = domain.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	writerAddr   = domain.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	feeAddr      = domain.Address("0xcccccccccccccccccccccccccccccccccccccccc")
	donorAddr    = domain.Address("0xdddddddddddddddddddddddddddddddddddddddd")
	benefAddr    = domain.Address("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	tokenAddr    = domain.Address("0x1111111111111111111111111111111111111111")
	outsiderAddr = domain.Address("0x9999999999999999999999999999999999999999")
	successor    = domain.Address("0xffffffffffffffffffffffffffffffffffffffff")
)

var testClock = func() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

// newTestLedger builds a ledger with the given fee rate over a recording
// transferer and sink.
func newTestLedger(t *testing.T, feeBps uint16) (*Ledger, *testutil.MockTransferer, *testutil.CaptureSink) {
	t.Helper()
	transferer := testutil.NewMockTransferer()
	sink := testutil.NewCaptureSink()
	l, err := New(Config{
		Owner:        ownerAddr,
		Writer:       writerAddr,
		FeeRecipient: feeAddr,
		FeeRateBps:   feeBps,
		Transferer:   transferer,
		Sink:         sink,
		Clock:        testClock,
	})
	if err != nil {
		t.Fatalf("failed to build ledger: %v", err)
	}
	return l, transferer, sink
}

func orderID(key string) domain.OrderID {
	return domain.OrderKey(key)
}

func TestNewValidation(t *testing.T) {
	transferer := testutil.NewMockTransferer()
	base := Config{
		Owner:        ownerAddr,
		Writer:       writerAddr,
		FeeRecipient: feeAddr,
		Transferer:   transferer,
	}

	tests := []struct {
		name   string
		mutate func(cfg Config) Config
		want   error
	}{
		{"missing owner", func(c Config) Config { c.Owner = domain.ZeroAddress; return c }, domain.ErrInvalidIdentity},
		{"missing writer", func(c Config) Config { c.Writer = domain.ZeroAddress; return c }, domain.ErrInvalidIdentity},
		{"missing fee recipient", func(c Config) Config { c.FeeRecipient = domain.ZeroAddress; return c }, domain.ErrInvalidIdentity},
		{"fee rate out of range", func(c Config) Config { c.FeeRateBps = domain.MaxFeeBps + 1; return c }, domain.ErrInvalidFeeRate},
		{"missing transferer", func(c Config) Config { c.Transferer = nil; return c }, domain.ErrTransferFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.mutate(base)); err != tt.want {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := New(base); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestGenesisState(t *testing.T) {
	l, _, _ := newTestLedger(t, 250)

	if l.Owner() != ownerAddr {
		t.Errorf("owner = %s", l.Owner())
	}
	if l.Writer() != writerAddr {
		t.Errorf("writer = %s", l.Writer())
	}
	if !l.PendingWriter().IsZero() {
		t.Errorf("pending writer = %s, want none", l.PendingWriter())
	}
	if l.Paused() {
		t.Error("ledger should start unpaused")
	}
	fee := l.FeeConfig()
	if fee.RateBps != 250 || fee.Recipient != feeAddr {
		t.Errorf("fee = %+v", fee)
	}
	if l.NoteSeq() != 0 {
		t.Errorf("note seq = %d, want 0", l.NoteSeq())
	}
	if l.HasOrderID(orderID("nothing")) {
		t.Error("fresh ledger should have no settled orders")
	}
}

func TestReceiptLookupUnknown(t *testing.T) {
	l, _, _ := newTestLedger(t, 0)
	if _, err := l.Receipt(orderID("missing")); err != domain.ErrReceiptNotFound {
		t.Errorf("expected ErrReceiptNotFound, got %v", err)
	}
	if _, err := l.Note(1); err != domain.ErrNoteNotFound {
		t.Errorf("expected ErrNoteNotFound, got %v", err)
	}
}

func TestReceiptCloneIsolation(t *testing.T) {
	l, _, _ := newTestLedger(t, 250)
	ctx := t.Context()

	r1, err := l.SettleNative(ctx, writerAddr, orderID("iso"), donorAddr, benefAddr, amt(10000), "memo")
	if err != nil {
		t.Fatalf("settle: %v", err)
	}

	// Mutating a returned receipt must not reach the stored record.
	r1.GrossAmount.SetInt64(1)
	r2, err := l.Receipt(orderID("iso"))
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if r2.GrossAmount.Int64() != 10000 {
		t.Errorf("stored gross mutated to %s", r2.GrossAmount)
	}
}

func TestMemoLimitIsBytes(t *testing.T) {
	l, _, _ := newTestLedger(t, 0)
	ctx := t.Context()

	// 86 three-byte runes exceed the 256-byte cap at 85 characters.
	memo := strings.Repeat("한", 86)
	_, err := l.SettleNative(ctx, writerAddr, orderID("memo-bytes"), donorAddr, benefAddr, amt(100), memo)
	if err != domain.ErrMemoTooLong {
		t.Errorf("expected ErrMemoTooLong for %d bytes, got %v", len(memo), err)
	}

	ok := strings.Repeat("한", 85)
	if _, err := l.SettleNative(ctx, writerAddr, orderID("memo-ok"), donorAddr, benefAddr, amt(100), ok); err != nil {
		t.Errorf("255-byte memo rejected: %v", err)
	}
}
