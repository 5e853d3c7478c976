package handler

import (
	"net/http"
	"testing"

	"github.com/donalab/dona-backend/internal/domain"
)

const successorAddr = domain.Address("0xffffffffffffffffffffffffffffffffffffffff")

func TestSetFeeEndpoint(t *testing.T) {
	f := newFixture(t, 0)

	body := `{"rateBps":500,"recipient":"` + feeAddr.String() + `"}`
	c, rec := newContext(http.MethodPut, "/api/v1/admin/fee", body, ownerAddr)
	if err := f.admin.SetFee(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if fee := f.ledger.FeeConfig(); fee.RateBps != 500 {
		t.Errorf("fee rate = %d, want 500", fee.RateBps)
	}
}

func TestSetFeeForbiddenForWriter(t *testing.T) {
	f := newFixture(t, 0)

	body := `{"rateBps":500,"recipient":"` + feeAddr.String() + `"}`
	c, rec := newContext(http.MethodPut, "/api/v1/admin/fee", body, writerAddr)
	if err := f.admin.SetFee(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestSetFeeValidation(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		name string
		body string
	}{
		{"bad recipient", `{"rateBps":500,"recipient":"not-an-address"}`},
		{"rate over max", `{"rateBps":10001,"recipient":"` + feeAddr.String() + `"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPut, "/api/v1/admin/fee", tt.body, ownerAddr)
			if err := f.admin.SetFee(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
		})
	}
}

func TestWriterHandoverEndpoints(t *testing.T) {
	f := newFixture(t, 0)

	body := `{"writer":"` + successorAddr.String() + `"}`
	c, rec := newContext(http.MethodPost, "/api/v1/admin/writer/propose", body, ownerAddr)
	if err := f.admin.ProposeWriter(c); err != nil {
		t.Fatalf("propose: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("propose status = %d: %s", rec.Code, rec.Body)
	}
	if f.ledger.Writer() != writerAddr {
		t.Error("proposal must not change the active writer")
	}

	// Anyone but the candidate gets a 403.
	c, rec = newContext(http.MethodPost, "/api/v1/writer/accept", "", outsiderAddr)
	if err := f.admin.AcceptWriter(c); err != nil {
		t.Fatalf("accept by outsider: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("outsider accept status = %d, want 403", rec.Code)
	}

	c, rec = newContext(http.MethodPost, "/api/v1/writer/accept", "", successorAddr)
	if err := f.admin.AcceptWriter(c); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("accept status = %d: %s", rec.Code, rec.Body)
	}
	if f.ledger.Writer() != successorAddr {
		t.Errorf("writer = %s, want %s", f.ledger.Writer(), successorAddr)
	}
}

func TestForceSetWriterEndpoint(t *testing.T) {
	f := newFixture(t, 0)

	body := `{"writer":"` + successorAddr.String() + `"}`
	c, rec := newContext(http.MethodPost, "/api/v1/admin/writer/force", body, ownerAddr)
	if err := f.admin.ForceSetWriter(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if f.ledger.Writer() != successorAddr {
		t.Errorf("writer = %s", f.ledger.Writer())
	}
}

func TestSetPausedEndpoint(t *testing.T) {
	f := newFixture(t, 0)

	c, rec := newContext(http.MethodPut, "/api/v1/admin/pause", `{"paused":true}`, ownerAddr)
	if err := f.admin.SetPaused(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if !f.ledger.Paused() {
		t.Error("ledger should be paused")
	}

	c, rec = newContext(http.MethodPut, "/api/v1/admin/pause", `{"paused":false}`, ownerAddr)
	if err := f.admin.SetPaused(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent || f.ledger.Paused() {
		t.Error("ledger should be unpaused")
	}
}

func TestTransferOwnershipEndpoint(t *testing.T) {
	f := newFixture(t, 0)

	body := `{"newOwner":"` + successorAddr.String() + `"}`
	c, rec := newContext(http.MethodPost, "/api/v1/admin/ownership/transfer", body, ownerAddr)
	if err := f.admin.TransferOwnership(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	if f.ledger.Owner() != successorAddr {
		t.Errorf("owner = %s", f.ledger.Owner())
	}
}

func TestRescueEndpoints(t *testing.T) {
	f := newFixture(t, 0)

	body := `{"to":"` + outsiderAddr.String() + `","amount":"1000"}`
	c, rec := newContext(http.MethodPost, "/api/v1/admin/rescue/native", body, ownerAddr)
	if err := f.admin.RescueNative(c); err != nil {
		t.Fatalf("native rescue: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("native rescue status = %d: %s", rec.Code, rec.Body)
	}

	body = `{"token":"` + tokenAddr.String() + `","to":"` + outsiderAddr.String() + `","amount":"500"}`
	c, rec = newContext(http.MethodPost, "/api/v1/admin/rescue/token", body, ownerAddr)
	if err := f.admin.RescueToken(c); err != nil {
		t.Fatalf("token rescue: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("token rescue status = %d: %s", rec.Code, rec.Body)
	}

	if f.transferer.CallCount() != 2 {
		t.Errorf("transfer calls = %d, want 2", f.transferer.CallCount())
	}
}

func TestRescueValidation(t *testing.T) {
	f := newFixture(t, 0)

	tests := []struct {
		name string
		body string
	}{
		{"bad destination", `{"to":"nowhere","amount":"100"}`},
		{"bad amount", `{"to":"` + outsiderAddr.String() + `","amount":"lots"}`},
		{"negative amount", `{"to":"` + outsiderAddr.String() + `","amount":"-5"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodPost, "/api/v1/admin/rescue/native", tt.body, ownerAddr)
			if err := f.admin.RescueNative(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body)
			}
			if problem := decodeProblem(t, rec); problem.Type != ErrorTypeValidation {
				t.Errorf("problem type = %s", problem.Type)
			}
		})
	}
	if f.transferer.CallCount() != 0 {
		t.Errorf("rejected rescues must not move funds, saw %d calls", f.transferer.CallCount())
	}

	// Token rescue additionally needs a token address.
	body := `{"to":"` + outsiderAddr.String() + `","amount":"100"}`
	c, rec := newContext(http.MethodPost, "/api/v1/admin/rescue/token", body, ownerAddr)
	if err := f.admin.RescueToken(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing token status = %d, want 400", rec.Code)
	}
}

func TestRescueForbiddenForWriter(t *testing.T) {
	f := newFixture(t, 0)

	body := `{"to":"` + outsiderAddr.String() + `","amount":"100"}`
	c, rec := newContext(http.MethodPost, "/api/v1/admin/rescue/native", body, writerAddr)
	if err := f.admin.RescueNative(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
