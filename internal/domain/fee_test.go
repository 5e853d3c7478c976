package domain

import (
	"math/big"
	"testing"
)

func TestFeeConfigSplit(t *testing.T) {
	tests := []struct {
		name    string
		rateBps uint16
		gross   int64
		fee     int64
		net     int64
	}{
		{"zero rate", 0, 1000, 0, 1000},
		{"full rate", 10000, 1000, 1000, 0},
		{"flat split", 250, 10000, 250, 9750},
		{"floor rounding", 250, 999, 24, 975}, // 999*250/10000 = 24.975
		{"one unit", 9999, 1, 0, 1},           // rounding loss goes to beneficiary
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FeeConfig{RateBps: tt.rateBps}
			fee, net := cfg.Split(big.NewInt(tt.gross))
			if fee.Int64() != tt.fee {
				t.Errorf("fee = %d, want %d", fee.Int64(), tt.fee)
			}
			if net.Int64() != tt.net {
				t.Errorf("net = %d, want %d", net.Int64(), tt.net)
			}
			sum := new(big.Int).Add(fee, net)
			if sum.Int64() != tt.gross {
				t.Errorf("fee+net = %d, want gross %d", sum.Int64(), tt.gross)
			}
		})
	}
}

func TestFeeConfigSplitLargeAmount(t *testing.T) {
	gross, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	cfg := FeeConfig{RateBps: 30}

	fee, net := cfg.Split(gross)
	sum := new(big.Int).Add(fee, net)
	if sum.Cmp(gross) != 0 {
		t.Errorf("fee+net = %s, want gross %s", sum, gross)
	}
	if fee.Sign() <= 0 {
		t.Error("expected positive fee for a large gross amount")
	}
}
