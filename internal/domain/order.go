package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// OrderID is the externally supplied 32-byte idempotency key that
// deduplicates settlement requests.
type OrderID [32]byte

// ParseOrderID decodes a 0x-prefixed 64-hex-digit order id.
func ParseOrderID(s string) (OrderID, error) {
	var id OrderID
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return id, ErrInvalidOrderID
	}
	body := s[2:]
	if len(body) != 64 {
		return id, ErrInvalidOrderID
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return id, ErrInvalidOrderID
	}
	copy(id[:], raw)
	return id, nil
}

// OrderKey derives an OrderID from a free-form idempotency key (for
// callers that track orders by UUID or similar rather than raw bytes32).
func OrderKey(key string) OrderID {
	return OrderID(sha256.Sum256([]byte(key)))
}

func (id OrderID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// MarshalJSON renders the order id as its 0x-hex string form.
func (id OrderID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.String() + `"`), nil
}

// UnmarshalJSON parses the 0x-hex string form.
func (id *OrderID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseOrderID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
