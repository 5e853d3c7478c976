package domain

import (
	"encoding/hex"
	"strings"
)

// Address identifies a participant or an asset. The zero value marks the
// native asset (and "no identity" in role slots). Addresses are stored
// normalized: 0x-prefixed lowercase hex, 20 bytes.
type Address string

// ZeroAddress is the null identity / native-asset marker.
const ZeroAddress Address = ""

// APIKeyPrefix marks static API key credentials. Configured keys must
// carry it so the auth layer can tell them apart from JWTs.
const APIKeyPrefix = "dona_"

const zeroHexBody = "0000000000000000000000000000000000000000"

// ParseAddress validates and normalizes a 0x-prefixed 20-byte hex address.
// The literal all-zero address is rejected: the null identity exists only
// as the zero value, never as caller input.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAddress, ErrInvalidIdentity
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return ZeroAddress, ErrInvalidIdentity
	}
	body := s[2:]
	if len(body) != 40 {
		return ZeroAddress, ErrInvalidIdentity
	}
	if _, err := hex.DecodeString(body); err != nil {
		return ZeroAddress, ErrInvalidIdentity
	}
	if body == zeroHexBody {
		return ZeroAddress, ErrInvalidIdentity
	}
	return Address("0x" + strings.ToLower(body)), nil
}

// IsZero reports whether the address is the null identity.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
