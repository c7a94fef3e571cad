// Package models holds the persistent ledger records and the application error taxonomy.
package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address identifies an account: "0x" followed by 40 lowercase hex characters.
type Address string

// ZeroAddress is the empty account, never a valid caller.
const ZeroAddress Address = ""

// ParseAddress validates and canonicalizes an account address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if len(s) != 42 || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return ZeroAddress, NewValidationError(fmt.Sprintf("invalid address %q", s))
	}
	body := strings.ToLower(s[2:])
	if _, err := hex.DecodeString(body); err != nil {
		return ZeroAddress, NewValidationError(fmt.Sprintf("invalid address %q", s))
	}
	return Address("0x" + body), nil
}

// MustParseAddress is ParseAddress for constants and tests.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Bytes returns the 20 raw address bytes.
func (a Address) Bytes() []byte {
	if len(a) != 42 {
		return make([]byte, 20)
	}
	b, err := hex.DecodeString(string(a[2:]))
	if err != nil {
		return make([]byte, 20)
	}
	return b
}

// AddressFromBytes renders 20 raw bytes as an address.
func AddressFromBytes(b []byte) Address {
	return Address("0x" + hex.EncodeToString(b))
}

func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is unset.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}
