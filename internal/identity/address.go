// Package identity handles account addresses: 32-byte values rendered as
// base58 strings (Bitcoin alphabet).
package identity

import (
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// AddressLen is the raw address length in bytes.
const AddressLen = 32

// Address errors.
var (
	ErrInvalidAddress  = errors.New("invalid address")
	ErrAddressOverflow = errors.New("address arithmetic overflow")
)

// Decode parses a base58 address into its 32 raw bytes.
func Decode(addr string) ([]byte, error) {
	raw, err := base58.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if len(raw) != AddressLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(raw), AddressLen)
	}
	return raw, nil
}

// Encode renders 32 raw bytes as a base58 address.
func Encode(raw []byte) (string, error) {
	if len(raw) != AddressLen {
		return "", fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidAddress, len(raw), AddressLen)
	}
	return base58.Encode(raw), nil
}

// Decrement returns the address one below addr, treating the raw bytes as a
// big-endian integer. Used to shift the caller to an account guaranteed to
// differ from a given offerer. Returns ErrAddressOverflow for the zero
// address.
func Decrement(addr string) (string, error) {
	raw, err := Decode(addr)
	if err != nil {
		return "", err
	}
	for i := AddressLen - 1; i >= 0; i-- {
		if raw[i] > 0 {
			raw[i]--
			return base58.Encode(raw), nil
		}
		raw[i] = 0xff
	}
	return "", ErrAddressOverflow
}

// OnCurve reports whether the address decodes to a valid ed25519 curve
// point. Off-curve addresses belong to program-derived (code-bearing)
// accounts.
func OnCurve(addr string) bool {
	raw, err := Decode(addr)
	if err != nil {
		return false
	}
	_, err = new(edwards25519.Point).SetBytes(raw)
	return err == nil
}
