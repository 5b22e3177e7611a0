// Package ss58 decodes SS58-encoded substrate account addresses.
package ss58

import (
	"bytes"
	"errors"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

const checksumPrefix = "SS58PRE"

var (
	ErrInvalidAddress  = errors.New("invalid ss58 address")
	ErrInvalidChecksum = errors.New("invalid ss58 checksum")
)

// Decode returns the network prefix and the 32-byte account id encoded in
// address. Single and two byte network prefixes are supported.
func Decode(address string) (uint16, []byte, error) {
	data := base58.Decode(address)
	if len(data) == 0 {
		return 0, nil, ErrInvalidAddress
	}

	var network uint16
	var prefixLen int
	switch {
	case data[0] < 64:
		network = uint16(data[0])
		prefixLen = 1
	case data[0] < 128:
		if len(data) < 2 {
			return 0, nil, ErrInvalidAddress
		}
		// two byte prefix, see the SS58 registry encoding
		lower := (data[0] << 2) | (data[1] >> 6)
		upper := data[1] & 0b0011_1111
		network = uint16(lower) | uint16(upper)<<8
		prefixLen = 2
	default:
		return 0, nil, ErrInvalidAddress
	}

	// prefix + 32 byte account id + 2 byte checksum
	if len(data) != prefixLen+34 {
		return 0, nil, ErrInvalidAddress
	}

	hasher, err := blake2b.New512(nil)
	if err != nil {
		return 0, nil, err
	}
	hasher.Write([]byte(checksumPrefix))
	hasher.Write(data[:len(data)-2])
	digest := hasher.Sum(nil)

	if !bytes.Equal(digest[:2], data[len(data)-2:]) {
		return 0, nil, ErrInvalidChecksum
	}

	accountID := make([]byte, 32)
	copy(accountID, data[prefixLen:prefixLen+32])
	return network, accountID, nil
}

// Validate reports whether address is a well formed SS58 address.
func Validate(address string) error {
	_, _, err := Decode(address)
	return err
}
