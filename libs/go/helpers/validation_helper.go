package helpers

import (
	"strings"

	"github.com/cyphera/cyphera-delegation/libs/go/apperrors"
	"github.com/ethereum/go-ethereum/common"
)

// IsAddressValid checks if the provided string is a valid Ethereum address
// It verifies:
// 1. The address is exactly 42 characters long (including 0x prefix)
// 2. The address starts with "0x"
// 3. The remaining 40 characters are valid hexadecimal
func IsAddressValid(address string) bool {
	if len(address) != 42 {
		return false
	}

	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}

	return isHex(address[2:])
}

// IsPrivateKeyValid checks if the provided string is a valid secp256k1 private key
// encoding: 64 hex characters, with or without a 0x prefix.
func IsPrivateKeyValid(key string) bool {
	key = strings.TrimPrefix(strings.TrimPrefix(key, "0x"), "0X")
	if len(key) != 64 {
		return false
	}
	return isHex(key)
}

// ParseAddress validates and converts a hex address. Malformed input fails
// with an invalid-address error naming the field.
func ParseAddress(field, address string) (common.Address, error) {
	address = strings.TrimSpace(address)
	if !IsAddressValid(address) {
		return common.Address{}, apperrors.Newf(apperrors.KindInvalidAddress, field, "%q is not a 20-byte hex address", address)
	}
	return common.HexToAddress(address), nil
}

// IsNullAddress reports whether address is the all-zero address.
func IsNullAddress(address common.Address) bool {
	return address == (common.Address{})
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
