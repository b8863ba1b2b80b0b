package field

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ChecksumAddress parses a hex address string and returns its 20-byte
// normalized form. Parsing is case-insensitive by construction (hex decodes
// the same regardless of case), so mixed-case and lowercase spellings of the
// same address always produce identical bytes — this is what removes the
// ambiguity EIP-55-cased addresses would otherwise introduce into
// derivation.
func ChecksumAddress(addr string) (common.Address, error) {
	if !common.IsHexAddress(addr) {
		return common.Address{}, fmt.Errorf("field: not a valid address: %q", addr)
	}
	return common.HexToAddress(addr), nil
}
