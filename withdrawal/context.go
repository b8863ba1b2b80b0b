// Package withdrawal implements Withdrawal Context Assembly (C5):
// deriving a withdrawal's context hash, its existing/new/refund
// nullifier-secret pairs, and the full Groth16 input record consumed by
// the prover.
package withdrawal

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/privacypool/client-sdk/field"
	"github.com/privacypool/client-sdk/types"
	"go.vocdoni.io/dvote/log"
)

var contextTupleArgs abi.Arguments

func init() {
	uint256Ty, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	withdrawalDataTy, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "processor", Type: "address"},
		{Name: "data", Type: "bytes"},
	})
	if err != nil {
		panic(err)
	}

	contextTupleArgs = abi.Arguments{
		{Type: withdrawalDataTy},
		{Type: uint256Ty},
	}
}

// withdrawalDataTuple mirrors the (address, bytes) leg of the on-chain
// tuple for go-ethereum's ABI packer, which matches struct fields to
// tuple components by camel-cased name, not by declaration order.
type withdrawalDataTuple struct {
	Processor common.Address
	Data      []byte
}

// ContextHash encodes (withdrawalData, poolScope) per the on-chain tuple
// layout ((address, bytes), uint256) using standard, non-packed ABI
// encoding, then reduces the result through keccak into the field:
// context = field_from_keccak(encoded).
func ContextHash(wd types.WithdrawalData, scope types.PoolScope) (*big.Int, error) {
	encoded, err := contextTupleArgs.Pack(
		withdrawalDataTuple{Processor: wd.Processor, Data: wd.Data},
		scope.Scope,
	)
	if err != nil {
		log.Errorf("withdrawal: pack context tuple (processor=%s, scope=%s): %v", wd.Processor.Hex(), scope.Scope, err)
		return nil, types.NewError(types.KindInvalidKey, "withdrawal: pack context tuple", err)
	}

	return field.FieldFromKeccak(encoded), nil
}
