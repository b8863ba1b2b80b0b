package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// WithdrawalData is the `(address, bytes)` half of the on-chain context
// tuple `((address, bytes), uint256)`: the processor contract that will
// execute the withdrawal plus an opaque data blob it interprets.
type WithdrawalData struct {
	Processor common.Address
	Data      []byte
}

// PoolScope is the `uint256` half of the context tuple: a pool-identifying
// integer mixed into the context hash to prevent a proof generated for one
// pool from being replayed against another.
type PoolScope struct {
	Scope *big.Int
}

// WithdrawalContext bundles everything withdrawal context assembly derives
// ahead of building the Groth16 input record.
type WithdrawalContext struct {
	Context *big.Int

	ExistingNullifier  *big.Int
	ExistingSecret     *big.Int
	ExistingValue      *big.Int
	ExistingCommitment *big.Int
	Label              *big.Int

	NewNullifier *big.Int
	NewSecret    *big.Int

	// RefundNullifier/RefundSecret/RefundCommitment are set only for
	// cross-chain withdrawals.
	RefundNullifier  *big.Int
	RefundSecret     *big.Int
	RefundCommitment *big.Int
}

// InputRecord is the fully-populated record handed to the Groth16 prover.
// The *big.Int fields hold field elements; the int fields (depths and
// indices) are small integers. InputRecordToSignals renders all of them
// as decimal strings.
type InputRecord struct {
	WithdrawnValue *big.Int
	StateRoot      *big.Int
	ASPRoot        *big.Int
	StateTreeDepth int
	ASPTreeDepth   int

	Context       *big.Int
	Label         *big.Int
	ExistingValue *big.Int

	ExistingNullifier *big.Int
	ExistingSecret    *big.Int
	NewNullifier      *big.Int
	NewSecret         *big.Int

	RefundNullifier *big.Int // nil unless cross-chain
	RefundSecret    *big.Int // nil unless cross-chain

	StateSiblings [32]*big.Int
	ASPSiblings   [32]*big.Int
	StateIndex    int
	ASPIndex      int
}
