package note

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privacypool/client-sdk/field"
	"github.com/privacypool/client-sdk/types"
)

// Precommitment computes poseidon2(nullifier, secret).
func Precommitment(nullifier, secret *big.Int) (*big.Int, error) {
	return field.Poseidon2(nullifier, secret)
}

// Commitment computes poseidon3(amount, label, precommitment), matching
// the on-chain contract exactly. Any deviation produces an unspendable
// note.
func Commitment(amount, label, precommitment *big.Int) (*big.Int, error) {
	return field.Poseidon3(amount, label, precommitment)
}

// NullifierHash computes poseidon1(nullifier), the value the contract
// checks a withdrawal's spentNullifier against.
func NullifierHash(nullifier *big.Int) (*big.Int, error) {
	return field.Poseidon1(nullifier)
}

// CommitmentForCoordinate computes the full commitment for a note
// coordinate given its (amount, label), deriving the nullifier/secret pair
// along the way.
func CommitmentForCoordinate(k *big.Int, c types.Coordinate, amount, label *big.Int) (*big.Int, error) {
	nullifier, secret, err := NullifierSecretForCoordinate(k, c)
	if err != nil {
		return nil, err
	}
	pre, err := Precommitment(nullifier, secret)
	if err != nil {
		return nil, err
	}
	return Commitment(amount, label, pre)
}

// DepositCommitmentResult is what BuildDepositCommitment hands back: the
// derived nullifier and secret (which the caller must retain to later
// spend the note), the precommitment as a field element, its "0x"-prefixed
// hex encoding (what the user actually submits on-chain), and the
// coordinate it was derived for.
type DepositCommitmentResult struct {
	Nullifier        *big.Int
	Secret           *big.Int
	Precommitment    *big.Int
	PrecommitmentHex string
	PoolAddress      common.Address
	DepositIndex     uint64
}

// BuildDepositCommitment derives the nullifier, secret and precommitment
// for a new deposit at (pool, depositIndex). This is the value the user
// submits in their deposit transaction, before the contract has assigned
// an amount or label.
func BuildDepositCommitment(k *big.Int, pool common.Address, depositIndex uint64) (*DepositCommitmentResult, error) {
	nullifier, err := DeriveDepositNullifier(k, pool, depositIndex)
	if err != nil {
		return nil, err
	}
	secret, err := DeriveDepositSecret(k, pool, depositIndex)
	if err != nil {
		return nil, err
	}
	pre, err := Precommitment(nullifier, secret)
	if err != nil {
		return nil, err
	}
	return &DepositCommitmentResult{
		Nullifier:        nullifier,
		Secret:           secret,
		Precommitment:    pre,
		PrecommitmentHex: fmt.Sprintf("0x%x", pre),
		PoolAddress:      pool,
		DepositIndex:     depositIndex,
	}, nil
}
