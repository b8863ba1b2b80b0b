package testutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/privacypool/client-sdk/note"
	"github.com/privacypool/client-sdk/types"
)

// DepositActivity builds the Deposit activity a depositor of (k, pool,
// depositIndex) would see on the activity stream once the contract
// activates their note with the given amount and label, mirroring the
// on-chain precommitment a real deposit transaction reveals. Pass a nil
// amount/label to build a pending (not-yet-activated) deposit instead.
func DepositActivity(k *big.Int, pool common.Address, depositIndex uint64, amount, label *big.Int) types.Activity {
	result, err := note.BuildDepositCommitment(k, pool, depositIndex)
	if err != nil {
		panic(err)
	}
	return types.Activity{
		Type:              types.ActivityDeposit,
		PrecommitmentHash: result.Precommitment,
		Amount:            amount,
		Label:             label,
	}
}

// WithdrawalActivity builds the Withdrawal activity that spends the
// note at coord for withdrawnAmount, as the contract would emit it once
// the corresponding nullifier hash is published.
func WithdrawalActivity(k *big.Int, coord types.Coordinate, withdrawnAmount, newCommitment, refundCommitment *big.Int) types.Activity {
	nullifier, _, err := note.NullifierSecretForCoordinate(k, coord)
	if err != nil {
		panic(err)
	}
	hash, err := note.NullifierHash(nullifier)
	if err != nil {
		panic(err)
	}
	return types.Activity{
		Type:             types.ActivityWithdrawal,
		SpentNullifier:   hash,
		Amount:           withdrawnAmount,
		NewCommitment:    newCommitment,
		RefundCommitment: refundCommitment,
	}
}
