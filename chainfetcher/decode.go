package chainfetcher

import (
	"fmt"
	"math/big"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/privacypool/client-sdk/types"
)

// decodeLog turns one contract log into an Activity, dispatching on
// Topics[0] the way eth.Client.processEventLog dispatches on data
// length. The indexed field (precommitmentHash or spentNullifier) lives
// in Topics[1]; everything else is ABI-decoded from Data.
func decodeLog(l gethtypes.Log) (*types.Activity, error) {
	if len(l.Topics) < 2 {
		return nil, fmt.Errorf("chainfetcher: log at block %d has no indexed topic", l.BlockNumber)
	}
	indexed := new(big.Int).SetBytes(l.Topics[1].Bytes())

	switch l.Topics[0] {
	case topicDeposit:
		vals, err := depositArgs.Unpack(l.Data)
		if err != nil {
			return nil, fmt.Errorf("chainfetcher: block %d: decoding Deposit: %w", l.BlockNumber, err)
		}
		a := &types.Activity{
			Type:              types.ActivityDeposit,
			PrecommitmentHash: indexed,
			Amount:            vals[0].(*big.Int),
			Label:             vals[1].(*big.Int),
			BlockNumber:       l.BlockNumber,
		}
		if a.Amount.Sign() == 0 {
			a.Amount, a.Label = nil, nil
		}
		return a, nil

	case topicWithdrawal:
		vals, err := withdrawalArgs.Unpack(l.Data)
		if err != nil {
			return nil, fmt.Errorf("chainfetcher: block %d: decoding Withdrawal: %w", l.BlockNumber, err)
		}
		return &types.Activity{
			Type:             types.ActivityWithdrawal,
			SpentNullifier:   indexed,
			NewCommitment:    vals[0].(*big.Int),
			Amount:           vals[1].(*big.Int),
			RefundCommitment: zeroToNil(vals[2].(*big.Int)),
			BlockNumber:      l.BlockNumber,
		}, nil

	case topicCrossChainDeposit:
		vals, err := crossChainDepositArgs.Unpack(l.Data)
		if err != nil {
			return nil, fmt.Errorf("chainfetcher: block %d: decoding CrossChainDeposit: %w", l.BlockNumber, err)
		}
		a := &types.Activity{
			Type:                       types.ActivityCrossChainDeposit,
			PrecommitmentHash:          indexed,
			Amount:                     vals[0].(*big.Int),
			Label:                      vals[1].(*big.Int),
			DestinationChainID:         vals[2].(*big.Int).Uint64(),
			DestinationTransactionHash: fmt.Sprintf("0x%x", vals[3].([32]byte)),
			BlockNumber:                l.BlockNumber,
		}
		if a.Amount.Sign() == 0 {
			a.Amount, a.Label = nil, nil
		}
		return a, nil

	case topicCrossChainWithdraw:
		vals, err := crossChainWithdrawalArgs.Unpack(l.Data)
		if err != nil {
			return nil, fmt.Errorf("chainfetcher: block %d: decoding CrossChainWithdrawal: %w", l.BlockNumber, err)
		}
		return &types.Activity{
			Type:                  types.ActivityCrossChainWithdrawal,
			SpentNullifier:        indexed,
			NewCommitment:         vals[0].(*big.Int),
			Amount:                vals[1].(*big.Int),
			RefundCommitment:      zeroToNil(vals[2].(*big.Int)),
			OriginChainID:         vals[3].(*big.Int).Uint64(),
			OriginTransactionHash: fmt.Sprintf("0x%x", vals[4].([32]byte)),
			BlockNumber:           l.BlockNumber,
		}, nil

	default:
		return nil, fmt.Errorf("chainfetcher: block %d: unrecognized topic %s", l.BlockNumber, l.Topics[0])
	}
}

func zeroToNil(v *big.Int) *big.Int {
	if v.Sign() == 0 {
		return nil
	}
	return v
}
