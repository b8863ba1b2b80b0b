// Package chainfetcher is an optional discovery.ActivityFetcher backed
// directly by contract event logs, for deployments that have no GraphQL
// indexer in front of the pool contract. It decodes logs the way
// eth.Client.processEventLog decodes zkmultisig's NewProcess/
// ResultPublished/ProcessClosed events, swapping the fixed-offset byte
// parsing for accounts/abi unpacking since these events carry several
// mixed fields (bytes32 tx hashes alongside uint256s).
package chainfetcher

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

// Event signatures. Topic0 of a log is keccak256 of this string, which
// lists every parameter type, indexed ones included.
const (
	sigDeposit             = "Deposit(uint256,uint256,uint256)"
	sigWithdrawal           = "Withdrawal(uint256,uint256,uint256,uint256)"
	sigCrossChainDeposit    = "CrossChainDeposit(uint256,uint256,uint256,uint256,bytes32)"
	sigCrossChainWithdrawal = "CrossChainWithdrawal(uint256,uint256,uint256,uint256,uint256,bytes32)"
)

var (
	topicDeposit             = crypto.Keccak256Hash([]byte(sigDeposit))
	topicWithdrawal          = crypto.Keccak256Hash([]byte(sigWithdrawal))
	topicCrossChainDeposit   = crypto.Keccak256Hash([]byte(sigCrossChainDeposit))
	topicCrossChainWithdraw  = crypto.Keccak256Hash([]byte(sigCrossChainWithdrawal))
)

// Non-indexed argument layouts, used to unpack eventLog.Data. The
// precommitmentHash / spentNullifier fields are declared `indexed` in
// the real contract (so callers can filter by them), which is why they
// are absent from these Data-only argument lists and read from Topics
// instead in decode.go.
var (
	depositArgs = abi.Arguments{
		{Name: "amount", Type: mustType("uint256")},
		{Name: "label", Type: mustType("uint256")},
	}
	withdrawalArgs = abi.Arguments{
		{Name: "newCommitment", Type: mustType("uint256")},
		{Name: "amount", Type: mustType("uint256")},
		{Name: "refundCommitment", Type: mustType("uint256")},
	}
	crossChainDepositArgs = abi.Arguments{
		{Name: "amount", Type: mustType("uint256")},
		{Name: "label", Type: mustType("uint256")},
		{Name: "destinationChainId", Type: mustType("uint256")},
		{Name: "destinationTransactionHash", Type: mustType("bytes32")},
	}
	crossChainWithdrawalArgs = abi.Arguments{
		{Name: "newCommitment", Type: mustType("uint256")},
		{Name: "amount", Type: mustType("uint256")},
		{Name: "refundCommitment", Type: mustType("uint256")},
		{Name: "originChainId", Type: mustType("uint256")},
		{Name: "originTransactionHash", Type: mustType("bytes32")},
	}
)

func mustType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}
