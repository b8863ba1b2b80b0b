package discovery

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privacypool/client-sdk/types"
)

// NoteStorageProvider persists discovery checkpoints. All operations must
// be idempotent under the same inputs; the engine is the sole writer for
// a given (publicKey, poolAddress) pair.
type NoteStorageProvider interface {
	GetCachedNotes(ctx context.Context, publicKey string, pool common.Address) (*types.DiscoveryResult, error)
	StoreDiscoveredNotes(ctx context.Context, publicKey string, pool common.Address, chains []types.Chain, cursor string) error
	GetNextDepositIndex(ctx context.Context, publicKey string, pool common.Address) (uint64, error)
	UpdateLastUsedDepositIndex(ctx context.Context, publicKey string, pool common.Address, depositIndex uint64) error
}
