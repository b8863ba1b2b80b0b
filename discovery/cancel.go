package discovery

import (
	"context"

	"github.com/privacypool/client-sdk/types"
)

// checkCancelled is called at every suspension point: at the top of each
// page loop, before a page's storage writes, and inside the inner
// activation/extension/deposit-scan loops. A cancellation caught before
// the storage writes leaves the prior page's checkpoint as the last good
// state.
func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return types.NewError(types.KindCancelled, "discovery run cancelled", ctx.Err())
	default:
		return nil
	}
}
