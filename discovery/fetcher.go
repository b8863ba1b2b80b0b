// Package discovery implements the Note Discovery Engine (C4): a
// resumable, single-threaded reconstruction of a user's note chains from
// a forward-only, paginated activity stream.
package discovery

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privacypool/client-sdk/types"
)

// Order selects the sort direction a fetch request asks for. The engine
// always passes OrderAscending — ordering ascending by block is a
// contract the rest of the engine relies on — but the parameter is part
// of the collaborator's interface so a single fetcher implementation can
// serve other callers too.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
)

// ActivityFetcher drives the external paginated activity stream the
// engine consumes. Items within a returned page must already be ordered
// per the requested Order; the cursor it returns is opaque to the engine.
type ActivityFetcher interface {
	Fetch(ctx context.Context, pool common.Address, limit int, cursor string, order Order) (*types.Page, error)
}
