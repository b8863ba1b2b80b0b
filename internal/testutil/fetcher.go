package testutil

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"github.com/privacypool/client-sdk/discovery"
	"github.com/privacypool/client-sdk/types"
)

// PagedFetcher is a discovery.ActivityFetcher backed by a fixed slice of
// pre-built pages, cursor-indexed the way eth.TestEthClient advances a
// simulated chain one block at a time rather than hitting a real node.
type PagedFetcher struct {
	Pages []types.Page
}

var _ discovery.ActivityFetcher = (*PagedFetcher)(nil)

func (f *PagedFetcher) Fetch(ctx context.Context, pool common.Address, limit int, cursor string, order discovery.Order) (*types.Page, error) {
	idx := 0
	if cursor != "" {
		parsed, err := strconv.Atoi(cursor)
		if err != nil {
			return nil, err
		}
		idx = parsed
	}
	if idx >= len(f.Pages) {
		return &types.Page{PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursor}}, nil
	}
	page := f.Pages[idx]
	page.PageInfo.HasNextPage = idx+1 < len(f.Pages)
	page.PageInfo.EndCursor = strconv.Itoa(idx + 1)
	return &page, nil
}
