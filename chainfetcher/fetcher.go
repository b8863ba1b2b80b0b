package chainfetcher

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.vocdoni.io/dvote/log"

	"github.com/privacypool/client-sdk/discovery"
	"github.com/privacypool/client-sdk/types"
)

// LogFilterer is the slice of *ethclient.Client this package depends on,
// mirroring eth.Client's use of a concrete *ethclient.Client but as an
// interface so tests can fake the node.
type LogFilterer interface {
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]gethtypes.Log, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*gethtypes.Header, error)
}

// Fetcher is a discovery.ActivityFetcher that reads Deposit/Withdrawal/
// CrossChainDeposit/CrossChainWithdrawal events directly off a node,
// for pools with no GraphQL indexer. The cursor it hands back is the
// next block to scan from, encoded as a decimal string.
type Fetcher struct {
	Client     LogFilterer
	StartBlock uint64
}

var _ discovery.ActivityFetcher = (*Fetcher)(nil)

var allTopics = []common.Hash{topicDeposit, topicWithdrawal, topicCrossChainDeposit, topicCrossChainWithdraw}

// Fetch scans at most limit blocks starting at cursor (or StartBlock,
// when cursor is empty) for the pool's events. Only ascending order is
// supported: a log-range fetcher has no natural notion of "the last
// page first" the way an indexer with a total count does.
func (f *Fetcher) Fetch(ctx context.Context, pool common.Address, limit int, cursor string, order discovery.Order) (*types.Page, error) {
	if order != discovery.OrderAscending {
		return nil, fmt.Errorf("chainfetcher: only OrderAscending is supported")
	}
	if limit <= 0 {
		limit = 1
	}

	fromBlock := f.StartBlock
	if cursor != "" {
		parsed, err := strconv.ParseUint(cursor, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chainfetcher: invalid cursor %q: %w", cursor, err)
		}
		fromBlock = parsed
	}

	head, err := f.Client.HeaderByNumber(ctx, nil)
	if err != nil {
		log.Error(err)
		return nil, err
	}
	headNum := head.Number.Uint64()

	if fromBlock > headNum {
		return &types.Page{PageInfo: types.PageInfo{HasNextPage: false, EndCursor: strconv.FormatUint(fromBlock, 10)}}, nil
	}

	toBlock := fromBlock + uint64(limit) - 1
	if toBlock > headNum {
		toBlock = headNum
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{pool},
		Topics:    [][]common.Hash{allTopics},
	}
	logs, err := f.Client.FilterLogs(ctx, query)
	if err != nil {
		log.Error(err)
		return nil, err
	}

	timestamps := map[uint64]uint64{}
	activities := make([]types.Activity, 0, len(logs))
	for _, l := range logs {
		a, err := decodeLog(l)
		if err != nil {
			log.Error(err)
			continue
		}
		ts, ok := timestamps[l.BlockNumber]
		if !ok {
			hdr, err := f.Client.HeaderByNumber(ctx, new(big.Int).SetUint64(l.BlockNumber))
			if err != nil {
				log.Error(err)
				continue
			}
			ts = hdr.Time
			timestamps[l.BlockNumber] = ts
		}
		a.Timestamp = ts
		activities = append(activities, *a)
	}

	return &types.Page{
		Items: activities,
		PageInfo: types.PageInfo{
			HasNextPage: toBlock < headNum,
			EndCursor:   strconv.FormatUint(toBlock+1, 10),
		},
	}, nil
}
