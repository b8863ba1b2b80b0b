package discovery

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privacypool/client-sdk/note"
	"github.com/privacypool/client-sdk/types"
	"go.vocdoni.io/dvote/log"
)

// Engine reconstructs note chains for a single (publicKey, poolAddress)
// pair from an ordered activity stream. One Engine run owns its own
// (chains, liveDeposits, cursor) triple; concurrent runs over the same
// pair are undefined, matching the storage provider's serialization
// contract.
type Engine struct {
	Fetcher   ActivityFetcher
	Storage   NoteStorageProvider
	Observer  ProgressObserver
	AccountKey *big.Int
	PublicKey  string
	Pool       common.Address
	// PageLimit bounds how many activities are requested per fetch. Zero
	// means let the fetcher choose its own default.
	PageLimit int
	// MaxPages caps the number of pages processed in one run. Zero means
	// unbounded; the run still terminates when hasNextPage is false.
	MaxPages int
}

// Run drives the per-page algorithm until the fetcher reports no further
// pages, the engine's MaxPages cap is reached, or ctx is cancelled.
func (e *Engine) Run(ctx context.Context) (*types.DiscoveryResult, error) {
	cached, err := e.Storage.GetCachedNotes(ctx, e.PublicKey, e.Pool)
	if err != nil {
		return nil, types.NewError(types.KindStorageError, "discovery: load checkpoint", err)
	}

	var chains []types.Chain
	var liveDeposits []types.LiveDeposit
	var cursor string
	if cached != nil {
		chains = cached.Chains
		cursor = cached.Cursor
		// The checkpoint stores chains, not the live set: rebuild it from
		// every chain whose tail is still spendable.
		for chainIdx, chain := range chains {
			if tail := chain.Tail(); tail != nil && tail.IsSpendable() {
				liveDeposits = append(liveDeposits, types.LiveDeposit{
					DepositIndex: tail.DepositIndex,
					ChainIndex:   chainIdx,
					Remaining:    new(big.Int).Set(tail.Amount),
				})
			}
		}
	}

	nextDepositIndex, err := e.Storage.GetNextDepositIndex(ctx, e.PublicKey, e.Pool)
	if err != nil {
		return nil, types.NewError(types.KindStorageError, "discovery: load next deposit index", err)
	}

	var lastUsedIndex uint64
	if nextDepositIndex > 0 {
		lastUsedIndex = nextDepositIndex - 1
	}

	pagesProcessed := 0
	depositsChecked := 0
	depositsMatched := 0

	for {
		if err := checkCancelled(ctx); err != nil {
			log.Warnf("discovery: pool %s run cancelled after %d pages, checkpoint preserved", e.Pool.Hex(), pagesProcessed)
			return nil, err
		}

		if e.MaxPages > 0 && pagesProcessed >= e.MaxPages {
			log.Debugf("discovery: pool %s reached MaxPages=%d, stopping", e.Pool.Hex(), e.MaxPages)
			break
		}

		page, err := e.Fetcher.Fetch(ctx, e.Pool, e.PageLimit, cursor, OrderAscending)
		if err != nil {
			log.Errorf("discovery: pool %s fetch page (cursor=%q): %v", e.Pool.Hex(), cursor, err)
			return nil, types.NewError(types.KindFetcherError, "discovery: fetch page", err)
		}
		log.Debugf("discovery: pool %s fetched page cursor=%q activities=%d hasNext=%v",
			e.Pool.Hex(), cursor, len(page.Items), page.PageInfo.HasNextPage)

		// Step 0: activate deposits whose activation event has now arrived.
		newlyLive, newlyActivated, err := e.activatePendingDeposits(ctx, chains, page.Items)
		if err != nil {
			return nil, err
		}
		liveDeposits = append(liveDeposits, newlyLive...)
		if newlyActivated > 0 {
			log.Debugf("discovery: pool %s activated %d pending deposit(s)", e.Pool.Hex(), newlyActivated)
		}

		// Step 1: extend live chains by nullifier match.
		liveDeposits, err = e.extendLiveChains(ctx, chains, liveDeposits, page.Items)
		if err != nil {
			return nil, err
		}

		// Step 2: scan for new deposits by precommitment match.
		var newChecked, newMatched int
		chains, liveDeposits, nextDepositIndex, newChecked, newMatched, err =
			e.scanNewDeposits(ctx, chains, liveDeposits, nextDepositIndex, page.Items)
		if err != nil {
			return nil, err
		}
		depositsChecked += newChecked
		depositsMatched += newMatched
		if nextDepositIndex > 0 {
			lastUsedIndex = nextDepositIndex - 1
		}
		log.Debugf("discovery: pool %s page checked=%d matched=%d live=%d",
			e.Pool.Hex(), newChecked, newMatched, len(liveDeposits))

		// Step 3: checkpoint.
		if err := checkCancelled(ctx); err != nil {
			log.Warnf("discovery: pool %s cancelled before checkpoint, last good cursor=%q preserved", e.Pool.Hex(), cursor)
			return nil, err
		}
		cursor = page.PageInfo.EndCursor
		if err := e.Storage.StoreDiscoveredNotes(ctx, e.PublicKey, e.Pool, chains, cursor); err != nil {
			log.Errorf("discovery: pool %s checkpoint notes: %v", e.Pool.Hex(), err)
			return nil, types.NewError(types.KindStorageError, "discovery: checkpoint", err)
		}
		if nextDepositIndex > 0 {
			if err := e.Storage.UpdateLastUsedDepositIndex(ctx, e.PublicKey, e.Pool, lastUsedIndex); err != nil {
				log.Errorf("discovery: pool %s persist last used index: %v", e.Pool.Hex(), err)
				return nil, types.NewError(types.KindStorageError, "discovery: persist last used index", err)
			}
		}

		pagesProcessed++
		complete := !page.PageInfo.HasNextPage
		if notifySafely(e.Observer, types.Progress{
			PagesProcessed:           pagesProcessed,
			CurrentPageActivityCount: len(page.Items),
			DepositsChecked:          depositsChecked,
			DepositsMatched:          depositsMatched,
			LastCursor:               cursor,
			Complete:                 complete,
		}) {
			log.Errorf("discovery: pool %s progress observer panicked", e.Pool.Hex())
			return nil, types.NewError(types.KindCancelled, "discovery: progress observer panicked", nil)
		}

		if complete {
			break
		}
	}

	log.Debugf("discovery: pool %s pages=%d deposits_checked=%d deposits_matched=%d",
		e.Pool.Hex(), pagesProcessed, depositsChecked, depositsMatched)

	return &types.DiscoveryResult{
		Chains:        chains,
		LiveDeposits:  liveDeposits,
		LastUsedIndex: lastUsedIndex,
		Cursor:        cursor,
		NewNotesFound: depositsMatched,
	}, nil
}

// activatePendingDeposits implements step 0 of the per-page algorithm: a
// deposit observed before its amount and label were known sits as a
// pending tail, invisible to liveDeposits, until its activation event is
// seen. For every chain still carrying a pending tail, this re-derives
// that deposit's precommitment and checks it against this page's
// deposit-type activities; a match activates the note in place and, if
// the activated note is spendable, reports it so the caller can add it to
// liveDeposits for this same page's extension step.
func (e *Engine) activatePendingDeposits(ctx context.Context, chains []types.Chain, activities []types.Activity) ([]types.LiveDeposit, int, error) {
	var newlyLive []types.LiveDeposit
	activated := 0

	for chainIdx, chain := range chains {
		tail := chain.Tail()
		if tail == nil || !tail.IsPending() {
			continue
		}
		if err := checkCancelled(ctx); err != nil {
			return newlyLive, activated, err
		}

		nullifier, err := note.DeriveDepositNullifier(e.AccountKey, e.Pool, tail.DepositIndex)
		if err != nil {
			return newlyLive, activated, err
		}
		secret, err := note.DeriveDepositSecret(e.AccountKey, e.Pool, tail.DepositIndex)
		if err != nil {
			return newlyLive, activated, err
		}
		precommitment, err := note.Precommitment(nullifier, secret)
		if err != nil {
			return newlyLive, activated, err
		}

		_, deposit := findDepositByPrecommitment(activities, precommitment)
		if deposit == nil || deposit.Amount == nil || deposit.Label == nil {
			continue
		}

		tail.Activate(deposit.Amount, deposit.Label)
		if deposit.DestinationTransactionHash != "" {
			tail.DestinationTransactionHash = deposit.DestinationTransactionHash
		}
		if deposit.BlockNumber != 0 {
			tail.BlockNumber = deposit.BlockNumber
		}
		if deposit.Timestamp != 0 {
			tail.Timestamp = deposit.Timestamp
		}
		activated++

		if tail.IsSpendable() {
			newlyLive = append(newlyLive, types.LiveDeposit{
				DepositIndex: tail.DepositIndex,
				ChainIndex:   chainIdx,
				Remaining:    new(big.Int).Set(tail.Amount),
			})
		}
	}

	return newlyLive, activated, nil
}

// extendLiveChains implements step 1 of the per-page algorithm: for each
// live deposit, independently walk forward matching withdrawal nullifiers
// within this page until no further match is found, then reconcile the
// live set. Each live deposit narrows its own local view of the page as
// it consumes matches; one entry's progress must never narrow what a
// later entry in the same loop gets to see.
func (e *Engine) extendLiveChains(ctx context.Context, chains []types.Chain, liveDeposits []types.LiveDeposit, activities []types.Activity) ([]types.LiveDeposit, error) {
	reconciled := make([]types.LiveDeposit, 0, len(liveDeposits))

	for _, ld := range liveDeposits {
		chainIdx := ld.ChainIndex
		pageTail := activities
		for {
			if err := checkCancelled(ctx); err != nil {
				return nil, err
			}

			tail := chains[chainIdx].Tail()
			if tail == nil || tail.Status == types.StatusSpent || tail.IsPending() {
				break
			}

			nullifier, err := nullifierForNote(e.AccountKey, tail)
			if err != nil {
				return nil, err
			}
			nullifierHash, err := note.NullifierHash(nullifier)
			if err != nil {
				return nil, err
			}

			idx, withdrawal := findWithdrawalByNullifier(pageTail, nullifierHash)
			if idx < 0 {
				break
			}

			tail.MarkSpent()
			remaining := new(big.Int).Sub(tail.Amount, withdrawal.Amount)

			changeNote := &types.Note{
				Coordinate: types.Coordinate{
					PoolAddress:  e.Pool,
					DepositIndex: tail.DepositIndex,
					ChangeIndex:  tail.ChangeIndex + 1,
					Kind:         types.KindChange,
				},
				IsActivated:                true,
				OriginTransactionHash:       withdrawal.OriginTransactionHash,
				DestinationTransactionHash: withdrawal.DestinationTransactionHash,
				OriginChainID:               withdrawal.OriginChainID,
				DestinationChainID:          withdrawal.DestinationChainID,
				BlockNumber:                 withdrawal.BlockNumber,
				Timestamp:                   withdrawal.Timestamp,
				RefundCommitment:            withdrawal.RefundCommitment,
			}
			changeNote.Activate(remaining, chains[chainIdx].Deposit().Label)
			if remaining.Sign() <= 0 {
				changeNote.MarkSpent()
			}

			chains[chainIdx] = append(chains[chainIdx], changeNote)
			pageTail = pageTail[idx+1:]

			if remaining.Sign() <= 0 {
				break
			}
		}

		tail := chains[chainIdx].Tail()
		if tail != nil && tail.IsSpendable() {
			reconciled = append(reconciled, types.LiveDeposit{
				DepositIndex: tail.DepositIndex,
				ChainIndex:   chainIdx,
				Remaining:    new(big.Int).Set(tail.Amount),
			})
		}
	}

	return reconciled, nil
}

// scanNewDeposits implements step 2 of the per-page algorithm.
func (e *Engine) scanNewDeposits(
	ctx context.Context,
	chains []types.Chain,
	liveDeposits []types.LiveDeposit,
	nextDepositIndex uint64,
	activities []types.Activity,
) ([]types.Chain, []types.LiveDeposit, uint64, int, int, error) {
	checked := 0
	matched := 0

	for {
		if err := checkCancelled(ctx); err != nil {
			return nil, nil, 0, checked, matched, err
		}

		nullifier, err := note.DeriveDepositNullifier(e.AccountKey, e.Pool, nextDepositIndex)
		if err != nil {
			return nil, nil, 0, checked, matched, err
		}
		secret, err := note.DeriveDepositSecret(e.AccountKey, e.Pool, nextDepositIndex)
		if err != nil {
			return nil, nil, 0, checked, matched, err
		}
		precommitment, err := note.Precommitment(nullifier, secret)
		if err != nil {
			return nil, nil, 0, checked, matched, err
		}

		checked++
		pos, deposit := findDepositByPrecommitment(activities, precommitment)
		if pos < 0 {
			break
		}
		matched++

		depositNote := &types.Note{
			Coordinate: types.Coordinate{
				PoolAddress:  e.Pool,
				DepositIndex: nextDepositIndex,
				ChangeIndex:  0,
				Kind:         types.KindDeposit,
			},
			IsActivated:                 deposit.Label != nil,
			OriginTransactionHash:       deposit.OriginTransactionHash,
			DestinationTransactionHash: deposit.DestinationTransactionHash,
			OriginChainID:               deposit.OriginChainID,
			DestinationChainID:          deposit.DestinationChainID,
			BlockNumber:                 deposit.BlockNumber,
			Timestamp:                   deposit.Timestamp,
		}
		amount := deposit.Amount
		if amount == nil {
			amount = big.NewInt(0)
		}
		if deposit.Label != nil {
			depositNote.Activate(amount, deposit.Label)
		} else {
			depositNote.Amount = amount
		}

		chain := types.Chain{depositNote}
		chainIdx := len(chains)
		chains = append(chains, chain)

		// Extend within the remainder of this page, after the deposit's
		// own position, in case a withdrawal for it arrived in the same
		// page.
		rest := activities[pos+1:]
		tmpLive, err := e.extendLiveChains(ctx, chains, []types.LiveDeposit{{
			DepositIndex: nextDepositIndex,
			ChainIndex:   chainIdx,
		}}, rest)
		if err != nil {
			return nil, nil, 0, checked, matched, err
		}
		liveDeposits = append(liveDeposits, tmpLive...)

		nextDepositIndex++
	}

	return chains, liveDeposits, nextDepositIndex, checked, matched, nil
}

// nullifierForNote derives the nullifier of n's own coordinate: the
// deposit branch when changeIndex = 0, the change branch otherwise.
func nullifierForNote(k *big.Int, n *types.Note) (*big.Int, error) {
	if n.ChangeIndex == 0 {
		return note.DeriveDepositNullifier(k, n.PoolAddress, n.DepositIndex)
	}
	return note.DeriveChangeNullifier(k, n.PoolAddress, n.DepositIndex, n.ChangeIndex)
}

func findWithdrawalByNullifier(activities []types.Activity, nullifierHash *big.Int) (int, *types.Activity) {
	for i := range activities {
		a := &activities[i]
		if !a.Type.IsWithdrawal() {
			continue
		}
		if a.SpentNullifier != nil && a.SpentNullifier.Cmp(nullifierHash) == 0 {
			return i, a
		}
	}
	return -1, nil
}

func findDepositByPrecommitment(activities []types.Activity, precommitment *big.Int) (int, *types.Activity) {
	for i := range activities {
		a := &activities[i]
		if !a.Type.IsDeposit() {
			continue
		}
		if a.PrecommitmentHash != nil && a.PrecommitmentHash.Cmp(precommitment) == 0 {
			return i, a
		}
	}
	return -1, nil
}
