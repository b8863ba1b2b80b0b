package discovery

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/privacypool/client-sdk/note"
	"github.com/privacypool/client-sdk/types"
)

var testPool = common.HexToAddress("0x5543223d9a08df24e60e9da3cfe2a5db4c2b7d18")

// fakeFetcher serves a fixed sequence of pages, advancing by cursor
// position rather than simulating real pagination semantics.
type fakeFetcher struct {
	pages []types.Page
}

func (f *fakeFetcher) Fetch(ctx context.Context, pool common.Address, limit int, cursor string, order Order) (*types.Page, error) {
	idx := 0
	if cursor != "" {
		var err error
		idx, err = parseCursor(cursor)
		if err != nil {
			return nil, err
		}
	}
	if idx >= len(f.pages) {
		return &types.Page{PageInfo: types.PageInfo{HasNextPage: false}}, nil
	}
	page := f.pages[idx]
	return &page, nil
}

func parseCursor(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, types.NewError(types.KindFetcherError, "bad cursor", nil)
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

func cursorFor(pageIndex int) string {
	return string('0' + byte(pageIndex))
}

// memStorage is an in-memory NoteStorageProvider for a single
// (publicKey, pool) pair, sufficient to exercise resumability.
type memStorage struct {
	result *types.DiscoveryResult
}

func (m *memStorage) GetCachedNotes(ctx context.Context, publicKey string, pool common.Address) (*types.DiscoveryResult, error) {
	return m.result, nil
}

func (m *memStorage) StoreDiscoveredNotes(ctx context.Context, publicKey string, pool common.Address, chains []types.Chain, cursor string) error {
	if m.result == nil {
		m.result = &types.DiscoveryResult{}
	}
	m.result.Chains = chains
	m.result.Cursor = cursor
	return nil
}

func (m *memStorage) GetNextDepositIndex(ctx context.Context, publicKey string, pool common.Address) (uint64, error) {
	if m.result == nil {
		return 0, nil
	}
	return m.result.LastUsedIndex + boolToUint64(hasDeposits(m.result)), nil
}

func hasDeposits(r *types.DiscoveryResult) bool {
	return len(r.Chains) > 0
}

func boolToUint64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (m *memStorage) UpdateLastUsedDepositIndex(ctx context.Context, publicKey string, pool common.Address, depositIndex uint64) error {
	if m.result == nil {
		m.result = &types.DiscoveryResult{}
	}
	m.result.LastUsedIndex = depositIndex
	return nil
}

func depositPrecommitment(t *testing.T, k *big.Int, pool common.Address, depositIndex uint64) *big.Int {
	c := qt.New(t)
	nul, err := note.DeriveDepositNullifier(k, pool, depositIndex)
	c.Assert(err, qt.IsNil)
	sec, err := note.DeriveDepositSecret(k, pool, depositIndex)
	c.Assert(err, qt.IsNil)
	pre, err := note.Precommitment(nul, sec)
	c.Assert(err, qt.IsNil)
	return pre
}

func spentNullifierHash(t *testing.T, k *big.Int, pool common.Address, depositIndex, changeIndex uint64) *big.Int {
	c := qt.New(t)
	var nul *big.Int
	var err error
	if changeIndex == 0 {
		nul, err = note.DeriveDepositNullifier(k, pool, depositIndex)
	} else {
		nul, err = note.DeriveChangeNullifier(k, pool, depositIndex, changeIndex)
	}
	c.Assert(err, qt.IsNil)
	h, err := note.NullifierHash(nul)
	c.Assert(err, qt.IsNil)
	return h
}

// Scenario 1: single deposit, single full withdrawal.
func TestDiscoveryScenarioSingleDepositFullWithdrawal(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(1_000_000_007)

	pre := depositPrecommitment(t, k, testPool, 0)
	nulHash := spentNullifierHash(t, k, testPool, 0, 0)

	fetcher := &fakeFetcher{pages: []types.Page{
		{
			Items: []types.Activity{
				{Type: types.ActivityDeposit, PrecommitmentHash: pre, Amount: big.NewInt(1_000_000), Label: big.NewInt(1)},
			},
			PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)},
		},
		{
			Items: []types.Activity{
				{Type: types.ActivityWithdrawal, SpentNullifier: nulHash, Amount: big.NewInt(1_000_000)},
			},
			PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(2)},
		},
	}}

	storage := &memStorage{}
	e := &Engine{Fetcher: fetcher, Storage: storage, AccountKey: k, PublicKey: "user", Pool: testPool}

	result, err := e.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(len(result.Chains), qt.Equals, 1)
	c.Assert(len(result.Chains[0]), qt.Equals, 2)
	c.Assert(result.Chains[0].Tail().Status, qt.Equals, types.StatusSpent)
	c.Assert(len(result.LiveDeposits), qt.Equals, 0)
	c.Assert(result.LastUsedIndex, qt.Equals, uint64(0))
	c.Assert(result.NewNotesFound, qt.Equals, 1)
}

// Scenario 2: two partial withdrawals against the same deposit, in
// separate pages.
func TestDiscoveryScenarioTwoPartialWithdrawals(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(55)

	pre := depositPrecommitment(t, k, testPool, 0)
	nulHash1 := spentNullifierHash(t, k, testPool, 0, 0)
	nulHash2 := spentNullifierHash(t, k, testPool, 0, 1)

	fetcher := &fakeFetcher{pages: []types.Page{
		{
			Items: []types.Activity{
				{Type: types.ActivityDeposit, PrecommitmentHash: pre, Amount: big.NewInt(1000), Label: big.NewInt(1)},
			},
			PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)},
		},
		{
			Items: []types.Activity{
				{Type: types.ActivityWithdrawal, SpentNullifier: nulHash1, Amount: big.NewInt(400)},
			},
			PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(2)},
		},
		{
			Items: []types.Activity{
				{Type: types.ActivityWithdrawal, SpentNullifier: nulHash2, Amount: big.NewInt(600)},
			},
			PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(3)},
		},
	}}

	storage := &memStorage{}
	e := &Engine{Fetcher: fetcher, Storage: storage, AccountKey: k, PublicKey: "user", Pool: testPool}

	result, err := e.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(len(result.Chains[0]), qt.Equals, 3)
	c.Assert(result.Chains[0][1].Amount.Cmp(big.NewInt(600)), qt.Equals, 0)
	c.Assert(result.Chains[0].Tail().Status, qt.Equals, types.StatusSpent)
	c.Assert(result.Chains[0].Tail().Amount.Sign(), qt.Equals, 0)
}

// Scenario: pending deposit activating on a later page (cross-chain
// activation).
func TestDiscoveryScenarioPendingDepositActivatesLater(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(77)

	pre := depositPrecommitment(t, k, testPool, 0)

	fetcher := &fakeFetcher{pages: []types.Page{
		{
			Items: []types.Activity{
				{Type: types.ActivityCrossChainDeposit, PrecommitmentHash: pre, Amount: nil, Label: nil},
			},
			PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)},
		},
		{
			// second page: no new activity; deposit remains pending.
			PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(2)},
		},
	}}

	storage := &memStorage{}
	e := &Engine{Fetcher: fetcher, Storage: storage, AccountKey: k, PublicKey: "user", Pool: testPool}

	result, err := e.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(len(result.Chains), qt.Equals, 1)
	c.Assert(result.Chains[0].Tail().IsPending(), qt.IsTrue)
	c.Assert(len(result.LiveDeposits), qt.Equals, 0)
}

// Scenario: a deposit that arrived pending on one page activates once its
// amount/label event is observed on a later page, and immediately becomes
// a live deposit in the same run.
func TestDiscoveryScenarioPendingDepositActivatesOnLaterPage(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(78)

	pre := depositPrecommitment(t, k, testPool, 0)

	fetcher := &fakeFetcher{pages: []types.Page{
		{
			Items: []types.Activity{
				{Type: types.ActivityCrossChainDeposit, PrecommitmentHash: pre, Amount: nil, Label: nil},
			},
			PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)},
		},
		{
			Items: []types.Activity{
				{Type: types.ActivityCrossChainDeposit, PrecommitmentHash: pre, Amount: big.NewInt(500), Label: big.NewInt(9)},
			},
			PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(2)},
		},
	}}

	storage := &memStorage{}
	e := &Engine{Fetcher: fetcher, Storage: storage, AccountKey: k, PublicKey: "user", Pool: testPool}

	result, err := e.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(len(result.Chains), qt.Equals, 1)
	tail := result.Chains[0].Tail()
	c.Assert(tail.IsPending(), qt.IsFalse)
	c.Assert(tail.IsActivated, qt.IsTrue)
	c.Assert(tail.Amount.Cmp(big.NewInt(500)), qt.Equals, 0)
	c.Assert(tail.Label.Cmp(big.NewInt(9)), qt.Equals, 0)
	c.Assert(len(result.LiveDeposits), qt.Equals, 1)
	c.Assert(result.LiveDeposits[0].Remaining.Cmp(big.NewInt(500)), qt.Equals, 0)
}

// Resume after an interrupted run: the first run is stopped after the
// first page by MaxPages: 1 (standing in for a cancellation before the
// second page is requested), then a fresh engine sharing the same storage
// resumes from the checkpoint.
func TestDiscoveryResumeAfterCancellation(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(909090)

	pre := depositPrecommitment(t, k, testPool, 0)
	nulHash := spentNullifierHash(t, k, testPool, 0, 0)

	fetcher := &fakeFetcher{pages: []types.Page{
		{
			Items: []types.Activity{
				{Type: types.ActivityDeposit, PrecommitmentHash: pre, Amount: big.NewInt(500), Label: big.NewInt(2)},
			},
			PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)},
		},
		{
			Items: []types.Activity{
				{Type: types.ActivityWithdrawal, SpentNullifier: nulHash, Amount: big.NewInt(500)},
			},
			PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(2)},
		},
	}}

	storage := &memStorage{}
	first := &Engine{Fetcher: fetcher, Storage: storage, AccountKey: k, PublicKey: "user", Pool: testPool, MaxPages: 1}

	result, err := first.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(len(result.Chains[0]), qt.Equals, 1)
	c.Assert(result.Chains[0].Tail().Status, qt.Equals, types.StatusUnspent)

	second := &Engine{Fetcher: fetcher, Storage: storage, AccountKey: k, PublicKey: "user", Pool: testPool}
	result, err = second.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(len(result.Chains[0]), qt.Equals, 2)
	c.Assert(result.Chains[0].Tail().Status, qt.Equals, types.StatusSpent)
}

// P7: splitting the same activity stream into different page boundaries
// yields the same final chains.
func TestDiscoveryIdempotentUnderDifferentPageBoundaries(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(424242)

	pre := depositPrecommitment(t, k, testPool, 0)
	nulHash := spentNullifierHash(t, k, testPool, 0, 0)

	allActivities := []types.Activity{
		{Type: types.ActivityDeposit, PrecommitmentHash: pre, Amount: big.NewInt(100), Label: big.NewInt(1)},
		{Type: types.ActivityWithdrawal, SpentNullifier: nulHash, Amount: big.NewInt(100)},
	}

	// split 1: everything in one page.
	fetcherA := &fakeFetcher{pages: []types.Page{
		{Items: allActivities, PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(1)}},
	}}
	// split 2: one activity per page.
	fetcherB := &fakeFetcher{pages: []types.Page{
		{Items: allActivities[:1], PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)}},
		{Items: allActivities[1:], PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(2)}},
	}}

	resultA, err := (&Engine{Fetcher: fetcherA, Storage: &memStorage{}, AccountKey: k, PublicKey: "user", Pool: testPool}).Run(context.Background())
	c.Assert(err, qt.IsNil)
	resultB, err := (&Engine{Fetcher: fetcherB, Storage: &memStorage{}, AccountKey: k, PublicKey: "user", Pool: testPool}).Run(context.Background())
	c.Assert(err, qt.IsNil)

	c.Assert(len(resultA.Chains[0]), qt.Equals, len(resultB.Chains[0]))
	c.Assert(resultA.Chains[0].Tail().Amount.Cmp(resultB.Chains[0].Tail().Amount), qt.Equals, 0)
	c.Assert(resultA.Chains[0].Tail().Status, qt.Equals, resultB.Chains[0].Tail().Status)
}

// Regression: two live chains extended in the same page must not
// interfere with each other's view of the page, regardless of which
// chain's matching withdrawal appears first in activity order.
func TestDiscoveryExtendsEachLiveChainIndependentlyWithinAPage(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(909090)

	pre0 := depositPrecommitment(t, k, testPool, 0)
	pre1 := depositPrecommitment(t, k, testPool, 1)
	nulHash0 := spentNullifierHash(t, k, testPool, 0, 0)
	nulHash1 := spentNullifierHash(t, k, testPool, 1, 0)

	fetcher := &fakeFetcher{pages: []types.Page{
		{
			Items: []types.Activity{
				{Type: types.ActivityDeposit, PrecommitmentHash: pre0, Amount: big.NewInt(100), Label: big.NewInt(1)},
				{Type: types.ActivityDeposit, PrecommitmentHash: pre1, Amount: big.NewInt(200), Label: big.NewInt(2)},
			},
			PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)},
		},
		{
			// Chain 1's withdrawal appears before chain 0's in this page,
			// even though chain 0 was discovered first (and is processed
			// first by the live-deposit loop).
			Items: []types.Activity{
				{Type: types.ActivityWithdrawal, SpentNullifier: nulHash1, Amount: big.NewInt(200)},
				{Type: types.ActivityWithdrawal, SpentNullifier: nulHash0, Amount: big.NewInt(100)},
			},
			PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(2)},
		},
	}}

	storage := &memStorage{}
	e := &Engine{Fetcher: fetcher, Storage: storage, AccountKey: k, PublicKey: "user", Pool: testPool}

	result, err := e.Run(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(len(result.Chains), qt.Equals, 2)
	c.Assert(result.Chains[0].Tail().Status, qt.Equals, types.StatusSpent)
	c.Assert(result.Chains[0].Tail().Amount.Sign(), qt.Equals, 0)
	c.Assert(result.Chains[1].Tail().Status, qt.Equals, types.StatusSpent)
	c.Assert(result.Chains[1].Tail().Amount.Sign(), qt.Equals, 0)
	c.Assert(len(result.LiveDeposits), qt.Equals, 0)
}

func TestDiscoveryCancellation(t *testing.T) {
	c := qt.New(t)
	k := big.NewInt(1)

	fetcher := &fakeFetcher{pages: []types.Page{
		{PageInfo: types.PageInfo{HasNextPage: true, EndCursor: cursorFor(1)}},
		{PageInfo: types.PageInfo{HasNextPage: false, EndCursor: cursorFor(2)}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Engine{Fetcher: fetcher, Storage: &memStorage{}, AccountKey: k, PublicKey: "user", Pool: testPool}
	_, err := e.Run(ctx)
	c.Assert(types.IsKind(err, types.KindCancelled), qt.IsTrue)
}
