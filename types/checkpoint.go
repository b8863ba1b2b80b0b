package types

import "math/big"

// LiveDeposit is a chain tail that is unspent and carries a positive
// amount: a candidate for extension on a future page. ChainIndex is the
// position of the tail's chain within the discovery run's list of chains.
type LiveDeposit struct {
	DepositIndex uint64
	ChainIndex   int
	Remaining    *big.Int
}

// PageInfo is the pagination envelope an ActivityFetcher returns alongside
// a page of activities.
type PageInfo struct {
	HasNextPage bool
	EndCursor   string
}

// Page is one fetched batch of activity, ordered ascending by block.
type Page struct {
	Items    []Activity
	PageInfo PageInfo
}

// Progress is the argument passed to a ProgressObserver once per page of
// the discovery engine's extend/scan/checkpoint loop, after the page's
// checkpoint; no reports are made within a page.
type Progress struct {
	PagesProcessed           int
	CurrentPageActivityCount int
	DepositsChecked          int
	DepositsMatched          int
	LastCursor               string
	Complete                 bool
}

// DiscoveryResult is what a run of the note discovery engine hands back
// when it finishes or stops at its MaxPages cap. A cancelled run returns
// no DiscoveryResult; its progress up to the last checkpoint is in the
// storage provider.
type DiscoveryResult struct {
	Chains        []Chain
	LiveDeposits  []LiveDeposit
	LastUsedIndex uint64
	Cursor        string
	// NewNotesFound is how many deposits this run matched by precommitment
	// across every page processed, including runs resumed from a prior
	// checkpoint.
	NewNotesFound int
}
