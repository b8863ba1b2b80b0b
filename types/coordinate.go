package types

import "github.com/ethereum/go-ethereum/common"

// Kind distinguishes the three note variants a coordinate can address.
type Kind int

const (
	// KindDeposit identifies the original note of a chain. Only valid
	// with ChangeIndex == 0.
	KindDeposit Kind = iota
	// KindChange identifies a residual note produced by a partial
	// withdrawal.
	KindChange
	// KindRefund identifies the contingency note of a cross-chain
	// withdrawal, derived at the same coordinate as the change note it
	// shadows.
	KindRefund
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindChange:
		return "change"
	case KindRefund:
		return "refund"
	default:
		return "unknown"
	}
}

// Coordinate identifies one note's position in the derivation space: an
// account key plus a (pool, depositIndex, changeIndex, kind) tuple
// determines every field element derived for that note.
type Coordinate struct {
	PoolAddress  common.Address
	DepositIndex uint64
	ChangeIndex  uint64
	Kind         Kind
}
