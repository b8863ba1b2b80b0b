package types

import (
	"math/big"
)

// Status is a note's spend state.
type Status int

const (
	// StatusUnspent means the note has not been consumed by a
	// withdrawal. An unspent note with zero amount is equivalent to
	// spent for selection purposes (see Note.IsSpendable).
	StatusUnspent Status = iota
	// StatusSpent means the note's nullifier has been published.
	StatusSpent
)

// Note is one record in a note chain: a coordinate, the value it carries
// once known, and the on-chain metadata the discovery engine fills in as
// activity for it arrives.
type Note struct {
	Coordinate

	// The note is "pending" while either Amount or Label is nil — a
	// deposit whose activation event has not yet been observed. The
	// discovery engine records such a deposit with a zero Amount and a nil
	// Label. Commitment equality is only decidable once both are present.
	Amount *big.Int
	Label  *big.Int

	Status      Status
	IsActivated bool

	OriginTransactionHash      string
	DestinationTransactionHash string
	OriginChainID              uint64
	DestinationChainID         uint64
	BlockNumber                uint64
	Timestamp                  uint64

	// RefundCommitment is set on a change note produced by a cross-chain
	// withdrawal whose fill could fail.
	RefundCommitment *big.Int
}

// IsPending reports whether this note's value is not yet known — the
// deposit it belongs to has been observed but not yet activated on-chain.
func (n *Note) IsPending() bool {
	return n.Amount == nil || n.Label == nil
}

// IsSpendable reports whether this note can be extended by a future
// withdrawal: unspent, activated, and carrying a positive amount.
func (n *Note) IsSpendable() bool {
	return n.Status == StatusUnspent && n.IsActivated && !n.IsPending() && n.Amount.Sign() > 0
}

// Activate transitions a pending deposit note to its activated form once
// the contract has assigned it an amount and a label. Calling Activate on
// an already-activated note overwrites its amount and label. discovery.Engine
// calls it when a deposit is matched or its activation event arrives, and
// on each change note it creates; never on a spent note.
func (n *Note) Activate(amount, label *big.Int) {
	n.Amount = amount
	n.Label = label
	n.IsActivated = true
}

// MarkSpent flips the note to spent. Once spent, a note must never be
// mutated again (invariant I2 of the discovery engine).
func (n *Note) MarkSpent() {
	n.Status = StatusSpent
}

