package types

import "math/big"

// Chain is the ordered sequence of notes sharing one (pool, depositIndex):
// a deposit note followed by zero or more change/refund notes, each
// spending the one before it. ChangeIndex increases strictly by position
// and only the last note may be unspent (invariants maintained by the
// discovery engine).
type Chain []*Note

// Tail returns the chain's last note, or nil for an empty chain.
func (c Chain) Tail() *Note {
	if len(c) == 0 {
		return nil
	}
	return c[len(c)-1]
}

// IsFullySpent reports whether the chain's tail has been spent, meaning no
// further withdrawal can extend it.
func (c Chain) IsFullySpent() bool {
	t := c.Tail()
	return t == nil || t.Status == StatusSpent
}

// DepositIndex returns the deposit index shared by every note in the
// chain, or 0 for an empty chain.
func (c Chain) DepositIndex() uint64 {
	if len(c) == 0 {
		return 0
	}
	return c[0].DepositIndex
}

// Deposit returns the chain's first note, or nil for an empty chain.
func (c Chain) Deposit() *Note {
	if len(c) == 0 {
		return nil
	}
	return c[0]
}

// Balance returns the chain's currently spendable value: the tail's
// amount when it is spendable, or zero for a spent, pending, or empty
// chain. Callers must not mutate the returned value.
func (c Chain) Balance() *big.Int {
	t := c.Tail()
	if t == nil || !t.IsSpendable() {
		return big.NewInt(0)
	}
	return t.Amount
}
