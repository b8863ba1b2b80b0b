// Package note implements deterministic note derivation (C2): the keyed
// PRF that turns an account key plus a note coordinate into a
// (nullifier, secret, commitment) triple, with domain separation between
// the deposit, change and refund variants.
package note

import (
	"math/big"

	"github.com/privacypool/client-sdk/field"
)

// Tag identifies one of the six domain-separated derivation contexts.
type Tag int

const (
	DepositNullifierV1 Tag = iota
	DepositSecretV1
	ChangeNullifierV1
	ChangeSecretV1
	RefundNullifierV1
	RefundSecretV1
)

func (t Tag) label() string {
	switch t {
	case DepositNullifierV1:
		return "DepositNullifierV1"
	case DepositSecretV1:
		return "DepositSecretV1"
	case ChangeNullifierV1:
		return "ChangeNullifierV1"
	case ChangeSecretV1:
		return "ChangeSecretV1"
	case RefundNullifierV1:
		return "RefundNullifierV1"
	case RefundSecretV1:
		return "RefundSecretV1"
	default:
		panic("note: unknown tag")
	}
}

// tagBytes and domConstant are computed once at init time rather than
// literally inlined, since they are derived values (keccak of a fixed
// string) rather than independent constants. Recomputing them per call
// would be wasteful and, worse, error-prone to keep in sync by hand.
var (
	tagBytes    [6][32]byte
	domConstant [6]*big.Int
)

func init() {
	tags := []Tag{
		DepositNullifierV1, DepositSecretV1,
		ChangeNullifierV1, ChangeSecretV1,
		RefundNullifierV1, RefundSecretV1,
	}
	for _, t := range tags {
		h := field.Keccak256([]byte("shinobi.cash:" + t.label()))
		copy(tagBytes[t][:], h)
		// dom_X = field_from_keccak(tag_X): keccak is applied a second
		// time to the already-hashed tag bytes, then reduced mod p. This
		// double hashing is deliberate and must not be "simplified" to a
		// single pass — it must match the on-chain derivation bit for
		// bit.
		domConstant[t] = field.FieldFromKeccak(h)
	}
}

// tag32 returns the 32-byte domain tag for t, for use as the bytes32 leg
// of the packed context encoding.
func tag32(t Tag) []byte {
	b := tagBytes[t]
	return b[:]
}

// dom returns the field-reduced domain constant for t.
func dom(t Tag) *big.Int {
	return domConstant[t]
}
