package note

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privacypool/client-sdk/field"
	"github.com/privacypool/client-sdk/types"
)

// ctx builds the typed context field for one derivation: the packed
// encoding of (pool, depositIndex, changeIndex, tag) reduced through
// keccak into the field.
func ctx(pool common.Address, depositIndex, changeIndex uint64, t Tag) *big.Int {
	packed, err := field.EncodePacked(
		[]field.Tag{field.TagAddress, field.TagUint64, field.TagUint64, field.TagBytes32},
		[]interface{}{pool, depositIndex, changeIndex, tag32(t)},
	)
	if err != nil {
		// The tags and values above are fixed by this function's own
		// literal arguments; a mismatch here would be a programming
		// error, not a runtime condition.
		panic("note: ctx: " + err.Error())
	}
	return field.FieldFromKeccak(packed)
}

// prf is the keyed pseudorandom function every derivation reduces to:
// prf(k, ctx, dom) = mod_p(poseidon2(k, mod_p(poseidon2(ctx, dom)))).
func prf(k, c, d *big.Int) (*big.Int, error) {
	inner, err := field.Poseidon2(c, d)
	if err != nil {
		return nil, err
	}
	outer, err := field.Poseidon2(k, field.ModP(inner))
	if err != nil {
		return nil, err
	}
	return field.ModP(outer), nil
}

func derive(k *big.Int, pool common.Address, depositIndex, changeIndex uint64, t Tag) (*big.Int, error) {
	c := ctx(pool, depositIndex, changeIndex, t)
	return prf(k, c, dom(t))
}

// DeriveDepositNullifier derives the nullifier for the deposit note at
// (pool, depositIndex). Only valid with changeIndex = 0.
func DeriveDepositNullifier(k *big.Int, pool common.Address, depositIndex uint64) (*big.Int, error) {
	return derive(k, pool, depositIndex, 0, DepositNullifierV1)
}

// DeriveDepositSecret derives the secret for the deposit note at
// (pool, depositIndex).
func DeriveDepositSecret(k *big.Int, pool common.Address, depositIndex uint64) (*big.Int, error) {
	return derive(k, pool, depositIndex, 0, DepositSecretV1)
}

// DeriveChangeNullifier derives the nullifier for the change note at
// changeIndex, which must be >= 1.
func DeriveChangeNullifier(k *big.Int, pool common.Address, depositIndex, changeIndex uint64) (*big.Int, error) {
	if changeIndex < 1 {
		return nil, types.NewError(types.KindInvalidKey, "change nullifier requires changeIndex >= 1", nil)
	}
	return derive(k, pool, depositIndex, changeIndex, ChangeNullifierV1)
}

// DeriveChangeSecret derives the secret for the change note at
// changeIndex, which must be >= 1.
func DeriveChangeSecret(k *big.Int, pool common.Address, depositIndex, changeIndex uint64) (*big.Int, error) {
	if changeIndex < 1 {
		return nil, types.NewError(types.KindInvalidKey, "change secret requires changeIndex >= 1", nil)
	}
	return derive(k, pool, depositIndex, changeIndex, ChangeSecretV1)
}

// DeriveRefundNullifier derives the nullifier for the refund note shadowing
// the change note at changeIndex, which must be >= 1.
func DeriveRefundNullifier(k *big.Int, pool common.Address, depositIndex, changeIndex uint64) (*big.Int, error) {
	if changeIndex < 1 {
		return nil, types.NewError(types.KindInvalidKey, "refund nullifier requires changeIndex >= 1", nil)
	}
	return derive(k, pool, depositIndex, changeIndex, RefundNullifierV1)
}

// DeriveRefundSecret derives the secret for the refund note shadowing the
// change note at changeIndex, which must be >= 1.
func DeriveRefundSecret(k *big.Int, pool common.Address, depositIndex, changeIndex uint64) (*big.Int, error) {
	if changeIndex < 1 {
		return nil, types.NewError(types.KindInvalidKey, "refund secret requires changeIndex >= 1", nil)
	}
	return derive(k, pool, depositIndex, changeIndex, RefundSecretV1)
}

// NullifierSecretForCoordinate derives the (nullifier, secret) pair for an
// arbitrary note coordinate, dispatching on its Kind. Deposit requires
// ChangeIndex == 0; Change and Refund require ChangeIndex >= 1.
func NullifierSecretForCoordinate(k *big.Int, c types.Coordinate) (nullifier, secret *big.Int, err error) {
	switch c.Kind {
	case types.KindDeposit:
		if c.ChangeIndex != 0 {
			return nil, nil, types.NewError(types.KindInvalidKey, "deposit coordinate requires changeIndex = 0", nil)
		}
		nullifier, err = DeriveDepositNullifier(k, c.PoolAddress, c.DepositIndex)
		if err != nil {
			return nil, nil, err
		}
		secret, err = DeriveDepositSecret(k, c.PoolAddress, c.DepositIndex)
		return nullifier, secret, err
	case types.KindChange:
		nullifier, err = DeriveChangeNullifier(k, c.PoolAddress, c.DepositIndex, c.ChangeIndex)
		if err != nil {
			return nil, nil, err
		}
		secret, err = DeriveChangeSecret(k, c.PoolAddress, c.DepositIndex, c.ChangeIndex)
		return nullifier, secret, err
	case types.KindRefund:
		nullifier, err = DeriveRefundNullifier(k, c.PoolAddress, c.DepositIndex, c.ChangeIndex)
		if err != nil {
			return nil, nil, err
		}
		secret, err = DeriveRefundSecret(k, c.PoolAddress, c.DepositIndex, c.ChangeIndex)
		return nullifier, secret, err
	default:
		return nil, nil, types.NewError(types.KindInvalidKey, "unknown coordinate kind", nil)
	}
}

// ParseUserKey accepts a hex string ("0x…") or a decimal string, and
// reduces the result modulo the field order. Input is whitespace-trimmed
// before parsing. It takes only strings; there is no integer or raw-byte
// input form.
func ParseUserKey(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, types.NewError(types.KindInvalidKey, "empty key", nil)
	}

	var v *big.Int
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		hex := s[2:]
		if hex == "" || !isHex(hex) {
			return nil, types.NewError(types.KindInvalidKey, "malformed hex key", nil)
		}
		v = new(big.Int)
		v.SetString(hex, 16)
	} else {
		var ok bool
		v, ok = new(big.Int).SetString(s, 10)
		if !ok {
			return nil, types.NewError(types.KindInvalidKey, "malformed decimal key", nil)
		}
	}
	return field.ModP(v), nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return true
}
