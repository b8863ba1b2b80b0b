// Package field implements the BN254 scalar-field arithmetic and hashing
// primitives that every other package in this module builds on.
package field

import (
	"math/big"

	"github.com/iden3/go-iden3-crypto/constants"
)

// P is the BN254 scalar field modulus. It is the same value go-iden3-crypto
// uses internally for Poseidon (constants.Q), reused directly here so the
// two can never drift apart.
var P = new(big.Int).Set(constants.Q)

// ModP reduces x into [0, P). It is applied to keccak outputs, Poseidon
// outputs, tree leaves and parsed keys; big.Int.Mod is the Euclidean
// modulus, so a negative x also lands in [0, P).
func ModP(x *big.Int) *big.Int {
	return new(big.Int).Mod(x, P)
}

// InField reports whether x already lies in [0, P).
func InField(x *big.Int) bool {
	return x.Sign() >= 0 && x.Cmp(P) < 0
}
