package field

import (
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

// Keccak256 hashes the concatenation of the given byte slices.
func Keccak256(data ...[]byte) []byte {
	return crypto.Keccak256(data...)
}

// FieldFromKeccak reduces keccak256(data) into the scalar field. It is a
// uniform-ish reducer, not a uniform sampler — the bias is cryptographically
// negligible for BN254.
func FieldFromKeccak(data ...[]byte) *big.Int {
	h := Keccak256(data...)
	return ModP(new(big.Int).SetBytes(h))
}

// Poseidon1 hashes a single field element.
func Poseidon1(a *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a})
}

// Poseidon2 hashes two field elements. This is the hash function the
// Lean-IMT, the note-derivation PRF and the precommitment use.
func Poseidon2(a, b *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a, b})
}

// Poseidon3 hashes three field elements, used for commitment construction
// (amount, label, precommitment).
func Poseidon3(a, b, c *big.Int) (*big.Int, error) {
	return poseidon.Hash([]*big.Int{a, b, c})
}
