// Package testutil holds fixtures shared by this module's package tests:
// account-key generation, activity builders, and a paginated in-memory
// ActivityFetcher, grounded on the teacher's test.GenUserKeys/GenVotes
// and eth.TestEthClient fixtures.
package testutil

import (
	"crypto/rand"
	"math/big"

	"github.com/privacypool/client-sdk/field"
)

// GenAccountKeys returns n independent account keys, each uniformly
// sampled from [0, P), the way test.GenUserKeys samples n babyjub
// private keys for census fixtures.
func GenAccountKeys(n int) []*big.Int {
	keys := make([]*big.Int, n)
	for i := range keys {
		k, err := rand.Int(rand.Reader, field.P)
		if err != nil {
			panic(err)
		}
		keys[i] = k
	}
	return keys
}
