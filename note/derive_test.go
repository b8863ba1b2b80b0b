package note

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/privacypool/client-sdk/field"
	"github.com/privacypool/client-sdk/types"
)

var testPool = common.HexToAddress("0x5543223d9a08df24e60e9da3cfe2a5db4c2b7d18")

func TestDeriveDepositNullifierDeterministicAndDistinct(t *testing.T) {
	c := qt.New(t)

	k := big.NewInt(12345)

	n1, err := DeriveDepositNullifier(k, testPool, 0)
	c.Assert(err, qt.IsNil)
	n2, err := DeriveDepositNullifier(k, testPool, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(n1.Cmp(n2), qt.Equals, 0)

	n3, err := DeriveDepositNullifier(k, testPool, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(n1.Cmp(n3), qt.Not(qt.Equals), 0)

	s1, err := DeriveDepositSecret(k, testPool, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(n1.Cmp(s1), qt.Not(qt.Equals), 0)
}

func TestDeriveChangeAndRefundRequireChangeIndex(t *testing.T) {
	c := qt.New(t)

	k := big.NewInt(7)

	_, err := DeriveChangeNullifier(k, testPool, 0, 0)
	c.Assert(types.IsKind(err, types.KindInvalidKey), qt.IsTrue)

	_, err = DeriveRefundSecret(k, testPool, 0, 0)
	c.Assert(types.IsKind(err, types.KindInvalidKey), qt.IsTrue)

	v, err := DeriveChangeNullifier(k, testPool, 0, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(field.InField(v), qt.IsTrue)
}

func TestDepositAndChangeDomainsAreDistinct(t *testing.T) {
	c := qt.New(t)

	k := big.NewInt(99)

	depositNul, err := DeriveDepositNullifier(k, testPool, 3)
	c.Assert(err, qt.IsNil)
	// Same depositIndex as the deposit above; changeIndex differs (1 vs
	// 0) because a change note requires changeIndex >= 1.
	changeNul, err := DeriveChangeNullifier(k, testPool, 3, 1)
	c.Assert(err, qt.IsNil)

	c.Assert(depositNul.Cmp(changeNul), qt.Not(qt.Equals), 0)
}

func TestNullifierSecretForCoordinateDispatch(t *testing.T) {
	c := qt.New(t)

	k := big.NewInt(55)

	depositCoord := types.Coordinate{PoolAddress: testPool, DepositIndex: 2, ChangeIndex: 0, Kind: types.KindDeposit}
	nul1, sec1, err := NullifierSecretForCoordinate(k, depositCoord)
	c.Assert(err, qt.IsNil)

	wantNul, err := DeriveDepositNullifier(k, testPool, 2)
	c.Assert(err, qt.IsNil)
	wantSec, err := DeriveDepositSecret(k, testPool, 2)
	c.Assert(err, qt.IsNil)

	c.Assert(nul1.Cmp(wantNul), qt.Equals, 0)
	c.Assert(sec1.Cmp(wantSec), qt.Equals, 0)

	badDeposit := types.Coordinate{PoolAddress: testPool, DepositIndex: 2, ChangeIndex: 1, Kind: types.KindDeposit}
	_, _, err = NullifierSecretForCoordinate(k, badDeposit)
	c.Assert(types.IsKind(err, types.KindInvalidKey), qt.IsTrue)
}

func TestParseUserKeyAcceptsHexAndDecimal(t *testing.T) {
	c := qt.New(t)

	hexKey, err := ParseUserKey("  0x2a  ")
	c.Assert(err, qt.IsNil)
	c.Assert(hexKey.Cmp(big.NewInt(42)), qt.Equals, 0)

	decKey, err := ParseUserKey("42")
	c.Assert(err, qt.IsNil)
	c.Assert(decKey.Cmp(big.NewInt(42)), qt.Equals, 0)

	_, err = ParseUserKey("not-a-number")
	c.Assert(types.IsKind(err, types.KindInvalidKey), qt.IsTrue)

	_, err = ParseUserKey("")
	c.Assert(types.IsKind(err, types.KindInvalidKey), qt.IsTrue)
}
