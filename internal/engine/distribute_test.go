package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/revcon/internal/asset"
)

func targets(weights ...uint64) []asset.DistributionTarget {
	out := make([]asset.DistributionTarget, len(weights))
	for i, w := range weights {
		out[i] = asset.DistributionTarget{
			Address: string(rune('a' + i)),
			Weight:  w,
		}
	}
	return out
}

func sumShares(shares []asset.Transfer) uint64 {
	var total uint64
	for _, s := range shares {
		total += s.Coin.Amount
	}
	return total
}

func TestSplit_OneToThree(t *testing.T) {
	shares, err := Split("ukuji", 1000, targets(1, 3))
	require.NoError(t, err)

	require.Len(t, shares, 2)
	assert.Equal(t, uint64(250), shares[0].Coin.Amount)
	assert.Equal(t, uint64(750), shares[1].Coin.Amount)
	assert.Equal(t, "a", shares[0].Address)
	assert.Equal(t, "b", shares[1].Address)
}

func TestSplit_OneToThree_2000(t *testing.T) {
	shares, err := Split("another", 2000, targets(1, 3))
	require.NoError(t, err)

	require.Len(t, shares, 2)
	assert.Equal(t, uint64(500), shares[0].Coin.Amount)
	assert.Equal(t, uint64(1500), shares[1].Coin.Amount)
}

func TestSplit_ZeroBalance_NoShares(t *testing.T) {
	shares, err := Split("ukuji", 0, targets(1, 3))
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestSplit_EmptyTargets_NoShares(t *testing.T) {
	shares, err := Split("ukuji", 1000, nil)
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestSplit_SingleTarget_TakesEverything(t *testing.T) {
	shares, err := Split("ukuji", 777, targets(5))
	require.NoError(t, err)

	require.Len(t, shares, 1)
	assert.Equal(t, uint64(777), shares[0].Coin.Amount)
}

func TestSplit_ZeroTotalWeight_Undefined(t *testing.T) {
	_, err := Split("ukuji", 1000, targets(0, 0))
	require.Error(t, err)
	assert.True(t, IsUndefinedSplit(err))
}

func TestSplit_ZeroTotalWeight_ZeroBalance_OK(t *testing.T) {
	// Zero balance short-circuits before the weight check.
	shares, err := Split("ukuji", 0, targets(0, 0))
	require.NoError(t, err)
	assert.Empty(t, shares)
}

func TestSplit_ZeroWeightTarget_Skipped(t *testing.T) {
	shares, err := Split("ukuji", 1000, targets(1, 0, 1))
	require.NoError(t, err)

	// The zero-weight middle target computes a zero share and is not
	// emitted at all.
	require.Len(t, shares, 2)
	assert.Equal(t, "a", shares[0].Address)
	assert.Equal(t, "c", shares[1].Address)
	assert.Equal(t, uint64(1000), sumShares(shares))
}

func TestSplit_Conservation(t *testing.T) {
	cases := []struct {
		name    string
		balance uint64
		weights []uint64
	}{
		{"remainder heavy", 1000, []uint64{3, 3, 3}},
		{"tiny balance many targets", 5, []uint64{1, 1, 1, 1, 1, 1, 1}},
		{"large weights", 999999937, []uint64{17, 31, 101}},
		{"one unit", 1, []uint64{2, 3}},
		{"uneven", 1000003, []uint64{1, 999, 2}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			shares, err := Split("ukuji", tc.balance, targets(tc.weights...))
			require.NoError(t, err)
			assert.Equal(t, tc.balance, sumShares(shares), "shares must sum to the balance exactly")
		})
	}
}

func TestSplit_RemainderGoesToLastTarget(t *testing.T) {
	// 1000 over weights 3/3/3: floor shares are 333 each, so the last
	// target absorbs the 1-unit remainder on top of its own floor share.
	shares, err := Split("ukuji", 1000, targets(3, 3, 3))
	require.NoError(t, err)

	require.Len(t, shares, 3)
	assert.Equal(t, uint64(333), shares[0].Coin.Amount)
	assert.Equal(t, uint64(333), shares[1].Coin.Amount)
	assert.Equal(t, uint64(334), shares[2].Coin.Amount)
}

func TestSplit_LastTarget_NeverBelowFloorShare(t *testing.T) {
	shares, err := Split("ukuji", 1000003, targets(1, 999, 2))
	require.NoError(t, err)

	require.Len(t, shares, 3)
	last := shares[len(shares)-1].Coin.Amount
	floor := floorShare(1000003, 2, 1002)
	assert.GreaterOrEqual(t, last, floor)
	assert.Equal(t, uint64(1000003), sumShares(shares))
}

func TestSplit_OverflowSafe(t *testing.T) {
	// balance * weight would overflow uint64; the big.Int path must not.
	balance := uint64(math.MaxUint64)
	shares, err := Split("ukuji", balance, targets(7, 3))
	require.NoError(t, err)

	require.Len(t, shares, 2)
	assert.Equal(t, balance, sumShares(shares))
}

func TestFloorShare(t *testing.T) {
	assert.Equal(t, uint64(250), floorShare(1000, 1, 4))
	assert.Equal(t, uint64(333), floorShare(1000, 3, 9))
	assert.Equal(t, uint64(0), floorShare(1, 1, 4))
}
