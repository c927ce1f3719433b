package engine

import (
	"math/big"

	"github.com/roach88/revcon/internal/asset"
)

// Split computes the exact integer distribution of balance across the
// weighted targets, in their configured order.
//
// Every target except the last receives floor(balance * weight / total)
// using integer-only arithmetic; the last target receives whatever
// remains, so the shares always sum to balance exactly - the last
// configured target absorbs all rounding dust. Zero shares are skipped.
//
// A zero balance yields no shares for any target list. A zero total
// weight with a non-zero balance and a non-empty target list is an
// undefined split and returns ErrCodeUndefinedSplit; callers decide
// whether to skip the denomination or fail the crank.
func Split(denom asset.Denom, balance uint64, targets []asset.DistributionTarget) ([]asset.Transfer, error) {
	if balance == 0 || len(targets) == 0 {
		return nil, nil
	}

	total := asset.TotalWeight(targets)
	if total == 0 {
		return nil, NewUndefinedSplitError(denom, balance)
	}

	var shares []asset.Transfer
	remaining := balance
	for i, t := range targets {
		var amount uint64
		if i == len(targets)-1 {
			amount = remaining
		} else {
			amount = floorShare(balance, t.Weight, total)
		}
		if amount == 0 {
			continue
		}
		remaining -= amount
		shares = append(shares, asset.Transfer{
			Address: t.Address,
			Coin:    asset.NewCoin(denom, amount),
		})
	}
	return shares, nil
}

// floorShare computes floor(balance * weight / total) without overflow.
// The intermediate product can exceed 64 bits, so it goes through
// big.Int; the quotient always fits because weight <= total.
func floorShare(balance, weight, total uint64) uint64 {
	var product big.Int
	product.SetUint64(balance)
	product.Mul(&product, new(big.Int).SetUint64(weight))
	product.Div(&product, new(big.Int).SetUint64(total))
	return product.Uint64()
}
