package market

import "math/big"

// Prices are ratios buyQuantity/sellQuantity. Comparing a/b against c/d is
// done by cross multiplication in 128-bit space so that int64 quantities can
// never overflow and no division noise enters consensus state.

// ComparePrices orders the rate a1/a2 against b1/b2. It returns -1, 0, or 1
// as a1/a2 is cheaper than, equal to, or more expensive than b1/b2 from the
// seller's point of view (fewer buy units asked per sell unit is cheaper).
func ComparePrices(a1, a2, b1, b2 int64) int {
	lhs := new(big.Int).Mul(big.NewInt(a1), big.NewInt(b2))
	rhs := new(big.Int).Mul(big.NewInt(b1), big.NewInt(a2))
	return lhs.Cmp(rhs)
}

// Crosses reports whether a taker selling takerSell for takerBuy is willing
// to trade against a maker on the opposite book selling makerSell for
// makerBuy. The books cross when the taker's limit rate is no better for the
// taker than the maker's offered rate:
//
//	takerBuy/takerSell <= makerSell/makerBuy
func Crosses(takerSell, takerBuy, makerSell, makerBuy int64) bool {
	lhs := new(big.Int).Mul(big.NewInt(takerBuy), big.NewInt(makerBuy))
	rhs := new(big.Int).Mul(big.NewInt(makerSell), big.NewInt(takerSell))
	return lhs.Cmp(rhs) <= 0
}

// mulDiv computes x*y/d with a 128-bit intermediate, truncating toward zero.
func mulDiv(x, y, d int64) int64 {
	p := new(big.Int).Mul(big.NewInt(x), big.NewInt(y))
	p.Quo(p, big.NewInt(d))
	return p.Int64()
}
