package market

import (
	"fmt"

	"github.com/google/orderedcode"
)

// Pair names a trading direction: orders selling SellAsset in exchange for
// BuyAsset. The two directions of the same asset pair are distinct books.
type Pair struct {
	SellAsset string
	BuyAsset  string
}

func (p Pair) Opposite() Pair {
	return Pair{SellAsset: p.BuyAsset, BuyAsset: p.SellAsset}
}

// Key returns the canonical store key for the pair's book.
func (p Pair) Key() string {
	key, err := orderedcode.Append(nil, p.SellAsset, p.BuyAsset)
	if err != nil {
		panic(err)
	}
	return string(key)
}

func (p Pair) String() string {
	return p.SellAsset + "/" + p.BuyAsset
}

// ParsePairKey inverts Pair.Key.
func ParsePairKey(key string) (Pair, error) {
	var p Pair
	remain, err := orderedcode.Parse(key, &p.SellAsset, &p.BuyAsset)
	if err != nil {
		return Pair{}, fmt.Errorf("decode pair key: %w", err)
	}
	if len(remain) != 0 {
		return Pair{}, fmt.Errorf("decode pair key: %d trailing bytes", len(remain))
	}
	return p, nil
}

// PairPriceKey identifies one price level inside a pair's book. The level is
// named by the quantities of the order that created it; any later order whose
// cross products match joins the same level even if its own quantities differ.
func PairPriceKey(p Pair, sellQuantity, buyQuantity int64) string {
	key, err := orderedcode.Append(nil, p.SellAsset, p.BuyAsset, sellQuantity, buyQuantity)
	if err != nil {
		panic(err)
	}
	return string(key)
}

// ParsePairPriceKey inverts PairPriceKey.
func ParsePairPriceKey(key string) (Pair, int64, int64, error) {
	var (
		p                          Pair
		sellQuantity, buyQuantity int64
	)
	remain, err := orderedcode.Parse(key, &p.SellAsset, &p.BuyAsset, &sellQuantity, &buyQuantity)
	if err != nil {
		return Pair{}, 0, 0, fmt.Errorf("decode price key: %w", err)
	}
	if len(remain) != 0 {
		return Pair{}, 0, 0, fmt.Errorf("decode price key: %d trailing bytes", len(remain))
	}
	return p, sellQuantity, buyQuantity, nil
}
