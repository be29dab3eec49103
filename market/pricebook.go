package market

import (
	"fmt"

	dbm "github.com/tendermint/tm-db"

	"github.com/emberchain/ember/libs/klist"
)

// PriceBook keeps, per pair, the list of price levels ordered by ascending
// rate (cheapest for the taker first). Levels are klist nodes keyed by
// PairPriceKey; their order queues live elsewhere.
type PriceBook struct {
	db dbm.DB
}

func NewPriceBook(db dbm.DB) *PriceBook {
	return &PriceBook{db: db}
}

func (b *PriceBook) list(pair Pair) *klist.List {
	return klist.New(b.db, []byte(pair.Key()))
}

// Best returns the cheapest level of the pair's book, or "" when the book is
// empty.
func (b *PriceBook) Best(pair Pair) (string, error) {
	head, err := b.list(pair).Head()
	return string(head), err
}

// Next returns the level after levelKey, or "" at the end of the book.
func (b *PriceBook) Next(pair Pair, levelKey string) (string, error) {
	next, err := b.list(pair).Next([]byte(levelKey))
	return string(next), err
}

// LevelAt returns the key of the level resting at exactly this quantity
// pair, or "" when no such level exists. Levels joined at an equal rate but
// created under different quantities are not found here; use Insert's join
// behavior for rate equivalence.
func (b *PriceBook) LevelAt(pair Pair, sellQuantity, buyQuantity int64) (string, error) {
	key := PairPriceKey(pair, sellQuantity, buyQuantity)
	ok, err := b.list(pair).Contains([]byte(key))
	if err != nil || !ok {
		return "", err
	}
	return key, nil
}

// Size returns the number of levels resting in the pair's book.
func (b *PriceBook) Size(pair Pair) (int64, error) {
	return b.list(pair).Size()
}

// Levels returns every level key of the pair's book in rate order.
func (b *PriceBook) Levels(pair Pair) ([]string, error) {
	var keys []string
	_, err := b.list(pair).ScanForward(nil, -1, func(key []byte) (bool, error) {
		keys = append(keys, string(key))
		return false, nil
	})
	return keys, err
}

// CheckHint validates a caller-supplied insertion hint against the book
// without touching it. The hinted level must exist and must price strictly
// below the rate buyQuantity/sellQuantity.
func (b *PriceBook) CheckHint(pair Pair, sellQuantity, buyQuantity int64, hint string) error {
	ok, err := b.list(pair).Contains([]byte(hint))
	if err != nil {
		return err
	}
	if !ok {
		return ErrPrePriceKeyNotExists
	}
	_, hintSell, hintBuy, err := ParsePairPriceKey(hint)
	if err != nil {
		return err
	}
	if ComparePrices(hintBuy, hintSell, buyQuantity, sellQuantity) >= 0 {
		return ErrPrePriceNotLessThanCurrent
	}
	return nil
}

// findPosition locates where the rate buyQuantity/sellQuantity belongs in
// the pair's book. It returns the level to join when an equal rate already
// rests, otherwise the anchor level the new rate goes after ("" for the
// head). With a non-empty hint the search starts after the hinted level and
// spends at most MaxSearch hops; without one the whole book is walked.
func (b *PriceBook) findPosition(pair Pair, sellQuantity, buyQuantity int64, hint string) (anchor, joined string, err error) {
	budget := -1
	if hint != "" {
		if err := b.CheckHint(pair, sellQuantity, buyQuantity, hint); err != nil {
			return "", "", err
		}
		anchor = hint
		budget = MaxSearch
	}

	exceeded, err := b.list(pair).ScanForward([]byte(anchor), budget, func(key []byte) (bool, error) {
		_, levelSell, levelBuy, err := ParsePairPriceKey(string(key))
		if err != nil {
			return false, err
		}
		switch cmp := ComparePrices(levelBuy, levelSell, buyQuantity, sellQuantity); {
		case cmp == 0:
			joined = string(key)
			return true, nil
		case cmp > 0:
			return true, nil
		default:
			anchor = string(key)
			return false, nil
		}
	})
	if err != nil {
		return "", "", err
	}
	if exceeded {
		return "", "", MaxSearchExceededError{Limit: MaxSearch}
	}
	return anchor, joined, nil
}

// VerifyHint checks a position hint the way Insert would use it, without
// touching the book: the hinted level must exist, must price strictly below
// the new rate, and the true insertion point must be reachable from it
// within MaxSearch hops.
func (b *PriceBook) VerifyHint(pair Pair, sellQuantity, buyQuantity int64, hint string) error {
	_, _, err := b.findPosition(pair, sellQuantity, buyQuantity, hint)
	return err
}

// Insert places the rate buyQuantity/sellQuantity into the pair's book and
// returns the level key the caller's order should queue under. When an equal
// rate already rests, the existing level is returned with created=false.
func (b *PriceBook) Insert(pair Pair, sellQuantity, buyQuantity int64, hint string) (string, bool, error) {
	anchor, joined, err := b.findPosition(pair, sellQuantity, buyQuantity, hint)
	if err != nil {
		return "", false, err
	}
	if joined != "" {
		return joined, false, nil
	}
	levelKey := PairPriceKey(pair, sellQuantity, buyQuantity)
	if err := b.list(pair).InsertAfter([]byte(anchor), []byte(levelKey)); err != nil {
		return "", false, fmt.Errorf("insert level: %w", err)
	}
	return levelKey, true, nil
}

// RemoveLevel drops an emptied level from the pair's book.
func (b *PriceBook) RemoveLevel(pair Pair, levelKey string) error {
	return b.list(pair).Remove([]byte(levelKey))
}
