package market

import (
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"
)

// OrderIndex records every order an account has ever created, in creation
// order. The per-owner count doubles as the sequence number that makes
// order ids unique for an owner submitting identical terms twice.
type OrderIndex struct {
	db dbm.DB
}

func NewOrderIndex(db dbm.DB) *OrderIndex {
	return &OrderIndex{db: db}
}

func indexCountKey(owner []byte) []byte {
	key, err := orderedcode.Append(nil, "cnt", string(owner))
	if err != nil {
		panic(err)
	}
	return key
}

func indexElemKey(owner []byte, i int64) []byte {
	key, err := orderedcode.Append(nil, "ord", string(owner), i)
	if err != nil {
		panic(err)
	}
	return key
}

// Count returns how many orders the owner has created.
func (x *OrderIndex) Count(owner []byte) (int64, error) {
	buf, err := x.db.Get(indexCountKey(owner))
	if err != nil {
		return 0, err
	}
	if buf == nil {
		return 0, nil
	}
	var n int64
	remain, err := orderedcode.Parse(string(buf), &n)
	if err != nil {
		return 0, fmt.Errorf("decode order count: %w", err)
	}
	if len(remain) != 0 {
		return 0, fmt.Errorf("decode order count: %d trailing bytes", len(remain))
	}
	return n, nil
}

// Append records a new order id for the owner and returns its sequence
// number.
func (x *OrderIndex) Append(owner, orderID []byte) (int64, error) {
	n, err := x.Count(owner)
	if err != nil {
		return 0, err
	}
	if err := x.db.Set(indexElemKey(owner, n), orderID); err != nil {
		return 0, err
	}
	count, err := orderedcode.Append(nil, n+1)
	if err != nil {
		return 0, err
	}
	if err := x.db.Set(indexCountKey(owner), count); err != nil {
		return 0, err
	}
	return n, nil
}

// Get returns the owner's i-th order id.
func (x *OrderIndex) Get(owner []byte, i int64) ([]byte, error) {
	buf, err := x.db.Get(indexElemKey(owner, i))
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, ErrOrderNotFound
	}
	return buf, nil
}

// All returns every order id the owner has created, oldest first.
func (x *OrderIndex) All(owner []byte) ([][]byte, error) {
	n, err := x.Count(owner)
	if err != nil {
		return nil, err
	}
	ids := make([][]byte, 0, n)
	for i := int64(0); i < n; i++ {
		id, err := x.Get(owner, i)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
