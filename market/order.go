package market

import (
	"crypto/sha256"
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"
)

// OrderState tracks an order's lifecycle. Orders are never deleted; a filled
// or canceled order stays addressable under its id for audit.
type OrderState int64

const (
	// OrderActive orders rest in a book and can still match.
	OrderActive OrderState = iota
	// OrderInactive orders are fully filled, dust-refunded, or canceled.
	OrderInactive
)

// Order is one resting (or retired) sell order.
type Order struct {
	ID    []byte
	Owner []byte

	SellAsset    string
	SellQuantity int64
	BuyAsset     string
	BuyQuantity  int64

	// Remaining is the unsold part of SellQuantity.
	Remaining int64

	State     OrderState
	CreatedAt int64

	// LevelKey is the price level the order rests under while active. It is
	// the join key back into the book, which may carry quantities from an
	// earlier order at the same price.
	LevelKey string
}

// OrderID derives the deterministic identifier for an order: a digest over
// the owner, the owner's order count at creation time, and the order terms.
// Every validating node computes the same id for the same request.
func OrderID(owner []byte, ownerIndex int64, sellAsset string, sellQuantity int64, buyAsset string, buyQuantity int64, createdAt int64) []byte {
	buf, err := orderedcode.Append(nil,
		string(owner), ownerIndex, sellAsset, sellQuantity, buyAsset, buyQuantity, createdAt)
	if err != nil {
		panic(err)
	}
	sum := sha256.Sum256(buf)
	return sum[:]
}

func encodeOrder(o *Order) []byte {
	buf, err := orderedcode.Append(nil,
		string(o.ID), string(o.Owner),
		o.SellAsset, o.SellQuantity, o.BuyAsset, o.BuyQuantity,
		o.Remaining, int64(o.State), o.CreatedAt, o.LevelKey)
	if err != nil {
		panic(err)
	}
	return buf
}

func decodeOrder(buf []byte) (*Order, error) {
	var (
		o         Order
		id, owner string
		state     int64
	)
	remain, err := orderedcode.Parse(string(buf),
		&id, &owner,
		&o.SellAsset, &o.SellQuantity, &o.BuyAsset, &o.BuyQuantity,
		&o.Remaining, &state, &o.CreatedAt, &o.LevelKey)
	if err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if len(remain) != 0 {
		return nil, fmt.Errorf("decode order: %d trailing bytes", len(remain))
	}
	o.ID = []byte(id)
	o.Owner = []byte(owner)
	o.State = OrderState(state)
	return &o, nil
}

// OrderStore persists orders by id.
type OrderStore struct {
	db dbm.DB
}

func NewOrderStore(db dbm.DB) *OrderStore {
	return &OrderStore{db: db}
}

func orderKey(id []byte) []byte {
	key, err := orderedcode.Append(nil, string(id))
	if err != nil {
		panic(err)
	}
	return key
}

func (s *OrderStore) Put(o *Order) error {
	return s.db.Set(orderKey(o.ID), encodeOrder(o))
}

func (s *OrderStore) Get(id []byte) (*Order, error) {
	buf, err := s.db.Get(orderKey(id))
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, ErrOrderNotFound
	}
	return decodeOrder(buf)
}

func (s *OrderStore) Has(id []byte) (bool, error) {
	return s.db.Has(orderKey(id))
}
