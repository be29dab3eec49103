package market

import (
	dbm "github.com/tendermint/tm-db"

	"github.com/emberchain/ember/libs/klist"
)

// OrderQueue keeps, per price level, the ids of resting orders in arrival
// order. Matching always consumes the head, so time priority within a level
// is positional rather than timestamped.
type OrderQueue struct {
	db dbm.DB
}

func NewOrderQueue(db dbm.DB) *OrderQueue {
	return &OrderQueue{db: db}
}

func (q *OrderQueue) list(levelKey string) *klist.List {
	return klist.New(q.db, []byte(levelKey))
}

// Push appends an order id to the back of the level's queue.
func (q *OrderQueue) Push(levelKey string, orderID []byte) error {
	return q.list(levelKey).PushTail(orderID)
}

// Head returns the oldest resting order id at the level, or nil when the
// level is empty.
func (q *OrderQueue) Head(levelKey string) ([]byte, error) {
	return q.list(levelKey).Head()
}

// PopHead removes and returns the oldest resting order id at the level, or
// nil when the level is empty.
func (q *OrderQueue) PopHead(levelKey string) ([]byte, error) {
	l := q.list(levelKey)
	head, err := l.Head()
	if err != nil || head == nil {
		return nil, err
	}
	if err := l.Remove(head); err != nil {
		return nil, err
	}
	return head, nil
}

// Remove unlinks an order id from the level's queue.
func (q *OrderQueue) Remove(levelKey string, orderID []byte) error {
	return q.list(levelKey).Remove(orderID)
}

// Size returns the number of orders resting at the level.
func (q *OrderQueue) Size(levelKey string) (int64, error) {
	return q.list(levelKey).Size()
}

// Orders returns the resting order ids at the level in priority order.
func (q *OrderQueue) Orders(levelKey string) ([][]byte, error) {
	var ids [][]byte
	_, err := q.list(levelKey).ScanForward(nil, -1, func(key []byte) (bool, error) {
		id := make([]byte, len(key))
		copy(id, key)
		ids = append(ids, id)
		return false, nil
	})
	return ids, err
}
