package state

import (
	"bytes"

	dbm "github.com/tendermint/tm-db"
)

type pendingEntry struct {
	key     []byte
	value   []byte
	deleted bool
}

// cacheIterator merges a sorted snapshot of buffered writes with a backing
// iterator. Buffered entries shadow backend entries with the same key;
// buffered deletes hide them entirely.
type cacheIterator struct {
	backing dbm.Iterator
	pending []pendingEntry
	idx     int
	reverse bool

	start, end []byte
	key, value []byte
	valid      bool
}

var _ dbm.Iterator = (*cacheIterator)(nil)

func newCacheIterator(backing dbm.Iterator, pending []pendingEntry, start, end []byte, reverse bool) *cacheIterator {
	it := &cacheIterator{
		backing: backing,
		pending: pending,
		reverse: reverse,
		start:   start,
		end:     end,
	}
	it.advance()
	return it
}

// before reports whether a sorts strictly before b in iteration order.
func (it *cacheIterator) before(a, b []byte) bool {
	if it.reverse {
		return bytes.Compare(a, b) > 0
	}
	return bytes.Compare(a, b) < 0
}

// advance moves to the next live entry of the merged view.
func (it *cacheIterator) advance() {
	for {
		var (
			fromPending bool
			fromBacking bool
		)
		pendingOK := it.idx < len(it.pending)
		backingOK := it.backing.Valid()

		switch {
		case pendingOK && backingOK:
			pk := it.pending[it.idx].key
			bk := it.backing.Key()
			switch {
			case bytes.Equal(pk, bk):
				fromPending = true
				fromBacking = true
			case it.before(pk, bk):
				fromPending = true
			default:
				fromBacking = true
			}
		case pendingOK:
			fromPending = true
		case backingOK:
			fromBacking = true
		default:
			it.valid = false
			return
		}

		if fromPending {
			entry := it.pending[it.idx]
			it.idx++
			if fromBacking {
				it.backing.Next()
			}
			if entry.deleted {
				continue
			}
			it.key, it.value = entry.key, entry.value
			it.valid = true
			return
		}

		it.key = append([]byte(nil), it.backing.Key()...)
		it.value = append([]byte(nil), it.backing.Value()...)
		it.backing.Next()
		it.valid = true
		return
	}
}

func (it *cacheIterator) Domain() (start, end []byte) {
	return it.start, it.end
}

func (it *cacheIterator) Valid() bool {
	return it.valid
}

func (it *cacheIterator) Next() {
	it.assertValid()
	it.advance()
}

func (it *cacheIterator) Key() []byte {
	it.assertValid()
	return it.key
}

func (it *cacheIterator) Value() []byte {
	it.assertValid()
	return it.value
}

func (it *cacheIterator) Error() error {
	return it.backing.Error()
}

func (it *cacheIterator) Close() error {
	return it.backing.Close()
}

func (it *cacheIterator) assertValid() {
	if !it.valid {
		panic("cacheIterator is invalid")
	}
}
