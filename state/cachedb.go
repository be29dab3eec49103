package state

import (
	"bytes"
	"errors"
	"sort"
	"strconv"
	"sync"

	dbm "github.com/tendermint/tm-db"
)

var errKeyEmpty = errors.New("key cannot be empty")

// CacheDB buffers writes and deletes over a backing database. Reads see the
// buffered state; nothing reaches the backend until Commit flushes the whole
// buffer through a single batch. Discarding the CacheDB (or just dropping
// it) loses every pending mutation, which is exactly what a failed
// transaction needs.
//
// CacheDB implements dbm.DB, so prefixed sub-stores and everything built on
// them run unchanged on top of it.
type CacheDB struct {
	mtx     sync.Mutex
	backend dbm.DB
	writes  map[string]cacheValue
}

type cacheValue struct {
	value   []byte
	deleted bool
}

var _ dbm.DB = (*CacheDB)(nil)

// NewCacheDB returns an empty write buffer over backend.
func NewCacheDB(backend dbm.DB) *CacheDB {
	return &CacheDB{
		backend: backend,
		writes:  make(map[string]cacheValue),
	}
}

// Get implements dbm.DB.
func (c *CacheDB) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errKeyEmpty
	}
	c.mtx.Lock()
	cv, ok := c.writes[string(key)]
	c.mtx.Unlock()
	if ok {
		if cv.deleted {
			return nil, nil
		}
		return cv.value, nil
	}
	return c.backend.Get(key)
}

// Has implements dbm.DB.
func (c *CacheDB) Has(key []byte) (bool, error) {
	bz, err := c.Get(key)
	return bz != nil, err
}

// Set implements dbm.DB.
func (c *CacheDB) Set(key, value []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	if value == nil {
		value = []byte{}
	}
	c.mtx.Lock()
	c.writes[string(key)] = cacheValue{value: value}
	c.mtx.Unlock()
	return nil
}

// SetSync implements dbm.DB.
func (c *CacheDB) SetSync(key, value []byte) error {
	return c.Set(key, value)
}

// Delete implements dbm.DB.
func (c *CacheDB) Delete(key []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	c.mtx.Lock()
	c.writes[string(key)] = cacheValue{deleted: true}
	c.mtx.Unlock()
	return nil
}

// DeleteSync implements dbm.DB.
func (c *CacheDB) DeleteSync(key []byte) error {
	return c.Delete(key)
}

// Commit flushes every buffered mutation to the backend in one batch and
// resets the buffer. Keys are written in sorted order so the flush itself
// is deterministic.
func (c *CacheDB) Commit() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	keys := make([]string, 0, len(c.writes))
	for k := range c.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := c.backend.NewBatch()
	defer batch.Close()
	for _, k := range keys {
		cv := c.writes[k]
		if cv.deleted {
			if err := batch.Delete([]byte(k)); err != nil {
				return err
			}
		} else {
			if err := batch.Set([]byte(k), cv.value); err != nil {
				return err
			}
		}
	}
	if err := batch.WriteSync(); err != nil {
		return err
	}
	c.writes = make(map[string]cacheValue)
	return nil
}

// Discard drops every buffered mutation.
func (c *CacheDB) Discard() {
	c.mtx.Lock()
	c.writes = make(map[string]cacheValue)
	c.mtx.Unlock()
}

// Iterator implements dbm.DB. The iterator observes the buffered state
// merged over the backend.
func (c *CacheDB) Iterator(start, end []byte) (dbm.Iterator, error) {
	backing, err := c.backend.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newCacheIterator(backing, c.pendingInRange(start, end, false), start, end, false), nil
}

// ReverseIterator implements dbm.DB.
func (c *CacheDB) ReverseIterator(start, end []byte) (dbm.Iterator, error) {
	backing, err := c.backend.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	return newCacheIterator(backing, c.pendingInRange(start, end, true), start, end, true), nil
}

func (c *CacheDB) pendingInRange(start, end []byte, reverse bool) []pendingEntry {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	var pending []pendingEntry
	for k, cv := range c.writes {
		key := []byte(k)
		if start != nil && bytes.Compare(key, start) < 0 {
			continue
		}
		if end != nil && bytes.Compare(key, end) >= 0 {
			continue
		}
		pending = append(pending, pendingEntry{key: key, value: cv.value, deleted: cv.deleted})
	}
	sort.Slice(pending, func(i, j int) bool {
		if reverse {
			return bytes.Compare(pending[i].key, pending[j].key) > 0
		}
		return bytes.Compare(pending[i].key, pending[j].key) < 0
	})
	return pending
}

// Close implements dbm.DB. The backend stays open; the cache just drops
// its buffer.
func (c *CacheDB) Close() error {
	c.Discard()
	return nil
}

// NewBatch implements dbm.DB. The batch applies into the cache buffer on
// Write, not to the backend.
func (c *CacheDB) NewBatch() dbm.Batch {
	return &cacheBatch{db: c}
}

// Print implements dbm.DB.
func (c *CacheDB) Print() error {
	return c.backend.Print()
}

// Stats implements dbm.DB.
func (c *CacheDB) Stats() map[string]string {
	c.mtx.Lock()
	pending := len(c.writes)
	c.mtx.Unlock()

	stats := c.backend.Stats()
	if stats == nil {
		stats = make(map[string]string)
	}
	stats["cachedb.pending"] = strconv.Itoa(pending)
	return stats
}

type cacheBatchOp struct {
	delete bool
	key    []byte
	value  []byte
}

type cacheBatch struct {
	db  *CacheDB
	ops []cacheBatchOp
}

var _ dbm.Batch = (*cacheBatch)(nil)

func (b *cacheBatch) Set(key, value []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	b.ops = append(b.ops, cacheBatchOp{key: key, value: value})
	return nil
}

func (b *cacheBatch) Delete(key []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	b.ops = append(b.ops, cacheBatchOp{delete: true, key: key})
	return nil
}

func (b *cacheBatch) Write() error {
	for _, op := range b.ops {
		if op.delete {
			if err := b.db.Delete(op.key); err != nil {
				return err
			}
		} else {
			if err := b.db.Set(op.key, op.value); err != nil {
				return err
			}
		}
	}
	b.ops = nil
	return nil
}

func (b *cacheBatch) WriteSync() error {
	return b.Write()
}

func (b *cacheBatch) Close() error {
	b.ops = nil
	return nil
}
