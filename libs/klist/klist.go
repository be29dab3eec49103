// Package klist implements a doubly linked list whose nodes and links live
// entirely in a key-value store.
//
// A List holds no state in memory: the head, tail and size are kept in a
// single meta record, and every node has a link record carrying the keys of
// its neighbours. Traversal is key lookup, never pointer dereference, so a
// list survives process restarts and is shared by everything with access to
// the same database. Node payloads are not stored here; a node is just a
// key, and the caller keeps whatever that key addresses wherever it likes.
//
// Lists are distinguished by name, so any number of them can share one
// database (or one prefixed partition of it).
package klist

import (
	"errors"
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"
)

var (
	// ErrKeyNotFound is returned when an operation names a node that is
	// not in the list.
	ErrKeyNotFound = errors.New("key not in list")

	// ErrKeyExists is returned when a node to be inserted already is in
	// the list.
	ErrKeyExists = errors.New("key already in list")

	// ErrEmptyKey is returned for zero-length node keys, which cannot be
	// distinguished from a nil neighbour pointer.
	ErrEmptyKey = errors.New("empty key")
)

// List is a stored doubly linked list of byte-string keys.
type List struct {
	db   dbm.DB
	name string
}

// New returns the list called name inside db. The list need not exist yet;
// an absent meta record reads as an empty list.
func New(db dbm.DB, name []byte) *List {
	return &List{db: db, name: string(name)}
}

type meta struct {
	size int64
	head string
	tail string
}

type link struct {
	prev string
	next string
}

func (l *List) metaKey() []byte {
	key, err := orderedcode.Append(nil, "meta", l.name)
	if err != nil {
		panic(err)
	}
	return key
}

func (l *List) linkKey(node string) []byte {
	key, err := orderedcode.Append(nil, "link", l.name, node)
	if err != nil {
		panic(err)
	}
	return key
}

func (l *List) loadMeta() (meta, error) {
	bz, err := l.db.Get(l.metaKey())
	if err != nil {
		return meta{}, err
	}
	if len(bz) == 0 {
		return meta{}, nil
	}
	var m meta
	remaining, err := orderedcode.Parse(string(bz), &m.size, &m.head, &m.tail)
	if err != nil {
		return meta{}, fmt.Errorf("decode list meta: %w", err)
	}
	if len(remaining) != 0 {
		return meta{}, fmt.Errorf("decode list meta: %d unconsumed bytes", len(remaining))
	}
	return m, nil
}

func (l *List) saveMeta(m meta) error {
	bz, err := orderedcode.Append(nil, m.size, m.head, m.tail)
	if err != nil {
		return err
	}
	return l.db.Set(l.metaKey(), bz)
}

func (l *List) loadLink(node string) (link, bool, error) {
	bz, err := l.db.Get(l.linkKey(node))
	if err != nil {
		return link{}, false, err
	}
	if bz == nil {
		return link{}, false, nil
	}
	var ln link
	remaining, err := orderedcode.Parse(string(bz), &ln.prev, &ln.next)
	if err != nil {
		return link{}, false, fmt.Errorf("decode link of %X: %w", node, err)
	}
	if len(remaining) != 0 {
		return link{}, false, fmt.Errorf("decode link of %X: %d unconsumed bytes", node, len(remaining))
	}
	return ln, true, nil
}

func (l *List) saveLink(node string, ln link) error {
	bz, err := orderedcode.Append(nil, ln.prev, ln.next)
	if err != nil {
		return err
	}
	return l.db.Set(l.linkKey(node), bz)
}

// Size returns the number of nodes in the list.
func (l *List) Size() (int64, error) {
	m, err := l.loadMeta()
	if err != nil {
		return 0, err
	}
	return m.size, nil
}

// Head returns the first node key, or nil for an empty list.
func (l *List) Head() ([]byte, error) {
	m, err := l.loadMeta()
	if err != nil {
		return nil, err
	}
	if m.head == "" {
		return nil, nil
	}
	return []byte(m.head), nil
}

// Tail returns the last node key, or nil for an empty list.
func (l *List) Tail() ([]byte, error) {
	m, err := l.loadMeta()
	if err != nil {
		return nil, err
	}
	if m.tail == "" {
		return nil, nil
	}
	return []byte(m.tail), nil
}

// Contains reports whether key is a node of the list.
func (l *List) Contains(key []byte) (bool, error) {
	if len(key) == 0 {
		return false, ErrEmptyKey
	}
	_, ok, err := l.loadLink(string(key))
	return ok, err
}

// Next returns the node after key, or nil when key is the tail.
func (l *List) Next(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	ln, ok, err := l.loadLink(string(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrKeyNotFound
	}
	if ln.next == "" {
		return nil, nil
	}
	return []byte(ln.next), nil
}

// Prev returns the node before key, or nil when key is the head.
func (l *List) Prev(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	ln, ok, err := l.loadLink(string(key))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrKeyNotFound
	}
	if ln.prev == "" {
		return nil, nil
	}
	return []byte(ln.prev), nil
}

// PushHead links key in as the new head.
func (l *List) PushHead(key []byte) error {
	return l.insert(nil, key)
}

// PushTail links key in as the new tail.
func (l *List) PushTail(key []byte) error {
	m, err := l.loadMeta()
	if err != nil {
		return err
	}
	return l.insertAfter(m, m.tail, string(key))
}

// InsertAfter links key in immediately after anchor. An empty anchor means
// insert at the head. Given a correct anchor this is O(1): three link
// records and the meta record are touched, nothing is traversed.
func (l *List) InsertAfter(anchor, key []byte) error {
	return l.insert(anchor, key)
}

func (l *List) insert(anchor, key []byte) error {
	m, err := l.loadMeta()
	if err != nil {
		return err
	}
	return l.insertAfter(m, string(anchor), string(key))
}

func (l *List) insertAfter(m meta, anchor, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if _, ok, err := l.loadLink(key); err != nil {
		return err
	} else if ok {
		return ErrKeyExists
	}

	var ln link
	if anchor == "" {
		// New head.
		ln.next = m.head
		if m.head != "" {
			headLink, ok, err := l.loadLink(m.head)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("list %X corrupt: head %X has no link", l.name, m.head)
			}
			headLink.prev = key
			if err := l.saveLink(m.head, headLink); err != nil {
				return err
			}
		}
		m.head = key
		if m.tail == "" {
			m.tail = key
		}
	} else {
		anchorLink, ok, err := l.loadLink(anchor)
		if err != nil {
			return err
		}
		if !ok {
			return ErrKeyNotFound
		}
		ln.prev = anchor
		ln.next = anchorLink.next
		anchorLink.next = key
		if err := l.saveLink(anchor, anchorLink); err != nil {
			return err
		}
		if ln.next != "" {
			nextLink, ok, err := l.loadLink(ln.next)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("list %X corrupt: node %X has no link", l.name, ln.next)
			}
			nextLink.prev = key
			if err := l.saveLink(ln.next, nextLink); err != nil {
				return err
			}
		} else {
			m.tail = key
		}
	}

	if err := l.saveLink(key, ln); err != nil {
		return err
	}
	m.size++
	return l.saveMeta(m)
}

// Remove unlinks key from the list. The caller's payload record, if any, is
// untouched; only the link and meta records change. O(1).
func (l *List) Remove(key []byte) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	node := string(key)
	ln, ok, err := l.loadLink(node)
	if err != nil {
		return err
	}
	if !ok {
		return ErrKeyNotFound
	}
	m, err := l.loadMeta()
	if err != nil {
		return err
	}

	if ln.prev != "" {
		prevLink, ok, err := l.loadLink(ln.prev)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("list %X corrupt: node %X has no link", l.name, ln.prev)
		}
		prevLink.next = ln.next
		if err := l.saveLink(ln.prev, prevLink); err != nil {
			return err
		}
	} else {
		m.head = ln.next
	}

	if ln.next != "" {
		nextLink, ok, err := l.loadLink(ln.next)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("list %X corrupt: node %X has no link", l.name, ln.next)
		}
		nextLink.prev = ln.prev
		if err := l.saveLink(ln.next, nextLink); err != nil {
			return err
		}
	} else {
		m.tail = ln.prev
	}

	if err := l.db.Delete(l.linkKey(node)); err != nil {
		return err
	}
	m.size--
	return l.saveMeta(m)
}

// ScanForward walks the list forward calling visit for each node key. An
// empty from starts the walk at the head; otherwise it starts at the node
// after from (from itself is not visited and must be in the list).
//
// Every visited node costs one hop. When maxHops is non-negative and the
// budget runs out while unvisited nodes remain, the scan stops and reports
// exceeded instead of continuing: traversal cost must stay bounded no
// matter how long the list is. A negative maxHops scans without bound.
func (l *List) ScanForward(from []byte, maxHops int, visit func(key []byte) (stop bool, err error)) (exceeded bool, err error) {
	var cur []byte
	if len(from) == 0 {
		cur, err = l.Head()
	} else {
		cur, err = l.Next(from)
	}
	if err != nil {
		return false, err
	}

	hops := 0
	for cur != nil {
		if maxHops >= 0 && hops == maxHops {
			return true, nil
		}
		hops++
		stop, err := visit(cur)
		if err != nil {
			return false, err
		}
		if stop {
			return false, nil
		}
		cur, err = l.Next(cur)
		if err != nil {
			return false, err
		}
	}
	return false, nil
}
