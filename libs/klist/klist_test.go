package klist_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/emberchain/ember/libs/klist"
)

func collect(t *testing.T, l *klist.List) []string {
	t.Helper()
	var keys []string
	exceeded, err := l.ScanForward(nil, -1, func(key []byte) (bool, error) {
		keys = append(keys, string(key))
		return false, nil
	})
	require.NoError(t, err)
	require.False(t, exceeded)
	return keys
}

func TestListEmpty(t *testing.T) {
	l := klist.New(dbm.NewMemDB(), []byte("test"))

	size, err := l.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	head, err := l.Head()
	require.NoError(t, err)
	assert.Nil(t, head)

	tail, err := l.Tail()
	require.NoError(t, err)
	assert.Nil(t, tail)

	ok, err := l.Contains([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListPushOrder(t *testing.T) {
	l := klist.New(dbm.NewMemDB(), []byte("test"))

	require.NoError(t, l.PushTail([]byte("b")))
	require.NoError(t, l.PushTail([]byte("c")))
	require.NoError(t, l.PushHead([]byte("a")))

	assert.Equal(t, []string{"a", "b", "c"}, collect(t, l))

	size, err := l.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 3, size)

	head, err := l.Head()
	require.NoError(t, err)
	assert.Equal(t, "a", string(head))

	tail, err := l.Tail()
	require.NoError(t, err)
	assert.Equal(t, "c", string(tail))
}

func TestListInsertAfter(t *testing.T) {
	l := klist.New(dbm.NewMemDB(), []byte("test"))

	require.NoError(t, l.PushTail([]byte("a")))
	require.NoError(t, l.PushTail([]byte("c")))

	require.NoError(t, l.InsertAfter([]byte("a"), []byte("b")))
	assert.Equal(t, []string{"a", "b", "c"}, collect(t, l))

	// empty anchor inserts at the head
	require.NoError(t, l.InsertAfter(nil, []byte("0")))
	assert.Equal(t, []string{"0", "a", "b", "c"}, collect(t, l))

	// after the tail
	require.NoError(t, l.InsertAfter([]byte("c"), []byte("d")))
	assert.Equal(t, []string{"0", "a", "b", "c", "d"}, collect(t, l))
}

func TestListInsertErrors(t *testing.T) {
	l := klist.New(dbm.NewMemDB(), []byte("test"))

	require.NoError(t, l.PushTail([]byte("a")))

	err := l.PushTail([]byte("a"))
	assert.ErrorIs(t, err, klist.ErrKeyExists)

	err = l.InsertAfter([]byte("missing"), []byte("b"))
	assert.ErrorIs(t, err, klist.ErrKeyNotFound)

	err = l.PushTail(nil)
	assert.ErrorIs(t, err, klist.ErrEmptyKey)
}

func TestListNextPrev(t *testing.T) {
	l := klist.New(dbm.NewMemDB(), []byte("test"))

	require.NoError(t, l.PushTail([]byte("a")))
	require.NoError(t, l.PushTail([]byte("b")))

	next, err := l.Next([]byte("a"))
	require.NoError(t, err)
	assert.Equal(t, "b", string(next))

	next, err = l.Next([]byte("b"))
	require.NoError(t, err)
	assert.Nil(t, next)

	prev, err := l.Prev([]byte("b"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(prev))

	prev, err = l.Prev([]byte("a"))
	require.NoError(t, err)
	assert.Nil(t, prev)

	_, err = l.Next([]byte("zz"))
	assert.ErrorIs(t, err, klist.ErrKeyNotFound)
}

func TestListRemove(t *testing.T) {
	l := klist.New(dbm.NewMemDB(), []byte("test"))

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, l.PushTail([]byte(k)))
	}

	// middle
	require.NoError(t, l.Remove([]byte("b")))
	assert.Equal(t, []string{"a", "c", "d"}, collect(t, l))

	// head
	require.NoError(t, l.Remove([]byte("a")))
	assert.Equal(t, []string{"c", "d"}, collect(t, l))

	// tail
	require.NoError(t, l.Remove([]byte("d")))
	assert.Equal(t, []string{"c"}, collect(t, l))

	// last node
	require.NoError(t, l.Remove([]byte("c")))
	assert.Empty(t, collect(t, l))

	size, err := l.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 0, size)

	err = l.Remove([]byte("c"))
	assert.ErrorIs(t, err, klist.ErrKeyNotFound)

	// the emptied list is still usable
	require.NoError(t, l.PushTail([]byte("x")))
	assert.Equal(t, []string{"x"}, collect(t, l))
}

func TestListScanForward(t *testing.T) {
	l := klist.New(dbm.NewMemDB(), []byte("test"))
	for i := 0; i < 5; i++ {
		require.NoError(t, l.PushTail([]byte(fmt.Sprintf("k%d", i))))
	}

	t.Run("FromNode", func(t *testing.T) {
		var keys []string
		exceeded, err := l.ScanForward([]byte("k1"), -1, func(key []byte) (bool, error) {
			keys = append(keys, string(key))
			return false, nil
		})
		require.NoError(t, err)
		assert.False(t, exceeded)
		assert.Equal(t, []string{"k2", "k3", "k4"}, keys)
	})

	t.Run("Stop", func(t *testing.T) {
		var keys []string
		exceeded, err := l.ScanForward(nil, -1, func(key []byte) (bool, error) {
			keys = append(keys, string(key))
			return string(key) == "k2", nil
		})
		require.NoError(t, err)
		assert.False(t, exceeded)
		assert.Equal(t, []string{"k0", "k1", "k2"}, keys)
	})

	t.Run("BudgetExceeded", func(t *testing.T) {
		var visited int
		exceeded, err := l.ScanForward(nil, 3, func(key []byte) (bool, error) {
			visited++
			return false, nil
		})
		require.NoError(t, err)
		assert.True(t, exceeded)
		assert.Equal(t, 3, visited)
	})

	t.Run("BudgetExact", func(t *testing.T) {
		// visiting every node within budget does not exceed
		exceeded, err := l.ScanForward(nil, 5, func(key []byte) (bool, error) {
			return false, nil
		})
		require.NoError(t, err)
		assert.False(t, exceeded)
	})

	t.Run("StopOnLastHop", func(t *testing.T) {
		exceeded, err := l.ScanForward(nil, 3, func(key []byte) (bool, error) {
			return string(key) == "k2", nil
		})
		require.NoError(t, err)
		assert.False(t, exceeded)
	})
}

func TestListsIndependent(t *testing.T) {
	db := dbm.NewMemDB()
	l1 := klist.New(db, []byte("one"))
	l2 := klist.New(db, []byte("two"))

	require.NoError(t, l1.PushTail([]byte("a")))
	require.NoError(t, l2.PushTail([]byte("b")))

	assert.Equal(t, []string{"a"}, collect(t, l1))
	assert.Equal(t, []string{"b"}, collect(t, l2))

	ok, err := l2.Contains([]byte("a"))
	require.NoError(t, err)
	assert.False(t, ok)
}
