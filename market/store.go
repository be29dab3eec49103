package market

import (
	dbm "github.com/tendermint/tm-db"

	"github.com/emberchain/ember/state"
)

// Key space partitions. Every component lives under its own single-byte
// prefix so that the stores can share one backing database without key
// collisions.
var (
	prefixAccounts = []byte{0x00}
	prefixAssets   = []byte{0x01}
	prefixParams   = []byte{0x02}
	prefixOrders   = []byte{0x03}
	prefixBook     = []byte{0x04}
	prefixQueues   = []byte{0x05}
	prefixIndex    = []byte{0x06}
)

// Store bundles every persistent collaborator of the matching engine over a
// single backing database. Pointing it at a write-buffered database gives
// all-or-nothing transaction semantics without any coordination here.
type Store struct {
	Accounts *state.AccountStore
	Assets   *state.AssetRegistry
	Params   *state.ParamStore
	Orders   *OrderStore
	Book     *PriceBook
	Queues   *OrderQueue
	Index    *OrderIndex
}

func NewStore(db dbm.DB) *Store {
	return &Store{
		Accounts: state.NewAccountStore(dbm.NewPrefixDB(db, prefixAccounts)),
		Assets:   state.NewAssetRegistry(dbm.NewPrefixDB(db, prefixAssets)),
		Params:   state.NewParamStore(dbm.NewPrefixDB(db, prefixParams)),
		Orders:   NewOrderStore(dbm.NewPrefixDB(db, prefixOrders)),
		Book:     NewPriceBook(dbm.NewPrefixDB(db, prefixBook)),
		Queues:   NewOrderQueue(dbm.NewPrefixDB(db, prefixQueues)),
		Index:    NewOrderIndex(dbm.NewPrefixDB(db, prefixIndex)),
	}
}

// RestOrder queues an active order under levelKey and stamps the level on
// the order record.
func (s *Store) RestOrder(o *Order, levelKey string) error {
	if err := s.Queues.Push(levelKey, o.ID); err != nil {
		return err
	}
	o.LevelKey = levelKey
	return s.Orders.Put(o)
}

// UnlinkOrder takes an active order out of its book: the order leaves its
// level's queue, the level itself is dropped once empty, and the order is
// retired as inactive. The order record stays addressable by id.
func (s *Store) UnlinkOrder(o *Order) error {
	if o.LevelKey != "" {
		if err := s.Queues.Remove(o.LevelKey, o.ID); err != nil {
			return err
		}
		n, err := s.Queues.Size(o.LevelKey)
		if err != nil {
			return err
		}
		if n == 0 {
			pair, _, _, err := ParsePairPriceKey(o.LevelKey)
			if err != nil {
				return err
			}
			if err := s.Book.RemoveLevel(pair, o.LevelKey); err != nil {
				return err
			}
		}
	}
	o.LevelKey = ""
	o.State = OrderInactive
	return s.Orders.Put(o)
}
