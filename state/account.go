package state

import (
	"errors"
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"
)

const (
	// AddressSize is the length in bytes of a well-formed account address.
	AddressSize = 20

	// NativeAsset is the sentinel asset identifier of the ledger's native
	// coin. It is always resolvable and never appears in the registry.
	NativeAsset = "_"
)

var (
	ErrAccountNotFound   = errors.New("account does not exist")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// AccountStore keeps native-coin balances and per-asset holdings. Give it a
// prefixed partition of the node's database; it owns every key inside it.
type AccountStore struct {
	db dbm.DB
}

func NewAccountStore(db dbm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func accountKey(addr []byte) []byte {
	key, err := orderedcode.Append(nil, "acct", string(addr))
	if err != nil {
		panic(err)
	}
	return key
}

func holdingKey(addr []byte, asset string) []byte {
	key, err := orderedcode.Append(nil, "hold", string(addr), asset)
	if err != nil {
		panic(err)
	}
	return key
}

func encodeAmount(amount int64) []byte {
	bz, err := orderedcode.Append(nil, amount)
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeAmount(bz []byte) (int64, error) {
	var amount int64
	remaining, err := orderedcode.Parse(string(bz), &amount)
	if err != nil {
		return 0, fmt.Errorf("decode amount: %w", err)
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("decode amount: %d unconsumed bytes", len(remaining))
	}
	return amount, nil
}

// Create makes addr known with the given starting balance. Creating an
// existing account overwrites its balance; the ledger's account actuator
// guards against that upstream.
func (s *AccountStore) Create(addr []byte, balance int64) error {
	return s.db.Set(accountKey(addr), encodeAmount(balance))
}

// Exists reports whether addr has an account record.
func (s *AccountStore) Exists(addr []byte) (bool, error) {
	return s.db.Has(accountKey(addr))
}

// Balance returns the native-coin balance of addr.
func (s *AccountStore) Balance(addr []byte) (int64, error) {
	bz, err := s.db.Get(accountKey(addr))
	if err != nil {
		return 0, err
	}
	if bz == nil {
		return 0, ErrAccountNotFound
	}
	return decodeAmount(bz)
}

// Holding returns how much of asset addr holds. Unknown holdings read as 0.
func (s *AccountStore) Holding(addr []byte, asset string) (int64, error) {
	bz, err := s.db.Get(holdingKey(addr, asset))
	if err != nil {
		return 0, err
	}
	if bz == nil {
		return 0, nil
	}
	return decodeAmount(bz)
}

// Credit adds amount of asset to addr. The native sentinel routes to the
// balance.
func (s *AccountStore) Credit(addr []byte, asset string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit of negative amount %d", amount)
	}
	if asset == NativeAsset {
		balance, err := s.Balance(addr)
		if err != nil {
			return err
		}
		return s.db.Set(accountKey(addr), encodeAmount(balance+amount))
	}
	held, err := s.Holding(addr, asset)
	if err != nil {
		return err
	}
	return s.db.Set(holdingKey(addr, asset), encodeAmount(held+amount))
}

// Debit removes amount of asset from addr, failing with
// ErrInsufficientFunds rather than going negative.
func (s *AccountStore) Debit(addr []byte, asset string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("debit of negative amount %d", amount)
	}
	if asset == NativeAsset {
		balance, err := s.Balance(addr)
		if err != nil {
			return err
		}
		if balance < amount {
			return ErrInsufficientFunds
		}
		return s.db.Set(accountKey(addr), encodeAmount(balance-amount))
	}
	held, err := s.Holding(addr, asset)
	if err != nil {
		return err
	}
	if held < amount {
		return ErrInsufficientFunds
	}
	return s.db.Set(holdingKey(addr, asset), encodeAmount(held-amount))
}
