package state

import (
	"errors"
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"
)

var (
	ErrAssetNotFound = errors.New("asset does not exist")
	ErrAssetExists   = errors.New("asset already registered")
)

// Asset is an issued token known to the ledger.
type Asset struct {
	ID   string
	Name string
}

// AssetRegistry records the assets issued on the ledger. The native coin is
// not an entry here; its sentinel identifier is resolvable by definition.
type AssetRegistry struct {
	db dbm.DB
}

func NewAssetRegistry(db dbm.DB) *AssetRegistry {
	return &AssetRegistry{db: db}
}

func assetKey(id string) []byte {
	key, err := orderedcode.Append(nil, "asset", id)
	if err != nil {
		panic(err)
	}
	return key
}

// Register adds an issued asset.
func (r *AssetRegistry) Register(asset Asset) error {
	if asset.ID == "" || asset.ID == NativeAsset {
		return fmt.Errorf("invalid asset id %q", asset.ID)
	}
	ok, err := r.db.Has(assetKey(asset.ID))
	if err != nil {
		return err
	}
	if ok {
		return ErrAssetExists
	}
	bz, err := orderedcode.Append(nil, asset.ID, asset.Name)
	if err != nil {
		return err
	}
	return r.db.Set(assetKey(asset.ID), bz)
}

// Get returns a registered asset.
func (r *AssetRegistry) Get(id string) (Asset, error) {
	bz, err := r.db.Get(assetKey(id))
	if err != nil {
		return Asset{}, err
	}
	if bz == nil {
		return Asset{}, ErrAssetNotFound
	}
	var asset Asset
	remaining, err := orderedcode.Parse(string(bz), &asset.ID, &asset.Name)
	if err != nil {
		return Asset{}, fmt.Errorf("decode asset %q: %w", id, err)
	}
	if len(remaining) != 0 {
		return Asset{}, fmt.Errorf("decode asset %q: %d unconsumed bytes", id, len(remaining))
	}
	return asset, nil
}

// Resolvable reports whether id names the native coin or a registered
// asset.
func (r *AssetRegistry) Resolvable(id string) (bool, error) {
	if id == NativeAsset {
		return true, nil
	}
	if id == "" {
		return false, nil
	}
	return r.db.Has(assetKey(id))
}
