package state

import (
	"fmt"

	"github.com/google/orderedcode"
	dbm "github.com/tendermint/tm-db"
)

// ParamStore holds the dynamic chain parameters the exchange core reads.
// Values are set by governance actuators elsewhere; absent values read as
// the genesis defaults.
type ParamStore struct {
	db dbm.DB
}

func NewParamStore(db dbm.DB) *ParamStore {
	return &ParamStore{db: db}
}

func paramKey(name string) []byte {
	key, err := orderedcode.Append(nil, "param", name)
	if err != nil {
		panic(err)
	}
	return key
}

const marketSellFeeParam = "market_sell_fee"

// MarketSellFee returns the flat native-coin fee charged once per placed
// sell order. The genesis default is 0.
func (s *ParamStore) MarketSellFee() (int64, error) {
	bz, err := s.db.Get(paramKey(marketSellFeeParam))
	if err != nil {
		return 0, err
	}
	if bz == nil {
		return 0, nil
	}
	var fee int64
	remaining, err := orderedcode.Parse(string(bz), &fee)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", marketSellFeeParam, err)
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("decode %s: %d unconsumed bytes", marketSellFeeParam, len(remaining))
	}
	return fee, nil
}

// SetMarketSellFee overwrites the flat order fee.
func (s *ParamStore) SetMarketSellFee(fee int64) error {
	if fee < 0 {
		return fmt.Errorf("negative fee %d", fee)
	}
	bz, err := orderedcode.Append(nil, fee)
	if err != nil {
		return err
	}
	return s.db.Set(paramKey(marketSellFeeParam), bz)
}
