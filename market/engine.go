package market

import (
	"bytes"
	"fmt"

	dbm "github.com/tendermint/tm-db"

	"github.com/emberchain/ember/libs/log"
	"github.com/emberchain/ember/state"
)

// SellRequest is one submitted sell order: offer SellQuantity of SellAsset
// and demand at least the rate BuyQuantity/SellQuantity in BuyAsset.
// PrePriceKey optionally hints where the order's price level belongs in the
// book, bounding the insertion scan.
type SellRequest struct {
	Owner        []byte
	SellAsset    string
	SellQuantity int64
	BuyAsset     string
	BuyQuantity  int64
	PrePriceKey  string
	CreatedAt    int64
}

func (r SellRequest) pair() Pair {
	return Pair{SellAsset: r.SellAsset, BuyAsset: r.BuyAsset}
}

// Receipt reports what Execute did with a request.
type Receipt struct {
	OrderID []byte

	// Remaining is the unsold sell quantity left on the order.
	Remaining int64

	// Resting reports whether the order was left in the book.
	Resting bool
}

// Engine validates and executes sell orders against the book. Requests are
// processed one at a time; Execute either applies a request completely or
// leaves the database untouched.
type Engine struct {
	db     dbm.DB
	logger log.Logger
}

func NewEngine(db dbm.DB, logger log.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Store returns a view over current committed state, for inspection by
// collaborators. Mutations belong to Execute and Cancel, which run on their
// own overlays.
func (e *Engine) Store() *Store {
	return NewStore(e.db)
}

// Validate checks a request against current state without modifying it.
// A nil return means Execute would accept the request right now.
func (e *Engine) Validate(req SellRequest) error {
	return e.validate(NewStore(e.db), req)
}

func (e *Engine) validate(st *Store, req SellRequest) error {
	if len(req.Owner) != state.AddressSize {
		return ErrInvalidAddress
	}
	ok, err := st.Accounts.Exists(req.Owner)
	if err != nil {
		return err
	}
	if !ok {
		return ErrAccountNotExist
	}
	if req.SellQuantity <= 0 || req.BuyQuantity <= 0 {
		return ErrQuantityNotPositive
	}
	if req.SellAsset == req.BuyAsset {
		return ErrSameAsset
	}
	ok, err = st.Assets.Resolvable(req.SellAsset)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownSellAsset
	}
	ok, err = st.Assets.Resolvable(req.BuyAsset)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownBuyAsset
	}

	fee, err := st.Params.MarketSellFee()
	if err != nil {
		return err
	}
	balance, err := st.Accounts.Balance(req.Owner)
	if err != nil {
		return err
	}
	if balance < fee {
		return ErrInsufficientBalance
	}
	if req.SellAsset == state.NativeAsset {
		if balance-fee < req.SellQuantity {
			return ErrInsufficientBalance
		}
	} else {
		holding, err := st.Accounts.Holding(req.Owner, req.SellAsset)
		if err != nil {
			return err
		}
		if holding < req.SellQuantity {
			return ErrInsufficientBalance
		}
	}

	if req.PrePriceKey != "" {
		return st.Book.VerifyHint(req.pair(), req.SellQuantity, req.BuyQuantity, req.PrePriceKey)
	}
	return nil
}

// Execute applies a request: the fee and the offered quantity are taken from
// the owner, the order is matched against the opposite book at maker prices,
// and whatever is left rests as a new resting order. All writes land
// atomically; any error leaves state exactly as it was.
func (e *Engine) Execute(req SellRequest) (*Receipt, error) {
	overlay := state.NewCacheDB(e.db)
	st := NewStore(overlay)

	if err := e.validate(st, req); err != nil {
		return nil, err
	}

	fee, err := st.Params.MarketSellFee()
	if err != nil {
		return nil, err
	}
	if fee > 0 {
		if err := st.Accounts.Debit(req.Owner, state.NativeAsset, fee); err != nil {
			return nil, err
		}
	}
	if err := st.Accounts.Debit(req.Owner, req.SellAsset, req.SellQuantity); err != nil {
		return nil, err
	}

	seq, err := st.Index.Count(req.Owner)
	if err != nil {
		return nil, err
	}
	order := &Order{
		ID:           OrderID(req.Owner, seq, req.SellAsset, req.SellQuantity, req.BuyAsset, req.BuyQuantity, req.CreatedAt),
		Owner:        req.Owner,
		SellAsset:    req.SellAsset,
		SellQuantity: req.SellQuantity,
		BuyAsset:     req.BuyAsset,
		BuyQuantity:  req.BuyQuantity,
		Remaining:    req.SellQuantity,
		State:        OrderActive,
		CreatedAt:    req.CreatedAt,
	}
	if _, err := st.Index.Append(req.Owner, order.ID); err != nil {
		return nil, err
	}

	if err := e.match(st, req, order); err != nil {
		return nil, err
	}

	resting := false
	if order.Remaining > 0 && order.State == OrderActive {
		levelKey, _, err := st.Book.Insert(req.pair(), req.SellQuantity, req.BuyQuantity, req.PrePriceKey)
		if err != nil {
			return nil, err
		}
		if err := st.RestOrder(order, levelKey); err != nil {
			return nil, err
		}
		resting = true
	} else {
		order.State = OrderInactive
		if err := st.Orders.Put(order); err != nil {
			return nil, err
		}
	}

	if err := overlay.Commit(); err != nil {
		return nil, err
	}
	e.logger.Info("order executed",
		"order", fmt.Sprintf("%X", order.ID),
		"pair", req.pair().String(),
		"remaining", order.Remaining,
		"resting", resting)
	return &Receipt{OrderID: order.ID, Remaining: order.Remaining, Resting: resting}, nil
}

// match walks the opposite book from its cheapest level, consuming resting
// orders in time priority while the taker's limit still crosses the level
// price. Trades settle at the maker's level price.
func (e *Engine) match(st *Store, req SellRequest, taker *Order) error {
	opp := req.pair().Opposite()
	for taker.Remaining > 0 && taker.State == OrderActive {
		best, err := st.Book.Best(opp)
		if err != nil {
			return err
		}
		if best == "" {
			return nil
		}
		_, levelSell, levelBuy, err := ParsePairPriceKey(best)
		if err != nil {
			return err
		}
		if !Crosses(req.SellQuantity, req.BuyQuantity, levelSell, levelBuy) {
			return nil
		}
		for taker.Remaining > 0 && taker.State == OrderActive {
			makerID, err := st.Queues.Head(best)
			if err != nil {
				return err
			}
			if makerID == nil {
				break
			}
			maker, err := st.Orders.Get(makerID)
			if err != nil {
				return err
			}
			if err := e.fill(st, taker, maker, levelSell, levelBuy); err != nil {
				return err
			}
		}
	}
	return nil
}

// fill executes one trade between the taker and the maker at the head of the
// maker's level. levelSell/levelBuy is the maker level's price; the maker's
// own quantities may differ when it joined a level created at an equal rate.
func (e *Engine) fill(st *Store, taker, maker *Order, levelSell, levelBuy int64) error {
	// How much the taker's remainder buys at the maker's price, rounded
	// down. Zero means the remainder is dust that no trade at this price
	// can consume; it goes back to the owner and the order retires.
	takerBuyRemain := mulDiv(taker.Remaining, levelSell, levelBuy)
	if takerBuyRemain == 0 {
		refund := taker.Remaining
		if err := st.Accounts.Credit(taker.Owner, taker.SellAsset, refund); err != nil {
			return err
		}
		taker.Remaining = 0
		taker.State = OrderInactive
		e.logger.Debug("order remainder refunded",
			"order", fmt.Sprintf("%X", taker.ID), "amount", refund)
		return nil
	}

	var takerGets, makerGets int64
	if takerBuyRemain < maker.Remaining {
		// Taker is exhausted; the maker absorbs the taker's whole
		// remainder, dust included.
		takerGets = takerBuyRemain
		makerGets = taker.Remaining
		maker.Remaining -= takerBuyRemain
		taker.Remaining = 0
	} else {
		// Maker is exhausted. The taker pays the exact price of the
		// maker's remainder; any shortfall below one unit stays on the
		// taker order for the next round.
		takerGets = maker.Remaining
		makerGets = mulDiv(maker.Remaining, levelBuy, levelSell)
		if makerGets == 0 {
			// Maker-side dust: the remainder prices to nothing even at
			// the maker's own rate, so it goes back to the maker rather
			// than to the taker for free.
			refund := maker.Remaining
			if err := st.Accounts.Credit(maker.Owner, maker.SellAsset, refund); err != nil {
				return err
			}
			maker.Remaining = 0
			e.logger.Debug("order remainder refunded",
				"order", fmt.Sprintf("%X", maker.ID), "amount", refund)
			return st.UnlinkOrder(maker)
		}
		taker.Remaining -= makerGets
		maker.Remaining = 0
	}

	if err := st.Accounts.Credit(taker.Owner, taker.BuyAsset, takerGets); err != nil {
		return err
	}
	if err := st.Accounts.Credit(maker.Owner, maker.BuyAsset, makerGets); err != nil {
		return err
	}

	e.logger.Debug("orders matched",
		"taker", fmt.Sprintf("%X", taker.ID),
		"maker", fmt.Sprintf("%X", maker.ID),
		"taker_gets", takerGets,
		"maker_gets", makerGets)

	if maker.Remaining == 0 {
		return st.UnlinkOrder(maker)
	}
	return st.Orders.Put(maker)
}

// Cancel withdraws an active resting order: the unsold remainder returns to
// the owner and the order retires in place.
func (e *Engine) Cancel(owner, orderID []byte) error {
	overlay := state.NewCacheDB(e.db)
	st := NewStore(overlay)

	order, err := st.Orders.Get(orderID)
	if err != nil {
		return err
	}
	if !bytes.Equal(order.Owner, owner) {
		return ErrOrderNotFound
	}
	if order.State != OrderActive {
		return ErrOrderNotFound
	}

	if order.Remaining > 0 {
		if err := st.Accounts.Credit(order.Owner, order.SellAsset, order.Remaining); err != nil {
			return err
		}
	}
	if err := st.UnlinkOrder(order); err != nil {
		return err
	}
	if err := overlay.Commit(); err != nil {
		return err
	}
	e.logger.Info("order canceled", "order", fmt.Sprintf("%X", orderID))
	return nil
}
