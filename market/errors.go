package market

import (
	"errors"
	"fmt"
)

// MaxSearch bounds the forward hops spent verifying a caller-supplied book
// position hint. Hint verification must cost the same on every validating
// node regardless of book size, so the bound is a protocol constant, not a
// tunable.
const MaxSearch = 10

// Validation failures surfaced verbatim to the order submitter. All are
// terminal: a rejected order is dropped, never retried.
var (
	ErrInvalidAddress      = errors.New("invalid address")
	ErrAccountNotExist     = errors.New("account does not exist")
	ErrQuantityNotPositive = errors.New("asset quantity must be greater than zero")
	ErrSameAsset           = errors.New("cannot exchange an asset for itself")
	ErrUnknownSellAsset    = errors.New("sell asset does not exist")
	ErrUnknownBuyAsset     = errors.New("buy asset does not exist")
	ErrInsufficientBalance = errors.New("balance is not enough")

	ErrPrePriceKeyNotExists       = errors.New("pre price key does not exist")
	ErrPrePriceNotLessThanCurrent = errors.New("pre price must be less than the order price")

	ErrOrderNotFound = errors.New("order does not exist")
)

// MaxSearchExceededError reports a position hint whose true insertion point
// was not reachable within the hop budget.
type MaxSearchExceededError struct {
	Limit int
}

func (e MaxSearchExceededError) Error() string {
	return fmt.Sprintf("maximum number of queries exceeded, %d", e.Limit)
}
