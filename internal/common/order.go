package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OrderBookEntry is a single price level observed on the live book.
type OrderBookEntry struct {
	Price  decimal.Decimal
	Volume decimal.Decimal
}

// OrderBook is the live book pulled from the wrapped exchange. Order
// within each side is arbitrary at ingress; the pricing calculator sorts
// on demand.
type OrderBook struct {
	Bids []OrderBookEntry
	Asks []OrderBookEntry
}

// PendingLimitOrder rests until it fills or is cancelled.
type PendingLimitOrder struct {
	ID          string
	Side        Side
	TimestampMs int64
	Volume      decimal.Decimal // commodity units
	UnitPrice   decimal.Decimal // currency per unit commodity
}

// PendingMarketOrder executes at whatever price the book offers, or is
// refunded if the book can't absorb it. Amount is currency to spend for a
// BID, commodity to sell for an ASK.
type PendingMarketOrder struct {
	ID          string
	Side        Side
	TimestampMs int64
	Amount      decimal.Decimal
}

// Order is the public projection of a PendingLimitOrder returned by
// OpenOrders.
type Order struct {
	ID          string
	Side        Side
	TimestampMs int64
	Volume      decimal.Decimal
	UnitPrice   decimal.Decimal
}

// OrderFromPendingLimit projects a PendingLimitOrder into its public view.
func OrderFromPendingLimit(o PendingLimitOrder) Order {
	return Order{
		ID:          o.ID,
		Side:        o.Side,
		TimestampMs: o.TimestampMs,
		Volume:      o.Volume,
		UnitPrice:   o.UnitPrice,
	}
}

func (o PendingLimitOrder) String() string {
	return fmt.Sprintf("LimitOrder{id=%s side=%s volume=%s unitPrice=%s ts=%d}",
		o.ID, o.Side, o.Volume, o.UnitPrice, o.TimestampMs)
}

func (o PendingMarketOrder) String() string {
	return fmt.Sprintf("MarketOrder{id=%s side=%s amount=%s ts=%d}",
		o.ID, o.Side, o.Amount, o.TimestampMs)
}

// Balances is the virtual currency/commodity endowment of a SimState.
type Balances struct {
	Currency  decimal.Decimal
	Commodity decimal.Decimal
}
