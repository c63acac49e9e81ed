package common

import "github.com/shopspring/decimal"

// SimState is the central aggregate of the simulation: balances, pending
// orders, the id generator watermark, and the last matching-cycle
// watermark. It is the sole source of truth — see internal/store for the
// serializing primitive that guards it.
type SimState struct {
	IDGen               uint64
	UpdatedUtcMs        int64
	CurrencyBalance     decimal.Decimal
	CommodityBalance    decimal.Decimal
	PendingLimitOrders  []PendingLimitOrder
	PendingMarketOrders []PendingMarketOrder
}

// Balances projects the current currency/commodity endowment.
func (s SimState) Balances() Balances {
	return Balances{Currency: s.CurrencyBalance, Commodity: s.CommodityBalance}
}

// OpenOrders projects the pending limit orders into their public view.
func (s SimState) OpenOrders() []Order {
	orders := make([]Order, len(s.PendingLimitOrders))
	for i, o := range s.PendingLimitOrders {
		orders[i] = OrderFromPendingLimit(o)
	}
	return orders
}

// Clone returns a deep-enough copy for a pure transformer to mutate
// without aliasing the slices backing the receiver's pending orders.
func (s SimState) Clone() SimState {
	next := s
	next.PendingLimitOrders = append([]PendingLimitOrder(nil), s.PendingLimitOrders...)
	next.PendingMarketOrders = append([]PendingMarketOrder(nil), s.PendingMarketOrders...)
	return next
}
