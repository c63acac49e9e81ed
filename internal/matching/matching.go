// Package matching implements the matching engine: given a fresh order
// book, recent trades, and the current simulation state, it produces a
// new state by attempting to fill every pending order. It is grounded on
// the teacher's sweep-while-crossing loop in
// internal/engine/orderbook.go's Match, adapted from matching two live
// order books against each other to matching pending simulated orders
// against one observed book.
package matching

import (
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"simexchange/internal/common"
	"simexchange/internal/pricing"
	"simexchange/internal/store"
)

// Report tallies what a matching cycle did, for the Runner to fold into
// its metrics collector.
type Report struct {
	MarketFilled   map[common.Side]int
	MarketRefunded map[common.Side]int
	LimitFilled    map[common.Side]int
}

func newReport() Report {
	return Report{
		MarketFilled:   map[common.Side]int{},
		MarketRefunded: map[common.Side]int{},
		LimitFilled:    map[common.Side]int{},
	}
}

// Run executes one matching cycle: synthesize the effective book,
// process pending market orders newest-first, then pending limit orders
// newest-first, then advance the watermark. It is a pure function: state
// in, state' out.
func Run(book common.OrderBook, trades []common.Trade, state common.SimState) (common.SimState, Report) {
	report := newReport()
	state = state.Clone()

	watermark := watermarkFor(state)
	effective := effectiveBook(book, trades, watermark)

	store.SortMarketOrdersNewestFirst(state.PendingMarketOrders)
	var remainingMarket []common.PendingMarketOrder
	remainingMarket, state = matchMarketOrders(state.PendingMarketOrders, effective, state, &report)
	state.PendingMarketOrders = remainingMarket

	store.SortLimitOrdersNewestFirst(state.PendingLimitOrders)
	var remainingLimit []common.PendingLimitOrder
	remainingLimit, state = matchLimitOrders(state.PendingLimitOrders, effective, state, &report)
	state.PendingLimitOrders = remainingLimit

	state.UpdatedUtcMs = watermark
	return state, report
}

// watermarkFor computes max(state.UpdatedUtcMs, min(earliestPendingLimitTs,
// earliestPendingMarketTs)), where each list's earliest independently
// falls back to state.UpdatedUtcMs when that list (not both) is empty,
// per spec §4.3 step 1.
func watermarkFor(state common.SimState) int64 {
	earliestLimit := earliestTimestamp(state.PendingLimitOrders, state.UpdatedUtcMs)
	earliestMarket := earliestMarketTimestamp(state.PendingMarketOrders, state.UpdatedUtcMs)

	earliest := earliestLimit
	if earliestMarket < earliest {
		earliest = earliestMarket
	}

	if state.UpdatedUtcMs > earliest {
		return state.UpdatedUtcMs
	}
	return earliest
}

func earliestTimestamp(orders []common.PendingLimitOrder, fallback int64) int64 {
	earliest := fallback
	sawAny := false
	for _, o := range orders {
		if !sawAny || o.TimestampMs < earliest {
			earliest = o.TimestampMs
			sawAny = true
		}
	}
	return earliest
}

func earliestMarketTimestamp(orders []common.PendingMarketOrder, fallback int64) int64 {
	earliest := fallback
	sawAny := false
	for _, o := range orders {
		if !sawAny || o.TimestampMs < earliest {
			earliest = o.TimestampMs
			sawAny = true
		}
	}
	return earliest
}

// effectiveBook filters recentTrades to those strictly after watermark and
// folds them into the book as synthetic depth: BID-side trades become
// additional bid levels, ASK-side trades become additional ask levels.
func effectiveBook(book common.OrderBook, trades []common.Trade, watermark int64) common.OrderBook {
	effective := common.OrderBook{
		Bids: append([]common.OrderBookEntry(nil), book.Bids...),
		Asks: append([]common.OrderBookEntry(nil), book.Asks...),
	}
	for _, trade := range trades {
		if !trade.After(watermark) {
			continue
		}
		entry := common.OrderBookEntry{Price: trade.UnitPrice, Volume: trade.Volume}
		switch trade.Side {
		case common.BID:
			effective.Bids = append(effective.Bids, entry)
		case common.ASK:
			effective.Asks = append(effective.Asks, entry)
		}
	}
	return effective
}

// creditSide adds amount to the balance a side commits: currency for BID,
// commodity for ASK. A fill credits the *opposite* side of the one the
// order originally reserved — what an order gives up on placement is
// what the other side gets back on fill.
func creditSide(state common.SimState, side common.Side, amount decimal.Decimal) common.SimState {
	switch side {
	case common.BID:
		state.CurrencyBalance = state.CurrencyBalance.Add(amount)
	case common.ASK:
		state.CommodityBalance = state.CommodityBalance.Add(amount)
	}
	return state
}

// matchMarketOrders always drains the queue it's given: every market
// order either fills or is refunded this cycle, so the returned slice is
// always empty.
func matchMarketOrders(
	orders []common.PendingMarketOrder,
	book common.OrderBook,
	state common.SimState,
	report *Report,
) ([]common.PendingMarketOrder, common.SimState) {
	for _, order := range orders {
		switch order.Side {
		case common.BID:
			if v, ok := pricing.VolumeBuyableFor(order.Amount, book); ok {
				state = creditSide(state, order.Side.Opposite(), v)
				report.MarketFilled[common.BID]++
			} else {
				state = creditSide(state, order.Side, order.Amount)
				report.MarketRefunded[common.BID]++
				log.Warn().Str("orderId", order.ID).Msg("market buy refunded: book too thin")
			}
		case common.ASK:
			if p, ok := pricing.PriceToSell(order.Amount, book); ok {
				state = creditSide(state, order.Side.Opposite(), p)
				report.MarketFilled[common.ASK]++
			} else {
				state = creditSide(state, order.Side, order.Amount)
				report.MarketRefunded[common.ASK]++
				log.Warn().Str("orderId", order.ID).Msg("market sell refunded: book too thin")
			}
		}
	}
	return nil, state
}

func matchLimitOrders(
	orders []common.PendingLimitOrder,
	book common.OrderBook,
	state common.SimState,
	report *Report,
) ([]common.PendingLimitOrder, common.SimState) {
	remaining := make([]common.PendingLimitOrder, 0, len(orders))
	for _, order := range orders {
		switch order.Side {
		case common.BID:
			maxCost := order.Volume.Mul(order.UnitPrice)
			cost, ok := pricing.PriceToBuy(order.Volume, book)
			if ok && cost.LessThanOrEqual(maxCost) {
				state = creditSide(state, order.Side.Opposite(), order.Volume)
				state = creditSide(state, order.Side, maxCost.Sub(cost))
				report.LimitFilled[common.BID]++
				continue
			}
			remaining = append(remaining, order)
		case common.ASK:
			minProceeds := order.Volume.Mul(order.UnitPrice)
			proceeds, ok := pricing.PriceToSell(order.Volume, book)
			if ok && proceeds.GreaterThanOrEqual(minProceeds) {
				state = creditSide(state, order.Side.Opposite(), proceeds)
				report.LimitFilled[common.ASK]++
				continue
			}
			remaining = append(remaining, order)
		}
	}
	return remaining, state
}
