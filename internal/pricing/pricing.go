// Package pricing holds the pure, stateless sweep functions that price a
// requested volume or cash amount against a live order book snapshot. No
// component in this package holds state or calls into the store.
package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"simexchange/internal/common"
)

// aggregateByPrice merges entries that share a price (e.g. a synthetic
// trade-derived level landing on an existing book level) into a single
// level, since the btree keys levels by price alone and a bare Set would
// otherwise let one level's volume clobber another's.
func aggregateByPrice(entries []common.OrderBookEntry) []common.OrderBookEntry {
	byPrice := make(map[string]common.OrderBookEntry, len(entries))
	order := make([]string, 0, len(entries))
	for _, e := range entries {
		key := e.Price.String()
		if existing, ok := byPrice[key]; ok {
			existing.Volume = existing.Volume.Add(e.Volume)
			byPrice[key] = existing
			continue
		}
		byPrice[key] = e
		order = append(order, key)
	}
	merged := make([]common.OrderBookEntry, 0, len(order))
	for _, key := range order {
		merged = append(merged, byPrice[key])
	}
	return merged
}

// sortedAsks builds a btree of ask levels ordered ascending by price,
// mirroring the comparator style the teacher's order book levels use for
// bid/ask ordering (lowest ask first).
func sortedAsks(entries []common.OrderBookEntry) *btree.BTreeG[common.OrderBookEntry] {
	tr := btree.NewBTreeG(func(a, b common.OrderBookEntry) bool {
		return a.Price.LessThan(b.Price)
	})
	for _, e := range aggregateByPrice(entries) {
		tr.Set(e)
	}
	return tr
}

// sortedBidsDesc builds a btree of bid levels ordered descending by price
// (highest bid first).
func sortedBidsDesc(entries []common.OrderBookEntry) *btree.BTreeG[common.OrderBookEntry] {
	tr := btree.NewBTreeG(func(a, b common.OrderBookEntry) bool {
		return a.Price.GreaterThan(b.Price)
	})
	for _, e := range aggregateByPrice(entries) {
		tr.Set(e)
	}
	return tr
}

// PriceToBuy sweeps the ask side ascending by price, consuming up to
// volume commodity units, and returns the total currency cost. Returns
// false if the book is too thin to fill the full volume.
func PriceToBuy(volume decimal.Decimal, book common.OrderBook) (decimal.Decimal, bool) {
	remaining := volume
	total := decimal.Zero

	if remaining.Sign() == 0 {
		return decimal.Zero, true
	}

	sortedAsks(book.Asks).Scan(func(level common.OrderBookEntry) bool {
		if remaining.Sign() <= 0 || level.Volume.Sign() <= 0 {
			return true
		}
		consumed := decimal.Min(remaining, level.Volume)
		total = total.Add(consumed.Mul(level.Price))
		remaining = remaining.Sub(consumed)
		return true
	})
	return total, remaining.Sign() <= 0
}

// PriceToSell sweeps the bid side descending by price, consuming up to
// volume commodity units, and returns the total currency proceeds.
// Returns false if the book is too thin to fill the full volume.
func PriceToSell(volume decimal.Decimal, book common.OrderBook) (decimal.Decimal, bool) {
	remaining := volume
	total := decimal.Zero

	if remaining.Sign() == 0 {
		return decimal.Zero, true
	}

	sortedBidsDesc(book.Bids).Scan(func(level common.OrderBookEntry) bool {
		if remaining.Sign() <= 0 || level.Volume.Sign() <= 0 {
			return true
		}
		consumed := decimal.Min(remaining, level.Volume)
		total = total.Add(consumed.Mul(level.Price))
		remaining = remaining.Sub(consumed)
		return true
	})
	return total, remaining.Sign() <= 0
}

// VolumeBuyableFor sweeps the ask side ascending by price, spending up to
// amount currency, and returns the total commodity volume bought. Returns
// false if the book is too thin to absorb the full amount.
func VolumeBuyableFor(amount decimal.Decimal, book common.OrderBook) (decimal.Decimal, bool) {
	remaining := amount
	total := decimal.Zero

	if remaining.Sign() == 0 {
		return decimal.Zero, true
	}

	sortedAsks(book.Asks).Scan(func(level common.OrderBookEntry) bool {
		if remaining.Sign() <= 0 || level.Volume.Sign() <= 0 || level.Price.Sign() <= 0 {
			return true
		}
		levelCost := level.Price.Mul(level.Volume)
		paid := decimal.Min(remaining, levelCost)
		total = total.Add(paid.Div(level.Price))
		remaining = remaining.Sub(paid)
		return true
	})
	return total, remaining.Sign() <= 0
}
