// Package memory provides a goroutine-safe, in-memory Exchange used by
// the Runner's and Facade's own tests. It stands in for the "original
// distilled-away" paper-trading adapter: a venue that never leaves the
// process. Real venue wire clients stay out of scope per spec §1.
package memory

import (
	"context"
	"sync"

	"simexchange/internal/common"
	"simexchange/internal/exchange"
)

// MemoryExchange holds a settable book, trade history, ticker, and
// candles behind a mutex so concurrent Runner cycles and test setters
// don't race.
type MemoryExchange struct {
	mu      sync.Mutex
	book    common.OrderBook
	trades  []common.Trade
	ticker  exchange.Ticker
	candles []exchange.Candle
	failing bool
}

var _ exchange.Exchange = (*MemoryExchange)(nil)

// New returns an empty MemoryExchange.
func New() *MemoryExchange {
	return &MemoryExchange{}
}

// SetOrderBook replaces the book returned by OrderBook.
func (m *MemoryExchange) SetOrderBook(book common.OrderBook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.book = book
}

// SetTrades replaces the trade history returned by TradeHistory.
func (m *MemoryExchange) SetTrades(trades []common.Trade) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trades = trades
}

// SetTicker replaces the snapshot returned by Ticker.
func (m *MemoryExchange) SetTicker(t exchange.Ticker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticker = t
}

// SetCandles replaces the bars returned by Candles.
func (m *MemoryExchange) SetCandles(candles []exchange.Candle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candles = candles
}

// SetFailing makes every subsequent call return an error, simulating an
// upstream outage for Runner/Facade error-path tests.
func (m *MemoryExchange) SetFailing(failing bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing = failing
}

var errUpstreamDown = &upstreamDownError{}

type upstreamDownError struct{}

func (e *upstreamDownError) Error() string { return "memory exchange: simulated upstream outage" }

func (m *MemoryExchange) OrderBook(ctx context.Context) (common.OrderBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return common.OrderBook{}, errUpstreamDown
	}
	return m.book, nil
}

func (m *MemoryExchange) TradeHistory(ctx context.Context) ([]common.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errUpstreamDown
	}
	return append([]common.Trade(nil), m.trades...), nil
}

func (m *MemoryExchange) Ticker(ctx context.Context) (exchange.Ticker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return exchange.Ticker{}, errUpstreamDown
	}
	return m.ticker, nil
}

func (m *MemoryExchange) Candles(ctx context.Context, interval string) ([]exchange.Candle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return nil, errUpstreamDown
	}
	return append([]exchange.Candle(nil), m.candles...), nil
}
