// Package exchange defines the capability interfaces the simulation core
// consumes from a wrapped real exchange client, and the Spot capability
// the core itself implements. This is the "polymorphism over venue" shape
// spec §9 describes, modeled on the teacher's own narrow Engine interface
// in internal/net/server.go (a server that only needs PlaceOrder/
// CancelOrder/LogBook from whatever concrete engine backs it).
package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"simexchange/internal/common"
)

// Ticker is the venue-agnostic snapshot forwarded unchanged by the
// Trading Facade's ticker() pass-through.
type Ticker struct {
	LastPrice   decimal.Decimal
	BidPrice    decimal.Decimal
	AskPrice    decimal.Decimal
	TimestampMs int64
}

// Candle is one OHLCV bar, forwarded unchanged by candles().
type Candle struct {
	OpenTimeMs int64
	Open       decimal.Decimal
	High       decimal.Decimal
	Low        decimal.Decimal
	Close      decimal.Decimal
	Volume     decimal.Decimal
}

// TickerSource is the optional capability to fetch a ticker snapshot.
type TickerSource interface {
	Ticker(ctx context.Context) (Ticker, error)
}

// CandleSource is the optional capability to fetch OHLCV candles.
type CandleSource interface {
	Candles(ctx context.Context, interval string) ([]Candle, error)
}

// BookSource is the capability the matching engine depends on: fetch the
// current live order book.
type BookSource interface {
	OrderBook(ctx context.Context) (common.OrderBook, error)
}

// TradeSource is the capability the matching engine depends on: fetch
// recent trade history.
type TradeSource interface {
	TradeHistory(ctx context.Context) ([]common.Trade, error)
}

// Exchange is everything the Simulation Runner and the Trading Facade's
// pass-through operations need from the wrapped venue client.
type Exchange interface {
	TickerSource
	CandleSource
	BookSource
	TradeSource
}

// Spot is the trading capability the simulation core itself provides,
// overriding what a real venue's spot-trading endpoints would do.
type Spot interface {
	Balances() common.Balances
	OpenOrders() []common.Order
	PlaceLimitOrder(side common.Side, volume, unitPrice decimal.Decimal) (string, error)
	PlaceMarketOrder(side common.Side, amount decimal.Decimal) (string, error)
	CancelOrder(id string)
}
