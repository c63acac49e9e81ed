// Package simexchange is the Trading Facade: the single entry point an
// external collaborator uses to run a simulation against a wrapped real
// exchange client. It is grounded on the teacher's own top-level package
// (module fenrir's cmd/main.go wiring an engine into a server) collapsed
// into one constructor that owns the store and the background runner
// instead of wiring a separate TCP listener, since this repo's external
// surface is a Go API rather than a wire protocol.
package simexchange

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"simexchange/internal/common"
	"simexchange/internal/exchange"
	"simexchange/internal/runner"
	"simexchange/internal/simmetrics"
	"simexchange/internal/store"
)

// InsufficientBalance is returned by PlaceLimitOrder/PlaceMarketOrder when
// the committed side doesn't have enough balance to reserve the order.
// Required and Available let a caller log or retry with the exact
// shortfall, a detail present in the original implementation's error path
// that spec.md's distillation dropped.
type InsufficientBalance struct {
	Side      common.Side
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalance) Error() string {
	return fmt.Sprintf("insufficient balance: need %s on %s side, have %s",
		e.Required, e.Side, e.Available)
}

// UpstreamError wraps a failure returned by the wrapped Exchange so
// callers can errors.Is/errors.As through to the underlying cause.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("simexchange: upstream %s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Config carries everything NewSim needs: the starting virtual balances,
// the wrapped venue client, how often the Runner should attempt a
// matching cycle, and an optional metrics Collector. Metrics is nil-safe;
// leaving it unset simply means the Sim doesn't export Prometheus
// metrics, matching the teacher's own "no forced global" stance.
type Config struct {
	CurrencyBalance  decimal.Decimal
	CommodityBalance decimal.Decimal
	Exchange         exchange.Exchange
	CycleDelay       time.Duration
	Metrics          *simmetrics.Collector
}

var errNilExchange = errors.New("simexchange: Config.Exchange must not be nil")

// Sim is a running simulation: a Store of virtual balances and pending
// orders, a Runner driving matching cycles against Config.Exchange in the
// background, and pass-throughs to the wrapped venue's market data.
type Sim struct {
	store    *store.Store
	exchange exchange.Exchange
	runner   *runner.Runner
}

var _ exchange.Exchange = (*Sim)(nil)
var _ exchange.Spot = (*Sim)(nil)

// NewSim builds a Sim from cfg and starts its background Runner under
// ctx. Call Close to stop the Runner; cancelling ctx has the same effect.
func NewSim(ctx context.Context, cfg Config) (*Sim, error) {
	if cfg.Exchange == nil {
		return nil, errNilExchange
	}
	cycleDelay := cfg.CycleDelay
	if cycleDelay <= 0 {
		cycleDelay = time.Second
	}

	st := store.New(cfg.CurrencyBalance, cfg.CommodityBalance)
	r := runner.New(st, cfg.Exchange, cfg.Metrics, cycleDelay)
	r.Start(ctx)

	return &Sim{
		store:    st,
		exchange: cfg.Exchange,
		runner:   r,
	}, nil
}

// Close stops the background Runner and blocks until its loop has exited.
func (s *Sim) Close() error {
	return s.runner.Stop()
}

// Balances returns the current virtual currency/commodity endowment.
func (s *Sim) Balances() common.Balances {
	return s.store.Snapshot().Balances()
}

// OpenOrders returns the public view of every currently pending limit
// order. Market orders never rest, so they have no public view.
func (s *Sim) OpenOrders() []common.Order {
	return s.store.Snapshot().OpenOrders()
}

// PlaceLimitOrder reserves volume*unitPrice (a BID) or volume (an ASK)
// from the committed side's balance and enqueues the order. It returns
// the minted order id, or an *InsufficientBalance error if the reserved
// side can't cover it.
func (s *Sim) PlaceLimitOrder(side common.Side, volume, unitPrice decimal.Decimal) (string, error) {
	id := s.store.NewID()
	order := common.PendingLimitOrder{
		ID:          id,
		Side:        side,
		TimestampMs: time.Now().UnixMilli(),
		Volume:      volume,
		UnitPrice:   unitPrice,
	}
	if ok := s.store.AddLimitOrder(order); !ok {
		required := volume.Mul(unitPrice)
		if side == common.ASK {
			required = volume
		}
		return "", s.insufficientBalanceFor(side, required)
	}
	return id, nil
}

// PlaceMarketOrder reserves amount (currency for a BID, commodity for an
// ASK) from the committed side's balance and enqueues the order for the
// next matching cycle.
func (s *Sim) PlaceMarketOrder(side common.Side, amount decimal.Decimal) (string, error) {
	id := s.store.NewID()
	order := common.PendingMarketOrder{
		ID:          id,
		Side:        side,
		TimestampMs: time.Now().UnixMilli(),
		Amount:      amount,
	}
	if ok := s.store.AddMarketOrder(order); !ok {
		return "", s.insufficientBalanceFor(side, amount)
	}
	return id, nil
}

// insufficientBalanceFor builds an InsufficientBalance against the
// balance actually committed by the given side, so callers see an
// accurate shortfall regardless of whether required was a currency cost
// (BID limit order) or a raw amount (market order, ASK limit order).
func (s *Sim) insufficientBalanceFor(side common.Side, required decimal.Decimal) error {
	balances := s.store.Snapshot().Balances()
	available := balances.Currency
	if side == common.ASK {
		available = balances.Commodity
	}
	return &InsufficientBalance{Side: side, Required: required, Available: available}
}

// CancelOrder removes the pending limit order with the given id and
// refunds its reservation. Cancelling an unknown id, or a market order's
// id, is a silent no-op, per spec.
func (s *Sim) CancelOrder(id string) {
	s.store.CancelLimitOrder(id)
}

// Ticker passes through to the wrapped Exchange, wrapping any failure in
// an *UpstreamError.
func (s *Sim) Ticker(ctx context.Context) (exchange.Ticker, error) {
	t, err := s.exchange.Ticker(ctx)
	if err != nil {
		return exchange.Ticker{}, &UpstreamError{Op: "ticker", Err: err}
	}
	return t, nil
}

// Candles passes through to the wrapped Exchange, wrapping any failure in
// an *UpstreamError.
func (s *Sim) Candles(ctx context.Context, interval string) ([]exchange.Candle, error) {
	c, err := s.exchange.Candles(ctx, interval)
	if err != nil {
		return nil, &UpstreamError{Op: "candles", Err: err}
	}
	return c, nil
}

// OrderBook passes through to the wrapped Exchange, wrapping any failure
// in an *UpstreamError.
func (s *Sim) OrderBook(ctx context.Context) (common.OrderBook, error) {
	b, err := s.exchange.OrderBook(ctx)
	if err != nil {
		return common.OrderBook{}, &UpstreamError{Op: "orderBook", Err: err}
	}
	return b, nil
}

// TradeHistory passes through to the wrapped Exchange, wrapping any
// failure in an *UpstreamError.
func (s *Sim) TradeHistory(ctx context.Context) ([]common.Trade, error) {
	t, err := s.exchange.TradeHistory(ctx)
	if err != nil {
		return nil, &UpstreamError{Op: "tradeHistory", Err: err}
	}
	return t, nil
}
