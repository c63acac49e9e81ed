// Package runner implements the Simulation Runner: a single background
// worker that periodically pulls the order book and recent trades from
// the wrapped exchange and drives the matching engine. It is grounded on
// the teacher's worker lifecycle: internal/worker.go's WorkerPool.Setup
// loop and internal/net/server.go's tomb.WithContext/Run(ctx) shape,
// simplified from a pool of interchangeable connection handlers to the
// one loop spec §4.4 calls for.
package runner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"simexchange/internal/common"
	"simexchange/internal/exchange"
	"simexchange/internal/matching"
	"simexchange/internal/simmetrics"
	"simexchange/internal/store"
)

// Runner owns the background matching loop for one Store.
type Runner struct {
	store      *store.Store
	exchange   exchange.Exchange
	metrics    *simmetrics.Collector
	cycleDelay time.Duration
	t          *tomb.Tomb
}

// New builds a Runner. Call Start to spawn its background goroutine.
func New(st *store.Store, ex exchange.Exchange, metrics *simmetrics.Collector, cycleDelay time.Duration) *Runner {
	return &Runner{
		store:      st,
		exchange:   ex,
		metrics:    metrics,
		cycleDelay: cycleDelay,
	}
}

// Start spawns the background loop under ctx. It returns immediately.
func (r *Runner) Start(ctx context.Context) {
	var runCtx context.Context
	r.t, runCtx = tomb.WithContext(ctx)
	r.t.Go(func() error {
		return r.loop(runCtx)
	})
}

// Stop cancels the loop and blocks until it has exited. An in-flight
// exchange call is allowed to return, but a matching result that arrives
// after the stop signal is discarded rather than committed to the store;
// the loop has returned by the time Stop returns.
func (r *Runner) Stop() error {
	if r.t == nil {
		return nil
	}
	r.t.Kill(nil)
	return r.t.Wait()
}

func (r *Runner) loop(ctx context.Context) error {
	log.Info().Dur("cycleDelay", r.cycleDelay).Msg("simulation runner starting")
	for {
		select {
		case <-r.t.Dying():
			log.Info().Msg("simulation runner stopping")
			return nil
		default:
		}

		r.runOneCycle(ctx)

		select {
		case <-r.t.Dying():
			log.Info().Msg("simulation runner stopping")
			return nil
		case <-time.After(r.cycleDelay):
		}
	}
}

// runOneCycle pulls book+trades and commits a matching transition if
// there is any pending work, then bumps the watermark to the current wall
// clock, per spec §4.4 steps 2-3. If the runner is stopped while the
// exchange calls are in flight, the cycle returns without committing.
func (r *Runner) runOneCycle(ctx context.Context) {
	cycleID := uuid.New().String()
	logger := log.With().Str("cycleId", cycleID).Logger()

	snapshot := r.store.Snapshot()
	hasPending := len(snapshot.PendingLimitOrders) > 0 || len(snapshot.PendingMarketOrders) > 0

	if hasPending {
		book, err := r.exchange.OrderBook(ctx)
		if err == nil {
			var trades []common.Trade
			trades, err = r.exchange.TradeHistory(ctx)
			if err == nil {
				select {
				case <-r.t.Dying():
					return
				default:
				}
				r.commitMatchingCycle(book, trades, logger)
				r.metrics.ObserveCycle(false)
			}
		}
		if err != nil {
			logger.Warn().Err(err).Msg("skipping matching cycle: upstream error")
			r.metrics.ObserveCycle(true)
		}
	}

	r.store.ComputeAndCommit(func(state common.SimState) common.SimState {
		state.UpdatedUtcMs = time.Now().UnixMilli()
		return state
	})
}

func (r *Runner) commitMatchingCycle(book common.OrderBook, trades []common.Trade, logger zerolog.Logger) {
	r.store.ComputeAndCommit(func(state common.SimState) common.SimState {
		next, report := matching.Run(book, trades, state)
		r.reportMetrics(report, logger)
		r.metrics.SetBalances(next.Balances())
		return next
	})
}

func (r *Runner) reportMetrics(report matching.Report, logger zerolog.Logger) {
	for side, n := range report.MarketFilled {
		for i := 0; i < n; i++ {
			r.metrics.ObserveMatched("market", side)
		}
	}
	for side, n := range report.MarketRefunded {
		for i := 0; i < n; i++ {
			r.metrics.ObserveRefunded(side)
		}
	}
	for side, n := range report.LimitFilled {
		for i := 0; i < n; i++ {
			r.metrics.ObserveMatched("limit", side)
		}
	}
	logger.Debug().
		Int("marketFilledBid", report.MarketFilled[common.BID]).
		Int("marketFilledAsk", report.MarketFilled[common.ASK]).
		Int("marketRefundedBid", report.MarketRefunded[common.BID]).
		Int("marketRefundedAsk", report.MarketRefunded[common.ASK]).
		Int("limitFilledBid", report.LimitFilled[common.BID]).
		Int("limitFilledAsk", report.LimitFilled[common.ASK]).
		Msg("matching cycle committed")
}
