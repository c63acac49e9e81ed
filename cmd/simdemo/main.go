// Command simdemo wires a Sim against an in-memory Exchange and runs it
// until interrupted, the way the teacher's cmd/main.go wires its engine
// into a TCP server and blocks on ctx.Done(). There is no real venue
// client here: a production caller supplies its own exchange.Exchange
// implementation in place of memory.MemoryExchange.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	simexchange "simexchange"
	"simexchange/internal/common"
	"simexchange/internal/exchange/memory"
	"simexchange/internal/simmetrics"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	ex := memory.New()
	ex.SetOrderBook(common.OrderBook{
		Bids: []common.OrderBookEntry{{Price: decimal.NewFromInt(99), Volume: decimal.NewFromInt(10)}},
		Asks: []common.OrderBookEntry{{Price: decimal.NewFromInt(101), Volume: decimal.NewFromInt(10)}},
	})

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance:  decimal.NewFromInt(10_000),
		CommodityBalance: decimal.NewFromInt(0),
		Exchange:         ex,
		CycleDelay:       time.Second,
		Metrics:          simmetrics.New(nil),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start sim")
	}
	defer s.Close()

	if _, err := s.PlaceLimitOrder(common.BID, decimal.NewFromInt(1), decimal.NewFromInt(105)); err != nil {
		log.Error().Err(err).Msg("failed to place demo order")
	}

	log.Info().Msg("simulation running, press ctrl-c to stop")
	<-ctx.Done()
}
