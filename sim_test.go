package simexchange_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simexchange"
	"simexchange/internal/common"
	"simexchange/internal/exchange/memory"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return v
}

func TestNewSim_RejectsNilExchange(t *testing.T) {
	_, err := simexchange.NewSim(context.Background(), simexchange.Config{})
	require.Error(t, err)
}

func TestSim_PlaceLimitOrder_ReservesBalanceAndListsOpenOrder(t *testing.T) {
	ex := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance:  dec(t, "1000"),
		CommodityBalance: dec(t, "0"),
		Exchange:         ex,
		CycleDelay:       time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	id, err := s.PlaceLimitOrder(common.BID, dec(t, "2"), dec(t, "10"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	bal := s.Balances()
	assert.True(t, dec(t, "980").Equal(bal.Currency), "got %s", bal.Currency)

	open := s.OpenOrders()
	require.Len(t, open, 1)
	assert.Equal(t, id, open[0].ID)
}

func TestSim_PlaceLimitOrder_InsufficientBalance(t *testing.T) {
	ex := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance: dec(t, "5"),
		Exchange:        ex,
		CycleDelay:      time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.PlaceLimitOrder(common.BID, dec(t, "2"), dec(t, "10"))
	require.Error(t, err)

	var insufficient *simexchange.InsufficientBalance
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, dec(t, "20").Equal(insufficient.Required))
	assert.True(t, dec(t, "5").Equal(insufficient.Available))

	assert.Empty(t, s.OpenOrders())
}

func TestSim_PlaceLimitOrder_InsufficientBalance_Ask(t *testing.T) {
	ex := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CommodityBalance: dec(t, "3"),
		Exchange:         ex,
		CycleDelay:       time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.PlaceLimitOrder(common.ASK, dec(t, "10"), dec(t, "9"))
	require.Error(t, err)

	var insufficient *simexchange.InsufficientBalance
	require.True(t, errors.As(err, &insufficient))
	assert.True(t, dec(t, "10").Equal(insufficient.Required), "got %s", insufficient.Required)
	assert.True(t, dec(t, "3").Equal(insufficient.Available), "got %s", insufficient.Available)

	assert.Empty(t, s.OpenOrders())
}

func TestSim_CancelOrder_RefundsReservation(t *testing.T) {
	ex := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance: dec(t, "1000"),
		Exchange:        ex,
		CycleDelay:      time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	id, err := s.PlaceLimitOrder(common.BID, dec(t, "2"), dec(t, "10"))
	require.NoError(t, err)

	s.CancelOrder(id)

	assert.Empty(t, s.OpenOrders())
	bal := s.Balances()
	assert.True(t, dec(t, "1000").Equal(bal.Currency))
}

func TestSim_CancelOrder_UnknownIDIsNoop(t *testing.T) {
	ex := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance: dec(t, "1000"),
		Exchange:        ex,
		CycleDelay:      time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	assert.NotPanics(t, func() { s.CancelOrder("does-not-exist") })
}

func TestSim_MarketDataPassThrough_WrapsUpstreamError(t *testing.T) {
	ex := memory.New()
	ex.SetFailing(true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance: dec(t, "1000"),
		Exchange:        ex,
		CycleDelay:      time.Minute,
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Ticker(ctx)
	require.Error(t, err)
	var upstream *simexchange.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "ticker", upstream.Op)
}

func TestSim_PlaceMarketOrder_FillsOnNextCycle(t *testing.T) {
	ex := memory.New()
	ex.SetOrderBook(common.OrderBook{Asks: []common.OrderBookEntry{{Price: dec(t, "10"), Volume: dec(t, "5")}}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance: dec(t, "1000"),
		Exchange:        ex,
		CycleDelay:      10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.PlaceMarketOrder(common.BID, dec(t, "50"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return s.Balances().Commodity.GreaterThan(decimal.Zero)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSim_Close_StopsTheRunner(t *testing.T) {
	ex := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := simexchange.NewSim(ctx, simexchange.Config{
		CurrencyBalance: dec(t, "1000"),
		Exchange:        ex,
		CycleDelay:      time.Minute,
	})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		require.NoError(t, s.Close())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return promptly")
	}
}
