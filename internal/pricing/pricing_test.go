package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simexchange/internal/common"
	"simexchange/internal/pricing"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func entry(price, volume string) common.OrderBookEntry {
	return common.OrderBookEntry{Price: d(price), Volume: d(volume)}
}

func TestPriceToBuy_SweepsAscending(t *testing.T) {
	book := common.OrderBook{
		Asks: []common.OrderBookEntry{
			entry("11", "5"),
			entry("10", "5"),
			entry("12", "5"),
		},
	}

	total, ok := pricing.PriceToBuy(d("12"), book)
	require.True(t, ok)
	// 5 @ 10 + 5 @ 11 + 2 @ 12 = 50 + 55 + 24 = 129
	assert.True(t, d("129").Equal(total), "got %s", total)
}

func TestPriceToBuy_Thin(t *testing.T) {
	book := common.OrderBook{Asks: []common.OrderBookEntry{entry("10", "5")}}
	_, ok := pricing.PriceToBuy(d("6"), book)
	assert.False(t, ok)
}

func TestPriceToBuy_ZeroVolume(t *testing.T) {
	total, ok := pricing.PriceToBuy(decimal.Zero, common.OrderBook{})
	require.True(t, ok)
	assert.True(t, decimal.Zero.Equal(total))
}

func TestPriceToBuy_SkipsZeroVolumeLevels(t *testing.T) {
	book := common.OrderBook{
		Asks: []common.OrderBookEntry{
			entry("9", "0"),
			entry("10", "5"),
		},
	}
	total, ok := pricing.PriceToBuy(d("5"), book)
	require.True(t, ok)
	assert.True(t, d("50").Equal(total))
}

func TestPriceToSell_SweepsDescending(t *testing.T) {
	book := common.OrderBook{
		Bids: []common.OrderBookEntry{
			entry("8", "5"),
			entry("10", "5"),
			entry("9", "5"),
		},
	}
	total, ok := pricing.PriceToSell(d("12"), book)
	require.True(t, ok)
	// 5 @ 10 + 5 @ 9 + 2 @ 8 = 50 + 45 + 16 = 111
	assert.True(t, d("111").Equal(total), "got %s", total)
}

func TestPriceToSell_Thin(t *testing.T) {
	book := common.OrderBook{Bids: []common.OrderBookEntry{entry("10", "5")}}
	_, ok := pricing.PriceToSell(d("6"), book)
	assert.False(t, ok)
}

func TestVolumeBuyableFor_Sweeps(t *testing.T) {
	book := common.OrderBook{
		Asks: []common.OrderBookEntry{
			entry("1", "10"),
			entry("2", "10"),
		},
	}
	// level 1 costs 10, fully affordable; remaining 15 buys 7.5 @ 2
	vol, ok := pricing.VolumeBuyableFor(d("25"), book)
	require.True(t, ok)
	assert.True(t, d("17.5").Equal(vol), "got %s", vol)
}

func TestVolumeBuyableFor_Thin(t *testing.T) {
	book := common.OrderBook{Asks: []common.OrderBookEntry{entry("1", "10")}}
	_, ok := pricing.VolumeBuyableFor(d("100"), book)
	assert.False(t, ok)
}

func TestVolumeBuyableFor_ZeroAmount(t *testing.T) {
	vol, ok := pricing.VolumeBuyableFor(decimal.Zero, common.OrderBook{})
	require.True(t, ok)
	assert.True(t, decimal.Zero.Equal(vol))
}
