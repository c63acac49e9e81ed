// Package store holds the pending-order store and account state: the
// sole source of truth for a simulation, guarded by a single serializing
// mutex per spec §5 (the teacher's own choice for shared state — see
// internal/net/server.go's clientSessionsLock in the retrieved pack).
package store

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"simexchange/internal/common"
)

// Store serializes every read and write against a SimState behind a
// single mutex. A transition function passed to ComputeAndCommit must be
// pure and must never call back into the Store.
type Store struct {
	mu    sync.Mutex
	state common.SimState
}

// New creates a Store seeded with the given starting balances. idGen is
// seeded from wall-clock seconds, as spec §3 requires, so ids minted
// across process restarts don't collide with a prior run's in-flight
// orders (not persisted, but kept distinct for log correlation).
func New(currencyBalance, commodityBalance decimal.Decimal) *Store {
	now := time.Now().UnixMilli()
	return &Store{
		state: common.SimState{
			IDGen:            uint64(time.Now().Unix()),
			UpdatedUtcMs:     now,
			CurrencyBalance:  currencyBalance,
			CommodityBalance: commodityBalance,
		},
	}
}

// Snapshot returns the current state. The returned value is safe to read
// freely; mutating its slices does not affect the Store.
func (s *Store) Snapshot() common.SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ComputeAndCommit atomically replaces the state with f(currentState).
func (s *Store) ComputeAndCommit(f func(common.SimState) common.SimState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = f(s.state.Clone())
}

// ComputeAndCommitWithResult atomically replaces the state with the
// second return value of f, and returns its first. Go methods can't carry
// their own type parameters, so this is a package-level function taking
// the Store explicitly.
func ComputeAndCommitWithResult[T any](s *Store, f func(common.SimState) (T, common.SimState)) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, next := f(s.state.Clone())
	s.state = next
	return result
}

// NewID increments the id generator and returns the new id rendered as
// decimal text. Every new order uses this.
func (s *Store) NewID() string {
	return ComputeAndCommitWithResult(s, func(state common.SimState) (string, common.SimState) {
		state.IDGen++
		return strconv.FormatUint(state.IDGen, 10), state
	})
}

// AddLimitOrder reserves the order's committed side and appends it to the
// pending limit orders. Returns false, leaving the state unchanged, if
// the reserved side doesn't have enough balance.
func (s *Store) AddLimitOrder(order common.PendingLimitOrder) bool {
	return ComputeAndCommitWithResult(s, func(state common.SimState) (bool, common.SimState) {
		return ReserveLimitOrder(state, order)
	})
}

// AddMarketOrder reserves the order's committed side and appends it to
// the pending market orders. Returns false, leaving the state unchanged,
// if the reserved side doesn't have enough balance.
func (s *Store) AddMarketOrder(order common.PendingMarketOrder) bool {
	return ComputeAndCommitWithResult(s, func(state common.SimState) (bool, common.SimState) {
		return ReserveMarketOrder(state, order)
	})
}

// CancelLimitOrder removes the order with the given id from the pending
// limit orders and refunds its originally reserved amount. A cancel of an
// unknown id, or of a market order's id, is a silent no-op.
func (s *Store) CancelLimitOrder(id string) {
	s.ComputeAndCommit(func(state common.SimState) common.SimState {
		return CancelLimitOrder(state, id)
	})
}

// ReserveLimitOrder is the pure transformer behind AddLimitOrder, exported
// so the testable properties of spec §8 can be checked directly without
// going through the mutex.
func ReserveLimitOrder(state common.SimState, order common.PendingLimitOrder) (bool, common.SimState) {
	switch order.Side {
	case common.BID:
		cost := order.Volume.Mul(order.UnitPrice)
		if state.CurrencyBalance.LessThan(cost) {
			return false, state
		}
		state.CurrencyBalance = state.CurrencyBalance.Sub(cost)
	case common.ASK:
		if state.CommodityBalance.LessThan(order.Volume) {
			return false, state
		}
		state.CommodityBalance = state.CommodityBalance.Sub(order.Volume)
	}
	state.PendingLimitOrders = append(state.PendingLimitOrders, order)
	return true, state
}

// ReserveMarketOrder is the pure transformer behind AddMarketOrder.
func ReserveMarketOrder(state common.SimState, order common.PendingMarketOrder) (bool, common.SimState) {
	switch order.Side {
	case common.BID:
		if state.CurrencyBalance.LessThan(order.Amount) {
			return false, state
		}
		state.CurrencyBalance = state.CurrencyBalance.Sub(order.Amount)
	case common.ASK:
		if state.CommodityBalance.LessThan(order.Amount) {
			return false, state
		}
		state.CommodityBalance = state.CommodityBalance.Sub(order.Amount)
	}
	state.PendingMarketOrders = append(state.PendingMarketOrders, order)
	return true, state
}

// CancelLimitOrder is the pure transformer behind Store.CancelLimitOrder.
func CancelLimitOrder(state common.SimState, id string) common.SimState {
	idx := -1
	for i, o := range state.PendingLimitOrders {
		if o.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return state
	}
	refund := state.PendingLimitOrders[idx]
	switch refund.Side {
	case common.BID:
		state.CurrencyBalance = state.CurrencyBalance.Add(refund.Volume.Mul(refund.UnitPrice))
	case common.ASK:
		state.CommodityBalance = state.CommodityBalance.Add(refund.Volume)
	}
	state.PendingLimitOrders = append(state.PendingLimitOrders[:idx], state.PendingLimitOrders[idx+1:]...)
	return state
}

// SortLimitOrdersNewestFirst and SortMarketOrdersNewestFirst implement the
// "newest-first" id-descending processing order spec §4.3 calls
// contractual. IDs are decimal text minted from a monotonic counter, so
// they're parsed and compared numerically rather than lexicographically
// (a lexicographic descending sort would put "9" ahead of "10").
func SortLimitOrdersNewestFirst(orders []common.PendingLimitOrder) {
	sort.Slice(orders, func(i, j int) bool {
		return idValue(orders[i].ID) > idValue(orders[j].ID)
	})
}

func SortMarketOrdersNewestFirst(orders []common.PendingMarketOrder) {
	sort.Slice(orders, func(i, j int) bool {
		return idValue(orders[i].ID) > idValue(orders[j].ID)
	})
}

func idValue(id string) uint64 {
	v, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
