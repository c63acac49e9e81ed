package common

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Trade is a single print observed in the wrapped exchange's recent trade
// history. Side records whether the trade was buyer- or seller-initiated;
// TimestampMs is nil when the venue doesn't report one.
type Trade struct {
	TimestampMs *int64
	Side        Side
	UnitPrice   decimal.Decimal
	Volume      decimal.Decimal
}

func (t Trade) String() string {
	ts := "unknown"
	if t.TimestampMs != nil {
		ts = fmt.Sprintf("%d", *t.TimestampMs)
	}
	return fmt.Sprintf("Trade{side=%s price=%s volume=%s ts=%s}", t.Side, t.UnitPrice, t.Volume, ts)
}

// After reports whether the trade's timestamp is strictly after the given
// watermark. A trade with no timestamp never counts as "after" anything —
// it can't be distinguished from one already accounted for.
func (t Trade) After(watermarkMs int64) bool {
	return t.TimestampMs != nil && *t.TimestampMs > watermarkMs
}
