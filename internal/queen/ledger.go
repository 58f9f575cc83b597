package queen

import (
	"math"
	"sync/atomic"
)

// CostLedger accumulates USD spend without locks. The float total is
// stored as its bit pattern in an atomic word and updated with a
// compare-and-swap loop, so concurrent adders never block and never
// lose an update.
type CostLedger struct {
	bits atomic.Uint64
}

// Add atomically adds the amount to the running total.
func (l *CostLedger) Add(amount float64) {
	for {
		old := l.bits.Load()
		updated := math.Float64frombits(old) + amount
		if l.bits.CompareAndSwap(old, math.Float64bits(updated)) {
			return
		}
	}
}

// Total returns the current accumulated cost.
func (l *CostLedger) Total() float64 {
	return math.Float64frombits(l.bits.Load())
}
