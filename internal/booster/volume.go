package booster

import (
	"sync"
	"time"
)

// VolumeStats summarises trades inside the tracker window.
type VolumeStats struct {
	Trades   int
	Buys     int
	Sells    int
	QuoteIn  uint64 // raw quote spent on buys
	BaseIn   uint64 // raw base spent on sells
	Lifetime int    // trades since the tracker was created
}

// VolumeTracker keeps a rolling window of submitted swaps for one wallet task.
type VolumeTracker struct {
	mu       sync.Mutex
	window   time.Duration
	trades   []tradeRecord
	lifetime int
	now      func() time.Time
}

type tradeRecord struct {
	timestamp time.Time
	direction Direction
	amount    uint64
}

// NewVolumeTracker creates a tracker; a zero window defaults to 24h.
func NewVolumeTracker(window time.Duration) *VolumeTracker {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &VolumeTracker{
		window: window,
		trades: make([]tradeRecord, 0),
		now:    time.Now,
	}
}

// Record adds a submitted swap.
func (t *VolumeTracker) Record(d Direction, amount uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.trades = append(t.trades, tradeRecord{
		timestamp: t.now(),
		direction: d,
		amount:    amount,
	})
	t.lifetime++

	t.cleanup()
}

// Stats returns totals for the current window.
func (t *VolumeTracker) Stats() VolumeStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cleanup()

	stats := VolumeStats{Trades: len(t.trades), Lifetime: t.lifetime}
	for _, tr := range t.trades {
		switch tr.direction {
		case Buy:
			stats.Buys++
			stats.QuoteIn += tr.amount
		case Sell:
			stats.Sells++
			stats.BaseIn += tr.amount
		}
	}
	return stats
}

// cleanup removes trades older than the window. Callers hold mu.
func (t *VolumeTracker) cleanup() {
	cutoff := t.now().Add(-t.window)

	kept := t.trades[:0]
	for _, tr := range t.trades {
		if tr.timestamp.After(cutoff) {
			kept = append(kept, tr)
		}
	}
	t.trades = kept
}
