package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Trade metrics
	TradesSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booster_trades_submitted_total",
			Help: "Swaps accepted by the node",
		},
		[]string{"wallet", "direction"},
	)

	SwapFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booster_swap_failures_total",
			Help: "Swaps that could not be built or submitted",
		},
		[]string{"direction"},
	)

	AmountIn = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booster_amount_in_raw_total",
			Help: "Raw input units spent by submitted swaps",
		},
		[]string{"direction"},
	)

	// Cycle metrics
	CyclesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booster_cycles_completed_total",
		Help: "Completed buy/sell oscillations across all wallets",
	})

	SettlementWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "booster_settlement_wait_seconds",
		Help:    "Time from first leg submission until balances moved",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	})

	// Wallet metrics
	Rotations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booster_wallet_rotations_total",
			Help: "Wallet rotations by outcome",
		},
		[]string{"status"},
	)

	ActiveWallets = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "booster_active_wallets",
		Help: "Wallet tasks currently running",
	})
)
