package booster

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/metrics"
)

func TestRunCycle_RecordsMetrics(t *testing.T) {
	f := newEngineFixture(t, 500, 0, nil)
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))

	wallet := f.engine.Wallet().Address()
	cycles := testutil.ToFloat64(metrics.CyclesCompleted)
	sold := testutil.ToFloat64(metrics.AmountIn.WithLabelValues("sell"))

	require.NoError(t, f.engine.RunCycle(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TradesSubmitted.WithLabelValues(wallet, "sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.TradesSubmitted.WithLabelValues(wallet, "buy")))
	assert.Equal(t, cycles+1, testutil.ToFloat64(metrics.CyclesCompleted))
	assert.Equal(t, sold+500, testutil.ToFloat64(metrics.AmountIn.WithLabelValues("sell")))
}

func TestSwapFailure_RecordsMetric(t *testing.T) {
	f := newEngineFixture(t, 0, 100, nil)
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))
	f.chain.sendErr = assert.AnError

	before := testutil.ToFloat64(metrics.SwapFailures.WithLabelValues("buy"))
	_, err := f.engine.Buy(ctx, 100)
	assert.ErrorIs(t, err, ErrSwapFailed)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.SwapFailures.WithLabelValues("buy")))
}
