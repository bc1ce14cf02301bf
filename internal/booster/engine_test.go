package booster

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/models"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/raydium"
)

type engineFixture struct {
	chain     *fakeChain
	pool      *raydium.PoolKeys
	engine    *PoolEngine
	baseAcct  solana.PublicKey
	quoteAcct solana.PublicKey
}

// newEngineFixture funds a wallet with base and quote token accounts. Swaps
// trade 20 base per quote.
func newEngineFixture(t *testing.T, base, quote uint64, mutate func(*EngineConfig)) *engineFixture {
	t.Helper()

	chain := newFakeChain()
	baseMint, quoteMint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()
	pool := testPool(baseMint, quoteMint)
	chain.swapOut = func(srcMint solana.PublicKey, in uint64) uint64 {
		if srcMint.Equals(baseMint) {
			return in / 20
		}
		return in * 20
	}

	w := testWallet()
	f := &engineFixture{
		chain:     chain,
		pool:      pool,
		baseAcct:  chain.addTokenAccount(w.PublicKey(), baseMint, base),
		quoteAcct: chain.addTokenAccount(w.PublicKey(), quoteMint, quote),
	}

	cfg := testEngineConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewPoolEngine(chain, pool, w, cfg)
	require.NoError(t, err)
	f.engine = e
	return f
}

func TestNewPoolEngine_Validation(t *testing.T) {
	pool := testPool(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey())

	_, err := NewPoolEngine(nil, pool, testWallet(), testEngineConfig())
	assert.Error(t, err)
	_, err = NewPoolEngine(newFakeChain(), nil, testWallet(), testEngineConfig())
	assert.Error(t, err)
	_, err = NewPoolEngine(newFakeChain(), pool, nil, testEngineConfig())
	assert.Error(t, err)

	cfg := testEngineConfig()
	cfg.FeeSchedule = raydium.FeeSchedule{Numerator: 5, Denominator: 5}
	_, err = NewPoolEngine(newFakeChain(), pool, testWallet(), cfg)
	assert.Error(t, err)
}

func TestInitAccounts_UsesExistingAccounts(t *testing.T) {
	f := newEngineFixture(t, 500, 0, nil)
	assert.Equal(t, PhaseUninitialized, f.engine.Phase())

	require.NoError(t, f.engine.InitAccounts(context.Background()))

	state := f.engine.State()
	require.NotNil(t, state.BaseAccount)
	require.NotNil(t, state.QuoteAccount)
	assert.Equal(t, f.baseAcct, *state.BaseAccount)
	assert.Equal(t, f.quoteAcct, *state.QuoteAccount)
	assert.Equal(t, PhaseProvisioned, f.engine.Phase())
	assert.Empty(t, f.chain.sentTxs())
}

func TestBuy_BeforeProvisioning(t *testing.T) {
	f := newEngineFixture(t, 0, 100, nil)

	_, err := f.engine.Buy(context.Background(), 100)
	assert.ErrorIs(t, err, ErrSwapFailed)
	assert.Equal(t, 0, f.chain.sendAttempts)
}

func TestRunCycle_SellFirstWhenNoQuote(t *testing.T) {
	f := newEngineFixture(t, 500, 0, nil)
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))

	require.NoError(t, f.engine.RunCycle(ctx))

	sent := f.chain.sentTxs()
	require.Len(t, sent, 2)

	src, amount, _, ok := swapOf(sent[0])
	require.True(t, ok)
	assert.Equal(t, f.baseAcct, src, "first leg sells base")
	assert.Equal(t, uint64(500), amount)

	src, amount, _, ok = swapOf(sent[1])
	require.True(t, ok)
	assert.Equal(t, f.quoteAcct, src, "second leg buys with the settled quote")
	assert.Equal(t, uint64(25), amount)

	assert.Equal(t, uint64(500), f.chain.tokenAmount(f.baseAcct))
	assert.Equal(t, uint64(0), f.chain.tokenAmount(f.quoteAcct))

	stats := f.engine.Volume()
	assert.Equal(t, 1, stats.Buys)
	assert.Equal(t, 1, stats.Sells)
}

func TestRunCycle_BuyFirstWhenQuoteHeld(t *testing.T) {
	f := newEngineFixture(t, 0, 1_000, nil)
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))

	require.NoError(t, f.engine.RunCycle(ctx))

	sent := f.chain.sentTxs()
	require.Len(t, sent, 2)

	src, amount, _, _ := swapOf(sent[0])
	assert.Equal(t, f.quoteAcct, src)
	assert.Equal(t, uint64(1_000), amount)

	src, amount, _, _ = swapOf(sent[1])
	assert.Equal(t, f.baseAcct, src)
	assert.Equal(t, uint64(20_000), amount)
	assert.Equal(t, PhaseSelling, f.engine.Phase())
}

func TestRunCycle_NothingToTrade(t *testing.T) {
	f := newEngineFixture(t, 0, 0, nil)
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))

	err := f.engine.RunCycle(ctx)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Equal(t, 0, f.chain.sendAttempts)
}

func TestRunCycle_SettlementTimeout(t *testing.T) {
	f := newEngineFixture(t, 500, 0, func(cfg *EngineConfig) {
		cfg.Settlement = PollPolicy{Interval: time.Millisecond, Timeout: 15 * time.Millisecond}
	})
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))

	// The node reports the pre-trade balances forever.
	f.chain.scripts[f.baseAcct] = []uint64{500}
	f.chain.scripts[f.quoteAcct] = []uint64{0}

	err := f.engine.RunCycle(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Len(t, f.chain.sentTxs(), 1)
}

func TestGetPrices(t *testing.T) {
	f := newEngineFixture(t, 0, 0, nil)
	f.chain.simLogs = []string{
		"Program 675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8 invoke [1]",
		poolInfoLog(1_000_000_000000, 50_000_000000),
	}

	prices, err := f.engine.GetPrices(context.Background())
	require.NoError(t, err)

	sell, _ := prices.Sell.Float64()
	assert.InDelta(t, 0.04987495025, sell, 1e-9)
	assert.True(t, prices.Buy.GreaterThan(prices.Sell))
	assert.Equal(t, uint64(1_000_000_000000), prices.Reserves.PoolCoinAmount)
	assert.Empty(t, f.chain.sentTxs(), "pricing only simulates")
}

func TestGetPrices_MalformedSimulation(t *testing.T) {
	f := newEngineFixture(t, 0, 0, nil)
	f.chain.simLogs = []string{"Program log: nothing useful"}

	_, err := f.engine.GetPrices(context.Background())
	assert.ErrorIs(t, err, raydium.ErrMalformedSimulationOutput)
}

func TestSell_AppliesSlippageFromFreshQuote(t *testing.T) {
	f := newEngineFixture(t, 1_000000, 0, func(cfg *EngineConfig) {
		cfg.SlippageBps = 100
	})
	f.chain.simLogs = []string{poolInfoLog(1_000_000_000000, 50_000_000000)}
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))

	receipt, err := f.engine.Sell(ctx, 1_000000)
	require.NoError(t, err)

	// 49874 quoted, less 1%.
	assert.Equal(t, uint64(49375), receipt.MinAmountOut)
	_, _, minOut, ok := swapOf(f.chain.sentTxs()[0])
	require.True(t, ok)
	assert.Equal(t, uint64(49375), minOut)
}

type recordingJournal struct {
	mu        sync.Mutex
	inserted  []*models.TradeEvent
	published []*models.TradeEvent
	err       error
}

func (r *recordingJournal) InsertTrade(_ context.Context, ev *models.TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, ev)
	return r.err
}

func (r *recordingJournal) PublishTrade(_ context.Context, ev *models.TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, ev)
	return r.err
}

func TestBuy_RecordsTradeEvent(t *testing.T) {
	journal := &recordingJournal{err: errors.New("sink down")}
	f := newEngineFixture(t, 0, 300, func(cfg *EngineConfig) {
		cfg.Journal = journal
		cfg.Broadcast = journal
	})
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))

	receipt, err := f.engine.Buy(ctx, 300)
	require.NoError(t, err, "journal failures never fail the trade")

	require.Len(t, journal.inserted, 1)
	require.Len(t, journal.published, 1)
	ev := journal.inserted[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, receipt.Signature, ev.Signature)
	assert.Equal(t, "buy", ev.Direction)
	assert.Equal(t, "TKN/USDC", ev.Pair)
	assert.Equal(t, "USDC", ev.TokenIn)
	assert.Equal(t, "TKN", ev.TokenOut)
	assert.Equal(t, uint64(300), ev.AmountIn)
	assert.Equal(t, f.pool.AmmID.String(), ev.Pool)
}

func TestChangeWallet_MovesFundsAndReprovisions(t *testing.T) {
	keys := &memoryKeyStore{}
	f := newEngineFixture(t, 0, 0, func(cfg *EngineConfig) { cfg.Keys = keys })
	old := f.engine.Wallet()
	f.chain.setLamports(old.PublicKey(), 1_000_000)

	require.NoError(t, f.engine.ChangeWallet(context.Background()))

	next := f.engine.Wallet()
	assert.NotEqual(t, old.Address(), next.Address())
	assert.Equal(t, next.Secret(), keys.keys[next.Address()])
	assert.Equal(t, uint64(995_000), f.chain.lamportsOf(next.PublicKey()))
	assert.Equal(t, uint64(5_000), f.chain.lamportsOf(old.PublicKey()))
	assert.Equal(t, PhaseProvisioned, f.engine.Phase())

	state := f.engine.State()
	require.NotNil(t, state.BaseAccount)
	ata, _, err := FindAssociatedTokenAddress(next.PublicKey(), f.pool.BaseMint)
	require.NoError(t, err)
	assert.Equal(t, ata, *state.BaseAccount)

	// transfer + one account creation per mint
	assert.Len(t, f.chain.sentTxs(), 3)
}

func TestChangeWallet_AbortsWhenFeeNotCovered(t *testing.T) {
	keys := &memoryKeyStore{}
	f := newEngineFixture(t, 0, 0, func(cfg *EngineConfig) { cfg.Keys = keys })
	ctx := context.Background()
	require.NoError(t, f.engine.InitAccounts(ctx))
	old := f.engine.Wallet()
	f.chain.setLamports(old.PublicKey(), 5_000)

	err := f.engine.ChangeWallet(ctx)
	assert.ErrorIs(t, err, ErrRotationAborted)
	assert.Equal(t, old, f.engine.Wallet())
	assert.Equal(t, PhaseProvisioned, f.engine.Phase())
	assert.Empty(t, keys.keys)
	assert.Equal(t, 0, f.chain.sendAttempts)
	assert.Equal(t, uint64(5_000), f.chain.lamportsOf(old.PublicKey()))
}

func TestChangeWallet_FeeFallback(t *testing.T) {
	f := newEngineFixture(t, 0, 0, func(cfg *EngineConfig) { cfg.Keys = &memoryKeyStore{} })
	f.chain.fee = nil
	old := f.engine.Wallet()
	f.chain.setLamports(old.PublicKey(), 1_000_000)

	require.NoError(t, f.engine.ChangeWallet(context.Background()))
	assert.Equal(t, uint64(1_000_000-fakeOneByteRent), f.chain.lamportsOf(f.engine.Wallet().PublicKey()))
}

func TestChangeWallet_RequiresKeyStore(t *testing.T) {
	f := newEngineFixture(t, 0, 0, nil)
	f.chain.setLamports(f.engine.Wallet().PublicKey(), 1_000_000)

	err := f.engine.ChangeWallet(context.Background())
	assert.ErrorIs(t, err, ErrRotationAborted)
	assert.Equal(t, 0, f.chain.sendAttempts)
}

func TestChangeWallet_KeyStoreFailureMovesNothing(t *testing.T) {
	f := newEngineFixture(t, 0, 0, func(cfg *EngineConfig) {
		cfg.Keys = &memoryKeyStore{err: errors.New("disk full")}
	})
	old := f.engine.Wallet()
	f.chain.setLamports(old.PublicKey(), 1_000_000)

	err := f.engine.ChangeWallet(context.Background())
	assert.ErrorIs(t, err, ErrRotationAborted)
	assert.Equal(t, old, f.engine.Wallet())
	assert.Equal(t, uint64(1_000_000), f.chain.lamportsOf(old.PublicKey()))
}

func TestRunCycle_RotatesOnSchedule(t *testing.T) {
	f := newEngineFixture(t, 500, 0, func(cfg *EngineConfig) {
		cfg.RotateEvery = 1
		cfg.Keys = &memoryKeyStore{}
	})
	ctx := context.Background()
	old := f.engine.Wallet()
	f.chain.setLamports(old.PublicKey(), 1_000_000)
	require.NoError(t, f.engine.InitAccounts(ctx))

	require.NoError(t, f.engine.RunCycle(ctx))
	assert.NotEqual(t, old.Address(), f.engine.Wallet().Address())
}

func TestRun_StopsOnDegenerateReserves(t *testing.T) {
	f := newEngineFixture(t, 0, 1_000, func(cfg *EngineConfig) {
		cfg.SlippageBps = 50
	})
	f.chain.simLogs = []string{poolInfoLog(0, 0)}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := f.engine.Run(ctx)
	assert.ErrorIs(t, err, raydium.ErrDegenerateReserves)
	assert.Equal(t, 0, f.chain.sendAttempts)
}

func TestRun_ContinuesWhenNothingToTrade(t *testing.T) {
	f := newEngineFixture(t, 0, 0, func(cfg *EngineConfig) {
		cfg.Pause = time.Millisecond
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := f.engine.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, f.chain.sendAttempts)
	assert.Equal(t, PhaseProvisioned, f.engine.Phase())
}

func TestRun_ContinuesAfterSwapFailures(t *testing.T) {
	f := newEngineFixture(t, 0, 1_000, func(cfg *EngineConfig) {
		cfg.Pause = time.Millisecond
	})
	f.chain.sendErr = errors.New("rpc overloaded")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.engine.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Greater(t, f.chain.sendAttempts, 1)
}

func TestRun_HonoursPauseSwitch(t *testing.T) {
	f := newEngineFixture(t, 0, 1_000, func(cfg *EngineConfig) {
		cfg.Pause = time.Millisecond
		cfg.Flags = staticFlags{paused: true}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := f.engine.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, f.chain.sendAttempts)
}

func TestRun_PauseSwitchErrorDoesNotBlockTrading(t *testing.T) {
	f := newEngineFixture(t, 0, 1_000, func(cfg *EngineConfig) {
		cfg.Pause = time.Millisecond
		cfg.Flags = staticFlags{err: errors.New("redis unreachable")}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = f.engine.Run(ctx)
	assert.NotEmpty(t, f.chain.sentTxs())
}

func TestUnwrap_ClearsWrappedLeg(t *testing.T) {
	chain := newFakeChain()
	baseMint := solana.NewWallet().PublicKey()
	pool := testPool(baseMint, wrappedSOLMint)
	w := testWallet()
	chain.setLamports(w.PublicKey(), 10_000)
	chain.addTokenAccount(w.PublicKey(), baseMint, 0)
	chain.addTokenAccount(w.PublicKey(), wrappedSOLMint, 1_000_000)

	e, err := NewPoolEngine(chain, pool, w, testEngineConfig())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, e.InitAccounts(ctx))

	sig, err := e.Unwrap(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
	assert.Nil(t, e.State().QuoteAccount)
	assert.Equal(t, PhaseUninitialized, e.Phase())
}

func TestSplitSymbol(t *testing.T) {
	pool := testPool(solana.NewWallet().PublicKey(), wrappedSOLMint)

	base, quote := splitSymbol("BONK/SOL", pool)
	assert.Equal(t, "BONK", base)
	assert.Equal(t, "SOL", quote)

	base, quote = splitSymbol("", pool)
	assert.Equal(t, mintSymbol(pool.BaseMint), base)
	assert.Len(t, base, 10)
	assert.Equal(t, "SOL", quote)
}
