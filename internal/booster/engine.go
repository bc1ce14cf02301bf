package booster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/metrics"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/models"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/raydium"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// PauseSwitch reports whether trading is paused for a wallet.
type PauseSwitch interface {
	Paused(ctx context.Context, wallet string) (bool, error)
}

// KeyStore persists rotated wallet secrets before funds are moved to them.
type KeyStore interface {
	Save(address, secret string) error
}

// TradeJournal stores submitted trades.
type TradeJournal interface {
	InsertTrade(ctx context.Context, trade *models.TradeEvent) error
}

// TradeBroadcaster publishes submitted trades to live subscribers.
type TradeBroadcaster interface {
	PublishTrade(ctx context.Context, trade *models.TradeEvent) error
}

// EngineConfig holds configuration for one wallet's engine
type EngineConfig struct {
	// Symbol is "BASE/QUOTE", used for logs and the journal.
	Symbol string

	// Pause between the legs of a cycle and between cycles.
	Pause time.Duration

	Settlement PollPolicy
	Provision  RetryPolicy

	// RotateEvery moves funds to a fresh wallet after this many completed
	// cycles. 0 disables automatic rotation.
	RotateEvery int

	// SlippageBps sets a minimum output on each swap from a fresh quote.
	// 0 submits swaps without a minimum, as volume is the goal.
	SlippageBps uint16

	// NativeReserve lamports are never wrapped.
	NativeReserve uint64

	FeeSchedule raydium.FeeSchedule
	Logger      *logrus.Logger

	// Optional collaborators
	Flags     PauseSwitch
	Keys      KeyStore
	Journal   TradeJournal
	Broadcast TradeBroadcaster
}

// DefaultEngineConfig returns the settings the bot runs with
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Pause:         constants.DefaultPause,
		Settlement:    DefaultPollPolicy(),
		Provision:     DefaultRetryPolicy(),
		NativeReserve: constants.NativeReserveLamports,
		FeeSchedule:   raydium.DefaultFeeSchedule,
	}
}

// PoolEngine drives one wallet against one pool. It is not safe for
// concurrent use; run one engine per goroutine.
type PoolEngine struct {
	chain Chain
	pool  *raydium.PoolKeys
	cfg   EngineConfig

	baseSymbol  string
	quoteSymbol string

	provisioner *Provisioner
	executor    *Executor
	reconciler  *Reconciler
	pricer      *Pricer
	volume      *VolumeTracker

	state  WalletState
	phase  Phase
	cycles int
	logger *logrus.Logger
	log    *logrus.Entry
}

// NewPoolEngine creates an engine for w. Accounts are resolved by InitAccounts.
func NewPoolEngine(chain Chain, pool *raydium.PoolKeys, w *wallet.Wallet, cfg EngineConfig) (*PoolEngine, error) {
	if chain == nil {
		return nil, fmt.Errorf("chain is nil")
	}
	if pool == nil {
		return nil, fmt.Errorf("pool keys are nil")
	}
	if w == nil {
		return nil, fmt.Errorf("wallet is nil")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.FeeSchedule == (raydium.FeeSchedule{}) {
		cfg.FeeSchedule = raydium.DefaultFeeSchedule
	}
	if err := cfg.FeeSchedule.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fee schedule: %w", err)
	}

	base, quote := splitSymbol(cfg.Symbol, pool)

	e := &PoolEngine{
		chain:       chain,
		pool:        pool,
		cfg:         cfg,
		baseSymbol:  base,
		quoteSymbol: quote,
		provisioner: NewProvisioner(chain, cfg.Provision, cfg.Settlement, cfg.NativeReserve, cfg.Logger),
		executor:    NewExecutor(chain, pool, cfg.Logger),
		reconciler:  NewReconciler(chain, cfg.Settlement, cfg.Logger),
		pricer:      NewPricer(chain, pool, cfg.FeeSchedule),
		volume:      NewVolumeTracker(24 * time.Hour),
		state:       WalletState{Wallet: w},
		phase:       PhaseUninitialized,
		logger:      cfg.Logger,
	}
	e.setLogger()
	return e, nil
}

func (e *PoolEngine) setLogger() {
	e.log = e.logger.WithFields(logrus.Fields{
		"wallet": e.state.Wallet.Address(),
		"pool":   e.pool.AmmID.String(),
	})
}

// splitSymbol falls back to mint-derived symbols when symbol is not "BASE/QUOTE".
func splitSymbol(symbol string, pool *raydium.PoolKeys) (string, string) {
	if parts := strings.Split(symbol, "/"); len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1]
	}
	return mintSymbol(pool.BaseMint), mintSymbol(pool.QuoteMint)
}

func mintSymbol(mint solana.PublicKey) string {
	if s, ok := constants.TokenSymbols[mint.String()]; ok {
		return s
	}
	s := mint.String()
	return s[:4] + ".." + s[len(s)-4:]
}

func (e *PoolEngine) Wallet() *wallet.Wallet { return e.state.Wallet }
func (e *PoolEngine) State() WalletState     { return e.state }
func (e *PoolEngine) Phase() Phase           { return e.phase }
func (e *PoolEngine) Volume() VolumeStats    { return e.volume.Stats() }

// InitAccounts resolves (creating if needed) the base and quote token accounts.
func (e *PoolEngine) InitAccounts(ctx context.Context) error {
	w := e.state.Wallet

	base, err := e.provisioner.EnsureAccount(ctx, w, e.pool.BaseMint)
	if err != nil {
		return fmt.Errorf("base account: %w", err)
	}
	quote, err := e.provisioner.EnsureAccount(ctx, w, e.pool.QuoteMint)
	if err != nil {
		return fmt.Errorf("quote account: %w", err)
	}

	e.state.BaseAccount = &base
	e.state.QuoteAccount = &quote
	e.phase = PhaseProvisioned

	e.log.WithFields(logrus.Fields{
		"base_account":  base.String(),
		"quote_account": quote.String(),
	}).Info("wallet initialized")
	return nil
}

// Buy spends amount raw quote units on the base token.
func (e *PoolEngine) Buy(ctx context.Context, amount uint64) (*Receipt, error) {
	return e.trade(ctx, TradeIntent{Direction: Buy, Amount: amount})
}

// Sell spends amount raw base units on the quote token.
func (e *PoolEngine) Sell(ctx context.Context, amount uint64) (*Receipt, error) {
	return e.trade(ctx, TradeIntent{Direction: Sell, Amount: amount})
}

func (e *PoolEngine) trade(ctx context.Context, intent TradeIntent) (*Receipt, error) {
	if intent.Amount == 0 {
		return nil, fmt.Errorf("%w: %s amount is zero", ErrInvalidAmount, intent.Direction)
	}
	if !e.state.provisioned() {
		return nil, fmt.Errorf("%w: %w", ErrSwapFailed, errNotProvisioned)
	}

	legs := SwapLegs{Source: *e.state.QuoteAccount, Destination: *e.state.BaseAccount}
	tokenIn, tokenOut := e.quoteSymbol, e.baseSymbol
	e.phase = PhaseBuying
	if intent.Direction == Sell {
		legs = SwapLegs{Source: *e.state.BaseAccount, Destination: *e.state.QuoteAccount}
		tokenIn, tokenOut = e.baseSymbol, e.quoteSymbol
		e.phase = PhaseSelling
	}

	minOut, err := e.pricer.MinAmountOut(ctx, e.state.Wallet, intent, e.cfg.SlippageBps)
	if err != nil {
		if errors.Is(err, raydium.ErrDegenerateReserves) {
			return nil, err
		}
		metrics.SwapFailures.WithLabelValues(intent.Direction.String()).Inc()
		return nil, fmt.Errorf("%w: quote minimum output: %w", ErrSwapFailed, err)
	}

	receipt, err := e.executor.Swap(ctx, e.state.Wallet, legs, intent, minOut)
	if err != nil {
		metrics.SwapFailures.WithLabelValues(intent.Direction.String()).Inc()
		return nil, err
	}

	metrics.TradesSubmitted.WithLabelValues(receipt.Wallet, intent.Direction.String()).Inc()
	metrics.AmountIn.WithLabelValues(intent.Direction.String()).Add(float64(intent.Amount))
	e.volume.Record(intent.Direction, intent.Amount)
	e.journal(ctx, receipt, tokenIn, tokenOut)
	return receipt, nil
}

// journal records the trade in the optional sinks. Failures are logged only.
func (e *PoolEngine) journal(ctx context.Context, r *Receipt, tokenIn, tokenOut string) {
	if e.cfg.Journal == nil && e.cfg.Broadcast == nil {
		return
	}

	ev := models.NewTradeEvent(r.Signature, r.SubmittedAt)
	ev.Wallet = r.Wallet
	ev.Pool = e.pool.AmmID.String()
	ev.Pair = e.baseSymbol + "/" + e.quoteSymbol
	ev.Direction = r.Direction.String()
	ev.TokenIn = tokenIn
	ev.TokenOut = tokenOut
	ev.AmountIn = r.AmountIn
	ev.MinAmountOut = r.MinAmountOut

	if e.cfg.Journal != nil {
		if err := e.cfg.Journal.InsertTrade(ctx, ev); err != nil {
			e.log.WithError(err).Warn("failed to store trade")
		}
	}
	if e.cfg.Broadcast != nil {
		if err := e.cfg.Broadcast.PublishTrade(ctx, ev); err != nil {
			e.log.WithError(err).Warn("failed to publish trade")
		}
	}
}

// GetBalances returns the current balances of both legs.
func (e *PoolEngine) GetBalances(ctx context.Context) BalanceSnapshot {
	return e.reconciler.GetBalances(ctx, e.state)
}

// WaitForSettlement blocks until balances move away from baseline.
func (e *PoolEngine) WaitForSettlement(ctx context.Context, baseline BalanceSnapshot) (BalanceSnapshot, error) {
	return e.reconciler.WaitForSettlement(ctx, e.state, baseline)
}

// GetPrices is informational; it never steers direction or size.
func (e *PoolEngine) GetPrices(ctx context.Context) (*Prices, error) {
	return e.pricer.GetPrices(ctx, e.state.Wallet)
}

// Unwrap closes the wallet's wSOL account back into native SOL.
func (e *PoolEngine) Unwrap(ctx context.Context) (string, error) {
	sig, err := e.provisioner.Unwrap(ctx, e.state.Wallet)
	if err != nil {
		return sig, err
	}
	if sig != "" && e.pool.QuoteMint.Equals(wrappedSOLMint) {
		e.state.QuoteAccount = nil
	}
	if sig != "" && e.pool.BaseMint.Equals(wrappedSOLMint) {
		e.state.BaseAccount = nil
	}
	if !e.state.provisioned() {
		e.phase = PhaseUninitialized
	}
	return sig, nil
}

// RunCycle performs one oscillation: buy with all quote then sell all base,
// or the reverse when the wallet holds no quote.
func (e *PoolEngine) RunCycle(ctx context.Context) error {
	balances := e.GetBalances(ctx)

	first, second := Buy, Sell
	amount := balances.QuoteRaw
	if balances.QuoteRaw == 0 {
		first, second = Sell, Buy
		amount = balances.BaseRaw
	}

	if _, err := e.trade(ctx, TradeIntent{Direction: first, Amount: amount}); err != nil {
		return err
	}

	submitted := time.Now()
	after, err := e.WaitForSettlement(ctx, balances)
	if err != nil {
		return err
	}
	metrics.SettlementWait.Observe(time.Since(submitted).Seconds())

	if err := sleepCtx(ctx, e.cfg.Pause); err != nil {
		return err
	}

	amount = after.BaseRaw
	if second == Buy {
		amount = after.QuoteRaw
	}
	if _, err := e.trade(ctx, TradeIntent{Direction: second, Amount: amount}); err != nil {
		return err
	}

	e.cycles++
	metrics.CyclesCompleted.Inc()
	stats := e.volume.Stats()
	e.log.WithFields(logrus.Fields{
		"cycle":      e.cycles,
		"trades":     stats.Lifetime,
		"trades_24h": stats.Trades,
	}).Info("cycle complete")

	if e.cfg.RotateEvery > 0 && e.cycles%e.cfg.RotateEvery == 0 {
		if err := sleepCtx(ctx, e.cfg.Pause); err != nil {
			return err
		}
		if err := e.ChangeWallet(ctx); err != nil {
			return err
		}
	}

	return sleepCtx(ctx, e.cfg.Pause)
}

// Run loops RunCycle until ctx is cancelled or the pool becomes unusable.
// Recoverable failures are logged and the loop continues after a pause.
func (e *PoolEngine) Run(ctx context.Context) error {
	e.log.Info("starting volume loop")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if e.phase == PhaseUninitialized {
			if err := e.InitAccounts(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.log.WithError(err).Error("failed to initialize accounts")
				if err := sleepCtx(ctx, e.cfg.Pause); err != nil {
					return err
				}
				continue
			}
			b := e.GetBalances(ctx)
			e.log.WithFields(logrus.Fields{
				"base":     b.BaseRaw,
				"quote":    b.QuoteRaw,
				"base_ui":  b.BaseUI,
				"quote_ui": b.QuoteUI,
			}).Info("initial balances")
		}

		if e.paused(ctx) {
			e.log.Debug("trading paused")
			if err := sleepCtx(ctx, e.cfg.Pause); err != nil {
				return err
			}
			continue
		}

		err := e.RunCycle(ctx)
		switch {
		case err == nil:
			continue
		case ctx.Err() != nil:
			return ctx.Err()
		case errors.Is(err, raydium.ErrDegenerateReserves):
			e.log.WithError(err).Error("pool is unusable, stopping wallet")
			return err
		case errors.Is(err, ErrInvalidAmount):
			e.log.WithError(err).Warn("nothing to trade")
		case errors.Is(err, ErrSwapFailed), errors.Is(err, ErrTimeout):
			e.log.WithError(err).Warn("cycle interrupted")
		case errors.Is(err, ErrRotationAborted):
			e.log.WithError(err).Warn("wallet rotation skipped")
		default:
			e.log.WithError(err).Error("cycle failed")
		}

		if err := sleepCtx(ctx, e.cfg.Pause); err != nil {
			return err
		}
	}
}

func (e *PoolEngine) paused(ctx context.Context) bool {
	if e.cfg.Flags == nil {
		return false
	}
	paused, err := e.cfg.Flags.Paused(ctx, e.state.Wallet.Address())
	if err != nil {
		e.log.WithError(err).Warn("pause flag unavailable, continuing")
		return false
	}
	return paused
}
