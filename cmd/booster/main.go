package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/booster"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/config"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/flags"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/keystore"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "YAML or JSON config file; env only when empty")
	mode := flag.String("mode", "run", "run | prices | balances | unwrap | pause | resume | flags | keys")
	walletAddr := flag.String("wallet", "", "wallet address for pause/resume; empty applies to every wallet")
	flag.Parse()

	// load .env BEFORE anything reads os.Getenv
	envErr := godotenv.Load()

	cfg := config.Load()
	if *configPath != "" {
		c, err := config.LoadFile(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		cfg = c
	}

	logger, logFile, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logFile.Close()

	if envErr != nil {
		logger.Debug("no .env file, using system environment variables")
	}

	needsPool := map[string]bool{"run": true, "prices": true, "balances": true, "unwrap": true}
	if needsPool[*mode] {
		if err := cfg.Validate(); err != nil {
			logger.WithError(err).Fatal("invalid configuration")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize")
	}
	defer a.Close()

	switch *mode {
	case "run", "prices", "balances", "unwrap":
		err = runWithEngines(ctx, a, *mode)
	case "pause", "resume":
		err = setPaused(ctx, a, *walletAddr, *mode == "pause")
	case "flags":
		err = listFlags(ctx, a)
	case "keys":
		err = listKeys(a)
	default:
		logger.Fatalf("invalid -mode %q", *mode)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error(*mode + " failed")
		a.Close()
		os.Exit(1)
	}
}

func runWithEngines(ctx context.Context, a *app, mode string) error {
	pool, err := a.poolKeys(ctx)
	if err != nil {
		return fmt.Errorf("load pool keys: %w", err)
	}
	engines, err := a.engines(pool)
	if err != nil {
		return err
	}

	switch mode {
	case "prices":
		return printPrices(ctx, a.logger, engines[0])
	case "balances":
		return forEach(ctx, engines, printBalances)
	case "unwrap":
		return forEach(ctx, engines, unwrap)
	}

	a.logger.WithFields(logrus.Fields{
		"pool":    a.cfg.AmmPoolID,
		"symbol":  a.cfg.Symbol,
		"wallets": len(engines),
	}).Info("starting volume booster")

	if a.cfg.MetricsAddr != "" {
		go serveMetrics(ctx, a.cfg.MetricsAddr, a.logger)
	}

	var wg sync.WaitGroup
	for _, e := range engines {
		wg.Add(1)
		go func(e *booster.PoolEngine) {
			defer wg.Done()
			metrics.ActiveWallets.Inc()
			defer metrics.ActiveWallets.Dec()
			if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.WithError(err).WithField("wallet", e.Wallet().Address()).Error("wallet task stopped")
			}
		}(e)
	}
	wg.Wait()

	a.logger.Info("volume booster stopped")
	return ctx.Err()
}

// serveMetrics exposes /metrics until ctx is done.
func serveMetrics(ctx context.Context, addr string, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", addr).Info("metrics server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("metrics server failed")
	}
}

func forEach(ctx context.Context, engines []*booster.PoolEngine, fn func(context.Context, *booster.PoolEngine) error) error {
	var errs []error
	for _, e := range engines {
		if err := fn(ctx, e); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Wallet(), err))
		}
	}
	return errors.Join(errs...)
}

func printPrices(ctx context.Context, logger *logrus.Logger, e *booster.PoolEngine) error {
	p, err := e.GetPrices(ctx)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"buy":           p.Buy.String(),
		"sell":          p.Sell.String(),
		"base_reserve":  p.Reserves.PoolCoinAmount,
		"quote_reserve": p.Reserves.PoolPcAmount,
	}).Info("pool prices")
	return nil
}

// printBalances provisions missing accounts first, as the engine does
// before its first cycle.
func printBalances(ctx context.Context, e *booster.PoolEngine) error {
	if err := e.InitAccounts(ctx); err != nil {
		return err
	}
	b := e.GetBalances(ctx)
	fmt.Printf("%s base=%d (%.6f) quote=%d (%.6f)\n", e.Wallet(), b.BaseRaw, b.BaseUI, b.QuoteRaw, b.QuoteUI)
	return nil
}

func unwrap(ctx context.Context, e *booster.PoolEngine) error {
	sig, err := e.Unwrap(ctx)
	if err != nil {
		return err
	}
	if sig == "" {
		fmt.Printf("%s nothing to unwrap\n", e.Wallet())
		return nil
	}
	fmt.Printf("%s unwrapped sig=%s\n", e.Wallet(), sig)
	return nil
}

func setPaused(ctx context.Context, a *app, walletAddr string, paused bool) error {
	if a.flags == nil {
		return fmt.Errorf("pause flags need a reachable REDIS_ADDR")
	}
	key := flags.PauseKey(walletAddr)
	if !paused {
		return a.flags.Delete(ctx, key)
	}
	_, err := a.flags.Upsert(ctx, key, true)
	return err
}

func listFlags(ctx context.Context, a *app) error {
	if a.flags == nil {
		return fmt.Errorf("flags need a reachable REDIS_ADDR")
	}
	all, err := a.flags.List(ctx)
	if err != nil {
		return err
	}
	for _, f := range all {
		fmt.Printf("%s=%v (updated %s)\n", f.Key, f.Value, f.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// listKeys prints rotated wallet addresses; secrets stay in the file.
func listKeys(a *app) error {
	entries, err := keystore.Load(a.cfg.KeyStorePath)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.Address)
	}
	return nil
}
