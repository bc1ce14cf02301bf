package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/booster"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/cache"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/config"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/flags"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/keystore"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/raydium"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/rpc"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// app holds the process-wide dependencies. Optional integrations stay nil
// when their address is not configured or unreachable.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger

	rpc     *rpc.Client
	redis   *redis.Client
	journal *cache.ClickHouseStore
	pubsub  *cache.PubSubManager
	flags   *flags.Store
	keys    *keystore.FileStore

	closers []io.Closer
}

func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	a.rpc = rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.RPCTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		RateLimit:    cfg.RateLimit,
		RateBurst:    cfg.RateBurst,
		Logger:       logger,
	})
	a.closers = append(a.closers, a.rpc)

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unavailable, running without cache, pub/sub and flags")
			_ = client.Close()
		} else {
			a.redis = client
			a.closers = append(a.closers, client)
			a.pubsub = cache.NewPubSubManager(client, logger)

			store, err := flags.NewStore(client)
			if err != nil {
				return nil, err
			}
			a.flags = store
		}
	}

	if cfg.ClickHouseAddr != "" {
		store, err := cache.NewClickHouseStore(ctx, cache.ClickHouseConfig{
			Addr:     cfg.ClickHouseAddr,
			Database: cfg.ClickHouseDatabase,
			Username: cfg.ClickHouseUsername,
			Password: cfg.ClickHousePassword,
		}, logger)
		if err != nil {
			logger.WithError(err).Warn("clickhouse unavailable, trades will not be journaled")
		} else {
			a.journal = store
			a.closers = append(a.closers, store)
		}
	}

	if cfg.KeyStorePath != "" {
		ks, err := keystore.NewFileStore(cfg.KeyStorePath)
		if err != nil {
			return nil, err
		}
		a.keys = ks
	}

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// poolKeys resolves the pool from a local index file or the Raydium index,
// going through the Redis cache when one is connected.
func (a *app) poolKeys(ctx context.Context) (*raydium.PoolKeys, error) {
	if a.cfg.PoolKeysFile != "" {
		return raydium.LoadPoolKeysFromJSON(a.cfg.PoolKeysFile, a.cfg.AmmPoolID)
	}

	var pkCache raydium.PoolKeysCache
	if a.redis != nil {
		pkCache = cache.NewRedisCache(a.redis, a.cfg.PoolKeysTTL)
	}
	return raydium.NewIndexClient(a.cfg.PoolIndexURL, pkCache, a.logger).FetchPoolKeys(ctx, a.cfg.AmmPoolID)
}

// engines builds one engine per configured wallet secret.
func (a *app) engines(pool *raydium.PoolKeys) ([]*booster.PoolEngine, error) {
	ec := engineConfig(a.cfg, a.logger)
	if a.flags != nil {
		ec.Flags = a.flags
	}
	if a.keys != nil {
		ec.Keys = a.keys
	}
	if a.journal != nil {
		ec.Journal = a.journal
	}
	if a.pubsub != nil {
		ec.Broadcast = a.pubsub
	}

	out := make([]*booster.PoolEngine, 0, len(a.cfg.WalletSecretKeys))
	for i, secret := range a.cfg.WalletSecretKeys {
		w, err := wallet.New(secret)
		if err != nil {
			return nil, fmt.Errorf("wallet #%d: %w", i+1, err)
		}
		e, err := booster.NewPoolEngine(a.rpc, pool, w, ec)
		if err != nil {
			return nil, fmt.Errorf("wallet %s: %w", w, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func engineConfig(cfg *config.Config, logger *logrus.Logger) booster.EngineConfig {
	ec := booster.DefaultEngineConfig()
	ec.Symbol = cfg.Symbol
	ec.Pause = cfg.Pause
	ec.SlippageBps = uint16(cfg.SlippageBps)
	ec.RotateEvery = cfg.RotateEvery
	ec.NativeReserve = cfg.NativeReserve
	ec.Settlement = booster.PollPolicy{Interval: cfg.PollInterval, Timeout: cfg.SettlementTimeout}
	ec.Provision.MaxAttempts = cfg.ProvisionAttempts
	ec.Logger = logger
	return ec
}

// newLogger applies LOG_LEVEL and tees output into LOG_FILE when set.
func newLogger(cfg *config.Config) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	logger.SetLevel(level)

	if cfg.LogFile == "" {
		return logger, io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(io.MultiWriter(os.Stdout, f))
	return logger, f, nil
}
