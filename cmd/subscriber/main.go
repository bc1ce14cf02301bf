package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/cache"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/config"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
)

// subscriber tails the trade events published by running boosters.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	_ = godotenv.Load()

	wallet := flag.String("wallet", "", "only trades of this wallet")
	pool := flag.String("pool", "", "only trades on this pool")
	flag.Parse()

	channel := constants.PubSubChannelTrades
	switch {
	case *wallet != "":
		channel = constants.PubSubChannelWalletPrefix + *wallet
	case *pool != "":
		channel = constants.PubSubChannelPoolPrefix + *pool
	}

	addr := config.Load().RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pubsub := cache.NewPubSubManager(redis.NewClient(&redis.Options{Addr: addr}), logger)
	defer pubsub.Close()

	trades, err := pubsub.SubscribeTrades(ctx, channel)
	if err != nil {
		logger.WithError(err).Fatal("failed to subscribe")
	}

	for t := range trades {
		logger.WithFields(logrus.Fields{
			"wallet":    t.Wallet,
			"pair":      t.Pair,
			"amount_in": t.AmountIn,
			"token_in":  t.TokenIn,
			"token_out": t.TokenOut,
			"signature": t.Signature,
		}).Info(t.Direction)
	}

	logger.Info("subscriber stopped")
}
