package cache

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/models"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/storage"
)

const tradesTableDDL = `
	CREATE TABLE IF NOT EXISTS volume_trades (
		id String,
		signature String,
		timestamp DateTime64(3),
		wallet String,
		pool String,
		pair String,
		direction LowCardinality(String),
		token_in String,
		token_out String,
		amount_in UInt64,
		min_amount_out UInt64
	) ENGINE = MergeTree()
	ORDER BY (pool, timestamp)
`

// ClickHouseConfig holds connection settings for the trade journal
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore journals submitted trades into ClickHouse
type ClickHouseStore struct {
	conn   driver.Conn
	logger *logrus.Logger
}

var _ storage.TradeStore = (*ClickHouseStore)(nil)

func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig, logger *logrus.Logger) (*ClickHouseStore, error) {
	if logger == nil {
		logger = logrus.New()
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, tradesTableDDL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create volume_trades: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"addr":     cfg.Addr,
		"database": cfg.Database,
	}).Info("connected to ClickHouse")

	return &ClickHouseStore{conn: conn, logger: logger}, nil
}

func (c *ClickHouseStore) InsertTrade(ctx context.Context, trade *models.TradeEvent) error {
	query := `
		INSERT INTO volume_trades (
			id, signature, timestamp, wallet, pool, pair, direction,
			token_in, token_out, amount_in, min_amount_out
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := c.conn.Exec(ctx, query,
		trade.ID,
		trade.Signature,
		trade.Timestamp,
		trade.Wallet,
		trade.Pool,
		trade.Pair,
		trade.Direction,
		trade.TokenIn,
		trade.TokenOut,
		trade.AmountIn,
		trade.MinAmountOut,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trade: %w", err)
	}

	return nil
}

func (c *ClickHouseStore) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *ClickHouseStore) Close() error {
	return c.conn.Close()
}
