package storage

import (
	"context"
	"io"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/models"
)

// TradeStore defines the interface for persistent trade storage
type TradeStore interface {
	// InsertTrade inserts a trade event into the store
	InsertTrade(ctx context.Context, trade *models.TradeEvent) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}

// TradePublisher fans trade events out to live subscribers
type TradePublisher interface {
	// PublishTrade publishes a trade event to the Pub/Sub channels
	PublishTrade(ctx context.Context, trade *models.TradeEvent) error

	// SubscribeTrades streams events from one channel until ctx is done
	SubscribeTrades(ctx context.Context, channel string) (<-chan *models.TradeEvent, error)

	io.Closer
}
