package cache

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/models"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/storage"
)

// PubSubManager fans trade events out over Redis Pub/Sub
type PubSubManager struct {
	client *redis.Client
	logger *logrus.Logger
}

var _ storage.TradePublisher = (*PubSubManager)(nil)

func NewPubSubManager(client *redis.Client, logger *logrus.Logger) *PubSubManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PubSubManager{client: client, logger: logger}
}

// TradeChannels lists the channels one trade is published to
func TradeChannels(trade *models.TradeEvent) []string {
	return []string{
		constants.PubSubChannelTrades,
		constants.PubSubChannelWalletPrefix + trade.Wallet,
		constants.PubSubChannelPoolPrefix + trade.Pool,
	}
}

func (p *PubSubManager) PublishTrade(ctx context.Context, trade *models.TradeEvent) error {
	data, err := sonic.Marshal(trade)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	for _, channel := range TradeChannels(trade) {
		pipe.Publish(ctx, channel, data)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// SubscribeTrades streams decoded events from channel until ctx is done.
// Undecodable messages are logged and skipped.
func (p *PubSubManager) SubscribeTrades(ctx context.Context, channel string) (<-chan *models.TradeEvent, error) {
	sub := p.client.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed before returning.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	p.logger.WithField("channel", channel).Info("subscribed")

	out := make(chan *models.TradeEvent)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var trade models.TradeEvent
				if err := sonic.UnmarshalString(msg.Payload, &trade); err != nil {
					p.logger.WithError(err).Warn("skipping undecodable trade message")
					continue
				}
				select {
				case out <- &trade:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (p *PubSubManager) Close() error {
	return p.client.Close()
}
