package booster

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/raydium"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// Executor submits single-instruction swaps against one pool.
type Executor struct {
	chain  Chain
	pool   *raydium.PoolKeys
	logger *logrus.Logger
}

func NewExecutor(chain Chain, pool *raydium.PoolKeys, logger *logrus.Logger) *Executor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Executor{
		chain:  chain,
		pool:   pool,
		logger: logger,
	}
}

// Swap signs and submits a SwapBaseIn for intent. It returns once the node
// accepts the transaction; settlement is observed through balances.
func (e *Executor) Swap(ctx context.Context, w *wallet.Wallet, legs SwapLegs, intent TradeIntent, minAmountOut uint64) (*Receipt, error) {
	if intent.Amount == 0 {
		return nil, fmt.Errorf("%w: %s amount is zero", ErrInvalidAmount, intent.Direction)
	}

	log := e.logger.WithFields(logrus.Fields{
		"wallet":    w.Address(),
		"direction": intent.Direction.String(),
		"amount":    intent.Amount,
	})

	ix, err := raydium.BuildSwapInstruction(
		e.pool,
		intent.Amount,
		minAmountOut,
		w.PublicKey(),
		legs.Source,
		legs.Destination,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: build instruction: %w", ErrSwapFailed, err)
	}

	log.Info("submitting swap")
	sig, err := signAndSend(ctx, e.chain, w, ix)
	if err != nil {
		log.WithError(err).Error("swap submission failed")
		return nil, fmt.Errorf("%w: %s %d: %w", ErrSwapFailed, intent.Direction, intent.Amount, err)
	}

	log.WithField("signature", sig).Info("swap submitted")
	return &Receipt{
		Signature:    sig,
		Wallet:       w.Address(),
		Direction:    intent.Direction,
		AmountIn:     intent.Amount,
		MinAmountOut: minAmountOut,
		SubmittedAt:  time.Now().UTC(),
	}, nil
}
