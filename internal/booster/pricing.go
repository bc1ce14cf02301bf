package booster

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/raydium"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// Prices are indicative quotes derived from one reserve snapshot.
type Prices struct {
	Buy      decimal.Decimal // quote paid per base, spending 100 quote
	Sell     decimal.Decimal // quote received for 1 base
	Reserves raydium.ReserveSnapshot
	At       time.Time
}

// Pricer reads pool reserves by simulating the pool-info instruction.
type Pricer struct {
	chain Chain
	pool  *raydium.PoolKeys
	fees  raydium.FeeSchedule
}

func NewPricer(chain Chain, pool *raydium.PoolKeys, fees raydium.FeeSchedule) *Pricer {
	return &Pricer{chain: chain, pool: pool, fees: fees}
}

// Snapshot simulates SimulateInfo(PoolInfo) signed by w and decodes the
// reserves it logs. Nothing is submitted.
func (p *Pricer) Snapshot(ctx context.Context, w *wallet.Wallet) (raydium.ReserveSnapshot, error) {
	ix, err := raydium.BuildSimulatePoolInfoInstruction(p.pool)
	if err != nil {
		return raydium.ReserveSnapshot{}, err
	}

	tx, err := buildSigned(ctx, p.chain, w, ix)
	if err != nil {
		return raydium.ReserveSnapshot{}, err
	}

	res, err := p.chain.SimulateTransaction(ctx, tx)
	if err != nil {
		return raydium.ReserveSnapshot{}, fmt.Errorf("simulate pool info: %w", err)
	}

	snap, err := raydium.DecodePoolInfo(res.Logs)
	if err != nil && res.Failed() {
		return raydium.ReserveSnapshot{}, fmt.Errorf("%w (simulation error: %v)", err, res.Err)
	}
	return snap, err
}

// GetPrices returns the buy and sell price for the current reserves.
func (p *Pricer) GetPrices(ctx context.Context, w *wallet.Wallet) (*Prices, error) {
	snap, err := p.Snapshot(ctx, w)
	if err != nil {
		return nil, err
	}

	buy, err := p.fees.BuyPrice(snap)
	if err != nil {
		return nil, err
	}
	sell, err := p.fees.SellPrice(snap)
	if err != nil {
		return nil, err
	}

	return &Prices{
		Buy:      buy,
		Sell:     sell,
		Reserves: snap,
		At:       time.Now().UTC(),
	}, nil
}

// MinAmountOut quotes intent against the current reserves and applies
// slippageBps. Zero slippage disables the check.
func (p *Pricer) MinAmountOut(ctx context.Context, w *wallet.Wallet, intent TradeIntent, slippageBps uint16) (uint64, error) {
	if slippageBps == 0 {
		return 0, nil
	}

	snap, err := p.Snapshot(ctx, w)
	if err != nil {
		return 0, err
	}

	reserveIn, reserveOut := snap.PoolPcAmount, snap.PoolCoinAmount
	if intent.Direction == Sell {
		reserveIn, reserveOut = snap.PoolCoinAmount, snap.PoolPcAmount
	}

	out, err := p.fees.QuoteExactIn(intent.Amount, reserveIn, reserveOut)
	if err != nil {
		return 0, err
	}
	return raydium.ApplySlippage(out, slippageBps), nil
}
