package booster

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/metrics"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// feeFallbackDataSize is used for the rent-exempt minimum when the node
// cannot price the transfer message.
const feeFallbackDataSize = 1

// ChangeWallet moves the native balance to a freshly generated wallet and
// re-provisions its token accounts. The new secret is persisted before any
// funds move. On ErrRotationAborted the engine keeps its current wallet.
// Token balances stay with the old wallet.
func (e *PoolEngine) ChangeWallet(ctx context.Context) error {
	prevPhase := e.phase
	e.phase = PhaseRotating

	old := e.state.Wallet
	next, err := e.prepareRotation(ctx, old)
	if err != nil {
		metrics.Rotations.WithLabelValues("aborted").Inc()
		e.phase = prevPhase
		return err
	}

	log := e.log.WithField("new_wallet", next.wallet.Address())
	sig, err := signAndSend(ctx, e.chain, old, NewSystemTransferIx(old.PublicKey(), next.wallet.PublicKey(), next.amount))
	if err != nil {
		metrics.Rotations.WithLabelValues("aborted").Inc()
		e.phase = prevPhase
		return fmt.Errorf("%w: transfer: %w", ErrRotationAborted, err)
	}
	metrics.Rotations.WithLabelValues("submitted").Inc()

	log.WithFields(logrus.Fields{
		"signature": sig,
		"lamports":  next.amount,
		"fee":       next.fee,
	}).Info("wallet change submitted")

	// The old wallet is drained from here on; adopt the new one even if the
	// wait below fails so Run re-provisions it.
	e.state = WalletState{Wallet: next.wallet}
	e.phase = PhaseUninitialized
	e.setLogger()

	err = pollUntil(ctx, e.cfg.Settlement, func(ctx context.Context) bool {
		bal, err := e.chain.GetBalance(ctx, next.wallet.PublicKey())
		return err == nil && bal > 0
	})
	if err != nil {
		return fmt.Errorf("wait for new wallet funds: %w", err)
	}

	return e.InitAccounts(ctx)
}

type rotation struct {
	wallet *wallet.Wallet
	amount uint64
	fee    uint64
}

func (e *PoolEngine) prepareRotation(ctx context.Context, old *wallet.Wallet) (*rotation, error) {
	if e.cfg.Keys == nil {
		return nil, fmt.Errorf("%w: no key store configured", ErrRotationAborted)
	}

	next, err := wallet.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRotationAborted, err)
	}

	balance, err := e.chain.GetBalance(ctx, old.PublicKey())
	if err != nil {
		return nil, fmt.Errorf("%w: get balance: %w", ErrRotationAborted, err)
	}

	fee, err := e.estimateTransferFee(ctx, old, next.PublicKey(), balance)
	if err != nil {
		return nil, fmt.Errorf("%w: estimate fee: %w", ErrRotationAborted, err)
	}

	e.log.WithFields(logrus.Fields{
		"balance": balance,
		"fee":     fee,
	}).Info("rotating wallet")

	if balance <= fee {
		return nil, fmt.Errorf("%w: balance %d does not cover fee %d", ErrRotationAborted, balance, fee)
	}

	if err := e.cfg.Keys.Save(next.Address(), next.Secret()); err != nil {
		return nil, fmt.Errorf("%w: persist new key: %w", ErrRotationAborted, err)
	}

	return &rotation{wallet: next, amount: balance - fee, fee: fee}, nil
}

// estimateTransferFee prices the transfer message; a node that cannot price
// it yields the rent-exempt minimum for a one-byte account instead.
func (e *PoolEngine) estimateTransferFee(ctx context.Context, from *wallet.Wallet, to solana.PublicKey, lamports uint64) (uint64, error) {
	hash, err := e.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return 0, fmt.Errorf("get latest blockhash: %w", err)
	}

	tx, err := from.NewTransaction([]solana.Instruction{
		NewSystemTransferIx(from.PublicKey(), to, lamports),
	}, hash)
	if err != nil {
		return 0, err
	}

	fee, err := e.chain.GetFeeForMessage(ctx, &tx.Message)
	if err != nil {
		return 0, err
	}
	if fee != nil {
		return *fee, nil
	}

	e.log.Warn("fee estimate unavailable, using rent-exempt minimum")
	return e.chain.GetMinimumBalanceForRentExemption(ctx, feeFallbackDataSize)
}
