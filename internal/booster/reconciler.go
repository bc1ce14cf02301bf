package booster

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// Reconciler reads wallet balances and waits for swaps to settle.
type Reconciler struct {
	chain  Chain
	poll   PollPolicy
	logger *logrus.Logger
}

func NewReconciler(chain Chain, poll PollPolicy, logger *logrus.Logger) *Reconciler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reconciler{chain: chain, poll: poll, logger: logger}
}

// GetBalances queries both legs independently. A leg that is unresolved or
// fails to load reads as zero.
func (r *Reconciler) GetBalances(ctx context.Context, state WalletState) BalanceSnapshot {
	var snap BalanceSnapshot
	snap.BaseRaw, snap.BaseUI = r.leg(ctx, state.BaseAccount)
	snap.QuoteRaw, snap.QuoteUI = r.leg(ctx, state.QuoteAccount)
	return snap
}

func (r *Reconciler) leg(ctx context.Context, account *solana.PublicKey) (uint64, float64) {
	if account == nil {
		return 0, 0
	}
	amount, err := r.chain.GetTokenAccountBalance(ctx, *account)
	if err != nil {
		r.logger.WithError(err).WithField("account", account.String()).Debug("token balance unavailable")
		return 0, 0
	}
	raw, err := amount.Raw()
	if err != nil {
		r.logger.WithError(err).WithField("account", account.String()).Debug("token balance unparsable")
		return 0, 0
	}
	return raw, amount.UIAmount
}

// WaitForSettlement polls until the balances differ from baseline and are not
// both zero. The zero snapshot is what a transient read failure looks like.
func (r *Reconciler) WaitForSettlement(ctx context.Context, state WalletState, baseline BalanceSnapshot) (BalanceSnapshot, error) {
	var after BalanceSnapshot
	err := pollUntil(ctx, r.poll, func(ctx context.Context) bool {
		after = r.GetBalances(ctx, state)
		return after != baseline && !after.IsZero()
	})
	if err != nil {
		return BalanceSnapshot{}, err
	}

	fields := logrus.Fields{
		"base_before":  baseline.BaseRaw,
		"quote_before": baseline.QuoteRaw,
		"base_after":   after.BaseRaw,
		"quote_after":  after.QuoteRaw,
	}
	if state.Wallet != nil {
		fields["wallet"] = state.Wallet.Address()
	}
	r.logger.WithFields(fields).Info("balances changed")
	return after, nil
}
