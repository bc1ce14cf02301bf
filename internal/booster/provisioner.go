package booster

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// Provisioner makes sure a wallet holds a token account for each pool mint.
type Provisioner struct {
	chain  Chain
	retry  RetryPolicy
	poll   PollPolicy
	logger *logrus.Logger

	// nativeReserve lamports stay unwrapped to pay transaction fees.
	nativeReserve uint64
}

func NewProvisioner(chain Chain, retry RetryPolicy, poll PollPolicy, nativeReserve uint64, logger *logrus.Logger) *Provisioner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Provisioner{
		chain:         chain,
		retry:         retry,
		poll:          poll,
		logger:        logger,
		nativeReserve: nativeReserve,
	}
}

// EnsureAccount returns the wallet's token account for mint, creating it when
// none exists. For the native mint it wraps the spendable SOL balance.
// Lookups and submissions are retried under the provisioner's RetryPolicy.
func (p *Provisioner) EnsureAccount(ctx context.Context, w *wallet.Wallet, mint solana.PublicKey) (solana.PublicKey, error) {
	log := p.logger.WithFields(logrus.Fields{
		"wallet": w.Address(),
		"mint":   mint.String(),
	})

	var account solana.PublicKey
	err := p.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		acct, err := p.ensureOnce(ctx, w, mint, log)
		if err != nil {
			log.WithError(err).WithField("attempt", attempt).Warn("token account not ready")
			return err
		}
		account = acct
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return solana.PublicKey{}, err
		}
		return solana.PublicKey{}, fmt.Errorf("%w: mint %s: %w", ErrAccountProvisionFailed, mint, err)
	}

	log.WithField("account", account.String()).Debug("token account resolved")
	return account, nil
}

func (p *Provisioner) ensureOnce(ctx context.Context, w *wallet.Wallet, mint solana.PublicKey, log *logrus.Entry) (solana.PublicKey, error) {
	owner := w.PublicKey()

	existing, err := p.lookup(ctx, owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if !existing.IsZero() {
		return existing, nil
	}

	if mint.Equals(wrappedSOLMint) {
		log.Info("no wrapped SOL account, wrapping native balance")
		err = p.wrap(ctx, w)
	} else {
		log.Info("no token account, creating associated account")
		err = p.createATA(ctx, w, mint)
	}
	if err != nil {
		return solana.PublicKey{}, err
	}

	var found solana.PublicKey
	err = pollUntil(ctx, p.poll, func(ctx context.Context) bool {
		acct, lookupErr := p.lookup(ctx, owner, mint)
		if lookupErr != nil {
			log.WithError(lookupErr).Debug("token account lookup failed while waiting")
			return false
		}
		found = acct
		return !acct.IsZero()
	})
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("wait for token account: %w", err)
	}
	return found, nil
}

// lookup returns the last token account owner holds for mint, or the zero key.
func (p *Provisioner) lookup(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	accounts, err := p.chain.GetTokenAccountsByOwner(ctx, owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("get token accounts: %w", err)
	}
	if len(accounts) == 0 {
		return solana.PublicKey{}, nil
	}
	return accounts[len(accounts)-1], nil
}

func (p *Provisioner) createATA(ctx context.Context, w *wallet.Wallet, mint solana.PublicKey) error {
	owner := w.PublicKey()
	ata, _, err := FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return permanent(fmt.Errorf("derive associated token address: %w", err))
	}

	sig, err := signAndSend(ctx, p.chain, w, NewCreateAssociatedTokenAccountIx(owner, ata, owner, mint))
	if err != nil {
		return fmt.Errorf("create associated token account: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"wallet":    w.Address(),
		"account":   ata.String(),
		"signature": sig,
	}).Info("token account creation submitted")
	return nil
}

// wrap moves everything above rent and the fee reserve into a new wSOL account.
func (p *Provisioner) wrap(ctx context.Context, w *wallet.Wallet) error {
	owner := w.PublicKey()

	balance, err := p.chain.GetBalance(ctx, owner)
	if err != nil {
		return fmt.Errorf("get native balance: %w", err)
	}
	rent, err := p.chain.GetMinimumBalanceForRentExemption(ctx, constants.TokenAccountSize)
	if err != nil {
		return fmt.Errorf("get token account rent: %w", err)
	}

	keep := rent + p.nativeReserve
	if balance <= keep {
		return fmt.Errorf("%w: balance %d, need more than %d", ErrNothingToWrap, balance, keep)
	}
	amount := balance - keep

	ata, _, err := FindAssociatedTokenAddress(owner, wrappedSOLMint)
	if err != nil {
		return permanent(fmt.Errorf("derive associated token address: %w", err))
	}

	sig, err := signAndSend(ctx, p.chain, w, newWrapSOLIxs(owner, ata, amount)...)
	if err != nil {
		return fmt.Errorf("wrap SOL: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"wallet":    w.Address(),
		"account":   ata.String(),
		"lamports":  amount,
		"signature": sig,
	}).Info("SOL wrap submitted")
	return nil
}

// Unwrap closes the wallet's wSOL account and waits until the native balance
// rises. It is a no-op when the wallet holds no wSOL account.
func (p *Provisioner) Unwrap(ctx context.Context, w *wallet.Wallet) (string, error) {
	owner := w.PublicKey()
	log := p.logger.WithField("wallet", w.Address())

	account, err := p.lookup(ctx, owner, wrappedSOLMint)
	if err != nil {
		return "", err
	}
	if account.IsZero() {
		log.Info("no wrapped SOL account to close")
		return "", nil
	}

	before, err := p.chain.GetBalance(ctx, owner)
	if err != nil {
		return "", fmt.Errorf("get native balance: %w", err)
	}

	log.WithField("account", account.String()).Info("unwrapping SOL")
	sig, err := signAndSend(ctx, p.chain, w, NewTokenCloseAccountIx(account, owner, owner))
	if err != nil {
		return "", fmt.Errorf("close wrapped SOL account: %w", err)
	}

	var after uint64
	err = pollUntil(ctx, p.poll, func(ctx context.Context) bool {
		bal, err := p.chain.GetBalance(ctx, owner)
		if err != nil {
			return false
		}
		after = bal
		return bal > before
	})
	if err != nil {
		return sig, fmt.Errorf("wait for unwrapped balance: %w", err)
	}

	log.WithFields(logrus.Fields{
		"signature": sig,
		"before":    before,
		"after":     after,
	}).Info("SOL unwrapped")
	return sig, nil
}
