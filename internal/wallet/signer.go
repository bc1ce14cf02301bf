package wallet

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// SignTx signs a transaction with the wallet's private key
func (w *Wallet) SignTx(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(w.pub) {
			return &w.priv
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

// NewTransaction creates an unsigned transaction paid for by this wallet.
func (w *Wallet) NewTransaction(
	instructions []solana.Instruction,
	recentBlockhash solana.Hash,
) (*solana.Transaction, error) {

	tx, err := solana.NewTransaction(
		instructions,
		recentBlockhash,
		solana.TransactionPayer(w.pub),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	return tx, nil
}

// NewSignedTransaction builds and signs a transaction in one step.
func (w *Wallet) NewSignedTransaction(
	instructions []solana.Instruction,
	recentBlockhash solana.Hash,
) (*solana.Transaction, error) {

	tx, err := w.NewTransaction(instructions, recentBlockhash)
	if err != nil {
		return nil, err
	}

	if err := w.SignTx(tx); err != nil {
		return nil, err
	}

	return tx, nil
}
