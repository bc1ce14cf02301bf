package booster

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/rpc"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// Chain is the subset of the Solana JSON-RPC surface the engine needs.
// Implementations must be safe for concurrent use; one is shared by all wallets.
type Chain interface {
	GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.TokenAmount, error)
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendTransaction(ctx context.Context, tx *solana.Transaction) (string, error)
	SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*rpc.SimulationResult, error)
	GetFeeForMessage(ctx context.Context, msg *solana.Message) (*uint64, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error)
}

var _ Chain = (*rpc.Client)(nil)

// buildSigned fetches a fresh blockhash and returns a transaction signed by w.
func buildSigned(ctx context.Context, chain Chain, w *wallet.Wallet, ixs ...solana.Instruction) (*solana.Transaction, error) {
	hash, err := chain.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, fmt.Errorf("get latest blockhash: %w", err)
	}
	return w.NewSignedTransaction(ixs, hash)
}

// signAndSend submits ixs as one transaction paid and signed by w.
// It does not wait for confirmation.
func signAndSend(ctx context.Context, chain Chain, w *wallet.Wallet, ixs ...solana.Instruction) (string, error) {
	tx, err := buildSigned(ctx, chain, w, ixs...)
	if err != nil {
		return "", err
	}
	return chain.SendTransaction(ctx, tx)
}
