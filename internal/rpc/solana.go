package rpc

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// GetBalance returns the native balance of an account in lamports.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	var resp struct {
		Result struct {
			Value uint64 `json:"value"` // lamports
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		account.String(),
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getBalance error: %w", resp.Error)
	}

	return resp.Result.Value, nil
}

// GetTokenAccountsByOwner lists the token accounts of owner holding mint,
// in the order the node returns them.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error) {
	var resp struct {
		Result struct {
			Value []struct {
				Pubkey string `json:"pubkey"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		owner.String(),
		map[string]any{"mint": mint.String()},
		map[string]any{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	if err := c.Call(ctx, "getTokenAccountsByOwner", params, &resp); err != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getTokenAccountsByOwner error: %w", resp.Error)
	}

	out := make([]solana.PublicKey, 0, len(resp.Result.Value))
	for _, v := range resp.Result.Value {
		pk, err := solana.PublicKeyFromBase58(v.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("invalid token account pubkey %q: %w", v.Pubkey, err)
		}
		out = append(out, pk)
	}
	return out, nil
}

// GetTokenAccountBalance calls getTokenAccountBalance RPC method
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*TokenAmount, error) {
	var resp struct {
		Result struct {
			Context contextSlot `json:"context"`
			Value   TokenAmount `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		account.String(),
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getTokenAccountBalance", params, &resp); err != nil {
		return nil, fmt.Errorf("getTokenAccountBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getTokenAccountBalance error: %w", resp.Error)
	}

	return &resp.Result.Value, nil
}

// GetLatestBlockhash fetches the most recent blockhash
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var resp struct {
		Result struct {
			Value struct {
				Blockhash            string `json:"blockhash"`
				LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}

	if resp.Error != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash error: %w", resp.Error)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}

	return hash, nil
}

// SendTransaction submits a signed transaction and returns its signature.
// It does not wait for confirmation.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (string, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to serialize transaction: %w", err)
	}

	opts := map[string]any{
		"encoding":            "base64",
		"skipPreflight":       c.sendOpts.SkipPreflight,
		"preflightCommitment": c.sendOpts.PreflightCommitment,
	}
	if c.sendOpts.MaxRetries != nil {
		opts["maxRetries"] = *c.sendOpts.MaxRetries
	}

	params := []any{
		base64.StdEncoding.EncodeToString(txBytes),
		opts,
	}

	var resp struct {
		Result string    `json:"result"`
		Error  *RPCError `json:"error"`
	}

	if err := c.Call(ctx, "sendTransaction", params, &resp); err != nil {
		return "", fmt.Errorf("sendTransaction RPC failed: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("sendTransaction error: code=%d, message=%s",
			resp.Error.Code, resp.Error.Message)
	}

	return resp.Result, nil
}

// SimulateTransaction simulates a transaction. A program error inside the
// simulation is reported in the result, not as an error.
func (c *Client) SimulateTransaction(ctx context.Context, tx *solana.Transaction) (*SimulationResult, error) {
	txBytes, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transaction: %w", err)
	}

	var resp struct {
		Result struct {
			Value struct {
				Err           interface{} `json:"err"`
				Logs          []string    `json:"logs"`
				UnitsConsumed uint64      `json:"unitsConsumed,omitempty"`
			} `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		base64.StdEncoding.EncodeToString(txBytes),
		map[string]any{
			"encoding":   "base64",
			"commitment": "processed",
			"sigVerify":  false,
		},
	}

	if err := c.Call(ctx, "simulateTransaction", params, &resp); err != nil {
		return nil, fmt.Errorf("simulateTransaction failed: %w", err)
	}

	if resp.Error != nil {
		return nil, fmt.Errorf("simulateTransaction error: %w", resp.Error)
	}

	return &SimulationResult{
		Err:           resp.Result.Value.Err,
		Logs:          resp.Result.Value.Logs,
		UnitsConsumed: resp.Result.Value.UnitsConsumed,
	}, nil
}

// GetFeeForMessage returns the fee the network charges for msg, or nil when
// the node cannot price it (e.g. the blockhash expired).
func (c *Client) GetFeeForMessage(ctx context.Context, msg *solana.Message) (*uint64, error) {
	msgBytes, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message: %w", err)
	}

	var resp struct {
		Result struct {
			Value *uint64 `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}

	params := []any{
		base64.StdEncoding.EncodeToString(msgBytes),
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getFeeForMessage", params, &resp); err != nil {
		return nil, fmt.Errorf("getFeeForMessage RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getFeeForMessage error: %w", resp.Error)
	}

	return resp.Result.Value, nil
}

// GetMinimumBalanceForRentExemption returns the rent-exempt minimum for an
// account of dataSize bytes.
func (c *Client) GetMinimumBalanceForRentExemption(ctx context.Context, dataSize uint64) (uint64, error) {
	var resp struct {
		Result uint64    `json:"result"`
		Error  *RPCError `json:"error"`
	}

	params := []any{
		dataSize,
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getMinimumBalanceForRentExemption", params, &resp); err != nil {
		return 0, fmt.Errorf("getMinimumBalanceForRentExemption RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getMinimumBalanceForRentExemption error: %w", resp.Error)
	}

	return resp.Result, nil
}
