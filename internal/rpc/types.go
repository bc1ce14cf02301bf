package rpc

import (
	"fmt"
	"strconv"
)

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       int     `json:"decimals"`
	UIAmountString string  `json:"uiAmountString"`
	UIAmount       float64 `json:"uiAmount"`
}

// Raw parses the integer base-unit amount.
func (t *TokenAmount) Raw() (uint64, error) {
	v, err := strconv.ParseUint(t.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount format %q: %w", t.Amount, err)
	}
	return v, nil
}

// SimulationResult contains simulation output
type SimulationResult struct {
	Err           interface{}
	Logs          []string
	UnitsConsumed uint64
}

// Failed reports whether the simulated transaction returned an error.
func (s *SimulationResult) Failed() bool {
	return s.Err != nil
}

// SendOptions configures transaction sending behavior
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *int
}

// DefaultSendOptions returns recommended send settings
func DefaultSendOptions() SendOptions {
	maxRetries := 3
	return SendOptions{
		SkipPreflight:       false,
		PreflightCommitment: "processed",
		MaxRetries:          &maxRetries,
	}
}

type contextSlot struct {
	Slot uint64 `json:"slot"`
}
