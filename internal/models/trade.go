package models

import (
	"time"

	"github.com/google/uuid"
)

// TradeEvent is one submitted swap as recorded in the trade journal.
type TradeEvent struct {
	ID           string    `json:"id"`
	Signature    string    `json:"signature"`
	Timestamp    time.Time `json:"timestamp"`
	Wallet       string    `json:"wallet"`
	Pool         string    `json:"pool"`
	Pair         string    `json:"pair"`      // e.g., "BONK/SOL"
	Direction    string    `json:"direction"` // "buy" or "sell"
	TokenIn      string    `json:"token_in"`
	TokenOut     string    `json:"token_out"`
	AmountIn     uint64    `json:"amount_in"`
	MinAmountOut uint64    `json:"min_amount_out"`
}

// NewTradeEvent stamps a new event with a fresh id.
func NewTradeEvent(signature string, at time.Time) *TradeEvent {
	return &TradeEvent{
		ID:        uuid.NewString(),
		Signature: signature,
		Timestamp: at,
	}
}
