package booster

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

// Direction of a swap relative to the base token.
type Direction int

const (
	Buy  Direction = iota // quote -> base
	Sell                  // base -> quote
)

func (d Direction) String() string {
	switch d {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// TradeIntent is one leg of a cycle. Amount is in raw units of the input token.
type TradeIntent struct {
	Direction Direction
	Amount    uint64
}

// BalanceSnapshot holds both legs of a wallet. Snapshots are compared with ==.
type BalanceSnapshot struct {
	BaseRaw  uint64
	QuoteRaw uint64
	BaseUI   float64
	QuoteUI  float64
}

// IsZero reports whether both raw balances are zero.
func (b BalanceSnapshot) IsZero() bool {
	return b.BaseRaw == 0 && b.QuoteRaw == 0
}

// WalletState is owned by exactly one engine. Accounts stay nil until provisioned.
type WalletState struct {
	Wallet       *wallet.Wallet
	BaseAccount  *solana.PublicKey
	QuoteAccount *solana.PublicKey
}

func (s WalletState) provisioned() bool {
	return s.BaseAccount != nil && s.QuoteAccount != nil
}

// SwapLegs are the token accounts a swap debits and credits.
type SwapLegs struct {
	Source      solana.PublicKey
	Destination solana.PublicKey
}

// Receipt describes a submitted swap. Submission does not imply settlement.
type Receipt struct {
	Signature    string
	Wallet       string
	Direction    Direction
	AmountIn     uint64
	MinAmountOut uint64
	SubmittedAt  time.Time
}

// Phase of the per-wallet state machine.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseProvisioned
	PhaseBuying
	PhaseSelling
	PhaseRotating
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseProvisioned:
		return "provisioned"
	case PhaseBuying:
		return "buying"
	case PhaseSelling:
		return "selling"
	case PhaseRotating:
		return "rotating"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}
