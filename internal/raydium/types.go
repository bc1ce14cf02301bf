package raydium

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	// ErrDegenerateReserves means the pool reserves make pricing undefined.
	// The pool is unusable; callers must not retry.
	ErrDegenerateReserves = errors.New("degenerate pool reserves")

	// ErrMalformedSimulationOutput means the pool-info simulation did not
	// carry the expected reserve payload.
	ErrMalformedSimulationOutput = errors.New("malformed simulation output")

	ErrPoolNotFound = errors.New("pool not found")
)

// PoolKeys identifies a Raydium AMM v4 pool and its order-book market.
// Loaded once and shared read-only by every wallet trading the pool.
type PoolKeys struct {
	AmmID         solana.PublicKey `json:"amm_id"`
	ProgramID     solana.PublicKey `json:"program_id"`
	Authority     solana.PublicKey `json:"authority"`
	OpenOrders    solana.PublicKey `json:"open_orders"`
	TargetOrders  solana.PublicKey `json:"target_orders"`
	BaseMint      solana.PublicKey `json:"base_mint"`
	BaseDecimals  uint8            `json:"base_decimals"`
	QuoteMint     solana.PublicKey `json:"quote_mint"`
	QuoteDecimals uint8            `json:"quote_decimals"`
	LpMint        solana.PublicKey `json:"lp_mint"`
	BaseVault     solana.PublicKey `json:"base_vault"`
	QuoteVault    solana.PublicKey `json:"quote_vault"`

	MarketProgramID  solana.PublicKey `json:"market_program_id"`
	MarketID         solana.PublicKey `json:"market_id"`
	MarketBids       solana.PublicKey `json:"market_bids"`
	MarketAsks       solana.PublicKey `json:"market_asks"`
	MarketEventQueue solana.PublicKey `json:"market_event_queue"`
	MarketBaseVault  solana.PublicKey `json:"market_base_vault"`
	MarketQuoteVault solana.PublicKey `json:"market_quote_vault"`
	MarketAuthority  solana.PublicKey `json:"market_authority"`
}

// ReserveSnapshot is the pool state captured by one simulation. It is used
// for a single price computation and never cached.
type ReserveSnapshot struct {
	PoolCoinAmount uint64 // base reserve, raw units
	PoolPcAmount   uint64 // quote reserve, raw units
	CoinDecimals   uint8
	PcDecimals     uint8
}

// FeeSchedule is the swap fee as numerator/denominator of the input amount.
type FeeSchedule struct {
	Numerator   uint64
	Denominator uint64
}
