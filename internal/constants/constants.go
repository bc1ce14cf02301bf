package constants

import "time"

// Redis keys
const (
	RedisKeyPoolKeysPrefix = "pool:keys:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelTrades       = "trades:all"
	PubSubChannelWalletPrefix = "trades:wallet:"
	PubSubChannelPoolPrefix   = "trades:pool:"
)

// Feature flag keys
const (
	FlagPausedAll    = "booster.paused"
	FlagPausedPrefix = "booster.paused."
)

// Polling and backoff
const (
	SettlementPollInterval = 1 * time.Second
	SettlementTimeout      = 2 * time.Minute
	ProvisionBackoff       = 1500 * time.Millisecond
	DefaultPause           = 15 * time.Second
)

// Raydium liquidity pool fees (0.25%)
const (
	LiquidityFeesNumerator   = 25
	LiquidityFeesDenominator = 10000
)

// Token account layout size, used for the rent-exempt minimum of a wrapped SOL account.
const TokenAccountSize = 165

// NativeReserveLamports is kept unwrapped so the wallet can still pay fees.
const NativeReserveLamports = 10_000_000

// Program addresses
const (
	RaydiumAMMProgramID      = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	SerumProgramID           = "srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX"
	AssociatedTokenProgramID = "ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL"
	WrappedSOLMint           = "So11111111111111111111111111111111111111112"
)

// RaydiumPoolIndexURL lists every Raydium v4 liquidity pool with its keys.
const RaydiumPoolIndexURL = "https://api.raydium.io/v2/sdk/liquidity/mainnet.json"

// Token mint addresses to symbols
var TokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
	"Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB": "USDT",
	"mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So":  "mSOL",
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R": "RAY",
	"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263": "BONK",
	"JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN":  "JUP",
}
