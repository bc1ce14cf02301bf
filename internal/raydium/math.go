package raydium

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
)

// DefaultFeeSchedule matches the Raydium AMM v4 on-chain swap fee (0.25%).
var DefaultFeeSchedule = FeeSchedule{
	Numerator:   constants.LiquidityFeesNumerator,
	Denominator: constants.LiquidityFeesDenominator,
}

// priceScale is the number of fractional digits kept by every division.
const priceScale = 24

// Quote sizes used for indicative prices: sell 1 base unit, spend 100 quote units.
const (
	sellQuoteUnits = 1
	buyQuoteUnits  = 100
)

// Validate rejects schedules that would make the net input non-positive.
func (f FeeSchedule) Validate() error {
	if f.Denominator == 0 {
		return fmt.Errorf("fee denominator cannot be 0")
	}
	if f.Numerator >= f.Denominator {
		return fmt.Errorf("fee %d/%d takes the whole input", f.Numerator, f.Denominator)
	}
	return nil
}

// SellPrice is the quote received for selling exactly one whole base token,
// expressed in whole quote tokens.
func (f FeeSchedule) SellPrice(s ReserveSnapshot) (decimal.Decimal, error) {
	if err := f.check(s); err != nil {
		return decimal.Zero, err
	}

	amountIn := decimal.New(sellQuoteUnits, int32(s.CoinDecimals))
	amountOut := f.amountOut(amountIn, fromUint64(s.PoolCoinAmount), fromUint64(s.PoolPcAmount))
	if !amountOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: sell output is zero", ErrDegenerateReserves)
	}

	return amountOut.Shift(-int32(s.PcDecimals)), nil
}

// BuyPrice spends 100 whole quote tokens and returns the effective quote
// paid per whole base token received.
func (f FeeSchedule) BuyPrice(s ReserveSnapshot) (decimal.Decimal, error) {
	if err := f.check(s); err != nil {
		return decimal.Zero, err
	}

	amountIn := decimal.New(buyQuoteUnits, int32(s.PcDecimals))
	amountOut := f.amountOut(amountIn, fromUint64(s.PoolPcAmount), fromUint64(s.PoolCoinAmount))
	if !amountOut.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: buy output is zero", ErrDegenerateReserves)
	}

	received := amountOut.Shift(-int32(s.CoinDecimals))
	return decimal.NewFromInt(buyQuoteUnits).DivRound(received, priceScale), nil
}

// ComputeSellPrice prices a 1-unit sell with the default fee schedule.
func ComputeSellPrice(s ReserveSnapshot) (decimal.Decimal, error) {
	return DefaultFeeSchedule.SellPrice(s)
}

// ComputeBuyPrice prices a 100-quote-unit buy with the default fee schedule.
func ComputeBuyPrice(s ReserveSnapshot) (decimal.Decimal, error) {
	return DefaultFeeSchedule.BuyPrice(s)
}

func (f FeeSchedule) check(s ReserveSnapshot) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if s.PoolCoinAmount == 0 || s.PoolPcAmount == 0 {
		return fmt.Errorf("%w: coin=%d pc=%d", ErrDegenerateReserves, s.PoolCoinAmount, s.PoolPcAmount)
	}
	return nil
}

// amountOut applies x*y=k with the fee taken from the input:
// out = reserveOut * net / (reserveIn + net), net = in - in*num/den.
func (f FeeSchedule) amountOut(amountIn, reserveIn, reserveOut decimal.Decimal) decimal.Decimal {
	fee := amountIn.Mul(fromUint64(f.Numerator)).DivRound(fromUint64(f.Denominator), priceScale)
	net := amountIn.Sub(fee)
	return reserveOut.Mul(net).DivRound(reserveIn.Add(net), priceScale)
}

// QuoteExactIn returns the raw output the pool pays for amountIn, rounded
// down the way the program does.
func (f FeeSchedule) QuoteExactIn(amountIn, reserveIn, reserveOut uint64) (uint64, error) {
	if err := f.Validate(); err != nil {
		return 0, err
	}
	if reserveIn == 0 || reserveOut == 0 {
		return 0, fmt.Errorf("%w: reserveIn=%d reserveOut=%d", ErrDegenerateReserves, reserveIn, reserveOut)
	}
	if amountIn == 0 {
		return 0, nil
	}

	// Use big.Int to prevent overflow
	in := new(big.Int).SetUint64(amountIn)
	fee := new(big.Int).Mul(in, new(big.Int).SetUint64(f.Numerator))
	fee.Div(fee, new(big.Int).SetUint64(f.Denominator))
	net := new(big.Int).Sub(in, fee)

	numerator := new(big.Int).Mul(net, new(big.Int).SetUint64(reserveOut))
	denominator := new(big.Int).Add(new(big.Int).SetUint64(reserveIn), net)
	out := numerator.Div(numerator, denominator)

	if !out.IsUint64() {
		return 0, fmt.Errorf("output amount overflow")
	}
	return out.Uint64(), nil
}

// ApplySlippage calculates minimum output with slippage tolerance
// slippageBps: basis points (e.g., 100 = 1%, 50 = 0.5%)
func ApplySlippage(amountOut uint64, slippageBps uint16) uint64 {
	if slippageBps >= 10000 {
		return 0
	}

	result := new(big.Int).Mul(
		new(big.Int).SetUint64(amountOut),
		new(big.Int).SetUint64(10000-uint64(slippageBps)),
	)
	result.Div(result, big.NewInt(10000))

	return result.Uint64()
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
