package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// AMM v4 instruction discriminators
const (
	instructionSimulateInfo = 12
	instructionSwapBaseIn   = 9

	simulatePoolInfo = 0
)

// BuildSwapInstruction constructs a SwapBaseIn instruction. The program
// infers direction from the mint of userSource: quote->base buys, base->quote sells.
func BuildSwapInstruction(
	pool *PoolKeys,
	amountIn uint64,
	minAmountOut uint64,
	userOwner solana.PublicKey, // The signer (user's wallet)
	userSource solana.PublicKey, // User's source token account
	userDestination solana.PublicKey, // User's destination token account
) (solana.Instruction, error) {

	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}
	if userSource.IsZero() || userDestination.IsZero() {
		return nil, fmt.Errorf("user token accounts must be resolved before swapping")
	}

	// SwapBaseIn account order:
	// 0. token program
	// 1. amm id
	// 2. amm authority
	// 3. amm open orders
	// 4. amm target orders
	// 5. pool coin vault
	// 6. pool pc vault
	// 7. serum program
	// 8. serum market
	// 9. serum bids
	// 10. serum asks
	// 11. serum event queue
	// 12. serum coin vault
	// 13. serum pc vault
	// 14. serum vault signer
	// 15. user source token account
	// 16. user destination token account
	// 17. user owner (signer)
	accounts := []*solana.AccountMeta{
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: pool.AmmID, IsWritable: true, IsSigner: false},
		{PublicKey: pool.Authority, IsWritable: false, IsSigner: false},
		{PublicKey: pool.OpenOrders, IsWritable: true, IsSigner: false},
		{PublicKey: pool.TargetOrders, IsWritable: true, IsSigner: false},
		{PublicKey: pool.BaseVault, IsWritable: true, IsSigner: false},
		{PublicKey: pool.QuoteVault, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: pool.MarketID, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketBids, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketAsks, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketEventQueue, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketBaseVault, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketQuoteVault, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketAuthority, IsWritable: false, IsSigner: false},
		{PublicKey: userSource, IsWritable: true, IsSigner: false},
		{PublicKey: userDestination, IsWritable: true, IsSigner: false},
		{PublicKey: userOwner, IsWritable: false, IsSigner: true},
	}

	// [0] = discriminator, [1:9] = amount_in (u64 LE), [9:17] = minimum_amount_out (u64 LE)
	data := make([]byte, 17)
	data[0] = instructionSwapBaseIn
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	return solana.NewInstruction(pool.ProgramID, accounts, data), nil
}

// BuildSimulatePoolInfoInstruction asks the program to log its pool state.
// It is only ever simulated, never sent.
func BuildSimulatePoolInfoInstruction(pool *PoolKeys) (solana.Instruction, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: pool.AmmID, IsWritable: false, IsSigner: false},
		{PublicKey: pool.Authority, IsWritable: false, IsSigner: false},
		{PublicKey: pool.OpenOrders, IsWritable: false, IsSigner: false},
		{PublicKey: pool.BaseVault, IsWritable: false, IsSigner: false},
		{PublicKey: pool.QuoteVault, IsWritable: false, IsSigner: false},
		{PublicKey: pool.LpMint, IsWritable: false, IsSigner: false},
		{PublicKey: pool.MarketID, IsWritable: false, IsSigner: false},
		{PublicKey: pool.MarketEventQueue, IsWritable: false, IsSigner: false},
	}

	data := []byte{instructionSimulateInfo, simulatePoolInfo}

	return solana.NewInstruction(pool.ProgramID, accounts, data), nil
}
