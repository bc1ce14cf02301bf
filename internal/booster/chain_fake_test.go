package booster

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/raydium"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/rpc"
	"github.com/aman-zulfiqar/solana-volume-booster/internal/wallet"
)

const (
	fakeTokenRent   = 2039280
	fakeOneByteRent = 890880
	fakeDecimals    = 6
)

var raydiumProgramID = solana.MustPublicKeyFromBase58(constants.RaydiumAMMProgramID)

type fakeTokenAccount struct {
	owner  solana.PublicKey
	mint   solana.PublicKey
	amount uint64
}

// fakeChain is an in-memory ledger that applies the effects of the
// instructions the engine builds.
type fakeChain struct {
	mu sync.Mutex

	lamports map[solana.PublicKey]uint64
	accounts map[solana.PublicKey]*fakeTokenAccount
	order    []solana.PublicKey

	// scripts override GetTokenAccountBalance per account; the last value sticks.
	scripts map[solana.PublicKey][]uint64

	sent         []*solana.Transaction
	sendAttempts int
	sendErr      error
	failLookups  int

	fee     *uint64
	feeErr  error
	simLogs []string

	swapOut func(srcMint solana.PublicKey, amountIn uint64) uint64
}

func newFakeChain() *fakeChain {
	fee := uint64(5000)
	return &fakeChain{
		lamports: make(map[solana.PublicKey]uint64),
		accounts: make(map[solana.PublicKey]*fakeTokenAccount),
		scripts:  make(map[solana.PublicKey][]uint64),
		fee:      &fee,
		swapOut:  func(_ solana.PublicKey, in uint64) uint64 { return in },
	}
}

func (f *fakeChain) addTokenAccount(owner, mint solana.PublicKey, amount uint64) solana.PublicKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	account := solana.NewWallet().PublicKey()
	f.putAccount(account, owner, mint, amount)
	return account
}

func (f *fakeChain) putAccount(account, owner, mint solana.PublicKey, amount uint64) {
	if _, ok := f.accounts[account]; ok {
		return
	}
	f.accounts[account] = &fakeTokenAccount{owner: owner, mint: mint, amount: amount}
	f.order = append(f.order, account)
}

func (f *fakeChain) setLamports(pk solana.PublicKey, v uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lamports[pk] = v
}

func (f *fakeChain) lamportsOf(pk solana.PublicKey) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lamports[pk]
}

func (f *fakeChain) tokenAmount(account solana.PublicKey) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ta, ok := f.accounts[account]; ok {
		return ta.amount
	}
	return 0
}

func (f *fakeChain) sentTxs() []*solana.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*solana.Transaction(nil), f.sent...)
}

func (f *fakeChain) GetBalance(_ context.Context, account solana.PublicKey) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lamports[account], nil
}

func (f *fakeChain) GetTokenAccountsByOwner(_ context.Context, owner, mint solana.PublicKey) ([]solana.PublicKey, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLookups > 0 {
		f.failLookups--
		return nil, &rpc.RPCError{Code: -32005, Message: "node is behind"}
	}
	var out []solana.PublicKey
	for _, pk := range f.order {
		ta, ok := f.accounts[pk]
		if ok && ta.owner.Equals(owner) && ta.mint.Equals(mint) {
			out = append(out, pk)
		}
	}
	return out, nil
}

func (f *fakeChain) GetTokenAccountBalance(_ context.Context, account solana.PublicKey) (*rpc.TokenAmount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var raw uint64
	if script, ok := f.scripts[account]; ok && len(script) > 0 {
		raw = script[0]
		if len(script) > 1 {
			f.scripts[account] = script[1:]
		}
	} else if ta, ok := f.accounts[account]; ok {
		raw = ta.amount
	} else {
		return nil, &rpc.RPCError{Code: -32602, Message: "could not find account"}
	}

	return &rpc.TokenAmount{
		Amount:   strconv.FormatUint(raw, 10),
		Decimals: fakeDecimals,
		UIAmount: float64(raw) / 1e6,
	}, nil
}

func (f *fakeChain) GetLatestBlockhash(_ context.Context) (solana.Hash, error) {
	return solana.Hash{1, 2, 3}, nil
}

func (f *fakeChain) SendTransaction(_ context.Context, tx *solana.Transaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendAttempts++
	if f.sendErr != nil {
		return "", f.sendErr
	}
	if err := f.apply(tx); err != nil {
		return "", err
	}
	f.sent = append(f.sent, tx)
	return tx.Signatures[0].String(), nil
}

func (f *fakeChain) SimulateTransaction(_ context.Context, _ *solana.Transaction) (*rpc.SimulationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &rpc.SimulationResult{Logs: f.simLogs}, nil
}

func (f *fakeChain) GetFeeForMessage(_ context.Context, _ *solana.Message) (*uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fee, f.feeErr
}

func (f *fakeChain) GetMinimumBalanceForRentExemption(_ context.Context, dataSize uint64) (uint64, error) {
	if dataSize == constants.TokenAccountSize {
		return fakeTokenRent, nil
	}
	return fakeOneByteRent, nil
}

// apply executes the instructions in tx against the ledger. Callers hold mu.
func (f *fakeChain) apply(tx *solana.Transaction) error {
	keys := tx.Message.AccountKeys
	for _, ci := range tx.Message.Instructions {
		program := keys[ci.ProgramIDIndex]
		acc := func(i int) solana.PublicKey { return keys[ci.Accounts[i]] }
		data := []byte(ci.Data)

		switch {
		case program.Equals(associatedTokenProgramID):
			f.putAccount(acc(1), acc(2), acc(3), 0)

		case program.Equals(solana.SystemProgramID):
			lamports := binary.LittleEndian.Uint64(data[4:12])
			from, to := acc(0), acc(1)
			if f.lamports[from] < lamports {
				return fmt.Errorf("insufficient lamports: have %d, need %d", f.lamports[from], lamports)
			}
			f.lamports[from] -= lamports
			if ta, ok := f.accounts[to]; ok {
				ta.amount += lamports
			} else {
				f.lamports[to] += lamports
			}

		case program.Equals(solana.TokenProgramID):
			if data[0] == tokenIxCloseAccount {
				ta, ok := f.accounts[acc(0)]
				if !ok {
					return errors.New("close: account not found")
				}
				f.lamports[acc(1)] += ta.amount + fakeTokenRent
				delete(f.accounts, acc(0))
			}

		case program.Equals(raydiumProgramID):
			amountIn := binary.LittleEndian.Uint64(data[1:9])
			src, ok := f.accounts[acc(15)]
			if !ok {
				return errors.New("swap: source account not found")
			}
			dst, ok := f.accounts[acc(16)]
			if !ok {
				return errors.New("swap: destination account not found")
			}
			if src.amount < amountIn {
				return fmt.Errorf("swap: insufficient funds: have %d, need %d", src.amount, amountIn)
			}
			src.amount -= amountIn
			dst.amount += f.swapOut(src.mint, amountIn)
		}
	}
	return nil
}

// swapOf decodes the first swap instruction of tx.
func swapOf(tx *solana.Transaction) (source solana.PublicKey, amountIn, minOut uint64, ok bool) {
	keys := tx.Message.AccountKeys
	for _, ci := range tx.Message.Instructions {
		if !keys[ci.ProgramIDIndex].Equals(raydiumProgramID) {
			continue
		}
		data := []byte(ci.Data)
		return keys[ci.Accounts[15]],
			binary.LittleEndian.Uint64(data[1:9]),
			binary.LittleEndian.Uint64(data[9:17]),
			true
	}
	return solana.PublicKey{}, 0, 0, false
}

type memoryKeyStore struct {
	mu   sync.Mutex
	keys map[string]string
	err  error
}

func (m *memoryKeyStore) Save(address, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.keys == nil {
		m.keys = make(map[string]string)
	}
	m.keys[address] = secret
	return nil
}

type staticFlags struct {
	paused bool
	err    error
}

func (s staticFlags) Paused(context.Context, string) (bool, error) {
	return s.paused, s.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

var (
	fastPoll  = PollPolicy{Interval: time.Millisecond, Timeout: 500 * time.Millisecond}
	fastRetry = RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond}
)

func testEngineConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.Symbol = "TKN/USDC"
	cfg.Pause = 0
	cfg.Settlement = fastPoll
	cfg.Provision = fastRetry
	cfg.Logger = quietLogger()
	return cfg
}

func testPool(baseMint, quoteMint solana.PublicKey) *raydium.PoolKeys {
	k := func() solana.PublicKey { return solana.NewWallet().PublicKey() }
	return &raydium.PoolKeys{
		AmmID:            k(),
		ProgramID:        raydiumProgramID,
		Authority:        k(),
		OpenOrders:       k(),
		TargetOrders:     k(),
		BaseMint:         baseMint,
		BaseDecimals:     fakeDecimals,
		QuoteMint:        quoteMint,
		QuoteDecimals:    fakeDecimals,
		LpMint:           k(),
		BaseVault:        k(),
		QuoteVault:       k(),
		MarketProgramID:  solana.MustPublicKeyFromBase58(constants.SerumProgramID),
		MarketID:         k(),
		MarketBids:       k(),
		MarketAsks:       k(),
		MarketEventQueue: k(),
		MarketBaseVault:  k(),
		MarketQuoteVault: k(),
		MarketAuthority:  k(),
	}
}

func testWallet() *wallet.Wallet {
	w, err := wallet.NewRandom()
	if err != nil {
		panic(err)
	}
	return w
}

func poolInfoLog(coin, pc uint64) string {
	return fmt.Sprintf(`Program log: GetPoolData: {"status":6,"coin_decimals":6,"pc_decimals":6,"pool_coin_amount":%d,"pool_pc_amount":%d}`, coin, pc)
}
