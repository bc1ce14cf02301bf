package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return NewClient(ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
		Logger:       logger,
	})
}

func TestCall_RetriesOnServerError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":42}}`))
	})

	bal, err := c.GetBalance(context.Background(), solana.SystemProgramID)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), bal)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestCall_MaxRetriesExceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetBalance(context.Background(), solana.SystemProgramID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
}

func TestGetTokenAccountsByOwner(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	acct := solana.NewWallet().PublicKey()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "getTokenAccountsByOwner", req.Method)

		var filter map[string]string
		require.NoError(t, json.Unmarshal(req.Params[1], &filter))
		assert.Equal(t, mint.String(), filter["mint"])

		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":[{"pubkey":"` + acct.String() + `","account":{}}]}}`))
	})

	accounts, err := c.GetTokenAccountsByOwner(context.Background(), owner, mint)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].Equals(acct))
}

func TestGetTokenAccountBalance_RPCError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"Invalid param: could not find account"}}`))
	})

	_, err := c.GetTokenAccountBalance(context.Background(), solana.SystemProgramID)
	require.Error(t, err)

	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestGetTokenAccountBalance_Raw(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":9},"value":{"amount":"1500000","decimals":6,"uiAmount":1.5,"uiAmountString":"1.5"}}}`))
	})

	amt, err := c.GetTokenAccountBalance(context.Background(), solana.SystemProgramID)
	require.NoError(t, err)

	raw, err := amt.Raw()
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000), raw)
	assert.Equal(t, 1.5, amt.UIAmount)
}

func TestGetFeeForMessage_NullValue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":null}}`))
	})

	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
			{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
		}, []byte{2, 0, 0, 0})},
		solana.Hash{1},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	fee, err := c.GetFeeForMessage(context.Background(), &tx.Message)
	require.NoError(t, err)
	assert.Nil(t, fee)
}

func TestSimulateTransaction_ProgramErrorIsNotTransportError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"context":{"slot":1},"value":{"err":{"InstructionError":[0,{"Custom":1}]},"logs":["Program log: hello"],"unitsConsumed":1200}}}`))
	})

	payer := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
			{PublicKey: payer.PublicKey(), IsSigner: true, IsWritable: true},
		}, nil)},
		solana.Hash{1},
		solana.TransactionPayer(payer.PublicKey()),
	)
	require.NoError(t, err)

	res, err := c.SimulateTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.True(t, res.Failed())
	assert.Equal(t, []string{"Program log: hello"}, res.Logs)
	assert.Equal(t, uint64(1200), res.UnitsConsumed)
}
