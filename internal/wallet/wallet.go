package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Wallet is a signing credential. It holds no connection; every wallet task
// shares the same RPC client.
type Wallet struct {
	priv solana.PrivateKey
	pub  solana.PublicKey
}

// New parses a base58-encoded 64-byte key OR a solana-keygen JSON array.
func New(secret string) (*Wallet, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("wallet: secret key is required")
	}

	priv, err := parsePrivateKey(secret)
	if err != nil {
		return nil, err
	}
	return FromPrivateKey(priv), nil
}

// NewRandom generates a fresh keypair.
func NewRandom() (*Wallet, error) {
	priv, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("wallet: generate key: %w", err)
	}
	return FromPrivateKey(priv), nil
}

func FromPrivateKey(priv solana.PrivateKey) *Wallet {
	return &Wallet{priv: priv, pub: priv.PublicKey()}
}

func (w *Wallet) Address() string             { return w.pub.String() }
func (w *Wallet) PublicKey() solana.PublicKey { return w.pub }

// String returns the address so a wallet can be logged without leaking the key.
func (w *Wallet) String() string { return w.pub.String() }

// Secret returns the base58 encoding of the 64-byte private key.
func (w *Wallet) Secret() string {
	return base58.Encode(w.priv)
}

func parsePrivateKey(s string) (solana.PrivateKey, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var ints []int
		if err := json.Unmarshal([]byte(s), &ints); err != nil {
			return nil, fmt.Errorf("wallet: invalid JSON private key: %w", err)
		}
		b := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("wallet: invalid byte at %d: %d", i, v)
			}
			b[i] = byte(v)
		}
		if len(b) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(b))
		}
		return solana.PrivateKey(ed25519.PrivateKey(b)), nil
	}

	raw, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("wallet: invalid base58 private key: %w", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("wallet: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	return solana.PrivateKey(ed25519.PrivateKey(raw)), nil
}
