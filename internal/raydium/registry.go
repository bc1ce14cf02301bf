package raydium

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
)

// PoolKeysCache stores resolved pool metadata between runs.
// GetPoolKeys returns (nil, nil) on a miss.
type PoolKeysCache interface {
	GetPoolKeys(ctx context.Context, poolID string) (*PoolKeys, error)
	SetPoolKeys(ctx context.Context, poolID string, keys *PoolKeys) error
}

// indexEntry is one pool in the liquidity index JSON.
type indexEntry struct {
	ID               string `json:"id"`
	BaseMint         string `json:"baseMint"`
	QuoteMint        string `json:"quoteMint"`
	LpMint           string `json:"lpMint"`
	BaseDecimals     uint8  `json:"baseDecimals"`
	QuoteDecimals    uint8  `json:"quoteDecimals"`
	ProgramID        string `json:"programId"`
	Authority        string `json:"authority"`
	OpenOrders       string `json:"openOrders"`
	TargetOrders     string `json:"targetOrders"`
	BaseVault        string `json:"baseVault"`
	QuoteVault       string `json:"quoteVault"`
	MarketProgramID  string `json:"marketProgramId"`
	MarketID         string `json:"marketId"`
	MarketAuthority  string `json:"marketAuthority"`
	MarketBaseVault  string `json:"marketBaseVault"`
	MarketQuoteVault string `json:"marketQuoteVault"`
	MarketBids       string `json:"marketBids"`
	MarketAsks       string `json:"marketAsks"`
	MarketEventQueue string `json:"marketEventQueue"`
}

type liquidityIndex struct {
	Official   []indexEntry `json:"official"`
	UnOfficial []indexEntry `json:"unOfficial"`
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if len(b) > 256 {
		b = b[:256]
	}
	if b == "" {
		return fmt.Sprintf("raydium index http %d", e.StatusCode)
	}
	return fmt.Sprintf("raydium index http %d: %s", e.StatusCode, b)
}

// IndexClient resolves pool keys from the public liquidity index.
type IndexClient struct {
	BaseURL string
	HTTP    *http.Client
	Cache   PoolKeysCache
	Logger  *logrus.Logger
}

func NewIndexClient(baseURL string, cache PoolKeysCache, logger *logrus.Logger) *IndexClient {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = constants.RaydiumPoolIndexURL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &IndexClient{
		BaseURL: baseURL,
		// The full index is large; give the download room.
		HTTP: &http.Client{
			Timeout: 2 * time.Minute,
		},
		Cache:  cache,
		Logger: logger,
	}
}

// FetchPoolKeys returns the keys for poolID, consulting the cache first.
// A cache failure is logged and the index is used instead.
func (c *IndexClient) FetchPoolKeys(ctx context.Context, poolID string) (*PoolKeys, error) {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return nil, fmt.Errorf("pool id is required")
	}

	if c.Cache != nil {
		keys, err := c.Cache.GetPoolKeys(ctx, poolID)
		if err != nil {
			c.Logger.WithError(err).WithField("pool", poolID).Warn("pool key cache read failed")
		} else if keys != nil {
			c.Logger.WithField("pool", poolID).Debug("pool keys served from cache")
			return keys, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch pool index: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool index: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}

	keys, err := findPoolKeys(body, poolID)
	if err != nil {
		return nil, err
	}

	c.Logger.WithFields(logrus.Fields{
		"pool":       poolID,
		"base_mint":  keys.BaseMint.String(),
		"quote_mint": keys.QuoteMint.String(),
	}).Info("pool keys resolved from index")

	if c.Cache != nil {
		if err := c.Cache.SetPoolKeys(ctx, poolID, keys); err != nil {
			c.Logger.WithError(err).WithField("pool", poolID).Warn("pool key cache write failed")
		}
	}
	return keys, nil
}

// LoadPoolKeysFromJSON reads a saved copy of the liquidity index (or a
// subset of it) and returns the keys for poolID.
func LoadPoolKeysFromJSON(path, poolID string) (*PoolKeys, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool file: %w", err)
	}
	return findPoolKeys(data, strings.TrimSpace(poolID))
}

func findPoolKeys(data []byte, poolID string) (*PoolKeys, error) {
	var idx liquidityIndex
	if err := sonic.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to parse pool index: %w", err)
	}

	for _, list := range [][]indexEntry{idx.UnOfficial, idx.Official} {
		for i := range list {
			if list[i].ID == poolID {
				keys, err := parseIndexEntry(list[i])
				if err != nil {
					return nil, fmt.Errorf("pool %s: %w", poolID, err)
				}
				return keys, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
}

// parseIndexEntry converts an index entry with validation
func parseIndexEntry(e indexEntry) (*PoolKeys, error) {
	var err error
	parse := func(field, v string) solana.PublicKey {
		if err != nil {
			return solana.PublicKey{}
		}
		pk, perr := solana.PublicKeyFromBase58(v)
		if perr != nil {
			err = fmt.Errorf("invalid %s %q: %w", field, v, perr)
		}
		return pk
	}

	keys := &PoolKeys{
		AmmID:            parse("id", e.ID),
		Authority:        parse("authority", e.Authority),
		OpenOrders:       parse("openOrders", e.OpenOrders),
		TargetOrders:     parse("targetOrders", e.TargetOrders),
		BaseMint:         parse("baseMint", e.BaseMint),
		BaseDecimals:     e.BaseDecimals,
		QuoteMint:        parse("quoteMint", e.QuoteMint),
		QuoteDecimals:    e.QuoteDecimals,
		LpMint:           parse("lpMint", e.LpMint),
		BaseVault:        parse("baseVault", e.BaseVault),
		QuoteVault:       parse("quoteVault", e.QuoteVault),
		MarketID:         parse("marketId", e.MarketID),
		MarketBids:       parse("marketBids", e.MarketBids),
		MarketAsks:       parse("marketAsks", e.MarketAsks),
		MarketEventQueue: parse("marketEventQueue", e.MarketEventQueue),
		MarketBaseVault:  parse("marketBaseVault", e.MarketBaseVault),
		MarketQuoteVault: parse("marketQuoteVault", e.MarketQuoteVault),
		MarketAuthority:  parse("marketAuthority", e.MarketAuthority),
	}

	// Older index entries omit the program ids.
	programID := e.ProgramID
	if programID == "" {
		programID = constants.RaydiumAMMProgramID
	}
	keys.ProgramID = parse("programId", programID)

	marketProgramID := e.MarketProgramID
	if marketProgramID == "" {
		marketProgramID = constants.SerumProgramID
	}
	keys.MarketProgramID = parse("marketProgramId", marketProgramID)

	if err != nil {
		return nil, err
	}
	return keys, nil
}
