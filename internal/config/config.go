package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"github.com/aman-zulfiqar/solana-volume-booster/internal/constants"
)

type Config struct {
	// Pool settings
	AmmPoolID    string
	Symbol       string
	PoolKeysFile string // local index JSON; skips the download when set
	PoolIndexURL string

	// Wallets, one trading task each
	WalletSecretKeys []string

	// Trading settings
	Pause             time.Duration
	SlippageBps       int
	RotateEvery       int
	NativeReserve     uint64
	PollInterval      time.Duration
	SettlementTimeout time.Duration
	ProvisionAttempts int // 0 retries until cancelled

	// RPC settings
	RPCUrl       string
	RPCTimeout   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	RateLimit    float64
	RateBurst    int

	// Redis settings; empty address disables the pool-key cache, trade
	// Pub/Sub and pause flags
	RedisAddr   string
	PoolKeysTTL time.Duration

	// ClickHouse settings; empty address disables the trade journal
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// KeyStorePath receives rotated wallet secrets
	KeyStorePath string

	// MetricsAddr serves Prometheus metrics in run mode when set, e.g. ":9102"
	MetricsAddr string

	// Logging
	LogLevel string
	LogFile  string
}

func Load() *Config {
	return &Config{
		// Pool
		AmmPoolID:    getEnv("AMM_POOL_ID", ""),
		Symbol:       getEnv("SYMBOL", ""),
		PoolKeysFile: getEnv("POOL_KEYS_FILE", ""),
		PoolIndexURL: getEnv("POOL_INDEX_URL", constants.RaydiumPoolIndexURL),

		// Wallets
		WalletSecretKeys: getListEnv("WALLET_SECRET_KEYS"),

		// Trading
		Pause:             getDurationEnv("PAUSE", constants.DefaultPause),
		SlippageBps:       getIntEnv("SLIPPAGE_BPS", 0),
		RotateEvery:       getIntEnv("ROTATE_EVERY", 0),
		NativeReserve:     uint64(getIntEnv("NATIVE_RESERVE_LAMPORTS", constants.NativeReserveLamports)),
		PollInterval:      getDurationEnv("POLL_INTERVAL", constants.SettlementPollInterval),
		SettlementTimeout: getDurationEnv("SETTLEMENT_TIMEOUT", constants.SettlementTimeout),
		ProvisionAttempts: getIntEnv("PROVISION_ATTEMPTS", 0),

		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCTimeout:   getDurationEnv("RPC_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),
		RateLimit:    getFloatEnv("RPC_RATE_LIMIT", 10),
		RateBurst:    getIntEnv("RPC_RATE_BURST", 5),

		// Redis
		RedisAddr:   getEnv("REDIS_ADDR", ""),
		PoolKeysTTL: getDurationEnv("POOL_KEYS_TTL", 24*time.Hour),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		KeyStorePath: getEnv("KEYSTORE_PATH", "rotated_wallets.jsonl"),

		MetricsAddr: getEnv("METRICS_ADDR", ""),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}

// fileConfig is the on-disk layout. JSON is valid YAML, so a config.json
// using the same keys loads unchanged. Pause is in seconds.
type fileConfig struct {
	AmmPoolID        string   `yaml:"ammPoolId"`
	Symbol           string   `yaml:"symbol"`
	WalletSecretKeys []string `yaml:"walletSecretKeys"`
	Pause            *float64 `yaml:"pause"`
	SolanaEndpoint   string   `yaml:"solanaEndpoint"`

	PoolKeysFile string `yaml:"poolKeysFile"`
	SlippageBps  *int   `yaml:"slippageBps"`
	RotateEvery  *int   `yaml:"rotateEvery"`
	KeyStorePath string `yaml:"keyStorePath"`
}

// LoadFile reads env settings and overlays the values present in path.
func LoadFile(path string) (*Config, error) {
	cfg := Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.overlay(b); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) overlay(b []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(b, &f); err != nil {
		return err
	}

	if f.AmmPoolID != "" {
		c.AmmPoolID = f.AmmPoolID
	}
	if f.Symbol != "" {
		c.Symbol = f.Symbol
	}
	if len(f.WalletSecretKeys) > 0 {
		c.WalletSecretKeys = f.WalletSecretKeys
	}
	if f.Pause != nil {
		if *f.Pause < 0 || math.IsNaN(*f.Pause) {
			return fmt.Errorf("pause must be >= 0 seconds")
		}
		c.Pause = time.Duration(*f.Pause * float64(time.Second))
	}
	if f.SolanaEndpoint != "" {
		c.RPCUrl = f.SolanaEndpoint
	}
	if f.PoolKeysFile != "" {
		c.PoolKeysFile = f.PoolKeysFile
	}
	if f.SlippageBps != nil {
		c.SlippageBps = *f.SlippageBps
	}
	if f.RotateEvery != nil {
		c.RotateEvery = *f.RotateEvery
	}
	if f.KeyStorePath != "" {
		c.KeyStorePath = f.KeyStorePath
	}
	return nil
}

// Validate checks the settings every mode needs.
func (c *Config) Validate() error {
	if c.AmmPoolID == "" {
		return fmt.Errorf("ammPoolId is required")
	}
	if _, err := solana.PublicKeyFromBase58(c.AmmPoolID); err != nil {
		return fmt.Errorf("ammPoolId: %w", err)
	}
	if base, quote, ok := strings.Cut(c.Symbol, "/"); !ok || base == "" || quote == "" {
		return fmt.Errorf("symbol must look like BASE/QUOTE, got %q", c.Symbol)
	}
	if len(c.WalletSecretKeys) == 0 {
		return fmt.Errorf("at least one wallet secret key is required")
	}
	if c.RPCUrl == "" {
		return fmt.Errorf("solana endpoint is required")
	}
	if c.Pause < 0 {
		return fmt.Errorf("pause must be >= 0")
	}
	if c.SlippageBps < 0 || c.SlippageBps > 10_000 {
		return fmt.Errorf("slippage bps must be within [0, 10000], got %d", c.SlippageBps)
	}
	if c.RotateEvery < 0 {
		return fmt.Errorf("rotate every must be >= 0")
	}
	if c.PollInterval <= 0 || c.SettlementTimeout <= 0 {
		return fmt.Errorf("poll interval and settlement timeout must be > 0")
	}
	if c.RotateEvery > 0 && c.KeyStorePath == "" {
		return fmt.Errorf("rotation needs a key store path")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getListEnv splits a comma separated value, dropping blanks.
func getListEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
