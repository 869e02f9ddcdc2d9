package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// RPC settings
	RPCUrl       string
	PollInterval time.Duration

	// Redis settings
	RedisAddr string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Stream provider
	StreamEndpoint string
	IngressWorkers int
	DebounceMillis int

	// LLM / OpenRouter settings
	OpenRouterAPIKey string

	// Arbitrage detection
	DesiredMint  string
	SpreadFloor  string
	DedupBackoff time.Duration

	// Transaction builder (internal/txbuilder)
	MevProgramID          string
	WsolMint              string
	FlashloanFeeAccount   string
	NonFlashloanAccounts  [3]string
	UseFlashloan          bool
	NoFailureMode         bool
	ComputeUnitLimit      uint32
	ComputeUnitPriceMicro uint64
	MinProfitLamports     uint64
	AltAddresses          []string
	BlockhashRefresh      time.Duration

	// Submission layer (internal/submit)
	JitoRelayURL       string
	HeliusRelayURL     string
	TipFloorPercentile int
}

// Load reads all configuration from environment variables
// Validates all required vars first, then panics with complete list if any are missing
func Load() *Config {
	// Validate all required env vars first
	validateRequiredEnvVars()

	return &Config{
		// RPC
		RPCUrl:       mustEnv("SOLANA_RPC_URL"),
		PollInterval: mustDurationEnv("POLL_INTERVAL"),

		// Redis
		RedisAddr: mustEnv("REDIS_ADDR"),

		// HTTP
		HTTPTimeout:  mustDurationEnv("HTTP_TIMEOUT"),
		MaxRetries:   mustIntEnv("MAX_RETRIES"),
		RetryBackoff: mustDurationEnv("RETRY_BACKOFF"),

		// Stream
		StreamEndpoint: optEnv("STREAM_ENDPOINT", ""),
		IngressWorkers: optIntEnv("INGRESS_WORKERS", 8),
		DebounceMillis: optIntEnv("DEBOUNCE_MILLIS", 50),

		// LLM / OpenRouter
		OpenRouterAPIKey: optEnv("OPENROUTER_API_KEY", ""),

		// Arbitrage detection
		DesiredMint:  mustEnv("DESIRED_MINT"),
		SpreadFloor:  mustEnv("SPREAD_FLOOR"),
		DedupBackoff: mustDurationEnv("DEDUP_BACKOFF"),

		// Transaction builder
		MevProgramID:        mustEnv("MEV_PROGRAM_ID"),
		WsolMint:            mustEnv("WSOL_MINT"),
		FlashloanFeeAccount: mustEnv("FLASHLOAN_FEE_ACCOUNT"),
		NonFlashloanAccounts: [3]string{
			mustEnv("NON_FLASHLOAN_ACCOUNT_1"),
			mustEnv("NON_FLASHLOAN_ACCOUNT_2"),
			mustEnv("NON_FLASHLOAN_ACCOUNT_3"),
		},
		UseFlashloan:          optBoolEnv("USE_FLASHLOAN", false),
		NoFailureMode:         optBoolEnv("NO_FAILURE_MODE", false),
		ComputeUnitLimit:      uint32(mustIntEnv("COMPUTE_UNIT_LIMIT")),
		ComputeUnitPriceMicro: uint64(mustIntEnv("COMPUTE_UNIT_PRICE_MICRO_LAMPORTS")),
		MinProfitLamports:     uint64(mustIntEnv("MIN_PROFIT_LAMPORTS")),
		AltAddresses:          optListEnv("ALT_ADDRESSES"),
		BlockhashRefresh:      optDurationEnv("BLOCKHASH_REFRESH_INTERVAL", 400*time.Millisecond),

		// Submission layer
		JitoRelayURL:       optEnv("JITO_RELAY_URL", ""),
		HeliusRelayURL:     optEnv("HELIUS_RELAY_URL", ""),
		TipFloorPercentile: int(optIntEnv("TIP_FLOOR_PERCENTILE", 75)),
	}
}

// validateRequiredEnvVars checks all required env vars and panics with complete list if any are missing
func validateRequiredEnvVars() {
	required := []string{
		"SOLANA_RPC_URL",
		"POLL_INTERVAL",
		"REDIS_ADDR",
		"HTTP_TIMEOUT",
		"MAX_RETRIES",
		"RETRY_BACKOFF",
		"DESIRED_MINT",
		"SPREAD_FLOOR",
		"DEDUP_BACKOFF",
		"MEV_PROGRAM_ID",
		"WSOL_MINT",
		"FLASHLOAN_FEE_ACCOUNT",
		"NON_FLASHLOAN_ACCOUNT_1",
		"NON_FLASHLOAN_ACCOUNT_2",
		"NON_FLASHLOAN_ACCOUNT_3",
		"COMPUTE_UNIT_LIMIT",
		"COMPUTE_UNIT_PRICE_MICRO_LAMPORTS",
		"MIN_PROFIT_LAMPORTS",
	}

	var missing []string
	for _, key := range required {
		val := strings.TrimSpace(os.Getenv(key))
		if val == "" {
			missing = append(missing, key)
		}
	}

	if len(missing) > 0 {
		panic(fmt.Sprintf(
			"missing required environment variables:\n  %s\n\nPlease set all required variables in your .env file.",
			strings.Join(missing, "\n  "),
		))
	}
}

// mustEnv reads a required string env or panics
func mustEnv(key string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		panic(fmt.Sprintf("missing required environment variable: %s", key))
	}
	return val
}

// mustIntEnv reads a required int env or panics
func mustIntEnv(key string) int {
	val := mustEnv(key)
	intVal, err := strconv.Atoi(val)
	if err != nil {
		panic(fmt.Sprintf("invalid integer for %s: %v (got: %q)", key, err, val))
	}
	return intVal
}

// mustDurationEnv reads a required duration env or panics
func mustDurationEnv(key string) time.Duration {
	val := mustEnv(key)
	durationVal, err := time.ParseDuration(val)
	if err != nil {
		panic(fmt.Sprintf("invalid duration for %s: %v (got: %q). Examples: 30s, 5m, 1h", key, err, val))
	}
	return durationVal
}

// Validate performs no checks; Load already enforces the required vars
func (c *Config) Validate() error {
	return nil
}

// optEnv reads an optional string env, falling back to def when unset.
func optEnv(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

// optBoolEnv reads an optional bool env, falling back to def when unset.
func optBoolEnv(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	boolVal, err := strconv.ParseBool(val)
	if err != nil {
		panic(fmt.Sprintf("invalid boolean for %s: %v (got: %q)", key, err, val))
	}
	return boolVal
}

// optIntEnv reads an optional int env, falling back to def when unset.
func optIntEnv(key string, def int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		panic(fmt.Sprintf("invalid integer for %s: %v (got: %q)", key, err, val))
	}
	return intVal
}

// optDurationEnv reads an optional duration env, falling back to def when unset.
func optDurationEnv(key string, def time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	durationVal, err := time.ParseDuration(val)
	if err != nil {
		panic(fmt.Sprintf("invalid duration for %s: %v (got: %q)", key, err, val))
	}
	return durationVal
}

// optListEnv reads an optional comma-separated list env, returning nil when
// unset so callers can treat "no ALTs configured" distinctly from an error.
func optListEnv(key string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
