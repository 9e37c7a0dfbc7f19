package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/congo-pay/fundme/internal/ledger"
	"github.com/congo-pay/fundme/internal/network"
)

const (
	defaultAppName          = "FundMe"
	defaultAppEnv           = "development"
	defaultPort             = "8080"
	defaultLogLevel         = "info"
	defaultLogFormat        = "json"
	defaultNetwork          = "hardhat"
	defaultDeployer         = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	defaultMinimumUSD       = 50
	defaultGenesisETH       = "10000"
	defaultFaucetLimitETH   = "100"
	defaultUnlockRateLimit  = 5
	defaultShutdownDelay    = 10 * time.Second
	defaultIdempotencyTTL   = 24 * time.Hour
	defaultPriceFeedTimeout = 5 * time.Second
	defaultAccessTokenTTL   = 15 * time.Minute
	defaultRefreshTokenTTL  = 7 * 24 * time.Hour
	devJWTSecret            = "dev-access-secret"
	devRefreshSecret        = "dev-refresh-secret"
	devDeployerPassphrase   = "hardhat-deployer"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	LogFormat      string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	Network            network.Network
	DeployerAddress    ledger.Address
	DeployerPassphrase string
	MinimumUSD         int64
	PriceFeedURL       string
	PriceFeedTimeout   time.Duration
	PriceFeedMaxAge    time.Duration
	GenesisBalance     string
	FaucetLimit        string
	EventsChannel      string

	JWTSecret       string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	UnlockRateLimit int
}

// Load reads configuration values from the environment, after merging an
// optional .env file, and populates a Config instance.
func Load() (Config, error) {
	_ = godotenv.Load()
	return fromEnv()
}

func fromEnv() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:      strings.ToLower(getEnv("LOG_FORMAT", defaultLogFormat)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		PriceFeedURL:   os.Getenv("PRICE_FEED_URL"),
		GenesisBalance: getEnv("GENESIS_BALANCE_ETH", defaultGenesisETH),
		FaucetLimit:    getEnv("FAUCET_LIMIT_ETH", defaultFaucetLimitETH),
		EventsChannel:  os.Getenv("EVENTS_CHANNEL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RefreshSecret:  os.Getenv("REFRESH_SECRET"),

		DeployerPassphrase: os.Getenv("DEPLOYER_PASSPHRASE"),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv("SHUTDOWN_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv("IDEMPOTENCY_TTL_SECONDS", "IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.PriceFeedTimeout, err = durationFromEnv("PRICE_FEED_TIMEOUT_SECONDS", "PRICE_FEED_TIMEOUT", defaultPriceFeedTimeout); err != nil {
		return Config{}, err
	}
	if cfg.PriceFeedMaxAge, err = durationFromEnv("PRICE_FEED_MAX_AGE_SECONDS", "PRICE_FEED_MAX_AGE", 0); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationFromEnv("ACCESS_TOKEN_TTL_SECONDS", "ACCESS_TOKEN_TTL", defaultAccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationFromEnv("REFRESH_TOKEN_TTL_SECONDS", "REFRESH_TOKEN_TTL", defaultRefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.MinimumUSD, err = intFromEnv("MINIMUM_USD", defaultMinimumUSD); err != nil {
		return Config{}, err
	}
	if cfg.MinimumUSD <= 0 {
		return Config{}, fmt.Errorf("MINIMUM_USD must be positive")
	}
	limit, err := intFromEnv("UNLOCK_RATE_LIMIT", defaultUnlockRateLimit)
	if err != nil {
		return Config{}, err
	}
	cfg.UnlockRateLimit = int(limit)

	if cfg.Network, err = resolveNetwork(); err != nil {
		return Config{}, err
	}
	if cfg.DeployerAddress, err = ledger.ParseAddress(getEnv("DEPLOYER_ADDRESS", defaultDeployer)); err != nil {
		return Config{}, fmt.Errorf("invalid DEPLOYER_ADDRESS: %w", err)
	}

	if !cfg.Network.Development && cfg.PriceFeedURL == "" {
		return Config{}, fmt.Errorf("PRICE_FEED_URL must be set for network %s", cfg.Network.Name)
	}

	if cfg.IsDev() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		if cfg.RefreshSecret == "" {
			cfg.RefreshSecret = devRefreshSecret
		}
		if cfg.DeployerPassphrase == "" {
			cfg.DeployerPassphrase = devDeployerPassphrase
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.JWTSecret == "" || cfg.RefreshSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET and REFRESH_SECRET must be set")
	}
	if cfg.DeployerPassphrase == "" {
		return Config{}, fmt.Errorf("DEPLOYER_PASSPHRASE must be set")
	}

	return cfg, nil
}

// IsDev reports whether APP_ENV names a local environment, where the
// database and cache are optional.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// NETWORK wins over CHAIN_ID.
func resolveNetwork() (network.Network, error) {
	if name := os.Getenv("NETWORK"); name != "" {
		return network.Lookup(name)
	}
	if v := os.Getenv("CHAIN_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return network.Network{}, fmt.Errorf("invalid CHAIN_ID: %w", err)
		}
		return network.ByChainID(id)
	}
	return network.Lookup(defaultNetwork)
}

func durationFromEnv(secondsVar, durationVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationVar, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intFromEnv(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
