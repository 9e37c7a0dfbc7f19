package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "PORT", "NETWORK", "CHAIN_ID", "DATABASE_URL", "REDIS_URL", "PRICE_FEED_URL",
		"JWT_SECRET", "REFRESH_SECRET", "DEPLOYER_ADDRESS", "DEPLOYER_PASSPHRASE", "MINIMUM_USD",
		"SHUTDOWN_TIMEOUT_SECONDS", "SHUTDOWN_TIMEOUT", "PRICE_FEED_TIMEOUT_SECONDS", "PRICE_FEED_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestDevelopmentDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := fromEnv()
	require.NoError(t, err)
	require.True(t, cfg.IsDev())
	require.Equal(t, "hardhat", cfg.Network.Name)
	require.True(t, cfg.Network.Development)
	require.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", cfg.DeployerAddress.Hex())
	require.EqualValues(t, 50, cfg.MinimumUSD)
	require.Equal(t, devJWTSecret, cfg.JWTSecret)
	require.Equal(t, devDeployerPassphrase, cfg.DeployerPassphrase)
	require.Equal(t, ":8080", cfg.Address())
	require.Equal(t, 5*time.Second, cfg.PriceFeedTimeout)
}

func TestLiveNetworkRequiresPriceFeed(t *testing.T) {
	clearEnv(t)
	t.Setenv("NETWORK", "sepolia")

	_, err := fromEnv()
	require.ErrorContains(t, err, "PRICE_FEED_URL")

	t.Setenv("PRICE_FEED_URL", "http://oracle.local/eth-usd")
	cfg, err := fromEnv()
	require.NoError(t, err)
	require.EqualValues(t, 11155111, cfg.Network.ChainID)
}

func TestChainIDSelectsNetwork(t *testing.T) {
	clearEnv(t)
	t.Setenv("CHAIN_ID", "31337")

	cfg, err := fromEnv()
	require.NoError(t, err)
	require.Equal(t, "hardhat", cfg.Network.Name)
}

func TestProductionRequiresInfrastructure(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")

	_, err := fromEnv()
	require.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("DATABASE_URL", "postgres://localhost/fundme")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	_, err = fromEnv()
	require.ErrorContains(t, err, "JWT_SECRET")

	t.Setenv("JWT_SECRET", "a")
	t.Setenv("REFRESH_SECRET", "b")
	_, err = fromEnv()
	require.ErrorContains(t, err, "DEPLOYER_PASSPHRASE")

	t.Setenv("DEPLOYER_PASSPHRASE", "owner passphrase")
	cfg, err := fromEnv()
	require.NoError(t, err)
	require.Equal(t, "owner passphrase", cfg.DeployerPassphrase)
}

func TestInvalidValues(t *testing.T) {
	clearEnv(t)

	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	_, err := fromEnv()
	require.ErrorContains(t, err, "SHUTDOWN_TIMEOUT")
	t.Setenv("SHUTDOWN_TIMEOUT", "")

	t.Setenv("NETWORK", "mainnet-ish")
	_, err = fromEnv()
	require.Error(t, err)
	t.Setenv("NETWORK", "")

	t.Setenv("DEPLOYER_ADDRESS", "0x1234")
	_, err = fromEnv()
	require.ErrorContains(t, err, "DEPLOYER_ADDRESS")
	t.Setenv("DEPLOYER_ADDRESS", "")

	t.Setenv("MINIMUM_USD", "-1")
	_, err = fromEnv()
	require.ErrorContains(t, err, "MINIMUM_USD")
}
