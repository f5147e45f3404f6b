package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		TelegramToken:      "123:abc",
		CMCBaseURL:         "https://pro-api.coinmarketcap.com",
		QuoteProvider:      "auto",
		MarketDataURL:      "https://api.binance.us",
		StoreDriver:        "file",
		DataFile:           "users.json",
		DatabasePath:       "data/bot.db",
		MetricsPort:        9090,
		AlertCheckInterval: time.Minute,
		ReconnectDelay:     10 * time.Second,
		StartupRetries:     5,
		HTTPTimeout:        15 * time.Second,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))
}

func TestValidate_MissingToken(t *testing.T) {
	c := validConfig()
	c.TelegramToken = ""
	assert.Error(t, Validate(c))
}

func TestValidate_UnknownStoreDriver(t *testing.T) {
	c := validConfig()
	c.StoreDriver = "mongo"
	assert.Error(t, Validate(c))
}

func TestValidate_ZeroRetries(t *testing.T) {
	c := validConfig()
	c.StartupRetries = 0
	assert.Error(t, Validate(c))
}

func TestResolvedQuoteProvider(t *testing.T) {
	c := validConfig()
	assert.Equal(t, "coinpaprika", c.ResolvedQuoteProvider())

	c.CMCAPIKey = "key"
	assert.Equal(t, "coinmarketcap", c.ResolvedQuoteProvider())

	c.QuoteProvider = "coinpaprika"
	assert.Equal(t, "coinpaprika", c.ResolvedQuoteProvider())
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:env")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("ALERT_CHECK_INTERVAL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "123:env", cfg.TelegramToken)
	assert.Equal(t, "sqlite", cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.AlertCheckInterval)
	assert.Equal(t, 10*time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 5, cfg.StartupRetries)
}

func TestGetters_ReadEnvironmentAndDefaults(t *testing.T) {
	t.Setenv("METRICS_PORT", "9191")
	t.Setenv("ALERTS_ENABLED", "false")

	assert.Equal(t, 9191, GetInt("metrics_port"))
	assert.False(t, GetBool("alerts_enabled"))
	assert.Equal(t, "https://api.binance.us", GetString("market_data_url"))
	assert.Equal(t, 5*time.Minute, GetDuration("chart_cache_ttl"))
}
