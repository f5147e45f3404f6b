package config

import (
	"sync"
	"time"

	"github.com/gookit/validate"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var once sync.Once

// Config is a typed snapshot of the bot settings.
type Config struct {
	TelegramToken      string        `validate:"required"`
	BotUsername        string
	CMCAPIKey          string
	CMCBaseURL         string        `validate:"required|fullUrl"`
	PaprikaAPIKey      string
	QuoteProvider      string        `validate:"in:auto,coinmarketcap,coinpaprika"`
	MarketDataURL      string        `validate:"required|fullUrl"`
	StoreDriver        string        `validate:"required|in:file,sqlite"`
	DataFile           string        `validate:"required"`
	DatabasePath       string        `validate:"required"`
	MetricsPort        int           `validate:"required|min:1|max:65535"`
	Debug              bool
	LogLevel           string
	Lang               string
	AlertsEnabled      bool
	AlertCheckInterval time.Duration `validate:"required"`
	ChartCacheTTL      time.Duration
	ReconnectDelay     time.Duration `validate:"required"`
	StartupRetries     int           `validate:"required|min:1"`
	HTTPTimeout        time.Duration `validate:"required"`
}

func InitConfig() {
	once.Do(func() {
		// a missing .env is fine, the environment is authoritative
		_ = godotenv.Load()

		viper.AutomaticEnv()

		viper.BindEnv("telegram_bot_token", "TELEGRAM_BOT_TOKEN")
		viper.BindEnv("bot_username", "BOT_USERNAME")
		viper.BindEnv("cmc_api_key", "CMC_API_KEY")
		viper.BindEnv("cmc_base_url", "CMC_BASE_URL")
		viper.BindEnv("api_pro_key", "API_PRO_KEY")
		viper.BindEnv("quote_provider", "QUOTE_PROVIDER")
		viper.BindEnv("market_data_url", "MARKET_DATA_URL")
		viper.BindEnv("store_driver", "STORE_DRIVER")
		viper.BindEnv("data_file", "DATA_FILE")
		viper.BindEnv("database_path", "DATABASE_PATH")
		viper.BindEnv("metrics_port", "METRICS_PORT")
		viper.BindEnv("debug", "DEBUG")
		viper.BindEnv("log_level", "LOG_LEVEL")
		viper.BindEnv("lang", "LANG")
		viper.BindEnv("alerts_enabled", "ALERTS_ENABLED")
		viper.BindEnv("alert_check_interval", "ALERT_CHECK_INTERVAL")
		viper.BindEnv("chart_cache_ttl", "CHART_CACHE_TTL")
		viper.BindEnv("reconnect_delay", "RECONNECT_DELAY")
		viper.BindEnv("startup_retries", "STARTUP_RETRIES")
		viper.BindEnv("http_timeout", "HTTP_TIMEOUT")

		setDefaults()
	})
}

func setDefaults() {
	viper.SetDefault("cmc_base_url", "https://pro-api.coinmarketcap.com")
	viper.SetDefault("quote_provider", "auto")
	viper.SetDefault("market_data_url", "https://api.binance.us")
	viper.SetDefault("store_driver", "file")
	viper.SetDefault("data_file", "users.json")
	viper.SetDefault("database_path", "data/bot.db")
	viper.SetDefault("metrics_port", 9090)
	viper.SetDefault("debug", false)
	viper.SetDefault("lang", "en")
	viper.SetDefault("alerts_enabled", true)
	viper.SetDefault("alert_check_interval", time.Minute)
	viper.SetDefault("chart_cache_ttl", 5*time.Minute)
	viper.SetDefault("reconnect_delay", 10*time.Second)
	viper.SetDefault("startup_retries", 5)
	viper.SetDefault("http_timeout", 15*time.Second)
}

// Load reads every setting and validates the result.
func Load() (*Config, error) {
	InitConfig()

	cfg := &Config{
		TelegramToken:      GetString("telegram_bot_token"),
		BotUsername:        GetString("bot_username"),
		CMCAPIKey:          GetString("cmc_api_key"),
		CMCBaseURL:         GetString("cmc_base_url"),
		PaprikaAPIKey:      GetString("api_pro_key"),
		QuoteProvider:      GetString("quote_provider"),
		MarketDataURL:      GetString("market_data_url"),
		StoreDriver:        GetString("store_driver"),
		DataFile:           GetString("data_file"),
		DatabasePath:       GetString("database_path"),
		MetricsPort:        GetInt("metrics_port"),
		Debug:              GetBool("debug"),
		LogLevel:           GetString("log_level"),
		Lang:               GetString("lang"),
		AlertsEnabled:      GetBool("alerts_enabled"),
		AlertCheckInterval: GetDuration("alert_check_interval"),
		ChartCacheTTL:      GetDuration("chart_cache_ttl"),
		ReconnectDelay:     GetDuration("reconnect_delay"),
		StartupRetries:     GetInt("startup_retries"),
		HTTPTimeout:        GetDuration("http_timeout"),
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct rules declared on Config.
func Validate(cfg *Config) error {
	v := validate.Struct(cfg)
	if !v.Validate() {
		return errors.Wrap(v.Errors, "invalid configuration")
	}
	return nil
}

// ResolvedQuoteProvider picks the quote provider when "auto" is configured.
func (c *Config) ResolvedQuoteProvider() string {
	if c.QuoteProvider != "" && c.QuoteProvider != "auto" {
		return c.QuoteProvider
	}
	if c.CMCAPIKey != "" {
		return "coinmarketcap"
	}
	return "coinpaprika"
}

// GetString and the other getters read a single setting, initialising viper on first use.
func GetString(key string) string {
	InitConfig()
	return viper.GetString(key)
}

func GetInt(key string) int {
	InitConfig()
	return viper.GetInt(key)
}

func GetBool(key string) bool {
	InitConfig()
	return viper.GetBool(key)
}

func GetDuration(key string) time.Duration {
	InitConfig()
	return viper.GetDuration(key)
}
