package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-panda-bot/config"
	"price-panda-bot/internal/alert"
	"price-panda-bot/internal/chart"
	"price-panda-bot/internal/database"
	"price-panda-bot/internal/metrics"
	"price-panda-bot/internal/price"
	"price-panda-bot/internal/store"
	"price-panda-bot/internal/telegram"
	"price-panda-bot/lib/translation"
)

const metricsSaveInterval = 5 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Errorf("Invalid configuration: %v", err)
		return 1
	}
	setupLogging(cfg)
	translation.Configure("locales", cfg.Lang)
	log.Debugf("Replies translated to %q", translation.GetLanguage())

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		log.Errorf("Failed to initialize database: %v", err)
		return 1
	}
	defer db.Close()

	users, err := openUserStore(cfg, db)
	if err != nil {
		log.Errorf("Failed to open user store: %v", err)
		return 1
	}
	defer users.Close()

	botMetrics := metrics.New()
	if err := botMetrics.Load(db); err != nil {
		log.Errorf("Failed to load metrics: %v", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	quotes := newQuoteProvider(cfg, httpClient, botMetrics)
	renderer, err := chart.NewRenderer(chart.NewMarketData(cfg.MarketDataURL, httpClient), cfg.ChartCacheTTL, botMetrics)
	if err != nil {
		log.Errorf("Failed to create chart renderer: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api, err := connect(ctx, cfg)
	if err != nil {
		if ctx.Err() != nil {
			log.Info("Interrupted before the bot connected, exiting.")
			return 0
		}
		log.Errorf("Max retry attempts reached: %v", err)
		return 1
	}

	username := cfg.BotUsername
	if username == "" {
		username = api.Self.UserName
	}

	bot := telegram.NewBot(telegram.BotConfig{
		Token:          cfg.TelegramToken,
		Debug:          cfg.Debug,
		Username:       username,
		UpdatesTimeout: 60,
		ReconnectDelay: cfg.ReconnectDelay,
	}, telegram.Deps{
		Sender:  api,
		Quotes:  quotes,
		Charts:  renderer,
		Users:   users,
		Metrics: botMetrics,
	})

	if cfg.AlertsEnabled {
		alert.NewService(users, quotes, bot, cfg.AlertCheckInterval, botMetrics).Start(ctx)
	}

	go func() {
		if err := botMetrics.Serve(ctx, cfg.MetricsPort); err != nil {
			log.Errorf("Failed to start metrics and health server: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(metricsSaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := botMetrics.Save(db); err != nil {
					log.Errorf("Failed to save metrics: %v", err)
				}
			}
		}
	}()

	if err := bot.Run(ctx, api); err != nil {
		log.Errorf("Bot stopped: %v", err)
	}

	log.Info("Received termination signal. Cleaning up...")
	if err := botMetrics.Save(db); err != nil {
		log.Errorf("Failed to save metrics: %v", err)
	}
	log.Info("Metrics saved, shutting down...")
	return 0
}

func setupLogging(cfg *config.Config) {
	log.SetLevel(log.ErrorLevel)
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	if cfg.LogLevel != "" {
		level, err := log.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Errorf("Unknown log level %q, keeping %s", cfg.LogLevel, log.GetLevel())
		} else {
			log.SetLevel(level)
		}
	}

	if err := tgbotapi.SetLogger(log.StandardLogger()); err != nil {
		log.Errorf("Failed to route telegram logs: %v", err)
	}
	log.Debug("Starting telegram bot...")
}

func openUserStore(cfg *config.Config, db *database.DB) (store.UserStore, error) {
	if cfg.StoreDriver == "sqlite" {
		return database.NewUserStore(db), nil
	}
	return store.NewFileStore(cfg.DataFile)
}

func newQuoteProvider(cfg *config.Config, client *http.Client, recorder price.Recorder) price.QuoteProvider {
	if cfg.ResolvedQuoteProvider() == "coinmarketcap" {
		return price.NewCoinMarketCap(cfg.CMCBaseURL, cfg.CMCAPIKey, client, recorder)
	}
	return price.NewCoinPaprika(client, cfg.PaprikaAPIKey, recorder)
}

// connect retries the Telegram handshake, waiting attempt x 5s between attempts.
func connect(ctx context.Context, cfg *config.Config) (*tgbotapi.BotAPI, error) {
	var lastErr error
	for attempt := 1; attempt <= cfg.StartupRetries; attempt++ {
		api, err := telegram.Connect(cfg.TelegramToken, cfg.Debug)
		if err == nil {
			log.Infof("Authorized on account %s", api.Self.UserName)
			return api, nil
		}
		lastErr = err
		log.Errorf("Failed to start bot (attempt %d/%d): %v", attempt, cfg.StartupRetries, err)
		if attempt == cfg.StartupRetries {
			break
		}

		wait := time.Duration(attempt) * 5 * time.Second
		log.Infof("Waiting %s before retry...", wait)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, errors.Wrapf(lastErr, "could not connect after %d attempts", cfg.StartupRetries)
}
