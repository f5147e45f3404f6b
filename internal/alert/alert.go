// Package alert periodically compares stored price alerts with live quotes and notifies their owners.
package alert

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"price-panda-bot/internal/price"
	"price-panda-bot/internal/store"
	"price-panda-bot/internal/telegram"
	"price-panda-bot/internal/types"
	"price-panda-bot/lib/helpers"
	"price-panda-bot/lib/translation"
)

// Notifier delivers the alert message. *telegram.Bot implements it.
type Notifier interface {
	SendMessage(m telegram.Message) (tgbotapi.Message, error)
}

type Recorder interface {
	AlertTriggered()
}

type noopRecorder struct{}

func (noopRecorder) AlertTriggered() {}

type Service struct {
	users    store.UserStore
	quotes   price.QuoteProvider
	notifier Notifier
	recorder Recorder
	interval time.Duration

	// processing ensures only one check runs at a time
	processing sync.Mutex
}

func NewService(users store.UserStore, quotes price.QuoteProvider, notifier Notifier, interval time.Duration, recorder Recorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		users:    users,
		quotes:   quotes,
		notifier: notifier,
		recorder: recorder,
		interval: interval,
	}
}

// Reached reports whether price has crossed the alert target. The direction is taken from the
// price at creation time; alerts without one fire when the price is at or above the target.
func Reached(a types.Alert, price float64) bool {
	if a.ReferencePrice > 0 && a.TargetPrice < a.ReferencePrice {
		return price <= a.TargetPrice
	}
	return price >= a.TargetPrice
}

// Start checks alerts every interval until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CheckAlerts(ctx)
			}
		}
	}()
	log.Infof("🚀 Alert service started, checking every %s.", s.interval)
}

// CheckAlerts runs one evaluation pass and returns the number of alerts fired.
// A pass that starts while another is still running is skipped.
func (s *Service) CheckAlerts(ctx context.Context) (fired int) {
	if !s.processing.TryLock() {
		log.Debug("previous alert check still running, skipping")
		return 0
	}
	defer s.processing.Unlock()

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("🔥 Panic recovered in alert checker: %v\n%s", r, debug.Stack())
		}
	}()

	log.Debug("🔄 Checking alerts...")

	users, err := s.users.Users()
	if err != nil {
		log.Errorf("❌ Failed to load alerts: %v", err)
		return 0
	}

	quotes := make(map[string]*types.PriceQuote)
	for _, user := range users {
		for _, a := range user.Alerts {
			if _, seen := quotes[a.Symbol]; seen {
				continue
			}
			q, found := s.quotes.FetchQuote(ctx, a.Symbol)
			if !found {
				log.WithField("symbol", a.Symbol).Debug("⚠️ No price data found for alert")
			}
			quotes[a.Symbol] = q
		}
	}

	for _, user := range users {
		for _, a := range user.Alerts {
			q := quotes[a.Symbol]
			if q == nil || !Reached(a, q.PriceUSD) {
				continue
			}

			logger := log.WithFields(log.Fields{"user_id": user.TelegramID, "symbol": a.Symbol})
			logger.Infof("🔍 Alert reached: target %.8g, current %.8g", a.TargetPrice, q.PriceUSD)

			if _, err := s.notifier.SendMessage(telegram.Message{ChatID: user.TelegramID, Text: triggeredText(a, q)}); err != nil {
				logger.Errorf("❌ Failed to send price alert notification: %v", err)
			} else {
				s.recorder.AlertTriggered()
			}

			if err := s.remove(user.TelegramID, a); err != nil {
				logger.Errorf("❌ Failed to remove fired alert: %v", err)
				continue
			}
			fired++
		}
	}

	log.Debugf("✅ Alert check completed, %d fired.", fired)
	return fired
}

// remove deletes the stored alert equal to a; its index may have shifted since the pass started.
func (s *Service) remove(telegramID int64, a types.Alert) error {
	current, err := s.users.Alerts(telegramID)
	if err != nil {
		return err
	}
	for i, c := range current {
		if c.Symbol == a.Symbol && c.TargetPrice == a.TargetPrice &&
			c.ReferencePrice == a.ReferencePrice && c.Created().Equal(a.Created()) {
			_, err := s.users.RemoveAlert(telegramID, i)
			return err
		}
	}
	return nil
}

func triggeredText(a types.Alert, q *types.PriceQuote) string {
	name := q.Name
	if name == "" {
		name = a.Symbol
	}
	return translation.Translate(
		"🚨 *Price Alert Triggered*\n\n*%s (%s)* has reached the target price of *$%s*\nCurrent Price: *$%s*",
		helpers.EscapeMarkdown(name),
		helpers.EscapeMarkdown(a.Symbol),
		helpers.FormatPriceUS(a.TargetPrice),
		helpers.FormatPriceUS(q.PriceUSD),
	)
}
