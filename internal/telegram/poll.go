package telegram

import (
	"context"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// handlerTimeout bounds a single update, including the provider and chart calls it makes.
const handlerTimeout = 90 * time.Second

type pollResult struct {
	updates []tgbotapi.Update
	err     error
}

// Run long-polls for updates until ctx is cancelled, then waits for in-flight handlers.
// Transport errors are logged and polling resumes after Config.ReconnectDelay.
func (b *Bot) Run(ctx context.Context, poller Poller) error {
	offset := 0
	results := make(chan pollResult, 1)

	log.Info("Bot is running...")
	for {
		config := tgbotapi.NewUpdate(offset)
		config.Timeout = b.Config.UpdatesTimeout
		go func() {
			updates, err := poller.GetUpdates(config)
			results <- pollResult{updates, err}
		}()

		var res pollResult
		select {
		case <-ctx.Done():
			b.Wait()
			return nil
		case res = <-results:
		}

		if res.err != nil {
			log.Errorf("Polling error: %v", res.err)
			log.Infof("Attempting to reconnect in %s...", b.Config.ReconnectDelay)
			select {
			case <-ctx.Done():
				b.Wait()
				return nil
			case <-time.After(b.Config.ReconnectDelay):
			}
			continue
		}

		for _, update := range res.updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch handles an update on its own goroutine.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	b.handlers.Add(1)
	go func() {
		defer b.handlers.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("Recovered from panic: %v\nStack trace: %s", r, debug.Stack())
			}
		}()

		handlerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handlerTimeout)
		defer cancel()
		b.HandleUpdate(handlerCtx, update)
	}()
}

// Wait blocks until every dispatched update has been handled.
func (b *Bot) Wait() {
	b.handlers.Wait()
}
