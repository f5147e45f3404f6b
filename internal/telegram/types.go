package telegram

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"price-panda-bot/internal/price"
	"price-panda-bot/internal/store"
)

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	Username       string
	UpdatesTimeout int
	ReconnectDelay time.Duration
}

// Sender is the Telegram session used to talk to chats. *tgbotapi.BotAPI implements it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Poller fetches pending updates. *tgbotapi.BotAPI implements it.
type Poller interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

type ChartRenderer interface {
	Render(ctx context.Context, symbol string) ([]byte, error)
}

type Metrics interface {
	MessageHandled(chatID int64, chatName string)
	CommandProcessed()
	CallbackHandled()
}

type noopMetrics struct{}

func (noopMetrics) MessageHandled(int64, string) {}
func (noopMetrics) CommandProcessed()            {}
func (noopMetrics) CallbackHandled()             {}

// Deps are the collaborators of the command handlers.
type Deps struct {
	Sender  Sender
	Quotes  price.QuoteProvider
	Charts  ChartRenderer
	Users   store.UserStore
	Metrics Metrics
}

// Bot telegram interaction client
type Bot struct {
	Config BotConfig

	sender  Sender
	quotes  price.QuoteProvider
	charts  ChartRenderer
	users   store.UserStore
	metrics Metrics

	handlers sync.WaitGroup
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
	Markup    *tgbotapi.InlineKeyboardMarkup
	// Plain sends Text without Markdown parsing
	Plain bool
}
