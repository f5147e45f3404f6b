package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/davecgh/go-spew/spew"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const parseMode = tgbotapi.ModeMarkdown

// Connect opens a Telegram session and checks the token with getMe.
func Connect(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}

	api.Debug = debug
	return api, nil
}

// NewBot creates new telegram bot
func NewBot(c BotConfig, deps Deps) *Bot {
	if deps.Metrics == nil {
		deps.Metrics = noopMetrics{}
	}
	if c.UpdatesTimeout <= 0 {
		c.UpdatesTimeout = 60
	}
	c.Username = strings.TrimPrefix(c.Username, "@")

	return &Bot{
		Config:  c,
		sender:  deps.Sender,
		quotes:  deps.Quotes,
		charts:  deps.Charts,
		users:   deps.Users,
		metrics: deps.Metrics,
	}
}

// SendMessage sends a telegram message
func (b *Bot) SendMessage(m Message) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	if !m.Plain {
		msg.ParseMode = parseMode
	}
	if m.Markup != nil {
		msg.ReplyMarkup = *m.Markup
	}
	sent, err := b.sender.Send(msg)
	return sent, errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// sendPlain sends text without a parse mode, for replies that echo raw user input.
func (b *Bot) sendPlain(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	sent, err := b.sender.Send(msg)
	return sent, errors.Wrapf(err, "could not send message to chat %d", chatID)
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup, markdown bool) error {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if markdown {
		edit.ParseMode = parseMode
	}
	_, err := b.sender.Send(edit)
	return errors.Wrapf(err, "could not edit message %d in chat %d", messageID, chatID)
}

// EditOrSend edits a message in place. When Telegram rejects the edit as a bad request
// (message too old, deleted, or unchanged) the same content is sent as a new message.
func (b *Bot) EditOrSend(m Message) error {
	err := b.editMessage(m.ChatID, m.MessageID, m.Text, m.Markup, !m.Plain)
	if err == nil {
		return nil
	}
	if !isBadRequest(err) {
		return err
	}

	log.WithFields(log.Fields{"chat_id": m.ChatID, "message_id": m.MessageID}).Debugf("edit rejected, sending instead: %v", err)
	m.MessageID = 0
	_, err = b.SendMessage(m)
	return err
}

func isBadRequest(err error) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) && tgErr.Code == http.StatusBadRequest
}

func (b *Bot) deleteMessage(chatID int64, messageID int) error {
	_, err := b.sender.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return errors.Wrapf(err, "could not delete message %d", messageID)
}

func (b *Bot) answerCallback(id, text string, showAlert bool) error {
	callback := tgbotapi.NewCallback(id, text)
	if showAlert {
		callback = tgbotapi.NewCallbackWithAlert(id, text)
	}
	_, err := b.sender.Request(callback)
	return errors.Wrap(err, "could not answer callback")
}

// HandleUpdate routes a single update to its handler.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debug(spew.Sdump(u))
	}

	if u.CallbackQuery != nil {
		b.metrics.CallbackHandled()
		b.HandleCallbackQuery(ctx, u.CallbackQuery)
		return
	}

	if u.Message == nil {
		log.Debug("Received non-message update")
		return
	}

	if len(u.Message.NewChatMembers) > 0 {
		b.handleNewMembers(u.Message)
		return
	}

	if !u.Message.IsCommand() || !b.addressedToUs(u.Message) {
		return
	}

	chatID := u.Message.Chat.ID
	chatName := u.Message.Chat.Title
	if chatName == "" {
		chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
	}
	b.metrics.MessageHandled(chatID, chatName)

	if err := b.HandleCommand(ctx, u.Message); err != nil {
		log.WithFields(log.Fields{
			"chat_id": chatID,
			"command": u.Message.Command(),
		}).Errorf("command failed: %v", err)
		return
	}
	b.metrics.CommandProcessed()
}

// addressedToUs drops commands written for another bot, e.g. /price@OtherBot in a group.
func (b *Bot) addressedToUs(m *tgbotapi.Message) bool {
	command := m.CommandWithAt()
	at := strings.Index(command, "@")
	if at == -1 || b.Config.Username == "" {
		return true
	}
	return strings.EqualFold(command[at+1:], b.Config.Username)
}

func (b *Bot) handleNewMembers(m *tgbotapi.Message) {
	for _, member := range m.NewChatMembers {
		if !member.IsBot || !strings.EqualFold(member.UserName, b.Config.Username) {
			continue
		}

		markup := groupKeyboard()
		if _, err := b.SendMessage(Message{ChatID: m.Chat.ID, Text: groupWelcomeText(), Markup: &markup}); err != nil {
			log.WithField("chat_id", m.Chat.ID).Errorf("could not greet group: %v", err)
		}
		return
	}
}

// userID falls back to the chat for anonymous senders.
func userID(m *tgbotapi.Message) int64 {
	if m.From != nil {
		return m.From.ID
	}
	return m.Chat.ID
}
