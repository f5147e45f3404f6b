package telegram

import (
	"context"
	"runtime/debug"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-panda-bot/lib/translation"
)

// HandleCallbackQuery runs a button press. Any failure is reported back to the user as an alert
// followed by an apology message.
func (b *Bot) HandleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		b.answerCallback(query.ID, "", false)
		return
	}

	logger := log.WithFields(log.Fields{
		"chat_id": query.Message.Chat.ID,
		"user_id": query.From.ID,
		"data":    query.Data,
	})

	answered, err := b.handleAction(ctx, query)
	if err == nil {
		if !answered {
			if err := b.answerCallback(query.ID, "", false); err != nil {
				logger.Debugf("callback not answered: %v", err)
			}
		}
		return
	}

	logger.Errorf("Callback query error: %v", err)
	if err := b.answerCallback(query.ID, translation.Translate("An error occurred. Please try again."), true); err != nil {
		logger.Errorf("Error answering callback: %v", err)
	}
	if err := b.reply(query.Message.Chat.ID, translation.Translate("❌ Sorry, there was an error processing your request. Please try again.")); err != nil {
		logger.Errorf("Error sending apology: %v", err)
	}
}

// handleAction reports whether it already answered the callback.
func (b *Bot) handleAction(ctx context.Context, query *tgbotapi.CallbackQuery) (answered bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, debug.Stack())
			err = errors.Errorf("panic: %v", r)
		}
	}()

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	user := query.From.ID

	action, ok := ParseAction(query.Data)
	if !ok {
		return true, b.answerCallback(query.ID, translation.Translate("Unknown action. Please try again."), false)
	}

	switch action.Kind {
	case KindCheckPrice:
		return false, b.reply(chatID, checkPriceText())
	case KindViewChart:
		return false, b.reply(chatID, viewChartText())
	case KindSetAlert:
		return false, b.reply(chatID, setAlertText())
	case KindHelp:
		markup := helpKeyboard()
		return false, b.EditOrSend(Message{ChatID: chatID, MessageID: messageID, Text: helpText(), Markup: &markup})
	case KindMainMenu:
		markup := mainMenuKeyboard(b.Config.Username)
		return false, b.EditOrSend(Message{ChatID: chatID, MessageID: messageID, Text: welcomeText(), Markup: &markup})
	case KindAlerts:
		alerts, err := b.users.Alerts(user)
		if err != nil {
			return false, err
		}
		markup := alertsKeyboard()
		return false, b.EditOrSend(Message{ChatID: chatID, MessageID: messageID, Text: alertsText(alerts), Markup: &markup})
	case KindFavorites:
		favorites, err := b.users.Favorites(user)
		if err != nil {
			return false, err
		}
		markup := favoritesKeyboard(favorites)
		return false, b.EditOrSend(Message{ChatID: chatID, MessageID: messageID, Text: favoritesText(favorites), Markup: &markup})
	case KindAlert:
		return false, b.reply(chatID, alertPromptText(action.Symbol))
	case KindFavorite:
		added, err := b.users.AddFavorite(user, action.Symbol)
		if err != nil {
			return false, err
		}
		text := translation.Translate("ℹ️ %s is already in favorites!", action.Symbol)
		if added {
			text = translation.Translate("✅ Added %s to favorites!", action.Symbol)
		}
		return true, b.answerCallback(query.ID, text, true)
	case KindPrice:
		return false, b.showPrice(ctx, chatID, action.Symbol, action.Amount)
	case KindChart:
		// answer first, rendering can outlast the callback timeout
		if err := b.answerCallback(query.ID, "", false); err != nil {
			log.Debugf("callback not answered: %v", err)
		}
		return true, b.sendChart(ctx, chatID, action.Symbol)
	}

	return false, errors.Errorf("unhandled action %q", action.Kind)
}
