package telegram

import (
	"context"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-panda-bot/internal/types"
	"price-panda-bot/lib/helpers"
	"price-panda-bot/lib/translation"
)

// HandleCommand runs the handler of a slash command. Unknown commands are ignored.
func (b *Bot) HandleCommand(ctx context.Context, m *tgbotapi.Message) error {
	command := strings.ToLower(m.Command())
	args := strings.Fields(m.CommandArguments())
	log.Debugf("received command: %s", command)

	switch command {
	case "start":
		markup := mainMenuKeyboard(b.Config.Username)
		_, err := b.SendMessage(Message{ChatID: m.Chat.ID, Text: welcomeText(), Markup: &markup})
		return err
	case "help":
		markup := helpKeyboard()
		_, err := b.SendMessage(Message{ChatID: m.Chat.ID, Text: helpText(), Markup: &markup})
		return err
	case "price", "p":
		return b.commandPrice(ctx, m.Chat.ID, args)
	case "chart", "c":
		return b.commandChart(ctx, m.Chat.ID, args)
	case "alert":
		return b.commandAlert(ctx, m, args)
	case "alerts":
		return b.commandAlerts(m)
	case "delalert":
		return b.commandDeleteAlert(m, args)
	case "addfav":
		return b.commandAddFavorite(ctx, m, args)
	case "delfav":
		return b.commandRemoveFavorite(m, args)
	case "favorites":
		return b.commandFavorites(m)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) error {
	_, err := b.SendMessage(Message{ChatID: chatID, Text: text})
	return err
}

// parseAmount accepts a positive finite number; an empty string means 1.
func parseAmount(text string) (float64, bool) {
	if text == "" {
		return 1, true
	}
	amount, err := strconv.ParseFloat(text, 64)
	if err != nil || !helpers.IsFinite(amount) || amount <= 0 {
		return 0, false
	}
	return amount, true
}

func (b *Bot) commandPrice(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 {
		return b.reply(chatID, translation.Translate("Usage: /price (symbol) (optional amount)\nExample: /price BTC 2"))
	}

	symbol := helpers.NormalizeSymbol(args[0])
	amountText := ""
	if len(args) > 1 {
		amountText = args[1]
	}
	amount, ok := parseAmount(amountText)
	if symbol == "" || !ok {
		return b.reply(chatID, translation.Translate("Usage: /price (symbol) (optional amount)\nExample: /price BTC 2"))
	}

	return b.showPrice(ctx, chatID, symbol, amount)
}

// showPrice posts a status line and edits it into the quote, or into a not-found notice.
func (b *Bot) showPrice(ctx context.Context, chatID int64, symbol string, amount float64) error {
	status, err := b.sendPlain(chatID, translation.Translate("🔍 Fetching price for %s %s...", helpers.FormatPlain(amount), symbol), nil)
	if err != nil {
		return err
	}

	quote, found := b.quotes.FetchQuote(ctx, symbol)
	if !found {
		markup := backKeyboard()
		return b.EditOrSend(Message{
			ChatID:    chatID,
			MessageID: status.MessageID,
			Text:      translation.Translate("❌ Could not find price for %s", symbol),
			Markup:    &markup,
			Plain:     true,
		})
	}

	text := formatPriceMessage(quote)
	if amount != 1 {
		text += amountBlock(symbol, amount, quote.PriceUSD)
	}

	markup := priceKeyboard(symbol, amount)
	return b.EditOrSend(Message{ChatID: chatID, MessageID: status.MessageID, Text: text, Markup: &markup})
}

func (b *Bot) commandChart(ctx context.Context, chatID int64, args []string) error {
	if len(args) == 0 || helpers.NormalizeSymbol(args[0]) == "" {
		return b.reply(chatID, translation.Translate("Usage: /chart (symbol)\nExample: /chart ETH"))
	}
	return b.sendChart(ctx, chatID, helpers.NormalizeSymbol(args[0]))
}

// sendChart renders the chart as a photo. A render failure turns the status line into an error with a Retry button.
func (b *Bot) sendChart(ctx context.Context, chatID int64, symbol string) error {
	logger := log.WithFields(log.Fields{"chat_id": chatID, "symbol": symbol})

	status, err := b.sendPlain(chatID, translation.Translate("📊 Generating chart for %s...", symbol), nil)
	if err != nil {
		return err
	}

	data, err := b.charts.Render(ctx, symbol)
	if err == nil {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: symbol + "_chart.png", Bytes: data})
		photo.Caption = chartCaption(symbol)
		photo.ReplyMarkup = chartKeyboard(symbol)
		_, err = b.sender.Send(photo)
		err = errors.Wrap(err, "error sending chart")
	}
	if err != nil {
		logger.Errorf("Chart generation error: %v", err)
		markup := chartRetryKeyboard(symbol)
		return b.EditOrSend(Message{ChatID: chatID, MessageID: status.MessageID, Text: chartErrorText(symbol), Markup: &markup, Plain: true})
	}

	if err := b.deleteMessage(chatID, status.MessageID); err != nil {
		logger.Debugf("status message not removed: %v", err)
	}
	return nil
}

func (b *Bot) commandAlert(ctx context.Context, m *tgbotapi.Message, args []string) error {
	usage := translation.Translate("Usage: /alert (symbol) (price)\nExample: /alert BTC 50000")
	if len(args) < 2 {
		return b.reply(m.Chat.ID, usage)
	}

	symbol := helpers.NormalizeSymbol(args[0])
	target, err := strconv.ParseFloat(args[1], 64)
	if symbol == "" || err != nil || !helpers.IsFinite(target) || target <= 0 {
		return b.reply(m.Chat.ID, usage)
	}

	now := time.Now().UTC()
	alert := types.Alert{Symbol: symbol, TargetPrice: target, CreatedAt: &now}
	if quote, found := b.quotes.FetchQuote(ctx, symbol); found {
		alert.ReferencePrice = quote.PriceUSD
	}

	if err := b.users.SetAlert(userID(m), alert); err != nil {
		b.reply(m.Chat.ID, translation.Translate("❌ Error saving alert. Please try again."))
		return err
	}

	return b.reply(m.Chat.ID, translation.Translate(
		"✅ Alert set for %s at $%s\n\nYou will be notified when the price reaches this target.",
		helpers.EscapeMarkdown(symbol), helpers.FormatPlain(target)))
}

func (b *Bot) commandAlerts(m *tgbotapi.Message) error {
	alerts, err := b.users.Alerts(userID(m))
	if err != nil {
		return err
	}
	return b.reply(m.Chat.ID, alertsText(alerts))
}

func (b *Bot) commandDeleteAlert(m *tgbotapi.Message, args []string) error {
	if len(args) == 0 {
		return b.reply(m.Chat.ID, translation.Translate("Usage: /delalert (number)\nUse /alerts to see the numbers."))
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return b.reply(m.Chat.ID, translation.Translate("Usage: /delalert (number)\nUse /alerts to see the numbers."))
	}

	removed, err := b.users.RemoveAlert(userID(m), n-1)
	if err != nil {
		return err
	}
	if !removed {
		return b.reply(m.Chat.ID, translation.Translate("ℹ️ Alert #%d was not found. Use /alerts to see your alerts.", n))
	}
	return b.reply(m.Chat.ID, translation.Translate("✅ Alert removed successfully!"))
}

func (b *Bot) commandAddFavorite(ctx context.Context, m *tgbotapi.Message, args []string) error {
	if len(args) == 0 || helpers.NormalizeSymbol(args[0]) == "" {
		return b.reply(m.Chat.ID, translation.Translate("Usage: /addfav (symbol)\nExample: /addfav BTC"))
	}
	symbol := helpers.NormalizeSymbol(args[0])
	escaped := helpers.EscapeMarkdown(symbol)

	if _, found := b.quotes.FetchQuote(ctx, symbol); !found {
		return b.reply(m.Chat.ID, translation.Translate("❌ Could not find cryptocurrency: %s", escaped))
	}

	added, err := b.users.AddFavorite(userID(m), symbol)
	if err != nil {
		b.reply(m.Chat.ID, translation.Translate("❌ Error adding to favorites. Please try again."))
		return err
	}
	if added {
		return b.reply(m.Chat.ID, translation.Translate("✅ Added %s to your favorites!", escaped))
	}
	return b.reply(m.Chat.ID, translation.Translate("ℹ️ %s is already in your favorites!", escaped))
}

func (b *Bot) commandRemoveFavorite(m *tgbotapi.Message, args []string) error {
	if len(args) == 0 || helpers.NormalizeSymbol(args[0]) == "" {
		return b.reply(m.Chat.ID, translation.Translate("Usage: /delfav (symbol)\nExample: /delfav BTC"))
	}
	symbol := helpers.NormalizeSymbol(args[0])
	escaped := helpers.EscapeMarkdown(symbol)

	removed, err := b.users.RemoveFavorite(userID(m), symbol)
	if err != nil {
		return err
	}
	if removed {
		return b.reply(m.Chat.ID, translation.Translate("✅ Removed %s from your favorites!", escaped))
	}
	return b.reply(m.Chat.ID, translation.Translate("ℹ️ %s was not in your favorites!", escaped))
}

func (b *Bot) commandFavorites(m *tgbotapi.Message) error {
	favorites, err := b.users.Favorites(userID(m))
	if err != nil {
		return err
	}
	markup := favoritesKeyboard(favorites)
	_, err = b.SendMessage(Message{ChatID: m.Chat.ID, Text: favoritesText(favorites), Markup: &markup})
	return err
}
