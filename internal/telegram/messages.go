package telegram

import (
	"fmt"
	"strings"

	"price-panda-bot/internal/types"
	"price-panda-bot/lib/helpers"
	"price-panda-bot/lib/translation"
)

func welcomeText() string {
	return translation.Translate("🚀 *Welcome to Price Panda Bot!*\n\n" +
		"Your personal crypto assistant for real-time market insights! 📊\n\n" +
		"*Essential Commands:*\n" +
		"💰 /price or /p <symbol> - Live price updates\n" +
		"📈 /chart or /c <symbol> - Interactive price charts\n" +
		"🔔 /alerts - Smart price notifications\n" +
		"⭐️ /favorites - Your watchlist\n" +
		"❓ /help - Full command list\n\n" +
		"*Quick Examples:*\n" +
		"• /p BTC - Check Bitcoin price\n" +
		"• /c ETH - View Ethereum chart\n\n" +
		"Ready to start tracking your favorite cryptocurrencies? Try any command above! 🎯")
}

func helpText() string {
	return translation.Translate("*Price Panda Bot Commands:*\n\n" +
		"*Price Commands:*\n" +
		"🔹 /price or /p (symbol) - Get current price\n" +
		"🔹 /chart or /c (symbol) - View price chart\n\n" +
		"*Alert Commands:*\n" +
		"🔹 /alert (symbol) (price) - Set price alert\n" +
		"🔹 /alerts - View your alerts\n" +
		"🔹 /delalert (number) - Delete alert\n\n" +
		"*Favorite Commands:*\n" +
		"🔹 /addfav (symbol) - Add to favorites\n" +
		"🔹 /delfav (symbol) - Remove from favorites\n" +
		"🔹 /favorites - View favorites\n\n" +
		"*Examples:*\n" +
		"• /p BTC\n" +
		"• /c ETH\n" +
		"• /alert BTC 50000\n" +
		"• /addfav BTC")
}

func groupWelcomeText() string {
	return translation.Translate("👋 *Thanks for adding me to the group!*\n\n" +
		"I'll help track cryptocurrency prices and alerts.\n\n" +
		"*Quick Commands:*\n" +
		"🔹 /price (symbol) - Get current price\n" +
		"🔹 /chart (symbol) - View price chart\n" +
		"🔹 /help - Show all commands\n\n" +
		"Example: /price BTC")
}

// formatPriceMessage renders a quote in legacy Markdown.
func formatPriceMessage(q *types.PriceQuote) string {
	name := helpers.EscapeMarkdown(q.Name)
	symbol := helpers.EscapeMarkdown(q.Symbol)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s (%s)*\n\n", name, symbol)
	fmt.Fprintf(&b, "💎 *Price:* $%s\n\n", helpers.FormatPrice(q.PriceUSD))

	b.WriteString("📊 *Performance:*\n")
	for _, change := range []struct {
		label string
		value float64
	}{
		{"1H", q.PercentChange1h},
		{"24H", q.PercentChange24h},
		{"7D", q.PercentChange7d},
		{"30D", q.PercentChange30d},
	} {
		fmt.Fprintf(&b, "%s %s: %s%%\n", helpers.TrendEmoji(change.value), change.label, helpers.FormatFixed(change.value, 2))
	}

	b.WriteString("\n📈 *Market Data:*\n")
	fmt.Fprintf(&b, "Market Cap: $%s\n", helpers.FormatCompact(q.MarketCap))
	fmt.Fprintf(&b, "24h Volume: $%s\n", helpers.FormatCompact(q.Volume24h))
	fmt.Fprintf(&b, "Circulating Supply: %s %s\n", helpers.FormatCompact(q.CirculatingSupply), symbol)
	if q.MaxSupply > 0 {
		fmt.Fprintf(&b, "Max Supply: %s %s\n", helpers.FormatCompact(q.MaxSupply), symbol)
	}
	if q.ATH > 0 {
		fmt.Fprintf(&b, "\n🏆 ATH: $%s", helpers.FormatPrice(q.ATH))
	}
	return b.String()
}

func amountBlock(symbol string, amount, priceUSD float64) string {
	symbol = helpers.EscapeMarkdown(symbol)
	return fmt.Sprintf("\n\n💰 *Amount Calculation:*\n%s %s = $%s\nRate: $%s per %s",
		helpers.FormatPlain(amount), symbol, helpers.FormatFixed(priceUSD*amount, 2),
		helpers.FormatPrice(priceUSD), symbol)
}

func alertsText(alerts []types.Alert) string {
	if len(alerts) == 0 {
		return translation.Translate("🔔 *Your Price Alerts*\n\nYou have no active alerts.\n\n" +
			"To set an alert, use:\n/alert (symbol) (price)\nExample: /alert BTC 50000")
	}

	lines := make([]string, len(alerts))
	for i, alert := range alerts {
		lines[i] = fmt.Sprintf("%d. %s - $%s", i+1, helpers.EscapeMarkdown(alert.Symbol), helpers.FormatPlain(alert.TargetPrice))
		if since := helpers.FormatSince(alert.Created()); since != "" {
			lines[i] += " (" + since + ")"
		}
	}
	return translation.Translate("🔔 *Your Price Alerts*") + "\n\n" +
		strings.Join(lines, "\n") +
		"\n\n" + translation.Translate("To delete an alert, use:\n/delalert (number)")
}

func favoritesText(favorites []string) string {
	if len(favorites) == 0 {
		return translation.Translate("⭐ *Your Favorite Coins*\n\nYou have no favorites yet.\n\n" +
			"To add a favorite, use:\n/addfav (symbol)\nExample: /addfav BTC")
	}

	lines := make([]string, len(favorites))
	for i, symbol := range favorites {
		lines[i] = fmt.Sprintf("%d. %s", i+1, helpers.EscapeMarkdown(symbol))
	}
	return translation.Translate("⭐ *Your Favorite Coins*") + "\n\n" +
		strings.Join(lines, "\n") +
		"\n\n" + translation.Translate("To remove a favorite, use:\n/delfav (symbol)")
}

func alertPromptText(symbol string) string {
	symbol = helpers.EscapeMarkdown(symbol)
	return translation.Translate("🔔 *Set Alert for %s*\n\nUse the command:\n/alert %s (price)\n\nExample:\n/alert %s 50000",
		symbol, symbol, symbol)
}

func setAlertText() string {
	return translation.Translate("⚡ *Set a Price Alert*\n\nUse the command:\n/alert (symbol) (price)\n\n" +
		"Example:\n/alert BTC 50000\n/alert ETH 3000")
}

func checkPriceText() string {
	return translation.Translate("📊 *Enter the cryptocurrency symbol:*\nExample: BTC, ETH, DOGE\n\n" +
		"Or use the command: /price (symbol)")
}

func viewChartText() string {
	return translation.Translate("📈 *Enter the cryptocurrency symbol for chart:*\nExample: BTC, ETH, DOGE\n\n" +
		"Or use the command: /chart (symbol)")
}

func chartCaption(symbol string) string {
	return translation.Translate("📈 %s/USDT Price Chart (30 Days)", symbol)
}

func chartErrorText(symbol string) string {
	return translation.Translate("❌ Error generating chart for %s. Please try again.", symbol)
}
