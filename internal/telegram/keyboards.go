package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"price-panda-bot/lib/translation"
)

func button(text string, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(translation.Translate(text), data)
}

func mainMenuButton() tgbotapi.InlineKeyboardButton {
	return button("🏠 Main Menu", string(KindMainMenu))
}

func priceAndChartRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(
		button("💰 Check Price", string(KindCheckPrice)),
		button("📈 View Chart", string(KindViewChart)),
	)
}

func mainMenuKeyboard(username string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if username != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL(
				translation.Translate("➕ Add to Your Group"),
				"https://t.me/"+username+"?startgroup=true",
			),
		))
	}
	rows = append(rows,
		priceAndChartRow(),
		tgbotapi.NewInlineKeyboardRow(
			button("⭐ Favorites", string(KindFavorites)),
			button("🔔 Set Alerts", string(KindAlerts)),
		),
		tgbotapi.NewInlineKeyboardRow(button("❓ Help", string(KindHelp))),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func helpKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		priceAndChartRow(),
		tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
	)
}

func groupKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		priceAndChartRow(),
		tgbotapi.NewInlineKeyboardRow(button("❓ Help", string(KindHelp))),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(mainMenuButton()))
}

func priceKeyboard(symbol string, amount float64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("📈 View Chart", symbolAction(KindChart, symbol)),
			button("⭐ Add to Favorites", symbolAction(KindFavorite, symbol)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🔄 Refresh", priceAction(symbol, amount)),
			button("🔔 Set Alert", symbolAction(KindAlert, symbol)),
		),
		tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
	)
}

func chartKeyboard(symbol string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("💰 Get Price", priceAction(symbol, 1)),
			button("🔄 Refresh Chart", symbolAction(KindChart, symbol)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("⭐ Add to Favorites", symbolAction(KindFavorite, symbol)),
			mainMenuButton(),
		),
	)
}

func chartRetryKeyboard(symbol string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🔄 Retry", symbolAction(KindChart, symbol)),
			mainMenuButton(),
		),
	)
}

func alertsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("➕ Set New Alert", string(KindSetAlert))),
		tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
	)
}

func favoritesKeyboard(favorites []string) tgbotapi.InlineKeyboardMarkup {
	if len(favorites) == 0 {
		return backKeyboard()
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(favorites)+2)
	for _, symbol := range favorites {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 "+symbol, priceAction(symbol, 1)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(button("🔄 Refresh", string(KindFavorites))),
		tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
