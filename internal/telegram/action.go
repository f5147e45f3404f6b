package telegram

import (
	"strconv"
	"strings"

	"price-panda-bot/lib/helpers"
)

// Kind names a button press. Its value is the callback data prefix.
type Kind string

const (
	KindCheckPrice Kind = "check_price"
	KindViewChart  Kind = "view_chart"
	KindHelp       Kind = "help"
	KindMainMenu   Kind = "main_menu"
	KindAlerts     Kind = "alerts"
	KindFavorites  Kind = "favorites"
	KindSetAlert   Kind = "set_alert"

	KindAlert    Kind = "alert"
	KindFavorite Kind = "favorite"
	KindPrice    Kind = "price"
	KindChart    Kind = "chart"
)

var plainKinds = map[Kind]bool{
	KindCheckPrice: true,
	KindViewChart:  true,
	KindHelp:       true,
	KindMainMenu:   true,
	KindAlerts:     true,
	KindFavorites:  true,
	KindSetAlert:   true,
}

var symbolKinds = []Kind{KindAlert, KindFavorite, KindPrice, KindChart}

// Action is decoded callback data. Symbol is set for symbol kinds; Amount only for KindPrice and defaults to 1.
type Action struct {
	Kind   Kind
	Symbol string
	Amount float64
}

// ParseAction decodes data such as "main_menu", "chart_BTC" or "price_ETH_2.5".
func ParseAction(data string) (Action, bool) {
	if plainKinds[Kind(data)] {
		return Action{Kind: Kind(data)}, true
	}

	for _, kind := range symbolKinds {
		rest, found := strings.CutPrefix(data, string(kind)+"_")
		if !found {
			continue
		}

		parts := strings.Split(rest, "_")
		symbol := helpers.NormalizeSymbol(parts[0])
		if symbol == "" {
			return Action{}, false
		}

		action := Action{Kind: kind, Symbol: symbol}
		if kind != KindPrice {
			return action, true
		}

		action.Amount = 1
		if len(parts) > 1 && parts[1] != "" {
			amount, err := strconv.ParseFloat(parts[1], 64)
			if err != nil || !helpers.IsFinite(amount) || amount <= 0 {
				return Action{}, false
			}
			action.Amount = amount
		}
		return action, true
	}

	return Action{}, false
}

// Encode is the inverse of ParseAction. A price amount of 1 is left out.
func (a Action) Encode() string {
	if plainKinds[a.Kind] {
		return string(a.Kind)
	}

	data := string(a.Kind) + "_" + a.Symbol
	if a.Kind == KindPrice && a.Amount != 0 && a.Amount != 1 {
		data += "_" + strconv.FormatFloat(a.Amount, 'f', -1, 64)
	}
	return data
}

func priceAction(symbol string, amount float64) string {
	return Action{Kind: KindPrice, Symbol: symbol, Amount: amount}.Encode()
}

func symbolAction(kind Kind, symbol string) string {
	return Action{Kind: kind, Symbol: symbol}.Encode()
}
