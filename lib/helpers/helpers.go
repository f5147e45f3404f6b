package helpers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/forPelevin/gomoji"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// EscapeMarkdown escapes the characters that open an entity in Telegram's legacy Markdown mode.
func EscapeMarkdown(text string) string {
	charactersToEscape := []string{"_", "*", "`", "["}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatFixed renders v with exactly decimals fractional digits and no grouping.
func FormatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatPrice uses 8 decimals below one dollar and 4 otherwise.
func FormatPrice(price float64) string {
	if price < 1 {
		return FormatFixed(price, 8)
	}
	return FormatFixed(price, 4)
}

// FormatCompact abbreviates large values with B/M/K suffixes.
func FormatCompact(num float64) string {
	switch {
	case num >= 1e9:
		return FormatFixed(num/1e9, 2) + "B"
	case num >= 1e6:
		return FormatFixed(num/1e6, 2) + "M"
	case num >= 1e3:
		return FormatFixed(num/1e3, 2) + "K"
	}
	return FormatFixed(num, 2)
}

// FormatPlain prints a user supplied number without trailing zeros.
func FormatPlain(num float64) string {
	return humanize.FtoaWithDigits(num, 8)
}

// FormatPriceUS formats a price with comma thousands separators.
func FormatPriceUS(price float64) string {
	decimals := 2
	if price < 1 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", decimals, price)
}

// FormatSince renders a past instant relative to now, e.g. "3 days ago".
func FormatSince(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return humanize.Time(t)
}

// TrendEmoji picks the emoji shown next to a percent change.
func TrendEmoji(change float64) string {
	switch {
	case change > 5:
		return "🚀"
	case change > 0:
		return "📈"
	case change > -5:
		return "📉"
	}
	return "💥"
}

// NormalizeSymbol strips emojis and whitespace and upper-cases a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(gomoji.RemoveEmojis(symbol)))
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
