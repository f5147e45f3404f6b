// Package price looks up live and historical USD quotes from a remote provider.
package price

import (
	"context"
	"strings"

	"price-panda-bot/internal/types"
	"price-panda-bot/lib/helpers"
)

// HistoryDays is the length of the daily series returned by FetchHistoricalSeries.
const HistoryDays = 30

// QuoteProvider fails soft: errors are logged and reported as ok=false, never returned.
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*types.PriceQuote, bool)
	FetchHistoricalSeries(ctx context.Context, symbol string) ([]types.Candle, bool)
}

// Recorder receives one observation per provider request.
type Recorder interface {
	QuoteRequest(provider, result string)
}

type noopRecorder struct{}

func (noopRecorder) QuoteRequest(string, string) {}

const (
	resultOK       = "ok"
	resultNotFound = "not_found"
	resultError    = "error"
)

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// valid rejects quotes that cannot be shown to a user.
func valid(q *types.PriceQuote) bool {
	if q == nil || q.PriceUSD <= 0 || !helpers.IsFinite(q.PriceUSD) {
		return false
	}
	for _, change := range []float64{q.PercentChange1h, q.PercentChange24h, q.PercentChange7d, q.PercentChange30d} {
		if !helpers.IsFinite(change) {
			return false
		}
	}
	return true
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
