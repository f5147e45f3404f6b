package types

import "time"

// UserRecord is the per-user document kept by the user store.
type UserRecord struct {
	TelegramID int64    `json:"telegramId"`
	Favorites  []string `json:"favorites"`
	Alerts     []Alert  `json:"alerts"`
}

type Alert struct {
	Symbol         string     `json:"symbol"`
	TargetPrice    float64    `json:"targetPrice"`
	ReferencePrice float64    `json:"referencePrice,omitempty"` // price when the alert was set
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

// Created returns the creation time, or the zero time for alerts stored without one.
func (a Alert) Created() time.Time {
	if a.CreatedAt == nil {
		return time.Time{}
	}
	return *a.CreatedAt
}

// HasFavorite reports whether symbol is already on the watch-list.
func (u *UserRecord) HasFavorite(symbol string) bool {
	for _, f := range u.Favorites {
		if f == symbol {
			return true
		}
	}
	return false
}

// PriceQuote is a provider snapshot of one symbol, priced in USD.
type PriceQuote struct {
	Symbol            string  `json:"symbol"`
	Name              string  `json:"name"`
	PriceUSD          float64 `json:"price_usd"`
	PercentChange1h   float64 `json:"percent_change_1h"`
	PercentChange24h  float64 `json:"percent_change_24h"`
	PercentChange7d   float64 `json:"percent_change_7d"`
	PercentChange30d  float64 `json:"percent_change_30d"`
	MarketCap         float64 `json:"market_cap"`
	Volume24h         float64 `json:"volume_24h"`
	CirculatingSupply float64 `json:"circulating_supply"`
	MaxSupply         float64 `json:"max_supply,omitempty"`
	ATH               float64 `json:"ath,omitempty"`
}

// Candle is one daily bar; only the close is plotted.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Close    float64   `json:"close"`
}
