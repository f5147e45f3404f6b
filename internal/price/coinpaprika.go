package price

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-panda-bot/internal/types"
)

// CoinPaprika resolves a symbol with the search endpoint, then reads its USD ticker.
type CoinPaprika struct {
	client   *coinpaprika.Client
	recorder Recorder
}

func NewCoinPaprika(httpClient *http.Client, apiProKey string, recorder Recorder) *CoinPaprika {
	if recorder == nil {
		recorder = noopRecorder{}
	}

	var client *coinpaprika.Client
	if apiProKey != "" {
		client = coinpaprika.NewClient(httpClient, coinpaprika.WithAPIKey(apiProKey))
	} else {
		client = coinpaprika.NewClient(httpClient)
	}
	return &CoinPaprika{client: client, recorder: recorder}
}

func (c *CoinPaprika) Name() string {
	return "coinpaprika"
}

// searchCoin returns the search result whose symbol matches exactly, or nil when none does.
func (c *CoinPaprika) searchCoin(symbol string) (*coinpaprika.Coin, error) {
	searchOpts := &coinpaprika.SearchOptions{
		Query:      symbol,
		Categories: "currencies",
		Modifier:   "symbol_search",
	}
	result, err := c.client.Search.Search(searchOpts)
	if err != nil {
		return nil, errors.Wrap(err, "search failed")
	}
	if result == nil {
		return nil, nil
	}

	for _, coin := range result.Currencies {
		if coin != nil && coin.Symbol != nil && coin.ID != nil && strings.EqualFold(*coin.Symbol, symbol) {
			return coin, nil
		}
	}
	return nil, nil
}

func (c *CoinPaprika) FetchQuote(_ context.Context, symbol string) (*types.PriceQuote, bool) {
	symbol = normalize(symbol)
	logger := log.WithFields(log.Fields{"provider": c.Name(), "symbol": symbol})

	coin, err := c.searchCoin(symbol)
	if err != nil {
		logger.Errorf("Error fetching price: %v", err)
		c.recorder.QuoteRequest(c.Name(), resultError)
		return nil, false
	}
	if coin == nil {
		logger.Debug("No data found for symbol")
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	ticker, err := c.client.Tickers.GetByID(*coin.ID, &coinpaprika.TickersOptions{Quotes: "USD"})
	if err != nil {
		logger.Errorf("Error fetching ticker %s: %v", *coin.ID, err)
		c.recorder.QuoteRequest(c.Name(), resultError)
		return nil, false
	}

	quote, ok := quoteFromTicker(ticker)
	if !ok || !strings.EqualFold(quote.Symbol, symbol) {
		logger.Debug("Invalid token data structure for symbol")
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	c.recorder.QuoteRequest(c.Name(), resultOK)
	return quote, true
}

func quoteFromTicker(ticker *coinpaprika.Ticker) (*types.PriceQuote, bool) {
	if ticker == nil || ticker.Quotes == nil {
		return nil, false
	}
	usd, exists := ticker.Quotes["USD"]
	if !exists || usd.Price == nil {
		return nil, false
	}

	quote := &types.PriceQuote{
		PriceUSD:         *usd.Price,
		PercentChange1h:  deref(usd.PercentChange1h),
		PercentChange24h: deref(usd.PercentChange24h),
		PercentChange7d:  deref(usd.PercentChange7d),
		PercentChange30d: deref(usd.PercentChange30d),
		MarketCap:        deref(usd.MarketCap),
		Volume24h:        deref(usd.Volume24h),
		ATH:              deref(usd.ATHPrice),
	}
	if ticker.Name != nil {
		quote.Name = *ticker.Name
	}
	if ticker.Symbol != nil {
		quote.Symbol = *ticker.Symbol
	}
	if ticker.CirculatingSupply != nil {
		quote.CirculatingSupply = float64(*ticker.CirculatingSupply)
	}
	if ticker.MaxSupply != nil {
		quote.MaxSupply = float64(*ticker.MaxSupply)
	}

	if !valid(quote) {
		return nil, false
	}
	return quote, true
}

func (c *CoinPaprika) FetchHistoricalSeries(_ context.Context, symbol string) ([]types.Candle, bool) {
	symbol = normalize(symbol)
	logger := log.WithFields(log.Fields{"provider": c.Name(), "symbol": symbol})

	coin, err := c.searchCoin(symbol)
	if err != nil {
		logger.Errorf("Error fetching historical data: %v", err)
		c.recorder.QuoteRequest(c.Name(), resultError)
		return nil, false
	}
	if coin == nil {
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	tickerOpts := &coinpaprika.TickersHistoricalOptions{
		Quote:    "USD",
		Limit:    HistoryDays,
		Interval: "1d",
		Start:    time.Now().AddDate(0, 0, -HistoryDays),
	}
	tickers, err := c.client.Tickers.GetHistoricalTickersByID(*coin.ID, tickerOpts)
	if err != nil {
		logger.Errorf("Error fetching historical data: %v", err)
		c.recorder.QuoteRequest(c.Name(), resultError)
		return nil, false
	}

	candles := make([]types.Candle, 0, len(tickers))
	for _, t := range tickers {
		if t == nil || t.Price == nil || t.Timestamp == nil {
			continue
		}
		candles = append(candles, types.Candle{OpenTime: *t.Timestamp, Close: *t.Price})
	}
	if len(candles) == 0 {
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	c.recorder.QuoteRequest(c.Name(), resultOK)
	return candles, true
}
