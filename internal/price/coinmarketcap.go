package price

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"price-panda-bot/internal/types"
)

// CoinMarketCap queries the CoinMarketCap pro API.
type CoinMarketCap struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	recorder Recorder
}

func NewCoinMarketCap(baseURL, apiKey string, client *http.Client, recorder Recorder) *CoinMarketCap {
	if client == nil {
		client = http.DefaultClient
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &CoinMarketCap{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		client:   client,
		recorder: recorder,
	}
}

func (c *CoinMarketCap) Name() string {
	return "coinmarketcap"
}

type cmcUSDQuote struct {
	Price            *float64 `json:"price"`
	PercentChange1h  *float64 `json:"percent_change_1h"`
	PercentChange24h *float64 `json:"percent_change_24h"`
	PercentChange7d  *float64 `json:"percent_change_7d"`
	PercentChange30d *float64 `json:"percent_change_30d"`
	MarketCap        *float64 `json:"market_cap"`
	Volume24h        *float64 `json:"volume_24h"`
}

type cmcToken struct {
	Name              string   `json:"name"`
	Symbol            string   `json:"symbol"`
	CirculatingSupply *float64 `json:"circulating_supply"`
	MaxSupply         *float64 `json:"max_supply"`
	ATH               *float64 `json:"ath"`
	Quote             struct {
		USD *cmcUSDQuote `json:"USD"`
	} `json:"quote"`
}

type cmcLatestResponse struct {
	Data map[string][]cmcToken `json:"data"`
}

type cmcHistoricalResponse struct {
	Data map[string][]struct {
		Quotes []struct {
			Timestamp time.Time `json:"timestamp"`
			Quote     struct {
				USD *struct {
					Price *float64 `json:"price"`
				} `json:"USD"`
			} `json:"quote"`
		} `json:"quotes"`
	} `json:"data"`
}

func (c *CoinMarketCap) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "could not build request")
	}
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request %s failed", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("request %s returned status %d", path, resp.StatusCode)
	}

	return errors.Wrapf(json.NewDecoder(resp.Body).Decode(out), "could not decode %s response", path)
}

func (c *CoinMarketCap) FetchQuote(ctx context.Context, symbol string) (*types.PriceQuote, bool) {
	symbol = normalize(symbol)
	logger := log.WithFields(log.Fields{"provider": c.Name(), "symbol": symbol})

	var resp cmcLatestResponse
	params := url.Values{"symbol": {symbol}, "convert": {"USD"}}
	if err := c.get(ctx, "/v2/cryptocurrency/quotes/latest", params, &resp); err != nil {
		logger.Errorf("Error fetching price: %v", err)
		c.recorder.QuoteRequest(c.Name(), resultError)
		return nil, false
	}

	tokens := resp.Data[symbol]
	if len(tokens) == 0 {
		logger.Debug("No data found for symbol")
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	token := tokens[0]
	usd := token.Quote.USD
	if usd == nil || usd.Price == nil {
		logger.Debug("Invalid token data structure for symbol")
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	quote := &types.PriceQuote{
		Symbol:            token.Symbol,
		Name:              token.Name,
		PriceUSD:          *usd.Price,
		PercentChange1h:   deref(usd.PercentChange1h),
		PercentChange24h:  deref(usd.PercentChange24h),
		PercentChange7d:   deref(usd.PercentChange7d),
		PercentChange30d:  deref(usd.PercentChange30d),
		MarketCap:         deref(usd.MarketCap),
		Volume24h:         deref(usd.Volume24h),
		CirculatingSupply: deref(token.CirculatingSupply),
		MaxSupply:         deref(token.MaxSupply),
		ATH:               deref(token.ATH),
	}
	if quote.Symbol == "" {
		quote.Symbol = symbol
	}
	if !valid(quote) {
		logger.Debugf("Discarding unusable quote with price %v", quote.PriceUSD)
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	c.recorder.QuoteRequest(c.Name(), resultOK)
	return quote, true
}

func (c *CoinMarketCap) FetchHistoricalSeries(ctx context.Context, symbol string) ([]types.Candle, bool) {
	symbol = normalize(symbol)
	logger := log.WithFields(log.Fields{"provider": c.Name(), "symbol": symbol})

	var resp cmcHistoricalResponse
	params := url.Values{
		"symbol":   {symbol},
		"convert":  {"USD"},
		"interval": {"1d"},
		"count":    {strconv.Itoa(HistoryDays)},
	}
	if err := c.get(ctx, "/v2/cryptocurrency/quotes/historical", params, &resp); err != nil {
		logger.Errorf("Error fetching historical data: %v", err)
		c.recorder.QuoteRequest(c.Name(), resultError)
		return nil, false
	}

	entries := resp.Data[symbol]
	if len(entries) == 0 || len(entries[0].Quotes) == 0 {
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	candles := make([]types.Candle, 0, len(entries[0].Quotes))
	for _, q := range entries[0].Quotes {
		if q.Quote.USD == nil || q.Quote.USD.Price == nil {
			continue
		}
		candles = append(candles, types.Candle{OpenTime: q.Timestamp, Close: *q.Quote.USD.Price})
	}
	if len(candles) == 0 {
		c.recorder.QuoteRequest(c.Name(), resultNotFound)
		return nil, false
	}

	c.recorder.QuoteRequest(c.Name(), resultOK)
	return candles, true
}
