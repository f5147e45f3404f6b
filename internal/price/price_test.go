package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/coinpaprika/coinpaprika-api-go-client/v2/coinpaprika"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	provider, result string
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
}

func (f *fakeRecorder) QuoteRequest(provider, result string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, recordedRequest{provider, result})
}

const btcLatest = `{
  "status": {"error_code": 0},
  "data": {
    "BTC": [{
      "name": "Bitcoin",
      "symbol": "BTC",
      "circulating_supply": 19500000,
      "max_supply": 21000000,
      "quote": {"USD": {
        "price": 50000,
        "percent_change_1h": 0.5,
        "percent_change_24h": -1.25,
        "percent_change_7d": 6.1,
        "percent_change_30d": -7.3,
        "market_cap": 975000000000,
        "volume_24h": 25000000000
      }}
    }]
  }
}`

func newCMC(t *testing.T, handler http.HandlerFunc) (*CoinMarketCap, *fakeRecorder) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	rec := &fakeRecorder{}
	return NewCoinMarketCap(server.URL, "secret", server.Client(), rec), rec
}

func TestCoinMarketCap_FetchQuote(t *testing.T) {
	cmc, rec := newCMC(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/cryptocurrency/quotes/latest", r.URL.Path)
		assert.Equal(t, "BTC", r.URL.Query().Get("symbol"))
		assert.Equal(t, "USD", r.URL.Query().Get("convert"))
		assert.Equal(t, "secret", r.Header.Get("X-CMC_PRO_API_KEY"))
		w.Write([]byte(btcLatest))
	})

	quote, ok := cmc.FetchQuote(context.Background(), "btc")
	require.True(t, ok)
	assert.Equal(t, "Bitcoin", quote.Name)
	assert.Equal(t, "BTC", quote.Symbol)
	assert.Equal(t, 50000.0, quote.PriceUSD)
	assert.Equal(t, -1.25, quote.PercentChange24h)
	assert.Equal(t, -7.3, quote.PercentChange30d)
	assert.Equal(t, 21000000.0, quote.MaxSupply)
	assert.Zero(t, quote.ATH)
	assert.Equal(t, []recordedRequest{{"coinmarketcap", "ok"}}, rec.requests)
}

func TestCoinMarketCap_FetchQuoteAbsent(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"empty data": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {}}`))
		},
		"empty result list": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"DOGE": []}}`))
		},
		"missing USD quote": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"DOGE": [{"name": "Dogecoin", "symbol": "DOGE", "quote": {}}]}}`))
		},
		"zero price": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": {"DOGE": [{"symbol": "DOGE", "quote": {"USD": {"price": 0}}}]}}`))
		},
		"bad request": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"status": {"error_message": "Invalid value for \"symbol\""}}`))
		},
		"malformed body": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html>`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			cmc, _ := newCMC(t, handler)
			quote, ok := cmc.FetchQuote(context.Background(), "DOGE")
			assert.False(t, ok)
			assert.Nil(t, quote)
		})
	}
}

func TestCoinMarketCap_FetchQuoteTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	rec := &fakeRecorder{}
	cmc := NewCoinMarketCap(server.URL, "", nil, rec)
	_, ok := cmc.FetchQuote(context.Background(), "BTC")
	assert.False(t, ok)
	assert.Equal(t, []recordedRequest{{"coinmarketcap", "error"}}, rec.requests)
}

func TestCoinMarketCap_FetchHistoricalSeries(t *testing.T) {
	cmc, _ := newCMC(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/cryptocurrency/quotes/historical", r.URL.Path)
		assert.Equal(t, "30", r.URL.Query().Get("count"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Write([]byte(`{"data": {"ETH": [{"quotes": [
			{"timestamp": "2026-01-01T00:00:00Z", "quote": {"USD": {"price": 3000}}},
			{"timestamp": "2026-01-02T00:00:00Z", "quote": {"USD": {"price": 3100.5}}},
			{"timestamp": "2026-01-03T00:00:00Z", "quote": {}}
		]}]}}`))
	})

	candles, ok := cmc.FetchHistoricalSeries(context.Background(), "eth")
	require.True(t, ok)
	require.Len(t, candles, 2)
	assert.Equal(t, 3100.5, candles[1].Close)
	assert.Equal(t, 2, candles[1].OpenTime.Day())
}

func ptr[T any](v T) *T {
	return &v
}

func TestQuoteFromTicker(t *testing.T) {
	ticker := &coinpaprika.Ticker{
		Name:              ptr("Ethereum"),
		Symbol:            ptr("ETH"),
		CirculatingSupply: ptr(int64(120000000)),
		Quotes: map[string]coinpaprika.Quote{
			"USD": {
				Price:            ptr(3000.0),
				PercentChange1h:  ptr(0.1),
				PercentChange24h: ptr(-2.0),
				PercentChange7d:  ptr(4.0),
				PercentChange30d: ptr(-12.5),
				MarketCap:        ptr(360000000000.0),
				Volume24h:        ptr(15000000000.0),
				ATHPrice:         ptr(4878.26),
			},
		},
	}

	quote, ok := quoteFromTicker(ticker)
	require.True(t, ok)
	assert.Equal(t, "Ethereum", quote.Name)
	assert.Equal(t, 3000.0, quote.PriceUSD)
	assert.Equal(t, 120000000.0, quote.CirculatingSupply)
	assert.Zero(t, quote.MaxSupply)
	assert.Equal(t, 4878.26, quote.ATH)
}

func TestQuoteFromTicker_Absent(t *testing.T) {
	_, ok := quoteFromTicker(nil)
	assert.False(t, ok)

	_, ok = quoteFromTicker(&coinpaprika.Ticker{Name: ptr("Dead")})
	assert.False(t, ok)

	_, ok = quoteFromTicker(&coinpaprika.Ticker{Quotes: map[string]coinpaprika.Quote{"BTC": {Price: ptr(1.0)}}})
	assert.False(t, ok)
}
