package chart

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"

	"price-panda-bot/internal/types"
)

// Days is the number of daily candles plotted on a chart.
const Days = 30

// MarketData reads daily candles from a Binance compatible klines endpoint.
type MarketData struct {
	baseURL string
	client  *http.Client
}

func NewMarketData(baseURL string, client *http.Client) *MarketData {
	if client == nil {
		client = http.DefaultClient
	}
	return &MarketData{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// FetchCandles returns the latest daily closes of <symbol>USDT, oldest first.
func (m *MarketData) FetchCandles(ctx context.Context, symbol string) ([]types.Candle, error) {
	params := url.Values{
		"symbol":   {strings.ToUpper(symbol) + "USDT"},
		"interval": {"1d"},
		"limit":    {strconv.Itoa(Days)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.baseURL+"/api/v3/klines?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build klines request")
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "klines request for %s failed", symbol)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("klines request for %s returned status %d", symbol, resp.StatusCode)
	}

	var rows [][]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, errors.Wrap(err, "could not decode klines")
	}

	return parseKlines(rows)
}

// parseKlines reads the open time (ms) at index 0 and the close price (string) at index 4.
func parseKlines(rows [][]json.RawMessage) ([]types.Candle, error) {
	candles := make([]types.Candle, 0, len(rows))
	for i, row := range rows {
		if len(row) < 5 {
			return nil, errors.Errorf("kline %d has %d fields", i, len(row))
		}

		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			return nil, errors.Wrapf(err, "kline %d open time", i)
		}

		var closeText string
		if err := json.Unmarshal(row[4], &closeText); err != nil {
			return nil, errors.Wrapf(err, "kline %d close", i)
		}
		closePrice, err := strconv.ParseFloat(closeText, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "kline %d close", i)
		}

		candles = append(candles, types.Candle{OpenTime: time.UnixMilli(openTime).UTC(), Close: closePrice})
	}
	return candles, nil
}
