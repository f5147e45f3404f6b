package chart

import (
	"bytes"
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price-panda-bot/internal/types"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func closes(values ...float64) []types.Candle {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, len(values))
	for i, v := range values {
		candles[i] = types.Candle{OpenTime: start.AddDate(0, 0, i), Close: v}
	}
	return candles
}

func TestNewSeries_FlatRangeIsCentred(t *testing.T) {
	values := make([]float64, Days)
	for i := range values {
		values[i] = 42
	}

	series, err := NewSeries(closes(values...))
	require.NoError(t, err)

	assert.Equal(t, 41.5, series.YMin)
	assert.Equal(t, 42.5, series.YMax)
	require.Len(t, series.Points, Days)
	for _, p := range series.Points {
		assert.InDelta(t, 200, p.Y, 1e-9)
	}
	assert.Equal(t, 20.0, series.Points[0].X)
	assert.Equal(t, 780.0, series.Points[Days-1].X)
}

func TestNewSeries_FlatRangeAtHugePrice(t *testing.T) {
	series, err := NewSeries(closes(1e17, 1e17, 1e17))
	require.NoError(t, err)

	assert.Greater(t, series.YMax, series.YMin)
	for _, p := range series.Points {
		assert.False(t, math.IsNaN(p.Y))
		assert.InDelta(t, 200, p.Y, 1e-6)
	}
	for _, l := range series.Levels {
		assert.False(t, math.IsNaN(l.Price))
	}
}

func TestNewSeries_PaddedRange(t *testing.T) {
	series, err := NewSeries(closes(100, 150, 200))
	require.NoError(t, err)

	assert.Equal(t, 100.0, series.Min)
	assert.Equal(t, 200.0, series.Max)
	assert.InDelta(t, 90, series.YMin, 1e-9)
	assert.InDelta(t, 210, series.YMax, 1e-9)

	// min and max sit one padding step inside the plot area
	assert.InDelta(t, 380-360.0/12, series.Points[0].Y, 1e-9)
	assert.InDelta(t, 20+360.0/12, series.Points[2].Y, 1e-9)
	assert.InDelta(t, 400, series.Points[1].X, 1e-9)
}

func TestNewSeries_Levels(t *testing.T) {
	series, err := NewSeries(closes(100, 200))
	require.NoError(t, err)

	require.Len(t, series.Levels, 6)
	assert.InDelta(t, 90, series.Levels[0].Price, 1e-9)
	assert.Equal(t, 380.0, series.Levels[0].Y)
	assert.InDelta(t, 210, series.Levels[5].Price, 1e-9)
	assert.Equal(t, 20.0, series.Levels[5].Y)
	assert.InDelta(t, 308, series.Levels[1].Y, 1e-9)
}

func TestNewSeries_SinglePoint(t *testing.T) {
	series, err := NewSeries(closes(7))
	require.NoError(t, err)
	require.Len(t, series.Points, 1)
	assert.Equal(t, Point{X: 400, Y: 200}, series.Points[0])
}

func TestNewSeries_Empty(t *testing.T) {
	_, err := NewSeries(nil)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestMarketData_FetchCandles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/klines", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		w.Write([]byte(`[
			[1767225600000, "93000.00", "94000.00", "92000.00", "93500.50", "1000", 1767311999999],
			[1767312000000, "93500.50", "95000.00", "93000.00", "94800.25", "1200", 1767398399999]
		]`))
	}))
	defer server.Close()

	candles, err := NewMarketData(server.URL+"/", server.Client()).FetchCandles(context.Background(), "btc")
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 93500.50, candles[0].Close)
	assert.Equal(t, 94800.25, candles[1].Close)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), candles[0].OpenTime)
}

func TestMarketData_FetchCandlesErrors(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"unknown pair": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code": -1121, "msg": "Invalid symbol."}`))
		},
		"short row": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[[1767225600000, "1"]]`))
		},
		"numeric close": func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[[1767225600000, "1", "1", "1", 1.5]]`))
		},
	}

	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(handler)
			defer server.Close()

			_, err := NewMarketData(server.URL, server.Client()).FetchCandles(context.Background(), "NOPE")
			assert.Error(t, err)
		})
	}
}

type fakeSource struct {
	candles []types.Candle
	err     error
	calls   int
}

func (f *fakeSource) FetchCandles(context.Context, string) ([]types.Candle, error) {
	f.calls++
	return f.candles, f.err
}

type renderResults []string

func (r *renderResults) ChartRender(result string) {
	*r = append(*r, result)
}

func TestRenderer_Render(t *testing.T) {
	source := &fakeSource{candles: closes(1, 3, 2, 5, 4)}
	results := &renderResults{}
	renderer, err := NewRenderer(source, time.Minute, results)
	require.NoError(t, err)

	data, err := renderer.Render(context.Background(), "ETH")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngSignature))

	again, err := renderer.Render(context.Background(), "eth")
	require.NoError(t, err)
	assert.Equal(t, data, again)
	assert.Equal(t, 1, source.calls)
	assert.Equal(t, renderResults{"ok", "cached"}, *results)
}

func TestRenderer_RenderWithoutCache(t *testing.T) {
	source := &fakeSource{candles: closes(10, 10, 10)}
	renderer, err := NewRenderer(source, 0, nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		data, err := renderer.Render(context.Background(), "USDC")
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, pngSignature))
	}
	assert.Equal(t, 2, source.calls)
}

func TestRenderer_RenderFailsHard(t *testing.T) {
	results := &renderResults{}
	renderer, err := NewRenderer(&fakeSource{err: errors.New("connection reset")}, time.Minute, results)
	require.NoError(t, err)

	_, err = renderer.Render(context.Background(), "BTC")
	assert.ErrorContains(t, err, "connection reset")

	renderer.source = &fakeSource{}
	_, err = renderer.Render(context.Background(), "BTC")
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, renderResults{"error", "error"}, *results)
}
