// Package chart draws the 30 day price chart sent by the bot.
package chart

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"price-panda-bot/internal/types"
)

var (
	lineColor = drawing.ColorFromHex("2196f3")
	gridColor = drawing.ColorFromHex("e0e0e0")
)

// CandleSource supplies the daily closes to plot.
type CandleSource interface {
	FetchCandles(ctx context.Context, symbol string) ([]types.Candle, error)
}

// Recorder receives one observation per Render call.
type Recorder interface {
	ChartRender(result string)
}

type noopRecorder struct{}

func (noopRecorder) ChartRender(string) {}

type Renderer struct {
	source   CandleSource
	cache    *Cache
	font     *truetype.Font
	recorder Recorder
}

func NewRenderer(source CandleSource, cacheTTL time.Duration, recorder Recorder) (*Renderer, error) {
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return nil, errors.Wrap(err, "could not load chart font")
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Renderer{
		source:   source,
		cache:    NewCache(cacheTTL),
		font:     font,
		recorder: recorder,
	}, nil
}

// Render returns the PNG chart of symbol. Market data failures are returned, not hidden.
func (r *Renderer) Render(ctx context.Context, symbol string) ([]byte, error) {
	logger := log.WithField("symbol", symbol)

	if data, ok := r.cache.Get(symbol); ok {
		logger.Debug("returning cached chart")
		r.recorder.ChartRender("cached")
		return data, nil
	}

	candles, err := r.source.FetchCandles(ctx, symbol)
	if err != nil {
		r.recorder.ChartRender("error")
		return nil, errors.Wrapf(err, "could not fetch market data for %s", symbol)
	}

	series, err := NewSeries(candles)
	if err != nil {
		r.recorder.ChartRender("error")
		return nil, errors.Wrapf(err, "could not plot %s", symbol)
	}

	data, err := Draw(series, r.font)
	if err != nil {
		r.recorder.ChartRender("error")
		return nil, err
	}

	r.cache.Set(symbol, data)
	r.recorder.ChartRender("ok")
	return data, nil
}

func px(v float64) int {
	return int(math.Round(v))
}

// Draw rasterises series onto a white 800x400 PNG.
func Draw(series *Series, font *truetype.Font) ([]byte, error) {
	r, err := gochart.PNG(Width, Height)
	if err != nil {
		return nil, errors.Wrap(err, "could not create png renderer")
	}
	r.SetDPI(72)

	r.SetFillColor(drawing.ColorWhite)
	r.MoveTo(0, 0)
	r.LineTo(Width, 0)
	r.LineTo(Width, Height)
	r.LineTo(0, Height)
	r.Close()
	r.Fill()

	r.SetStrokeColor(gridColor)
	r.SetStrokeWidth(1)
	for _, level := range series.Levels {
		r.MoveTo(plotLeft, px(level.Y))
		r.LineTo(plotRight, px(level.Y))
		r.Stroke()
	}

	if len(series.Points) > 0 {
		r.SetStrokeColor(lineColor)
		r.SetStrokeWidth(2)
		r.MoveTo(px(series.Points[0].X), px(series.Points[0].Y))
		for _, p := range series.Points[1:] {
			r.LineTo(px(p.X), px(p.Y))
		}
		r.Stroke()
	}

	r.SetFont(font)
	r.SetFontSize(12)
	r.SetFontColor(drawing.ColorBlack)
	for _, level := range series.Levels {
		r.Text(fmt.Sprintf("$%.2f", level.Price), 5, px(level.Y)+4)
	}

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, errors.Wrap(err, "could not encode chart")
	}
	return buf.Bytes(), nil
}
