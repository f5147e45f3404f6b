package chart

import (
	"math"

	"github.com/pkg/errors"

	"price-panda-bot/internal/types"
)

const (
	Width  = 800
	Height = 400

	plotLeft   = 20
	plotRight  = 780
	plotTop    = 20
	plotBottom = 380

	gridIntervals = 5
	rangePadding  = 0.1

	flatHalfRange    = 0.5
	flatRelativeHalf = 1e-9
)

var ErrNoData = errors.New("no market data")

type Point struct {
	X, Y float64
}

// Level is a horizontal gridline and the price printed next to it.
type Level struct {
	Price float64
	Y     float64
}

// Series is a candle list mapped onto the canvas.
type Series struct {
	Min, Max   float64
	YMin, YMax float64
	Points     []Point
	Levels     []Level
}

// NewSeries pads the price range by 10% on each side. A flat series is centred on a range of 1,
// widened for prices too large for ±0.5 to register.
func NewSeries(candles []types.Candle) (*Series, error) {
	if len(candles) == 0 {
		return nil, ErrNoData
	}

	s := &Series{Min: candles[0].Close, Max: candles[0].Close}
	for _, c := range candles[1:] {
		if c.Close < s.Min {
			s.Min = c.Close
		}
		if c.Close > s.Max {
			s.Max = c.Close
		}
	}

	if s.Max == s.Min {
		half := math.Max(flatHalfRange, math.Abs(s.Min)*flatRelativeHalf)
		s.YMin = s.Min - half
		s.YMax = s.Max + half
	} else {
		padding := (s.Max - s.Min) * rangePadding
		s.YMin = s.Min - padding
		s.YMax = s.Max + padding
	}

	span := s.YMax - s.YMin
	for i, c := range candles {
		x := float64(plotLeft+plotRight) / 2
		if len(candles) > 1 {
			x = float64(i)/float64(len(candles)-1)*(plotRight-plotLeft) + plotLeft
		}
		y := plotBottom - (c.Close-s.YMin)/span*(plotBottom-plotTop)
		s.Points = append(s.Points, Point{X: x, Y: y})
	}

	for i := 0; i <= gridIntervals; i++ {
		fraction := float64(i) / gridIntervals
		s.Levels = append(s.Levels, Level{
			Price: s.YMin + span*fraction,
			Y:     plotBottom - fraction*(plotBottom-plotTop),
		})
	}

	return s, nil
}
