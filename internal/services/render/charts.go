package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/thesis/internal/models"
)

// renderPriceChart renders a PNG line chart of adjusted closing prices.
// Returns raw PNG bytes.
func renderPriceChart(ticker string, bars []models.EODBar) ([]byte, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 price bars, got %d", len(bars))
	}

	xValues := make([]time.Time, len(bars))
	yValues := make([]float64, len(bars))
	for i, bar := range bars {
		xValues[i] = bar.Date
		price := bar.AdjClose
		if price == 0 {
			price = bar.Close
		}
		yValues[i] = price
	}

	priceSeries := chart.TimeSeries{
		Name: fmt.Sprintf("%s Close", ticker),
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
			StrokeWidth: 2.0,
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Share Price (1Y)", ticker),
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{priceSeries},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("price chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// renderVolumeChart renders a PNG chart of daily traded volume.
func renderVolumeChart(ticker string, bars []models.EODBar) ([]byte, error) {
	if len(bars) < 2 {
		return nil, fmt.Errorf("need at least 2 price bars, got %d", len(bars))
	}

	xValues := make([]time.Time, len(bars))
	yValues := make([]float64, len(bars))
	for i, bar := range bars {
		xValues[i] = bar.Date
		yValues[i] = float64(bar.Volume)
	}

	volumeSeries := chart.TimeSeries{
		Name: fmt.Sprintf("%s Volume", ticker),
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("9ca3af"), // gray-400
			StrokeWidth: 1.0,
			FillColor:   drawing.ColorFromHex("d1d5db").WithAlpha(160),
		},
		XValues: xValues,
		YValues: yValues,
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s Daily Volume (1Y)", ticker),
		Width:  900,
		Height: 300,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					switch {
					case f >= 1e9:
						return fmt.Sprintf("%.1fB", f/1e9)
					case f >= 1e6:
						return fmt.Sprintf("%.1fM", f/1e6)
					case f >= 1e3:
						return fmt.Sprintf("%.0fk", f/1e3)
					}
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{volumeSeries},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("volume chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
