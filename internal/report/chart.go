package report

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/pedro-hbl/lambda-gopher-ledger/pkg/ledger"
)

// MaxChartBars caps the number of clients drawn in one chart
const MaxChartBars = 200

const (
	barWidth   = 40
	barSpacing = 20
)

// ErrNothingToChart is returned when there are no accounts to draw
var ErrNothingToChart = errors.New("no accounts to chart")

// ChartWriter renders a PNG bar chart of each client's total balance.
// Locked accounts are drawn in red.
type ChartWriter struct {
	Width  int
	Height int
}

// Write implements Writer
func (cw ChartWriter) Write(w io.Writer, accounts []ledger.AccountSnapshot) error {
	if len(accounts) == 0 {
		return ErrNothingToChart
	}

	title := "Client balances (total)"
	if len(accounts) > MaxChartBars {
		title = fmt.Sprintf("Client balances (total, first %d of %d clients)", MaxChartBars, len(accounts))
		accounts = accounts[:MaxChartBars]
	}

	bars := make([]chart.Value, 0, len(accounts))
	low, high := 0.0, 0.0
	for _, account := range accounts {
		value := account.Total.Float64()
		low = math.Min(low, value)
		high = math.Max(high, value)

		bar := chart.Value{
			Label: strconv.FormatUint(uint64(account.Client), 10),
			Value: value,
		}
		if account.Locked {
			bar.Style = chart.Style{
				FillColor:   drawing.ColorRed,
				StrokeColor: drawing.ColorRed,
			}
		}
		bars = append(bars, bar)
	}

	// a flat range cannot be scaled
	if high-low == 0 {
		high = low + 1
	}

	barChart := chart.BarChart{
		Title: title,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    40,
				Left:   20,
				Right:  20,
				Bottom: 20,
			},
		},
		Width:      cw.width(len(bars)),
		Height:     cw.Height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Bars:       bars,
	}
	barChart.YAxis.Range = &chart.ContinuousRange{Min: low, Max: high}
	barChart.YAxis.ValueFormatter = func(v interface{}) string {
		if vf, isFloat := v.(float64); isFloat {
			return fmt.Sprintf("%.4f", vf)
		}
		return ""
	}

	if err := barChart.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// width grows the canvas so every bar fits
func (cw ChartWriter) width(bars int) int {
	needed := bars*(barWidth+barSpacing) + 200
	if needed > cw.Width {
		return needed
	}
	return cw.Width
}
