// Package chart draws the P&L and ROI line charts as inline SVG.
package chart

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"math"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"mtf-simulator/internal/types"
)

const (
	width  = 720
	height = 340
)

var (
	cashColor      = drawing.ColorFromHex("1f77b4")
	leveragedColor = drawing.ColorFromHex("ff7f0e")
)

// Series is one line of a chart.
type Series struct {
	Name  string
	Color drawing.Color
	X, Y  []float64
}

// PnL plots net P&L of both modes against the exit price.
func PnL(points []types.SweepPoint) (template.HTML, error) {
	xs, cash, lev := columns(points, func(p types.SweepPoint) (float64, float64) { return p.PnlCash, p.PnlLeveraged })
	return Line("Profit & Loss vs Stock Price", "Stock Price (₹)", "P&L (₹)", []Series{
		{Name: "CNC P&L", Color: cashColor, X: xs, Y: cash},
		{Name: "MTF P&L", Color: leveragedColor, X: xs, Y: lev},
	})
}

// ROI plots ROI % of both modes against the exit price.
func ROI(points []types.SweepPoint) (template.HTML, error) {
	xs, cash, lev := columns(points, func(p types.SweepPoint) (float64, float64) { return p.RoiCashPct, p.RoiLeveragedPct })
	return Line("ROI % vs Stock Price", "Stock Price (₹)", "ROI %", []Series{
		{Name: "CNC ROI %", Color: cashColor, X: xs, Y: cash},
		{Name: "MTF ROI %", Color: leveragedColor, X: xs, Y: lev},
	})
}

func columns(points []types.SweepPoint, pick func(types.SweepPoint) (float64, float64)) (xs, a, b []float64) {
	xs = make([]float64, len(points))
	a = make([]float64, len(points))
	b = make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Price
		a[i], b[i] = pick(p)
	}
	return xs, a, b
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Line renders series as an SVG line chart. Non-finite samples are dropped;
// when nothing is left a "no data" placeholder is returned. On a render
// error the placeholder is returned together with the error.
func Line(title, xLabel, yLabel string, series []Series) (template.HTML, error) {
	var (
		plotted []gochart.Series
		xr      = span{lo: math.Inf(1), hi: math.Inf(-1)}
		yr      = span{lo: math.Inf(1), hi: math.Inf(-1)}
	)
	for _, s := range series {
		var xs, ys []float64
		for i := range s.X {
			if i >= len(s.Y) || !finite(s.X[i]) || !finite(s.Y[i]) {
				continue
			}
			xs = append(xs, s.X[i])
			ys = append(ys, s.Y[i])
			xr.add(s.X[i])
			yr.add(s.Y[i])
		}
		if len(xs) == 0 {
			continue
		}
		plotted = append(plotted, gochart.ContinuousSeries{
			Name:    s.Name,
			XValues: xs,
			YValues: ys,
			Style: gochart.Style{
				StrokeColor: s.Color,
				StrokeWidth: 2,
			},
		})
	}
	if len(plotted) == 0 {
		return placeholder(title, "no data"), nil
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:           xLabel,
			ValueFormatter: twoPlaces,
			Range:          xr.continuous(),
		},
		YAxis: gochart.YAxis{
			Name:           yLabel,
			ValueFormatter: twoPlaces,
			Range:          yr.continuous(),
		},
		Series: plotted,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.SVG, &buf); err != nil {
		return placeholder(title, "chart unavailable"), fmt.Errorf("render %q: %w", title, err)
	}
	return template.HTML(buf.String()), nil
}

func twoPlaces(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.2f", f)
	}
	return fmt.Sprint(v)
}

// span tracks the extent of plotted values. A flat extent is widened so
// the renderer never sees a zero-width range.
type span struct{ lo, hi float64 }

func (s *span) add(v float64) {
	s.lo = math.Min(s.lo, v)
	s.hi = math.Max(s.hi, v)
}

func (s span) continuous() *gochart.ContinuousRange {
	lo, hi := s.lo, s.hi
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.01, 1)
		lo, hi = lo-pad, hi+pad
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

func placeholder(title, msg string) template.HTML {
	return template.HTML(fmt.Sprintf(
		`<svg class="chart" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" role="img" aria-label="%s"><text x="20" y="%d" font-size="12">%s</text></svg>`,
		width, height, html.EscapeString(title), height/2, html.EscapeString(msg)))
}
