package chart

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to render")

// Format is an image encoding.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
)

// ParseFormat accepts "png" or "svg", or a filename ending in either.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	switch s {
	case "", "png":
		return PNG, nil
	case "svg":
		return SVG, nil
	}
	return "", fmt.Errorf("%w: image format %q", ErrUnsupported, s)
}

// ContentType is the media type of the encoding.
func (f Format) ContentType() string {
	if f == SVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// RenderOptions sizes and encodes the image.
type RenderOptions struct {
	Width  int
	Height int
	Format Format
}

func (o RenderOptions) withDefaults() RenderOptions {
	if o.Width <= 0 {
		o.Width = 1000
	}
	if o.Height <= 0 {
		o.Height = 500
	}
	if o.Format == "" {
		o.Format = PNG
	}
	return o
}

func (o RenderOptions) provider() gochart.RendererProvider {
	if o.Format == SVG {
		return gochart.SVG
	}
	return gochart.PNG
}

// Render draws spec with data to w.
func Render(w io.Writer, spec Spec, data Data, opt RenderOptions) error {
	opt = opt.withDefaults()
	if data.Len() == 0 {
		return ErrNoData
	}
	switch spec.Kind {
	case Line:
		return renderLine(w, spec, data, opt)
	case Bar:
		bars := make([]gochart.Value, len(data.Bars))
		for i, b := range data.Bars {
			bars[i] = gochart.Value{Label: b.Label, Value: b.Value}
		}
		return renderBars(w, spec, bars, opt)
	case Histogram:
		bars := make([]gochart.Value, len(data.Bins))
		for i, b := range data.Bins {
			bars[i] = gochart.Value{Label: fmt.Sprintf("%.3g", (b.Lo+b.Hi)/2), Value: float64(b.Count)}
		}
		return renderBars(w, spec, bars, opt)
	case Matrix:
		if opt.Format != PNG {
			return fmt.Errorf("%w: correlation heat map is PNG only", ErrUnsupported)
		}
		return renderHeatmap(w, spec, data, opt)
	}
	return fmt.Errorf("%w: kind %q", ErrUnsupported, spec.Kind)
}

func lineStyle() gochart.Style {
	return gochart.Style{
		StrokeColor: gochart.ColorBlue,
		StrokeWidth: 2,
		DotColor:    gochart.ColorBlue,
		DotWidth:    3,
	}
}

func renderLine(w io.Writer, spec Spec, data Data, opt RenderOptions) error {
	ch := gochart.Chart{
		Title:      spec.Title,
		Width:      opt.Width,
		Height:     opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      gochart.XAxis{Name: spec.XLabel},
		YAxis:      gochart.YAxis{Name: spec.YLabel, Range: padRange(data.YValues)},
	}
	if len(data.XTimes) > 0 {
		xs := make([]float64, len(data.XTimes))
		for i, t := range data.XTimes {
			xs[i] = gochart.TimeToFloat64(t)
		}
		ch.XAxis.Range = padRange(xs)
		ch.XAxis.ValueFormatter = gochart.TimeValueFormatterWithFormat(timeLayout(spec))
		ch.Series = []gochart.Series{gochart.TimeSeries{Name: spec.YLabel, XValues: data.XTimes, YValues: data.YValues, Style: lineStyle()}}
	} else {
		ch.XAxis.Range = padRange(data.XValues)
		ch.Series = []gochart.Series{gochart.ContinuousSeries{Name: spec.YLabel, XValues: data.XValues, YValues: data.YValues, Style: lineStyle()}}
	}
	if err := ch.Render(opt.provider(), w); err != nil {
		return fmt.Errorf("render line chart: %w", err)
	}
	return nil
}

func timeLayout(spec Spec) string {
	if spec.Operation == OpTrend {
		return "2006-01"
	}
	return time.DateOnly
}

// padRange widens a degenerate range so a single point or a flat line can be drawn.
func padRange(vals []float64) gochart.Range {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vals {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return nil
	}
	if lo == hi {
		d := math.Max(math.Abs(lo)*0.05, 1)
		return &gochart.ContinuousRange{Min: lo - d, Max: hi + d}
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi}
}

func renderBars(w io.Writer, spec Spec, bars []gochart.Value, opt RenderOptions) error {
	lo, hi := 0.0, 0.0
	for _, b := range bars {
		lo = math.Min(lo, b.Value)
		hi = math.Max(hi, b.Value)
	}
	if lo == hi {
		hi = lo + 1
	}
	barWidth := (opt.Width - 120) / len(bars) * 3 / 4
	if barWidth < 2 {
		barWidth = 2
	}
	if barWidth > 60 {
		barWidth = 60
	}
	bc := gochart.BarChart{
		Title:      spec.Title,
		Width:      opt.Width,
		Height:     opt.Height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40}},
		BarWidth:   barWidth,
		BarSpacing: barWidth / 3,
		XAxis:      gochart.Style{},
		YAxis: gochart.YAxis{
			Name:  spec.YLabel,
			Range: &gochart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}
	if err := bc.Render(opt.provider(), w); err != nil {
		return fmt.Errorf("render bar chart: %w", err)
	}
	return nil
}

// renderHeatmap draws the correlation matrix as colored cells: red for
// positive, blue for negative, grey for undefined.
func renderHeatmap(w io.Writer, spec Spec, data Data, opt RenderOptions) error {
	m := data.Matrix
	n := len(m.Columns)
	face := basicfont.Face7x13
	charW := face.Advance
	lineH := face.Metrics().Height.Ceil()

	labelW := 0
	for _, c := range m.Columns {
		labelW = max(labelW, len(c))
	}
	labelW = min(labelW, 24)*charW + 8
	top := lineH*2 + 8

	cell := min((opt.Width-labelW-8)/n, (opt.Height-top-lineH-8)/n)
	if cell < 4 {
		return fmt.Errorf("%w: %dx%d is too small for %d columns", ErrUnsupported, opt.Width, opt.Height, n)
	}

	img := image.NewRGBA(image.Rect(0, 0, opt.Width, opt.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	text := func(s string, x, y int, col color.Color) {
		d := &font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face, Dot: fixed.P(x, y)}
		d.DrawString(s)
	}
	text(spec.Title, 8, lineH, color.Black)

	for i := 0; i < n; i++ {
		y0 := top + i*cell
		text(clip(m.Columns[i], 24), 4, y0+cell/2+lineH/3, color.Black)
		for j := 0; j < n; j++ {
			x0 := labelW + j*cell
			r := image.Rect(x0, y0, x0+cell-1, y0+cell-1)
			draw.Draw(img, r, image.NewUniform(corrColor(m.Values[i][j])), image.Point{}, draw.Src)
			if cell >= 5*charW {
				v := m.Values[i][j]
				label := "n/a"
				if !math.IsNaN(v) {
					label = fmt.Sprintf("%.2f", v)
				}
				tx := x0 + (cell-len(label)*charW)/2
				text(label, tx, y0+cell/2+lineH/3, color.Black)
			}
		}
	}
	maxChars := max(cell/charW, 1)
	for j := 0; j < n; j++ {
		label := clip(m.Columns[j], maxChars)
		x0 := labelW + j*cell + (cell-len(label)*charW)/2
		text(label, x0, top+n*cell+lineH, color.Black)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode heat map: %w", err)
	}
	return nil
}

func corrColor(r float64) color.Color {
	if math.IsNaN(r) {
		return color.RGBA{R: 200, G: 200, B: 200, A: 255}
	}
	r = math.Max(-1, math.Min(1, r))
	fade := uint8(255 * (1 - math.Abs(r)))
	if r >= 0 {
		return drawing.Color{R: 255, G: fade, B: fade, A: 255}
	}
	return drawing.Color{R: fade, G: fade, B: 255, A: 255}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "~"
}
