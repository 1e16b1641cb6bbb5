package chart

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
	"github.com/KaramelBytes/tabloom-cli/internal/trend"
)

// BarValue is one labelled bar.
type BarValue struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Data is the series behind a Spec. Which fields are set depends on the
// spec's kind: XTimes or XValues with YValues for lines, Bars for bar charts,
// Bins for histograms and Matrix for correlation.
type Data struct {
	XTimes  []time.Time          `json:"x_times,omitempty" yaml:"x_times,omitempty"`
	XValues []float64            `json:"x_values,omitempty" yaml:"x_values,omitempty"`
	YValues []float64            `json:"y_values,omitempty" yaml:"y_values,omitempty"`
	Bars    []BarValue           `json:"bars,omitempty" yaml:"bars,omitempty"`
	Bins    []analysis.Bin       `json:"bins,omitempty" yaml:"bins,omitempty"`
	Matrix  *analysis.CorrMatrix `json:"matrix,omitempty" yaml:"matrix,omitempty"`
}

// Len is the number of drawable items.
func (d Data) Len() int {
	switch {
	case d.Matrix != nil:
		return len(d.Matrix.Columns)
	case len(d.Bins) > 0:
		return len(d.Bins)
	case len(d.Bars) > 0:
		return len(d.Bars)
	}
	return len(d.YValues)
}

// Materialize computes the data for spec over t.
func Materialize(t *table.Table, spec Spec) (Data, []string, error) {
	if t.NumRows() == 0 {
		return Data{}, []string{"no rows to plot"}, nil
	}
	switch spec.Operation {
	case OpPlot:
		if spec.Kind == Bar {
			return groupBars(t, spec)
		}
		return linePoints(t, spec)
	case OpCounts:
		c, err := analysis.ValueCounts(t, spec.X)
		if err != nil {
			return Data{}, nil, err
		}
		var d Data
		for _, e := range c.Entries {
			d.Bars = append(d.Bars, BarValue{Label: e.Value, Value: float64(e.Count)})
		}
		return d, c.Warnings, nil
	case OpTrend:
		r, err := trend.Monthly(t, spec.X, spec.Y)
		if err != nil {
			return Data{}, nil, err
		}
		var d Data
		for _, p := range r.Points {
			d.XTimes = append(d.XTimes, p.Month)
			d.YValues = append(d.YValues, p.Mean)
		}
		return d, r.Warnings, nil
	case OpHistogram:
		h, err := analysis.Histogram(t, spec.X, spec.Bins)
		if err != nil {
			return Data{}, nil, err
		}
		return Data{Bins: h.Bins}, h.Warnings, nil
	case OpCorrelation:
		m := analysis.Correlation(t)
		if len(m.Columns) == 0 {
			return Data{}, m.Warnings, nil
		}
		return Data{Matrix: &m}, m.Warnings, nil
	}
	return Data{}, nil, fmt.Errorf("%w: operation %q", ErrUnsupported, spec.Operation)
}

// linePoints pairs X and Y per row, skipping rows where either is unreadable,
// and orders the points by X.
func linePoints(t *table.Table, spec Spec) (Data, []string, error) {
	x, err := t.MustColumn(spec.X)
	if err != nil {
		return Data{}, nil, err
	}
	y, err := t.MustColumn(spec.Y)
	if err != nil {
		return Data{}, nil, err
	}
	type point struct {
		t time.Time
		x float64
		y float64
	}
	timed := x.Type != table.Number
	var pts []point
	skipped := 0
	for i := 0; i < t.NumRows(); i++ {
		yv, ok := y.Float(i)
		if !ok {
			skipped++
			continue
		}
		p := point{y: yv}
		if timed {
			p.t, ok = x.Timestamp(i)
		} else {
			p.x, ok = x.Float(i)
		}
		if !ok {
			skipped++
			continue
		}
		pts = append(pts, p)
	}
	sort.SliceStable(pts, func(i, j int) bool {
		if timed {
			return pts[i].t.Before(pts[j].t)
		}
		return pts[i].x < pts[j].x
	})
	var d Data
	for _, p := range pts {
		if timed {
			d.XTimes = append(d.XTimes, p.t)
		} else {
			d.XValues = append(d.XValues, p.x)
		}
		d.YValues = append(d.YValues, p.y)
	}
	var warns []string
	if len(pts) == 0 {
		warns = append(warns, "no rows with readable x and y values")
	} else if skipped > 0 {
		warns = append(warns, fmt.Sprintf("%d row(s) with missing x or y values were skipped", skipped))
	}
	return d, warns, nil
}

// groupBars aggregates Y by the text of X in first-seen order.
func groupBars(t *table.Table, spec Spec) (Data, []string, error) {
	x, err := t.MustColumn(spec.X)
	if err != nil {
		return Data{}, nil, err
	}
	y, err := t.MustColumn(spec.Y)
	if err != nil {
		return Data{}, nil, err
	}
	pos := map[string]int{}
	var d Data
	for i := 0; i < t.NumRows(); i++ {
		xv := x.Values[i]
		if xv.Null {
			continue
		}
		add := 1.0
		if spec.Aggregate == SumByX {
			v, ok := y.Float(i)
			if !ok {
				continue
			}
			add = v
		} else if y.Values[i].Null {
			continue
		}
		k, ok := pos[xv.Raw]
		if !ok {
			k = len(d.Bars)
			pos[xv.Raw] = k
			d.Bars = append(d.Bars, BarValue{Label: xv.Raw})
		}
		d.Bars[k].Value += add
	}
	if len(d.Bars) == 0 {
		return d, []string{"no rows with readable x and y values"}, nil
	}
	return d, nil, nil
}
