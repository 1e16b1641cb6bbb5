package analysis

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// DefaultBins is used when a histogram is requested without a bin count.
const DefaultBins = 10

// MaxBins caps the bin count of a histogram.
const MaxBins = 1000

// Bin is a half-open interval [Lo, Hi); the last bin of a histogram is closed.
type Bin struct {
	Lo    float64 `json:"lo" yaml:"lo"`
	Hi    float64 `json:"hi" yaml:"hi"`
	Count int     `json:"count" yaml:"count"`
}

// MarshalJSON writes non-finite bin edges as null.
func (b Bin) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Lo    *float64 `json:"lo"`
		Hi    *float64 `json:"hi"`
		Count int      `json:"count"`
	}{finite(b.Lo), finite(b.Hi), b.Count})
}

// Hist is an equal-width histogram of one column.
type Hist struct {
	Column   string   `json:"column" yaml:"column"`
	Bins     []Bin    `json:"bins" yaml:"bins"`
	Total    int      `json:"total" yaml:"total"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Histogram bins the numeric values of column into equal-width intervals
// spanning [min, max]. A constant column is widened to [v-0.5, v+0.5].
// Non-numeric columns are coerced the same way Describe does.
func Histogram(t *table.Table, column string, bins int) (Hist, error) {
	col, err := t.MustColumn(column)
	if err != nil {
		return Hist{}, err
	}
	out := Hist{Column: col.Name}
	if bins <= 0 {
		bins = DefaultBins
	}
	if bins > MaxBins {
		out.Warnings = append(out.Warnings, fmt.Sprintf("bin count %d reduced to %d", bins, MaxBins))
		bins = MaxBins
	}
	var vals []float64
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range col.Values {
		x, ok := col.Float(i)
		if !ok {
			continue
		}
		vals = append(vals, x)
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if len(vals) == 0 {
		if t.NumRows() == 0 {
			out.Warnings = append(out.Warnings, "no rows to plot")
		} else {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %s cannot be converted to numeric", col.Name))
		}
		return out, nil
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	// divided separately so the span of extreme values cannot overflow
	width := hi/float64(bins) - lo/float64(bins)
	out.Bins = make([]Bin, bins)
	edge := func(i int) float64 {
		f := float64(i) / float64(bins)
		return lo*(1-f) + hi*f
	}
	for i := range out.Bins {
		out.Bins[i].Lo = edge(i)
		out.Bins[i].Hi = edge(i + 1)
	}
	out.Bins[bins-1].Hi = hi
	for _, x := range vals {
		k := int(x/width - lo/width)
		if k >= bins {
			k = bins - 1
		}
		if k < 0 {
			k = 0
		}
		out.Bins[k].Count++
	}
	out.Total = len(vals)
	return out, nil
}
