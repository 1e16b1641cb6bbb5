package analysis

import (
	"encoding/json"
	"math"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns  []string    `json:"columns" yaml:"columns"`
	Values   [][]float64 `json:"values" yaml:"values"` // row-major, Values[i][j]
	Warnings []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// MarshalJSON writes undefined correlations as null.
func (m CorrMatrix) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Columns  []string     `json:"columns"`
		Values   [][]*float64 `json:"values"`
		Warnings []string     `json:"warnings,omitempty"`
	}{m.Columns, finiteGrid(m.Values), m.Warnings})
}

// At returns the correlation between columns a and b, or NaN if either is absent.
func (m CorrMatrix) At(a, b string) float64 {
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a {
			ia = i
		}
		if c == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return math.NaN()
	}
	return m.Values[ia][ib]
}

// Correlation computes pairwise Pearson correlations between the numeric
// columns of t, using the rows where both columns are present. A column with
// zero variance correlates as NaN with everything, itself included.
func Correlation(t *table.Table) CorrMatrix {
	cols := t.NumericColumns()
	var out CorrMatrix
	if len(cols) < 2 {
		out.Warnings = append(out.Warnings, "correlation needs at least two numeric columns")
		return out
	}
	n := len(cols)
	out.Columns = make([]string, n)
	out.Values = make([][]float64, n)
	for i, c := range cols {
		out.Columns[i] = c.Name
		out.Values[i] = make([]float64, n)
	}
	for a := 0; a < n; a++ {
		for b := a; b < n; b++ {
			r := pearson(cols[a], cols[b])
			if a == b && !math.IsNaN(r) {
				r = 1
			}
			out.Values[a][b] = r
			out.Values[b][a] = r
		}
	}
	return out
}

// pearson uses a two-pass mean/covariance over pairwise-complete rows.
func pearson(x, y *table.Column) float64 {
	var xs, ys []float64
	for i := range x.Values {
		if x.Values[i].Null || y.Values[i].Null {
			continue
		}
		xs = append(xs, x.Values[i].Num)
		ys = append(ys, y.Values[i].Num)
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	var mx, my float64
	for i := range xs {
		mx += xs[i]
		my += ys[i]
	}
	mx /= float64(len(xs))
	my /= float64(len(ys))
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
