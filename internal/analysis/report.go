package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Options controls dataset profiling.
type Options struct {
	// SampleRows determines how many head rows to include in the report.
	SampleRows int
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// Correlations attaches the numeric correlation matrix to the report.
	Correlations bool
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
	}
}

// Report is a markdown-friendly profile of a table.
type Report struct {
	Name     string          `json:"name" yaml:"name"`
	Rows     int             `json:"rows" yaml:"rows"`
	Cols     []ColumnSummary `json:"columns" yaml:"columns"`
	Samples  [][]string      `json:"samples,omitempty" yaml:"samples,omitempty"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Corr     *CorrMatrix     `json:"correlation,omitempty" yaml:"correlation,omitempty"`
}

// ColumnSummary captures the type and statistics of one column.
type ColumnSummary struct {
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"` // numeric|datetime|categorical|text|empty
	NonNull int    `json:"non_null" yaml:"non_null"`
	Missing int    `json:"missing" yaml:"missing"`
	Unique  int    `json:"unique" yaml:"unique"`
	// Numeric stats
	Min  float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max  float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Mean float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std  float64 `json:"std,omitempty" yaml:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty" yaml:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty" yaml:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty" yaml:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty" yaml:"examples,omitempty"`
}

// MarshalJSON drops numeric statistics that are not finite.
func (s ColumnSummary) MarshalJSON() ([]byte, error) {
	type plain ColumnSummary
	return json.Marshal(struct {
		plain
		Min             *float64 `json:"min,omitempty"`
		Max             *float64 `json:"max,omitempty"`
		Mean            *float64 `json:"mean,omitempty"`
		Std             *float64 `json:"std,omitempty"`
		OutliersMaxAbsZ *float64 `json:"outliers_max_abs_z,omitempty"`
	}{plain(s), nonzero(s.Min), nonzero(s.Max), nonzero(s.Mean), nonzero(s.Std), nonzero(s.OutliersMaxAbsZ)})
}

const (
	maxTopValues    = 8
	maxExampleTexts = 3
	// a text column with at most this many distinct values is reported as categorical
	categoricalLimit = 50
	minOutlierValues = 8
)

// Profile summarizes every column of t. Load notes are carried into the
// report's warnings.
func Profile(t *table.Table, name string, opt Options) *Report {
	rep := &Report{Name: name, Rows: t.NumRows()}
	rep.Warnings = append(rep.Warnings, t.Notes...)
	for _, c := range t.Columns() {
		rep.Cols = append(rep.Cols, summarize(c, opt))
	}
	n := opt.SampleRows
	if n <= 0 {
		n = 5
	}
	head := t.Head(n)
	for i := 0; i < head.NumRows(); i++ {
		rep.Samples = append(rep.Samples, head.Row(i))
	}
	if opt.Correlations {
		m := Correlation(t)
		if len(m.Columns) >= 2 {
			rep.Corr = &m
		}
	}
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows")
	}
	return rep
}

func summarize(c *table.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name, NonNull: c.NonNull()}
	s.Missing = c.Len() - s.NonNull
	counts := map[string]int{}
	var order []string
	for _, v := range c.Values {
		if v.Null {
			continue
		}
		if _, ok := counts[v.Raw]; !ok {
			order = append(order, v.Raw)
		}
		counts[v.Raw]++
	}
	s.Unique = len(counts)
	switch {
	case s.NonNull == 0:
		s.Kind = "empty"
	case c.Type == table.Number:
		s.Kind = "numeric"
		summarizeNumeric(&s, c, opt)
	case c.Type == table.Datetime:
		s.Kind = "datetime"
	case s.Unique <= categoricalLimit || s.Unique*2 <= s.NonNull:
		s.Kind = "categorical"
		tops := make([]CategoryCount, 0, len(order))
		for _, k := range order {
			tops = append(tops, CategoryCount{Value: k, Count: counts[k]})
		}
		sort.SliceStable(tops, func(i, j int) bool { return tops[i].Count > tops[j].Count })
		if len(tops) > maxTopValues {
			tops = tops[:maxTopValues]
		}
		s.TopValues = tops
	default:
		s.Kind = "text"
		for _, k := range order {
			if len(s.ExampleTexts) == maxExampleTexts {
				break
			}
			s.ExampleTexts = append(s.ExampleTexts, k)
		}
	}
	return s
}

func summarizeNumeric(s *ColumnSummary, c *table.Column, opt Options) {
	w := newWelford()
	vals := make([]float64, 0, c.Len())
	for _, v := range c.Values {
		if v.Null {
			continue
		}
		w.add(v.Num)
		vals = append(vals, v.Num)
	}
	s.Min, s.Max, s.Mean = w.min, w.max, w.mean
	if w.n > 1 {
		s.Std = w.std()
	}
	if !opt.Outliers || len(vals) < minOutlierValues {
		return
	}
	thr := opt.OutlierThreshold
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	s.OutlierThreshold = thr
	if mad == 0 {
		return
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			s.OutliersCount++
		}
		if az > s.OutliersMaxAbsZ {
			s.OutliersMaxAbsZ = az
		}
	}
}

// String is a one-line description used in logs.
func (r *Report) String() string {
	return fmt.Sprintf("%s: %d rows, %d columns", safeName(r.Name), r.Rows, len(r.Cols))
}
