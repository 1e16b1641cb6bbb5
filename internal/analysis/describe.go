package analysis

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Stats holds descriptive statistics of one column. OK is false when the
// column had no numeric values; the other fields are then zero.
type Stats struct {
	Column string  `json:"column" yaml:"column"`
	Count  int     `json:"count" yaml:"count"`
	Mean   float64 `json:"mean" yaml:"mean"`
	Std    float64 `json:"std" yaml:"std"`
	Min    float64 `json:"min" yaml:"min"`
	P25    float64 `json:"p25" yaml:"p25"`
	Median float64 `json:"median" yaml:"median"`
	P75    float64 `json:"p75" yaml:"p75"`
	Max    float64 `json:"max" yaml:"max"`
	// Coerced is set when the column is not numeric and its cells were converted.
	Coerced  bool     `json:"coerced" yaml:"coerced"`
	OK       bool     `json:"ok" yaml:"ok"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// MarshalJSON writes undefined statistics, such as the standard deviation of
// a single value, as null.
func (s Stats) MarshalJSON() ([]byte, error) {
	type plain Stats
	return json.Marshal(struct {
		plain
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		P25    *float64 `json:"p25"`
		Median *float64 `json:"median"`
		P75    *float64 `json:"p75"`
		Max    *float64 `json:"max"`
	}{plain(s), finite(s.Mean), finite(s.Std), finite(s.Min), finite(s.P25), finite(s.Median), finite(s.P75), finite(s.Max)})
}

// Describe computes count, mean, sample standard deviation, min, quartiles
// and max of column. Non-numeric columns are coerced cell by cell; if no cell
// converts, a warning is returned instead of statistics.
func Describe(t *table.Table, column string) (Stats, error) {
	col, err := t.MustColumn(column)
	if err != nil {
		return Stats{}, err
	}
	return describeColumn(col), nil
}

func describeColumn(col *table.Column) Stats {
	out := Stats{Column: col.Name, Coerced: col.Type != table.Number}
	if col.Len() == 0 {
		out.Warnings = append(out.Warnings, "no rows to describe")
		return out
	}
	w := newWelford()
	vals := make([]float64, 0, col.Len())
	failed := 0
	for i := range col.Values {
		x, ok := col.Float(i)
		if !ok {
			if !col.Values[i].Null {
				failed++
			}
			continue
		}
		w.add(x)
		vals = append(vals, x)
	}
	if len(vals) == 0 {
		if out.Coerced {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %s cannot be converted to numeric", col.Name))
		} else {
			out.Warnings = append(out.Warnings, fmt.Sprintf("column %s has no numeric values", col.Name))
		}
		return out
	}
	if failed > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d value(s) in %s could not be converted to numeric and were ignored", failed, col.Name))
	}
	sort.Float64s(vals)
	out.OK = true
	out.Count = w.n
	out.Mean = w.mean
	out.Std = w.std()
	out.Min = w.min
	out.Max = w.max
	out.P25 = quantile(vals, 0.25)
	out.Median = quantile(vals, 0.5)
	out.P75 = quantile(vals, 0.75)
	return out
}

// Summary is the describe table over every numeric column.
type Summary struct {
	Stats    []Stats  `json:"stats" yaml:"stats"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// DescribeAll describes every numeric column in order.
func DescribeAll(t *table.Table) Summary {
	var out Summary
	cols := t.NumericColumns()
	if len(cols) == 0 {
		out.Warnings = append(out.Warnings, "no numeric columns to describe")
		return out
	}
	for _, c := range cols {
		s := describeColumn(c)
		out.Warnings = append(out.Warnings, s.Warnings...)
		out.Stats = append(out.Stats, s)
	}
	return out
}
