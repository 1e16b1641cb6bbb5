// Package trend resamples a dated value column into monthly means.
package trend

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Point is the mean of one calendar month.
type Point struct {
	Month time.Time `json:"month" yaml:"month"` // first day of the month, UTC
	Label string    `json:"label" yaml:"label"`
	Mean  float64   `json:"mean" yaml:"mean"`
	Count int       `json:"count" yaml:"count"`
}

// Result is an ordered monthly series plus any soft conditions met on the way.
type Result struct {
	DateColumn  string   `json:"date_column" yaml:"date_column"`
	ValueColumn string   `json:"value_column" yaml:"value_column"`
	Points      []Point  `json:"points" yaml:"points"`
	Dropped     int      `json:"dropped" yaml:"dropped"`
	Warnings    []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Monthly groups rows by the calendar month of dateColumn and averages
// valueColumn per month. Rows where either cell cannot be read are dropped.
// Months without rows are not filled in.
func Monthly(t *table.Table, dateColumn, valueColumn string) (Result, error) {
	dc, err := t.MustColumn(dateColumn)
	if err != nil {
		return Result{}, err
	}
	vc, err := t.MustColumn(valueColumn)
	if err != nil {
		return Result{}, err
	}
	out := Result{DateColumn: dc.Name, ValueColumn: vc.Name}
	if t.NumRows() == 0 {
		out.Warnings = append(out.Warnings, "no rows to resample")
		return out, nil
	}

	n := t.NumRows()
	dates := make([]time.Time, n)
	dateOK := make([]bool, n)
	vals := make([]float64, n)
	valOK := make([]bool, n)
	var nDates, nVals int
	for i := 0; i < n; i++ {
		if ts, ok := dc.Timestamp(i); ok {
			dates[i], dateOK[i] = ts, true
			nDates++
		}
		if x, ok := vc.Float(i); ok {
			vals[i], valOK[i] = x, true
			nVals++
		}
	}
	if nDates == 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("date parsing failed for column %s", dc.Name))
	}
	if nVals == 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("value column %s cannot be converted to numeric", vc.Name))
	}
	if nDates == 0 || nVals == 0 {
		return out, nil
	}

	// running mean, so extreme values cannot overflow a sum
	type acc struct {
		mean float64
		n    int
	}
	groups := map[time.Time]*acc{}
	var order []time.Time
	for i := 0; i < n; i++ {
		if !dateOK[i] || !valOK[i] {
			out.Dropped++
			continue
		}
		d := dates[i].UTC()
		m := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		g, ok := groups[m]
		if !ok {
			g = &acc{}
			groups[m] = g
			order = append(order, m)
		}
		g.n++
		g.mean += (vals[i] - g.mean) / float64(g.n)
	}
	if len(order) == 0 {
		out.Warnings = append(out.Warnings, "no row has both a valid date and a numeric value")
		return out, nil
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })
	for _, m := range order {
		g := groups[m]
		out.Points = append(out.Points, Point{Month: m, Label: m.Format("2006-01"), Mean: g.mean, Count: g.n})
	}
	if out.Dropped > 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("%d row(s) without a valid date or value were skipped", out.Dropped))
	}
	return out, nil
}

// Markdown renders the series as a table.
func (r Result) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[MONTHLY TREND] %s by %s\n", r.ValueColumn, r.DateColumn))
	if len(r.Points) > 0 {
		b.WriteString("| month | mean | count |\n| --- | --- | --- |\n")
		for _, p := range r.Points {
			b.WriteString(fmt.Sprintf("| %s | %.4g | %d |\n", p.Label, p.Mean, p.Count))
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- " + w + "\n")
		}
	}
	return b.String()
}
