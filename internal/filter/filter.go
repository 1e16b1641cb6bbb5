// Package filter applies conjunctive equality constraints to a table.
package filter

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// ErrUnknownColumn is returned when a constraint names a column the table lacks.
var ErrUnknownColumn = errors.New("unknown filter column")

// NoRowsWarning is reported when the constraints leave nothing behind.
const NoRowsWarning = "no rows matched the filter criteria"

// Constraint keeps rows whose textual value in Column is one of Values.
type Constraint struct {
	Column string   `json:"column" yaml:"column"`
	Values []string `json:"values" yaml:"values"`
}

// Spec is an ordered list of constraints combined with AND. Order reflects
// how the user built it and does not change the result.
type Spec []Constraint

// Result is a filtered table plus any soft-condition warnings.
type Result struct {
	Table    *table.Table
	Warnings []string
}

// Apply filters t by spec. An empty spec returns t itself. Row order is
// preserved; once no rows remain the remaining constraints are skipped.
func Apply(t *table.Table, spec Spec) (Result, error) {
	if len(spec) == 0 {
		res := Result{Table: t}
		if t.NumRows() == 0 {
			res.Warnings = []string{NoRowsWarning}
		}
		return res, nil
	}
	keep := make([]int, t.NumRows())
	for i := range keep {
		keep[i] = i
	}
	for _, c := range spec {
		col, ok := t.Column(c.Column)
		if !ok {
			return Result{}, fmt.Errorf("%w: %q", ErrUnknownColumn, c.Column)
		}
		if len(keep) == 0 {
			continue
		}
		allowed := make(map[string]struct{}, len(c.Values))
		for _, v := range c.Values {
			allowed[v] = struct{}{}
		}
		next := keep[:0]
		for _, i := range keep {
			if _, ok := allowed[col.Values[i].String()]; ok {
				next = append(next, i)
			}
		}
		keep = next
	}
	res := Result{Table: t.SelectRows(keep)}
	if len(keep) == 0 {
		res.Warnings = append(res.Warnings, NoRowsWarning)
	}
	return res, nil
}

// Options lists the distinct non-missing values of a column in first-seen
// order: the choices a user picks from when adding a constraint.
func Options(t *table.Table, column string) ([]string, error) {
	col, err := t.MustColumn(column)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{}
	var out []string
	for _, v := range col.Values {
		if v.Null {
			continue
		}
		if _, ok := seen[v.Raw]; ok {
			continue
		}
		seen[v.Raw] = struct{}{}
		out = append(out, v.Raw)
	}
	return out, nil
}

// Parse reads a "column=v1,v2" expression. Values are comma separated; a
// backslash escapes a literal comma.
func Parse(expr string) (Constraint, error) {
	col, rest, ok := strings.Cut(expr, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return Constraint{}, fmt.Errorf("invalid filter %q (want column=value[,value...])", expr)
	}
	var vals []string
	var cur strings.Builder
	escaped := false
	for _, r := range rest {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == ',':
			vals = append(vals, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	vals = append(vals, strings.TrimSpace(cur.String()))
	return Constraint{Column: table.NormalizeName(col), Values: vals}, nil
}

// ParseAll parses several expressions. Repeated columns merge their values
// into the first constraint for that column.
func ParseAll(exprs []string) (Spec, error) {
	var spec Spec
	pos := map[string]int{}
	for _, e := range exprs {
		c, err := Parse(e)
		if err != nil {
			return nil, err
		}
		if i, ok := pos[c.Column]; ok {
			spec[i].Values = append(spec[i].Values, c.Values...)
			continue
		}
		pos[c.Column] = len(spec)
		spec = append(spec, c)
	}
	return spec, nil
}

// Fingerprint is a canonical encoding of the spec. Constraints commute, so
// column order and value order do not affect it.
func (s Spec) Fingerprint() string {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		vals := append([]string(nil), c.Values...)
		sort.Strings(vals)
		parts = append(parts, fmt.Sprintf("%q=%q", c.Column, vals))
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}
