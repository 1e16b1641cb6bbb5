package analysis

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// CategoryCount is one distinct value and how often it occurs.
type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// Counts is the value-count table of one column.
type Counts struct {
	Column   string          `json:"column" yaml:"column"`
	Entries  []CategoryCount `json:"entries" yaml:"entries"`
	Total    int             `json:"total" yaml:"total"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ValueCounts groups the non-missing cells of column by their text and counts
// them. Entries are ordered by descending count, ties by first appearance.
func ValueCounts(t *table.Table, column string) (Counts, error) {
	col, err := t.MustColumn(column)
	if err != nil {
		return Counts{}, err
	}
	out := Counts{Column: col.Name}
	if t.NumRows() == 0 {
		out.Warnings = append(out.Warnings, "no rows to count")
		return out, nil
	}
	pos := map[string]int{}
	for _, v := range col.Values {
		if v.Null {
			continue
		}
		out.Total++
		if i, ok := pos[v.Raw]; ok {
			out.Entries[i].Count++
			continue
		}
		pos[v.Raw] = len(out.Entries)
		out.Entries = append(out.Entries, CategoryCount{Value: v.Raw, Count: 1})
	}
	sort.SliceStable(out.Entries, func(i, j int) bool {
		return out.Entries[i].Count > out.Entries[j].Count
	})
	if out.Total == 0 {
		out.Warnings = append(out.Warnings, fmt.Sprintf("column %s has no non-missing values", col.Name))
	}
	return out, nil
}
