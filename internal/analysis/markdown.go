package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Markdown renders the profile as sectioned plain text.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Cols)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeName(c.Name), c.Kind, c.NonNull, missPct))
		switch c.Kind {
		case "numeric":
			b.WriteString(fmt.Sprintf(" — min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 && c.OutliersCount > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f (max |z|≈%.2f)", c.OutliersCount, c.OutlierThreshold, c.OutliersMaxAbsZ))
			}
		case "categorical":
			if len(c.TopValues) > 0 {
				b.WriteString(" — top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(" — e.g., ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}
	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = c.Name
		}
		writeGrid(&b, names, r.Samples)
	}
	writeNotes(&b, r.Warnings)
	return b.String()
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs lists up to n off-diagonal pairs by descending |r|. Undefined
// correlations are skipped.
func (m CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return math.Abs(pairs[i].R) > math.Abs(pairs[j].R)
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Markdown renders the value counts as a two-column table.
func (c Counts) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[VALUE COUNTS] %s\n", safeName(c.Column)))
	rows := make([][]string, len(c.Entries))
	for i, e := range c.Entries {
		rows[i] = []string{e.Value, fmt.Sprint(e.Count)}
	}
	if len(rows) > 0 {
		writeGrid(&b, []string{c.Column, "count"}, rows)
	}
	b.WriteString(fmt.Sprintf("Total: %d\n", c.Total))
	writeNotes(&b, c.Warnings)
	return b.String()
}

// Markdown renders the statistics of one column.
func (s Stats) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[DESCRIBE] %s\n", safeName(s.Column)))
	if s.OK {
		writeGrid(&b, statHeader, [][]string{s.row()})
	}
	writeNotes(&b, s.Warnings)
	return b.String()
}

// Markdown renders one row per described column.
func (s Summary) Markdown() string {
	var b strings.Builder
	b.WriteString("[DESCRIBE]\n")
	var rows [][]string
	for _, st := range s.Stats {
		if st.OK {
			rows = append(rows, st.row())
		}
	}
	if len(rows) > 0 {
		writeGrid(&b, statHeader, rows)
	}
	writeNotes(&b, s.Warnings)
	return b.String()
}

var statHeader = []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max"}

func (s Stats) row() []string {
	return []string{s.Column, fmt.Sprint(s.Count), num(s.Mean), num(s.Std), num(s.Min), num(s.P25), num(s.Median), num(s.P75), num(s.Max)}
}

// Markdown renders the full matrix.
func (m CorrMatrix) Markdown() string {
	var b strings.Builder
	b.WriteString("[CORRELATION MATRIX]\n")
	if len(m.Columns) > 0 {
		header := append([]string{""}, m.Columns...)
		rows := make([][]string, len(m.Columns))
		for i, c := range m.Columns {
			rows[i] = []string{c}
			for _, v := range m.Values[i] {
				rows[i] = append(rows[i], fmt.Sprintf("%.3f", v))
			}
		}
		writeGrid(&b, header, rows)
	}
	writeNotes(&b, m.Warnings)
	return b.String()
}

// Markdown renders the bins as a table with a text bar per bin.
func (h Hist) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[HISTOGRAM] %s\n", safeName(h.Column)))
	peak := 0
	for _, bin := range h.Bins {
		if bin.Count > peak {
			peak = bin.Count
		}
	}
	rows := make([][]string, len(h.Bins))
	for i, bin := range h.Bins {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("#", bin.Count*30/peak)
		}
		rows[i] = []string{fmt.Sprintf("[%.4g, %.4g)", bin.Lo, bin.Hi), fmt.Sprint(bin.Count), bar}
	}
	if len(rows) > 0 {
		rows[len(rows)-1][0] = fmt.Sprintf("[%.4g, %.4g]", h.Bins[len(h.Bins)-1].Lo, h.Bins[len(h.Bins)-1].Hi)
		writeGrid(&b, []string{"bin", "count", ""}, rows)
	}
	writeNotes(&b, h.Warnings)
	return b.String()
}

func num(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", f)
}

func writeGrid(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| ")
	for i, h := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(safeVal(h))
	}
	b.WriteString(" |\n| ")
	for i := range header {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString("---")
	}
	b.WriteString(" |\n")
	for _, row := range rows {
		b.WriteString("| ")
		for i := range header {
			if i > 0 {
				b.WriteString(" | ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			if len(val) > 80 {
				val = val[:77] + "..."
			}
			b.WriteString(safeVal(val))
		}
		b.WriteString(" |\n")
	}
}

func writeNotes(b *strings.Builder, notes []string) {
	if len(notes) == 0 {
		return
	}
	b.WriteString("\n[NOTES]\n")
	for _, w := range notes {
		b.WriteString("- ")
		b.WriteString(w)
		b.WriteString("\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
