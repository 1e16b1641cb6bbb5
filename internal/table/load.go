package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadOptions controls how raw bytes become a Table.
type LoadOptions struct {
	// Delimiter for fields. If 0, auto-detects among ',', ';', '\t', '|'.
	Delimiter rune
	// DecimalSeparator for numeric cells: '.' (default) or ','.
	DecimalSeparator rune
	// Types forces column types by name, e.g. to keep zero-padded codes as text.
	// Keys are normalized the same way as headers.
	Types map[string]Type
	// DropZeroColumns also drops numeric columns whose cells are all zero.
	DropZeroColumns bool
}

// delimiterCandidates is the sniffing order; earlier wins ties.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

const sniffLines = 20

// Load parses delimited text into a Table. The first record is always the
// header. Malformed input returns a *LoadError and no table.
func Load(data []byte, opt LoadOptions) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Cause: "file is empty"}
	}
	text, err := decodeUTF8(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, &LoadError{Cause: "file is empty"}
	}

	delim := opt.Delimiter
	if delim == 0 {
		delim = SniffDelimiter(text)
	}
	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = 0
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &LoadError{Cause: "malformed input", Err: err}
	}
	if len(records) == 0 {
		return nil, &LoadError{Cause: "no header row"}
	}
	header := records[0]
	if len(header) == 1 && strings.TrimSpace(header[0]) == "" {
		return nil, &LoadError{Cause: "no columns to parse"}
	}
	body := records[1:]

	hints := make(map[string]Type, len(opt.Types))
	for k, v := range opt.Types {
		hints[NormalizeName(k)] = v
	}
	names := normalizeHeader(header)

	t := &Table{index: map[string]int{}, rows: len(body)}
	used := map[string]bool{}
	for j, name := range names {
		col := &Column{Name: name, Values: make([]Value, len(body)), Decimal: opt.DecimalSeparator}
		for i, rec := range body {
			raw := strings.TrimSpace(rec[j])
			col.Values[i] = Value{Raw: raw, Null: IsMissing(raw)}
		}
		if hint, ok := hints[name]; ok {
			used[name] = true
			if miss := applyType(col, hint, opt.DecimalSeparator); miss > 0 {
				t.Notes = append(t.Notes, fmt.Sprintf("%d cell(s) in %s could not be read as %s and were set missing", miss, name, hint))
			}
		} else {
			inferType(col, opt.DecimalSeparator)
		}

		switch {
		case col.NonNull() == 0:
			t.Notes = append(t.Notes, fmt.Sprintf("dropped empty column %s", name))
			continue
		case opt.DropZeroColumns && allZero(col):
			t.Notes = append(t.Notes, fmt.Sprintf("dropped all-zero column %s", name))
			continue
		}
		t.index[name] = len(t.cols)
		t.cols = append(t.cols, col)
	}
	for k := range hints {
		if !used[k] {
			t.Notes = append(t.Notes, fmt.Sprintf("type hint for unknown column %s ignored", k))
		}
	}
	return t, nil
}

// decodeUTF8 strips a byte-order mark (decoding UTF-16 when one says so) and
// rejects invalid UTF-8.
func decodeUTF8(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return nil, &LoadError{Cause: "encoding failure", Err: err}
	}
	if !utf8.Valid(data) && bytes.ContainsRune(out, utf8.RuneError) {
		return nil, &LoadError{Cause: "encoding failure", Err: errors.New("input is not valid UTF-8")}
	}
	return out, nil
}

// SniffDelimiter picks the candidate delimiter that splits the first lines
// into the same number (>1) of fields, preferring more fields. Falls back to ','.
func SniffDelimiter(text []byte) rune {
	sample := firstLines(text, sniffLines)
	best, bestFields := ',', 1
	for _, d := range delimiterCandidates {
		r := csv.NewReader(bytes.NewReader(sample))
		r.Comma = d
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		fields, consistent := 0, true
		for {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				consistent = false
				break
			}
			if fields == 0 {
				fields = len(rec)
			} else if len(rec) != fields {
				consistent = false
				break
			}
		}
		if consistent && fields > bestFields {
			best, bestFields = d, fields
		}
	}
	return best
}

func firstLines(text []byte, n int) []byte {
	end := 0
	for i := 0; i < n; i++ {
		k := bytes.IndexByte(text[end:], '\n')
		if k < 0 {
			return text
		}
		end += k + 1
	}
	return text[:end]
}

// NormalizeName trims a header and replaces every space with an underscore.
func NormalizeName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
}

// normalizeHeader normalizes names, labels blank headers and de-duplicates.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := map[string]int{}
	taken := map[string]bool{}
	for i, h := range header {
		name := NormalizeName(h)
		if name == "" {
			name = "Unnamed:_" + strconv.Itoa(i)
		}
		taken[name] = true
		names[i] = name
	}
	final := map[string]bool{}
	for i, name := range names {
		if !final[name] {
			final[name] = true
			continue
		}
		n := seen[name]
		for {
			n++
			cand := name + "." + strconv.Itoa(n)
			if !taken[cand] && !final[cand] {
				names[i] = cand
				final[cand] = true
				break
			}
		}
		seen[name] = n
	}
	return names
}

// inferType marks a column Number when every non-missing cell parses as one.
func inferType(col *Column, dec rune) {
	nums := make([]float64, len(col.Values))
	seen := false
	for i, v := range col.Values {
		if v.Null {
			continue
		}
		f, ok := ParseNumber(v.Raw, dec)
		if !ok {
			col.Type = Text
			return
		}
		nums[i] = f
		seen = true
	}
	if !seen {
		col.Type = Text
		return
	}
	col.Type = Number
	for i := range col.Values {
		col.Values[i].Num = nums[i]
	}
}

// applyType forces a column type, returning how many cells had to be set missing.
func applyType(col *Column, typ Type, dec rune) int {
	col.Type = typ
	miss := 0
	for i := range col.Values {
		v := &col.Values[i]
		if v.Null {
			continue
		}
		switch typ {
		case Number:
			f, ok := ParseNumber(v.Raw, dec)
			if !ok {
				v.Null = true
				miss++
				continue
			}
			v.Num = f
		case Datetime:
			ts, ok := ParseTime(v.Raw)
			if !ok {
				v.Null = true
				miss++
				continue
			}
			v.Time = ts
		}
	}
	return miss
}

func allZero(col *Column) bool {
	if col.Type != Number {
		return false
	}
	for _, v := range col.Values {
		if v.Null || v.Num != 0 {
			return false
		}
	}
	return true
}
