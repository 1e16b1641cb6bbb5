// Package export writes tables to CSV, JSON or Parquet.
package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// DefaultFilename is offered for downloads when the caller names none.
const DefaultFilename = "filtered_data.csv"

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("unknown export format")

// Format selects the output encoding.
type Format int

const (
	FormatCSV Format = iota
	FormatJSON
	FormatParquet
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatParquet:
		return "parquet"
	default:
		return "csv"
	}
}

// Ext is the file extension for the format, with the dot.
func (f Format) Ext() string { return "." + f.String() }

// ContentType is the media type used for HTTP downloads.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "parquet", "pq":
		return FormatParquet, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFor infers the format from a filename, defaulting to CSV.
func FormatFor(filename string) Format {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		if f, err := ParseFormat(filename[i+1:]); err == nil {
			return f
		}
	}
	return FormatCSV
}

// Write encodes t to w in format f.
func Write(w io.Writer, t *table.Table, f Format) error {
	switch f {
	case FormatJSON:
		return JSON(w, t)
	case FormatParquet:
		return Parquet(w, t)
	default:
		return CSV(w, t)
	}
}

// CSV writes a header row and one comma-separated line per row using each
// cell's original text; missing cells are written empty.
func CSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// JSON writes an array of records whose keys follow column order. Numbers are
// JSON numbers, datetimes RFC 3339 strings and missing cells null.
func JSON(w io.Writer, t *table.Table) error {
	bw := bufio.NewWriter(w)
	cols := t.Columns()
	keys := make([][]byte, len(cols))
	for j, c := range cols {
		k, err := json.Marshal(c.Name)
		if err != nil {
			return err
		}
		keys[j] = k
	}
	bw.WriteByte('[')
	for i := 0; i < t.NumRows(); i++ {
		if i > 0 {
			bw.WriteByte(',')
		}
		bw.WriteString("\n  {")
		for j, c := range cols {
			if j > 0 {
				bw.WriteByte(',')
			}
			bw.Write(keys[j])
			bw.WriteByte(':')
			v, err := json.Marshal(jsonValue(c, i))
			if err != nil {
				return fmt.Errorf("encode %s row %d: %w", c.Name, i, err)
			}
			bw.Write(v)
		}
		bw.WriteByte('}')
	}
	if t.NumRows() > 0 {
		bw.WriteByte('\n')
	}
	bw.WriteString("]\n")
	return bw.Flush()
}

func jsonValue(c *table.Column, i int) any {
	v := c.Values[i]
	if v.Null {
		return nil
	}
	switch c.Type {
	case table.Number:
		if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
			return nil
		}
		return v.Num
	case table.Datetime:
		return v.Time.UTC().Format(time.RFC3339Nano)
	}
	return v.Raw
}
