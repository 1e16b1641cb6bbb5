package export

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

var timestampType = &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}

// Schema maps the table's columns to nullable Arrow fields.
func Schema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, t.NumCols())
	for _, c := range t.Columns() {
		var dt arrow.DataType
		switch c.Type {
		case table.Number:
			dt = arrow.PrimitiveTypes.Float64
		case table.Datetime:
			dt = timestampType
		default:
			dt = arrow.BinaryTypes.String
		}
		fields = append(fields, arrow.Field{Name: c.Name, Type: dt, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// Record converts t into a single Arrow record. The caller must Release it.
func Record(mem memory.Allocator, t *table.Table) arrow.Record {
	schema := Schema(t)
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for j, c := range t.Columns() {
		switch fb := b.Field(j).(type) {
		case *array.Float64Builder:
			for _, v := range c.Values {
				if v.Null {
					fb.AppendNull()
					continue
				}
				fb.Append(v.Num)
			}
		case *array.TimestampBuilder:
			for _, v := range c.Values {
				if v.Null {
					fb.AppendNull()
					continue
				}
				fb.Append(arrow.Timestamp(v.Time.UnixMicro()))
			}
		case *array.StringBuilder:
			for _, v := range c.Values {
				if v.Null {
					fb.AppendNull()
					continue
				}
				fb.Append(v.Raw)
			}
		}
	}
	return b.NewRecord()
}

// Parquet writes t as a snappy-compressed Parquet file with the Arrow schema
// stored in the metadata.
func Parquet(w io.Writer, t *table.Table) error {
	rec := Record(memory.NewGoAllocator(), t)
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(rec.Schema(), nopCloser{w}, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write table to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// nopCloser keeps the parquet writer from closing the caller's writer.
type nopCloser struct{ io.Writer }
