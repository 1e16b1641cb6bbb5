// Package chart turns a table and a chart request into a declarative chart
// spec, computes the series behind it and renders it as an image.
package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// ErrUnsupported is returned for unknown operations, kinds and output formats.
var ErrUnsupported = errors.New("unsupported chart")

// Kind is the visual form of a chart.
type Kind string

const (
	Line      Kind = "line"
	Bar       Kind = "bar"
	Histogram Kind = "histogram"
	Matrix    Kind = "matrix"
)

// Operation names the computation a chart visualizes.
type Operation string

const (
	OpPlot        Operation = "plot"
	OpCounts      Operation = "counts"
	OpTrend       Operation = "trend"
	OpHistogram   Operation = "histogram"
	OpCorrelation Operation = "correlation"
)

// Aggregations applied to bar charts before drawing.
const (
	SumByX   = "group-and-sum-by-x"
	CountByX = "count-by-x"
)

// Request is what the user asked to see. Only the fields relevant to
// Operation are read.
type Request struct {
	Operation   Operation `json:"operation" yaml:"operation"`
	Kind        Kind      `json:"kind,omitempty" yaml:"kind,omitempty"`
	X           string    `json:"x,omitempty" yaml:"x,omitempty"`
	Y           string    `json:"y,omitempty" yaml:"y,omitempty"`
	Column      string    `json:"column,omitempty" yaml:"column,omitempty"`
	DateColumn  string    `json:"date_column,omitempty" yaml:"date_column,omitempty"`
	ValueColumn string    `json:"value_column,omitempty" yaml:"value_column,omitempty"`
	Bins        int       `json:"bins,omitempty" yaml:"bins,omitempty"`
}

// Spec is a declarative description of a chart. It names columns and
// labels only; Materialize computes the data.
type Spec struct {
	Kind      Kind      `json:"kind" yaml:"kind"`
	Operation Operation `json:"operation" yaml:"operation"`
	X         string    `json:"x,omitempty" yaml:"x,omitempty"`
	Y         string    `json:"y,omitempty" yaml:"y,omitempty"`
	Title     string    `json:"title" yaml:"title"`
	XLabel    string    `json:"x_label,omitempty" yaml:"x_label,omitempty"`
	YLabel    string    `json:"y_label,omitempty" yaml:"y_label,omitempty"`
	Aggregate string    `json:"aggregate,omitempty" yaml:"aggregate,omitempty"`
	Bins      int       `json:"bins,omitempty" yaml:"bins,omitempty"`
}

// ParseOperation accepts the operation names used on the command line.
func ParseOperation(s string) (Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plot", "":
		return OpPlot, nil
	case "counts", "value-counts", "value_counts":
		return OpCounts, nil
	case "trend":
		return OpTrend, nil
	case "histogram", "hist":
		return OpHistogram, nil
	case "correlation", "corr":
		return OpCorrelation, nil
	}
	return "", fmt.Errorf("%w: operation %q", ErrUnsupported, s)
}

// Build derives the chart spec for req over t. A nil spec with warnings
// means the chart cannot be drawn for this data; an error means the request
// itself is invalid.
func Build(t *table.Table, req Request) (*Spec, []string, error) {
	switch req.Operation {
	case OpPlot, "":
		return buildPlot(t, req)
	case OpCounts:
		c, err := column(t, req.Column, req.X)
		if err != nil {
			return nil, nil, err
		}
		return &Spec{
			Kind: Bar, Operation: OpCounts, X: c.Name,
			Title: fmt.Sprintf("Value Counts in %s", c.Name), XLabel: c.Name, YLabel: "Count",
			Aggregate: CountByX,
		}, nil, nil
	case OpTrend:
		d, err := column(t, req.DateColumn, req.X)
		if err != nil {
			return nil, nil, err
		}
		v, err := column(t, req.ValueColumn, req.Y)
		if err != nil {
			return nil, nil, err
		}
		return &Spec{
			Kind: Line, Operation: OpTrend, X: d.Name, Y: v.Name,
			Title: fmt.Sprintf("Trend of %s", v.Name), XLabel: "Date", YLabel: v.Name,
		}, nil, nil
	case OpHistogram:
		c, err := column(t, req.Column, req.X)
		if err != nil {
			return nil, nil, err
		}
		bins := min(req.Bins, analysis.MaxBins)
		if bins <= 0 {
			bins = analysis.DefaultBins
		}
		return &Spec{
			Kind: Histogram, Operation: OpHistogram, X: c.Name,
			Title: fmt.Sprintf("Histogram of %s", c.Name), XLabel: c.Name, YLabel: "Frequency",
			Bins: bins,
		}, nil, nil
	case OpCorrelation:
		if len(t.NumericColumns()) < 2 {
			return nil, []string{"correlation needs at least two numeric columns"}, nil
		}
		return &Spec{Kind: Matrix, Operation: OpCorrelation, Title: "Correlation Matrix"}, nil, nil
	}
	return nil, nil, fmt.Errorf("%w: operation %q", ErrUnsupported, req.Operation)
}

func buildPlot(t *table.Table, req Request) (*Spec, []string, error) {
	x, err := column(t, req.X)
	if err != nil {
		return nil, nil, err
	}
	y, err := column(t, req.Y)
	if err != nil {
		return nil, nil, err
	}
	spec := &Spec{
		Kind: req.Kind, Operation: OpPlot, X: x.Name, Y: y.Name,
		Title: fmt.Sprintf("%s vs %s", y.Name, x.Name), XLabel: x.Name, YLabel: y.Name,
	}
	switch req.Kind {
	case Line, "":
		spec.Kind = Line
		if y.Type != table.Number {
			return nil, []string{fmt.Sprintf("line plot needs a numeric y column; %s is %s", y.Name, y.Type)}, nil
		}
		if x.Type != table.Number && !temporal(x) {
			return nil, []string{fmt.Sprintf("line plot needs a numeric or date x column; %s is %s", x.Name, x.Type)}, nil
		}
	case Bar:
		if y.Type == table.Number {
			spec.Aggregate = SumByX
		} else {
			spec.Aggregate = CountByX
		}
	default:
		return nil, nil, fmt.Errorf("%w: plot kind %q", ErrUnsupported, req.Kind)
	}
	return spec, nil, nil
}

// temporal reports whether c is a datetime column or every non-missing cell
// of it parses as a timestamp.
func temporal(c *table.Column) bool {
	if c.Type == table.Datetime {
		return true
	}
	if c.Type == table.Number {
		return false
	}
	seen := 0
	for i, v := range c.Values {
		if v.Null {
			continue
		}
		if _, ok := c.Timestamp(i); !ok {
			return false
		}
		seen++
	}
	return seen > 0
}

// column resolves the first non-empty name among names.
func column(t *table.Table, names ...string) (*table.Column, error) {
	for _, n := range names {
		if n != "" {
			return t.MustColumn(n)
		}
	}
	return nil, fmt.Errorf("%w: no column given", table.ErrColumnNotFound)
}
