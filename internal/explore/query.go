package explore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/filter"
	"github.com/KaramelBytes/tabloom-cli/internal/trend"
)

// ErrUnknownOperation is returned by Run for operations it does not know.
var ErrUnknownOperation = errors.New("unknown operation")

// Operations accepted by Run.
const (
	OpPreview     = "preview"
	OpValues      = "values"
	OpCounts      = "counts"
	OpDescribe    = "describe"
	OpCorrelation = "correlation"
	OpTrend       = "trend"
	OpHistogram   = "histogram"
	OpChart       = "chart"
)

// Query selects one computation over a view's filtered table.
type Query struct {
	Operation   string      `json:"operation" yaml:"operation"`
	Filters     filter.Spec `json:"filters,omitempty" yaml:"filters,omitempty"`
	Column      string      `json:"column,omitempty" yaml:"column,omitempty"`
	X           string      `json:"x,omitempty" yaml:"x,omitempty"`
	Y           string      `json:"y,omitempty" yaml:"y,omitempty"`
	Kind        string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	ChartOp     string      `json:"chart_operation,omitempty" yaml:"chart_operation,omitempty"`
	DateColumn  string      `json:"date_column,omitempty" yaml:"date_column,omitempty"`
	ValueColumn string      `json:"value_column,omitempty" yaml:"value_column,omitempty"`
	Bins        int         `json:"bins,omitempty" yaml:"bins,omitempty"`
	Rows        int         `json:"rows,omitempty" yaml:"rows,omitempty"`

	// Correlations adds the correlation matrix to a preview.
	Correlations bool `json:"correlations,omitempty" yaml:"correlations,omitempty"`
}

// ChartRequest maps the query onto a chart request. ChartOp selects the
// chart's operation and defaults to a plot.
func (q Query) ChartRequest() (chart.Request, error) {
	op, err := chart.ParseOperation(q.ChartOp)
	if err != nil {
		return chart.Request{}, err
	}
	return chart.Request{
		Operation:   op,
		Kind:        chart.Kind(strings.ToLower(q.Kind)),
		X:           q.X,
		Y:           q.Y,
		Column:      q.Column,
		DateColumn:  q.DateColumn,
		ValueColumn: q.ValueColumn,
		Bins:        q.Bins,
	}, nil
}

// ChartResult is a chart spec with the series it draws. Spec is nil when the
// chart cannot be drawn for this data.
type ChartResult struct {
	Spec *chart.Spec `json:"spec" yaml:"spec"`
	Data chart.Data  `json:"data" yaml:"data"`
}

// Result is the outcome of Run. Value holds the operation's result type.
type Result struct {
	Operation string   `json:"operation" yaml:"operation"`
	Rows      int      `json:"rows" yaml:"rows"`
	Value     any      `json:"result" yaml:"result"`
	Warnings  []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Defaults fills in counts the query leaves unset.
type Defaults struct {
	PreviewRows   int
	HistogramBins int
}

// Run executes q over v.Filtered. View warnings are carried into the result.
func Run(v *View, q Query, d Defaults) (Result, error) {
	t := v.Filtered
	res := Result{Operation: strings.ToLower(q.Operation), Rows: t.NumRows()}
	res.Warnings = append(res.Warnings, v.Warnings...)
	col := q.Column
	if col == "" {
		col = q.X
	}
	switch res.Operation {
	case OpPreview, "":
		res.Operation = OpPreview
		opt := analysis.DefaultOptions()
		opt.SampleRows = firstPositive(q.Rows, d.PreviewRows, 5)
		opt.Correlations = q.Correlations
		rep := analysis.Profile(t, "", opt)
		rep.Warnings = nil
		res.Value = rep
	case OpValues:
		vals, err := filter.Options(t, col)
		if err != nil {
			return res, err
		}
		res.Value = vals
	case OpCounts:
		c, err := analysis.ValueCounts(t, col)
		if err != nil {
			return res, err
		}
		res.Value, res.Warnings = c, append(res.Warnings, c.Warnings...)
	case OpDescribe:
		if col == "" {
			s := analysis.DescribeAll(t)
			res.Value, res.Warnings = s, append(res.Warnings, s.Warnings...)
			break
		}
		s, err := analysis.Describe(t, col)
		if err != nil {
			return res, err
		}
		res.Value, res.Warnings = s, append(res.Warnings, s.Warnings...)
	case OpCorrelation, "corr":
		res.Operation = OpCorrelation
		m := analysis.Correlation(t)
		res.Value, res.Warnings = m, append(res.Warnings, m.Warnings...)
	case OpTrend:
		r, err := trend.Monthly(t, firstNonEmpty(q.DateColumn, q.X), firstNonEmpty(q.ValueColumn, q.Y))
		if err != nil {
			return res, err
		}
		res.Value, res.Warnings = r, append(res.Warnings, r.Warnings...)
	case OpHistogram, "hist":
		res.Operation = OpHistogram
		h, err := analysis.Histogram(t, col, firstPositive(q.Bins, d.HistogramBins, analysis.DefaultBins))
		if err != nil {
			return res, err
		}
		res.Value, res.Warnings = h, append(res.Warnings, h.Warnings...)
	case OpChart, "plot":
		res.Operation = OpChart
		req, err := q.ChartRequest()
		if err != nil {
			return res, err
		}
		if req.Bins <= 0 {
			req.Bins = d.HistogramBins
		}
		spec, warns, err := chart.Build(t, req)
		if err != nil {
			return res, err
		}
		res.Warnings = append(res.Warnings, warns...)
		cr := ChartResult{Spec: spec}
		if spec != nil {
			data, warns, err := chart.Materialize(t, *spec)
			if err != nil {
				return res, err
			}
			cr.Data = data
			res.Warnings = append(res.Warnings, warns...)
		}
		res.Value = cr
	default:
		return res, fmt.Errorf("%w: %q", ErrUnknownOperation, q.Operation)
	}
	return res, nil
}

func firstPositive(vals ...int) int {
	for _, v := range vals {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
