package explore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/filter"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
	"github.com/KaramelBytes/tabloom-cli/internal/trend"
)

const orders = "Date,Region,Units,Price\n2024-01-03,North,3,9.5\n2024-01-20,South,1,12\n2024-02-11,North,5,8\n2024-02-14,East,2,10\n"

func open(t *testing.T, s Session) *View {
	t.Helper()
	v, err := New(0).Open(context.Background(), []byte(orders), s)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return v
}

func TestRunOperations(t *testing.T) {
	v := open(t, Session{})
	d := Defaults{PreviewRows: 2, HistogramBins: 4}

	res, err := Run(v, Query{Operation: "preview"}, d)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	rep := res.Value.(*analysis.Report)
	if res.Rows != 4 || len(rep.Samples) != 2 || rep.Corr != nil {
		t.Fatalf("preview = %+v", rep)
	}
	res, _ = Run(v, Query{Operation: OpPreview, Rows: 3, Correlations: true}, d)
	if rep := res.Value.(*analysis.Report); len(rep.Samples) != 3 || rep.Corr == nil {
		t.Fatalf("preview with correlations = %+v", rep)
	}

	res, err = Run(v, Query{Operation: OpValues, Column: "Region"}, d)
	if err != nil || strings.Join(res.Value.([]string), ",") != "North,South,East" {
		t.Fatalf("values = %v, %v", res.Value, err)
	}

	res, err = Run(v, Query{Operation: OpCounts, X: "Region"}, d)
	if err != nil || res.Value.(analysis.Counts).Entries[0].Value != "North" {
		t.Fatalf("counts = %+v, %v", res.Value, err)
	}

	res, err = Run(v, Query{Operation: OpDescribe}, d)
	if err != nil || len(res.Value.(analysis.Summary).Stats) != 2 {
		t.Fatalf("describe all = %+v, %v", res.Value, err)
	}
	res, err = Run(v, Query{Operation: OpDescribe, Column: "Units"}, d)
	if err != nil || res.Value.(analysis.Stats).Max != 5 {
		t.Fatalf("describe = %+v, %v", res.Value, err)
	}

	res, err = Run(v, Query{Operation: "corr"}, d)
	if err != nil || res.Operation != OpCorrelation || len(res.Value.(analysis.CorrMatrix).Columns) != 2 {
		t.Fatalf("correlation = %+v, %v", res, err)
	}

	res, err = Run(v, Query{Operation: OpTrend, X: "Date", Y: "Units"}, d)
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if pts := res.Value.(trend.Result).Points; len(pts) != 2 || pts[0].Mean != 2 || pts[1].Mean != 3.5 {
		t.Fatalf("trend = %+v", pts)
	}

	res, err = Run(v, Query{Operation: "hist", Column: "Price"}, d)
	if err != nil || len(res.Value.(analysis.Hist).Bins) != 4 {
		t.Fatalf("histogram = %+v, %v", res.Value, err)
	}
}

func TestRunChart(t *testing.T) {
	v := open(t, Session{})
	res, err := Run(v, Query{Operation: "plot", Kind: "bar", X: "Region", Y: "Units"}, Defaults{})
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	cr := res.Value.(ChartResult)
	if cr.Spec == nil || cr.Spec.Kind != chart.Bar || len(cr.Data.Bars) != 3 || cr.Data.Bars[0].Value != 8 {
		t.Fatalf("chart = %+v", cr)
	}

	one := open(t, Session{Types: map[string]table.Type{"Price": table.Text}})
	res, err = Run(one, Query{Operation: OpChart, ChartOp: "correlation"}, Defaults{})
	if err != nil {
		t.Fatalf("refused chart: %v", err)
	}
	if res.Value.(ChartResult).Spec != nil || len(res.Warnings) == 0 {
		t.Fatalf("expected refusal, got %+v", res)
	}

	if _, err := Run(v, Query{Operation: OpChart, ChartOp: "pie"}, Defaults{}); !errors.Is(err, chart.ErrUnsupported) {
		t.Fatalf("err = %v", err)
	}
}

func TestRunCarriesViewWarnings(t *testing.T) {
	v := open(t, Session{Filters: filter.Spec{{Column: "Region", Values: []string{"West"}}}})
	res, err := Run(v, Query{Operation: OpCounts, Column: "Region"}, Defaults{})
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if res.Rows != 0 || len(res.Warnings) < 2 || res.Warnings[0] != filter.NoRowsWarning {
		t.Fatalf("warnings = %v", res.Warnings)
	}
}

func TestRunErrors(t *testing.T) {
	v := open(t, Session{})
	if _, err := Run(v, Query{Operation: "pivot"}, Defaults{}); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("err = %v", err)
	}
	if _, err := Run(v, Query{Operation: OpCounts, Column: "Nope"}, Defaults{}); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("err = %v", err)
	}
}
