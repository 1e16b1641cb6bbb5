package chart

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

const salesCSV = `Date,Region,Units,Price,Note
2024-01-15,North,3,10.5,ok
2024-01-20,South,5,7.25,ok
2024-02-01,North,2,9,late
2024-02-11,East,,11,ok
2024-03-05,South,4,8.5,ok
`

func loadSales(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.Load([]byte(salesCSV), table.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tb
}

func TestBuild(t *testing.T) {
	tb := loadSales(t)
	cases := []struct {
		name string
		req  Request
		want Spec
	}{
		{"line over dates", Request{Operation: OpPlot, Kind: Line, X: "Date", Y: "Units"},
			Spec{Kind: Line, Operation: OpPlot, X: "Date", Y: "Units", Title: "Units vs Date", XLabel: "Date", YLabel: "Units"}},
		{"line over numbers", Request{Operation: OpPlot, Kind: Line, X: "Price", Y: "Units"},
			Spec{Kind: Line, Operation: OpPlot, X: "Price", Y: "Units", Title: "Units vs Price", XLabel: "Price", YLabel: "Units"}},
		{"bar sums numeric y", Request{Operation: OpPlot, Kind: Bar, X: "Region", Y: "Units"},
			Spec{Kind: Bar, Operation: OpPlot, X: "Region", Y: "Units", Title: "Units vs Region", XLabel: "Region", YLabel: "Units", Aggregate: SumByX}},
		{"bar counts text y", Request{Operation: OpPlot, Kind: Bar, X: "Region", Y: "Note"},
			Spec{Kind: Bar, Operation: OpPlot, X: "Region", Y: "Note", Title: "Note vs Region", XLabel: "Region", YLabel: "Note", Aggregate: CountByX}},
		{"counts", Request{Operation: OpCounts, Column: "Region"},
			Spec{Kind: Bar, Operation: OpCounts, X: "Region", Title: "Value Counts in Region", XLabel: "Region", YLabel: "Count", Aggregate: CountByX}},
		{"trend", Request{Operation: OpTrend, DateColumn: "Date", ValueColumn: "Price"},
			Spec{Kind: Line, Operation: OpTrend, X: "Date", Y: "Price", Title: "Trend of Price", XLabel: "Date", YLabel: "Price"}},
		{"histogram", Request{Operation: OpHistogram, Column: "Price"},
			Spec{Kind: Histogram, Operation: OpHistogram, X: "Price", Title: "Histogram of Price", XLabel: "Price", YLabel: "Frequency", Bins: 10}},
		{"correlation", Request{Operation: OpCorrelation},
			Spec{Kind: Matrix, Operation: OpCorrelation, Title: "Correlation Matrix"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, warns, err := Build(tb, tc.req)
			if err != nil || len(warns) != 0 {
				t.Fatalf("Build: %v %v", err, warns)
			}
			if *got != tc.want {
				t.Fatalf("spec = %+v\nwant   %+v", *got, tc.want)
			}
		})
	}
}

func TestBuildRefusesAndRejects(t *testing.T) {
	tb := loadSales(t)
	spec, warns, err := Build(tb, Request{Operation: OpPlot, Kind: Line, X: "Region", Y: "Units"})
	if err != nil || spec != nil || len(warns) != 1 {
		t.Fatalf("text x: %v %v %v", spec, warns, err)
	}
	spec, warns, err = Build(tb, Request{Operation: OpPlot, Kind: Line, X: "Date", Y: "Note"})
	if err != nil || spec != nil || len(warns) != 1 {
		t.Fatalf("text y: %v %v %v", spec, warns, err)
	}
	if _, _, err := Build(tb, Request{Operation: OpPlot, Kind: "pie", X: "Date", Y: "Units"}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("pie: %v", err)
	}
	if _, _, err := Build(tb, Request{Operation: OpPlot, X: "Nope", Y: "Units"}); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("unknown column: %v", err)
	}
	one, _ := table.Load([]byte("a,b\n1,x\n"), table.LoadOptions{})
	spec, warns, _ = Build(one, Request{Operation: OpCorrelation})
	if spec != nil || len(warns) != 1 {
		t.Fatalf("correlation on one column: %v %v", spec, warns)
	}
}

func TestMaterialize(t *testing.T) {
	tb := loadSales(t)

	spec, _, _ := Build(tb, Request{Operation: OpPlot, Kind: Bar, X: "Region", Y: "Units"})
	d, _, err := Materialize(tb, *spec)
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	want := []BarValue{{"North", 5}, {"South", 9}}
	if len(d.Bars) != len(want) || d.Bars[0] != want[0] || d.Bars[1] != want[1] {
		t.Fatalf("bars = %+v", d.Bars)
	}

	spec, _, _ = Build(tb, Request{Operation: OpPlot, Kind: Line, X: "Date", Y: "Units"})
	d, warns, _ := Materialize(tb, *spec)
	if len(d.XTimes) != 4 || len(d.YValues) != 4 || len(warns) != 1 {
		t.Fatalf("line = %+v %v", d, warns)
	}

	spec, _, _ = Build(tb, Request{Operation: OpTrend, DateColumn: "Date", ValueColumn: "Price"})
	d, _, _ = Materialize(tb, *spec)
	if len(d.XTimes) != 3 || d.YValues[0] != (10.5+7.25)/2 {
		t.Fatalf("trend = %+v", d)
	}

	spec, _, _ = Build(tb, Request{Operation: OpCounts, Column: "Note"})
	d, _, _ = Materialize(tb, *spec)
	if d.Bars[0] != (BarValue{"ok", 4}) {
		t.Fatalf("counts = %+v", d.Bars)
	}

	d, warns, _ = Materialize(tb.SelectRows(nil), *spec)
	if d.Len() != 0 || len(warns) != 1 {
		t.Fatalf("empty = %+v %v", d, warns)
	}
}

func TestRenderPNGAndSVG(t *testing.T) {
	tb := loadSales(t)
	reqs := []Request{
		{Operation: OpPlot, Kind: Line, X: "Date", Y: "Units"},
		{Operation: OpPlot, Kind: Bar, X: "Region", Y: "Units"},
		{Operation: OpTrend, DateColumn: "Date", ValueColumn: "Price"},
		{Operation: OpHistogram, Column: "Price", Bins: 4},
		{Operation: OpCorrelation},
	}
	for _, req := range reqs {
		spec, _, err := Build(tb, req)
		if err != nil || spec == nil {
			t.Fatalf("Build %v: %v", req, err)
		}
		d, _, err := Materialize(tb, *spec)
		if err != nil {
			t.Fatalf("Materialize %v: %v", req, err)
		}
		var buf bytes.Buffer
		if err := Render(&buf, *spec, d, RenderOptions{Width: 640, Height: 360}); err != nil {
			t.Fatalf("Render %s: %v", spec.Title, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			t.Fatalf("decode %s: %v", spec.Title, err)
		}
		if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
			t.Fatalf("%s size = %v", spec.Title, b)
		}
		if spec.Kind == Matrix {
			continue
		}
		buf.Reset()
		if err := Render(&buf, *spec, d, RenderOptions{Format: SVG}); err != nil {
			t.Fatalf("Render svg %s: %v", spec.Title, err)
		}
		if !strings.Contains(buf.String(), "<svg") {
			t.Fatalf("not svg: %.80s", buf.String())
		}
	}
}

func TestRenderEdgeCases(t *testing.T) {
	if err := Render(&bytes.Buffer{}, Spec{Kind: Line}, Data{}, RenderOptions{}); !errors.Is(err, ErrNoData) {
		t.Fatalf("empty: %v", err)
	}
	single := Data{XValues: []float64{1}, YValues: []float64{2}}
	if err := Render(&bytes.Buffer{}, Spec{Kind: Line, Title: "one"}, single, RenderOptions{}); err != nil {
		t.Fatalf("single point: %v", err)
	}
	if _, err := ParseFormat("out.gif"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("gif: %v", err)
	}
	if f, _ := ParseFormat("chart.SVG"); f != SVG {
		t.Fatalf("svg = %v", f)
	}
}
