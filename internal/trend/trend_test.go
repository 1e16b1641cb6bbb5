package trend

import (
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

func load(t *testing.T, text string) *table.Table {
	t.Helper()
	tb, err := table.Load([]byte(text), table.LoadOptions{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tb
}

func TestMonthlyMeans(t *testing.T) {
	tb := load(t, "date,value\n2024-02-01,5\n2024-01-15,10\n2024-01-20,20\n")
	res, err := Monthly(tb, "date", "value")
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	want := []struct {
		label string
		mean  float64
	}{{"2024-01", 15}, {"2024-02", 5}}
	if len(res.Points) != len(want) {
		t.Fatalf("points = %+v", res.Points)
	}
	for i, w := range want {
		p := res.Points[i]
		if p.Label != w.label || p.Mean != w.mean {
			t.Fatalf("point %d = %+v, want %s %.1f", i, p, w.label, w.mean)
		}
		if p.Month.Day() != 1 || p.Month.Location() != time.UTC {
			t.Fatalf("month = %v, want first of month UTC", p.Month)
		}
	}
}

func TestMonthlyDropsUnreadableRows(t *testing.T) {
	tb := load(t, "date,value\n2024-03-02,1\nsoon,2\n2024-03-09,n/a\n2024-05-01,4\n")
	res, _ := Monthly(tb, "date", "value")
	if len(res.Points) != 2 || res.Points[0].Label != "2024-03" || res.Points[1].Label != "2024-05" {
		t.Fatalf("points = %+v", res.Points)
	}
	if res.Dropped != 2 {
		t.Fatalf("dropped = %d, want 2", res.Dropped)
	}
	if res.Points[0].Count != 1 {
		t.Fatalf("march count = %d", res.Points[0].Count)
	}
}

func TestMonthlyWarnings(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"bad dates", "d,v\nfoo,1\nbar,2\n", []string{"date parsing failed for column d"}},
		{"bad values", "d,v\n2024-01-01,x\n2024-02-01,y\n", []string{"value column v cannot be converted to numeric"}},
		{"both", "d,v\nfoo,x\n", []string{"date parsing failed for column d", "value column v cannot be converted to numeric"}},
		{"disjoint", "d,v\n2024-01-01,x\nfoo,2\n", []string{"no row has both a valid date and a numeric value"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Monthly(load(t, tc.input), "d", "v")
			if err != nil {
				t.Fatalf("Monthly: %v", err)
			}
			if len(res.Points) != 0 {
				t.Fatalf("points = %+v", res.Points)
			}
			if strings.Join(res.Warnings, "|") != strings.Join(tc.want, "|") {
				t.Fatalf("warnings = %v, want %v", res.Warnings, tc.want)
			}
		})
	}
}

func TestMonthlyUnknownColumn(t *testing.T) {
	tb := load(t, "d,v\n2024-01-01,1\n")
	if _, err := Monthly(tb, "date", "v"); err == nil {
		t.Fatalf("expected error")
	}
}
