package filter

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

const people = `name,city,age
Ann,Oslo,31
Bob,Bergen,42
Cid,Oslo,31
Dee,,27
Eve,Bergen,31
`

func load(t *testing.T) *table.Table {
	t.Helper()
	tb, err := table.Load([]byte(people), table.LoadOptions{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return tb
}

func names(tb *table.Table) string {
	c, _ := tb.Column("name")
	var out []string
	for _, v := range c.Values {
		out = append(out, v.Raw)
	}
	return strings.Join(out, ",")
}

func TestApply(t *testing.T) {
	tb := load(t)
	cases := []struct {
		name string
		spec Spec
		want string
		warn bool
	}{
		{name: "empty spec", spec: nil, want: "Ann,Bob,Cid,Dee,Eve"},
		{name: "single value", spec: Spec{{Column: "city", Values: []string{"Oslo"}}}, want: "Ann,Cid"},
		{name: "value set", spec: Spec{{Column: "city", Values: []string{"Oslo", "Bergen"}}}, want: "Ann,Bob,Cid,Eve"},
		{name: "numbers as text", spec: Spec{{Column: "age", Values: []string{"31"}}}, want: "Ann,Cid,Eve"},
		{name: "conjunction", spec: Spec{
			{Column: "age", Values: []string{"31"}},
			{Column: "city", Values: []string{"Bergen"}},
		}, want: "Eve"},
		{name: "missing renders empty", spec: Spec{{Column: "city", Values: []string{""}}}, want: "Dee"},
		{name: "no match", spec: Spec{
			{Column: "city", Values: []string{"Tromso"}},
			{Column: "age", Values: []string{"31"}},
		}, want: "", warn: true},
		{name: "empty allowed set", spec: Spec{{Column: "city", Values: nil}}, want: "", warn: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Apply(tb, tc.spec)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if got := names(res.Table); got != tc.want {
				t.Fatalf("rows = %q, want %q", got, tc.want)
			}
			if tc.warn != (len(res.Warnings) == 1 && res.Warnings[0] == NoRowsWarning) {
				t.Fatalf("warnings = %#v, want no-rows=%v", res.Warnings, tc.warn)
			}
			if res.Table.NumCols() != tb.NumCols() {
				t.Fatalf("columns changed: %d", res.Table.NumCols())
			}
		})
	}
}

func TestApplyProperties(t *testing.T) {
	tb := load(t)
	spec := Spec{
		{Column: "city", Values: []string{"Oslo", "Bergen"}},
		{Column: "age", Values: []string{"31", "42"}},
	}
	first, err := Apply(tb, spec)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if first.Table.NumRows() > tb.NumRows() {
		t.Fatalf("filter grew the table")
	}
	again, err := Apply(first.Table, spec)
	if err != nil {
		t.Fatalf("Apply again: %v", err)
	}
	if names(again.Table) != names(first.Table) {
		t.Fatalf("not idempotent: %q vs %q", names(again.Table), names(first.Table))
	}
	reversed, err := Apply(tb, Spec{spec[1], spec[0]})
	if err != nil {
		t.Fatalf("Apply reversed: %v", err)
	}
	if names(reversed.Table) != names(first.Table) {
		t.Fatalf("order dependent: %q vs %q", names(reversed.Table), names(first.Table))
	}
	if spec.Fingerprint() != (Spec{spec[1], spec[0]}).Fingerprint() {
		t.Fatalf("fingerprint depends on constraint order")
	}
	city, _ := first.Table.Column("city")
	age, _ := first.Table.Column("age")
	for i := 0; i < first.Table.NumRows(); i++ {
		c, a := city.Values[i].Raw, age.Values[i].Raw
		if (c != "Oslo" && c != "Bergen") || (a != "31" && a != "42") {
			t.Fatalf("row %d violates spec: %s %s", i, c, a)
		}
	}
}

func TestApplyUnknownColumn(t *testing.T) {
	_, err := Apply(load(t), Spec{{Column: "country", Values: []string{"NO"}}})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("err = %v, want ErrUnknownColumn", err)
	}
}

func TestOptions(t *testing.T) {
	got, err := Options(load(t), "city")
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	if strings.Join(got, ",") != "Oslo,Bergen" {
		t.Fatalf("options = %v", got)
	}
	if _, err := Options(load(t), "nope"); !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("err = %v, want ErrColumnNotFound", err)
	}
}

func TestParseAll(t *testing.T) {
	spec, err := ParseAll([]string{"city=Oslo, Bergen", "Home Town=a\\,b", "city=Tromso"})
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(spec) != 2 {
		t.Fatalf("spec = %#v", spec)
	}
	if spec[0].Column != "city" || strings.Join(spec[0].Values, "|") != "Oslo|Bergen|Tromso" {
		t.Fatalf("first = %#v", spec[0])
	}
	if spec[1].Column != "Home_Town" || len(spec[1].Values) != 1 || spec[1].Values[0] != "a,b" {
		t.Fatalf("second = %#v", spec[1])
	}
	if _, err := Parse("=x"); err == nil {
		t.Fatalf("expected error for missing column")
	}
	if _, err := Parse("novalue"); err == nil {
		t.Fatalf("expected error for missing '='")
	}
}
