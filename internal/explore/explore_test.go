package explore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/filter"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

const sales = "Region;Product;Units\nNorth;A;3\nSouth;B;0\nNorth;B;5\nEast;A;1\n"

func TestOpenFiltersAndMemoizes(t *testing.T) {
	e := New(4)
	ctx := context.Background()
	s := Session{Filters: filter.Spec{{Column: "Region", Values: []string{"North"}}}}

	v1, err := e.Open(ctx, []byte(sales), s)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v1.Source.NumRows() != 4 || v1.Filtered.NumRows() != 2 {
		t.Fatalf("rows = %d/%d", v1.Source.NumRows(), v1.Filtered.NumRows())
	}
	v2, err := e.Open(ctx, []byte(sales), s)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v1.Source != v2.Source || v1.Filtered != v2.Filtered {
		t.Fatalf("identical inputs were recomputed")
	}
	if hits, _ := e.tables.Stats(); hits != 1 {
		t.Fatalf("table hits = %d, want 1", hits)
	}

	// same data, reordered filters: same table, same filtered result
	s.Filters = append(s.Filters, filter.Constraint{Column: "Product", Values: []string{"B"}})
	a, _ := e.Open(ctx, []byte(sales), s)
	s.Filters = filter.Spec{s.Filters[1], s.Filters[0]}
	b, _ := e.Open(ctx, []byte(sales), s)
	if a.Filtered != b.Filtered || a.Filtered.NumRows() != 1 {
		t.Fatalf("reordered filters gave %v vs %v", a.Filtered.NumRows(), b.Filtered.NumRows())
	}
}

func TestOpenLoadOptionsChangeKey(t *testing.T) {
	e := New(0)
	ctx := context.Background()
	plain, err := e.Open(ctx, []byte(sales), Session{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	dropped, err := e.Open(ctx, []byte(sales), Session{DropZeroColumns: true, Types: map[string]table.Type{"Units": table.Text}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain.Key == dropped.Key {
		t.Fatalf("load options did not change the key")
	}
	if c, _ := dropped.Source.Column("Units"); c.Type != table.Text {
		t.Fatalf("type hint ignored")
	}
}

func TestOpenWarningsAndErrors(t *testing.T) {
	e := New(0)
	ctx := context.Background()
	v, err := e.Open(ctx, []byte(sales), Session{Filters: filter.Spec{{Column: "Region", Values: []string{"West"}}}})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v.Filtered.NumRows() != 0 || len(v.Warnings) != 1 || v.Warnings[0] != filter.NoRowsWarning {
		t.Fatalf("view = %d rows, warnings %v", v.Filtered.NumRows(), v.Warnings)
	}

	_, err = e.Open(ctx, nil, Session{})
	var le *table.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("err = %v, want LoadError", err)
	}

	_, err = e.Open(ctx, []byte(sales), Session{Filters: filter.Spec{{Column: "Nope", Values: []string{"x"}}}})
	if !errors.Is(err, filter.ErrUnknownColumn) {
		t.Fatalf("err = %v", err)
	}

	v, err = e.Open(ctx, []byte("a,b\n,\n1,\n"), Session{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !strings.Contains(strings.Join(v.Warnings, "|"), "dropped empty column b") {
		t.Fatalf("warnings = %v", v.Warnings)
	}
}
