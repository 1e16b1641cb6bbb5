// Package explore runs the load and filter stages for one request, memoizing
// both by the content of their inputs.
package explore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/tabloom-cli/internal/cache"
	"github.com/KaramelBytes/tabloom-cli/internal/filter"
	"github.com/KaramelBytes/tabloom-cli/internal/logging"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

// Session is the caller-owned state of one exploration: how to read the
// file and which filters are active. The explorer never stores it.
type Session struct {
	Delimiter        rune                  `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	DecimalSeparator rune                  `json:"decimal_separator,omitempty" yaml:"decimal_separator,omitempty"`
	Types            map[string]table.Type `json:"types,omitempty" yaml:"types,omitempty"`
	DropZeroColumns  bool                  `json:"drop_zero_columns,omitempty" yaml:"drop_zero_columns,omitempty"`
	Filters          filter.Spec           `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// LoadOptions returns the loader settings carried by the session.
func (s Session) LoadOptions() table.LoadOptions {
	return table.LoadOptions{
		Delimiter:        s.Delimiter,
		DecimalSeparator: s.DecimalSeparator,
		Types:            s.Types,
		DropZeroColumns:  s.DropZeroColumns,
	}
}

// loadKey identifies the table produced from data under the session's load
// options. Filters do not contribute.
func (s Session) loadKey(data []byte) cache.Key {
	hints := make([]string, 0, len(s.Types))
	for k, v := range s.Types {
		hints = append(hints, table.NormalizeName(k)+"="+v.String())
	}
	sort.Strings(hints)
	opts := fmt.Sprintf("d=%q;dec=%q;zero=%t;types=%s", s.Delimiter, s.DecimalSeparator, s.DropZeroColumns, strings.Join(hints, ","))
	return cache.KeyOf(data, []byte(opts))
}

// View is the outcome of one request: the loaded table, the filtered table
// and every soft condition raised by either stage.
type View struct {
	Key      cache.Key
	Source   *table.Table
	Filtered *table.Table
	Warnings []string
}

// Explorer memoizes loading and filtering across requests. It is safe for
// concurrent use.
type Explorer struct {
	tables   *cache.Memo[*table.Table]
	filtered *cache.Memo[filter.Result]
}

// New returns an explorer whose caches hold at most entries tables and
// entries filter results; entries <= 0 means unbounded.
func New(entries int) *Explorer {
	return &Explorer{
		tables:   cache.New[*table.Table](entries),
		filtered: cache.New[filter.Result](entries),
	}
}

// Load parses data with the session's load options.
func (e *Explorer) Load(ctx context.Context, data []byte, s Session) (*table.Table, cache.Key, error) {
	key := s.loadKey(data)
	start := time.Now()
	t, hit, err := e.tables.Get(key, func() (*table.Table, error) {
		return table.Load(data, s.LoadOptions())
	})
	if err != nil {
		return nil, key, err
	}
	logging.FromContext(ctx).Debug("table loaded",
		"key", key.String(),
		"cache_hit", hit,
		"rows", t.NumRows(),
		"columns", t.NumCols(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return t, key, nil
}

// Open loads data and applies the session's filters.
func (e *Explorer) Open(ctx context.Context, data []byte, s Session) (*View, error) {
	src, key, err := e.Load(ctx, data, s)
	if err != nil {
		return nil, err
	}
	fkey := cache.KeyOfStrings(key.String(), s.Filters.Fingerprint())
	res, hit, err := e.filtered.Get(fkey, func() (filter.Result, error) {
		return filter.Apply(src, s.Filters)
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("filters applied",
		"key", fkey.String(),
		"cache_hit", hit,
		"constraints", len(s.Filters),
		"rows", res.Table.NumRows(),
	)
	v := &View{Key: key, Source: src, Filtered: res.Table}
	v.Warnings = append(v.Warnings, src.Notes...)
	v.Warnings = append(v.Warnings, res.Warnings...)
	return v, nil
}
