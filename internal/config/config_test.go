package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tabloom-cli/internal/table"
)

func TestLoadDefaultsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("delimiter: \";\"\nhistogram_bins: 20\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TABLOOM_CHART_WIDTH", "640")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.HistogramBins != 20 || c.ChartWidth != 640 || c.ChartHeight != 500 || c.ExportFilename != "filtered_data.csv" {
		t.Fatalf("config = %+v", c)
	}
	if d, _ := c.DelimiterRune(); d != ';' {
		t.Fatalf("delimiter = %q", d)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *c != *Default() {
		t.Fatalf("config = %+v, want defaults", c)
	}
}

func TestSetSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Default()
	for k, v := range map[string]string{"delimiter": "tab", "decimal_separator": ",", "drop_zero_columns": "true", "preview_rows": "12", "log_format": "JSON"} {
		if err := c.Set(k, v); err != nil {
			t.Fatalf("Set(%s): %v", k, err)
		}
	}
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *back != *c {
		t.Fatalf("round trip = %+v, want %+v", back, c)
	}
	if d, _ := back.DelimiterRune(); d != '\t' {
		t.Fatalf("delimiter = %q", d)
	}
	if got, _ := back.Get("log_format"); got != "json" {
		t.Fatalf("log_format = %q", got)
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	c := Default()
	bad := map[string]string{
		"delimiter": "ab", "decimal_separator": ";", "drop_zero_columns": "maybe",
		"preview_rows": "0", "chart_width": "x", "log_level": "loud", "nope": "1",
	}
	for k, v := range bad {
		if err := c.Set(k, v); err == nil {
			t.Fatalf("Set(%s, %s) accepted", k, v)
		}
	}
	if *c != *Default() {
		t.Fatalf("rejected values changed config: %+v", c)
	}
	for _, k := range Keys {
		if _, err := c.Get(k); err != nil {
			t.Fatalf("Get(%s): %v", k, err)
		}
	}
}

func TestLoadTypeHints(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.yaml")
	if err := os.WriteFile(path, []byte("Order ID: text\nShipped: datetime\nUnits: number\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	hints, err := LoadTypeHints(path)
	if err != nil {
		t.Fatalf("LoadTypeHints: %v", err)
	}
	if hints["Order ID"] != table.Text || hints["Shipped"] != table.Datetime || hints["Units"] != table.Number {
		t.Fatalf("hints = %v", hints)
	}
	if err := os.WriteFile(path, []byte("x: blob\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadTypeHints(path); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
