package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tabloom-cli/internal/config"
	"github.com/KaramelBytes/tabloom-cli/internal/explore"
	"github.com/KaramelBytes/tabloom-cli/internal/filter"
	"github.com/KaramelBytes/tabloom-cli/internal/table"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
)

// sessionFlags are the load, filter and output flags every data command takes.
type sessionFlags struct {
	delimiter string
	decimal   string
	types     []string
	typesFile string
	dropZero  bool
	where     []string
	format    string
}

func (f *sessionFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.delimiter, "delimiter", "", "field delimiter: auto|comma|semicolon|tab|pipe or a single character (default from config)")
	fl.StringVar(&f.decimal, "decimal", "", "decimal separator: '.' or ',' (default from config)")
	fl.StringArrayVar(&f.types, "type", nil, "column type hint col=text|number|datetime (repeatable)")
	fl.StringVar(&f.typesFile, "types-file", "", "YAML file mapping column names to types")
	fl.BoolVar(&f.dropZero, "drop-zero", false, "drop numeric columns whose every value is zero")
	fl.StringArrayVar(&f.where, "where", nil, "keep rows where col is one of v1,v2 (repeatable, combined with AND)")
	fl.StringVarP(&f.format, "format", "f", "markdown", "output format: markdown|json|yaml")
}

// session merges the flags over the configured defaults.
func (f *sessionFlags) session(cmd *cobra.Command) (explore.Session, error) {
	c := settings()
	var s explore.Session
	var err error

	delim := c.Delimiter
	if f.delimiter != "" {
		delim = f.delimiter
	}
	if s.Delimiter, err = cfgpkg.ParseDelimiter(delim); err != nil {
		return s, err
	}
	dec := c.DecimalSeparator
	if f.decimal != "" {
		dec = f.decimal
	}
	if s.DecimalSeparator, err = cfgpkg.ParseDecimal(dec); err != nil {
		return s, err
	}
	s.DropZeroColumns = c.DropZeroColumns
	if cmd.Flags().Changed("drop-zero") {
		s.DropZeroColumns = f.dropZero
	}

	if f.typesFile != "" {
		if s.Types, err = cfgpkg.LoadTypeHints(f.typesFile); err != nil {
			return s, err
		}
	}
	for _, kv := range f.types {
		col, name, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return s, fmt.Errorf("invalid --type %q (want col=type)", kv)
		}
		t, err := table.ParseType(name)
		if err != nil {
			return s, fmt.Errorf("--type %s: %w", col, err)
		}
		if s.Types == nil {
			s.Types = map[string]table.Type{}
		}
		s.Types[strings.TrimSpace(col)] = t
	}

	if s.Filters, err = filter.ParseAll(f.where); err != nil {
		return s, err
	}
	return s, nil
}

// open reads path ("-" for stdin) and runs it through the shared explorer.
func (f *sessionFlags) open(cmd *cobra.Command, path string) (*explore.View, error) {
	sess, err := f.session(cmd)
	if err != nil {
		return nil, err
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return sharedExplorer().Open(ctx, data, sess)
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return b, nil
}

func displayName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

// emit prints a result in the requested format and its warnings on stderr.
func (f *sessionFlags) emit(cmd *cobra.Command, res explore.Result) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(f.format) {
	case "", "markdown", "md":
		fmt.Fprint(out, markdown(res.Value))
	case "json":
		b, err := utils.PrettyJSON(res)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(b))
	case "yaml", "yml":
		b, err := yaml.Marshal(res)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		fmt.Fprint(out, string(b))
	default:
		return fmt.Errorf("unsupported --format: %s (use markdown|json|yaml)", f.format)
	}
	warn(cmd, res.Warnings)
	return nil
}

func warn(cmd *cobra.Command, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠ %s\n", w)
	}
}

func markdown(v any) string {
	switch x := v.(type) {
	case interface{ Markdown() string }:
		return x.Markdown()
	case []string:
		if len(x) == 0 {
			return ""
		}
		return strings.Join(x, "\n") + "\n"
	}
	return fmt.Sprintf("%v\n", v)
}

// run is the body shared by the query commands.
func (f *sessionFlags) run(cmd *cobra.Command, path string, q explore.Query) error {
	view, err := f.open(cmd, path)
	if err != nil {
		return err
	}
	c := settings()
	res, err := explore.Run(view, q, explore.Defaults{PreviewRows: c.PreviewRows, HistogramBins: c.HistogramBins})
	if err != nil {
		warn(cmd, res.Warnings)
		return err
	}
	if rep, ok := res.Value.(*analysis.Report); ok {
		rep.Name = displayName(path)
	}
	return f.emit(cmd, res)
}
