package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/tabloom-cli/internal/analysis"
	"github.com/KaramelBytes/tabloom-cli/internal/explore"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
)

var (
	pbFlags  sessionFlags
	pbOutDir string
	pbRows   int
	pbCorr   bool
	pbJobs   int
	pbQuiet  bool
)

var previewBatchCmd = &cobra.Command{
	Use:   "preview-batch <files...>",
	Short: "Profile several files, optionally writing one summary per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		c := settings()
		reports := make([]*analysis.Report, len(files))
		warnings := make([][]string, len(files))

		g, ctx := errgroup.WithContext(cmd.Context())
		if pbJobs > 0 {
			g.SetLimit(pbJobs)
		}
		for i, path := range files {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				view, err := pbFlags.open(cmd, path)
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				res, err := explore.Run(view, explore.Query{
					Operation:    explore.OpPreview,
					Rows:         pbRows,
					Correlations: pbCorr,
				}, explore.Defaults{PreviewRows: c.PreviewRows})
				if err != nil {
					return fmt.Errorf("%s: %w", filepath.Base(path), err)
				}
				rep := res.Value.(*analysis.Report)
				rep.Name = filepath.Base(path)
				rep.Warnings = res.Warnings
				reports[i], warnings[i] = rep, res.Warnings
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if pbOutDir != "" {
			if err := os.MkdirAll(pbOutDir, 0o755); err != nil {
				return err
			}
		}
		total := len(files)
		for i, rep := range reports {
			if !pbQuiet {
				fmt.Fprintf(out, "[%d/%d] %s\n", i+1, total, rep)
			}
			if pbOutDir == "" {
				fmt.Fprintln(out, rep.Markdown())
				continue
			}
			target := summaryPath(pbOutDir, files[i])
			if err := utils.SafeWriteFile(target, []byte(rep.Markdown())); err != nil {
				return fmt.Errorf("write summary: %w", err)
			}
			if !pbQuiet {
				fmt.Fprintf(out, "✓ Wrote %s\n", target)
			}
			warn(cmd, warnings[i])
		}
		return nil
	},
}

// expandInputs resolves globs and literal paths, dropping duplicates.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}

// summaryPath picks <base>.summary.md in dir, adding __2, __3... when a
// summary with that name already exists.
func summaryPath(dir, input string) string {
	base := filepath.Base(input)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	target := filepath.Join(dir, base+".summary.md")
	if _, err := os.Stat(target); err != nil {
		return target
	}
	for idx := 2; ; idx++ {
		cand := filepath.Join(dir, fmt.Sprintf("%s__%d.summary.md", base, idx))
		if _, err := os.Stat(cand); os.IsNotExist(err) {
			return cand
		}
	}
}

func init() {
	rootCmd.AddCommand(previewBatchCmd)
	pbFlags.register(previewBatchCmd)
	f := previewBatchCmd.Flags()
	f.StringVar(&pbOutDir, "out-dir", "", "write <name>.summary.md per file into this directory instead of stdout")
	f.IntVarP(&pbRows, "rows", "n", 0, "number of rows to show (default from config)")
	f.BoolVar(&pbCorr, "corr", false, "include the strongest numeric correlations")
	f.IntVar(&pbJobs, "jobs", 4, "files profiled concurrently (0 = unlimited)")
	f.BoolVar(&pbQuiet, "quiet", false, "suppress progress output")
}
