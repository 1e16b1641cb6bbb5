package cmd

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tabloom-cli/internal/chart"
	"github.com/KaramelBytes/tabloom-cli/internal/explore"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
)

var (
	plotFlags    sessionFlags
	plotQuery    explore.Query
	plotOutput   string
	plotSpecOnly bool
	plotWidth    int
	plotHeight   int
)

var plotCmd = &cobra.Command{
	Use:   "plot <file>",
	Short: "Build a chart spec and render it to PNG or SVG",
	Long: `Build a declarative chart for one of the operations (plot, counts, trend,
histogram, correlation) and render it. Plots take --kind line|bar with -x and
-y; bar plots sum y per x. With --spec-only, or without -o, the spec is
printed instead of drawn.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := plotFlags.open(cmd, args[0])
		if err != nil {
			return err
		}
		q := plotQuery
		q.Operation = explore.OpChart
		c := settings()
		res, err := explore.Run(view, q, explore.Defaults{HistogramBins: c.HistogramBins})
		if err != nil {
			warn(cmd, res.Warnings)
			return err
		}
		cr := res.Value.(explore.ChartResult)
		if cr.Spec == nil {
			warn(cmd, res.Warnings)
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠ no chart drawn")
			return nil
		}

		if plotSpecOnly || plotOutput == "" {
			var b []byte
			if strings.EqualFold(plotFlags.format, "yaml") {
				b, err = yaml.Marshal(cr.Spec)
			} else {
				b, err = utils.PrettyJSON(cr.Spec)
				b = append(b, '\n')
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(b))
			warn(cmd, res.Warnings)
			return nil
		}

		format, err := chart.ParseFormat(plotOutput)
		if err != nil {
			return err
		}
		opt := chart.RenderOptions{Width: c.ChartWidth, Height: c.ChartHeight, Format: format}
		if plotWidth > 0 {
			opt.Width = plotWidth
		}
		if plotHeight > 0 {
			opt.Height = plotHeight
		}
		var buf bytes.Buffer
		if err := chart.Render(&buf, *cr.Spec, cr.Data, opt); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(plotOutput, buf.Bytes()); err != nil {
			return err
		}
		warn(cmd, res.Warnings)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %s to %s\n", cr.Spec.Title, plotOutput)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotFlags.register(plotCmd)
	f := plotCmd.Flags()
	f.StringVar(&plotQuery.ChartOp, "op", "plot", "operation: plot|counts|trend|histogram|correlation")
	f.StringVar(&plotQuery.Kind, "kind", "", "plot kind: line|bar")
	f.StringVarP(&plotQuery.X, "x", "x", "", "x column")
	f.StringVarP(&plotQuery.Y, "y", "y", "", "y column")
	f.StringVar(&plotQuery.Column, "column", "", "column for counts and histogram")
	f.StringVar(&plotQuery.DateColumn, "date", "", "date column for trend")
	f.StringVar(&plotQuery.ValueColumn, "value", "", "value column for trend")
	f.IntVar(&plotQuery.Bins, "bins", 0, "histogram bins (default from config)")
	f.StringVarP(&plotOutput, "output", "o", "", "output image path (.png or .svg)")
	f.BoolVar(&plotSpecOnly, "spec-only", false, "print the chart spec without rendering")
	f.IntVar(&plotWidth, "width", 0, "image width in pixels (default from config)")
	f.IntVar(&plotHeight, "height", 0, "image height in pixels (default from config)")
}
