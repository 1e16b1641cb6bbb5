package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom-cli/internal/export"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
)

var (
	exportFlags  sessionFlags
	exportOutput string
	exportAs     string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the filtered rows as CSV, JSON or Parquet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		view, err := exportFlags.open(cmd, args[0])
		if err != nil {
			return err
		}
		out := exportOutput
		if out == "" {
			out = settings().ExportFilename
		}
		if out == "" {
			out = export.DefaultFilename
		}
		format := export.FormatFor(out)
		if exportAs != "" {
			f, err := export.ParseFormat(exportAs)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("output") && f != format {
				out = strings.TrimSuffix(out, filepath.Ext(out)) + f.Ext()
			}
			format = f
		}

		var buf bytes.Buffer
		if err := export.Write(&buf, view.Filtered, format); err != nil {
			return err
		}
		if err := utils.SafeWriteFile(out, buf.Bytes()); err != nil {
			return err
		}
		warn(cmd, view.Warnings)
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d rows as %s to %s\n", view.Filtered.NumRows(), format, out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportFlags.register(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output path (default from config: filtered_data.csv)")
	exportCmd.Flags().StringVar(&exportAs, "as", "", "format: csv|json|parquet (default from the output extension)")
}
