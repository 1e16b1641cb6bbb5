package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom-cli/internal/explore"
)

var (
	previewFlags sessionFlags
	previewRows  int
	previewCorr  bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Profile a file and show its first rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return previewFlags.run(cmd, args[0], explore.Query{
			Operation:    explore.OpPreview,
			Rows:         previewRows,
			Correlations: previewCorr,
		})
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewFlags.register(previewCmd)
	previewCmd.Flags().IntVarP(&previewRows, "rows", "n", 0, "number of rows to show (default from config)")
	previewCmd.Flags().BoolVar(&previewCorr, "corr", false, "include the strongest numeric correlations")
}
