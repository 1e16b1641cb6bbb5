package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom-cli/internal/explore"
)

var (
	trendFlags sessionFlags
	trendDate  string
	trendValue string
	histFlags  sessionFlags
	histBins   int
)

var trendCmd = &cobra.Command{
	Use:   "trend <file> --date <column> --value <column>",
	Short: "Monthly mean of a value column over a date column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if trendDate == "" || trendValue == "" {
			return fmt.Errorf("--date and --value are required")
		}
		return trendFlags.run(cmd, args[0], explore.Query{
			Operation:   explore.OpTrend,
			DateColumn:  trendDate,
			ValueColumn: trendValue,
		})
	},
}

var histCmd = &cobra.Command{
	Use:   "hist <file> <column>",
	Short: "Histogram of a numeric column",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if histBins < 0 {
			return fmt.Errorf("--bins must be positive")
		}
		return histFlags.run(cmd, args[0], explore.Query{
			Operation: explore.OpHistogram,
			Column:    args[1],
			Bins:      histBins,
		})
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendFlags.register(trendCmd)
	trendCmd.Flags().StringVar(&trendDate, "date", "", "date column")
	trendCmd.Flags().StringVar(&trendValue, "value", "", "numeric value column")

	rootCmd.AddCommand(histCmd)
	histFlags.register(histCmd)
	histCmd.Flags().IntVar(&histBins, "bins", 0, "number of bins (default from config)")
}
