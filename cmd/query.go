package cmd

import (
	"github.com/spf13/cobra"

	"github.com/KaramelBytes/tabloom-cli/internal/explore"
)

var (
	valuesFlags   sessionFlags
	countsFlags   sessionFlags
	describeFlags sessionFlags
	corrFlags     sessionFlags
)

var valuesCmd = &cobra.Command{
	Use:   "values <file> <column>",
	Short: "List the distinct values of a column, in first-seen order",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return valuesFlags.run(cmd, args[0], explore.Query{Operation: explore.OpValues, Column: args[1]})
	},
}

var countsCmd = &cobra.Command{
	Use:   "counts <file> <column>",
	Short: "Count how often each value of a column occurs",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return countsFlags.run(cmd, args[0], explore.Query{Operation: explore.OpCounts, Column: args[1]})
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <file> [column]",
	Short: "Descriptive statistics for one column or every numeric column",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := explore.Query{Operation: explore.OpDescribe}
		if len(args) == 2 {
			q.Column = args[1]
		}
		return describeFlags.run(cmd, args[0], q)
	},
}

var corrCmd = &cobra.Command{
	Use:   "corr <file>",
	Short: "Pearson correlation matrix of the numeric columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return corrFlags.run(cmd, args[0], explore.Query{Operation: explore.OpCorrelation})
	},
}

func init() {
	for _, c := range []struct {
		cmd   *cobra.Command
		flags *sessionFlags
	}{
		{valuesCmd, &valuesFlags},
		{countsCmd, &countsFlags},
		{describeCmd, &describeFlags},
		{corrCmd, &corrFlags},
	} {
		rootCmd.AddCommand(c.cmd)
		c.flags.register(c.cmd)
	}
}
