package cmd

import (
	"github.com/spf13/cobra"

	"SalaryHedge/internal/app"
	"SalaryHedge/internal/model"
)

var metricsCmd = &cobra.Command{
	Use:   "metrics <user>",
	Short: "Show devaluation and protected total",
	Args:  cobra.ExactArgs(1),
	RunE:  runMetrics,
}

var historyCmd = &cobra.Command{
	Use:   "history <user>",
	Short: "List a user's conversions, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

var metricsDays uint32

func init() {
	rootCmd.AddCommand(metricsCmd, historyCmd)
	metricsCmd.Flags().Uint32VarP(&metricsDays, "days", "d", 7, "look-back window in days")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	return withApp(func(ap *app.App) error {
		m, err := ap.Engine.Metrics(cmd.Context(), model.UserID(args[0]), metricsDays)
		if err != nil {
			return failure(err)
		}
		return printJSON(cmd.OutOrStdout(), m)
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	return withApp(func(ap *app.App) error {
		events, err := ap.Engine.History(cmd.Context(), model.UserID(args[0]))
		if err != nil {
			return failure(err)
		}
		return printJSON(cmd.OutOrStdout(), events)
	})
}
