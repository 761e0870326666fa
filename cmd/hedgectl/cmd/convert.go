package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"SalaryHedge/internal/app"
	"SalaryHedge/internal/model"
)

var salaryCmd = &cobra.Command{
	Use:   "salary <user> <amount>",
	Short: "Process a salary payment",
	Long: `Process a salary payment in local-currency minor units.

target_percentage of the amount is converted when the local currency lost
at least threshold_bp over the last week and the previous conversion is at
least a week old.`,
	Args: cobra.ExactArgs(2),
	RunE: runSalary,
}

var convertCmd = &cobra.Command{
	Use:   "convert <user> <amount>",
	Short: "Convert an amount now, ignoring cooldown and threshold",
	Args:  cobra.ExactArgs(2),
	RunE:  runConvert,
}

func init() {
	rootCmd.AddCommand(salaryCmd, convertCmd)
}

type salaryResult struct {
	Triggered        bool                   `json:"triggered"`
	Reason           model.SalaryReason     `json:"reason"`
	DevaluationBP    int64                  `json:"devaluation_bp"`
	ConversionAmount model.Amount           `json:"conversion_amount"`
	Event            *model.ConversionEvent `json:"event,omitempty"`
}

func runSalary(cmd *cobra.Command, args []string) error {
	a, err := auth()
	if err != nil {
		return err
	}
	amount, err := model.ParseAmount(args[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	return withApp(func(ap *app.App) error {
		out, err := ap.Engine.ProcessSalary(cmd.Context(), a, model.UserID(args[0]), amount)
		if err != nil {
			return failure(err)
		}
		return printJSON(cmd.OutOrStdout(), salaryResult{
			Triggered:        out.Triggered,
			Reason:           out.Reason,
			DevaluationBP:    out.DevaluationBP,
			ConversionAmount: out.ConversionAmount,
			Event:            out.Event,
		})
	})
}

func runConvert(cmd *cobra.Command, args []string) error {
	a, err := auth()
	if err != nil {
		return err
	}
	amount, err := model.ParseAmount(args[1])
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	return withApp(func(ap *app.App) error {
		evt, err := ap.Engine.ConvertNow(cmd.Context(), a, model.UserID(args[0]), amount)
		if err != nil {
			return failure(err)
		}
		return printJSON(cmd.OutOrStdout(), evt)
	})
}
