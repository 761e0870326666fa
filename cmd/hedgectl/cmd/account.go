package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"SalaryHedge/internal/app"
	"SalaryHedge/internal/model"
)

var setupCmd = &cobra.Command{
	Use:   "setup <user> <currency> <target-percentage> <threshold-bp>",
	Short: "Create or replace a user's hedge configuration",
	Long: `Create or replace a user's hedge configuration.

Replacing an existing configuration resets last_conversion and
total_protected to zero. The conversion history is kept.`,
	Args: cobra.ExactArgs(4),
	RunE: runSetup,
}

var configCmd = &cobra.Command{
	Use:   "config <user>",
	Short: "Show a user's configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfig,
}

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "List supported currencies",
	Args:  cobra.NoArgs,
	RunE:  runCurrencies,
}

var removeCmd = &cobra.Command{
	Use:   "remove <user>",
	Short: "Delete a user's configuration and history",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(setupCmd, configCmd, currenciesCmd, removeCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	a, err := auth()
	if err != nil {
		return err
	}
	pct, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return fmt.Errorf("target percentage: %w", err)
	}
	bp, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("threshold: %w", err)
	}
	return withApp(func(ap *app.App) error {
		user := model.UserID(args[0])
		if err := ap.Engine.Setup(cmd.Context(), a, user, args[1], uint32(pct), bp); err != nil {
			return failure(err)
		}
		cfg, err := ap.Engine.Config(cmd.Context(), user)
		if err != nil {
			return failure(err)
		}
		return printJSON(cmd.OutOrStdout(), cfg)
	})
}

func runConfig(cmd *cobra.Command, args []string) error {
	return withApp(func(ap *app.App) error {
		cfg, err := ap.Engine.Config(cmd.Context(), model.UserID(args[0]))
		if err != nil {
			return failure(err)
		}
		return printJSON(cmd.OutOrStdout(), cfg)
	})
}

func runCurrencies(cmd *cobra.Command, _ []string) error {
	return withApp(func(ap *app.App) error {
		return printJSON(cmd.OutOrStdout(), ap.Engine.SupportedCurrencies())
	})
}

func runRemove(cmd *cobra.Command, args []string) error {
	a, err := auth()
	if err != nil {
		return err
	}
	return withApp(func(ap *app.App) error {
		if err := ap.Engine.Remove(cmd.Context(), a, model.UserID(args[0])); err != nil {
			return failure(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
		return nil
	})
}
