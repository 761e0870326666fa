package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"SalaryHedge/internal/app"
	"SalaryHedge/internal/config"
	"SalaryHedge/internal/engine"
	"SalaryHedge/internal/model"
)

var (
	configPath string
	caller     string
)

var rootCmd = &cobra.Command{
	Use:   "hedgectl",
	Short: "Administer salary hedge accounts",
	Long: `hedgectl runs hedge operations against the configured store and oracle.

Mutating commands act as the identity given with --caller, which stands in
for the signature check done by the host platform.

Examples:
  hedgectl setup alice ARS 20 200 --caller alice
  hedgectl salary alice 150000000 --caller alice
  hedgectl metrics alice --days 30`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "path to YAML or TOML config")
	rootCmd.PersistentFlags().StringVar(&caller, "caller", "", "identity signing mutating commands")
}

// openApp loads the configuration and wires the engine.
func openApp() (*app.App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return app.Bootstrap(cfg, app.Options{Recorder: true})
}

// withApp runs fn against a freshly wired engine and releases it afterwards.
func withApp(fn func(a *app.App) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func auth() (engine.Auth, error) {
	if caller == "" {
		return engine.Auth{}, fmt.Errorf("--caller is required for this command")
	}
	return engine.Authenticated(model.UserID(caller)), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failure decorates engine errors with their stable code.
func failure(err error) error {
	if code := engine.CodeOf(err); code != 0 {
		return fmt.Errorf("%s (code %d): %w", code, uint32(code), err)
	}
	return err
}
