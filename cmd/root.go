// =============================================================================
// Sales Report Generator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (salesrpt)
//   ├── reportCmd   (salesrpt report)
//   ├── validateCmd (salesrpt validate)
//   └── versionCmd  (salesrpt version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration (config.yaml, .env, SALESRPT_* variables)
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-report/internal/config"
	"github.com/ginjaninja78/sales-report/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// envFile is the dotenv file seeding SALESRPT_* variables.
var envFile = ".env"

// verbose enables debug logging when set to true.
var verbose bool

// logOutput receives log records. nil means stderr.
var logOutput io.Writer

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "salesrpt",
	Short: "Sales Report Generator - Aggregate sales into team and product revenue reports",
	Long: `Sales Report Generator reads a team map, a product master and a list of
sales, and writes two reports:

  - Team report:    gross revenue per team
  - Product report: gross revenue, units sold and discount cost per product

Both reports are sorted by gross revenue, highest first. Money is computed
with exact decimal arithmetic and written with two decimals.

Example Usage:
  salesrpt report                              # Use the default file names
  salesrpt report -s Q3Sales.csv --format xlsx # Custom sales file, Excel output
  salesrpt validate                            # Check inputs without writing reports`,

	SilenceUsage: true,

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. Called by main.main().
// Ctrl+C cancels the run between pipeline steps.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig reads the configuration. The default config.yaml may be absent;
// a file named with --config must exist.
func loadConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: cfgFile,
		Required:   cmd.Flags().Changed("config"),
		EnvFile:    envFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the logger from the configuration. --verbose forces debug.
func newLogger(cfg *config.MainConfig) *logging.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		Output: logOutput,
	})
}
