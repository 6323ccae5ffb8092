// =============================================================================
// Sales Report Generator - Validate Command
// =============================================================================
//
// This file defines the 'validate' command. It loads the three input tables
// and checks every sale, listing all unknown product and team ids at once.
// No report is written.
//
// COMMAND USAGE:
//   salesrpt validate [-t TeamMap.csv] [-p ProductMaster.csv] [-s Sales.csv]
//
// EXIT STATUS:
//   0 when there are no errors (warnings are allowed), 1 otherwise.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-report/internal/report"
	"github.com/ginjaninja78/sales-report/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the input files without writing reports",
	Long: `The validate command loads the team map, product master and sales files and
checks every sale for references to unknown products or teams. Unlike the
report command it does not stop at the first problem.

Sales with a discount outside 0-100 percent or a non-positive lot count are
reported as warnings.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	addInputFlags(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := newLogger(cfg)

	if err := applyFlags(cmd, cfg, log); err != nil {
		return err
	}

	runner, err := report.New(cfg, log)
	if err != nil {
		return err
	}

	tables, err := runner.LoadTables(cmd.Context())
	if err != nil {
		return err
	}

	result := validation.CheckReferences(tables.Teams, tables.Catalog, tables.Sales)

	out := cmd.OutOrStdout()
	fmt.Fprint(out, validation.FormatIssues(result.Issues))
	fmt.Fprintf(out, "\nSales checked: %d, errors: %d, warnings: %d\n",
		result.SalesChecked, result.ErrorCount, result.WarningCount)

	if !result.IsValid {
		return fmt.Errorf("validation failed with %d error(s)", result.ErrorCount)
	}
	return nil
}
