// =============================================================================
// Sales Report Generator - Report Command
// =============================================================================
//
// This file defines the 'report' command, which reads the three input tables
// and writes the team and product reports.
//
// COMMAND USAGE:
//   salesrpt report [flags]
//
// FLAGS:
//   -t, --team-map        : Team map file name (default TeamMap.csv)
//   -p, --product-master  : Product master file name (default ProductMaster.csv)
//   -s, --sales           : Sales file name (default Sales.csv)
//   --team-report         : Team report file name (default TeamReport.csv)
//   --product-report      : Product report file name (default ProductReport.csv)
//   --input-dir           : Input directory (default "Input Files")
//   --output-dir          : Output directory (default "Output Files")
//   --format              : Output format, csv or xlsx
//   --on-unresolved       : terminate or error
//   --summary             : Write a run summary file to the output directory
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/sales-report/internal/config"
	"github.com/ginjaninja78/sales-report/internal/logging"
	"github.com/ginjaninja78/sales-report/internal/report"
	"github.com/ginjaninja78/sales-report/internal/reportwriter"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	teamMapFile       string
	productMasterFile string
	salesFile         string
	teamReportFile    string
	productReportFile string
	inputDir          string
	outputDir         string
	outputFormat      string
	onUnresolved      string
	writeSummary      bool
)

// fileFlag ties a file-name flag to the table it names.
type fileFlag struct {
	name   string
	hint   string
	table  string
	target func(*config.MainConfig) *string
	value  *string
}

var fileFlags = []fileFlag{
	{"team-map", "-t", "team map", func(c *config.MainConfig) *string { return &c.Files.TeamMap }, &teamMapFile},
	{"product-master", "-p", "product master", func(c *config.MainConfig) *string { return &c.Files.ProductMaster }, &productMasterFile},
	{"sales", "-s", "sales", func(c *config.MainConfig) *string { return &c.Files.Sales }, &salesFile},
	{"team-report", "--team-report", "team report", func(c *config.MainConfig) *string { return &c.Files.TeamReport }, &teamReportFile},
	{"product-report", "--product-report", "product report", func(c *config.MainConfig) *string { return &c.Files.ProductReport }, &productReportFile},
}

// =============================================================================
// REPORT COMMAND DEFINITION
// =============================================================================

var reportCmd = &cobra.Command{
	Use:     "report",
	Aliases: []string{"process"},
	Short:   "Aggregate sales and write the team and product reports",
	Long: `The report command reads the team map, product master and sales files from
the input directory, aggregates every sale, and writes the team report and the
product report to the output directory.

A sale referencing an unknown product or team stops the run before any report
is written. With --on-unresolved terminate (the default) the problem is logged
and the process exits with status 1; with --on-unresolved error the error is
returned to the caller.

If an output file is locked, numbered alternates such as TeamReport(1).csv are
tried instead.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	addInputFlags(reportCmd)

	reportCmd.Flags().StringVar(&teamReportFile, "team-report", config.DefaultTeamReportFile, "Team report file name")
	reportCmd.Flags().StringVar(&productReportFile, "product-report", config.DefaultProductReportFile, "Product report file name")
	reportCmd.Flags().StringVar(&outputDir, "output-dir", config.DefaultOutputDir, "Directory reports are written to")
	reportCmd.Flags().StringVar(&outputFormat, "format", config.DefaultOutputFormat, "Output format: csv or xlsx")
	reportCmd.Flags().StringVar(&onUnresolved, "on-unresolved", config.DefaultOnUnresolved, "On unknown product or team: terminate or error")
	reportCmd.Flags().BoolVar(&writeSummary, "summary", false, "Write a run summary file to the output directory")
}

// addInputFlags registers the flags naming the input tables.
func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&teamMapFile, "team-map", "t", config.DefaultTeamMapFile, "Team map file name")
	cmd.Flags().StringVarP(&productMasterFile, "product-master", "p", config.DefaultProductMasterFile, "Product master file name")
	cmd.Flags().StringVarP(&salesFile, "sales", "s", config.DefaultSalesFile, "Sales file name")
	cmd.Flags().StringVar(&inputDir, "input-dir", config.DefaultInputDir, "Directory the input files are read from")
}

// =============================================================================
// FLAG APPLICATION
// =============================================================================

// applyFlags copies explicitly given flags over the configuration and logs a
// notice for every file flag left at its configured default.
func applyFlags(cmd *cobra.Command, cfg *config.MainConfig, log *logging.Logger) error {
	flags := cmd.Flags()

	for _, f := range fileFlags {
		if flags.Lookup(f.name) == nil {
			continue
		}
		target := f.target(cfg)
		if flags.Changed(f.name) {
			*target = *f.value
			continue
		}
		log.Info(f.table+" file not specified, default used",
			"file", *target,
			"flag", f.hint)
	}

	if flags.Changed("input-dir") {
		cfg.InputDir = inputDir
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("format") {
		cfg.OutputFormat = outputFormat
	}
	if flags.Changed("on-unresolved") {
		cfg.OnUnresolved = onUnresolved
	}
	if flags.Changed("summary") {
		cfg.WriteSummary = writeSummary
	}

	return cfg.Validate()
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runReport(cmd *cobra.Command) error {
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

	summary, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "=== Sales Report Complete ===")
	fmt.Fprintf(out, "Sales processed:     %d\n", summary.SalesProcessed)
	fmt.Fprintf(out, "Teams:               %d\n", summary.Teams)
	fmt.Fprintf(out, "Products:            %d\n", summary.Products)
	fmt.Fprintf(out, "Total gross revenue: %s\n", reportwriter.FormatMoney(summary.TotalRevenue))
	fmt.Fprintf(out, "Total discount cost: %s\n", reportwriter.FormatMoney(summary.TotalDiscountCost))
	fmt.Fprintf(out, "Team report:         %s\n", summary.TeamReportFile)
	fmt.Fprintf(out, "Product report:      %s\n", summary.ProductReportFile)
	if summary.SummaryFile != "" {
		fmt.Fprintf(out, "Run summary:         %s\n", summary.SummaryFile)
	}
	fmt.Fprintf(out, "Time elapsed:        %s\n", summary.Duration)

	return nil
}
