// =============================================================================
// Sales Report Generator - Report Runner
// =============================================================================
//
// This module orchestrates a single report run, from reading the input
// tables to writing both reports.
//
// RUN PIPELINE:
//   1. Resolve the three input files inside the input directory
//   2. Read and load the team map, product master and sales tables
//   3. Aggregate sales into team and product totals
//   4. Create the output directory
//   5. Write the team report and the product report
//   6. Optionally write the run summary log
//
// Aggregation finishes before any output file is opened, so a run that stops
// on an unresolved reference leaves the output directory untouched.
//
// =============================================================================

package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-report/internal/aggregator"
	"github.com/ginjaninja78/sales-report/internal/config"
	"github.com/ginjaninja78/sales-report/internal/csvparser"
	"github.com/ginjaninja78/sales-report/internal/logging"
	"github.com/ginjaninja78/sales-report/internal/reportwriter"
	"github.com/ginjaninja78/sales-report/internal/types"
	"github.com/ginjaninja78/sales-report/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Tables holds the three loaded input tables.
type Tables struct {
	Teams   types.TeamDirectory
	Catalog types.ProductCatalog
	Sales   []types.Sale

	// Paths of the files each table was read from.
	TeamMapPath       string
	ProductMasterPath string
	SalesPath         string
}

// Summary describes a completed run.
type Summary struct {
	// RunID identifies the run in logs and in the summary file name.
	RunID string

	// TeamReportFile and ProductReportFile are the paths actually written.
	TeamReportFile    string
	ProductReportFile string

	// SummaryFile is empty unless write_summary is enabled.
	SummaryFile string

	SalesProcessed int
	Teams          int
	Products       int

	TotalRevenue      decimal.Decimal
	TotalDiscountCost decimal.Decimal

	Duration time.Duration
}

// =============================================================================
// RUNNER STRUCTURE
// =============================================================================

// Runner executes report runs for one configuration.
type Runner struct {
	config *config.MainConfig
	files  *utils.FileManager
	log    *logging.Logger
	mode   aggregator.Mode
	format reportwriter.Format
	now    func() time.Time
}

// New creates a Runner.
//
// PARAMETERS:
//   - cfg: The resolved configuration, flags already applied.
//   - log: The logger. nil discards log output.
//
// RETURNS:
//   - A new Runner.
//   - An error if the output format or unresolved-reference mode is invalid.
func New(cfg *config.MainConfig, log *logging.Logger) (*Runner, error) {
	mode, err := aggregator.ParseMode(cfg.OnUnresolved)
	if err != nil {
		return nil, err
	}
	format, err := reportwriter.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Discard()
	}

	return &Runner{
		config: cfg,
		files:  utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.AlternateNames()),
		log:    log,
		mode:   mode,
		format: format,
		now:    time.Now,
	}, nil
}

// =============================================================================
// LOADING
// =============================================================================

// LoadTables reads and parses the three input tables.
func (r *Runner) LoadTables(ctx context.Context) (*Tables, error) {
	return r.loadTables(ctx, r.log)
}

func (r *Runner) loadTables(ctx context.Context, log *logging.Logger) (*Tables, error) {
	var tables Tables

	rows, path, err := r.readTable(ctx, log, csvparser.TableTeamMap, r.config.Files.TeamMap)
	if err != nil {
		return nil, err
	}
	if tables.Teams, err = csvparser.LoadTeamDirectory(rows); err != nil {
		return nil, err
	}
	tables.TeamMapPath = path

	rows, path, err = r.readTable(ctx, log, csvparser.TableProductMaster, r.config.Files.ProductMaster)
	if err != nil {
		return nil, err
	}
	if tables.Catalog, err = csvparser.LoadProductCatalog(rows); err != nil {
		return nil, err
	}
	tables.ProductMasterPath = path

	rows, path, err = r.readTable(ctx, log, csvparser.TableSales, r.config.Files.Sales)
	if err != nil {
		return nil, err
	}
	if tables.Sales, err = csvparser.LoadSales(rows); err != nil {
		return nil, err
	}
	tables.SalesPath = path

	log.Debug("input tables loaded",
		"teams", len(tables.Teams),
		"products", len(tables.Catalog),
		"sales", len(tables.Sales))

	return &tables, nil
}

func (r *Runner) readTable(ctx context.Context, log *logging.Logger, table, name string) ([][]string, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	path, err := r.files.InputPath(name)
	if err != nil {
		return nil, "", err
	}

	rows, err := csvparser.ReadRows(path)
	if err != nil {
		return nil, "", err
	}

	log.WithFile(table, path).Info("read input table", "rows", len(rows))
	return rows, path, nil
}

// =============================================================================
// MAIN RUN FUNCTION
// =============================================================================

// Run executes the pipeline once.
//
// RETURNS:
//   - A Summary of the run.
//   - An error from loading, aggregation or writing. In terminate mode an
//     unresolved reference ends the process instead.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := r.now()
	runID := uuid.New().String()
	log := r.log.WithRunID(runID)

	log.Info("report run started", "mode", r.mode.String(), "format", string(r.format))

	tables, err := r.loadTables(ctx, log)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := aggregator.Run(r.mode, tables.Teams, tables.Catalog, tables.Sales, log)
	if err != nil {
		return nil, fmt.Errorf("aggregation failed: %w", err)
	}

	if err := r.files.EnsureOutputDir(); err != nil {
		return nil, err
	}

	writer := reportwriter.New(r.format, r.files, log)

	summary := &Summary{
		RunID:             runID,
		SalesProcessed:    result.SalesProcessed,
		Teams:             result.Teams.Len(),
		Products:          result.Products.Len(),
		TotalRevenue:      result.Products.TotalRevenue(),
		TotalDiscountCost: result.Products.TotalDiscountCost(),
	}

	summary.TeamReportFile, err = writer.WriteTeamReport(r.files.OutputPath(r.config.Files.TeamReport), result.Teams)
	if err != nil {
		return nil, err
	}
	log.Info("team report written", "file", summary.TeamReportFile, "rows", summary.Teams)

	summary.ProductReportFile, err = writer.WriteProductReport(r.files.OutputPath(r.config.Files.ProductReport), result.Products)
	if err != nil {
		return nil, err
	}
	log.Info("product report written", "file", summary.ProductReportFile, "rows", summary.Products)

	end := r.now()
	summary.Duration = end.Sub(start)

	if r.config.WriteSummary {
		summary.SummaryFile, err = utils.WriteSummaryLog(utils.RunSummary{
			RunID:             runID,
			StartTime:         start,
			EndTime:           end,
			TeamMapFile:       tables.TeamMapPath,
			ProductMasterFile: tables.ProductMasterPath,
			SalesFile:         tables.SalesPath,
			TeamReportFile:    summary.TeamReportFile,
			ProductReportFile: summary.ProductReportFile,
			SalesProcessed:    summary.SalesProcessed,
			Teams:             summary.Teams,
			Products:          summary.Products,
			TotalRevenue:      reportwriter.FormatMoney(summary.TotalRevenue),
			TotalDiscountCost: reportwriter.FormatMoney(summary.TotalDiscountCost),
		}, r.config.OutputDir)
		if err != nil {
			// The reports are already written.
			log.Warn("failed to write run summary", "error", err)
		}
	}

	log.Info("report run complete",
		"sales", summary.SalesProcessed,
		"duration", summary.Duration.String())

	return summary, nil
}
