// =============================================================================
// Sales Report Generator - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a report run:
//   - Resolving input table names inside the input directory
//   - Creating the output directory
//   - Opening report files for writing, with alternate names when the
//     target is locked (for example open in a spreadsheet program)
//   - Writing the run summary log
//
// ALTERNATE NAMES:
//   If "Output Files/TeamReport.csv" cannot be opened because of a
//   permission error, "TeamReport(1).csv", "TeamReport(2).csv", ... are tried
//   in turn, up to MaxAlternateNames attempts.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// =============================================================================
// RESOURCE ERRORS
// =============================================================================

// ErrNotCSV is wrapped by a ResourceError when an input name lacks a .csv extension.
var ErrNotCSV = errors.New("input files must be .csv files")

// ResourceError reports a missing input or an unwritable output, with the
// path that was attempted.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file locations for a report run.
type FileManager struct {
	// InputDir is the directory the input tables are read from.
	InputDir string

	// OutputDir is the directory reports and summary logs are written to.
	OutputDir string

	// MaxAlternateNames bounds how many numbered alternates CreateOutput tries
	// after the requested path is refused.
	MaxAlternateNames int

	// openFile is os.OpenFile outside of tests.
	openFile func(name string, flag int, perm os.FileMode) (*os.File, error)
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir string, maxAlternateNames int) *FileManager {
	return &FileManager{
		InputDir:          inputDir,
		OutputDir:         outputDir,
		MaxAlternateNames: maxAlternateNames,
		openFile:          os.OpenFile,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureOutputDir creates the output directory if it does not exist.
func (fm *FileManager) EnsureOutputDir() error {
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return &ResourceError{Op: "create directory", Path: fm.OutputDir, Err: err}
	}
	return nil
}

// =============================================================================
// PATH RESOLUTION
// =============================================================================

// InputPath resolves an input table name inside the input directory.
//
// PARAMETERS:
//   - fileName: The table file name, e.g. "Sales.csv". Absolute paths are
//     used as given.
//
// RETURNS:
//   - The full path to the file.
//   - A *ResourceError if the name is not a .csv file or the file does not exist.
func (fm *FileManager) InputPath(fileName string) (string, error) {
	path := fileName
	if !filepath.IsAbs(path) {
		path = filepath.Join(fm.InputDir, fileName)
	}

	if !strings.EqualFold(filepath.Ext(fileName), ".csv") {
		return "", &ResourceError{Op: "read", Path: path, Err: ErrNotCSV}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ResourceError{Op: "read", Path: path, Err: err}
	}
	if info.IsDir() {
		return "", &ResourceError{Op: "read", Path: path, Err: fmt.Errorf("is a directory")}
	}

	return path, nil
}

// OutputPath resolves an output report name inside the output directory.
func (fm *FileManager) OutputPath(fileName string) string {
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return filepath.Join(fm.OutputDir, fileName)
}

// =============================================================================
// OUTPUT FILES
// =============================================================================

// CreateOutput opens path for writing, truncating any existing content.
//
// When the open fails with a permission error the numbered alternates from
// AlternateName are tried in order. Any other error is returned at once.
//
// No lock is taken. A file held open by another program surfaces as the
// operating system's permission error, which is what triggers the alternates.
//
// RETURNS:
//   - The open file. The caller must close it.
//   - The path actually opened.
//   - A *ResourceError naming the last path tried on failure.
func (fm *FileManager) CreateOutput(path string) (*os.File, string, error) {
	open := fm.openFile
	if open == nil {
		open = os.OpenFile
	}

	candidate := path
	for attempt := 0; ; attempt++ {
		file, err := open(candidate, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
		if err == nil {
			return file, candidate, nil
		}

		if !errors.Is(err, fs.ErrPermission) || attempt >= fm.MaxAlternateNames {
			return nil, "", &ResourceError{Op: "write", Path: candidate, Err: err}
		}

		candidate = AlternateName(path, attempt+1)
	}
}

// AlternateName inserts a "(n)" counter before the file extension.
//
// EXAMPLE:
//   AlternateName("out/TeamReport.csv", 2) -> "out/TeamReport(2).csv"
func AlternateName(path string, n int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s(%d)%s", strings.TrimSuffix(path, ext), n, ext)
}

// =============================================================================
// RUN SUMMARY
// =============================================================================

// RunSummary contains summary information about a report run.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time

	TeamMapFile       string
	ProductMasterFile string
	SalesFile         string
	TeamReportFile    string
	ProductReportFile string

	SalesProcessed int
	Teams          int
	Products       int

	// Money totals are pre-formatted by the caller.
	TotalRevenue      string
	TotalDiscountCost string
}

// WriteSummaryLog writes a run summary to a text file in outputDir.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary RunSummary, outputDir string) (string, error) {
	timestamp := summary.StartTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("run_summary_%s_%s.txt", timestamp, shortID(summary.RunID)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", &ResourceError{Op: "write", Path: summaryPath, Err: err}
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "Sales Report Generator - Run Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Inputs:\n"+
		"  Team Map:       %s\n"+
		"  Product Master: %s\n"+
		"  Sales:          %s\n\n"+
		"Outputs:\n"+
		"  Team Report:    %s\n"+
		"  Product Report: %s\n\n"+
		"Statistics:\n"+
		"  Sales Processed:     %d\n"+
		"  Teams:               %d\n"+
		"  Products:            %d\n"+
		"  Total Gross Revenue: %s\n"+
		"  Total Discount Cost: %s\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.TeamMapFile,
		summary.ProductMasterFile,
		summary.SalesFile,
		summary.TeamReportFile,
		summary.ProductReportFile,
		summary.SalesProcessed,
		summary.Teams,
		summary.Products,
		summary.TotalRevenue,
		summary.TotalDiscountCost)

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
