// =============================================================================
// Sales Report Generator - Report Writer Module
// =============================================================================
//
// This module turns the accumulated reports into output files:
//   - Team report:    Team, GrossRevenue
//   - Product report: Name, GrossRevenue, TotalUnits, DiscountCost
//
// ROW ORDER:
//   Rows are sorted by the decimal gross revenue, highest first. The sort is
//   stable over first-accumulated order, so equal revenues keep the order in
//   which their names were first seen.
//
// FORMATS:
//   - csv:  money rendered with exactly two decimals (rounded half away from zero)
//   - xlsx: money stored as numbers with a 0.00 number format
//
// =============================================================================

package reportwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/sales-report/internal/logging"
	"github.com/ginjaninja78/sales-report/internal/types"
	"github.com/ginjaninja78/sales-report/pkg/utils"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format is an output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates an output_format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv or xlsx)", s)
	}
}

// Extension returns the file extension for the format, with the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// =============================================================================
// TABLES
// =============================================================================

// Report headers.
var (
	TeamHeader    = []string{"Team", "GrossRevenue"}
	ProductHeader = []string{"Name", "GrossRevenue", "TotalUnits", "DiscountCost"}
)

// Table is a rendered-agnostic report: cells are string, int or decimal.Decimal.
type Table struct {
	// Sheet is the worksheet name used by the XLSX renderer.
	Sheet  string
	Header []string
	Rows   [][]any
}

// TeamTable builds the sorted team report table.
func TeamTable(report *types.TeamRevenue) Table {
	names := report.Names()
	sort.SliceStable(names, func(i, j int) bool {
		a, _ := report.Get(names[i])
		b, _ := report.Get(names[j])
		return a.GreaterThan(b)
	})

	rows := make([][]any, 0, len(names))
	for _, name := range names {
		revenue, _ := report.Get(name)
		rows = append(rows, []any{name, revenue})
	}

	return Table{Sheet: "Team Report", Header: TeamHeader, Rows: rows}
}

// ProductTable builds the sorted product report table.
func ProductTable(report *types.ProductReport) Table {
	names := report.Names()
	sort.SliceStable(names, func(i, j int) bool {
		a, _ := report.Get(names[i])
		b, _ := report.Get(names[j])
		return a.GrossRevenue.GreaterThan(b.GrossRevenue)
	})

	rows := make([][]any, 0, len(names))
	for _, name := range names {
		data, _ := report.Get(name)
		rows = append(rows, []any{name, data.GrossRevenue, data.TotalUnits, data.DiscountCost})
	}

	return Table{Sheet: "Product Report", Header: ProductHeader, Rows: rows}
}

// Strings renders the table, header first, as text rows.
func (t Table) Strings() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Header...))
	for _, row := range t.Rows {
		line := make([]string, len(row))
		for i, cell := range row {
			line[i] = formatCell(cell)
		}
		out = append(out, line)
	}
	return out
}

// TeamRows returns the header-prefixed, sorted team report as text.
func TeamRows(report *types.TeamRevenue) [][]string {
	return TeamTable(report).Strings()
}

// ProductRows returns the header-prefixed, sorted product report as text.
func ProductRows(report *types.ProductReport) [][]string {
	return ProductTable(report).Strings()
}

// FormatMoney renders a monetary value with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case decimal.Decimal:
		return FormatMoney(v)
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// =============================================================================
// WRITER
// =============================================================================

// OutputCreator opens report files. *utils.FileManager implements it.
type OutputCreator interface {
	CreateOutput(path string) (*os.File, string, error)
}

// Writer writes report tables to files.
type Writer struct {
	format Format
	files  OutputCreator
	log    *logging.Logger
}

// New creates a Writer for the given format.
func New(format Format, files OutputCreator, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.Discard()
	}
	return &Writer{format: format, files: files, log: log}
}

// WriteTeamReport writes the team report and returns the path written.
func (w *Writer) WriteTeamReport(path string, report *types.TeamRevenue) (string, error) {
	return w.WriteTable(path, TeamTable(report))
}

// WriteProductReport writes the product report and returns the path written.
func (w *Writer) WriteProductReport(path string, report *types.ProductReport) (string, error) {
	return w.WriteTable(path, ProductTable(report))
}

// WriteTable writes one table to path, switching the extension to match the
// writer's format. The file is closed on every return path.
//
// RETURNS:
//   - The path actually written, which differs from path when the target was
//     locked and an alternate name was used.
//   - An error if the file cannot be opened or written.
func (w *Writer) WriteTable(path string, table Table) (written string, err error) {
	path = withExtension(path, w.format)

	file, written, err := w.files.CreateOutput(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = &utils.ResourceError{Op: "close", Path: written, Err: cerr}
		}
	}()

	switch w.format {
	case FormatXLSX:
		err = renderXLSX(file, table)
	default:
		err = renderCSV(file, table)
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", written, err)
	}

	if written != path {
		w.log.Warn("output file unavailable, wrote alternate file", "requested", path, "written", written)
	}

	return written, nil
}

func withExtension(path string, format Format) string {
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, format.Extension()) {
		return path
	}
	return strings.TrimSuffix(path, ext) + format.Extension()
}

// =============================================================================
// RENDERERS
// =============================================================================

func renderCSV(w io.Writer, table Table) error {
	csvWriter := csv.NewWriter(w)
	return csvWriter.WriteAll(table.Strings())
}

// moneyNumFmt is the built-in "0.00" number format.
const moneyNumFmt = 2

func renderXLSX(w io.Writer, table Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := table.Sheet
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: moneyNumFmt})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	header := make([]interface{}, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(row))
		for c, cell := range row {
			if d, ok := cell.(decimal.Decimal); ok {
				values[c] = d.Round(2).InexactFloat64()
				name, err := excelize.CoordinatesToCellName(c+1, r+2)
				if err != nil {
					return err
				}
				if err := f.SetCellStyle(sheet, name, name, moneyStyle); err != nil {
					return fmt.Errorf("failed to style %s: %w", name, err)
				}
				continue
			}
			values[c] = cell
		}

		start, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	return f.Write(w)
}
