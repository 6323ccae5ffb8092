// =============================================================================
// Sales Report Generator - CSV Loader Module
// =============================================================================
//
// This module reads the three input tables and turns their rows into typed
// reference data and sale records:
//   - Team map:       header row, then (id, name)
//   - Product master: no header, (id, name, unit_price, lot_size)
//   - Sales:          no header, (sale_id, product_id, team_id, lots_sold, discount)
//
// ERROR HANDLING:
//   Any row with the wrong number of fields or a non-numeric value in a
//   numeric column yields a *ParseError. Loading stops at the first bad row;
//   no value is ever silently defaulted. Aggregation never sees such rows.
//
// WHITESPACE:
//   Numeric fields are trimmed before parsing. Name fields are kept exactly
//   as written because reports merge rows by exact name.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-report/internal/types"
	"github.com/ginjaninja78/sales-report/pkg/utils"
)

// =============================================================================
// TABLE NAMES
// =============================================================================

// Table names used in error messages and log attributes.
const (
	TableTeamMap       = "team map"
	TableProductMaster = "product master"
	TableSales         = "sales"
)

// Expected field counts per table.
const (
	teamFields    = 2
	productFields = 4
	saleFields    = 5
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrWrongFieldCount is wrapped by a ParseError when a row has the wrong arity.
	ErrWrongFieldCount = errors.New("wrong number of fields")

	// ErrInvalidLotSize is wrapped by a ParseError when a lot size is not positive.
	ErrInvalidLotSize = errors.New("lot size must be a positive integer")
)

// ParseError is a structural problem in one row of an input table.
type ParseError struct {
	// Table is one of the Table* constants.
	Table string

	// Row is the 1-based record number within the file, header included.
	Row int

	// Column is the name of the offending column. Empty for arity errors.
	Column string

	// Value is the raw field value that failed to parse.
	Value string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s row %d: %v", e.Table, e.Row, e.Err)
	}
	return fmt.Sprintf("%s row %d, column %s: invalid value %q: %v", e.Table, e.Row, e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// FILE READING
// =============================================================================

// utf8BOM is stripped from the start of a file; spreadsheet exports often carry it.
const utf8BOM = "\ufeff"

// ReadRows reads every record of a CSV file into memory.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//
// RETURNS:
//   - The records in file order. Blank lines are skipped.
//   - A *utils.ResourceError if the file cannot be opened, or a wrapped
//     encoding/csv error if the file is not valid CSV.
func ReadRows(filePath string) ([][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, &utils.ResourceError{Op: "open", Path: filePath, Err: err}
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if prefix, err := reader.Peek(len(utf8BOM)); err == nil && string(prefix) == utf8BOM {
		if _, err := reader.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("failed to skip byte order mark: %w", err)
		}
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV %s: %w", filePath, err)
	}

	return rows, nil
}

// configureReader sets the reader options shared by all input tables.
func configureReader(reader *csv.Reader) {
	reader.Comma = ','

	// Arity is checked per table so the error names the table and row.
	reader.FieldsPerRecord = -1

	reader.LazyQuotes = true
}

// =============================================================================
// TABLE LOADERS
// =============================================================================

// LoadTeamDirectory builds the team lookup from team map rows.
// The first row is a header and is skipped. A later row with a repeated id
// replaces the earlier one.
func LoadTeamDirectory(rows [][]string) (types.TeamDirectory, error) {
	teams := make(types.TeamDirectory)
	if len(rows) == 0 {
		return teams, nil
	}

	for i, row := range rows[1:] {
		rowNum := i + 2
		if err := checkArity(TableTeamMap, rowNum, row, teamFields); err != nil {
			return nil, err
		}

		id, err := parseInt(TableTeamMap, rowNum, "team_id", row[0])
		if err != nil {
			return nil, err
		}

		teams[id] = row[1]
	}

	return teams, nil
}

// LoadProductCatalog builds the product lookup from product master rows.
// There is no header row.
func LoadProductCatalog(rows [][]string) (types.ProductCatalog, error) {
	catalog := make(types.ProductCatalog, len(rows))

	for i, row := range rows {
		rowNum := i + 1
		if err := checkArity(TableProductMaster, rowNum, row, productFields); err != nil {
			return nil, err
		}

		id, err := parseInt(TableProductMaster, rowNum, "product_id", row[0])
		if err != nil {
			return nil, err
		}

		price, err := parseDecimal(TableProductMaster, rowNum, "unit_price", row[2])
		if err != nil {
			return nil, err
		}

		lotSize, err := parseInt(TableProductMaster, rowNum, "lot_size", row[3])
		if err != nil {
			return nil, err
		}
		if lotSize <= 0 {
			return nil, &ParseError{
				Table:  TableProductMaster,
				Row:    rowNum,
				Column: "lot_size",
				Value:  row[3],
				Err:    ErrInvalidLotSize,
			}
		}

		catalog[id] = types.Product{
			Name:      row[1],
			UnitPrice: price,
			LotSize:   lotSize,
		}
	}

	return catalog, nil
}

// LoadSales converts sales rows into Sale records, preserving file order.
// There is no header row.
func LoadSales(rows [][]string) ([]types.Sale, error) {
	sales := make([]types.Sale, 0, len(rows))

	for i, row := range rows {
		rowNum := i + 1
		if err := checkArity(TableSales, rowNum, row, saleFields); err != nil {
			return nil, err
		}

		var (
			sale types.Sale
			err  error
		)

		if sale.ID, err = parseInt(TableSales, rowNum, "sale_id", row[0]); err != nil {
			return nil, err
		}
		if sale.ProductID, err = parseInt(TableSales, rowNum, "product_id", row[1]); err != nil {
			return nil, err
		}
		if sale.TeamID, err = parseInt(TableSales, rowNum, "team_id", row[2]); err != nil {
			return nil, err
		}
		if sale.LotsSold, err = parseInt(TableSales, rowNum, "lots_sold", row[3]); err != nil {
			return nil, err
		}
		if sale.DiscountPercent, err = parseDecimal(TableSales, rowNum, "discount", row[4]); err != nil {
			return nil, err
		}

		sales = append(sales, sale)
	}

	return sales, nil
}

// =============================================================================
// FIELD HELPERS
// =============================================================================

func checkArity(table string, rowNum int, row []string, want int) error {
	if len(row) == want {
		return nil
	}
	return &ParseError{
		Table: table,
		Row:   rowNum,
		Err:   fmt.Errorf("%w: expected %d, got %d", ErrWrongFieldCount, want, len(row)),
	}
}

func parseInt(table string, rowNum int, column, raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, &ParseError{Table: table, Row: rowNum, Column: column, Value: raw, Err: err}
	}
	return v, nil
}

func parseDecimal(table string, rowNum int, column, raw string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, &ParseError{Table: table, Row: rowNum, Column: column, Value: raw, Err: err}
	}
	return v, nil
}
