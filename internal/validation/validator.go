// =============================================================================
// Sales Report Generator - Validation Scan
// =============================================================================
//
// This module checks loaded input tables for problems without producing any
// report. Unlike the aggregation engine, which stops at the first unresolved
// reference, the scan visits every sale so an operator can fix the whole
// input in one pass.
//
// SEVERITIES:
//   - error:   the sale references a product or team id that does not exist.
//              Aggregation would stop at this sale.
//   - warning: the sale is accepted by aggregation but looks suspicious
//              (discount outside 0-100, non-positive lots sold).
//
// =============================================================================

package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-report/internal/types"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Issue is a single finding about one sale.
type Issue struct {
	// Severity is SeverityError or SeverityWarning.
	Severity string

	// Row is the 1-based row number in the sales file.
	Row int

	// SaleID is the sale identifier from that row.
	SaleID int

	// Field is the sales column the finding is about.
	Field string

	// Value is the offending value as text.
	Value string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	return fmt.Sprintf("[%s] sales row %d (sale %d), field '%s': %s (value: '%s')",
		strings.ToUpper(i.Severity),
		i.Row,
		i.SaleID,
		i.Field,
		i.Message,
		i.Value,
	)
}

// Result contains the findings of a scan.
type Result struct {
	// IsValid is true if there are no errors. Warnings do not affect it.
	IsValid bool

	Issues []*Issue

	ErrorCount   int
	WarningCount int

	// SalesChecked is the number of sales visited.
	SalesChecked int
}

func (r *Result) add(issue *Issue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// SCAN
// =============================================================================

var (
	minDiscount = decimal.Zero
	maxDiscount = decimal.NewFromInt(100)
)

// CheckReferences visits every sale and records unresolved ids and suspicious
// values.
func CheckReferences(teams types.TeamDirectory, catalog types.ProductCatalog, sales []types.Sale) *Result {
	result := &Result{IsValid: true, SalesChecked: len(sales)}

	for i, sale := range sales {
		row := i + 1

		if _, ok := catalog[sale.ProductID]; !ok {
			result.add(&Issue{
				Severity: SeverityError,
				Row:      row,
				SaleID:   sale.ID,
				Field:    "product_id",
				Value:    strconv.Itoa(sale.ProductID),
				Message:  "product ID not found in product master",
			})
		}

		if _, ok := teams[sale.TeamID]; !ok {
			result.add(&Issue{
				Severity: SeverityError,
				Row:      row,
				SaleID:   sale.ID,
				Field:    "team_id",
				Value:    strconv.Itoa(sale.TeamID),
				Message:  "team ID not found in team map",
			})
		}

		if sale.LotsSold <= 0 {
			result.add(&Issue{
				Severity: SeverityWarning,
				Row:      row,
				SaleID:   sale.ID,
				Field:    "lots_sold",
				Value:    strconv.Itoa(sale.LotsSold),
				Message:  "lots sold is not positive",
			})
		}

		if sale.DiscountPercent.LessThan(minDiscount) || sale.DiscountPercent.GreaterThan(maxDiscount) {
			result.add(&Issue{
				Severity: SeverityWarning,
				Row:      row,
				SaleID:   sale.ID,
				Field:    "discount",
				Value:    sale.DiscountPercent.String(),
				Message:  "discount is outside 0-100 percent",
			})
		}
	}

	return result
}

// =============================================================================
// REPORTING
// =============================================================================

// FormatIssues renders issues one per line, errors first.
func FormatIssues(issues []*Issue) string {
	if len(issues) == 0 {
		return "No issues found.\n"
	}

	var sb strings.Builder
	for _, severity := range []string{SeverityError, SeverityWarning} {
		for _, issue := range issues {
			if issue.Severity == severity {
				sb.WriteString(issue.Error())
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
