// =============================================================================
// Sales Report Generator - Aggregation Engine
// =============================================================================
//
// This module joins each sale against the team map and the product master
// and accumulates the two report mappings:
//   - Team revenue:   team name    -> gross revenue
//   - Product report: product name -> gross revenue, units, discount cost
//
// PER SALE:
//   units_sold    = lots_sold * lot_size
//   revenue       = units_sold * unit_price
//   discount_cost = revenue * discount_percent / 100
//
// All arithmetic is exact decimal arithmetic.
//
// FAILURE MODES:
//   Sales are processed in input order and the first sale with an unknown
//   product or team id stops the run, as does a unit count too large for an
//   int. Nothing partial is ever returned.
//   - Strict (Aggregate):           the failure is returned as an error.
//   - Terminate (AggregateOrExit):  the failure is logged and the process exits.
//   Both modes share the same accumulation code.
//
// =============================================================================

package aggregator

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-report/internal/logging"
	"github.com/ginjaninja78/sales-report/internal/types"
)

// =============================================================================
// MODES
// =============================================================================

// Mode selects how an unresolved reference is surfaced to the caller.
type Mode int

const (
	// ModeStrict returns the failure as an error value.
	ModeStrict Mode = iota

	// ModeTerminate logs the failure and exits the process.
	ModeTerminate
)

// String returns the config spelling of the mode.
func (m Mode) String() string {
	switch m {
	case ModeStrict:
		return "error"
	case ModeTerminate:
		return "terminate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode parses the on_unresolved config value.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "strict":
		return ModeStrict, nil
	case "terminate", "exit":
		return ModeTerminate, nil
	default:
		return ModeStrict, fmt.Errorf("unknown unresolved-reference mode %q (want error or terminate)", s)
	}
}

// =============================================================================
// ERRORS
// =============================================================================

// ProductNotFoundError is returned when a sale references an unknown product id.
type ProductNotFoundError struct {
	ProductID int

	// SaleID and Index identify the offending sale (Index is 0-based).
	SaleID int
	Index  int
}

// Error implements the error interface.
func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product ID %d not found in product master (sale %d)", e.ProductID, e.SaleID)
}

// TeamNotFoundError is returned when a sale references an unknown team id.
type TeamNotFoundError struct {
	TeamID int

	SaleID int
	Index  int
}

// Error implements the error interface.
func (e *TeamNotFoundError) Error() string {
	return fmt.Sprintf("team ID %d not found in team map (sale %d)", e.TeamID, e.SaleID)
}

// UnitsOverflowError is returned when a sale's unit count, or a product's
// running unit total, does not fit in an int.
type UnitsOverflowError struct {
	ProductName string

	SaleID int
	Index  int
}

// Error implements the error interface.
func (e *UnitsOverflowError) Error() string {
	return fmt.Sprintf("unit count for product %q overflows (sale %d)", e.ProductName, e.SaleID)
}

// =============================================================================
// RESULT
// =============================================================================

// Result holds the two accumulated reports of a successful run.
type Result struct {
	Teams    *types.TeamRevenue
	Products *types.ProductReport

	// SalesProcessed is the number of sales folded into the reports.
	SalesProcessed int
}

// =============================================================================
// ENGINE
// =============================================================================

// Aggregate folds every sale into the team and product reports (strict mode).
//
// PARAMETERS:
//   - teams: Team id -> team name.
//   - catalog: Product id -> product.
//   - sales: Sales in input order.
//
// RETURNS:
//   - The complete reports, or nil if any sale failed to resolve.
//   - A *ProductNotFoundError or *TeamNotFoundError for the first bad sale,
//     or a *UnitsOverflowError when a unit count does not fit in an int.
func Aggregate(teams types.TeamDirectory, catalog types.ProductCatalog, sales []types.Sale) (*Result, error) {
	teamReport := types.NewTeamRevenue()
	productReport := types.NewProductReport()

	for i, sale := range sales {
		product, ok := catalog[sale.ProductID]
		if !ok {
			return nil, &ProductNotFoundError{ProductID: sale.ProductID, SaleID: sale.ID, Index: i}
		}

		teamName, ok := teams[sale.TeamID]
		if !ok {
			return nil, &TeamNotFoundError{TeamID: sale.TeamID, SaleID: sale.ID, Index: i}
		}

		units, revenue, discountCost, ok := lineTotals(product, sale)
		if !ok {
			return nil, &UnitsOverflowError{ProductName: product.Name, SaleID: sale.ID, Index: i}
		}
		current, _ := productReport.Get(product.Name)
		if _, ok := addInt(current.TotalUnits, units); !ok {
			return nil, &UnitsOverflowError{ProductName: product.Name, SaleID: sale.ID, Index: i}
		}

		teamReport.Add(teamName, revenue)
		productReport.Add(product.Name, revenue, units, discountCost)
	}

	return &Result{
		Teams:          teamReport,
		Products:       productReport,
		SalesProcessed: len(sales),
	}, nil
}

// lineTotals computes the derived quantities for one sale. ok is false when
// the unit count overflows int.
//
// The discount percentage is applied with a decimal shift, which never rounds.
func lineTotals(product types.Product, sale types.Sale) (units int, revenue, discountCost decimal.Decimal, ok bool) {
	units, ok = mulInt(sale.LotsSold, product.LotSize)
	if !ok {
		return 0, decimal.Zero, decimal.Zero, false
	}
	revenue = decimal.NewFromInt(int64(sale.LotsSold)).
		Mul(decimal.NewFromInt(int64(product.LotSize))).
		Mul(product.UnitPrice)
	discountCost = revenue.Mul(sale.DiscountPercent).Shift(-2)
	return units, revenue, discountCost, true
}

func mulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a || (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) {
		return 0, false
	}
	return c, true
}

func addInt(a, b int) (int, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}

// =============================================================================
// MODE ADAPTERS
// =============================================================================

// ErrTerminated is returned by Run in terminate mode if the process did not
// exit after a failure.
var ErrTerminated = errors.New("aggregation terminated")

// exit is os.Exit outside of tests.
var exit = os.Exit

// AggregateOrExit runs Aggregate in terminate mode: on failure it logs the
// diagnostic and exits with status 1. It returns nil only if exit returns,
// which happens only in tests.
func AggregateOrExit(teams types.TeamDirectory, catalog types.ProductCatalog, sales []types.Sale, log *logging.Logger) *Result {
	if log == nil {
		log = logging.Discard()
	}

	result, err := Aggregate(teams, catalog, sales)
	if err != nil {
		log.Error("aggregation stopped", "error", err)
		exit(1)
		return nil
	}
	return result
}

// Run aggregates using the given mode.
func Run(mode Mode, teams types.TeamDirectory, catalog types.ProductCatalog, sales []types.Sale, log *logging.Logger) (*Result, error) {
	if mode == ModeTerminate {
		result := AggregateOrExit(teams, catalog, sales, log)
		if result == nil {
			return nil, ErrTerminated
		}
		return result, nil
	}
	return Aggregate(teams, catalog, sales)
}
