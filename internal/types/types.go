// =============================================================================
// Sales Report Generator - Shared Types
// =============================================================================
//
// This package contains the data model shared by the loaders, the aggregation
// engine, the validation scan and the report writers. Keeping it in its own
// package avoids import cycles between those modules.
//
// MONEY:
//   Every monetary value is a decimal.Decimal. Binary floating point is never
//   used for prices, revenue or discounts.
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// REFERENCE DATA
// =============================================================================

// TeamDirectory maps a team identifier to its display name.
type TeamDirectory map[int]string

// Product is one entry of the product catalog.
type Product struct {
	// Name is the display name. Reports are keyed by this value.
	Name string

	// UnitPrice is the price of a single unit.
	UnitPrice decimal.Decimal

	// LotSize is the number of units in one sellable lot. Always positive.
	LotSize int
}

// ProductCatalog maps a product identifier to its catalog entry.
type ProductCatalog map[int]Product

// =============================================================================
// TRANSACTIONS
// =============================================================================

// Sale is a single transaction from the sales file.
type Sale struct {
	// ID is the sale identifier from the first column. It is carried for
	// diagnostics only and plays no part in aggregation.
	ID int

	ProductID int
	TeamID    int
	LotsSold  int

	// DiscountPercent is a percentage, so 10 means 10%.
	DiscountPercent decimal.Decimal
}

// =============================================================================
// ACCUMULATORS
// =============================================================================

// ProductSaleData accumulates the totals for one product name.
type ProductSaleData struct {
	GrossRevenue decimal.Decimal
	TotalUnits   int
	DiscountCost decimal.Decimal
}

// TeamRevenue accumulates gross revenue per team name.
// Names are remembered in the order they were first accumulated so writers
// can break revenue ties deterministically.
type TeamRevenue struct {
	names   []string
	revenue map[string]decimal.Decimal
}

// NewTeamRevenue returns an empty team accumulator.
func NewTeamRevenue() *TeamRevenue {
	return &TeamRevenue{revenue: make(map[string]decimal.Decimal)}
}

// Add adds amount to the named team, creating the entry on first sight.
func (r *TeamRevenue) Add(name string, amount decimal.Decimal) {
	current, ok := r.revenue[name]
	if !ok {
		r.names = append(r.names, name)
		r.revenue[name] = amount
		return
	}
	r.revenue[name] = current.Add(amount)
}

// Get returns the accumulated revenue for a team name.
func (r *TeamRevenue) Get(name string) (decimal.Decimal, bool) {
	v, ok := r.revenue[name]
	return v, ok
}

// Names returns team names in first-accumulated order.
func (r *TeamRevenue) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of distinct team names.
func (r *TeamRevenue) Len() int {
	return len(r.names)
}

// Total returns the sum of revenue over all teams.
func (r *TeamRevenue) Total() decimal.Decimal {
	total := decimal.Zero
	for _, name := range r.names {
		total = total.Add(r.revenue[name])
	}
	return total
}

// ProductReport accumulates ProductSaleData per product name, remembering
// first-accumulated order like TeamRevenue.
type ProductReport struct {
	names []string
	data  map[string]*ProductSaleData
}

// NewProductReport returns an empty product accumulator.
func NewProductReport() *ProductReport {
	return &ProductReport{data: make(map[string]*ProductSaleData)}
}

// Add folds one sale's figures into the named product's totals.
func (r *ProductReport) Add(name string, revenue decimal.Decimal, units int, discountCost decimal.Decimal) {
	entry, ok := r.data[name]
	if !ok {
		r.names = append(r.names, name)
		r.data[name] = &ProductSaleData{
			GrossRevenue: revenue,
			TotalUnits:   units,
			DiscountCost: discountCost,
		}
		return
	}
	entry.GrossRevenue = entry.GrossRevenue.Add(revenue)
	entry.TotalUnits += units
	entry.DiscountCost = entry.DiscountCost.Add(discountCost)
}

// Get returns a copy of the totals for a product name.
func (r *ProductReport) Get(name string) (ProductSaleData, bool) {
	entry, ok := r.data[name]
	if !ok {
		return ProductSaleData{}, false
	}
	return *entry, true
}

// Names returns product names in first-accumulated order.
func (r *ProductReport) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of distinct product names.
func (r *ProductReport) Len() int {
	return len(r.names)
}

// TotalRevenue returns the sum of gross revenue over all products.
func (r *ProductReport) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, name := range r.names {
		total = total.Add(r.data[name].GrossRevenue)
	}
	return total
}

// TotalDiscountCost returns the sum of discount cost over all products.
func (r *ProductReport) TotalDiscountCost() decimal.Decimal {
	total := decimal.Zero
	for _, name := range r.names {
		total = total.Add(r.data[name].DiscountCost)
	}
	return total
}
