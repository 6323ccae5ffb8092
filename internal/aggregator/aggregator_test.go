package aggregator

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/sales-report/internal/logging"
	"github.com/ginjaninja78/sales-report/internal/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleTeams() types.TeamDirectory {
	return types.TeamDirectory{1: "Team A", 2: "Team B", 3: "Team C"}
}

func sampleCatalog() types.ProductCatalog {
	return types.ProductCatalog{
		1: {Name: "A", UnitPrice: dec("35.50"), LotSize: 10},
		2: {Name: "B", UnitPrice: dec("45.21"), LotSize: 1},
		3: {Name: "C", UnitPrice: dec("9.87"), LotSize: 35},
	}
}

func sampleSales() []types.Sale {
	return []types.Sale{
		{ID: 1, ProductID: 1, TeamID: 2, LotsSold: 5, DiscountPercent: dec("0")},
		{ID: 2, ProductID: 1, TeamID: 1, LotsSold: 1, DiscountPercent: dec("5")},
		{ID: 3, ProductID: 2, TeamID: 2, LotsSold: 20, DiscountPercent: dec("10")},
		{ID: 4, ProductID: 3, TeamID: 1, LotsSold: 10, DiscountPercent: dec("100")},
		{ID: 5, ProductID: 3, TeamID: 3, LotsSold: 40, DiscountPercent: dec("2")},
	}
}

func assertTeam(t *testing.T, r *types.TeamRevenue, name, want string) {
	t.Helper()
	got, ok := r.Get(name)
	if !ok {
		t.Fatalf("team %q missing", name)
	}
	if !got.Equal(dec(want)) {
		t.Errorf("team %q revenue: expected %s, got %s", name, want, got)
	}
}

func TestAggregateEndToEnd(t *testing.T) {
	res, err := Aggregate(sampleTeams(), sampleCatalog(), sampleSales())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.SalesProcessed != 5 {
		t.Errorf("expected 5 sales processed, got %d", res.SalesProcessed)
	}

	assertTeam(t, res.Teams, "Team A", "3809.50")
	assertTeam(t, res.Teams, "Team B", "2679.20")
	assertTeam(t, res.Teams, "Team C", "13818.00")

	want := map[string]struct {
		revenue  string
		units    int
		discount string
	}{
		"A": {"2130.00", 60, "17.75"},
		"B": {"904.20", 20, "90.42"},
		"C": {"17272.50", 1750, "3730.86"},
	}
	for name, w := range want {
		got, ok := res.Products.Get(name)
		if !ok {
			t.Fatalf("product %q missing", name)
		}
		if !got.GrossRevenue.Equal(dec(w.revenue)) {
			t.Errorf("product %q revenue: expected %s, got %s", name, w.revenue, got.GrossRevenue)
		}
		if got.TotalUnits != w.units {
			t.Errorf("product %q units: expected %d, got %d", name, w.units, got.TotalUnits)
		}
		if !got.DiscountCost.Equal(dec(w.discount)) {
			t.Errorf("product %q discount: expected %s, got %s", name, w.discount, got.DiscountCost)
		}
	}
}

func TestMonetaryExactness(t *testing.T) {
	catalog := types.ProductCatalog{1: {Name: "A", UnitPrice: dec("35.50"), LotSize: 10}}
	teams := types.TeamDirectory{1: "Team A"}
	sales := []types.Sale{{ID: 1, ProductID: 1, TeamID: 1, LotsSold: 1, DiscountPercent: dec("5")}}

	res, err := Aggregate(teams, catalog, sales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := res.Products.Get("A")
	if got.TotalUnits != 10 {
		t.Errorf("units: expected 10, got %d", got.TotalUnits)
	}
	if got.GrossRevenue.String() != "355" {
		t.Errorf("revenue: expected exactly 355, got %s", got.GrossRevenue)
	}
	if got.DiscountCost.String() != "17.75" {
		t.Errorf("discount: expected exactly 17.75, got %s", got.DiscountCost)
	}
}

func TestDiscountCostKeepsFullScale(t *testing.T) {
	catalog := types.ProductCatalog{1: {Name: "Tiny", UnitPrice: dec("0.0000000000001"), LotSize: 1}}
	teams := types.TeamDirectory{1: "Team A"}
	sales := []types.Sale{{ID: 1, ProductID: 1, TeamID: 1, LotsSold: 1, DiscountPercent: dec("33.333")}}

	res, err := Aggregate(teams, catalog, sales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := res.Products.Get("Tiny")
	want := dec("0.000000000000033333")
	if !got.DiscountCost.Equal(want) {
		t.Errorf("discount: expected exactly %s, got %s", want, got.DiscountCost)
	}
}

func TestUnitOverflowIsRejected(t *testing.T) {
	teams := types.TeamDirectory{1: "Team A"}

	t.Run("single sale", func(t *testing.T) {
		catalog := types.ProductCatalog{1: {Name: "Bulk", UnitPrice: dec("1"), LotSize: 4}}
		sales := []types.Sale{{ID: 7, ProductID: 1, TeamID: 1, LotsSold: math.MaxInt/2 + 1, DiscountPercent: dec("0")}}

		res, err := Aggregate(teams, catalog, sales)
		var overflow *UnitsOverflowError
		if !errors.As(err, &overflow) {
			t.Fatalf("expected UnitsOverflowError, got %v", err)
		}
		if res != nil || overflow.SaleID != 7 || overflow.ProductName != "Bulk" {
			t.Errorf("unexpected result %v / error %+v", res, overflow)
		}
	})

	t.Run("running total", func(t *testing.T) {
		catalog := types.ProductCatalog{1: {Name: "Bulk", UnitPrice: dec("1"), LotSize: 1}}
		half := math.MaxInt/2 + 1
		sales := []types.Sale{
			{ID: 1, ProductID: 1, TeamID: 1, LotsSold: half, DiscountPercent: dec("0")},
			{ID: 2, ProductID: 1, TeamID: 1, LotsSold: half, DiscountPercent: dec("0")},
		}

		_, err := Aggregate(teams, catalog, sales)
		var overflow *UnitsOverflowError
		if !errors.As(err, &overflow) {
			t.Fatalf("expected UnitsOverflowError, got %v", err)
		}
		if overflow.Index != 1 {
			t.Errorf("expected failure at index 1, got %d", overflow.Index)
		}
	})
}

func TestMulIntAndAddInt(t *testing.T) {
	if v, ok := mulInt(-3, 5); !ok || v != -15 {
		t.Errorf("mulInt(-3, 5) = %d, %v", v, ok)
	}
	if _, ok := mulInt(math.MinInt, -1); ok {
		t.Error("mulInt(MinInt, -1) should overflow")
	}
	if _, ok := addInt(math.MaxInt, 1); ok {
		t.Error("addInt(MaxInt, 1) should overflow")
	}
	if v, ok := addInt(math.MinInt, math.MaxInt); !ok || v != -1 {
		t.Errorf("addInt(MinInt, MaxInt) = %d, %v", v, ok)
	}
}

func TestRepeatedSmallAmountsDoNotDrift(t *testing.T) {
	catalog := types.ProductCatalog{1: {Name: "Penny", UnitPrice: dec("0.10"), LotSize: 1}}
	teams := types.TeamDirectory{1: "Team A"}

	sales := make([]types.Sale, 1000)
	for i := range sales {
		sales[i] = types.Sale{ID: i, ProductID: 1, TeamID: 1, LotsSold: 1, DiscountPercent: dec("0")}
	}

	res, err := Aggregate(teams, catalog, sales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTeam(t, res.Teams, "Team A", "100")
}

func TestMergeByTeamName(t *testing.T) {
	teams := types.TeamDirectory{1: "Sales", 2: "Sales", 3: "sales"}
	catalog := types.ProductCatalog{1: {Name: "A", UnitPrice: dec("1.00"), LotSize: 1}}
	sales := []types.Sale{
		{ID: 1, ProductID: 1, TeamID: 1, LotsSold: 3, DiscountPercent: dec("0")},
		{ID: 2, ProductID: 1, TeamID: 2, LotsSold: 4, DiscountPercent: dec("0")},
		{ID: 3, ProductID: 1, TeamID: 3, LotsSold: 5, DiscountPercent: dec("0")},
	}

	res, err := Aggregate(teams, catalog, sales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Teams.Len() != 2 {
		t.Fatalf("expected 2 team rows (exact-name merge), got %d", res.Teams.Len())
	}
	assertTeam(t, res.Teams, "Sales", "7")
	assertTeam(t, res.Teams, "sales", "5")
}

func TestFailFastOnUnknownProduct(t *testing.T) {
	sales := sampleSales()
	sales[1].ProductID = 99

	res, err := Aggregate(sampleTeams(), sampleCatalog(), sales)
	if res != nil {
		t.Error("no result expected on failure")
	}

	var notFound *ProductNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
	if notFound.ProductID != 99 || notFound.Index != 1 || notFound.SaleID != 2 {
		t.Errorf("unexpected error details: %+v", notFound)
	}
}

func TestFailFastOnUnknownTeam(t *testing.T) {
	sales := sampleSales()
	sales[3].TeamID = 42
	sales[4].ProductID = 77

	res, err := Aggregate(sampleTeams(), sampleCatalog(), sales)
	if res != nil {
		t.Error("no result expected on failure")
	}

	var notFound *TeamNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected TeamNotFoundError for the first bad sale, got %v", err)
	}
	if notFound.TeamID != 42 {
		t.Errorf("expected team 42, got %d", notFound.TeamID)
	}
}

func TestProductCheckedBeforeTeam(t *testing.T) {
	sales := []types.Sale{{ID: 1, ProductID: 99, TeamID: 99, LotsSold: 1, DiscountPercent: dec("0")}}

	_, err := Aggregate(sampleTeams(), sampleCatalog(), sales)
	var notFound *ProductNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ProductNotFoundError, got %v", err)
	}
}

func TestEmptyTeamNameIsStillFound(t *testing.T) {
	teams := types.TeamDirectory{1: ""}
	catalog := types.ProductCatalog{1: {Name: "A", UnitPrice: dec("2"), LotSize: 1}}
	sales := []types.Sale{{ID: 1, ProductID: 1, TeamID: 1, LotsSold: 1, DiscountPercent: dec("0")}}

	res, err := Aggregate(teams, catalog, sales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertTeam(t, res.Teams, "", "2")
}

func TestOrderIndependence(t *testing.T) {
	base, err := Aggregate(sampleTeams(), sampleCatalog(), sampleSales())
	if err != nil {
		t.Fatal(err)
	}

	sales := sampleSales()
	orders := [][]int{
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
		{1, 4, 0, 3, 2},
		{3, 1, 2, 4, 0},
	}

	for _, order := range orders {
		permuted := make([]types.Sale, len(order))
		for i, idx := range order {
			permuted[i] = sales[idx]
		}

		res, err := Aggregate(sampleTeams(), sampleCatalog(), permuted)
		if err != nil {
			t.Fatalf("order %v: unexpected error: %v", order, err)
		}

		for _, name := range base.Teams.Names() {
			want, _ := base.Teams.Get(name)
			got, ok := res.Teams.Get(name)
			if !ok || !got.Equal(want) {
				t.Errorf("order %v: team %q expected %s, got %s", order, name, want, got)
			}
		}
		for _, name := range base.Products.Names() {
			want, _ := base.Products.Get(name)
			got, ok := res.Products.Get(name)
			if !ok || !got.GrossRevenue.Equal(want.GrossRevenue) || got.TotalUnits != want.TotalUnits || !got.DiscountCost.Equal(want.DiscountCost) {
				t.Errorf("order %v: product %q expected %+v, got %+v", order, name, want, got)
			}
		}
	}
}

func TestCrossTotalInvariant(t *testing.T) {
	res, err := Aggregate(sampleTeams(), sampleCatalog(), sampleSales())
	if err != nil {
		t.Fatal(err)
	}

	if !res.Teams.Total().Equal(res.Products.TotalRevenue()) {
		t.Errorf("team total %s != product total %s", res.Teams.Total(), res.Products.TotalRevenue())
	}
	if !res.Teams.Total().Equal(dec("20306.70")) {
		t.Errorf("expected grand total 20306.70, got %s", res.Teams.Total())
	}
}

func TestDiscountAboveHundredPassesThrough(t *testing.T) {
	catalog := types.ProductCatalog{1: {Name: "A", UnitPrice: dec("10"), LotSize: 1}}
	teams := types.TeamDirectory{1: "T"}
	sales := []types.Sale{{ID: 1, ProductID: 1, TeamID: 1, LotsSold: 1, DiscountPercent: dec("150")}}

	res, err := Aggregate(teams, catalog, sales)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := res.Products.Get("A")
	if !got.DiscountCost.Equal(dec("15")) {
		t.Errorf("expected discount cost 15, got %s", got.DiscountCost)
	}
	if !got.GrossRevenue.Equal(dec("10")) {
		t.Errorf("gross revenue must not be reduced by discount, got %s", got.GrossRevenue)
	}
}

func TestAggregateNoSales(t *testing.T) {
	res, err := Aggregate(sampleTeams(), sampleCatalog(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Teams.Len() != 0 || res.Products.Len() != 0 {
		t.Error("expected empty reports")
	}
}

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	orig := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = orig })
	return &code
}

func TestAggregateOrExitTerminates(t *testing.T) {
	code := stubExit(t)

	var buf bytes.Buffer
	log := logging.New(logging.Options{Output: &buf})

	sales := sampleSales()
	sales[2].TeamID = 8

	res := AggregateOrExit(sampleTeams(), sampleCatalog(), sales, log)
	if res != nil {
		t.Error("no result expected after termination")
	}
	if *code != 1 {
		t.Errorf("expected exit code 1, got %d", *code)
	}
	if !strings.Contains(buf.String(), "team ID 8 not found") {
		t.Errorf("expected diagnostic in log, got %q", buf.String())
	}
}

func TestAggregateOrExitNilLogger(t *testing.T) {
	code := stubExit(t)

	sales := sampleSales()
	sales[0].ProductID = 42

	if res := AggregateOrExit(sampleTeams(), sampleCatalog(), sales, nil); res != nil {
		t.Error("no result expected after termination")
	}
	if *code != 1 {
		t.Errorf("expected exit code 1, got %d", *code)
	}
}

func TestAggregateOrExitSuccessDoesNotExit(t *testing.T) {
	code := stubExit(t)

	res := AggregateOrExit(sampleTeams(), sampleCatalog(), sampleSales(), logging.Discard())
	if res == nil {
		t.Fatal("expected result")
	}
	if *code != -1 {
		t.Errorf("exit should not be called, got code %d", *code)
	}
}

func TestRunSelectsMode(t *testing.T) {
	sales := sampleSales()
	sales[0].ProductID = 500

	t.Run("strict", func(t *testing.T) {
		code := stubExit(t)
		_, err := Run(ModeStrict, sampleTeams(), sampleCatalog(), sales, logging.Discard())
		var notFound *ProductNotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("expected ProductNotFoundError, got %v", err)
		}
		if *code != -1 {
			t.Error("strict mode must not exit")
		}
	})

	t.Run("terminate", func(t *testing.T) {
		code := stubExit(t)
		_, err := Run(ModeTerminate, sampleTeams(), sampleCatalog(), sales, logging.Discard())
		if !errors.Is(err, ErrTerminated) {
			t.Fatalf("expected ErrTerminated, got %v", err)
		}
		if *code != 1 {
			t.Errorf("expected exit code 1, got %d", *code)
		}
	})
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("terminate"); err != nil || m != ModeTerminate {
		t.Errorf("terminate: got %v, %v", m, err)
	}
	if m, err := ParseMode("Error"); err != nil || m != ModeStrict {
		t.Errorf("error: got %v, %v", m, err)
	}
	if _, err := ParseMode("skip"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
