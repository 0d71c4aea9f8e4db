package service

import (
	"testing"

	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
)

func newReportService(t *testing.T, env *checkoutEnv) ReportService {
	return NewReportService(
		repository.NewTransactionRepo(env.db),
		repository.NewProductRepo(env.db),
	)
}

func TestProductsSoldReportAggregatesAndComputesProfit(t *testing.T) {
	env := newCheckoutEnv(t)
	cashier := seedCashier(t, env.db)
	// Modal 10 (seed default), retail 50: profit per unit is 40.
	product := seedProduct(t, env.db, "Reported Item", "50", 20)
	seedDiscount(t, env.db, "Report Promo", model.DiscountPercentage, "10", model.AppliesToSpecificProducts, product)

	for i := 0; i < 2; i++ {
		if _, err := env.svc.CreateTransaction(&CreateTransactionRequest{
			Items: []CartItemRequest{itemByID(product.ID, 2)},
		}, cashier.ID); err != nil {
			t.Fatalf("sale %d: %v", i, err)
		}
	}

	report, err := newReportService(t, env).GetProductsSoldReport(repository.ReportFilters{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("expected 1 report row, got %d", len(report))
	}

	row := report[0]
	if row.TotalQuantitySold != 4 {
		t.Fatalf("expected 4 sold, got %d", row.TotalQuantitySold)
	}
	// 4 × 50 gross, 10% line discount on each sale.
	if !row.TotalSalesRevenue.Equal(dec("200")) {
		t.Fatalf("expected revenue 200, got %s", row.TotalSalesRevenue)
	}
	if !row.TotalDiscountApplied.Equal(dec("20")) {
		t.Fatalf("expected discount 20, got %s", row.TotalDiscountApplied)
	}
	if !row.TotalActualRevenue.Equal(dec("180")) {
		t.Fatalf("expected actual revenue 180, got %s", row.TotalActualRevenue)
	}
	// Modal cost 4 × 10 = 40, profit 140.
	if !row.TotalProfit.Equal(dec("140")) {
		t.Fatalf("expected profit 140, got %s", row.TotalProfit)
	}
}

func TestProductsSoldReportEmptyWithoutSales(t *testing.T) {
	env := newCheckoutEnv(t)
	seedProduct(t, env.db, "Never Sold", "50", 20)

	report, err := newReportService(t, env).GetProductsSoldReport(repository.ReportFilters{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report) != 0 {
		t.Fatalf("expected empty report, got %d rows", len(report))
	}
}

func TestStockModalReportSkipsEmptyStock(t *testing.T) {
	env := newCheckoutEnv(t)
	seedProduct(t, env.db, "Stocked", "50", 4) // 4 units at modal 10
	seedProduct(t, env.db, "SoldOut", "50", 0)

	report, err := newReportService(t, env).GetCurrentStockModalReport()
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Products) != 1 {
		t.Fatalf("expected only the stocked product, got %d", len(report.Products))
	}
	if !report.OverallTotalModal.Equal(dec("40")) {
		t.Fatalf("expected overall modal 40, got %s", report.OverallTotalModal)
	}
	if !report.Products[0].TotalModalValue.Equal(dec("40")) {
		t.Fatalf("expected row modal 40, got %s", report.Products[0].TotalModalValue)
	}
}
