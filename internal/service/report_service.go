package service

import (
	"go-pos-kasir/internal/apperr"
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSoldReportRow is one product's sales summary: what it sold for,
// what it cost, and what it earned.
type ProductSoldReportRow struct {
	ProductID             uuid.UUID        `json:"product_id"`
	ProductName           string           `json:"product_name"`
	Barcode               *string          `json:"barcode,omitempty"`
	CategoryName          string           `json:"category_name"`
	Unit                  string           `json:"unit"`
	CurrentStock          int              `json:"current_stock"`
	ModalPricePerUnit     decimal.Decimal  `json:"modal_price_per_unit"`
	RetailPricePerUnit    decimal.Decimal  `json:"retail_price_per_unit"`
	WholesalePricePerUnit *decimal.Decimal `json:"wholesale_price_per_unit,omitempty"`
	TotalQuantitySold     int              `json:"total_quantity_sold"`
	TotalSalesRevenue     decimal.Decimal  `json:"total_sales_revenue"`
	TotalDiscountApplied  decimal.Decimal  `json:"total_discount_applied"`
	TotalActualRevenue    decimal.Decimal  `json:"total_actual_revenue"`
	TotalModalCost        decimal.Decimal  `json:"total_modal_cost"`
	TotalProfit           decimal.Decimal  `json:"total_profit"`
	ProfitMargin          decimal.Decimal  `json:"profit_margin"`
}

// StockModalRow is one product's current inventory valuation at cost.
type StockModalRow struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Barcode           *string         `json:"barcode,omitempty"`
	CategoryName      string          `json:"category_name"`
	Unit              string          `json:"unit"`
	CurrentStock      int             `json:"current_stock"`
	ModalPricePerUnit decimal.Decimal `json:"modal_price_per_unit"`
	TotalModalValue   decimal.Decimal `json:"total_modal_value"`
}

type StockModalReport struct {
	OverallTotalModal decimal.Decimal `json:"overall_total_modal"`
	Products          []StockModalRow `json:"products"`
}

type ReportService interface {
	GetProductsSoldReport(filters repository.ReportFilters) ([]ProductSoldReportRow, error)
	GetCurrentStockModalReport() (*StockModalReport, error)
}

type reportService struct {
	transactionRepo repository.TransactionRepository
	productRepo     repository.ProductRepository
}

func NewReportService(tRepo repository.TransactionRepository, pRepo repository.ProductRepository) ReportService {
	return &reportService{
		transactionRepo: tRepo,
		productRepo:     pRepo,
	}
}

func categoryName(p *model.Product) string {
	if p.Category != nil {
		return p.Category.Name
	}
	return "Uncategorized"
}

func (s *reportService) GetProductsSoldReport(filters repository.ReportFilters) ([]ProductSoldReportRow, error) {
	rows, err := s.transactionRepo.AggregateProductsSold(filters)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to generate products sold report", err)
	}
	if len(rows) == 0 {
		return []ProductSoldReportRow{}, nil
	}

	products, err := s.productRepo.FindAll(repository.ProductFilters{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to generate products sold report", err)
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	report := make([]ProductSoldReportRow, 0, len(rows))
	for _, row := range rows {
		product, ok := byID[row.ProductID]
		if !ok {
			// Sold product was since hard-deleted; nothing to join on.
			continue
		}

		revenue, err := decimal.NewFromString(row.TotalSalesRevenue)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Failed to generate products sold report", err)
		}
		discount, err := decimal.NewFromString(row.TotalDiscountApplied)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "Failed to generate products sold report", err)
		}

		qty := decimal.NewFromInt(int64(row.TotalQuantitySold))
		actualRevenue := revenue.Sub(discount)
		modalCost := product.ModalPrice.Mul(qty)
		profit := actualRevenue.Sub(modalCost)
		margin := decimal.Zero
		if actualRevenue.IsPositive() {
			margin = profit.Div(actualRevenue).Mul(oneHundred)
		}

		report = append(report, ProductSoldReportRow{
			ProductID:             product.ID,
			ProductName:           product.Name,
			Barcode:               product.Barcode,
			CategoryName:          categoryName(product),
			Unit:                  product.Unit,
			CurrentStock:          product.Stock,
			ModalPricePerUnit:     product.ModalPrice,
			RetailPricePerUnit:    product.RetailPrice,
			WholesalePricePerUnit: product.WholesalePrice,
			TotalQuantitySold:     row.TotalQuantitySold,
			TotalSalesRevenue:     revenue,
			TotalDiscountApplied:  discount,
			TotalActualRevenue:    actualRevenue,
			TotalModalCost:        modalCost,
			TotalProfit:           profit,
			ProfitMargin:          margin,
		})
	}
	return report, nil
}

func (s *reportService) GetCurrentStockModalReport() (*StockModalReport, error) {
	products, err := s.productRepo.FindAll(repository.ProductFilters{})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to generate current stock modal report", err)
	}

	report := &StockModalReport{
		OverallTotalModal: decimal.Zero,
		Products:          []StockModalRow{},
	}
	for i := range products {
		p := &products[i]
		if p.Stock <= 0 {
			continue
		}
		total := p.ModalPrice.Mul(decimal.NewFromInt(int64(p.Stock)))
		report.OverallTotalModal = report.OverallTotalModal.Add(total)
		report.Products = append(report.Products, StockModalRow{
			ProductID:         p.ID,
			ProductName:       p.Name,
			Barcode:           p.Barcode,
			CategoryName:      categoryName(p),
			Unit:              p.Unit,
			CurrentStock:      p.Stock,
			ModalPricePerUnit: p.ModalPrice,
			TotalModalValue:   total,
		})
	}
	return report, nil
}
