package repository

import (
	"time"

	"go-pos-kasir/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionFilters narrows FindAll results.
type TransactionFilters struct {
	CashierID *uuid.UUID
	StartDate *time.Time
	EndDate   *time.Time
}

// ProductSoldRow is one aggregated row of the products-sold report.
type ProductSoldRow struct {
	ProductID            uuid.UUID `json:"product_id"`
	TotalQuantitySold    int       `json:"total_quantity_sold"`
	TotalSalesRevenue    string    `json:"total_sales_revenue"`
	TotalDiscountApplied string    `json:"total_discount_applied"`
}

// ReportFilters narrows the products-sold aggregation.
type ReportFilters struct {
	StartDate  *time.Time
	EndDate    *time.Time
	CategoryID *uuid.UUID
	ProductID  *uuid.UUID
	Barcode    string
}

type TransactionRepository interface {
	CreateTx(tx *gorm.DB, transaction *model.Transaction) error
	CreateItemsTx(tx *gorm.DB, items []model.TransactionItem) error
	FindAll(filters TransactionFilters) ([]model.Transaction, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error)
	UpdateTx(tx *gorm.DB, transaction *model.Transaction) error
	AggregateProductsSold(filters ReportFilters) ([]ProductSoldRow, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) CreateTx(tx *gorm.DB, transaction *model.Transaction) error {
	return tx.Omit("Items").Create(transaction).Error
}

func (r *transactionRepo) CreateItemsTx(tx *gorm.DB, items []model.TransactionItem) error {
	return tx.Create(&items).Error
}

func (r *transactionRepo) FindAll(filters TransactionFilters) ([]model.Transaction, error) {
	query := r.db.Preload("Cashier").Preload("Items").Preload("Items.Product")
	if filters.CashierID != nil {
		query = query.Where("cashier_id = ?", *filters.CashierID)
	}
	if filters.StartDate != nil && filters.EndDate != nil {
		query = query.Where("transaction_date BETWEEN ? AND ?", *filters.StartDate, *filters.EndDate)
	} else if filters.StartDate != nil {
		query = query.Where("transaction_date >= ?", *filters.StartDate)
	} else if filters.EndDate != nil {
		query = query.Where("transaction_date <= ?", *filters.EndDate)
	}

	var transactions []model.Transaction
	err := query.Order("transaction_date DESC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	return r.FindByIDTx(r.db, id)
}

func (r *transactionRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := tx.Preload("Cashier").Preload("Items").Preload("Items.Product").
		First(&transaction, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

func (r *transactionRepo) UpdateTx(tx *gorm.DB, transaction *model.Transaction) error {
	return tx.Omit("Items", "Cashier").Save(transaction).Error
}

// AggregateProductsSold sums quantity, gross revenue and discount per product
// over transaction items, honoring the report filters. Sums are scanned as
// strings so decimal columns survive the round trip without float loss.
func (r *transactionRepo) AggregateProductsSold(filters ReportFilters) ([]ProductSoldRow, error) {
	query := r.db.Model(&model.TransactionItem{}).
		Select(`
			transaction_items.product_id as product_id,
			COALESCE(SUM(transaction_items.quantity), 0) as total_quantity_sold,
			COALESCE(SUM(transaction_items.subtotal), 0) as total_sales_revenue,
			COALESCE(SUM(transaction_items.discount_applied), 0) as total_discount_applied
		`).
		Joins("JOIN transactions ON transactions.id = transaction_items.transaction_id").
		Joins("JOIN products ON products.id = transaction_items.product_id")

	if filters.StartDate != nil {
		query = query.Where("transactions.transaction_date >= ?", *filters.StartDate)
	}
	if filters.EndDate != nil {
		query = query.Where("transactions.transaction_date <= ?", *filters.EndDate)
	}
	if filters.CategoryID != nil {
		query = query.Where("products.category_id = ?", *filters.CategoryID)
	}
	if filters.ProductID != nil {
		query = query.Where("transaction_items.product_id = ?", *filters.ProductID)
	}
	if filters.Barcode != "" {
		query = query.Where("products.barcode = ?", filters.Barcode)
	}

	rows, err := query.
		Group("transaction_items.product_id").
		Order("total_quantity_sold DESC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []ProductSoldRow
	for rows.Next() {
		var row ProductSoldRow
		if err := rows.Scan(&row.ProductID, &row.TotalQuantitySold, &row.TotalSalesRevenue, &row.TotalDiscountApplied); err != nil {
			return nil, err
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
