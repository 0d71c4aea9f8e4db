package repository

import (
	"go-pos-kasir/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilters narrows FindAll results. Zero values mean "no filter".
type ProductFilters struct {
	CategoryID *uuid.UUID
	Name       string // substring match
	Barcode    string // exact match
}

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll(filters ProductFilters) ([]model.Product, error)
	FindByID(id uuid.UUID) (*model.Product, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	FindByBarcode(barcode string) (*model.Product, error)
	FindByBarcodeTx(tx *gorm.DB, barcode string) (*model.Product, error)
	FindByName(name string) (*model.Product, error)
	FindByIDs(ids []uuid.UUID) ([]model.Product, error)
	Update(product *model.Product) error
	Delete(id uuid.UUID) error
	ReserveStock(tx *gorm.DB, id uuid.UUID, quantity int) (bool, error)
	RestoreStock(tx *gorm.DB, id uuid.UUID, quantity int) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) Create(product *model.Product) error {
	return r.db.Create(product).Error
}

func (r *productRepo) FindAll(filters ProductFilters) ([]model.Product, error) {
	query := r.db.Preload("Category").Preload("Discounts")
	if filters.CategoryID != nil {
		query = query.Where("category_id = ?", *filters.CategoryID)
	}
	if filters.Name != "" {
		query = query.Where("name LIKE ?", "%"+filters.Name+"%")
	}
	if filters.Barcode != "" {
		query = query.Where("barcode = ?", filters.Barcode)
	}

	var products []model.Product
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(id uuid.UUID) (*model.Product, error) {
	return r.FindByIDTx(r.db, id)
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := tx.Preload("Category").First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(barcode string) (*model.Product, error) {
	return r.FindByBarcodeTx(r.db, barcode)
}

func (r *productRepo) FindByBarcodeTx(tx *gorm.DB, barcode string) (*model.Product, error) {
	var product model.Product
	err := tx.Preload("Category").First(&product, "barcode = ?", barcode).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByName(name string) (*model.Product, error) {
	var product model.Product
	err := r.db.First(&product, "name = ?", name).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByIDs(ids []uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.Where("id IN ?", ids).Find(&products).Error
	return products, err
}

func (r *productRepo) Update(product *model.Product) error {
	return r.db.Save(product).Error
}

func (r *productRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.Product{}, "id = ?", id).Error
}

// ReserveStock decrements stock by quantity in a single conditional UPDATE.
// The "stock >= ?" guard makes the write itself the insufficient-stock
// check, so two competing transactions serialize on the row and can never
// both drive stock negative. Returns false when the guard rejected the
// decrement. Runs inside the caller's transaction; a later rollback
// restores the stock.
func (r *productRepo) ReserveStock(tx *gorm.DB, id uuid.UUID, quantity int) (bool, error) {
	result := tx.Model(&model.Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// RestoreStock increments stock by quantity (stock-in adjustments).
func (r *productRepo) RestoreStock(tx *gorm.DB, id uuid.UUID, quantity int) error {
	return tx.Model(&model.Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity)).Error
}
