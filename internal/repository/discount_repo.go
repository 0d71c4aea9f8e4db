package repository

import (
	"time"

	"go-pos-kasir/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DiscountFilters narrows FindAll results.
type DiscountFilters struct {
	IsActive  *bool
	Type      model.DiscountType
	AppliesTo model.DiscountScope
}

type DiscountRepository interface {
	Create(tx *gorm.DB, discount *model.Discount) error
	FindAll(filters DiscountFilters) ([]model.Discount, error)
	FindByID(id uuid.UUID) (*model.Discount, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Discount, error)
	Update(tx *gorm.DB, discount *model.Discount) error
	Delete(id uuid.UUID) error
	FindActiveAt(now time.Time) ([]model.Discount, error)
	SetProducts(tx *gorm.DB, discount *model.Discount, products []model.Product) error
}

type discountRepo struct {
	db *gorm.DB
}

func NewDiscountRepo(db *gorm.DB) DiscountRepository {
	return &discountRepo{db}
}

func (r *discountRepo) Create(tx *gorm.DB, discount *model.Discount) error {
	return tx.Omit("Products").Create(discount).Error
}

func (r *discountRepo) FindAll(filters DiscountFilters) ([]model.Discount, error) {
	query := r.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Select("products.id", "products.name")
	})
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.AppliesTo != "" {
		query = query.Where("applies_to = ?", filters.AppliesTo)
	}

	var discounts []model.Discount
	err := query.Order("created_at DESC").Find(&discounts).Error
	return discounts, err
}

func (r *discountRepo) FindByID(id uuid.UUID) (*model.Discount, error) {
	return r.FindByIDTx(r.db, id)
}

func (r *discountRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Discount, error) {
	var discount model.Discount
	err := tx.Preload("Products").First(&discount, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

func (r *discountRepo) Update(tx *gorm.DB, discount *model.Discount) error {
	return tx.Omit("Products").Save(discount).Error
}

func (r *discountRepo) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var discount model.Discount
		if err := tx.First(&discount, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&discount).Association("Products").Clear(); err != nil {
			return err
		}
		return tx.Delete(&discount).Error
	})
}

// FindActiveAt returns every discount whose active window covers now, with
// the discounted-product set preloaded. Ordered by created_at so the
// resolver's first-seen tie-break is deterministic, not storage-dependent.
func (r *discountRepo) FindActiveAt(now time.Time) ([]model.Discount, error) {
	var discounts []model.Discount
	err := r.db.Preload("Products", func(db *gorm.DB) *gorm.DB {
		return db.Select("products.id")
	}).
		Where("is_active = ? AND start_date <= ? AND end_date >= ?", true, now, now).
		Order("created_at ASC").
		Find(&discounts).Error
	return discounts, err
}

// SetProducts makes the discounted-product set equal to products by applying
// the add/remove delta against the current membership. Idempotent; runs in
// the caller's transaction so it commits or rolls back with the discount
// mutation itself.
func (r *discountRepo) SetProducts(tx *gorm.DB, discount *model.Discount, products []model.Product) error {
	var current []model.Product
	if err := tx.Model(discount).Association("Products").Find(&current); err != nil {
		return err
	}

	currentIDs := make(map[uuid.UUID]model.Product, len(current))
	for _, p := range current {
		currentIDs[p.ID] = p
	}
	targetIDs := make(map[uuid.UUID]bool, len(products))

	var toAdd []model.Product
	for _, p := range products {
		targetIDs[p.ID] = true
		if _, ok := currentIDs[p.ID]; !ok {
			toAdd = append(toAdd, p)
		}
	}
	var toRemove []model.Product
	for id, p := range currentIDs {
		if !targetIDs[id] {
			toRemove = append(toRemove, p)
		}
	}

	assoc := tx.Model(discount).Omit("Products.*").Association("Products")
	if len(toAdd) > 0 {
		if err := assoc.Append(toAdd); err != nil {
			return err
		}
	}
	if len(toRemove) > 0 {
		if err := assoc.Delete(toRemove); err != nil {
			return err
		}
	}
	return nil
}
