package service

import (
	"errors"
	"fmt"

	"go-pos-kasir/internal/apperr"
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
	"go-pos-kasir/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StockDirection string

const (
	StockIn  StockDirection = "IN"
	StockOut StockDirection = "OUT"
)

type ProductService interface {
	CreateProduct(req *CreateProductRequest, actorID string) (*model.Product, error)
	UpdateProduct(id uuid.UUID, req *UpdateProductRequest, actorID string) (*model.Product, error)
	DeleteProduct(id uuid.UUID) error
	GetAllProducts(filters repository.ProductFilters) ([]model.Product, error)
	GetProductByID(id uuid.UUID) (*model.Product, error)
	GetProductByBarcode(barcode string) (*model.Product, error)
	AdjustStock(id uuid.UUID, req *StockAdjustmentRequest, actorID string) (*model.Product, error)

	CreateCategory(req *CategoryRequest, actorID string) (*model.Category, error)
	UpdateCategory(id uuid.UUID, req *CategoryRequest, actorID string) (*model.Category, error)
	DeleteCategory(id uuid.UUID) error
	GetAllCategories() ([]model.Category, error)
	GetCategoryByID(id uuid.UUID) (*model.Category, error)
}

type CreateProductRequest struct {
	Name           string           `json:"name" validate:"required"`
	Barcode        *string          `json:"barcode"`
	Description    string           `json:"description"`
	ModalPrice     decimal.Decimal  `json:"modal_price"`
	RetailPrice    decimal.Decimal  `json:"retail_price"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price"`
	Stock          int              `json:"stock" validate:"gte=0"`
	Unit           string           `json:"unit"`
	ImageURL       string           `json:"image_url"`
	CategoryID     *uuid.UUID       `json:"category_id"`
}

type UpdateProductRequest struct {
	Name           string           `json:"name" validate:"required"`
	Barcode        *string          `json:"barcode"`
	Description    string           `json:"description"`
	ModalPrice     decimal.Decimal  `json:"modal_price"`
	RetailPrice    decimal.Decimal  `json:"retail_price"`
	WholesalePrice *decimal.Decimal `json:"wholesale_price"`
	Unit           string           `json:"unit"`
	ImageURL       string           `json:"image_url"`
	CategoryID     *uuid.UUID       `json:"category_id"`
}

// StockAdjustmentRequest moves stock outside of a sale (restock, damage,
// opname correction). Direction OUT goes through the same conditional
// decrement as checkout and is rejected on insufficient stock.
type StockAdjustmentRequest struct {
	Direction StockDirection `json:"direction" validate:"required,oneof=IN OUT"`
	Quantity  int            `json:"quantity" validate:"required,gt=0"`
	Note      string         `json:"note"`
}

type CategoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type productService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	db           *gorm.DB
	notifier     Notifier
}

func NewProductService(pRepo repository.ProductRepository, cRepo repository.CategoryRepository, db *gorm.DB, notifier Notifier) ProductService {
	return &productService{
		productRepo:  pRepo,
		categoryRepo: cRepo,
		db:           db,
		notifier:     notifier,
	}
}

func validatePrices(modal, retail decimal.Decimal, wholesale *decimal.Decimal) error {
	if modal.IsNegative() {
		return apperr.New(apperr.KindValidation, "Modal price cannot be negative")
	}
	if retail.IsNegative() {
		return apperr.New(apperr.KindValidation, "Retail price cannot be negative")
	}
	if wholesale != nil && wholesale.IsNegative() {
		return apperr.New(apperr.KindValidation, "Wholesale price cannot be negative")
	}
	return nil
}

func (s *productService) CreateProduct(req *CreateProductRequest, actorID string) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if err := validatePrices(req.ModalPrice, req.RetailPrice, req.WholesalePrice); err != nil {
		return nil, err
	}

	// Friendly duplicate check; the unique index stays authoritative.
	if existing, _ := s.productRepo.FindByName(req.Name); existing != nil {
		return nil, apperr.Conflictf("Product name already exists")
	}

	product := &model.Product{
		Name:           req.Name,
		Barcode:        req.Barcode,
		Description:    req.Description,
		ModalPrice:     req.ModalPrice,
		RetailPrice:    req.RetailPrice,
		WholesalePrice: req.WholesalePrice,
		Stock:          req.Stock,
		Unit:           req.Unit,
		ImageURL:       req.ImageURL,
		CategoryID:     req.CategoryID,
	}
	product.CreatedBy = actorID
	product.UpdatedBy = actorID

	if err := s.productRepo.Create(product); err != nil {
		return nil, classify(err, "Failed to create product")
	}

	if s.notifier != nil {
		s.notifier.BroadcastJSON(map[string]interface{}{
			"type":   "stock_update",
			"action": "product_created",
			"product": map[string]interface{}{
				"id":    product.ID,
				"name":  product.Name,
				"stock": product.Stock,
			},
		})
	}
	return product, nil
}

func (s *productService) UpdateProduct(id uuid.UUID, req *UpdateProductRequest, actorID string) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if err := validatePrices(req.ModalPrice, req.RetailPrice, req.WholesalePrice); err != nil {
		return nil, err
	}

	var updated *model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("Product %s not found", id)
			}
			return err
		}

		// Stock is deliberately absent from the update payload; it only
		// moves through AdjustStock and checkout.
		existing.Name = req.Name
		existing.Barcode = req.Barcode
		existing.Description = req.Description
		existing.ModalPrice = req.ModalPrice
		existing.RetailPrice = req.RetailPrice
		existing.WholesalePrice = req.WholesalePrice
		existing.Unit = req.Unit
		existing.ImageURL = req.ImageURL
		existing.CategoryID = req.CategoryID
		existing.UpdatedBy = actorID

		if err := tx.Omit("Category", "Discounts").Save(existing).Error; err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		return nil, classify(err, "Failed to update product")
	}
	return updated, nil
}

func (s *productService) DeleteProduct(id uuid.UUID) error {
	if _, err := s.productRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("Product %s not found", id)
		}
		return classify(err, "Failed to delete product")
	}
	if err := s.productRepo.Delete(id); err != nil {
		return classify(err, "Failed to delete product")
	}
	return nil
}

func (s *productService) GetAllProducts(filters repository.ProductFilters) ([]model.Product, error) {
	return s.productRepo.FindAll(filters)
}

func (s *productService) GetProductByID(id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Product %s not found", id)
		}
		return nil, classify(err, "Failed to retrieve product")
	}
	return product, nil
}

func (s *productService) GetProductByBarcode(barcode string) (*model.Product, error) {
	product, err := s.productRepo.FindByBarcode(barcode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Product with barcode %s not found", barcode)
		}
		return nil, classify(err, "Failed to retrieve product by barcode")
	}
	return product, nil
}

// AdjustStock applies a manual stock movement through the same ledger
// operations the checkout uses, in its own unit of work.
func (s *productService) AdjustStock(id uuid.UUID, req *StockAdjustmentRequest, actorID string) (*model.Product, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	var product *model.Product
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.productRepo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("Product %s not found", id)
			}
			return err
		}

		switch req.Direction {
		case StockIn:
			if err := s.productRepo.RestoreStock(tx, id, req.Quantity); err != nil {
				return err
			}
		case StockOut:
			ok, err := s.productRepo.ReserveStock(tx, id, req.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.New(apperr.KindInsufficientStock,
					fmt.Sprintf("Not enough stock for product %s. Available: %d, Requested: %d",
						existing.Name, existing.Stock, req.Quantity))
			}
		}
		product, err = s.productRepo.FindByIDTx(tx, id)
		return err
	})
	if err != nil {
		return nil, classify(err, "Failed to adjust stock")
	}

	if s.notifier != nil {
		s.notifier.BroadcastJSON(map[string]interface{}{
			"type":   "stock_update",
			"action": "stock_adjusted",
			"product": map[string]interface{}{
				"id":        product.ID,
				"name":      product.Name,
				"new_stock": product.Stock,
			},
			"direction": req.Direction,
			"quantity":  req.Quantity,
			"note":      req.Note,
			"actor_id":  actorID,
		})
	}
	return product, nil
}

func (s *productService) CreateCategory(req *CategoryRequest, actorID string) (*model.Category, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	category := &model.Category{Name: req.Name, Description: req.Description}
	category.CreatedBy = actorID
	category.UpdatedBy = actorID

	if err := s.categoryRepo.Create(category); err != nil {
		return nil, classify(err, "Failed to create category")
	}
	return category, nil
}

func (s *productService) UpdateCategory(id uuid.UUID, req *CategoryRequest, actorID string) (*model.Category, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}

	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Category %s not found", id)
		}
		return nil, classify(err, "Failed to update category")
	}

	category.Name = req.Name
	category.Description = req.Description
	category.UpdatedBy = actorID
	if err := s.categoryRepo.Update(category); err != nil {
		return nil, classify(err, "Failed to update category")
	}
	return category, nil
}

func (s *productService) DeleteCategory(id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFoundf("Category %s not found", id)
		}
		return classify(err, "Failed to delete category")
	}
	if err := s.categoryRepo.Delete(id); err != nil {
		return classify(err, "Failed to delete category")
	}
	return nil
}

func (s *productService) GetAllCategories() ([]model.Category, error) {
	return s.categoryRepo.FindAll()
}

func (s *productService) GetCategoryByID(id uuid.UUID) (*model.Category, error) {
	category, err := s.categoryRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Category %s not found", id)
		}
		return nil, classify(err, "Failed to retrieve category")
	}
	return category, nil
}
