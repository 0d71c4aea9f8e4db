package service

import (
	"errors"
	"fmt"
	"time"

	"go-pos-kasir/internal/apperr"
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
	"go-pos-kasir/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApplicableDiscounts is the resolver's answer for one cart: every
// qualifying specific-product discount, plus at most one whole-cart
// discount.
type ApplicableDiscounts struct {
	Specific  []model.Discount
	WholeCart *model.Discount
}

type DiscountService interface {
	CreateDiscount(req *CreateDiscountRequest, actorID string) (*model.Discount, error)
	UpdateDiscount(id uuid.UUID, req *UpdateDiscountRequest, actorID string) (*model.Discount, error)
	DeleteDiscount(id uuid.UUID) error
	GetAllDiscounts(filters repository.DiscountFilters) ([]model.Discount, error)
	GetDiscountByID(id uuid.UUID) (*model.Discount, error)
	Applicable(productIDs []uuid.UUID, now time.Time) (*ApplicableDiscounts, error)
}

type CreateDiscountRequest struct {
	Name       string              `json:"name" validate:"required"`
	Type       model.DiscountType  `json:"type" validate:"required,oneof=percentage fixed_amount"`
	Value      decimal.Decimal     `json:"value"`
	AppliesTo  model.DiscountScope `json:"applies_to" validate:"required,oneof=all_products specific_products"`
	StartDate  time.Time           `json:"start_date" validate:"required"`
	EndDate    time.Time           `json:"end_date" validate:"required"`
	IsActive   *bool               `json:"is_active"`
	ProductIDs []uuid.UUID         `json:"product_ids"`
}

type UpdateDiscountRequest struct {
	Name       string              `json:"name" validate:"required"`
	Type       model.DiscountType  `json:"type" validate:"required,oneof=percentage fixed_amount"`
	Value      decimal.Decimal     `json:"value"`
	AppliesTo  model.DiscountScope `json:"applies_to" validate:"required,oneof=all_products specific_products"`
	StartDate  time.Time           `json:"start_date" validate:"required"`
	EndDate    time.Time           `json:"end_date" validate:"required"`
	IsActive   *bool               `json:"is_active"`
	ProductIDs []uuid.UUID         `json:"product_ids"`
}

type discountService struct {
	discountRepo repository.DiscountRepository
	productRepo  repository.ProductRepository
	db           *gorm.DB
}

func NewDiscountService(dRepo repository.DiscountRepository, pRepo repository.ProductRepository, db *gorm.DB) DiscountService {
	return &discountService{
		discountRepo: dRepo,
		productRepo:  pRepo,
		db:           db,
	}
}

// validateDiscountFields enforces the entity-boundary rules shared by create
// and update: non-negative value, percentage within 0-100, start before end.
func validateDiscountFields(dType model.DiscountType, value decimal.Decimal, start, end time.Time) error {
	if value.IsNegative() {
		return apperr.New(apperr.KindValidation, "Discount value cannot be negative")
	}
	if dType == model.DiscountPercentage && value.GreaterThan(oneHundred) {
		return apperr.New(apperr.KindValidation, "Percentage discount value must be between 0 and 100")
	}
	if !start.Before(end) {
		return apperr.New(apperr.KindValidation, "End date must be after start date")
	}
	return nil
}

// resolveProductSet loads and verifies the target products of a
// specific-products discount. The set must be non-empty and every id valid.
func (s *discountService) resolveProductSet(productIDs []uuid.UUID) ([]model.Product, error) {
	if len(productIDs) == 0 {
		return nil, apperr.New(apperr.KindValidation, "Product IDs are required when discount applies to specific products")
	}
	products, err := s.productRepo.FindByIDs(productIDs)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to load discount products", err)
	}
	if len(products) != len(productIDs) {
		return nil, apperr.New(apperr.KindValidation, "One or more product IDs provided for specific discount are invalid")
	}
	return products, nil
}

func (s *discountService) CreateDiscount(req *CreateDiscountRequest, actorID string) (*model.Discount, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if err := validateDiscountFields(req.Type, req.Value, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	discount := &model.Discount{
		Name:      req.Name,
		Type:      req.Type,
		Value:     req.Value,
		AppliesTo: req.AppliesTo,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		IsActive:  true,
	}
	if req.IsActive != nil {
		discount.IsActive = *req.IsActive
	}
	discount.CreatedBy = actorID
	discount.UpdatedBy = actorID

	var products []model.Product
	if req.AppliesTo == model.AppliesToSpecificProducts {
		var err error
		if products, err = s.resolveProductSet(req.ProductIDs); err != nil {
			return nil, err
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.discountRepo.Create(tx, discount); err != nil {
			return err
		}
		if len(products) > 0 {
			return s.discountRepo.SetProducts(tx, discount, products)
		}
		return nil
	})
	if err != nil {
		return nil, classify(err, "Failed to create discount")
	}

	return s.discountRepo.FindByID(discount.ID)
}

func (s *discountService) UpdateDiscount(id uuid.UUID, req *UpdateDiscountRequest, actorID string) (*model.Discount, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if err := validateDiscountFields(req.Type, req.Value, req.StartDate, req.EndDate); err != nil {
		return nil, err
	}

	// Target membership: the provided set for specific_products, empty for
	// all_products (switching scope detaches everything).
	var products []model.Product
	if req.AppliesTo == model.AppliesToSpecificProducts {
		var err error
		if products, err = s.resolveProductSet(req.ProductIDs); err != nil {
			return nil, err
		}
	}

	var updated *model.Discount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		discount, err := s.discountRepo.FindByIDTx(tx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperr.NotFoundf("Discount %s not found", id)
			}
			return err
		}

		discount.Name = req.Name
		discount.Type = req.Type
		discount.Value = req.Value
		discount.AppliesTo = req.AppliesTo
		discount.StartDate = req.StartDate
		discount.EndDate = req.EndDate
		if req.IsActive != nil {
			discount.IsActive = *req.IsActive
		}
		discount.UpdatedBy = actorID

		if err := s.discountRepo.Update(tx, discount); err != nil {
			return err
		}
		if err := s.discountRepo.SetProducts(tx, discount, products); err != nil {
			return err
		}
		updated = discount
		return nil
	})
	if err != nil {
		return nil, classify(err, "Failed to update discount")
	}

	return s.discountRepo.FindByID(updated.ID)
}

func (s *discountService) DeleteDiscount(id uuid.UUID) error {
	if err := s.discountRepo.Delete(id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperr.NotFoundf("Discount %s not found", id)
		}
		return classify(err, "Failed to delete discount")
	}
	return nil
}

func (s *discountService) GetAllDiscounts(filters repository.DiscountFilters) ([]model.Discount, error) {
	return s.discountRepo.FindAll(filters)
}

func (s *discountService) GetDiscountByID(id uuid.UUID) (*model.Discount, error) {
	discount, err := s.discountRepo.FindByID(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperr.NotFoundf("Discount %s not found", id)
		}
		return nil, classify(err, "Failed to retrieve discount")
	}
	return discount, nil
}

// Applicable partitions the currently-active discounts for the given product
// set. Specific-product discounts are all retained when they address at
// least one product in the set. All-products discounts compete for the
// single whole-cart slot: strictly greatest value wins, ties go to the
// first seen (the repo returns a stable created_at ordering). Zero matches
// is a valid, empty result.
func (s *discountService) Applicable(productIDs []uuid.UUID, now time.Time) (*ApplicableDiscounts, error) {
	active, err := s.discountRepo.FindActiveAt(now)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "Failed to retrieve applicable discounts", err)
	}

	inCart := make(map[uuid.UUID]bool, len(productIDs))
	for _, id := range productIDs {
		inCart[id] = true
	}

	result := &ApplicableDiscounts{}
	for i := range active {
		d := active[i]
		switch d.AppliesTo {
		case model.AppliesToSpecificProducts:
			for _, p := range d.Products {
				if inCart[p.ID] {
					result.Specific = append(result.Specific, d)
					break
				}
			}
		case model.AppliesToAllProducts:
			if result.WholeCart == nil || d.Value.GreaterThan(result.WholeCart.Value) {
				whole := d
				result.WholeCart = &whole
			}
		}
	}
	return result, nil
}

// classify keeps already-classified errors and maps driver errors to the
// taxonomy; anything unknown is internal.
func classify(err error, message string) error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflictf("%s: duplicate value violates a unique constraint", message)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("%s: record not found", message)
	}
	return apperr.Wrap(apperr.KindInternal, fmt.Sprintf("%s due to an internal error", message), err)
}
