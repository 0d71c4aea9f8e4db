package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage  DiscountType = "percentage"
	DiscountFixedAmount DiscountType = "fixed_amount"
)

type DiscountScope string

const (
	AppliesToAllProducts      DiscountScope = "all_products"
	AppliesToSpecificProducts DiscountScope = "specific_products"
)

// Discount is a promotional price reduction. Scope all_products makes it
// compete for the single whole-cart slot during checkout; specific_products
// ties it to the Products set and applies per matching line.
type Discount struct {
	BaseModel
	Name      string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Type      DiscountType    `gorm:"type:varchar(20);not null" json:"type" validate:"required,oneof=percentage fixed_amount"`
	Value     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"value"`
	AppliesTo DiscountScope   `gorm:"type:varchar(20);not null" json:"applies_to" validate:"required,oneof=all_products specific_products"`
	StartDate time.Time       `gorm:"not null" json:"start_date" validate:"required"`
	EndDate   time.Time       `gorm:"not null" json:"end_date" validate:"required"`
	IsActive  bool            `gorm:"default:true" json:"is_active"`

	Products []Product `gorm:"many2many:discount_products;" json:"products,omitempty"`
}

// ActiveAt reports whether the discount window covers the given instant.
func (d *Discount) ActiveAt(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartDate) && !now.After(d.EndDate)
}
