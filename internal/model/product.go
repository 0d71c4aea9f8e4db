package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	Name        string  `gorm:"type:varchar(255);uniqueIndex;not null" json:"name" validate:"required"`
	Barcode     *string `gorm:"type:varchar(100);uniqueIndex" json:"barcode,omitempty"`
	Description string  `gorm:"type:text" json:"description"`

	// Price tiers. ModalPrice is the purchase cost, RetailPrice the default
	// selling price. WholesalePrice is optional; lines asking for it fall
	// back to retail when it is not set.
	ModalPrice     decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"modal_price"`
	RetailPrice    decimal.Decimal  `gorm:"type:decimal(10,2);not null" json:"retail_price"`
	WholesalePrice *decimal.Decimal `gorm:"type:decimal(10,2)" json:"wholesale_price,omitempty"`

	Stock    int    `gorm:"not null;default:0" json:"stock"`
	Unit     string `gorm:"type:varchar(20)" json:"unit"`
	ImageURL string `gorm:"type:varchar(255)" json:"image_url,omitempty"`

	CategoryID *uuid.UUID `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Category   *Category  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	// Specific-product discounts currently attached to this product
	Discounts []Discount `gorm:"many2many:discount_products;" json:"discounts,omitempty"`
}
