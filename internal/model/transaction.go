package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "Cash"
	PaymentCard     PaymentMethod = "Card"
	PaymentTransfer PaymentMethod = "Transfer"
	PaymentQRIS     PaymentMethod = "QRIS"
	PaymentOther    PaymentMethod = "Other"
)

// Valid reports whether m is one of the accepted payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer, PaymentQRIS, PaymentOther:
		return true
	}
	return false
}

type PaymentStatus string

const (
	StatusPending   PaymentStatus = "Pending"
	StatusPaid      PaymentStatus = "Paid"
	StatusRefunded  PaymentStatus = "Refunded"
	StatusCancelled PaymentStatus = "Cancelled"
)

type PriceType string

const (
	PriceRetail    PriceType = "retail"
	PriceWholesale PriceType = "wholesale"
)

// Transaction is a sale. TotalAmount is the sum of line subtotals before any
// discount, DiscountAmount the sum of everything deducted (per-line +
// whole-cart + manual), FinalAmount the charged total (never negative).
type Transaction struct {
	BaseModel
	TransactionCode string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"transaction_code"`
	TransactionDate time.Time       `gorm:"not null" json:"transaction_date"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_amount"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount_amount"`
	FinalAmount     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"final_amount"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(20);not null;default:'Cash'" json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(20);not null;default:'Pending'" json:"payment_status"`

	CashierID uuid.UUID `gorm:"type:uuid;not null;index" json:"cashier_id"`
	Cashier   *User     `gorm:"foreignKey:CashierID;constraint:OnDelete:RESTRICT" json:"cashier,omitempty"`

	Items []TransactionItem `gorm:"foreignKey:TransactionID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// TransactionItem is an append-only line record; it is never updated after
// the enclosing transaction commits.
type TransactionItem struct {
	BaseModel
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index" json:"transaction_id"`
	ProductID     uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	Product       *Product  `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`

	Quantity        int             `gorm:"not null" json:"quantity" validate:"required,gt=0"`
	PricePerUnit    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price_per_unit"`
	PriceType       PriceType       `gorm:"type:varchar(10);not null" json:"price_type"` // tier actually charged
	Subtotal        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"subtotal"`
	DiscountApplied decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount_applied"`
}
