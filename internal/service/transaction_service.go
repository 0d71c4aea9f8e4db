package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"go-pos-kasir/internal/apperr"
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"
	"go-pos-kasir/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionService interface {
	CreateTransaction(req *CreateTransactionRequest, cashierID uuid.UUID) (*model.Transaction, error)
	CompleteTransactionPayment(id uuid.UUID, paymentMethod *model.PaymentMethod) (*model.Transaction, error)
	GetAllTransactions(filters repository.TransactionFilters) ([]model.Transaction, error)
	GetTransactionByID(id uuid.UUID) (*model.Transaction, error)
}

// CartItemRequest identifies a product by exactly one of product_id or
// barcode. Supplying both, or neither, is rejected before any stock check.
type CartItemRequest struct {
	ProductID *uuid.UUID      `json:"product_id"`
	Barcode   *string         `json:"barcode"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	PriceType model.PriceType `json:"price_type" validate:"omitempty,oneof=retail wholesale"`
}

type CreateTransactionRequest struct {
	Items          []CartItemRequest   `json:"items" validate:"required,min=1,dive"`
	PaymentMethod  model.PaymentMethod `json:"payment_method" validate:"omitempty,oneof=Cash Card Transfer QRIS Other"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"` // manual discount, optional
}

type transactionService struct {
	productRepo     repository.ProductRepository
	transactionRepo repository.TransactionRepository
	discountSvc     DiscountService
	db              *gorm.DB
	notifier        Notifier
	now             func() time.Time
}

func NewTransactionService(pRepo repository.ProductRepository, tRepo repository.TransactionRepository, dSvc DiscountService, db *gorm.DB, notifier Notifier) TransactionService {
	return &transactionService{
		productRepo:     pRepo,
		transactionRepo: tRepo,
		discountSvc:     dSvc,
		db:              db,
		notifier:        notifier,
		now:             time.Now,
	}
}

// generateTransactionCode builds the human-readable invoice code:
// INV-<epoch-ms>-<4-digit-random>. Collisions are astronomically rare and
// surface as a Conflict the caller may retry.
func generateTransactionCode(now time.Time) string {
	return fmt.Sprintf("INV-%d-%d", now.UnixMilli(), rand.Intn(9000)+1000)
}

// resolvedLine couples a cart line with the product it was matched to.
type resolvedLine struct {
	product   *model.Product
	quantity  int
	priceType model.PriceType
}

// resolveCartLine matches one cart line to a product inside the unit of
// work. Identifier rules are checked first so malformed lines never reach a
// stock check.
func (s *transactionService) resolveCartLine(tx *gorm.DB, item *CartItemRequest) (*model.Product, error) {
	if item.ProductID != nil && item.Barcode != nil {
		return nil, apperr.New(apperr.KindValidation, "Each item must have either a productId or a barcode, not both")
	}

	var (
		product *model.Product
		err     error
	)
	switch {
	case item.ProductID != nil:
		product, err = s.productRepo.FindByIDTx(tx, *item.ProductID)
	case item.Barcode != nil:
		product, err = s.productRepo.FindByBarcodeTx(tx, *item.Barcode)
	default:
		return nil, apperr.New(apperr.KindValidation, "Each item must have either a productId or a barcode")
	}

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			identifier := ""
			if item.ProductID != nil {
				identifier = item.ProductID.String()
			} else {
				identifier = *item.Barcode
			}
			return nil, apperr.NotFoundf("Product with ID/Barcode %s not found", identifier)
		}
		return nil, err
	}
	return product, nil
}

// CreateTransaction runs the whole checkout as one atomic unit of work:
// product resolution, discount resolution, per-line pricing, stock
// decrements and the transaction + item inserts all commit together or not
// at all. The transaction starts in Pending status.
func (s *transactionService) CreateTransaction(req *CreateTransactionRequest, cashierID uuid.UUID) (*model.Transaction, error) {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		firstErr := errs[0]
		return nil, apperr.Validationf("Validation failed: Field '%s' failed on tag '%s'", firstErr.FailedField, firstErr.Tag)
	}
	if cashierID == uuid.Nil {
		return nil, apperr.New(apperr.KindValidation, "cashierId is required")
	}
	if req.DiscountAmount.IsNegative() {
		return nil, apperr.New(apperr.KindValidation, "Manual discount amount cannot be negative")
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = model.PaymentCash
	}

	now := s.now()
	var created *model.Transaction
	type stockChange struct {
		product  *model.Product
		quantity int
		newStock int
	}
	var stockChanges []stockChange

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1. Resolve every cart line and collect the distinct product ids
		lines := make([]resolvedLine, 0, len(req.Items))
		productIDs := make([]uuid.UUID, 0, len(req.Items))
		seen := make(map[uuid.UUID]bool)

		for i := range req.Items {
			item := &req.Items[i]
			product, err := s.resolveCartLine(tx, item)
			if err != nil {
				return err
			}
			if product.Stock < item.Quantity {
				return apperr.New(apperr.KindInsufficientStock,
					fmt.Sprintf("Not enough stock for product %s. Available: %d, Requested: %d",
						product.Name, product.Stock, item.Quantity))
			}
			if !seen[product.ID] {
				seen[product.ID] = true
				productIDs = append(productIDs, product.ID)
			}
			priceType := item.PriceType
			if priceType == "" {
				priceType = model.PriceRetail
			}
			lines = append(lines, resolvedLine{product: product, quantity: item.Quantity, priceType: priceType})
		}

		// 2. Resolve discounts once for the full product set
		discounts, err := s.discountSvc.Applicable(productIDs, now)
		if err != nil {
			return err
		}

		// 3. Persist the transaction shell in Pending status
		transaction := &model.Transaction{
			TransactionCode: generateTransactionCode(now),
			TransactionDate: now,
			PaymentMethod:   paymentMethod,
			PaymentStatus:   model.StatusPending,
			CashierID:       cashierID,
			TotalAmount:     decimal.Zero,
			DiscountAmount:  decimal.Zero,
			FinalAmount:     decimal.Zero,
		}
		transaction.CreatedBy = cashierID.String()
		transaction.UpdatedBy = cashierID.String()
		if err := s.transactionRepo.CreateTx(tx, transaction); err != nil {
			return err
		}

		// 4. Price each line, decrement stock through the ledger
		totalAmount := decimal.Zero
		totalLineDiscount := decimal.Zero
		items := make([]model.TransactionItem, 0, len(lines))
		reserved := make(map[uuid.UUID]int)

		for _, line := range lines {
			priced := PriceLine(line.product, line.quantity, line.priceType, discounts.Specific)
			totalAmount = totalAmount.Add(priced.Subtotal)
			totalLineDiscount = totalLineDiscount.Add(priced.Discount)

			items = append(items, model.TransactionItem{
				TransactionID:   transaction.ID,
				ProductID:       line.product.ID,
				Quantity:        line.quantity,
				PricePerUnit:    priced.UnitPrice,
				PriceType:       priced.EffectiveType,
				Subtotal:        priced.Subtotal,
				DiscountApplied: priced.Discount,
			})

			// The conditional decrement is the authoritative stock check:
			// the earlier read only produced a friendly message.
			ok, err := s.productRepo.ReserveStock(tx, line.product.ID, line.quantity)
			if err != nil {
				return err
			}
			if !ok {
				return apperr.New(apperr.KindInsufficientStock,
					fmt.Sprintf("Not enough stock for product %s. Requested: %d", line.product.Name, line.quantity))
			}
			// Each line's stock figure accounts for every earlier line
			// of the same product, not just its own decrement.
			reserved[line.product.ID] += line.quantity
			stockChanges = append(stockChanges, stockChange{
				product:  line.product,
				quantity: line.quantity,
				newStock: line.product.Stock - reserved[line.product.ID],
			})
		}

		if err := s.transactionRepo.CreateItemsTx(tx, items); err != nil {
			return err
		}

		// 5. Whole-cart discount against the post-line-discount total,
		// then the manual discount; both clamped. Order is fixed policy.
		remaining := totalAmount.Sub(totalLineDiscount)
		cartDiscount := ApplyCartDiscount(remaining, discounts.WholeCart)
		remaining = remaining.Sub(cartDiscount)
		manual := ClampManualDiscount(remaining, req.DiscountAmount)
		remaining = remaining.Sub(manual)

		transaction.TotalAmount = totalAmount
		transaction.DiscountAmount = totalLineDiscount.Add(cartDiscount).Add(manual)
		transaction.FinalAmount = remaining
		if transaction.FinalAmount.IsNegative() {
			transaction.FinalAmount = decimal.Zero
		}
		if err := s.transactionRepo.UpdateTx(tx, transaction); err != nil {
			return err
		}

		created = transaction
		return nil
	})
	if err != nil {
		log.Printf("create transaction rolled back: %v", err)
		return nil, classify(err, "Failed to create transaction")
	}

	// Stock-change events go out only after the unit of work committed.
	if s.notifier != nil {
		for _, change := range stockChanges {
			s.notifier.BroadcastJSON(map[string]interface{}{
				"type":   "stock_update",
				"action": "transaction_created",
				"product": map[string]interface{}{
					"id":        change.product.ID,
					"name":      change.product.Name,
					"barcode":   change.product.Barcode,
					"quantity":  change.quantity,
					"new_stock": change.newStock,
				},
				"transaction_code": created.TransactionCode,
				"cashier_id":       cashierID,
			})
		}
	}

	return s.transactionRepo.FindByID(created.ID)
}

// CompleteTransactionPayment moves a Pending transaction to Paid. Paid is
// rejected with AlreadyPaid; Cancelled and Refunded are terminal states set
// outside this service and block completion with InvalidState.
func (s *transactionService) CompleteTransactionPayment(id uuid.UUID, paymentMethod *model.PaymentMethod) (*model.Transaction, error) {
	if paymentMethod != nil && !paymentMethod.Valid() {
		return nil, apperr.Validationf("Invalid payment method '%s'", *paymentMethod)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		transaction, err := s.transactionRepo.FindByIDTx(tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("Transaction %s not found", id)
			}
			return err
		}

		switch transaction.PaymentStatus {
		case model.StatusPaid:
			return apperr.New(apperr.KindAlreadyPaid, "Transaction has already been paid")
		case model.StatusCancelled, model.StatusRefunded:
			return apperr.New(apperr.KindInvalidState, "Cannot complete payment for a cancelled or refunded transaction")
		}

		transaction.PaymentStatus = model.StatusPaid
		if paymentMethod != nil {
			transaction.PaymentMethod = *paymentMethod
		}
		return s.transactionRepo.UpdateTx(tx, transaction)
	})
	if err != nil {
		return nil, classify(err, "Failed to complete transaction payment")
	}

	return s.transactionRepo.FindByID(id)
}

func (s *transactionService) GetAllTransactions(filters repository.TransactionFilters) ([]model.Transaction, error) {
	return s.transactionRepo.FindAll(filters)
}

func (s *transactionService) GetTransactionByID(id uuid.UUID) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("Transaction %s not found", id)
		}
		return nil, classify(err, "Failed to retrieve transaction")
	}
	return transaction, nil
}
