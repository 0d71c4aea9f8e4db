package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.Discount{},
		&model.Transaction{},
		&model.TransactionItem{},
		&model.User{},
		&model.Privilege{},
		&model.Role{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// recordingNotifier captures broadcast payloads instead of pushing them to a
// websocket hub.
type recordingNotifier struct {
	mu     sync.Mutex
	events []interface{}
}

func (n *recordingNotifier) BroadcastJSON(payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, payload)
}

func (n *recordingNotifier) eventCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

func (n *recordingNotifier) recorded() []interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]interface{}(nil), n.events...)
}

type checkoutEnv struct {
	db       *gorm.DB
	notifier *recordingNotifier
	svc      TransactionService
}

func newCheckoutEnv(t *testing.T) *checkoutEnv {
	db := setupServiceTestDB(t, t.Name())
	notifier := &recordingNotifier{}
	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	discountRepo := repository.NewDiscountRepo(db)
	discountSvc := NewDiscountService(discountRepo, productRepo, db)
	svc := NewTransactionService(productRepo, txRepo, discountSvc, db, notifier)
	return &checkoutEnv{db: db, notifier: notifier, svc: svc}
}

func seedCashier(t *testing.T, db *gorm.DB) *model.User {
	suffix := uuid.NewString()[:8]
	user := &model.User{
		Username: "cashier-" + suffix,
		Email:    suffix + "@example.com",
		Password: "hash",
		FullName: "Test Cashier",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed cashier: %v", err)
	}
	return user
}

func seedProduct(t *testing.T, db *gorm.DB, name, retail string, stock int) *model.Product {
	product := &model.Product{
		Name:        name,
		ModalPrice:  decimal.RequireFromString("10"),
		RetailPrice: decimal.RequireFromString(retail),
		Stock:       stock,
		Unit:        "pcs",
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func seedDiscount(t *testing.T, db *gorm.DB, name string, dType model.DiscountType, value string, scope model.DiscountScope, products ...*model.Product) *model.Discount {
	now := time.Now()
	discount := &model.Discount{
		Name:      name,
		Type:      dType,
		Value:     decimal.RequireFromString(value),
		AppliesTo: scope,
		StartDate: now.Add(-time.Hour),
		EndDate:   now.Add(time.Hour),
		IsActive:  true,
	}
	if err := db.Omit("Products").Create(discount).Error; err != nil {
		t.Fatalf("seed discount %s: %v", name, err)
	}
	for _, p := range products {
		if err := db.Model(discount).Omit("Products.*").Association("Products").Append(p); err != nil {
			t.Fatalf("attach product to discount %s: %v", name, err)
		}
	}
	return discount
}

func productStock(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	var product model.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.Stock
}

func transactionCount(t *testing.T, db *gorm.DB) int64 {
	var count int64
	if err := db.Model(&model.Transaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	return count
}
