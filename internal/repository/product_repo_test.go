package repository

import (
	"errors"
	"fmt"
	"testing"

	"go-pos-kasir/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepoTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Category{}, &model.Product{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedStockedProduct(t *testing.T, db *gorm.DB, name string, stock int) *model.Product {
	product := &model.Product{
		Name:        name,
		ModalPrice:  decimal.RequireFromString("10"),
		RetailPrice: decimal.RequireFromString("20"),
		Stock:       stock,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func reloadStock(t *testing.T, db *gorm.DB, p *model.Product) int {
	var reloaded model.Product
	if err := db.First(&reloaded, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	return reloaded.Stock
}

func TestReserveStockExactBoundary(t *testing.T) {
	db := setupRepoTestDB(t, t.Name())
	repo := NewProductRepo(db)
	product := seedStockedProduct(t, db, "Boundary", 5)

	ok, err := repo.ReserveStock(db, product.ID, 5)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !ok {
		t.Fatalf("reserving exactly the available stock must succeed")
	}
	if stock := reloadStock(t, db, product); stock != 0 {
		t.Fatalf("expected stock 0, got %d", stock)
	}

	ok, err = repo.ReserveStock(db, product.ID, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatalf("reserving from zero stock must be rejected")
	}
}

func TestReserveStockRejectsOversellWithoutMutating(t *testing.T) {
	db := setupRepoTestDB(t, t.Name())
	repo := NewProductRepo(db)
	product := seedStockedProduct(t, db, "Oversell", 3)

	ok, err := repo.ReserveStock(db, product.ID, 4)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatalf("guard must reject quantity above stock")
	}
	if stock := reloadStock(t, db, product); stock != 3 {
		t.Fatalf("rejected reserve must not move stock, got %d", stock)
	}
}

func TestReserveStockRollbackRestores(t *testing.T) {
	db := setupRepoTestDB(t, t.Name())
	repo := NewProductRepo(db)
	product := seedStockedProduct(t, db, "Rollback", 10)

	sentinel := errors.New("abort")
	err := db.Transaction(func(tx *gorm.DB) error {
		ok, err := repo.ReserveStock(tx, product.ID, 6)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatalf("reserve inside tx must succeed")
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel rollback error, got %v", err)
	}
	if stock := reloadStock(t, db, product); stock != 10 {
		t.Fatalf("rollback must restore stock, got %d", stock)
	}
}

func TestRestoreStockIncrements(t *testing.T) {
	db := setupRepoTestDB(t, t.Name())
	repo := NewProductRepo(db)
	product := seedStockedProduct(t, db, "Restock", 2)

	if err := repo.RestoreStock(db, product.ID, 8); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if stock := reloadStock(t, db, product); stock != 10 {
		t.Fatalf("expected stock 10, got %d", stock)
	}
}

func TestFindAllFilters(t *testing.T) {
	db := setupRepoTestDB(t, t.Name())
	repo := NewProductRepo(db)

	category := &model.Category{Name: "Snacks"}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	inCategory := seedStockedProduct(t, db, "Chitato", 5)
	if err := db.Model(inCategory).Update("category_id", category.ID).Error; err != nil {
		t.Fatalf("assign category: %v", err)
	}
	seedStockedProduct(t, db, "Sabun Mandi", 5)

	byCategory, err := repo.FindAll(ProductFilters{CategoryID: &category.ID})
	if err != nil {
		t.Fatalf("find by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Name != "Chitato" {
		t.Fatalf("expected only the categorized product, got %d", len(byCategory))
	}

	byName, err := repo.FindAll(ProductFilters{Name: "Sabun"})
	if err != nil {
		t.Fatalf("find by name: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Sabun Mandi" {
		t.Fatalf("expected substring match on name, got %d", len(byName))
	}
}

func TestCreateDuplicateBarcodeTranslatesToDuplicatedKey(t *testing.T) {
	db := setupRepoTestDB(t, t.Name())
	repo := NewProductRepo(db)

	barcode := "899111"
	first := &model.Product{
		Name:        "First",
		ModalPrice:  decimal.RequireFromString("1"),
		RetailPrice: decimal.RequireFromString("2"),
		Barcode:     &barcode,
	}
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := &model.Product{
		Name:        "Second",
		ModalPrice:  decimal.RequireFromString("1"),
		RetailPrice: decimal.RequireFromString("2"),
		Barcode:     &barcode,
	}
	err := repo.Create(second)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected translated duplicate-key error, got %v", err)
	}
}
