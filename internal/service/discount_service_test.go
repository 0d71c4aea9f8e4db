package service

import (
	"testing"
	"time"

	"go-pos-kasir/internal/apperr"
	"go-pos-kasir/internal/model"
	"go-pos-kasir/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type discountEnv struct {
	db  *gorm.DB
	svc DiscountService
}

func newDiscountEnv(t *testing.T) *discountEnv {
	db := setupServiceTestDB(t, t.Name())
	productRepo := repository.NewProductRepo(db)
	discountRepo := repository.NewDiscountRepo(db)
	return &discountEnv{db: db, svc: NewDiscountService(discountRepo, productRepo, db)}
}

func discountWindow() (time.Time, time.Time) {
	now := time.Now()
	return now.Add(-time.Hour), now.Add(time.Hour)
}

func membershipCount(t *testing.T, db *gorm.DB, discountID uuid.UUID) int64 {
	var count int64
	if err := db.Table("discount_products").Where("discount_id = ?", discountID).Count(&count).Error; err != nil {
		t.Fatalf("count membership: %v", err)
	}
	return count
}

func TestApplicablePartitionsByScope(t *testing.T) {
	env := newDiscountEnv(t)
	inCart := seedProduct(t, env.db, "In Cart", "100", 10)
	outside := seedProduct(t, env.db, "Outside", "100", 10)

	seedDiscount(t, env.db, "Specific In", model.DiscountPercentage, "10", model.AppliesToSpecificProducts, inCart)
	seedDiscount(t, env.db, "Specific Out", model.DiscountPercentage, "20", model.AppliesToSpecificProducts, outside)
	seedDiscount(t, env.db, "Storewide", model.DiscountPercentage, "5", model.AppliesToAllProducts)

	result, err := env.svc.Applicable([]uuid.UUID{inCart.ID}, time.Now())
	if err != nil {
		t.Fatalf("applicable: %v", err)
	}
	if len(result.Specific) != 1 || result.Specific[0].Name != "Specific In" {
		t.Fatalf("expected only the covering specific discount, got %d", len(result.Specific))
	}
	if result.WholeCart == nil || result.WholeCart.Name != "Storewide" {
		t.Fatalf("expected the storewide discount in the whole-cart slot")
	}
}

func TestApplicableIgnoresInactiveAndOutOfWindow(t *testing.T) {
	env := newDiscountEnv(t)
	product := seedProduct(t, env.db, "Windowed", "100", 10)
	now := time.Now()

	expired := seedDiscount(t, env.db, "Expired", model.DiscountPercentage, "10", model.AppliesToSpecificProducts, product)
	env.db.Model(expired).Updates(map[string]interface{}{
		"start_date": now.Add(-48 * time.Hour),
		"end_date":   now.Add(-24 * time.Hour),
	})
	future := seedDiscount(t, env.db, "Future", model.DiscountPercentage, "10", model.AppliesToSpecificProducts, product)
	env.db.Model(future).Updates(map[string]interface{}{
		"start_date": now.Add(24 * time.Hour),
		"end_date":   now.Add(48 * time.Hour),
	})
	disabled := seedDiscount(t, env.db, "Disabled", model.DiscountPercentage, "10", model.AppliesToSpecificProducts, product)
	env.db.Model(disabled).Update("is_active", false)

	result, err := env.svc.Applicable([]uuid.UUID{product.ID}, now)
	if err != nil {
		t.Fatalf("applicable: %v", err)
	}
	if len(result.Specific) != 0 || result.WholeCart != nil {
		t.Fatalf("expected empty result, got %d specific", len(result.Specific))
	}
}

func TestApplicableWholeCartGreatestValueFirstSeenTie(t *testing.T) {
	env := newDiscountEnv(t)
	start, end := discountWindow()
	base := time.Now().Add(-time.Minute)

	// Explicit created_at so the repo's ASC ordering is deterministic.
	for i, spec := range []struct {
		name  string
		value string
	}{
		{"First Ten", "10"},
		{"Second Ten", "10"},
		{"Fifteen", "15"},
	} {
		d := &model.Discount{
			Name:      spec.name,
			Type:      model.DiscountPercentage,
			Value:     dec(spec.value),
			AppliesTo: model.AppliesToAllProducts,
			StartDate: start,
			EndDate:   end,
			IsActive:  true,
		}
		d.CreatedAt = base.Add(time.Duration(i) * time.Second)
		if err := env.db.Create(d).Error; err != nil {
			t.Fatalf("seed %s: %v", spec.name, err)
		}
	}

	result, err := env.svc.Applicable(nil, time.Now())
	if err != nil {
		t.Fatalf("applicable: %v", err)
	}
	if result.WholeCart == nil || result.WholeCart.Name != "Fifteen" {
		t.Fatalf("expected greatest value to win the whole-cart slot")
	}

	// Drop the 15 and the tie resolves to the earliest created.
	if err := env.db.Where("name = ?", "Fifteen").Delete(&model.Discount{}).Error; err != nil {
		t.Fatalf("delete: %v", err)
	}
	result, err = env.svc.Applicable(nil, time.Now())
	if err != nil {
		t.Fatalf("applicable: %v", err)
	}
	if result.WholeCart == nil || result.WholeCart.Name != "First Ten" {
		t.Fatalf("expected first-seen to win a value tie, got %v", result.WholeCart)
	}
}

func TestCreateDiscountPercentageBounds(t *testing.T) {
	env := newDiscountEnv(t)
	start, end := discountWindow()

	_, err := env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:      "Too Big",
		Type:      model.DiscountPercentage,
		Value:     dec("150"),
		AppliesTo: model.AppliesToAllProducts,
		StartDate: start,
		EndDate:   end,
	}, "tester")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for >100%%, got %v", err)
	}

	_, err = env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:      "Negative",
		Type:      model.DiscountFixedAmount,
		Value:     dec("-10"),
		AppliesTo: model.AppliesToAllProducts,
		StartDate: start,
		EndDate:   end,
	}, "tester")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for negative value, got %v", err)
	}
}

func TestCreateDiscountRejectsInvertedWindow(t *testing.T) {
	env := newDiscountEnv(t)
	start, end := discountWindow()

	_, err := env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:      "Inverted",
		Type:      model.DiscountPercentage,
		Value:     dec("10"),
		AppliesTo: model.AppliesToAllProducts,
		StartDate: end,
		EndDate:   start,
	}, "tester")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateDiscountSpecificRequiresProducts(t *testing.T) {
	env := newDiscountEnv(t)
	start, end := discountWindow()

	_, err := env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:      "No Products",
		Type:      model.DiscountPercentage,
		Value:     dec("10"),
		AppliesTo: model.AppliesToSpecificProducts,
		StartDate: start,
		EndDate:   end,
	}, "tester")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for empty product set, got %v", err)
	}

	_, err = env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:       "Ghost Product",
		Type:       model.DiscountPercentage,
		Value:      dec("10"),
		AppliesTo:  model.AppliesToSpecificProducts,
		StartDate:  start,
		EndDate:    end,
		ProductIDs: []uuid.UUID{uuid.New()},
	}, "tester")
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for unknown product id, got %v", err)
	}
}

func TestCreateDiscountAttachesProducts(t *testing.T) {
	env := newDiscountEnv(t)
	a := seedProduct(t, env.db, "Attach A", "10", 5)
	b := seedProduct(t, env.db, "Attach B", "10", 5)
	start, end := discountWindow()

	created, err := env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:       "Bundle",
		Type:       model.DiscountFixedAmount,
		Value:      dec("5"),
		AppliesTo:  model.AppliesToSpecificProducts,
		StartDate:  start,
		EndDate:    end,
		ProductIDs: []uuid.UUID{a.ID, b.ID},
	}, "tester")
	if err != nil {
		t.Fatalf("create discount: %v", err)
	}
	if len(created.Products) != 2 {
		t.Fatalf("expected 2 attached products, got %d", len(created.Products))
	}
}

func TestUpdateDiscountAppliesMembershipDelta(t *testing.T) {
	env := newDiscountEnv(t)
	a := seedProduct(t, env.db, "Delta A", "10", 5)
	b := seedProduct(t, env.db, "Delta B", "10", 5)
	c := seedProduct(t, env.db, "Delta C", "10", 5)
	start, end := discountWindow()

	created, err := env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:       "Shifting Set",
		Type:       model.DiscountFixedAmount,
		Value:      dec("5"),
		AppliesTo:  model.AppliesToSpecificProducts,
		StartDate:  start,
		EndDate:    end,
		ProductIDs: []uuid.UUID{a.ID, b.ID},
	}, "tester")
	if err != nil {
		t.Fatalf("create discount: %v", err)
	}

	update := &UpdateDiscountRequest{
		Name:       "Shifting Set",
		Type:       model.DiscountFixedAmount,
		Value:      dec("5"),
		AppliesTo:  model.AppliesToSpecificProducts,
		StartDate:  start,
		EndDate:    end,
		ProductIDs: []uuid.UUID{b.ID, c.ID},
	}
	updated, err := env.svc.UpdateDiscount(created.ID, update, "tester")
	if err != nil {
		t.Fatalf("update discount: %v", err)
	}
	if len(updated.Products) != 2 {
		t.Fatalf("expected membership {B, C}, got %d products", len(updated.Products))
	}
	for _, p := range updated.Products {
		if p.ID == a.ID {
			t.Fatalf("product A should have been detached")
		}
	}

	// Re-applying the same set is a no-op, not duplicate join rows.
	if _, err := env.svc.UpdateDiscount(created.ID, update, "tester"); err != nil {
		t.Fatalf("idempotent update: %v", err)
	}
	if n := membershipCount(t, env.db, created.ID); n != 2 {
		t.Fatalf("expected 2 join rows, got %d", n)
	}
}

func TestUpdateDiscountScopeSwitchDetachesProducts(t *testing.T) {
	env := newDiscountEnv(t)
	a := seedProduct(t, env.db, "Detach A", "10", 5)
	start, end := discountWindow()

	created, err := env.svc.CreateDiscount(&CreateDiscountRequest{
		Name:       "Narrow Then Wide",
		Type:       model.DiscountFixedAmount,
		Value:      dec("5"),
		AppliesTo:  model.AppliesToSpecificProducts,
		StartDate:  start,
		EndDate:    end,
		ProductIDs: []uuid.UUID{a.ID},
	}, "tester")
	if err != nil {
		t.Fatalf("create discount: %v", err)
	}

	_, err = env.svc.UpdateDiscount(created.ID, &UpdateDiscountRequest{
		Name:      "Narrow Then Wide",
		Type:      model.DiscountFixedAmount,
		Value:     dec("5"),
		AppliesTo: model.AppliesToAllProducts,
		StartDate: start,
		EndDate:   end,
	}, "tester")
	if err != nil {
		t.Fatalf("update discount: %v", err)
	}
	if n := membershipCount(t, env.db, created.ID); n != 0 {
		t.Fatalf("expected scope switch to detach all products, got %d", n)
	}
}

func TestDeleteDiscountUnknownID(t *testing.T) {
	env := newDiscountEnv(t)
	if err := env.svc.DeleteDiscount(uuid.New()); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
