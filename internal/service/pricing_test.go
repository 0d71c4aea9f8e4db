package service

import (
	"testing"
	"time"

	"go-pos-kasir/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func pricingProduct(retail string, wholesale *string) *model.Product {
	p := &model.Product{
		Name:        "pricing-product",
		RetailPrice: dec(retail),
	}
	p.ID = uuid.New()
	if wholesale != nil {
		w := dec(*wholesale)
		p.WholesalePrice = &w
	}
	return p
}

func specificDiscount(dType model.DiscountType, value string, productIDs ...uuid.UUID) model.Discount {
	d := model.Discount{
		Name:      "specific",
		Type:      dType,
		Value:     dec(value),
		AppliesTo: model.AppliesToSpecificProducts,
		IsActive:  true,
	}
	d.ID = uuid.New()
	for _, id := range productIDs {
		p := model.Product{}
		p.ID = id
		d.Products = append(d.Products, p)
	}
	return d
}

func TestResolveUnitPriceWholesaleFallsBackToRetail(t *testing.T) {
	product := pricingProduct("100", nil)

	price, tier := ResolveUnitPrice(product, model.PriceWholesale)
	if !price.Equal(dec("100")) {
		t.Fatalf("expected retail price 100, got %s", price)
	}
	if tier != model.PriceRetail {
		t.Fatalf("expected recorded tier retail, got %s", tier)
	}
}

func TestResolveUnitPriceUsesWholesaleWhenSet(t *testing.T) {
	wholesale := "80"
	product := pricingProduct("100", &wholesale)

	price, tier := ResolveUnitPrice(product, model.PriceWholesale)
	if !price.Equal(dec("80")) {
		t.Fatalf("expected wholesale price 80, got %s", price)
	}
	if tier != model.PriceWholesale {
		t.Fatalf("expected recorded tier wholesale, got %s", tier)
	}
}

func TestPriceLinePercentageDiscount(t *testing.T) {
	product := pricingProduct("100", nil)
	discounts := []model.Discount{specificDiscount(model.DiscountPercentage, "10", product.ID)}

	priced := PriceLine(product, 2, model.PriceRetail, discounts)
	if !priced.Subtotal.Equal(dec("200")) {
		t.Fatalf("expected subtotal 200, got %s", priced.Subtotal)
	}
	if !priced.Discount.Equal(dec("20")) {
		t.Fatalf("expected discount 20, got %s", priced.Discount)
	}
}

func TestPriceLineStackedDiscountsClampToHeadroom(t *testing.T) {
	product := pricingProduct("50", nil)
	// Subtotal 100. First discount takes 80, the second is worth 50 but only
	// 20 of headroom remains.
	discounts := []model.Discount{
		specificDiscount(model.DiscountFixedAmount, "80", product.ID),
		specificDiscount(model.DiscountFixedAmount, "50", product.ID),
	}

	priced := PriceLine(product, 2, model.PriceRetail, discounts)
	if !priced.Discount.Equal(dec("100")) {
		t.Fatalf("expected discount clamped to subtotal 100, got %s", priced.Discount)
	}
}

func TestPriceLinePercentageComputedOnFullSubtotal(t *testing.T) {
	product := pricingProduct("100", nil)
	// The percentage contribution is computed against the subtotal, then
	// clamped to what remains: 50% of 100 = 50, headroom after the fixed 80
	// is 20.
	discounts := []model.Discount{
		specificDiscount(model.DiscountFixedAmount, "80", product.ID),
		specificDiscount(model.DiscountPercentage, "50", product.ID),
	}

	priced := PriceLine(product, 1, model.PriceRetail, discounts)
	if !priced.Discount.Equal(dec("100")) {
		t.Fatalf("expected discount 100, got %s", priced.Discount)
	}
}

func TestPriceLineIgnoresDiscountsForOtherProducts(t *testing.T) {
	product := pricingProduct("100", nil)
	discounts := []model.Discount{specificDiscount(model.DiscountPercentage, "10", uuid.New())}

	priced := PriceLine(product, 1, model.PriceRetail, discounts)
	if !priced.Discount.IsZero() {
		t.Fatalf("expected no discount, got %s", priced.Discount)
	}
}

func TestApplyCartDiscountClampsToRemaining(t *testing.T) {
	wholeCart := &model.Discount{
		Type:      model.DiscountFixedAmount,
		Value:     dec("500"),
		AppliesTo: model.AppliesToAllProducts,
		IsActive:  true,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(time.Hour),
	}

	amount := ApplyCartDiscount(dec("100"), wholeCart)
	if !amount.Equal(dec("100")) {
		t.Fatalf("expected cart discount clamped to 100, got %s", amount)
	}
}

func TestApplyCartDiscountPercentageOfRemaining(t *testing.T) {
	wholeCart := &model.Discount{
		Type:      model.DiscountPercentage,
		Value:     dec("10"),
		AppliesTo: model.AppliesToAllProducts,
	}

	amount := ApplyCartDiscount(dec("90"), wholeCart)
	if !amount.Equal(dec("9")) {
		t.Fatalf("expected 10%% of 90 = 9, got %s", amount)
	}
}

func TestApplyCartDiscountNilIsZero(t *testing.T) {
	if amount := ApplyCartDiscount(dec("100"), nil); !amount.IsZero() {
		t.Fatalf("expected zero, got %s", amount)
	}
}

func TestClampManualDiscount(t *testing.T) {
	if got := ClampManualDiscount(dec("100"), dec("150")); !got.Equal(dec("100")) {
		t.Fatalf("expected clamp to 100, got %s", got)
	}
	if got := ClampManualDiscount(dec("100"), dec("30")); !got.Equal(dec("30")) {
		t.Fatalf("expected 30, got %s", got)
	}
}
