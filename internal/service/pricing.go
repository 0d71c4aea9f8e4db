package service

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"go-pos-kasir/internal/model"
)

var oneHundred = decimal.NewFromInt(100)

// PricedLine is the pricing engine's result for one cart line.
type PricedLine struct {
	UnitPrice     decimal.Decimal
	EffectiveType model.PriceType // tier actually charged after fallback
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
}

// ResolveUnitPrice picks the unit price for the requested tier. Asking for
// wholesale on a product without a wholesale price falls back to retail,
// and the returned tier records what was actually charged.
func ResolveUnitPrice(product *model.Product, requested model.PriceType) (decimal.Decimal, model.PriceType) {
	if requested == model.PriceWholesale {
		if product.WholesalePrice != nil {
			return *product.WholesalePrice, model.PriceWholesale
		}
		return product.RetailPrice, model.PriceRetail
	}
	return product.RetailPrice, model.PriceRetail
}

// discountValueOn computes the raw deduction a discount takes from base.
func discountValueOn(d *model.Discount, base decimal.Decimal) decimal.Decimal {
	if d.Type == model.DiscountPercentage {
		return base.Mul(d.Value).Div(oneHundred)
	}
	return d.Value
}

// coversProduct reports whether a specific-product discount addresses the
// given product. The resolver preloads the discounted set with ids only.
func coversProduct(d *model.Discount, productID uuid.UUID) bool {
	for _, p := range d.Products {
		if p.ID == productID {
			return true
		}
	}
	return false
}

// PriceLine prices one cart line: resolves the unit tier, computes the
// subtotal and applies every specific-product discount covering the product
// in resolved order. Discounts compose by remaining headroom: each
// contribution is clamped so the cumulative line discount never exceeds the
// line subtotal, and later discounts see the already-reduced room, not the
// full subtotal.
func PriceLine(product *model.Product, quantity int, requested model.PriceType, specific []model.Discount) PricedLine {
	unitPrice, effectiveType := ResolveUnitPrice(product, requested)
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	lineDiscount := decimal.Zero
	for i := range specific {
		d := &specific[i]
		if !coversProduct(d, product.ID) {
			continue
		}
		headroom := subtotal.Sub(lineDiscount)
		contribution := discountValueOn(d, subtotal)
		if contribution.GreaterThan(headroom) {
			contribution = headroom
		}
		lineDiscount = lineDiscount.Add(contribution)
	}

	return PricedLine{
		UnitPrice:     unitPrice,
		EffectiveType: effectiveType,
		Subtotal:      subtotal,
		Discount:      lineDiscount,
	}
}

// ApplyCartDiscount computes the whole-cart deduction against the sum of
// post-line-discount subtotals, clamped so it cannot exceed that sum.
func ApplyCartDiscount(remaining decimal.Decimal, wholeCart *model.Discount) decimal.Decimal {
	if wholeCart == nil {
		return decimal.Zero
	}
	amount := discountValueOn(wholeCart, remaining)
	if amount.GreaterThan(remaining) {
		amount = remaining
	}
	return amount
}

// ClampManualDiscount caps a caller-supplied discount at what is left of the
// total. Applied after specific-product and whole-cart discounts; the order
// is fixed policy.
func ClampManualDiscount(remaining, manual decimal.Decimal) decimal.Decimal {
	if manual.GreaterThan(remaining) {
		return remaining
	}
	return manual
}
