// Package pricing resolves the selling price for a line given the active
// price tier. The fallback chain is fixed: a tier price applies only when
// set and positive, otherwise resolution falls through to the unit price.
package pricing

import (
	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
)

// Resolve applies the tier fallback chain to a (unit, semi, wholesale)
// price triple. Unset tiers are zero.
func Resolve(unit, semi, wholesale decimal.Decimal, tier domain.PriceTier) decimal.Decimal {
	if tier == domain.TierWholesale && wholesale.IsPositive() {
		return wholesale
	}
	if tier == domain.TierSemiWholesale && semi.IsPositive() {
		return semi
	}
	if unit.IsNegative() {
		return decimal.Zero
	}
	return unit
}

func ForVariant(v domain.ProductVariant, tier domain.PriceTier) decimal.Decimal {
	return Resolve(v.Price, v.PriceSemiWholesale, v.PriceWholesale, tier)
}

func ForProduct(p domain.Product, tier domain.PriceTier) decimal.Decimal {
	return Resolve(p.Price, p.PriceSemiWholesale, p.PriceWholesale, tier)
}
