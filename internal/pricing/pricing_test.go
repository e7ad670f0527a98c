package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestResolveTierPrices(t *testing.T) {
	unit, semi, wholesale := d(100), d(90), d(80)

	if got := Resolve(unit, semi, wholesale, domain.TierUnit); !got.Equal(unit) {
		t.Fatalf("unit tier: expected 100, got %s", got)
	}
	if got := Resolve(unit, semi, wholesale, domain.TierSemiWholesale); !got.Equal(semi) {
		t.Fatalf("semi tier: expected 90, got %s", got)
	}
	if got := Resolve(unit, semi, wholesale, domain.TierWholesale); !got.Equal(wholesale) {
		t.Fatalf("wholesale tier: expected 80, got %s", got)
	}
}

func TestResolveUnsetTierFallsToUnit(t *testing.T) {
	// An unset wholesale price falls straight to unit, never to semi.
	if got := Resolve(d(100), d(90), decimal.Zero, domain.TierWholesale); !got.Equal(d(100)) {
		t.Fatalf("expected fallback to unit 100, got %s", got)
	}
	if got := Resolve(d(100), decimal.Zero, d(80), domain.TierSemiWholesale); !got.Equal(d(100)) {
		t.Fatalf("expected fallback to unit 100, got %s", got)
	}
}

func TestResolveNegativeUnitClampsToZero(t *testing.T) {
	if got := Resolve(d(-5), decimal.Zero, decimal.Zero, domain.TierUnit); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}

func TestForVariantAndProduct(t *testing.T) {
	v := domain.ProductVariant{Price: d(100), PriceWholesale: d(80)}
	if got := ForVariant(v, domain.TierWholesale); !got.Equal(d(80)) {
		t.Fatalf("expected 80, got %s", got)
	}
	p := domain.Product{Price: d(10000)}
	if got := ForProduct(p, domain.TierSemiWholesale); !got.Equal(d(10000)) {
		t.Fatalf("expected 10000, got %s", got)
	}
}
