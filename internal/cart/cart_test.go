package cart

import (
	"testing"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func testVariant() domain.ProductVariant {
	return domain.ProductVariant{
		ID:             "var-1",
		ProductID:      "prod-1",
		Name:           "1kg",
		Price:          d(100),
		PriceWholesale: d(80),
		PurchasePrice:  d(70),
	}
}

func TestAddVariantIncrementsAndCapsAtStock(t *testing.T) {
	c := New()
	v := testVariant()

	c.AddVariant(v, d(2), domain.TierUnit)
	c.AddVariant(v, d(2), domain.TierUnit)
	c.AddVariant(v, d(2), domain.TierUnit)

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if !items[0].Quantity.Equal(d(2)) {
		t.Fatalf("expected quantity capped at stock 2, got %s", items[0].Quantity)
	}
}

func TestAddVariantCapTracksCurrentStock(t *testing.T) {
	c := New()
	v := testVariant()

	c.AddVariant(v, d(2), domain.TierUnit)
	c.AddVariant(v, d(2), domain.TierUnit)
	c.AddVariant(v, d(10), domain.TierUnit)
	if got := c.Items()[0].Quantity; !got.Equal(d(3)) {
		t.Fatalf("a restock must raise the cap, got %s", got)
	}

	c.AddVariant(v, d(1), domain.TierUnit)
	if got := c.Items()[0]; !got.Quantity.Equal(d(1)) || !got.Stock.Equal(d(1)) {
		t.Fatalf("a stock drop must clamp quantity and refresh the snapshot, got qty %s stock %s",
			got.Quantity, got.Stock)
	}
}

func TestReturnModeIgnoresStockCap(t *testing.T) {
	c := New()
	c.SetReturnMode(true)
	v := testVariant()

	c.AddVariant(v, d(1), domain.TierUnit)
	c.AddVariant(v, d(1), domain.TierUnit)
	c.AddVariant(v, d(1), domain.TierUnit)

	if got := c.Items()[0].Quantity; !got.Equal(d(3)) {
		t.Fatalf("return mode must not cap at stock, got %s", got)
	}
}

func TestQuantityAndPriceFloors(t *testing.T) {
	c := New()
	v := testVariant()
	c.AddVariant(v, d(10), domain.TierUnit)

	c.SetQuantity(v.ID, decimal.NewFromFloat(0.1))
	if got := c.Items()[0].Quantity; !got.Equal(MinQuantity) {
		t.Fatalf("expected quantity floored at %s, got %s", MinQuantity, got)
	}

	c.SetPrice(v.ID, d(-10))
	if got := c.Items()[0].Price; !got.IsZero() {
		t.Fatalf("expected price floored at 0, got %s", got)
	}
}

func TestFractionalQuantity(t *testing.T) {
	c := New()
	v := testVariant()
	c.AddVariant(v, d(10), domain.TierUnit)

	half := decimal.NewFromFloat(0.5)
	c.SetQuantity(v.ID, half)
	if got := c.Items()[0].Quantity; !got.Equal(half) {
		t.Fatalf("expected 0.5, got %s", got)
	}
	if got := c.Subtotal(); !got.Equal(d(50)) {
		t.Fatalf("expected subtotal 50, got %s", got)
	}
}

func TestRepricePreservesQuantitiesAndSkipsCustom(t *testing.T) {
	c := New()
	v := testVariant()
	p := domain.Product{ID: "prod-2", Name: "Jasa Giling", Type: domain.ProductService, Price: d(10000)}

	c.AddVariant(v, d(10), domain.TierUnit)
	c.SetQuantity(v.ID, d(4))
	svcID := c.AddService(p, domain.TierUnit)
	customID := c.AddCustom("Ongkir", d(5000))

	c.Reprice(domain.TierWholesale,
		func(id string) (domain.ProductVariant, bool) {
			if id == v.ID {
				return v, true
			}
			return domain.ProductVariant{}, false
		},
		func(id string) (domain.Product, bool) {
			if id == p.ID {
				return p, true
			}
			return domain.Product{}, false
		},
	)

	byID := make(map[string]domain.CartItem)
	for _, item := range c.Items() {
		byID[item.LineID] = item
	}
	if got := byID[v.ID]; !got.Price.Equal(d(80)) || !got.Quantity.Equal(d(4)) {
		t.Fatalf("good line after reprice: price %s qty %s", got.Price, got.Quantity)
	}
	if got := byID[svcID]; !got.Price.Equal(d(10000)) {
		t.Fatalf("service line resolves through product, got %s", got.Price)
	}
	if got := byID[customID]; !got.Price.Equal(d(5000)) {
		t.Fatalf("custom line must keep manual price, got %s", got.Price)
	}
}

func TestModeSwitchClearsCart(t *testing.T) {
	c := New()
	c.AddVariant(testVariant(), d(10), domain.TierUnit)

	c.SetReturnMode(true)
	if c.Len() != 0 {
		t.Fatalf("switching into return mode must clear the cart")
	}

	c.AddVariant(testVariant(), d(10), domain.TierUnit)
	c.SetReturnMode(true)
	if c.Len() != 1 {
		t.Fatalf("setting the same mode must not clear the cart")
	}
	c.SetReturnMode(false)
	if c.Len() != 0 {
		t.Fatalf("switching out of return mode must clear the cart")
	}
}

func TestItemsKeepInsertionOrder(t *testing.T) {
	c := New()
	c.AddCustom("first", d(1))
	c.AddCustom("second", d(2))
	c.AddCustom("third", d(3))
	c.Remove(c.Items()[1].LineID)

	items := c.Items()
	if len(items) != 2 || items[0].Name != "first" || items[1].Name != "third" {
		t.Fatalf("unexpected order: %v", items)
	}
}
