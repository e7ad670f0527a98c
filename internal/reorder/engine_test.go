package reorder

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/ledger"
	"geraipos/client/internal/mirror"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func seedMirror(t *testing.T) *mirror.Store {
	t.Helper()
	m := mirror.New()
	m.Init("main-store")

	m.UpsertProduct(domain.Product{ID: "p1", StoreID: "main-store", Name: "Beras", Type: domain.ProductGood, SupplierID: "sup-1"})
	m.UpsertVariant(domain.ProductVariant{
		ID: "v1", ProductID: "p1", StoreID: "main-store", Name: "5kg",
		PurchasePrice: d(68000), LowStockThreshold: d(4),
	})
	m.UpsertVariant(domain.ProductVariant{
		ID: "v2", ProductID: "p1", StoreID: "main-store", Name: "10kg",
		PurchasePrice: d(134000), LowStockThreshold: d(2),
	})
	m.UpsertBatch(domain.StockBatch{ID: "b1", VariantID: "v1", StoreID: "main-store", Quantity: d(3), CreatedAt: time.Now().UTC()})
	m.UpsertBatch(domain.StockBatch{ID: "b2", VariantID: "v2", StoreID: "main-store", Quantity: d(10), CreatedAt: time.Now().UTC()})
	return m
}

func TestSuggestOnlyLowStockVariants(t *testing.T) {
	m := seedMirror(t)
	engine := NewEngine(nil, time.Second)

	suggestions, err := engine.Suggest(context.Background(), m, ledger.New(m))
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected one suggestion, got %d", len(suggestions))
	}

	sg := suggestions[0]
	if sg.VariantID != "v1" || sg.SupplierID != "sup-1" {
		t.Fatalf("unexpected suggestion: %+v", sg)
	}
	// 2*threshold - onHand = 8 - 3 = 5.
	if !sg.RecommendedQty.Equal(d(5)) {
		t.Fatalf("expected recommended 5, got %s", sg.RecommendedQty)
	}
	if !sg.EstimatedCost.Equal(d(5 * 68000)) {
		t.Fatalf("expected estimate %d, got %s", 5*68000, sg.EstimatedCost)
	}
}

func TestSuggestReactsToMutations(t *testing.T) {
	m := seedMirror(t)
	engine := NewEngine(nil, time.Minute)
	l := ledger.New(m)

	first, err := engine.Suggest(context.Background(), m, l)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected one suggestion, got %d", len(first))
	}

	m.UpsertBatch(domain.StockBatch{ID: "b3", VariantID: "v1", StoreID: "main-store", Quantity: d(20), CreatedAt: time.Now().UTC()})
	second, err := engine.Suggest(context.Background(), m, l)
	if err != nil {
		t.Fatalf("suggest after restock: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("restocked variant must drop out of suggestions, got %v", second)
	}
}
