package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/mirror"
)

const storeID = "main-store"

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func batch(id, variantID string, qty int64) domain.StockBatch {
	return domain.StockBatch{
		ID: id, VariantID: variantID, StoreID: storeID,
		Quantity: d(qty), CreatedAt: time.Now().UTC(),
	}
}

func goodSale(id, variantID string, qty int64) domain.Sale {
	return domain.Sale{
		ID: id, StoreID: storeID, Date: time.Now().UTC(),
		Items: []domain.SaleItem{{ID: variantID, Kind: domain.LineGood, Quantity: d(qty)}},
	}
}

func goodReturn(id, variantID string, qty int64) domain.Return {
	return domain.Return{
		ID: id, StoreID: storeID, Date: time.Now().UTC(),
		Items: []domain.SaleItem{{ID: variantID, Kind: domain.LineGood, Quantity: d(qty)}},
	}
}

func TestStockDerivation(t *testing.T) {
	m := mirror.New()
	m.Init(storeID)
	l := New(m)

	m.UpsertBatch(batch("b1", "var-1", 10))
	m.UpsertBatch(batch("b2", "var-1", 5))
	if got := l.Stock("var-1"); !got.Equal(d(15)) {
		t.Fatalf("after two batches expected 15, got %s", got)
	}

	m.UpsertSale(goodSale("s1", "var-1", 12))
	if got := l.Stock("var-1"); !got.Equal(d(3)) {
		t.Fatalf("after sale of 12 expected 3, got %s", got)
	}

	m.UpsertReturn(goodReturn("r1", "var-1", 2))
	if got := l.Stock("var-1"); !got.Equal(d(5)) {
		t.Fatalf("after return of 2 expected 5, got %s", got)
	}
}

func TestStockFoldIsCommutative(t *testing.T) {
	forward := mirror.New()
	forward.Init(storeID)
	forward.UpsertBatch(batch("b1", "var-1", 10))
	forward.UpsertSale(goodSale("s1", "var-1", 4))
	forward.UpsertReturn(goodReturn("r1", "var-1", 1))

	reversed := mirror.New()
	reversed.Init(storeID)
	reversed.UpsertReturn(goodReturn("r1", "var-1", 1))
	reversed.UpsertSale(goodSale("s1", "var-1", 4))
	reversed.UpsertBatch(batch("b1", "var-1", 10))

	a := New(forward).Stock("var-1")
	b := New(reversed).Stock("var-1")
	if !a.Equal(b) || !a.Equal(d(7)) {
		t.Fatalf("fold order changed the result: %s vs %s", a, b)
	}
}

func TestServiceAndCustomLinesNeverTouchStock(t *testing.T) {
	m := mirror.New()
	m.Init(storeID)
	l := New(m)

	m.UpsertBatch(batch("b1", "var-1", 10))
	m.UpsertSale(domain.Sale{
		ID: "s1", StoreID: storeID, Date: time.Now().UTC(),
		Items: []domain.SaleItem{
			{ID: "svc-1", Kind: domain.LineService, Quantity: d(2)},
			{ID: "custom-1", Kind: domain.LineCustom, Quantity: d(3)},
			{ID: "var-1", Kind: domain.LineGood, Quantity: d(1)},
		},
	})

	if got := l.Stock("var-1"); !got.Equal(d(9)) {
		t.Fatalf("expected 9, got %s", got)
	}
	stock := l.StockMap()
	if !stock["svc-1"].IsZero() || !stock["custom-1"].IsZero() {
		t.Fatalf("service/custom lines leaked into stock: %v", stock)
	}
}

func TestLowStock(t *testing.T) {
	m := mirror.New()
	m.Init(storeID)
	l := New(m)

	v := domain.ProductVariant{ID: "var-1", ProductID: "prod-1", StoreID: storeID, Name: "1kg", LowStockThreshold: d(3)}
	m.UpsertVariant(v)
	m.UpsertBatch(batch("b1", "var-1", 10))
	if l.IsLowStock(v) {
		t.Fatalf("10 on hand with threshold 3 should not be low")
	}

	m.UpsertSale(goodSale("s1", "var-1", 7))
	if !l.IsLowStock(v) {
		t.Fatalf("3 on hand with threshold 3 should be low")
	}
	lows := l.LowStockVariants()
	if len(lows) != 1 || lows[0].ID != "var-1" {
		t.Fatalf("expected var-1 in low-stock list, got %v", lows)
	}
}

func TestDebtDerivation(t *testing.T) {
	m := mirror.New()
	m.Init(storeID)
	l := New(m)

	m.UpsertSale(domain.Sale{
		ID: "s1", StoreID: storeID, CustomerID: "cust-1", Date: time.Now().UTC(),
		Total: d(100), DownPayment: d(40), RemainingAmount: d(60),
	})
	m.UpsertSale(domain.Sale{
		ID: "s2", StoreID: storeID, CustomerID: "cust-1", Date: time.Now().UTC(),
		Total: d(50), DownPayment: d(50), RemainingAmount: decimal.Zero,
	})
	m.UpsertSale(domain.Sale{
		ID: "s3", StoreID: storeID, Date: time.Now().UTC(),
		Total: d(80), DownPayment: d(30), RemainingAmount: d(50),
	})

	if got := l.CustomerDebt("cust-1"); !got.Equal(d(60)) {
		t.Fatalf("expected debt 60, got %s", got)
	}
	debts := l.DebtByCustomer()
	if len(debts) != 1 {
		t.Fatalf("walk-in sales must not create debt entries: %v", debts)
	}

	m.UpsertPurchase(domain.Purchase{
		ID: "p1", StoreID: storeID, SupplierID: "sup-1", Date: time.Now().UTC(),
		TotalAmount: d(200), AmountPaid: d(120), RemainingAmount: d(80),
	})
	if got := l.SupplierDebt("sup-1"); !got.Equal(d(80)) {
		t.Fatalf("expected supplier debt 80, got %s", got)
	}
}

func TestDebtRecomputesAfterSettlement(t *testing.T) {
	m := mirror.New()
	m.Init(storeID)
	l := New(m)

	sale := domain.Sale{
		ID: "s1", StoreID: storeID, CustomerID: "cust-1", Date: time.Now().UTC(),
		Total: d(100), DownPayment: d(40), RemainingAmount: d(60),
	}
	m.UpsertSale(sale)
	if got := l.CustomerDebt("cust-1"); !got.Equal(d(60)) {
		t.Fatalf("expected debt 60, got %s", got)
	}

	sale.DownPayment = d(100)
	sale.RemainingAmount = decimal.Zero
	m.UpsertSale(sale)
	if got := l.CustomerDebt("cust-1"); !got.IsZero() {
		t.Fatalf("expected debt 0 after settlement, got %s", got)
	}
}
