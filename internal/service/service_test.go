package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/gateway/memory"
	"geraipos/client/internal/reorder"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	svc := New(memory.NewSeeded("main-store"), reorder.NewEngine(nil, time.Second), logger)
	if err := svc.Init(context.Background(), "main-store"); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	svc.SetUser("user-test")
	return svc
}

func seededVariant(t *testing.T, svc *Service, barcode string) domain.ProductVariant {
	t.Helper()
	v, ok := svc.VariantByBarcode(barcode)
	if !ok {
		t.Fatalf("seeded variant %s not found", barcode)
	}
	return v
}

func seededProduct(t *testing.T, svc *Service, name string) domain.Product {
	t.Helper()
	for _, p := range svc.Products() {
		if p.Name == name {
			return p
		}
	}
	t.Fatalf("seeded product %s not found", name)
	return domain.Product{}
}

func TestCompleteSaleRequiresItems(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CompleteSale(context.Background(), domain.CompleteSaleRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty cart, got %v", err)
	}

	svc.SetReturnMode(true)
	if err := svc.AddVariantToCart(seededVariant(t, svc, "8991002101").ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	_, err = svc.CompleteSale(context.Background(), domain.CompleteSaleRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error in return mode, got %v", err)
	}
}

func TestCompleteSaleDerivesStock(t *testing.T) {
	svc := newTestService(t)
	v := seededVariant(t, svc, "8991002101") // Beras Premium 5kg, 20 on hand

	if got := svc.Stock(v.ID); !got.Equal(d(20)) {
		t.Fatalf("seeded stock: expected 20, got %s", got)
	}

	if err := svc.AddVariantToCart(v.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	svc.SetCartQuantity(v.ID, d(12))

	sale, err := svc.CompleteSale(context.Background(), domain.CompleteSaleRequest{})
	if err != nil {
		t.Fatalf("complete sale: %v", err)
	}
	if sale.ID == "" {
		t.Fatalf("expected server-assigned sale id")
	}
	if !sale.Total.Equal(d(78000 * 12)) {
		t.Fatalf("expected total %d, got %s", 78000*12, sale.Total)
	}
	if !sale.Profit.Equal(d((78000 - 68000) * 12)) {
		t.Fatalf("expected profit %d, got %s", (78000-68000)*12, sale.Profit)
	}

	if got := svc.Stock(v.ID); !got.Equal(d(8)) {
		t.Fatalf("derived stock after sale: expected 8, got %s", got)
	}
	if svc.CartLen() != 0 {
		t.Fatalf("cart must clear after a confirmed sale")
	}
}

func TestSaleFoldIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	v := seededVariant(t, svc, "8991002101")

	if err := svc.AddVariantToCart(v.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	svc.SetCartQuantity(v.ID, d(5))
	sale, err := svc.CompleteSale(context.Background(), domain.CompleteSaleRequest{})
	if err != nil {
		t.Fatalf("complete sale: %v", err)
	}

	before := svc.Stock(v.ID)
	svc.mirror.UpsertSale(*sale)
	svc.mirror.UpsertSale(*sale)
	if got := svc.Stock(v.ID); !got.Equal(before) {
		t.Fatalf("re-folding the same sale changed stock: %s vs %s", before, got)
	}
	if got := len(svc.Sales()); got != 1 {
		t.Fatalf("expected one sale, got %d", got)
	}
}

func TestCreditSaleAndDebtPayment(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	customer := svc.Customers()[0]

	if _, err := svc.AddCustomToCart("Ongkos kirim", d(100)); err != nil {
		t.Fatalf("add custom line: %v", err)
	}
	sale, err := svc.CompleteSale(ctx, domain.CompleteSaleRequest{
		CustomerID:  customer.ID,
		DownPayment: d(40),
	})
	if err != nil {
		t.Fatalf("credit sale: %v", err)
	}
	if !sale.RemainingAmount.Equal(d(60)) {
		t.Fatalf("expected remaining 60, got %s", sale.RemainingAmount)
	}
	if got := svc.CustomerDebt(customer.ID); !got.Equal(d(60)) {
		t.Fatalf("expected derived debt 60, got %s", got)
	}

	result, err := svc.PayCustomerDebt(ctx, customer.ID, d(60))
	if err != nil {
		t.Fatalf("pay debt: %v", err)
	}
	if !result.PaymentSale.Total.IsZero() {
		t.Fatalf("payment sale must have zero total, got %s", result.PaymentSale.Total)
	}
	if got := svc.CustomerDebt(customer.ID); !got.IsZero() {
		t.Fatalf("expected debt 0 after payment, got %s", got)
	}

	_, err = svc.PayCustomerDebt(ctx, customer.ID, d(1))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("paying settled debt must fail validation, got %v", err)
	}
}

func TestPartialDebtPaymentSettlesOldestFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	customer := svc.Customers()[0]

	for _, amount := range []int64{100, 200} {
		if _, err := svc.AddCustomToCart("Kredit", d(amount)); err != nil {
			t.Fatalf("add custom line: %v", err)
		}
		if _, err := svc.CompleteSale(ctx, domain.CompleteSaleRequest{CustomerID: customer.ID}); err != nil {
			t.Fatalf("credit sale: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}
	if got := svc.CustomerDebt(customer.ID); !got.Equal(d(300)) {
		t.Fatalf("expected debt 300, got %s", got)
	}

	result, err := svc.PayCustomerDebt(ctx, customer.ID, d(150))
	if err != nil {
		t.Fatalf("pay debt: %v", err)
	}
	if len(result.UpdatedSales) != 2 {
		t.Fatalf("150 should settle the first sale and dent the second, got %d updates", len(result.UpdatedSales))
	}
	if !result.UpdatedSales[0].RemainingAmount.IsZero() {
		t.Fatalf("oldest sale should be fully settled, remaining %s", result.UpdatedSales[0].RemainingAmount)
	}
	if got := svc.CustomerDebt(customer.ID); !got.Equal(d(150)) {
		t.Fatalf("expected remaining debt 150, got %s", got)
	}
}

func TestProcessReturnRestoresStock(t *testing.T) {
	svc := newTestService(t)
	v := seededVariant(t, svc, "8991002201") // Minyak Goreng 1L, 30 on hand

	_, err := svc.ProcessReturn(context.Background(), nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for empty return, got %v", err)
	}

	ret, err := svc.ProcessReturn(context.Background(), []domain.SaleItem{{
		ID:            v.ID,
		ProductID:     v.ProductID,
		Kind:          domain.LineGood,
		Name:          v.Name,
		Price:         v.Price,
		Quantity:      d(2),
		PurchasePrice: v.PurchasePrice,
	}})
	if err != nil {
		t.Fatalf("process return: %v", err)
	}
	if !ret.RefundAmount.Equal(v.Price.Mul(d(2))) {
		t.Fatalf("expected refund %s, got %s", v.Price.Mul(d(2)), ret.RefundAmount)
	}
	if got := svc.Stock(v.ID); !got.Equal(d(32)) {
		t.Fatalf("expected stock 32 after return, got %s", got)
	}
	if len(svc.Returns()) != 1 {
		t.Fatalf("expected one return folded in")
	}
}

func TestAddStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	v := seededVariant(t, svc, "8991002301") // Gula Pasir 1kg, 25 on hand
	purchasesBefore := len(svc.Purchases())

	result, err := svc.AddStock(ctx, domain.AddStockInput{
		VariantID:     v.ID,
		Quantity:      d(10),
		PurchasePrice: d(15500),
		SellingPrice:  d(18000),
	})
	if err != nil {
		t.Fatalf("add stock: %v", err)
	}
	if got := svc.Stock(v.ID); !got.Equal(d(35)) {
		t.Fatalf("expected stock 35, got %s", got)
	}
	if !result.Variant.Price.Equal(d(18000)) {
		t.Fatalf("variant should be repriced to 18000, got %s", result.Variant.Price)
	}
	if len(svc.Purchases()) != purchasesBefore+1 {
		t.Fatalf("expected a purchase record to be folded in")
	}
}

func TestAddStockRejectsBadPricing(t *testing.T) {
	svc := newTestService(t)
	v := seededVariant(t, svc, "8991002301")
	stockBefore := svc.Stock(v.ID)
	purchasesBefore := len(svc.Purchases())

	for _, selling := range []int64{15000, 15500, 0, -1} {
		_, err := svc.AddStock(context.Background(), domain.AddStockInput{
			VariantID:     v.ID,
			Quantity:      d(10),
			PurchasePrice: d(15500),
			SellingPrice:  d(selling),
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("selling price %d must fail validation, got %v", selling, err)
		}
	}

	if got := svc.Stock(v.ID); !got.Equal(stockBefore) {
		t.Fatalf("failed restock must leave stock untouched")
	}
	if len(svc.Purchases()) != purchasesBefore {
		t.Fatalf("failed restock must leave purchases untouched")
	}
}

func TestUpsertProductCreate(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.UpsertProductWithVariants(context.Background(),
		domain.Product{Name: "Telur Ayam", Type: domain.ProductGood},
		[]domain.VariantForm{
			{Name: "10 butir", Price: d(28000), PurchasePrice: d(24000), AddedStock: d(12)},
			{Name: "30 butir", Price: d(80000), PurchasePrice: d(70000)},
		})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if result.Product.ID == "" {
		t.Fatalf("expected server-assigned product id")
	}
	if len(result.InsertedVariants) != 2 || len(result.NewBatches) != 1 {
		t.Fatalf("expected 2 variants and 1 batch, got %d/%d", len(result.InsertedVariants), len(result.NewBatches))
	}
	if got := svc.Stock(result.NewBatches[0].VariantID); !got.Equal(d(12)) {
		t.Fatalf("expected initial stock 12, got %s", got)
	}
}

func TestUpsertProductUpdateDiffsVariants(t *testing.T) {
	svc := newTestService(t)
	product := seededProduct(t, svc, "Beras Premium")
	keep := seededVariant(t, svc, "8991002101") // 5kg
	drop := seededVariant(t, svc, "8991002102") // 10kg

	result, err := svc.UpsertProductWithVariants(context.Background(), product,
		[]domain.VariantForm{
			{
				ID:                keep.ID,
				Name:              "5 kg karung",
				Price:             keep.Price,
				PurchasePrice:     keep.PurchasePrice,
				Barcode:           keep.Barcode,
				LowStockThreshold: keep.LowStockThreshold,
			},
			{Name: "25kg", Price: d(360000), PurchasePrice: d(330000), AddedStock: d(3)},
		})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if len(result.UpdatedVariants) != 1 || len(result.InsertedVariants) != 1 {
		t.Fatalf("expected 1 update and 1 insert, got %d/%d", len(result.UpdatedVariants), len(result.InsertedVariants))
	}
	if len(result.DeletedVariantIDs) != 1 || result.DeletedVariantIDs[0] != drop.ID {
		t.Fatalf("variant missing from the form set must be deleted, got %v", result.DeletedVariantIDs)
	}

	if _, ok := svc.mirror.VariantByID(drop.ID); ok {
		t.Fatalf("deleted variant still in mirror")
	}
	updated, ok := svc.mirror.VariantByID(keep.ID)
	if !ok || updated.Name != "5 kg karung" {
		t.Fatalf("expected renamed variant, got %+v", updated)
	}
	if got := svc.Stock(result.InsertedVariants[0].ID); !got.Equal(d(3)) {
		t.Fatalf("expected new variant stock 3, got %s", got)
	}
}

func TestDeleteProductCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	product := seededProduct(t, svc, "Minyak Goreng")
	v := seededVariant(t, svc, "8991002201")

	if err := svc.AddVariantToCart(v.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if _, err := svc.CompleteSale(ctx, domain.CompleteSaleRequest{}); err != nil {
		t.Fatalf("sale before delete: %v", err)
	}

	if err := svc.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if _, ok := svc.mirror.ProductByID(product.ID); ok {
		t.Fatalf("product still in mirror")
	}
	if _, ok := svc.mirror.VariantByID(v.ID); ok {
		t.Fatalf("owned variant still in mirror")
	}

	sales := svc.Sales()
	if len(sales) != 1 || sales[0].Items[0].Name != v.Name {
		t.Fatalf("historical sale lines must keep their snapshots")
	}
}

func TestClearReturns(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	v := seededVariant(t, svc, "8991002101")

	if _, err := svc.ProcessReturn(ctx, []domain.SaleItem{{
		ID: v.ID, Kind: domain.LineGood, Name: v.Name, Price: v.Price, Quantity: d(1),
	}}); err != nil {
		t.Fatalf("process return: %v", err)
	}
	stockWithReturn := svc.Stock(v.ID)

	if err := svc.ClearReturns(ctx); err != nil {
		t.Fatalf("clear returns: %v", err)
	}
	if len(svc.Returns()) != 0 {
		t.Fatalf("returns should be cleared")
	}
	if got := svc.Stock(v.ID); got.Equal(stockWithReturn) {
		t.Fatalf("clearing returns must re-derive stock without them")
	}
}

func TestPriceTierSwitchRepricesCart(t *testing.T) {
	svc := newTestService(t)
	v := seededVariant(t, svc, "8991002101")

	if err := svc.AddVariantToCart(v.ID); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	svc.SetCartQuantity(v.ID, d(6))

	if err := svc.SetPriceTier(domain.TierWholesale); err != nil {
		t.Fatalf("set tier: %v", err)
	}
	items := svc.CartItems()
	if !items[0].Price.Equal(d(74000)) {
		t.Fatalf("expected wholesale price 74000, got %s", items[0].Price)
	}
	if !items[0].Quantity.Equal(d(6)) {
		t.Fatalf("reprice must preserve quantity, got %s", items[0].Quantity)
	}
}

func TestInitTeardownLifecycle(t *testing.T) {
	svc := newTestService(t)
	if len(svc.Variants()) == 0 {
		t.Fatalf("init should have populated the mirror")
	}

	svc.Teardown()
	if svc.StoreID() != "" || len(svc.Variants()) != 0 {
		t.Fatalf("teardown must unbind and empty the mirror")
	}

	if err := svc.Init(context.Background(), "main-store"); err != nil {
		t.Fatalf("re-init failed: %v", err)
	}
	if len(svc.Variants()) == 0 {
		t.Fatalf("re-init should repopulate the mirror")
	}
}

func TestCustomerLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateCustomer(ctx, domain.Customer{Name: "Pak Budi", Phone: "0812"})
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	created.Phone = "0813"
	if _, err := svc.UpdateCustomer(ctx, *created); err != nil {
		t.Fatalf("update customer: %v", err)
	}
	if err := svc.DeleteCustomer(ctx, created.ID); err != nil {
		t.Fatalf("delete customer: %v", err)
	}
	for _, c := range svc.Customers() {
		if c.ID == created.ID {
			t.Fatalf("deleted customer still in mirror")
		}
	}
}
