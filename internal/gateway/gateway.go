// Package gateway defines the contract the client consumes from the
// authoritative remote store. Compound endpoints are expected to be
// server-side atomic: a single call either fully applies or fully fails.
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
)

var (
	ErrNotFound = errors.New("not found")
	ErrRejected = errors.New("rejected by remote store")
)

type Gateway interface {
	// Bulk listing, used to repopulate the local mirror in full on login.
	ListProducts(ctx context.Context, storeID string) ([]domain.Product, error)
	ListVariants(ctx context.Context, storeID string) ([]domain.ProductVariant, error)
	ListStockBatches(ctx context.Context, storeID string) ([]domain.StockBatch, error)
	ListSales(ctx context.Context, storeID string) ([]domain.Sale, error)
	ListReturns(ctx context.Context, storeID string) ([]domain.Return, error)
	ListPurchases(ctx context.Context, storeID string) ([]domain.Purchase, error)
	ListCustomers(ctx context.Context, storeID string) ([]domain.Customer, error)
	ListSuppliers(ctx context.Context, storeID string) ([]domain.Supplier, error)
	ListCategories(ctx context.Context, storeID string) ([]domain.Category, error)
	ListUsers(ctx context.Context, storeID string) ([]domain.User, error)

	// Simple entities managed directly by the client.
	CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, storeID string, customerID string) error
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, storeID string, supplierID string) error
	CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error)
	DeleteCategory(ctx context.Context, storeID string, categoryID string) error

	// Return history maintenance.
	DeleteReturn(ctx context.Context, storeID string, returnID string) error
	ClearReturns(ctx context.Context, storeID string) error

	// Compound endpoints (single server-side transaction each).
	CompleteSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	ProcessReturn(ctx context.Context, ret domain.Return) (*domain.Return, error)
	AddStock(ctx context.Context, storeID string, input domain.AddStockInput) (*domain.AddStockResult, error)
	PayCustomerDebt(ctx context.Context, storeID string, customerID string, userID string, amount decimal.Decimal) (*domain.DebtPaymentResult, error)
	PaySupplierDebt(ctx context.Context, storeID string, supplierID string, amount decimal.Decimal) ([]domain.Purchase, error)
	AddProductWithVariants(ctx context.Context, input domain.UpsertProductInput) (*domain.UpsertProductResult, error)
	UpdateProductWithVariants(ctx context.Context, input domain.UpsertProductInput) (*domain.UpsertProductResult, error)
	DeleteProduct(ctx context.Context, storeID string, productID string) error
}
