package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/pricing"
)

// Read views over the mirror and its derived state.

func (s *Service) Products() []domain.Product        { return s.mirror.Products() }
func (s *Service) Variants() []domain.ProductVariant { return s.mirror.Variants() }
func (s *Service) Sales() []domain.Sale              { return s.mirror.Sales() }
func (s *Service) Returns() []domain.Return          { return s.mirror.Returns() }
func (s *Service) Purchases() []domain.Purchase      { return s.mirror.Purchases() }
func (s *Service) Customers() []domain.Customer      { return s.mirror.Customers() }
func (s *Service) Suppliers() []domain.Supplier      { return s.mirror.Suppliers() }
func (s *Service) Categories() []domain.Category     { return s.mirror.Categories() }
func (s *Service) Users() []domain.User              { return s.mirror.Users() }
func (s *Service) StoreID() string                   { return s.mirror.StoreID() }

func (s *Service) StockMap() map[string]decimal.Decimal { return s.ledger.StockMap() }
func (s *Service) Stock(variantID string) decimal.Decimal {
	return s.ledger.Stock(variantID)
}
func (s *Service) LowStockVariants() []domain.ProductVariant { return s.ledger.LowStockVariants() }

func (s *Service) DebtByCustomer() map[string]decimal.Decimal { return s.ledger.DebtByCustomer() }
func (s *Service) DebtBySupplier() map[string]decimal.Decimal { return s.ledger.DebtBySupplier() }
func (s *Service) CustomerDebt(customerID string) decimal.Decimal {
	return s.ledger.CustomerDebt(customerID)
}
func (s *Service) SupplierDebt(supplierID string) decimal.Decimal {
	return s.ledger.SupplierDebt(supplierID)
}

func (s *Service) VariantByBarcode(code string) (domain.ProductVariant, bool) {
	return s.mirror.VariantByBarcode(code)
}

// PriceFor resolves a variant's selling price under the active tier.
func (s *Service) PriceFor(v domain.ProductVariant) decimal.Decimal {
	return pricing.ForVariant(v, s.Tier())
}

func (s *Service) ReorderSuggestions(ctx context.Context) ([]domain.ReorderSuggestion, error) {
	return s.reorder.Suggest(ctx, s.mirror, s.ledger)
}

// Cart operations. The service owns the working cart so tier resolution and
// stock snapshots always come from the same mirror state.

func (s *Service) CartItems() []domain.CartItem { return s.cart.Items() }
func (s *Service) CartSubtotal() decimal.Decimal {
	return s.cart.Subtotal()
}
func (s *Service) CartLen() int         { return s.cart.Len() }
func (s *Service) ClearCart()           { s.cart.Clear() }
func (s *Service) CartReturnMode() bool { return s.cart.ReturnMode() }
func (s *Service) SetReturnMode(on bool) { s.cart.SetReturnMode(on) }

func (s *Service) AddVariantToCart(variantID string) error {
	v, ok := s.mirror.VariantByID(variantID)
	if !ok {
		return fmt.Errorf("add to cart: unknown variant %s: %w", variantID, ErrValidation)
	}
	s.cart.AddVariant(v, s.ledger.Stock(variantID), s.Tier())
	return nil
}

func (s *Service) AddServiceToCart(productID string) (string, error) {
	p, ok := s.mirror.ProductByID(productID)
	if !ok {
		return "", fmt.Errorf("add to cart: unknown product %s: %w", productID, ErrValidation)
	}
	if p.Type != domain.ProductService {
		return "", fmt.Errorf("add to cart: product %s is not a service: %w", productID, ErrValidation)
	}
	return s.cart.AddService(p, s.Tier()), nil
}

func (s *Service) AddCustomToCart(name string, price decimal.Decimal) (string, error) {
	if name == "" {
		return "", fmt.Errorf("add to cart: custom line needs a name: %w", ErrValidation)
	}
	return s.cart.AddCustom(name, price), nil
}

func (s *Service) RemoveCartLine(lineID string) { s.cart.Remove(lineID) }
func (s *Service) SetCartQuantity(lineID string, qty decimal.Decimal) {
	s.cart.SetQuantity(lineID, qty)
}
func (s *Service) SetCartPrice(lineID string, price decimal.Decimal) {
	s.cart.SetPrice(lineID, price)
}

// SetPriceTier switches the active tier and re-resolves every cart line,
// preserving quantities. Custom lines keep their manual prices.
func (s *Service) SetPriceTier(tier domain.PriceTier) error {
	if !tier.Valid() {
		return fmt.Errorf("set price tier: invalid tier %q: %w", tier, ErrValidation)
	}
	s.mu.Lock()
	s.tier = tier
	s.mu.Unlock()
	s.cart.Reprice(tier, s.mirror.VariantByID, s.mirror.ProductByID)
	return nil
}

func (s *Service) Tier() domain.PriceTier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tier
}

// Simple entity maintenance: write remote, fold on success.

func (s *Service) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, fmt.Errorf("create customer: name required: %w", ErrValidation)
	}
	customer.StoreID = s.mirror.StoreID()
	created, err := s.gw.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, remoteFail("create customer", err)
	}
	if created == nil {
		// Optional side path for sales that name a new customer inline; a
		// missing record must not block the caller.
		s.logger.WithField("name", customer.Name).Warn("remote store returned no customer record")
		return nil, nil
	}
	s.mirror.UpsertCustomer(*created)
	return created, nil
}

func (s *Service) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.ID == "" || customer.Name == "" {
		return nil, fmt.Errorf("update customer: id and name required: %w", ErrValidation)
	}
	customer.StoreID = s.mirror.StoreID()
	updated, err := s.gw.UpdateCustomer(ctx, customer)
	if err != nil {
		return nil, remoteFail("update customer", err)
	}
	s.mirror.UpsertCustomer(*updated)
	return updated, nil
}

func (s *Service) DeleteCustomer(ctx context.Context, customerID string) error {
	if customerID == "" {
		return fmt.Errorf("delete customer: id required: %w", ErrValidation)
	}
	if err := s.gw.DeleteCustomer(ctx, s.mirror.StoreID(), customerID); err != nil {
		return remoteFail("delete customer", err)
	}
	s.mirror.DeleteCustomer(customerID)
	return nil
}

func (s *Service) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, fmt.Errorf("create supplier: name required: %w", ErrValidation)
	}
	supplier.StoreID = s.mirror.StoreID()
	created, err := s.gw.CreateSupplier(ctx, supplier)
	if err != nil {
		return nil, remoteFail("create supplier", err)
	}
	s.mirror.UpsertSupplier(*created)
	return created, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.ID == "" || supplier.Name == "" {
		return nil, fmt.Errorf("update supplier: id and name required: %w", ErrValidation)
	}
	supplier.StoreID = s.mirror.StoreID()
	updated, err := s.gw.UpdateSupplier(ctx, supplier)
	if err != nil {
		return nil, remoteFail("update supplier", err)
	}
	s.mirror.UpsertSupplier(*updated)
	return updated, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, supplierID string) error {
	if supplierID == "" {
		return fmt.Errorf("delete supplier: id required: %w", ErrValidation)
	}
	if err := s.gw.DeleteSupplier(ctx, s.mirror.StoreID(), supplierID); err != nil {
		return remoteFail("delete supplier", err)
	}
	s.mirror.DeleteSupplier(supplierID)
	return nil
}

func (s *Service) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, fmt.Errorf("create category: name required: %w", ErrValidation)
	}
	category.StoreID = s.mirror.StoreID()
	created, err := s.gw.CreateCategory(ctx, category)
	if err != nil {
		return nil, remoteFail("create category", err)
	}
	s.mirror.UpsertCategory(*created)
	return created, nil
}

func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	if categoryID == "" {
		return fmt.Errorf("delete category: id required: %w", ErrValidation)
	}
	if err := s.gw.DeleteCategory(ctx, s.mirror.StoreID(), categoryID); err != nil {
		return remoteFail("delete category", err)
	}
	s.mirror.DeleteCategory(categoryID)
	return nil
}

func (s *Service) DeleteReturn(ctx context.Context, returnID string) error {
	if returnID == "" {
		return fmt.Errorf("delete return: id required: %w", ErrValidation)
	}
	if err := s.gw.DeleteReturn(ctx, s.mirror.StoreID(), returnID); err != nil {
		return remoteFail("delete return", err)
	}
	s.mirror.DeleteReturn(returnID)
	return nil
}

func (s *Service) ClearReturns(ctx context.Context) error {
	if err := s.gw.ClearReturns(ctx, s.mirror.StoreID()); err != nil {
		return remoteFail("clear returns", err)
	}
	s.mirror.ClearReturns()
	return nil
}
