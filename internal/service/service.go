// Package service coordinates compound business operations: validate
// locally, write to the remote store, then fold the confirmed records into
// the mirror. The mirror is never mutated before the remote store accepts.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"geraipos/client/internal/cart"
	"geraipos/client/internal/domain"
	"geraipos/client/internal/gateway"
	"geraipos/client/internal/ledger"
	"geraipos/client/internal/mirror"
	"geraipos/client/internal/reorder"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrRemote     = errors.New("remote store error")
)

// Printer receives a confirmed sale for receipt output. Print failures
// never fail the sale.
type Printer interface {
	PrintReceipt(sale domain.Sale, mode string) error
}

type NoopPrinter struct{}

func (NoopPrinter) PrintReceipt(domain.Sale, string) error { return nil }

type Service struct {
	gw       gateway.Gateway
	mirror   *mirror.Store
	ledger   *ledger.Ledger
	cart     *cart.Cart
	reorder  *reorder.Engine
	validate *validator.Validate
	logger   *logrus.Logger
	printer  Printer

	mu     sync.RWMutex
	userID string
	tier   domain.PriceTier
}

func New(gw gateway.Gateway, engine *reorder.Engine, logger *logrus.Logger) *Service {
	if engine == nil {
		engine = reorder.NewEngine(nil, 0)
	}
	if logger == nil {
		logger = logrus.New()
	}
	m := mirror.New()
	return &Service{
		gw:       gw,
		mirror:   m,
		ledger:   ledger.New(m),
		cart:     cart.New(),
		reorder:  engine,
		validate: validator.New(),
		logger:   logger,
		printer:  NoopPrinter{},
		tier:     domain.TierUnit,
	}
}

// Init binds the mirror to a store and repopulates every collection from
// the remote store. On any listing failure the mirror is torn down again
// rather than left half loaded.
func (s *Service) Init(ctx context.Context, storeID string) error {
	if storeID == "" {
		return fmt.Errorf("init: store id required: %w", ErrValidation)
	}
	s.mirror.Init(storeID)

	if err := s.loadAll(ctx, storeID); err != nil {
		s.mirror.Teardown()
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"store_id": storeID,
		"products": len(s.mirror.Products()),
		"variants": len(s.mirror.Variants()),
		"sales":    len(s.mirror.Sales()),
	}).Info("mirror initialized")
	return nil
}

func (s *Service) loadAll(ctx context.Context, storeID string) error {
	products, err := s.gw.ListProducts(ctx, storeID)
	if err != nil {
		return remoteFail("list products", err)
	}
	variants, err := s.gw.ListVariants(ctx, storeID)
	if err != nil {
		return remoteFail("list variants", err)
	}
	batches, err := s.gw.ListStockBatches(ctx, storeID)
	if err != nil {
		return remoteFail("list stock batches", err)
	}
	sales, err := s.gw.ListSales(ctx, storeID)
	if err != nil {
		return remoteFail("list sales", err)
	}
	returns, err := s.gw.ListReturns(ctx, storeID)
	if err != nil {
		return remoteFail("list returns", err)
	}
	purchases, err := s.gw.ListPurchases(ctx, storeID)
	if err != nil {
		return remoteFail("list purchases", err)
	}
	customers, err := s.gw.ListCustomers(ctx, storeID)
	if err != nil {
		return remoteFail("list customers", err)
	}
	suppliers, err := s.gw.ListSuppliers(ctx, storeID)
	if err != nil {
		return remoteFail("list suppliers", err)
	}
	categories, err := s.gw.ListCategories(ctx, storeID)
	if err != nil {
		return remoteFail("list categories", err)
	}
	users, err := s.gw.ListUsers(ctx, storeID)
	if err != nil {
		return remoteFail("list users", err)
	}

	s.mirror.LoadProducts(products)
	s.mirror.LoadVariants(variants)
	s.mirror.LoadBatches(batches)
	s.mirror.LoadSales(sales)
	s.mirror.LoadReturns(returns)
	s.mirror.LoadPurchases(purchases)
	s.mirror.LoadCustomers(customers)
	s.mirror.LoadSuppliers(suppliers)
	s.mirror.LoadCategories(categories)
	s.mirror.LoadUsers(users)
	return nil
}

// Teardown drops the mirror and the working cart. Called on logout.
func (s *Service) Teardown() {
	s.cart.Clear()
	s.mirror.Teardown()
}

func (s *Service) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

func (s *Service) SetPrinter(p Printer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p == nil {
		p = NoopPrinter{}
	}
	s.printer = p
}

func (s *Service) currentUser() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Service) currentPrinter() Printer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.printer
}

// CompleteSale turns the working cart into a Sale, sends it to the remote
// store, and folds the confirmed record into the mirror. Stock is never
// decremented directly; the ledger re-derives it from the folded sale.
func (s *Service) CompleteSale(ctx context.Context, req domain.CompleteSaleRequest) (*domain.Sale, error) {
	if s.cart.ReturnMode() {
		return nil, fmt.Errorf("complete sale: cart is in return mode: %w", ErrValidation)
	}
	lines := s.cart.Items()
	if len(lines) == 0 {
		return nil, fmt.Errorf("complete sale: cart is empty: %w", ErrValidation)
	}

	items := make([]domain.SaleItem, 0, len(lines))
	subtotal := decimal.Zero
	nonCustomSubtotal := decimal.Zero
	nonCustomProfit := decimal.Zero
	hasCustom := false
	for _, line := range lines {
		item := domain.SaleItem{
			ID:            line.LineID,
			ProductID:     line.ProductID,
			Kind:          line.Kind,
			Name:          line.Name,
			Price:         line.Price,
			Quantity:      line.Quantity,
			PurchasePrice: line.PurchasePrice,
		}
		items = append(items, item)

		revenue := line.Price.Mul(line.Quantity)
		subtotal = subtotal.Add(revenue)
		if line.Kind == domain.LineCustom {
			hasCustom = true
			continue
		}
		nonCustomSubtotal = nonCustomSubtotal.Add(revenue)
		nonCustomProfit = nonCustomProfit.Add(line.Price.Sub(line.PurchasePrice).Mul(line.Quantity))
	}

	// A zero FinalTotal means "no override": the sale totals to the line
	// subtotal. A genuine zero-total sale is expressed by zeroing the line
	// prices instead of overriding the total.
	finalTotal := req.FinalTotal
	if finalTotal.IsZero() {
		finalTotal = subtotal
	}
	if finalTotal.IsNegative() {
		return nil, fmt.Errorf("complete sale: total cannot be negative: %w", ErrValidation)
	}
	discount := subtotal.Sub(finalTotal)
	if discount.IsNegative() {
		discount = decimal.Zero
	}

	downPayment := finalTotal
	remaining := decimal.Zero
	if req.CustomerID != "" {
		downPayment = req.DownPayment
		remaining = finalTotal.Sub(downPayment)
		if remaining.IsNegative() {
			return nil, fmt.Errorf("complete sale: down payment exceeds total: %w", ErrValidation)
		}
	}

	profit := nonCustomProfit
	if hasCustom {
		// Custom revenue is prorated as the final total minus the non-custom
		// subtotal, which goes negative when the cashier overrides the total
		// below the non-custom subtotal.
		// TODO: decide whether reports should clamp negative custom revenue.
		profit = profit.Add(finalTotal.Sub(nonCustomSubtotal))
	}

	sale := domain.Sale{
		StoreID:         s.mirror.StoreID(),
		UserID:          s.currentUser(),
		CustomerID:      req.CustomerID,
		Date:            time.Now().UTC(),
		Items:           items,
		Total:           finalTotal,
		Profit:          profit,
		DownPayment:     downPayment,
		RemainingAmount: remaining,
		Discount:        discount,
	}

	confirmed, err := s.gw.CompleteSale(ctx, sale)
	if err != nil {
		return nil, remoteFail("complete sale", err)
	}

	s.mirror.UpsertSale(*confirmed)
	s.cart.Clear()

	if err := s.currentPrinter().PrintReceipt(*confirmed, req.PrintMode); err != nil {
		s.logger.WithError(err).WithField("sale_id", confirmed.ID).Warn("receipt print failed")
	}
	return confirmed, nil
}

// ProcessReturn persists a return for the given items and folds it in.
// Refund is price times quantity over every line; profit lost only counts
// good lines with a known purchase price.
func (s *Service) ProcessReturn(ctx context.Context, items []domain.SaleItem) (*domain.Return, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("process return: no items: %w", ErrValidation)
	}
	for _, item := range items {
		if !item.Kind.Valid() {
			return nil, fmt.Errorf("process return: invalid line kind %q: %w", item.Kind, ErrValidation)
		}
		if !item.Quantity.IsPositive() {
			return nil, fmt.Errorf("process return: quantity must be positive: %w", ErrValidation)
		}
	}

	refund := decimal.Zero
	profitLost := decimal.Zero
	for _, item := range items {
		refund = refund.Add(item.Price.Mul(item.Quantity))
		if item.Kind == domain.LineGood && item.PurchasePrice.IsPositive() {
			profitLost = profitLost.Add(item.Price.Sub(item.PurchasePrice).Mul(item.Quantity))
		}
	}

	ret := domain.Return{
		StoreID:      s.mirror.StoreID(),
		UserID:       s.currentUser(),
		Date:         time.Now().UTC(),
		Items:        items,
		RefundAmount: refund,
		ProfitLost:   profitLost,
	}

	confirmed, err := s.gw.ProcessReturn(ctx, ret)
	if err != nil {
		return nil, remoteFail("process return", err)
	}

	s.mirror.UpsertReturn(*confirmed)
	s.cart.Clear()
	return confirmed, nil
}

// AddStock restocks a variant through the remote store and folds the
// resulting purchase, batch, and repriced variant into the mirror.
func (s *Service) AddStock(ctx context.Context, input domain.AddStockInput) (*domain.AddStockResult, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("add stock: %s: %w", err, ErrValidation)
	}
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("add stock: quantity must be positive: %w", ErrValidation)
	}
	if input.PurchasePrice.IsNegative() {
		return nil, fmt.Errorf("add stock: purchase price cannot be negative: %w", ErrValidation)
	}
	if input.SellingPrice.LessThanOrEqual(input.PurchasePrice) {
		return nil, fmt.Errorf("add stock: selling price must exceed purchase price: %w", ErrValidation)
	}
	if _, ok := s.mirror.VariantByID(input.VariantID); !ok {
		return nil, fmt.Errorf("add stock: unknown variant %s: %w", input.VariantID, ErrValidation)
	}

	result, err := s.gw.AddStock(ctx, s.mirror.StoreID(), input)
	if err != nil {
		return nil, remoteFail("add stock", err)
	}

	s.mirror.UpsertPurchase(result.Purchase)
	s.mirror.UpsertBatch(result.Batch)
	s.mirror.UpsertVariant(result.Variant)
	return result, nil
}

// PayCustomerDebt validates the amount against the derived debt, then lets
// the remote store settle open credit sales oldest first. The derived-debt
// check here is not atomic with the remote write; concurrent payments from
// separate sessions are arbitrated by the remote store.
func (s *Service) PayCustomerDebt(ctx context.Context, customerID string, amount decimal.Decimal) (*domain.DebtPaymentResult, error) {
	if customerID == "" {
		return nil, fmt.Errorf("pay customer debt: customer id required: %w", ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pay customer debt: amount must be positive: %w", ErrValidation)
	}
	debt := s.ledger.CustomerDebt(customerID)
	if amount.GreaterThan(debt) {
		return nil, fmt.Errorf("pay customer debt: amount %s exceeds debt %s: %w", amount, debt, ErrValidation)
	}

	result, err := s.gw.PayCustomerDebt(ctx, s.mirror.StoreID(), customerID, s.currentUser(), amount)
	if err != nil {
		return nil, remoteFail("pay customer debt", err)
	}

	s.mirror.UpsertSale(result.PaymentSale)
	for _, sale := range result.UpdatedSales {
		s.mirror.UpsertSale(sale)
	}
	return result, nil
}

// PaySupplierDebt settles open purchases oldest first.
func (s *Service) PaySupplierDebt(ctx context.Context, supplierID string, amount decimal.Decimal) ([]domain.Purchase, error) {
	if supplierID == "" {
		return nil, fmt.Errorf("pay supplier debt: supplier id required: %w", ErrValidation)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pay supplier debt: amount must be positive: %w", ErrValidation)
	}
	debt := s.ledger.SupplierDebt(supplierID)
	if amount.GreaterThan(debt) {
		return nil, fmt.Errorf("pay supplier debt: amount %s exceeds debt %s: %w", amount, debt, ErrValidation)
	}

	updated, err := s.gw.PaySupplierDebt(ctx, s.mirror.StoreID(), supplierID, amount)
	if err != nil {
		return nil, remoteFail("pay supplier debt", err)
	}
	for _, p := range updated {
		s.mirror.UpsertPurchase(p)
	}
	return updated, nil
}

// UpsertProductWithVariants creates or updates a product and its variant
// set in one remote transaction. On update the variant forms are diffed
// against the mirror: forms with ids become updates, forms without become
// inserts, and mirror variants absent from the forms are deleted.
func (s *Service) UpsertProductWithVariants(ctx context.Context, product domain.Product, forms []domain.VariantForm) (*domain.UpsertProductResult, error) {
	if product.Name == "" {
		return nil, fmt.Errorf("upsert product: name required: %w", ErrValidation)
	}
	if !product.Type.Valid() {
		return nil, fmt.Errorf("upsert product: invalid type %q: %w", product.Type, ErrValidation)
	}
	if product.Type == domain.ProductGood && len(forms) == 0 {
		return nil, fmt.Errorf("upsert product: a good needs at least one variant: %w", ErrValidation)
	}
	for _, form := range forms {
		if err := s.validate.Struct(form); err != nil {
			return nil, fmt.Errorf("upsert product: %s: %w", err, ErrValidation)
		}
	}
	product.StoreID = s.mirror.StoreID()

	input := domain.UpsertProductInput{Product: product}
	creating := product.ID == ""
	if creating {
		input.Inserts = forms
	} else {
		if _, ok := s.mirror.ProductByID(product.ID); !ok {
			return nil, fmt.Errorf("upsert product: unknown product %s: %w", product.ID, ErrValidation)
		}
		kept := make(map[string]bool, len(forms))
		for _, form := range forms {
			if form.ID == "" {
				input.Inserts = append(input.Inserts, form)
				continue
			}
			kept[form.ID] = true
			input.Updates = append(input.Updates, form)
		}
		for _, v := range s.mirror.Variants() {
			if v.ProductID == product.ID && !kept[v.ID] {
				input.DeleteVariantIDs = append(input.DeleteVariantIDs, v.ID)
			}
		}
	}

	var result *domain.UpsertProductResult
	var err error
	if creating {
		result, err = s.gw.AddProductWithVariants(ctx, input)
	} else {
		result, err = s.gw.UpdateProductWithVariants(ctx, input)
	}
	if err != nil {
		return nil, remoteFail("upsert product", err)
	}

	// Fold order: product, updated variants, inserted variants, deletions,
	// then batches, so derived stock never sees a batch without its variant.
	s.mirror.UpsertProduct(result.Product)
	for _, v := range result.UpdatedVariants {
		s.mirror.UpsertVariant(v)
	}
	for _, v := range result.InsertedVariants {
		s.mirror.UpsertVariant(v)
	}
	for _, id := range result.DeletedVariantIDs {
		s.mirror.DeleteVariant(id)
	}
	for _, b := range result.NewBatches {
		s.mirror.UpsertBatch(b)
	}
	return result, nil
}

// DeleteProduct removes a product remotely, then cascades the deletion to
// its variants in the mirror. Historical sale and return lines keep their
// denormalized snapshots.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return fmt.Errorf("delete product: id required: %w", ErrValidation)
	}
	if err := s.gw.DeleteProduct(ctx, s.mirror.StoreID(), productID); err != nil {
		return remoteFail("delete product", err)
	}
	s.mirror.DeleteProductCascade(productID)
	return nil
}

func remoteFail(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrRemote, err))
}
