// Package memory is an in-process implementation of the remote store,
// used for dev/demo mode and as the test double for the service layer.
// Every compound endpoint applies atomically under a single lock, which
// matches the transactional guarantee of the real backend.
package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/gateway"
	"geraipos/client/internal/xid"
)

type Store struct {
	mu         sync.RWMutex
	products   map[string]domain.Product
	variants   map[string]domain.ProductVariant
	batches    map[string]domain.StockBatch
	sales      map[string]domain.Sale
	returns    map[string]domain.Return
	purchases  map[string]domain.Purchase
	customers  map[string]domain.Customer
	suppliers  map[string]domain.Supplier
	categories map[string]domain.Category
	users      map[string]domain.User

	// bcrypt hashes keyed by user id; only meaningful for seeded accounts.
	passwordHashes map[string]string
}

var _ gateway.Gateway = (*Store)(nil)

func New() *Store {
	return &Store{
		products:       map[string]domain.Product{},
		variants:       map[string]domain.ProductVariant{},
		batches:        map[string]domain.StockBatch{},
		sales:          map[string]domain.Sale{},
		returns:        map[string]domain.Return{},
		purchases:      map[string]domain.Purchase{},
		customers:      map[string]domain.Customer{},
		suppliers:      map[string]domain.Supplier{},
		categories:     map[string]domain.Category{},
		users:          map[string]domain.User{},
		passwordHashes: map[string]string{},
	}
}

// seedUsers builds the initial demo accounts. Credentials come from
// SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; hardcoded dev defaults
// apply when unset, with a warning printed to stdout.
func (s *Store) seedUsers(storeID string, now time.Time) {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-gateway] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-gateway] failed to hash seed password for %s: %v", u.username, err)
		}
		user := domain.User{
			ID:        xid.New("user"),
			StoreID:   storeID,
			Username:  u.username,
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
		s.users[user.ID] = user
		s.passwordHashes[user.ID] = string(hash)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// NewSeeded builds a store preloaded with a small Indonesian minimarket
// catalog so the client is usable without a backend.
func NewSeeded(storeID string) *Store {
	s := New()
	now := time.Now().UTC()
	s.seedUsers(storeID, now)

	catGrocery := domain.Category{ID: xid.New("cat"), StoreID: storeID, Name: "Sembako"}
	catService := domain.Category{ID: xid.New("cat"), StoreID: storeID, Name: "Jasa"}
	s.categories[catGrocery.ID] = catGrocery
	s.categories[catService.ID] = catService

	supplier := domain.Supplier{
		ID: xid.New("sup"), StoreID: storeID,
		Name: "PD Sumber Rejeki", Phone: "0812-1111-2222", CreatedAt: now,
	}
	s.suppliers[supplier.ID] = supplier

	customer := domain.Customer{
		ID: xid.New("cust"), StoreID: storeID,
		Name: "Ibu Sari", Phone: "0813-3333-4444", CreatedAt: now,
	}
	s.customers[customer.ID] = customer

	type seedVariant struct {
		name      string
		price     int64
		semi      int64
		wholesale int64
		purchase  int64
		barcode   string
		threshold int64
		stock     int64
	}
	seeds := []struct {
		product  string
		variants []seedVariant
	}{
		{"Beras Premium", []seedVariant{
			{"5kg", 78000, 76000, 74000, 68000, "8991002101", 4, 20},
			{"10kg", 152000, 149000, 145000, 134000, "8991002102", 2, 8},
		}},
		{"Minyak Goreng", []seedVariant{
			{"1L", 19500, 19000, 18500, 16800, "8991002201", 6, 30},
			{"2L", 38000, 37000, 36000, 33500, "8991002202", 4, 12},
		}},
		{"Gula Pasir", []seedVariant{
			{"1kg", 17500, 17000, 0, 15200, "8991002301", 5, 25},
		}},
	}
	for _, ps := range seeds {
		p := domain.Product{
			ID:         xid.New("prod"),
			StoreID:    storeID,
			Name:       ps.product,
			Type:       domain.ProductGood,
			CategoryID: catGrocery.ID,
			SupplierID: supplier.ID,
		}
		s.products[p.ID] = p
		for _, vs := range ps.variants {
			v := domain.ProductVariant{
				ID:                 xid.New("var"),
				ProductID:          p.ID,
				StoreID:            storeID,
				Name:               vs.name,
				Price:              decimal.NewFromInt(vs.price),
				PriceSemiWholesale: decimal.NewFromInt(vs.semi),
				PriceWholesale:     decimal.NewFromInt(vs.wholesale),
				PurchasePrice:      decimal.NewFromInt(vs.purchase),
				Barcode:            vs.barcode,
				LowStockThreshold:  decimal.NewFromInt(vs.threshold),
			}
			s.variants[v.ID] = v
			b := domain.StockBatch{
				ID:            xid.New("batch"),
				VariantID:     v.ID,
				StoreID:       storeID,
				Quantity:      decimal.NewFromInt(vs.stock),
				PurchasePrice: v.PurchasePrice,
				CreatedAt:     now,
			}
			s.batches[b.ID] = b
		}
	}

	grind := domain.Product{
		ID:         xid.New("prod"),
		StoreID:    storeID,
		Name:       "Jasa Giling Daging",
		Type:       domain.ProductService,
		CategoryID: catService.ID,
		Price:      decimal.NewFromInt(10000),
	}
	s.products[grind.ID] = grind

	return s
}

// Authenticate checks a seeded account's credentials and returns the user.
func (s *Store) Authenticate(username string, password string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, u := range s.users {
		if u.Username != username || !u.Active {
			continue
		}
		if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHashes[id]), []byte(password)); err != nil {
			return nil, fmt.Errorf("authenticate %s: %w", username, gateway.ErrRejected)
		}
		out := u
		return &out, nil
	}
	return nil, gateway.ErrNotFound
}

func (s *Store) ListProducts(_ context.Context, storeID string) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListVariants(_ context.Context, storeID string) ([]domain.ProductVariant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProductVariant, 0, len(s.variants))
	for _, v := range s.variants {
		if v.StoreID == storeID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListStockBatches(_ context.Context, storeID string) ([]domain.StockBatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StockBatch, 0, len(s.batches))
	for _, b := range s.batches {
		if b.StoreID == storeID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListSales(_ context.Context, storeID string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		if sale.StoreID == storeID {
			out = append(out, copySale(sale))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListReturns(_ context.Context, storeID string) ([]domain.Return, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Return, 0, len(s.returns))
	for _, r := range s.returns {
		if r.StoreID == storeID {
			out = append(out, copyReturn(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListPurchases(_ context.Context, storeID string) ([]domain.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		if p.StoreID == storeID {
			out = append(out, copyPurchase(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListCustomers(_ context.Context, storeID string) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		if c.StoreID == storeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListSuppliers(_ context.Context, storeID string) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		if sup.StoreID == storeID {
			out = append(out, sup)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListCategories(_ context.Context, storeID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		if c.StoreID == storeID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListUsers(_ context.Context, storeID string) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		if u.StoreID == storeID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, fmt.Errorf("create customer: name required: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	customer.ID = xid.New("cust")
	customer.CreatedAt = time.Now().UTC()
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) UpdateCustomer(_ context.Context, customer domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.customers[customer.ID]
	if !ok || existing.StoreID != customer.StoreID {
		return nil, gateway.ErrNotFound
	}
	customer.CreatedAt = existing.CreatedAt
	s.customers[customer.ID] = customer
	return &customer, nil
}

func (s *Store) DeleteCustomer(_ context.Context, storeID string, customerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok || c.StoreID != storeID {
		return gateway.ErrNotFound
	}
	delete(s.customers, customerID)
	return nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, fmt.Errorf("create supplier: name required: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	supplier.ID = xid.New("sup")
	supplier.CreatedAt = time.Now().UTC()
	s.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.suppliers[supplier.ID]
	if !ok || existing.StoreID != supplier.StoreID {
		return nil, gateway.ErrNotFound
	}
	supplier.CreatedAt = existing.CreatedAt
	s.suppliers[supplier.ID] = supplier
	return &supplier, nil
}

func (s *Store) DeleteSupplier(_ context.Context, storeID string, supplierID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sup, ok := s.suppliers[supplierID]
	if !ok || sup.StoreID != storeID {
		return gateway.ErrNotFound
	}
	delete(s.suppliers, supplierID)
	return nil
}

func (s *Store) CreateCategory(_ context.Context, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, fmt.Errorf("create category: name required: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	category.ID = xid.New("cat")
	s.categories[category.ID] = category
	return &category, nil
}

func (s *Store) DeleteCategory(_ context.Context, storeID string, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[categoryID]
	if !ok || c.StoreID != storeID {
		return gateway.ErrNotFound
	}
	delete(s.categories, categoryID)
	return nil
}

func (s *Store) DeleteReturn(_ context.Context, storeID string, returnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.returns[returnID]
	if !ok || r.StoreID != storeID {
		return gateway.ErrNotFound
	}
	delete(s.returns, returnID)
	return nil
}

func (s *Store) ClearReturns(_ context.Context, storeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.returns {
		if r.StoreID == storeID {
			delete(s.returns, id)
		}
	}
	return nil
}

func (s *Store) CompleteSale(_ context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("complete sale: no items: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sale.ID = xid.New("sale")
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}
	s.sales[sale.ID] = copySale(sale)
	out := copySale(sale)
	return &out, nil
}

func (s *Store) ProcessReturn(_ context.Context, ret domain.Return) (*domain.Return, error) {
	if len(ret.Items) == 0 {
		return nil, fmt.Errorf("process return: no items: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ret.ID = xid.New("ret")
	if ret.Date.IsZero() {
		ret.Date = time.Now().UTC()
	}
	s.returns[ret.ID] = copyReturn(ret)
	out := copyReturn(ret)
	return &out, nil
}

// AddStock applies a restock as one unit of work: a fully paid single-item
// purchase, a new batch, and the variant repriced to the given purchase and
// selling prices.
func (s *Store) AddStock(_ context.Context, storeID string, input domain.AddStockInput) (*domain.AddStockResult, error) {
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("add stock: quantity must be positive: %w", gateway.ErrRejected)
	}
	if input.SellingPrice.LessThanOrEqual(input.PurchasePrice) {
		return nil, fmt.Errorf("add stock: selling price must exceed purchase price: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	variant, ok := s.variants[input.VariantID]
	if !ok || variant.StoreID != storeID {
		return nil, gateway.ErrNotFound
	}
	product, ok := s.products[variant.ProductID]
	if !ok {
		return nil, gateway.ErrNotFound
	}

	now := time.Now().UTC()
	total := input.Quantity.Mul(input.PurchasePrice)
	purchase := domain.Purchase{
		ID:         xid.New("pur"),
		StoreID:    storeID,
		SupplierID: input.SupplierID,
		Date:       now,
		Items: []domain.PurchaseItem{{
			VariantID:     variant.ID,
			ProductID:     product.ID,
			ProductName:   product.Name,
			VariantName:   variant.Name,
			Quantity:      input.Quantity,
			PurchasePrice: input.PurchasePrice,
		}},
		TotalAmount:     total,
		AmountPaid:      total,
		RemainingAmount: decimal.Zero,
		PaymentMethod:   "cash",
	}
	batch := domain.StockBatch{
		ID:            xid.New("batch"),
		VariantID:     variant.ID,
		StoreID:       storeID,
		Quantity:      input.Quantity,
		PurchasePrice: input.PurchasePrice,
		PurchaseID:    purchase.ID,
		CreatedAt:     now,
	}
	variant.PurchasePrice = input.PurchasePrice
	variant.Price = input.SellingPrice

	s.purchases[purchase.ID] = copyPurchase(purchase)
	s.batches[batch.ID] = batch
	s.variants[variant.ID] = variant

	return &domain.AddStockResult{
		Purchase: copyPurchase(purchase),
		Batch:    batch,
		Variant:  variant,
	}, nil
}

// PayCustomerDebt settles outstanding credit sales oldest first and records
// the payment as a zero-total sale so history and derived debt both line up.
func (s *Store) PayCustomerDebt(_ context.Context, storeID string, customerID string, userID string, amount decimal.Decimal) (*domain.DebtPaymentResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pay customer debt: amount must be positive: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.customers[customerID]; !ok || c.StoreID != storeID {
		return nil, gateway.ErrNotFound
	}

	var open []domain.Sale
	outstanding := decimal.Zero
	for _, sale := range s.sales {
		if sale.StoreID != storeID || sale.CustomerID != customerID {
			continue
		}
		if sale.RemainingAmount.IsPositive() {
			open = append(open, sale)
			outstanding = outstanding.Add(sale.RemainingAmount)
		}
	}
	if amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("pay customer debt: amount exceeds outstanding %s: %w", outstanding, gateway.ErrRejected)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Date.Before(open[j].Date) })

	remaining := amount
	updated := make([]domain.Sale, 0, len(open))
	for _, sale := range open {
		if !remaining.IsPositive() {
			break
		}
		applied := decimal.Min(remaining, sale.RemainingAmount)
		sale.RemainingAmount = sale.RemainingAmount.Sub(applied)
		sale.DownPayment = sale.DownPayment.Add(applied)
		remaining = remaining.Sub(applied)
		s.sales[sale.ID] = copySale(sale)
		updated = append(updated, copySale(sale))
	}

	payment := domain.Sale{
		ID:              xid.New("sale"),
		StoreID:         storeID,
		UserID:          userID,
		CustomerID:      customerID,
		Date:            time.Now().UTC(),
		Total:           decimal.Zero,
		Profit:          decimal.Zero,
		DownPayment:     amount,
		RemainingAmount: decimal.Zero,
	}
	s.sales[payment.ID] = copySale(payment)

	return &domain.DebtPaymentResult{
		PaymentSale:  copySale(payment),
		UpdatedSales: updated,
	}, nil
}

func (s *Store) PaySupplierDebt(_ context.Context, storeID string, supplierID string, amount decimal.Decimal) ([]domain.Purchase, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pay supplier debt: amount must be positive: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if sup, ok := s.suppliers[supplierID]; !ok || sup.StoreID != storeID {
		return nil, gateway.ErrNotFound
	}

	var open []domain.Purchase
	outstanding := decimal.Zero
	for _, p := range s.purchases {
		if p.StoreID != storeID || p.SupplierID != supplierID {
			continue
		}
		if p.RemainingAmount.IsPositive() {
			open = append(open, p)
			outstanding = outstanding.Add(p.RemainingAmount)
		}
	}
	if amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("pay supplier debt: amount exceeds outstanding %s: %w", outstanding, gateway.ErrRejected)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Date.Before(open[j].Date) })

	remaining := amount
	updated := make([]domain.Purchase, 0, len(open))
	for _, p := range open {
		if !remaining.IsPositive() {
			break
		}
		applied := decimal.Min(remaining, p.RemainingAmount)
		p.RemainingAmount = p.RemainingAmount.Sub(applied)
		p.AmountPaid = p.AmountPaid.Add(applied)
		remaining = remaining.Sub(applied)
		s.purchases[p.ID] = copyPurchase(p)
		updated = append(updated, copyPurchase(p))
	}
	return updated, nil
}

func (s *Store) AddProductWithVariants(_ context.Context, input domain.UpsertProductInput) (*domain.UpsertProductResult, error) {
	if input.Product.Name == "" || !input.Product.Type.Valid() {
		return nil, fmt.Errorf("add product: invalid product: %w", gateway.ErrRejected)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	product := input.Product
	product.ID = xid.New("prod")
	s.products[product.ID] = product

	result := &domain.UpsertProductResult{Product: product}
	for _, form := range input.Inserts {
		v, b := s.insertVariantLocked(product, form, now)
		result.InsertedVariants = append(result.InsertedVariants, v)
		if b != nil {
			result.NewBatches = append(result.NewBatches, *b)
		}
	}
	return result, nil
}

func (s *Store) UpdateProductWithVariants(_ context.Context, input domain.UpsertProductInput) (*domain.UpsertProductResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[input.Product.ID]
	if !ok || existing.StoreID != input.Product.StoreID {
		return nil, gateway.ErrNotFound
	}

	now := time.Now().UTC()
	product := input.Product
	s.products[product.ID] = product
	result := &domain.UpsertProductResult{Product: product}

	for _, form := range input.Updates {
		v, ok := s.variants[form.ID]
		if !ok || v.ProductID != product.ID {
			return nil, gateway.ErrNotFound
		}
		v.Name = form.Name
		v.Price = form.Price
		v.PriceSemiWholesale = form.PriceSemiWholesale
		v.PriceWholesale = form.PriceWholesale
		v.PurchasePrice = form.PurchasePrice
		v.Barcode = form.Barcode
		v.LowStockThreshold = form.LowStockThreshold
		v.Image = form.Image
		s.variants[v.ID] = v
		result.UpdatedVariants = append(result.UpdatedVariants, v)
		if b := s.batchForFormLocked(v, form, now); b != nil {
			result.NewBatches = append(result.NewBatches, *b)
		}
	}
	for _, form := range input.Inserts {
		v, b := s.insertVariantLocked(product, form, now)
		result.InsertedVariants = append(result.InsertedVariants, v)
		if b != nil {
			result.NewBatches = append(result.NewBatches, *b)
		}
	}
	for _, id := range input.DeleteVariantIDs {
		v, ok := s.variants[id]
		if !ok || v.ProductID != product.ID {
			return nil, gateway.ErrNotFound
		}
		delete(s.variants, id)
		for bid, b := range s.batches {
			if b.VariantID == id {
				delete(s.batches, bid)
			}
		}
		result.DeletedVariantIDs = append(result.DeletedVariantIDs, id)
	}
	return result, nil
}

func (s *Store) insertVariantLocked(product domain.Product, form domain.VariantForm, now time.Time) (domain.ProductVariant, *domain.StockBatch) {
	v := domain.ProductVariant{
		ID:                 xid.New("var"),
		ProductID:          product.ID,
		StoreID:            product.StoreID,
		Name:               form.Name,
		Price:              form.Price,
		PriceSemiWholesale: form.PriceSemiWholesale,
		PriceWholesale:     form.PriceWholesale,
		PurchasePrice:      form.PurchasePrice,
		Barcode:            form.Barcode,
		LowStockThreshold:  form.LowStockThreshold,
		Image:              form.Image,
	}
	s.variants[v.ID] = v
	return v, s.batchForFormLocked(v, form, now)
}

func (s *Store) batchForFormLocked(v domain.ProductVariant, form domain.VariantForm, now time.Time) *domain.StockBatch {
	if !form.AddedStock.IsPositive() {
		return nil
	}
	b := domain.StockBatch{
		ID:            xid.New("batch"),
		VariantID:     v.ID,
		StoreID:       v.StoreID,
		Quantity:      form.AddedStock,
		PurchasePrice: form.PurchasePrice,
		CreatedAt:     now,
	}
	s.batches[b.ID] = b
	return &b
}

func (s *Store) DeleteProduct(_ context.Context, storeID string, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok || p.StoreID != storeID {
		return gateway.ErrNotFound
	}
	delete(s.products, productID)
	for vid, v := range s.variants {
		if v.ProductID != productID {
			continue
		}
		delete(s.variants, vid)
		for bid, b := range s.batches {
			if b.VariantID == vid {
				delete(s.batches, bid)
			}
		}
	}
	return nil
}

func copySale(sale domain.Sale) domain.Sale {
	out := sale
	out.Items = append([]domain.SaleItem(nil), sale.Items...)
	return out
}

func copyReturn(r domain.Return) domain.Return {
	out := r
	out.Items = append([]domain.SaleItem(nil), r.Items...)
	return out
}

func copyPurchase(p domain.Purchase) domain.Purchase {
	out := p
	out.Items = append([]domain.PurchaseItem(nil), p.Items...)
	return out
}
