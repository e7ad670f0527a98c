// Package mirror holds the local, non-authoritative copy of every entity
// collection for the active store. It is a cache of confirmed remote state:
// writes land here only after the remote store has accepted them, as
// id-keyed idempotent upserts (folds).
package mirror

import (
	"sync"

	"geraipos/client/internal/domain"
)

type Store struct {
	mu      sync.RWMutex
	storeID string
	version uint64

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
}

func New() *Store {
	s := &Store{}
	s.reset("")
	return s
}

// Init clears every collection and binds the mirror to a store. Collections
// are repopulated by the coordinator's login-time bulk listing.
func (s *Store) Init(storeID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(storeID)
}

// Teardown drops everything, including the store binding. Called on logout.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset("")
}

func (s *Store) reset(storeID string) {
	s.storeID = storeID
	s.version++
	s.products = make(map[string]domain.Product)
	s.variants = make(map[string]domain.ProductVariant)
	s.batches = make(map[string]domain.StockBatch)
	s.sales = make(map[string]domain.Sale)
	s.returns = make(map[string]domain.Return)
	s.purchases = make(map[string]domain.Purchase)
	s.customers = make(map[string]domain.Customer)
	s.suppliers = make(map[string]domain.Supplier)
	s.categories = make(map[string]domain.Category)
	s.users = make(map[string]domain.User)
}

func (s *Store) StoreID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeID
}

// Version increments on every mutation; derived views use it as a
// memoization key.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// accepts reports whether a confirmed record belongs to the bound store.
// A stale response from a previous session must not corrupt the mirror.
func (s *Store) accepts(id string, storeID string) bool {
	return id != "" && s.storeID != "" && storeID == s.storeID
}

func (s *Store) UpsertProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(p.ID, p.StoreID) {
		return
	}
	s.products[p.ID] = p
	s.version++
}

func (s *Store) UpsertVariant(v domain.ProductVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(v.ID, v.StoreID) {
		return
	}
	s.variants[v.ID] = v
	s.version++
}

func (s *Store) UpsertBatch(b domain.StockBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(b.ID, b.StoreID) {
		return
	}
	s.batches[b.ID] = b
	s.version++
}

func (s *Store) UpsertSale(sale domain.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(sale.ID, sale.StoreID) {
		return
	}
	s.sales[sale.ID] = sale
	s.version++
}

func (s *Store) UpsertReturn(ret domain.Return) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(ret.ID, ret.StoreID) {
		return
	}
	s.returns[ret.ID] = ret
	s.version++
}

func (s *Store) UpsertPurchase(p domain.Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(p.ID, p.StoreID) {
		return
	}
	s.purchases[p.ID] = p
	s.version++
}

func (s *Store) UpsertCustomer(c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(c.ID, c.StoreID) {
		return
	}
	s.customers[c.ID] = c
	s.version++
}

func (s *Store) UpsertSupplier(sp domain.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(sp.ID, sp.StoreID) {
		return
	}
	s.suppliers[sp.ID] = sp
	s.version++
}

func (s *Store) UpsertCategory(c domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(c.ID, c.StoreID) {
		return
	}
	s.categories[c.ID] = c
	s.version++
}

func (s *Store) UpsertUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.accepts(u.ID, u.StoreID) {
		return
	}
	s.users[u.ID] = u
	s.version++
}

// DeleteProductCascade removes a product and every variant owned by it.
// Historical sale and return lines keep their denormalized snapshots.
func (s *Store) DeleteProductCascade(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, productID)
	for id, v := range s.variants {
		if v.ProductID == productID {
			delete(s.variants, id)
		}
	}
	s.version++
}

func (s *Store) DeleteVariant(variantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.variants, variantID)
	s.version++
}

func (s *Store) DeleteCustomer(customerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.customers, customerID)
	s.version++
}

func (s *Store) DeleteSupplier(supplierID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.suppliers, supplierID)
	s.version++
}

func (s *Store) DeleteCategory(categoryID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.categories, categoryID)
	s.version++
}

func (s *Store) DeleteReturn(returnID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.returns, returnID)
	s.version++
}

func (s *Store) ClearReturns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.returns = make(map[string]domain.Return)
	s.version++
}
