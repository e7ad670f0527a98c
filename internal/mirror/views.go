package mirror

import (
	"slices"
	"strings"

	"geraipos/client/internal/domain"
)

// Load* replace a whole collection from a bulk listing. Records for other
// stores are dropped rather than trusted.

func (s *Store) LoadProducts(items []domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = make(map[string]domain.Product, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.products[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadVariants(items []domain.ProductVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants = make(map[string]domain.ProductVariant, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.variants[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadBatches(items []domain.StockBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = make(map[string]domain.StockBatch, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.batches[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadSales(items []domain.Sale) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = make(map[string]domain.Sale, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.sales[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadReturns(items []domain.Return) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.returns = make(map[string]domain.Return, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.returns[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadPurchases(items []domain.Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = make(map[string]domain.Purchase, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.purchases[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadCustomers(items []domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers = make(map[string]domain.Customer, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.customers[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadSuppliers(items []domain.Supplier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suppliers = make(map[string]domain.Supplier, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.suppliers[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadCategories(items []domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = make(map[string]domain.Category, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.categories[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) LoadUsers(items []domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[string]domain.User, len(items))
	for _, it := range items {
		if s.accepts(it.ID, it.StoreID) {
			s.users[it.ID] = it
		}
	}
	s.version++
}

func (s *Store) Products() []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Store) Variants() []domain.ProductVariant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ProductVariant, 0, len(s.variants))
	for _, v := range s.variants {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b domain.ProductVariant) int {
		if a.ProductID == b.ProductID {
			return strings.Compare(a.Name, b.Name)
		}
		return strings.Compare(a.ProductID, b.ProductID)
	})
	return out
}

func (s *Store) Batches() []domain.StockBatch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StockBatch, 0, len(s.batches))
	for _, b := range s.batches {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b domain.StockBatch) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return strings.Compare(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return out
}

func (s *Store) Sales() []domain.Sale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sale, 0, len(s.sales))
	for _, sale := range s.sales {
		out = append(out, sale)
	}
	slices.SortFunc(out, compareByDate[domain.Sale](func(x domain.Sale) (string, int64) {
		return x.ID, x.Date.UnixNano()
	}))
	return out
}

func (s *Store) Returns() []domain.Return {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Return, 0, len(s.returns))
	for _, r := range s.returns {
		out = append(out, r)
	}
	slices.SortFunc(out, compareByDate[domain.Return](func(x domain.Return) (string, int64) {
		return x.ID, x.Date.UnixNano()
	}))
	return out
}

func (s *Store) Purchases() []domain.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Purchase, 0, len(s.purchases))
	for _, p := range s.purchases {
		out = append(out, p)
	}
	slices.SortFunc(out, compareByDate[domain.Purchase](func(x domain.Purchase) (string, int64) {
		return x.ID, x.Date.UnixNano()
	}))
	return out
}

func (s *Store) Customers() []domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Customer) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Store) Suppliers() []domain.Supplier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Supplier, 0, len(s.suppliers))
	for _, sp := range s.suppliers {
		out = append(out, sp)
	}
	slices.SortFunc(out, func(a, b domain.Supplier) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Store) Categories() []domain.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b domain.Category) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Store) Users() []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b domain.User) int {
		return strings.Compare(a.Username, b.Username)
	})
	return out
}

func (s *Store) ProductByID(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

func (s *Store) VariantByID(id string) (domain.ProductVariant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.variants[id]
	return v, ok
}

// VariantByBarcode scans the variant collection; barcodes are unique within
// a store so the first hit wins.
func (s *Store) VariantByBarcode(code string) (domain.ProductVariant, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.ProductVariant{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.variants {
		if v.Barcode == code {
			return v, true
		}
	}
	return domain.ProductVariant{}, false
}

func (s *Store) SaleByID(id string) (domain.Sale, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[id]
	return sale, ok
}

func (s *Store) CustomerByID(id string) (domain.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	return c, ok
}

func (s *Store) SupplierByID(id string) (domain.Supplier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.suppliers[id]
	return sp, ok
}

// compareByDate orders newest-first with id as a stable tie-break.
func compareByDate[T any](key func(T) (string, int64)) func(a, b T) int {
	return func(a, b T) int {
		aID, aTS := key(a)
		bID, bTS := key(b)
		if aTS == bTS {
			return strings.Compare(bID, aID)
		}
		if aTS > bTS {
			return -1
		}
		return 1
	}
}
