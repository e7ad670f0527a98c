// Package ledger derives on-hand stock and outstanding debt from the
// mirror's append-only collections. Nothing here is stored: every view is a
// pure fold, recomputed when the underlying collections change. That keeps
// counters impossible to drift from history.
package ledger

import (
	"sync"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/mirror"
)

type Ledger struct {
	mirror *mirror.Store

	mu           sync.Mutex
	stockVersion uint64
	stock        map[string]decimal.Decimal
	debtVersion  uint64
	customerDebt map[string]decimal.Decimal
	supplierDebt map[string]decimal.Decimal
}

func New(m *mirror.Store) *Ledger {
	return &Ledger{mirror: m}
}

// StockMap returns derived on-hand quantity per variant id:
// sum of batch quantities, minus sold good lines, plus returned good lines.
// The fold is commutative, so no ordering between the three collections
// matters; only the good/service/custom kind filter does.
func (l *Ledger) StockMap() map[string]decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	version := l.mirror.Version()
	if l.stock != nil && version == l.stockVersion {
		return copyAmounts(l.stock)
	}

	stock := make(map[string]decimal.Decimal)
	for _, b := range l.mirror.Batches() {
		stock[b.VariantID] = stock[b.VariantID].Add(b.Quantity)
	}
	for _, sale := range l.mirror.Sales() {
		for _, item := range sale.Items {
			if item.Kind != domain.LineGood {
				continue
			}
			stock[item.ID] = stock[item.ID].Sub(item.Quantity)
		}
	}
	for _, ret := range l.mirror.Returns() {
		for _, item := range ret.Items {
			if item.Kind != domain.LineGood {
				continue
			}
			stock[item.ID] = stock[item.ID].Add(item.Quantity)
		}
	}

	l.stock = stock
	l.stockVersion = version
	return copyAmounts(stock)
}

func (l *Ledger) Stock(variantID string) decimal.Decimal {
	return l.StockMap()[variantID]
}

// IsLowStock reports whether a variant's derived stock is at or below its
// threshold.
func (l *Ledger) IsLowStock(v domain.ProductVariant) bool {
	return l.Stock(v.ID).LessThanOrEqual(v.LowStockThreshold)
}

// LowStockVariants returns every variant whose derived stock is at or below
// its threshold, in the mirror's variant order.
func (l *Ledger) LowStockVariants() []domain.ProductVariant {
	stock := l.StockMap()
	variants := l.mirror.Variants()
	out := make([]domain.ProductVariant, 0, len(variants))
	for _, v := range variants {
		if stock[v.ID].LessThanOrEqual(v.LowStockThreshold) {
			out = append(out, v)
		}
	}
	return out
}

// DebtByCustomer sums remaining amounts over credit sales, per customer.
// Fully paid sales (remaining <= 0) never contribute.
func (l *Ledger) DebtByCustomer() map[string]decimal.Decimal {
	l.recomputeDebt()
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyAmounts(l.customerDebt)
}

// DebtBySupplier sums remaining amounts over open purchases, per supplier.
func (l *Ledger) DebtBySupplier() map[string]decimal.Decimal {
	l.recomputeDebt()
	l.mu.Lock()
	defer l.mu.Unlock()
	return copyAmounts(l.supplierDebt)
}

func (l *Ledger) CustomerDebt(customerID string) decimal.Decimal {
	return l.DebtByCustomer()[customerID]
}

func (l *Ledger) SupplierDebt(supplierID string) decimal.Decimal {
	return l.DebtBySupplier()[supplierID]
}

func (l *Ledger) recomputeDebt() {
	l.mu.Lock()
	defer l.mu.Unlock()

	version := l.mirror.Version()
	if l.customerDebt != nil && version == l.debtVersion {
		return
	}

	customers := make(map[string]decimal.Decimal)
	for _, sale := range l.mirror.Sales() {
		if sale.CustomerID == "" || !sale.RemainingAmount.IsPositive() {
			continue
		}
		customers[sale.CustomerID] = customers[sale.CustomerID].Add(sale.RemainingAmount)
	}

	suppliers := make(map[string]decimal.Decimal)
	for _, p := range l.mirror.Purchases() {
		if !p.RemainingAmount.IsPositive() {
			continue
		}
		suppliers[p.SupplierID] = suppliers[p.SupplierID].Add(p.RemainingAmount)
	}

	l.customerDebt = customers
	l.supplierDebt = suppliers
	l.debtVersion = version
}

func copyAmounts(in map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
