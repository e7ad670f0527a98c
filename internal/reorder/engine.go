// Package reorder derives purchasing suggestions from the low-stock view.
package reorder

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/cache"
	"geraipos/client/internal/domain"
	"geraipos/client/internal/ledger"
	"geraipos/client/internal/mirror"
)

type Engine struct {
	cache    cache.SuggestionCache
	cacheTTL time.Duration
}

func NewEngine(cacheStore cache.SuggestionCache, cacheTTL time.Duration) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopSuggestionCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Engine{cache: cacheStore, cacheTTL: cacheTTL}
}

// Suggest lists one suggestion per variant at or below its low-stock
// threshold. The recommended quantity tops the variant back up to twice
// its threshold (minimum one unit); the estimate prices it at the
// variant's last known purchase price. Results are cached per mirror
// version, so a stale entry can never outlive a mutation.
func (e *Engine) Suggest(ctx context.Context, m *mirror.Store, l *ledger.Ledger) ([]domain.ReorderSuggestion, error) {
	key := fmt.Sprintf("pos:reorder:%s:%d", m.StoreID(), m.Version())
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		return cached, nil
	}

	stock := l.StockMap()
	two := decimal.NewFromInt(2)
	one := decimal.NewFromInt(1)

	suggestions := make([]domain.ReorderSuggestion, 0, 16)
	for _, v := range m.Variants() {
		onHand := stock[v.ID]
		if onHand.GreaterThan(v.LowStockThreshold) {
			continue
		}

		recommended := v.LowStockThreshold.Mul(two).Sub(onHand)
		if recommended.LessThan(one) {
			recommended = one
		}

		supplierID := ""
		if p, ok := m.ProductByID(v.ProductID); ok {
			supplierID = p.SupplierID
		}

		suggestions = append(suggestions, domain.ReorderSuggestion{
			VariantID:         v.ID,
			ProductID:         v.ProductID,
			Name:              v.Name,
			SupplierID:        supplierID,
			CurrentStock:      onHand,
			LowStockThreshold: v.LowStockThreshold,
			RecommendedQty:    recommended,
			LastPurchasePrice: v.PurchasePrice,
			EstimatedCost:     recommended.Mul(v.PurchasePrice),
		})
	}

	_ = e.cache.Set(ctx, key, suggestions, e.cacheTTL)
	return suggestions, nil
}
