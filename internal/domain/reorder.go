package domain

import "github.com/shopspring/decimal"

// ReorderSuggestion is a derived purchasing hint for a low-stock variant.
type ReorderSuggestion struct {
	VariantID         string          `json:"variant_id"`
	ProductID         string          `json:"product_id"`
	Name              string          `json:"name"`
	SupplierID        string          `json:"supplier_id,omitempty"`
	CurrentStock      decimal.Decimal `json:"current_stock"`
	LowStockThreshold decimal.Decimal `json:"low_stock_threshold"`
	RecommendedQty    decimal.Decimal `json:"recommended_qty"`
	LastPurchasePrice decimal.Decimal `json:"last_purchase_price"`
	EstimatedCost     decimal.Decimal `json:"estimated_cost"`
}
