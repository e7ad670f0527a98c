package domain

import "github.com/shopspring/decimal"

// CompleteSaleRequest carries everything a sale needs beyond the cart lines.
// FinalTotal may differ from the line subtotal when the cashier overrides
// the total manually.
type CompleteSaleRequest struct {
	CustomerID  string          `json:"customer_id,omitempty"`
	DownPayment decimal.Decimal `json:"down_payment"`
	FinalTotal  decimal.Decimal `json:"final_total"`
	PrintMode   string          `json:"print_mode,omitempty"`
}

type AddStockInput struct {
	VariantID     string          `json:"variant_id" validate:"required"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
}

// AddStockResult is the atomic server result of an AddStock call: the
// single-item purchase record, the new batch, and the repriced variant.
type AddStockResult struct {
	Purchase Purchase       `json:"purchase"`
	Batch    StockBatch     `json:"batch"`
	Variant  ProductVariant `json:"variant"`
}

// VariantForm is one row of the product edit form. An empty ID marks a
// variant to insert; AddedStock > 0 produces a new stock batch.
type VariantForm struct {
	ID                 string          `json:"id,omitempty"`
	Name               string          `json:"name" validate:"required"`
	Price              decimal.Decimal `json:"price"`
	PriceSemiWholesale decimal.Decimal `json:"price_semi_wholesale"`
	PriceWholesale     decimal.Decimal `json:"price_wholesale"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	Barcode            string          `json:"barcode,omitempty"`
	LowStockThreshold  decimal.Decimal `json:"low_stock_threshold"`
	Image              string          `json:"image,omitempty"`
	AddedStock         decimal.Decimal `json:"added_stock"`
}

// UpsertProductInput is the client-computed diff sent to the compound
// product endpoints. On create only Product and Inserts are set; on update
// the diff against the mirror fills all four effect sets.
type UpsertProductInput struct {
	Product          Product       `json:"product"`
	Updates          []VariantForm `json:"updates,omitempty"`
	Inserts          []VariantForm `json:"inserts,omitempty"`
	DeleteVariantIDs []string      `json:"delete_variant_ids,omitempty"`
}

// UpsertProductResult is folded into the mirror in a fixed order (product,
// updated variants, inserted variants, deletions, batches) so stock
// derivation never sees a variant without its batches or vice versa.
type UpsertProductResult struct {
	Product           Product          `json:"product"`
	UpdatedVariants   []ProductVariant `json:"updated_variants,omitempty"`
	InsertedVariants  []ProductVariant `json:"inserted_variants,omitempty"`
	DeletedVariantIDs []string         `json:"deleted_variant_ids,omitempty"`
	NewBatches        []StockBatch     `json:"new_batches,omitempty"`
}

// DebtPaymentResult is the atomic server result of a customer debt payment:
// the degenerate payment sale plus every credit sale whose remaining amount
// the payment reduced.
type DebtPaymentResult struct {
	PaymentSale  Sale   `json:"payment_sale"`
	UpdatedSales []Sale `json:"updated_sales"`
}
