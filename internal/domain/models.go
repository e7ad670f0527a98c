package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType distinguishes stocked goods (sold through variants) from
// services (sold directly, no stock tracking).
type ProductType string

const (
	ProductGood    ProductType = "good"
	ProductService ProductType = "service"
)

func (t ProductType) Valid() bool {
	return t == ProductGood || t == ProductService
}

// LineKind is the closed set of sale/return line variants. Only LineGood
// lines ever affect stock; LineCustom prices are manual overrides and are
// never re-resolved on tier changes.
type LineKind string

const (
	LineGood    LineKind = "good"
	LineService LineKind = "service"
	LineCustom  LineKind = "custom"
)

func (k LineKind) Valid() bool {
	return k == LineGood || k == LineService || k == LineCustom
}

// PriceTier selects which selling price applies to a transaction.
type PriceTier string

const (
	TierUnit          PriceTier = "unit"
	TierSemiWholesale PriceTier = "semiWholesale"
	TierWholesale     PriceTier = "wholesale"
)

func (t PriceTier) Valid() bool {
	return t == TierUnit || t == TierSemiWholesale || t == TierWholesale
}

type Product struct {
	ID         string      `json:"id"`
	StoreID    string      `json:"store_id"`
	Name       string      `json:"name"`
	Type       ProductType `json:"type"`
	CategoryID string      `json:"category_id,omitempty"`
	SupplierID string      `json:"supplier_id,omitempty"`
	Image      string      `json:"image,omitempty"`

	// Price tiers apply directly only to service products; for goods they
	// are variant defaults. A zero tier price means the tier is unset.
	Price              decimal.Decimal `json:"price"`
	PriceSemiWholesale decimal.Decimal `json:"price_semi_wholesale"`
	PriceWholesale     decimal.Decimal `json:"price_wholesale"`
}

type ProductVariant struct {
	ID                 string          `json:"id"`
	ProductID          string          `json:"product_id"`
	StoreID            string          `json:"store_id"`
	Name               string          `json:"name"`
	Price              decimal.Decimal `json:"price"`
	PriceSemiWholesale decimal.Decimal `json:"price_semi_wholesale"`
	PriceWholesale     decimal.Decimal `json:"price_wholesale"`
	PurchasePrice      decimal.Decimal `json:"purchase_price"`
	Barcode            string          `json:"barcode,omitempty"`
	LowStockThreshold  decimal.Decimal `json:"low_stock_threshold"`
	Image              string          `json:"image,omitempty"`
}

// StockBatch is an append-only record of inventory received for a variant.
// Quantity is always positive; outgoing stock is derived from sale lines.
type StockBatch struct {
	ID            string          `json:"id"`
	VariantID     string          `json:"variant_id"`
	StoreID       string          `json:"store_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchaseID    string          `json:"purchase_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SaleItem is a denormalized line snapshot: name and price are frozen at
// sale time and survive later product edits or deletions. For goods the ID
// is the variant id; services and custom lines carry a synthetic id.
type SaleItem struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"product_id,omitempty"`
	Kind          LineKind        `json:"kind"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type Sale struct {
	ID              string          `json:"id"`
	StoreID         string          `json:"store_id"`
	UserID          string          `json:"user_id"`
	CustomerID      string          `json:"customer_id,omitempty"`
	Date            time.Time       `json:"date"`
	Items           []SaleItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Profit          decimal.Decimal `json:"profit"`
	DownPayment     decimal.Decimal `json:"down_payment"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	Discount        decimal.Decimal `json:"discount"`
}

type Return struct {
	ID           string          `json:"id"`
	StoreID      string          `json:"store_id"`
	UserID       string          `json:"user_id"`
	Date         time.Time       `json:"date"`
	Items        []SaleItem      `json:"items"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	ProfitLost   decimal.Decimal `json:"profit_lost"`
}

type PurchaseItem struct {
	VariantID     string          `json:"variant_id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	VariantName   string          `json:"variant_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type Purchase struct {
	ID              string          `json:"id"`
	StoreID         string          `json:"store_id"`
	SupplierID      string          `json:"supplier_id"`
	Date            time.Time       `json:"date"`
	Items           []PurchaseItem  `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PaymentMethod   string          `json:"payment_method"`
	Reference       string          `json:"reference,omitempty"`
}

// Customer and Supplier carry no stored debt; outstanding balances are
// always derived from sales and purchases.
type Customer struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Supplier struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Category struct {
	ID      string `json:"id"`
	StoreID string `json:"store_id"`
	Name    string `json:"name"`
}

type User struct {
	ID        string    `json:"id"`
	StoreID   string    `json:"store_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// CartItem is a transient working-set line; Stock is a snapshot of the
// derived on-hand quantity at the moment the line was added.
type CartItem struct {
	LineID        string          `json:"line_id"`
	ProductID     string          `json:"product_id,omitempty"`
	Kind          LineKind        `json:"kind"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      decimal.Decimal `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	Stock         decimal.Decimal `json:"stock"`
	Image         string          `json:"image,omitempty"`
}
