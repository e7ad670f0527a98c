// Package postgres talks to the authoritative PostgreSQL backend. Each
// compound endpoint runs inside a single database transaction so a failed
// call leaves no partial state behind.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/gateway"
	"geraipos/client/internal/xid"
)

type Store struct {
	db *sql.DB
}

var _ gateway.Gateway = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, storeID string) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name, type, COALESCE(category_id,''), COALESCE(supplier_id,''), COALESCE(image,''),
		       price, price_semi_wholesale, price_wholesale
		FROM products
		WHERE store_id = $1
		ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.Type, &p.CategoryID, &p.SupplierID, &p.Image,
			&p.Price, &p.PriceSemiWholesale, &p.PriceWholesale); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ListVariants(ctx context.Context, storeID string) ([]domain.ProductVariant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, product_id, store_id, name, price, price_semi_wholesale, price_wholesale,
		       purchase_price, COALESCE(barcode,''), low_stock_threshold, COALESCE(image,'')
		FROM product_variants
		WHERE store_id = $1
		ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make([]domain.ProductVariant, 0, 256)
	for rows.Next() {
		var v domain.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.StoreID, &v.Name, &v.Price, &v.PriceSemiWholesale,
			&v.PriceWholesale, &v.PurchasePrice, &v.Barcode, &v.LowStockThreshold, &v.Image); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

func (s *Store) ListStockBatches(ctx context.Context, storeID string) ([]domain.StockBatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, variant_id, store_id, quantity, purchase_price, COALESCE(purchase_id,''), created_at
		FROM stock_batches
		WHERE store_id = $1
		ORDER BY created_at
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	batches := make([]domain.StockBatch, 0, 256)
	for rows.Next() {
		var b domain.StockBatch
		if err := rows.Scan(&b.ID, &b.VariantID, &b.StoreID, &b.Quantity, &b.PurchasePrice, &b.PurchaseID, &b.CreatedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

func (s *Store) ListSales(ctx context.Context, storeID string) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, user_id, COALESCE(customer_id,''), date, items, total, profit,
		       down_payment, remaining_amount, discount
		FROM sales
		WHERE store_id = $1
		ORDER BY date DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 256)
	for rows.Next() {
		var sale domain.Sale
		var items []byte
		if err := rows.Scan(&sale.ID, &sale.StoreID, &sale.UserID, &sale.CustomerID, &sale.Date, &items,
			&sale.Total, &sale.Profit, &sale.DownPayment, &sale.RemainingAmount, &sale.Discount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &sale.Items); err != nil {
			return nil, fmt.Errorf("decode sale %s items: %w", sale.ID, err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

func (s *Store) ListReturns(ctx context.Context, storeID string) ([]domain.Return, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, user_id, date, items, refund_amount, profit_lost
		FROM returns
		WHERE store_id = $1
		ORDER BY date DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	returns := make([]domain.Return, 0, 64)
	for rows.Next() {
		var ret domain.Return
		var items []byte
		if err := rows.Scan(&ret.ID, &ret.StoreID, &ret.UserID, &ret.Date, &items, &ret.RefundAmount, &ret.ProfitLost); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &ret.Items); err != nil {
			return nil, fmt.Errorf("decode return %s items: %w", ret.ID, err)
		}
		returns = append(returns, ret)
	}
	return returns, rows.Err()
}

func (s *Store) ListPurchases(ctx context.Context, storeID string) ([]domain.Purchase, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, COALESCE(supplier_id,''), date, items, total_amount, amount_paid,
		       remaining_amount, COALESCE(payment_method,''), COALESCE(reference,'')
		FROM purchases
		WHERE store_id = $1
		ORDER BY date DESC
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	purchases := make([]domain.Purchase, 0, 128)
	for rows.Next() {
		var p domain.Purchase
		var items []byte
		if err := rows.Scan(&p.ID, &p.StoreID, &p.SupplierID, &p.Date, &items, &p.TotalAmount,
			&p.AmountPaid, &p.RemainingAmount, &p.PaymentMethod, &p.Reference); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, fmt.Errorf("decode purchase %s items: %w", p.ID, err)
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (s *Store) ListCustomers(ctx context.Context, storeID string) ([]domain.Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name, COALESCE(phone,''), COALESCE(address,''), created_at
		FROM customers
		WHERE store_id = $1
		ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := make([]domain.Customer, 0, 64)
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(&c.ID, &c.StoreID, &c.Name, &c.Phone, &c.Address, &c.CreatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *Store) ListSuppliers(ctx context.Context, storeID string) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name, COALESCE(phone,''), COALESCE(address,''), created_at
		FROM suppliers
		WHERE store_id = $1
		ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		var sup domain.Supplier
		if err := rows.Scan(&sup.ID, &sup.StoreID, &sup.Name, &sup.Phone, &sup.Address, &sup.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	return suppliers, rows.Err()
}

func (s *Store) ListCategories(ctx context.Context, storeID string) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, name FROM categories WHERE store_id = $1 ORDER BY name
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, 16)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.StoreID, &c.Name); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *Store) ListUsers(ctx context.Context, storeID string) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, store_id, username, role, active, created_at
		FROM users
		WHERE store_id = $1
		ORDER BY username
	`, storeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, 8)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.StoreID, &u.Username, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) CreateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	if customer.Name == "" {
		return nil, fmt.Errorf("create customer: name required: %w", gateway.ErrRejected)
	}
	customer.ID = xid.New("cust")
	customer.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (id, store_id, name, phone, address, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, customer.ID, customer.StoreID, customer.Name, customer.Phone, customer.Address, customer.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create customer: %w", gateway.ErrRejected)
		}
		return nil, err
	}
	return &customer, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, customer domain.Customer) (*domain.Customer, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE customers SET name = $3, phone = $4, address = $5
		WHERE id = $1 AND store_id = $2
	`, customer.ID, customer.StoreID, customer.Name, customer.Phone, customer.Address)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, gateway.ErrNotFound
	}
	return &customer, nil
}

func (s *Store) DeleteCustomer(ctx context.Context, storeID string, customerID string) error {
	return s.deleteByID(ctx, "customers", storeID, customerID)
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Name == "" {
		return nil, fmt.Errorf("create supplier: name required: %w", gateway.ErrRejected)
	}
	supplier.ID = xid.New("sup")
	supplier.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, store_id, name, phone, address, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, supplier.ID, supplier.StoreID, supplier.Name, supplier.Phone, supplier.Address, supplier.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create supplier: %w", gateway.ErrRejected)
		}
		return nil, err
	}
	return &supplier, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE suppliers SET name = $3, phone = $4, address = $5
		WHERE id = $1 AND store_id = $2
	`, supplier.ID, supplier.StoreID, supplier.Name, supplier.Phone, supplier.Address)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, gateway.ErrNotFound
	}
	return &supplier, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, storeID string, supplierID string) error {
	return s.deleteByID(ctx, "suppliers", storeID, supplierID)
}

func (s *Store) CreateCategory(ctx context.Context, category domain.Category) (*domain.Category, error) {
	if category.Name == "" {
		return nil, fmt.Errorf("create category: name required: %w", gateway.ErrRejected)
	}
	category.ID = xid.New("cat")
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (id, store_id, name) VALUES ($1,$2,$3)
	`, category.ID, category.StoreID, category.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create category: %w", gateway.ErrRejected)
		}
		return nil, err
	}
	return &category, nil
}

func (s *Store) DeleteCategory(ctx context.Context, storeID string, categoryID string) error {
	return s.deleteByID(ctx, "categories", storeID, categoryID)
}

func (s *Store) DeleteReturn(ctx context.Context, storeID string, returnID string) error {
	return s.deleteByID(ctx, "returns", storeID, returnID)
}

func (s *Store) ClearReturns(ctx context.Context, storeID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM returns WHERE store_id = $1`, storeID)
	return err
}

func (s *Store) deleteByID(ctx context.Context, table string, storeID string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1 AND store_id = $2`, id, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gateway.ErrNotFound
	}
	return nil
}

func (s *Store) CompleteSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("complete sale: no items: %w", gateway.ErrRejected)
	}
	sale.ID = xid.New("sale")
	if sale.Date.IsZero() {
		sale.Date = time.Now().UTC()
	}
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sales (id, store_id, user_id, customer_id, date, items, total, profit,
		                   down_payment, remaining_amount, discount)
		VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,$11)
	`, sale.ID, sale.StoreID, sale.UserID, sale.CustomerID, sale.Date, items,
		sale.Total, sale.Profit, sale.DownPayment, sale.RemainingAmount, sale.Discount)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) ProcessReturn(ctx context.Context, ret domain.Return) (*domain.Return, error) {
	if len(ret.Items) == 0 {
		return nil, fmt.Errorf("process return: no items: %w", gateway.ErrRejected)
	}
	ret.ID = xid.New("ret")
	if ret.Date.IsZero() {
		ret.Date = time.Now().UTC()
	}
	items, err := json.Marshal(ret.Items)
	if err != nil {
		return nil, err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO returns (id, store_id, user_id, date, items, refund_amount, profit_lost)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, ret.ID, ret.StoreID, ret.UserID, ret.Date, items, ret.RefundAmount, ret.ProfitLost)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func (s *Store) AddStock(ctx context.Context, storeID string, input domain.AddStockInput) (*domain.AddStockResult, error) {
	if !input.Quantity.IsPositive() {
		return nil, fmt.Errorf("add stock: quantity must be positive: %w", gateway.ErrRejected)
	}
	if input.SellingPrice.LessThanOrEqual(input.PurchasePrice) {
		return nil, fmt.Errorf("add stock: selling price must exceed purchase price: %w", gateway.ErrRejected)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var variant domain.ProductVariant
	var productName string
	err = tx.QueryRowContext(ctx, `
		SELECT v.id, v.product_id, v.store_id, v.name, v.price, v.price_semi_wholesale, v.price_wholesale,
		       v.purchase_price, COALESCE(v.barcode,''), v.low_stock_threshold, COALESCE(v.image,''), p.name
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.id = $1 AND v.store_id = $2
		FOR UPDATE OF v
	`, input.VariantID, storeID).Scan(&variant.ID, &variant.ProductID, &variant.StoreID, &variant.Name,
		&variant.Price, &variant.PriceSemiWholesale, &variant.PriceWholesale, &variant.PurchasePrice,
		&variant.Barcode, &variant.LowStockThreshold, &variant.Image, &productName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, err
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
			ProductID:     variant.ProductID,
			ProductName:   productName,
			VariantName:   variant.Name,
			Quantity:      input.Quantity,
			PurchasePrice: input.PurchasePrice,
		}},
		TotalAmount:     total,
		AmountPaid:      total,
		RemainingAmount: decimal.Zero,
		PaymentMethod:   "cash",
	}
	items, err := json.Marshal(purchase.Items)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO purchases (id, store_id, supplier_id, date, items, total_amount, amount_paid,
		                       remaining_amount, payment_method)
		VALUES ($1,$2,NULLIF($3,''),$4,$5,$6,$7,$8,$9)
	`, purchase.ID, purchase.StoreID, purchase.SupplierID, purchase.Date, items,
		purchase.TotalAmount, purchase.AmountPaid, purchase.RemainingAmount, purchase.PaymentMethod); err != nil {
		return nil, err
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
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock_batches (id, variant_id, store_id, quantity, purchase_price, purchase_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, batch.ID, batch.VariantID, batch.StoreID, batch.Quantity, batch.PurchasePrice, batch.PurchaseID, batch.CreatedAt); err != nil {
		return nil, err
	}

	variant.PurchasePrice = input.PurchasePrice
	variant.Price = input.SellingPrice
	if _, err := tx.ExecContext(ctx, `
		UPDATE product_variants SET price = $2, purchase_price = $3 WHERE id = $1
	`, variant.ID, variant.Price, variant.PurchasePrice); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.AddStockResult{Purchase: purchase, Batch: batch, Variant: variant}, nil
}

func (s *Store) PayCustomerDebt(ctx context.Context, storeID string, customerID string, userID string, amount decimal.Decimal) (*domain.DebtPaymentResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pay customer debt: amount must be positive: %w", gateway.ErrRejected)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM customers WHERE id = $1 AND store_id = $2)
	`, customerID, storeID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, gateway.ErrNotFound
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT id, store_id, user_id, COALESCE(customer_id,''), date, items, total, profit,
		       down_payment, remaining_amount, discount
		FROM sales
		WHERE store_id = $1 AND customer_id = $2 AND remaining_amount > 0
		ORDER BY date
		FOR UPDATE
	`, storeID, customerID)
	if err != nil {
		return nil, err
	}
	var open []domain.Sale
	outstanding := decimal.Zero
	for rows.Next() {
		var sale domain.Sale
		var items []byte
		if err := rows.Scan(&sale.ID, &sale.StoreID, &sale.UserID, &sale.CustomerID, &sale.Date, &items,
			&sale.Total, &sale.Profit, &sale.DownPayment, &sale.RemainingAmount, &sale.Discount); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if err := json.Unmarshal(items, &sale.Items); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode sale %s items: %w", sale.ID, err)
		}
		open = append(open, sale)
		outstanding = outstanding.Add(sale.RemainingAmount)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("pay customer debt: amount exceeds outstanding %s: %w", outstanding, gateway.ErrRejected)
	}

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
		if _, err := tx.ExecContext(ctx, `
			UPDATE sales SET remaining_amount = $2, down_payment = $3 WHERE id = $1
		`, sale.ID, sale.RemainingAmount, sale.DownPayment); err != nil {
			return nil, err
		}
		updated = append(updated, sale)
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
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sales (id, store_id, user_id, customer_id, date, items, total, profit,
		                   down_payment, remaining_amount, discount)
		VALUES ($1,$2,$3,$4,$5,'[]',$6,$7,$8,$9,$10)
	`, payment.ID, payment.StoreID, payment.UserID, payment.CustomerID, payment.Date,
		payment.Total, payment.Profit, payment.DownPayment, payment.RemainingAmount, payment.Discount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &domain.DebtPaymentResult{PaymentSale: payment, UpdatedSales: updated}, nil
}

func (s *Store) PaySupplierDebt(ctx context.Context, storeID string, supplierID string, amount decimal.Decimal) ([]domain.Purchase, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("pay supplier debt: amount must be positive: %w", gateway.ErrRejected)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, store_id, COALESCE(supplier_id,''), date, items, total_amount, amount_paid,
		       remaining_amount, COALESCE(payment_method,''), COALESCE(reference,'')
		FROM purchases
		WHERE store_id = $1 AND supplier_id = $2 AND remaining_amount > 0
		ORDER BY date
		FOR UPDATE
	`, storeID, supplierID)
	if err != nil {
		return nil, err
	}
	var open []domain.Purchase
	outstanding := decimal.Zero
	for rows.Next() {
		var p domain.Purchase
		var items []byte
		if err := rows.Scan(&p.ID, &p.StoreID, &p.SupplierID, &p.Date, &items, &p.TotalAmount,
			&p.AmountPaid, &p.RemainingAmount, &p.PaymentMethod, &p.Reference); err != nil {
			_ = rows.Close()
			return nil, err
		}
		if err := json.Unmarshal(items, &p.Items); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("decode purchase %s items: %w", p.ID, err)
		}
		open = append(open, p)
		outstanding = outstanding.Add(p.RemainingAmount)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("pay supplier debt: amount exceeds outstanding %s: %w", outstanding, gateway.ErrRejected)
	}

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
		if _, err := tx.ExecContext(ctx, `
			UPDATE purchases SET remaining_amount = $2, amount_paid = $3 WHERE id = $1
		`, p.ID, p.RemainingAmount, p.AmountPaid); err != nil {
			return nil, err
		}
		updated = append(updated, p)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Store) AddProductWithVariants(ctx context.Context, input domain.UpsertProductInput) (*domain.UpsertProductResult, error) {
	if input.Product.Name == "" || !input.Product.Type.Valid() {
		return nil, fmt.Errorf("add product: invalid product: %w", gateway.ErrRejected)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	product := input.Product
	product.ID = xid.New("prod")
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO products (id, store_id, name, type, category_id, supplier_id, image,
		                      price, price_semi_wholesale, price_wholesale)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),$7,$8,$9,$10)
	`, product.ID, product.StoreID, product.Name, product.Type, product.CategoryID, product.SupplierID,
		product.Image, product.Price, product.PriceSemiWholesale, product.PriceWholesale); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("add product: %w", gateway.ErrRejected)
		}
		return nil, err
	}

	result := &domain.UpsertProductResult{Product: product}
	now := time.Now().UTC()
	for _, form := range input.Inserts {
		v, b, err := insertVariantTx(ctx, tx, product, form, now)
		if err != nil {
			return nil, err
		}
		result.InsertedVariants = append(result.InsertedVariants, v)
		if b != nil {
			result.NewBatches = append(result.NewBatches, *b)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) UpdateProductWithVariants(ctx context.Context, input domain.UpsertProductInput) (*domain.UpsertProductResult, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	product := input.Product
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET name = $3, type = $4, category_id = NULLIF($5,''), supplier_id = NULLIF($6,''), image = $7,
		    price = $8, price_semi_wholesale = $9, price_wholesale = $10
		WHERE id = $1 AND store_id = $2
	`, product.ID, product.StoreID, product.Name, product.Type, product.CategoryID, product.SupplierID,
		product.Image, product.Price, product.PriceSemiWholesale, product.PriceWholesale)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, gateway.ErrNotFound
	}

	result := &domain.UpsertProductResult{Product: product}
	now := time.Now().UTC()

	for _, form := range input.Updates {
		res, err := tx.ExecContext(ctx, `
			UPDATE product_variants
			SET name = $3, price = $4, price_semi_wholesale = $5, price_wholesale = $6,
			    purchase_price = $7, barcode = NULLIF($8,''), low_stock_threshold = $9, image = $10
			WHERE id = $1 AND product_id = $2
		`, form.ID, product.ID, form.Name, form.Price, form.PriceSemiWholesale, form.PriceWholesale,
			form.PurchasePrice, form.Barcode, form.LowStockThreshold, form.Image)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, gateway.ErrNotFound
		}
		v := variantFromForm(product, form, form.ID)
		result.UpdatedVariants = append(result.UpdatedVariants, v)
		b, err := batchForFormTx(ctx, tx, v, form, now)
		if err != nil {
			return nil, err
		}
		if b != nil {
			result.NewBatches = append(result.NewBatches, *b)
		}
	}

	for _, form := range input.Inserts {
		v, b, err := insertVariantTx(ctx, tx, product, form, now)
		if err != nil {
			return nil, err
		}
		result.InsertedVariants = append(result.InsertedVariants, v)
		if b != nil {
			result.NewBatches = append(result.NewBatches, *b)
		}
	}

	for _, id := range input.DeleteVariantIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM stock_batches WHERE variant_id = $1`, id); err != nil {
			return nil, err
		}
		res, err := tx.ExecContext(ctx, `
			DELETE FROM product_variants WHERE id = $1 AND product_id = $2
		`, id, product.ID)
		if err != nil {
			return nil, err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, gateway.ErrNotFound
		}
		result.DeletedVariantIDs = append(result.DeletedVariantIDs, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) DeleteProduct(ctx context.Context, storeID string, productID string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM stock_batches
		WHERE variant_id IN (SELECT id FROM product_variants WHERE product_id = $1)
	`, productID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_variants WHERE product_id = $1`, productID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1 AND store_id = $2`, productID, storeID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return gateway.ErrNotFound
	}
	return tx.Commit()
}

func insertVariantTx(ctx context.Context, tx *sql.Tx, product domain.Product, form domain.VariantForm, now time.Time) (domain.ProductVariant, *domain.StockBatch, error) {
	v := variantFromForm(product, form, xid.New("var"))
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO product_variants (id, product_id, store_id, name, price, price_semi_wholesale,
		                              price_wholesale, purchase_price, barcode, low_stock_threshold, image)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NULLIF($9,''),$10,$11)
	`, v.ID, v.ProductID, v.StoreID, v.Name, v.Price, v.PriceSemiWholesale, v.PriceWholesale,
		v.PurchasePrice, v.Barcode, v.LowStockThreshold, v.Image); err != nil {
		if isUniqueViolation(err) {
			return domain.ProductVariant{}, nil, fmt.Errorf("insert variant %s: %w", v.Name, gateway.ErrRejected)
		}
		return domain.ProductVariant{}, nil, err
	}
	b, err := batchForFormTx(ctx, tx, v, form, now)
	return v, b, err
}

func batchForFormTx(ctx context.Context, tx *sql.Tx, v domain.ProductVariant, form domain.VariantForm, now time.Time) (*domain.StockBatch, error) {
	if !form.AddedStock.IsPositive() {
		return nil, nil
	}
	b := domain.StockBatch{
		ID:            xid.New("batch"),
		VariantID:     v.ID,
		StoreID:       v.StoreID,
		Quantity:      form.AddedStock,
		PurchasePrice: form.PurchasePrice,
		CreatedAt:     now,
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock_batches (id, variant_id, store_id, quantity, purchase_price, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, b.ID, b.VariantID, b.StoreID, b.Quantity, b.PurchasePrice, b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func variantFromForm(product domain.Product, form domain.VariantForm, id string) domain.ProductVariant {
	return domain.ProductVariant{
		ID:                 id,
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
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
