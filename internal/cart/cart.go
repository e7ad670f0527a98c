// Package cart holds the transaction in progress. A cart is mode-specific:
// switching between sale and return mode discards it entirely, so sale and
// return lines are never mixed.
package cart

import (
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"geraipos/client/internal/domain"
	"geraipos/client/internal/pricing"
	"geraipos/client/internal/xid"
)

// MinQuantity supports fractional-unit goods (e.g. half a kilo).
var MinQuantity = decimal.NewFromFloat(0.5)

type Cart struct {
	mu         sync.Mutex
	returnMode bool
	order      []string
	lines      map[string]domain.CartItem
}

func New() *Cart {
	return &Cart{lines: make(map[string]domain.CartItem)}
}

// AddVariant adds one unit of a good variant, or increments an existing
// line. Outside return mode the quantity is capped at the caller's current
// derived stock; the line's stock snapshot is refreshed on every add so the
// cap tracks restocks and drops alike.
func (c *Cart) AddVariant(v domain.ProductVariant, stock decimal.Decimal, tier domain.PriceTier) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if line, ok := c.lines[v.ID]; ok {
		line.Stock = stock
		next := line.Quantity.Add(decimal.NewFromInt(1))
		if !c.returnMode && next.GreaterThan(stock) {
			next = stock
		}
		if next.LessThan(MinQuantity) {
			next = MinQuantity
		}
		line.Quantity = next
		c.lines[v.ID] = line
		return
	}

	c.insert(domain.CartItem{
		LineID:        v.ID,
		ProductID:     v.ProductID,
		Kind:          domain.LineGood,
		Name:          v.Name,
		Price:         pricing.ForVariant(v, tier),
		Quantity:      decimal.NewFromInt(1),
		PurchasePrice: v.PurchasePrice,
		Stock:         stock,
		Image:         v.Image,
	})
}

// AddService adds a service product line with a synthetic id.
func (c *Cart) AddService(p domain.Product, tier domain.PriceTier) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := xid.New("svc")
	c.insert(domain.CartItem{
		LineID:    id,
		ProductID: p.ID,
		Kind:      domain.LineService,
		Name:      p.Name,
		Price:     pricing.ForProduct(p, tier),
		Quantity:  decimal.NewFromInt(1),
		Image:     p.Image,
	})
	return id
}

// AddCustom adds a free-form line with a manually entered price. Custom
// prices are never recomputed on tier changes.
func (c *Cart) AddCustom(name string, price decimal.Decimal) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if price.IsNegative() {
		price = decimal.Zero
	}
	id := xid.New("custom")
	c.insert(domain.CartItem{
		LineID:   id,
		Kind:     domain.LineCustom,
		Name:     strings.TrimSpace(name),
		Price:    price,
		Quantity: decimal.NewFromInt(1),
	})
	return id
}

func (c *Cart) insert(line domain.CartItem) {
	c.order = append(c.order, line.LineID)
	c.lines[line.LineID] = line
}

func (c *Cart) Remove(lineID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lines[lineID]; !ok {
		return
	}
	delete(c.lines, lineID)
	for i, id := range c.order {
		if id == lineID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// SetQuantity edits one line; quantity is floored at MinQuantity.
func (c *Cart) SetQuantity(lineID string, qty decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[lineID]
	if !ok {
		return
	}
	if qty.LessThan(MinQuantity) {
		qty = MinQuantity
	}
	line.Quantity = qty
	c.lines[lineID] = line
}

// SetPrice edits one line; price is floored at zero.
func (c *Cart) SetPrice(lineID string, price decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line, ok := c.lines[lineID]
	if !ok {
		return
	}
	if price.IsNegative() {
		price = decimal.Zero
	}
	line.Price = price
	c.lines[lineID] = line
}

// Reprice re-resolves every line's price for a new tier, preserving
// quantities. Good lines resolve through their variant, service lines
// through their owning product; custom lines keep their manual price.
func (c *Cart) Reprice(
	tier domain.PriceTier,
	variantByID func(id string) (domain.ProductVariant, bool),
	productByID func(id string) (domain.Product, bool),
) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, line := range c.lines {
		switch line.Kind {
		case domain.LineGood:
			if v, ok := variantByID(line.LineID); ok {
				line.Price = pricing.ForVariant(v, tier)
			}
		case domain.LineService:
			if p, ok := productByID(line.ProductID); ok {
				line.Price = pricing.ForProduct(p, tier)
			}
		case domain.LineCustom:
			// manual override, untouched
		}
		c.lines[id] = line
	}
}

// SetReturnMode switches the cart's mode, clearing it when the mode
// actually changes.
func (c *Cart) SetReturnMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.returnMode == on {
		return
	}
	c.returnMode = on
	c.clearLocked()
}

func (c *Cart) ReturnMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.returnMode
}

// Items returns the lines in insertion order.
func (c *Cart) Items() []domain.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.CartItem, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.lines[id])
	}
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Cart) clearLocked() {
	c.order = c.order[:0]
	c.lines = make(map[string]domain.CartItem)
}

// Subtotal sums price × quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Price.Mul(line.Quantity))
	}
	return total
}
