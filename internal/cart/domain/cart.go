package domain

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrInvalidQuantity is returned when a caller tries to add less than one
// unit of a product. That is a contract violation, not a clamp-to-1.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// LineItem is one product-and-variant selection inside a cart.
// UnitPrice is the price snapshotted when the item was added (variant
// modifiers already applied), in minor currency units.
type LineItem struct {
	ProductID string            `json:"product_id" bson:"product_id"`
	UnitPrice int64             `json:"unit_price" bson:"unit_price"`
	Quantity  int               `json:"quantity" bson:"quantity"`
	Variants  map[string]string `json:"variants,omitempty" bson:"variants,omitempty"`
	AddedAt   time.Time         `json:"added_at" bson:"added_at"`
}

// Key identifies a line item within a cart: the same product with the same
// variant selection merges into one line, anything else is a separate entry.
func (li LineItem) Key() string {
	return lineKey(li.ProductID, li.Variants)
}

func lineKey(productID string, variants map[string]string) string {
	if len(variants) == 0 {
		return productID
	}
	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(productID)
	for _, name := range names {
		b.WriteByte('|')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(variants[name])
	}
	return b.String()
}

// Cart is the session-owned working selection. Methods are synchronous and
// touch nothing but the struct itself; callers sharing a cart across
// goroutines must serialize access (the cart service does).
type Cart struct {
	SessionID string     `json:"session_id" bson:"session_id"`
	Items     []LineItem `json:"items" bson:"items"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
}

// AddItem merges into an existing line with the same (product, variants) key
// or appends a new line with the given snapshot price.
func (c *Cart) AddItem(productID string, unitPrice int64, quantity int, variants map[string]string) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	key := lineKey(productID, variants)
	for i := range c.Items {
		if c.Items[i].Key() == key {
			c.Items[i].Quantity += quantity
			return nil
		}
	}

	c.Items = append(c.Items, LineItem{
		ProductID: productID,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Variants:  cloneVariants(variants),
		AddedAt:   time.Now(),
	})
	return nil
}

// RemoveItem drops every line for the product, whatever variants were
// selected. Removing a product that is not in the cart is a no-op.
func (c *Cart) RemoveItem(productID string) {
	kept := c.Items[:0]
	for _, li := range c.Items {
		if li.ProductID != productID {
			kept = append(kept, li)
		}
	}
	c.Items = kept
}

// UpdateQuantity sets the quantity on the first line matching the product.
// A quantity of zero or less removes the product entirely, matching the
// storefront's single quantity control per displayed entry.
func (c *Cart) UpdateQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			return
		}
	}
}

// UpdateVariantQuantity targets the exact (product, variants) line when a
// product appears with several variant selections.
func (c *Cart) UpdateVariantQuantity(productID string, variants map[string]string, quantity int) {
	key := lineKey(productID, variants)
	for i := range c.Items {
		if c.Items[i].Key() != key {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		return
	}
}

// Clear empties the cart unconditionally.
func (c *Cart) Clear() {
	c.Items = nil
}

// TotalItems is the sum of quantities, recomputed on every call.
func (c *Cart) TotalItems() int {
	total := 0
	for _, li := range c.Items {
		total += li.Quantity
	}
	return total
}

// TotalPrice is the sum of unit price times quantity over all lines, in
// minor currency units. Recomputed on every call, never cached.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, li := range c.Items {
		total += li.UnitPrice * int64(li.Quantity)
	}
	return total
}

// Clone returns a deep copy so repositories can hand out carts without
// sharing the items slice with the caller.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]LineItem, len(c.Items))
	for i, li := range c.Items {
		cp.Items[i] = li
		cp.Items[i].Variants = cloneVariants(li.Variants)
	}
	return &cp
}

func cloneVariants(variants map[string]string) map[string]string {
	if len(variants) == 0 {
		return nil
	}
	cp := make(map[string]string, len(variants))
	for k, v := range variants {
		cp[k] = v
	}
	return cp
}
