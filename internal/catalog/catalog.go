// Package catalog is the read-only product lookup the cart and order flows
// depend on. The storefront's catalog management itself lives elsewhere.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUnknownVariant  = errors.New("unknown variant selection")
)

// Variant is one selectable option on a product. PriceModifier, in minor
// currency units, is added to the base price per unit when selected.
type Variant struct {
	Name          string `json:"name"`
	Value         string `json:"value"`
	PriceModifier int64  `json:"price_modifier,omitempty"`
}

type Product struct {
	ID       string
	SKU      string
	Name     string
	Price    int64 // minor currency units
	Currency string
	Stock    int
	Digital  bool
	Variants []Variant
}

// UnitPrice returns the effective per-unit price for a variant selection:
// base price plus the modifier of each selected variant value.
func (p Product) UnitPrice(selected map[string]string) (int64, error) {
	price := p.Price
	for name, value := range selected {
		v, ok := p.findVariant(name, value)
		if !ok {
			return 0, fmt.Errorf("%w: %s=%s", ErrUnknownVariant, name, value)
		}
		price += v.PriceModifier
	}
	return price, nil
}

func (p Product) findVariant(name, value string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.Name == name && v.Value == value {
			return v, true
		}
	}
	return Variant{}, false
}

// ProductStore is the lookup interface the storefront consumes.
type ProductStore interface {
	Get(ctx context.Context, id string) (Product, error)
	List(ctx context.Context) ([]Product, error)
}
