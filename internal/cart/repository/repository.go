package repository

import (
	"context"
	"errors"

	"storefront/internal/cart/domain"
)

var ErrCartNotFound = errors.New("cart not found")

// CartRepository persists session carts so the shopper's selection survives
// page loads. The cart is still session-owned; this is continuity, not a
// system of record.
type CartRepository interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Upsert(ctx context.Context, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
