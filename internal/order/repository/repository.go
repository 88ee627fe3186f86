package repository

import (
	"context"
	"errors"

	"storefront/internal/order/domain"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrVersionConflict      = errors.New("order was modified concurrently")
)

// Credentials for the postgres backend.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OrderRepository is the durable store behind the order lifecycle. Create
// must be atomic: either the whole order with its unique number lands, or
// nothing does. Status updates are guarded by optimistic versioning; a
// stale expectedVersion yields ErrVersionConflict and leaves the row alone.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	ListByOwner(ctx context.Context, customerID, email string) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, orderNumber string, status domain.Status, expectedVersion int64) error
	UpdatePaymentStatus(ctx context.Context, orderNumber string, status domain.PaymentStatus, expectedVersion int64) error
}
