package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"storefront/internal/order/domain"
)

// TaxCalculator and ShippingCalculator are the pricing collaborators
// consulted once per submission. Amounts are in minor currency units.
type TaxCalculator interface {
	Tax(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error)
}

type ShippingCalculator interface {
	Shipping(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error)
}

// ZeroTax charges no tax. Placeholder for jurisdictions handled elsewhere.
type ZeroTax struct{}

func (ZeroTax) Tax(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error) {
	return 0, nil
}

// BasisPointTax charges a flat fraction of the items subtotal,
// expressed in basis points (825 = 8.25%).
type BasisPointTax struct {
	Bps int64
}

func (t BasisPointTax) Tax(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error) {
	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotal
	}
	return subtotal * t.Bps / 10000, nil
}

// FlatRateShipping charges a fixed amount per physical order. Orders
// without a shipping address are digital-only and ship for free.
type FlatRateShipping struct {
	Rate int64
}

func (s FlatRateShipping) Shipping(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error) {
	if addr == nil {
		return 0, nil
	}
	return s.Rate, nil
}

type amountFunc func(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error)

// guardedAmount wraps a collaborator call with a per-call timeout, a
// bounded retry, and a circuit breaker. Once the breaker opens, calls
// fail fast without hitting the collaborator.
type guardedAmount struct {
	breaker  *gobreaker.CircuitBreaker[int64]
	call     amountFunc
	timeout  time.Duration
	attempts int
}

func newGuardedAmount(name string, call amountFunc) *guardedAmount {
	breaker := gobreaker.NewCircuitBreaker[int64](gobreaker.Settings{
		Name:    name,
		Timeout: 10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})
	return &guardedAmount{
		breaker:  breaker,
		call:     call,
		timeout:  2 * time.Second,
		attempts: 2,
	}
}

func (g *guardedAmount) amount(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error) {
	var lastErr error
	for attempt := 0; attempt < g.attempts; attempt++ {
		value, err := g.breaker.Execute(func() (int64, error) {
			callCtx, cancel := context.WithTimeout(ctx, g.timeout)
			defer cancel()
			return g.call(callCtx, items, addr)
		})
		if err == nil {
			return value, nil
		}
		lastErr = err
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, lastErr)
}

// GuardedTax decorates a TaxCalculator with the standard guard.
type GuardedTax struct {
	guard *guardedAmount
}

func NewGuardedTax(inner TaxCalculator) *GuardedTax {
	return &GuardedTax{guard: newGuardedAmount("tax-calculator", inner.Tax)}
}

func (t *GuardedTax) Tax(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error) {
	return t.guard.amount(ctx, items, addr)
}

// GuardedShipping decorates a ShippingCalculator with the standard guard.
type GuardedShipping struct {
	guard *guardedAmount
}

func NewGuardedShipping(inner ShippingCalculator) *GuardedShipping {
	return &GuardedShipping{guard: newGuardedAmount("shipping-calculator", inner.Shipping)}
}

func (s *GuardedShipping) Shipping(ctx context.Context, items []domain.OrderItem, addr *domain.ShippingAddress) (int64, error) {
	return s.guard.amount(ctx, items, addr)
}
