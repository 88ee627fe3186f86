package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/order/domain"
	"storefront/internal/order/ordernum"
	"storefront/internal/order/publisher"
	"storefront/internal/order/repository"
)

const maxOrderNumberAttempts = 5

var emailRx = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Config tunes submission and transition policy.
type Config struct {
	// PriceToleranceCents is the largest absolute per-unit drift between a
	// submitted price and the current catalog price that still passes. Zero
	// means exact match.
	PriceToleranceCents int64
	// AllowCancelProcessing permits cancelling orders already in processing.
	AllowCancelProcessing bool
}

// SubmitItem is one cart line as the shopper submitted it. UnitPrice is
// the price the shopper saw; it is verified against the catalog before
// the order is accepted.
type SubmitItem struct {
	ProductID string
	UnitPrice int64
	Quantity  int
	Variants  map[string]string
}

type SubmitRequest struct {
	Items           []SubmitItem
	Email           string
	PaymentMethod   domain.PaymentMethod
	ShippingAddress *domain.ShippingAddress
	Notes           string
}

type OrderService struct {
	repo     repository.OrderRepository
	catalog  catalog.ProductStore
	tax      TaxCalculator
	shipping ShippingCalculator
	events   publisher.Publisher
	cfg      Config
}

func NewOrderService(repo repository.OrderRepository, products catalog.ProductStore, tax TaxCalculator, shipping ShippingCalculator, events publisher.Publisher, cfg Config) *OrderService {
	return &OrderService{
		repo:     repo,
		catalog:  products,
		tax:      tax,
		shipping: shipping,
		events:   events,
		cfg:      cfg,
	}
}

// SubmitOrder validates the submission, re-verifies every price against
// the catalog, computes totals, and persists the order atomically under a
// freshly generated unique order number. The new order starts as
// pending/payment pending.
func (s *OrderService) SubmitOrder(ctx context.Context, requester domain.Requester, req SubmitRequest) (*domain.Order, error) {
	if len(req.Items) == 0 {
		return nil, &domain.ValidationError{Field: "items", Message: "must contain at least one item"}
	}
	if req.Email == "" {
		return nil, &domain.ValidationError{Field: "email", Message: "is required"}
	}
	if !emailRx.MatchString(req.Email) {
		return nil, &domain.ValidationError{Field: "email", Message: "is not a valid email address"}
	}
	// payment method is optional at submission; payment capture happens later
	if req.PaymentMethod != "" && !req.PaymentMethod.IsValid() {
		return nil, &domain.ValidationError{Field: "payment_method", Message: "must be one of credit_card, paypal, stripe"}
	}

	items, currency, digitalOnly, err := s.verifyItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	if !digitalOnly {
		if err := validateShippingAddress(req.ShippingAddress); err != nil {
			return nil, err
		}
	}

	var subtotal int64
	for _, item := range items {
		subtotal += item.LineTotal
	}

	tax, err := s.tax.Tax(ctx, items, req.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("tax calculation: %w", err)
	}
	shipping, err := s.shipping.Shipping(ctx, items, req.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("shipping calculation: %w", err)
	}

	order := &domain.Order{
		CustomerID:      requester.CustomerID,
		Email:           req.Email,
		Items:           items,
		Currency:        currency,
		Subtotal:        subtotal,
		Tax:             tax,
		Shipping:        shipping,
		Total:           subtotal + tax + shipping,
		Status:          domain.StatusPending,
		PaymentStatus:   domain.PaymentPending,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	}
	if digitalOnly {
		order.ShippingAddress = nil
	}

	if err := s.createWithUniqueNumber(ctx, order); err != nil {
		return nil, err
	}

	s.publish(ctx, publisher.EventOrderCreated, order)
	return order, nil
}

// verifyItems resolves each submitted line against the catalog, checks
// price drift and stock, and returns the order item snapshots.
func (s *OrderService) verifyItems(ctx context.Context, submitted []SubmitItem) ([]domain.OrderItem, string, bool, error) {
	items := make([]domain.OrderItem, 0, len(submitted))
	currency := ""
	digitalOnly := true

	for i, line := range submitted {
		if line.ProductID == "" {
			return nil, "", false, &domain.ValidationError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "is required",
			}
		}
		if line.Quantity < 1 {
			return nil, "", false, &domain.ValidationError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "must be at least 1",
			}
		}

		product, err := s.catalog.Get(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, catalog.ErrProductNotFound) {
				return nil, "", false, &domain.ValidationError{
					Field:   fmt.Sprintf("items[%d].product_id", i),
					Message: "unknown product",
				}
			}
			return nil, "", false, fmt.Errorf("failed to look up product %s: %w", line.ProductID, err)
		}

		current, err := product.UnitPrice(line.Variants)
		if err != nil {
			return nil, "", false, &domain.ValidationError{
				Field:   fmt.Sprintf("items[%d].variants", i),
				Message: "unknown variant selection",
			}
		}

		drift := current - line.UnitPrice
		if drift < 0 {
			drift = -drift
		}
		if drift > s.cfg.PriceToleranceCents {
			return nil, "", false, fmt.Errorf("%w: %s submitted %d, current %d",
				ErrStalePrice, line.ProductID, line.UnitPrice, current)
		}

		if !product.Digital {
			digitalOnly = false
			if line.Quantity > product.Stock {
				return nil, "", false, &domain.ValidationError{
					Field:   fmt.Sprintf("items[%d].quantity", i),
					Message: "exceeds available stock",
				}
			}
		}

		if currency == "" {
			currency = product.Currency
		} else if product.Currency != currency {
			return nil, "", false, &domain.ValidationError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "currency does not match the rest of the order",
			}
		}

		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Variants:  line.Variants,
			LineTotal: line.UnitPrice * int64(line.Quantity),
		})
	}

	if currency == "" {
		currency = "USD"
	}
	return items, currency, digitalOnly, nil
}

func validateShippingAddress(addr *domain.ShippingAddress) error {
	if addr == nil {
		return &domain.ValidationError{Field: "shipping_address", Message: "is required for physical items"}
	}
	required := []struct {
		field string
		value string
	}{
		{"shipping_address.first_name", addr.FirstName},
		{"shipping_address.last_name", addr.LastName},
		{"shipping_address.address1", addr.Address1},
		{"shipping_address.city", addr.City},
		{"shipping_address.state", addr.State},
		{"shipping_address.zip", addr.Zip},
		{"shipping_address.country", addr.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return &domain.ValidationError{Field: r.field, Message: "is required"}
		}
	}
	return nil
}

func (s *OrderService) createWithUniqueNumber(ctx context.Context, order *domain.Order) error {
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		number, err := ordernum.New()
		if err != nil {
			return fmt.Errorf("failed to generate order number: %w", err)
		}
		order.OrderNumber = number

		err = s.repo.Create(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return fmt.Errorf("failed to persist order: %w", err)
		}
	}
	return ErrOrderNumberExhausted
}

// GetOrder returns the order if the requester may read it. Non-admin
// callers are told "access denied" whether the order is missing or simply
// not theirs, so order numbers cannot be enumerated.
func (s *OrderService) GetOrder(ctx context.Context, requester domain.Requester, orderNumber string) (*domain.Order, error) {
	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) && !requester.Admin {
			return nil, domain.ErrAccessDenied
		}
		return nil, err
	}
	if !order.CanBeReadBy(requester) {
		return nil, domain.ErrAccessDenied
	}
	return order, nil
}

// ListOrders returns the requester's own orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, requester domain.Requester) ([]*domain.Order, error) {
	if requester.Anonymous() {
		return nil, domain.ErrAccessDenied
	}
	return s.repo.ListByOwner(ctx, requester.CustomerID, requester.Email)
}

// ListAllOrders is the admin view across all customers.
func (s *OrderService) ListAllOrders(ctx context.Context, requester domain.Requester) ([]*domain.Order, error) {
	if !requester.Admin {
		return nil, domain.ErrAccessDenied
	}
	return s.repo.ListAll(ctx)
}

// UpdateStatus moves an order through the fulfillment machine. Admin only.
func (s *OrderService) UpdateStatus(ctx context.Context, requester domain.Requester, orderNumber string, next domain.Status) (*domain.Order, error) {
	if !requester.Admin {
		return nil, domain.ErrAccessDenied
	}
	if !next.IsValid() {
		return nil, &domain.ValidationError{Field: "status", Message: "is not a recognized status"}
	}

	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next, s.cfg.AllowCancelProcessing) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, next)
	}

	if err := s.repo.UpdateStatus(ctx, orderNumber, next, order.Version); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, publisher.EventOrderStatusChanged, updated)
	return updated, nil
}

// UpdatePaymentStatus moves an order through the payment machine,
// independently of fulfillment. Admin only.
func (s *OrderService) UpdatePaymentStatus(ctx context.Context, requester domain.Requester, orderNumber string, next domain.PaymentStatus) (*domain.Order, error) {
	if !requester.Admin {
		return nil, domain.ErrAccessDenied
	}
	if !next.IsValid() {
		return nil, &domain.ValidationError{Field: "payment_status", Message: "is not a recognized payment status"}
	}

	order, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !order.PaymentStatus.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.PaymentStatus, next)
	}

	if err := s.repo.UpdatePaymentStatus(ctx, orderNumber, next, order.Version); err != nil {
		return nil, err
	}

	updated, err := s.repo.GetByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, publisher.EventOrderPaymentChanged, updated)
	return updated, nil
}

// publish is best-effort: a broker outage must not fail the request.
func (s *OrderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	event := publisher.Event{
		EventType:     eventType,
		OrderNumber:   order.OrderNumber,
		CustomerID:    order.CustomerID,
		Email:         order.Email,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Total:         order.Total,
		Currency:      order.Currency,
		OccurredAt:    time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Printf("failed to publish %s for order %s: %v", eventType, order.OrderNumber, err)
	}
}
