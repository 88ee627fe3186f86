package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/order/domain"
	"storefront/internal/order/service"
)

// OrderService is the slice of the order service the handler needs.
type OrderService interface {
	SubmitOrder(ctx context.Context, requester domain.Requester, req service.SubmitRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, requester domain.Requester, orderNumber string) (*domain.Order, error)
	ListOrders(ctx context.Context, requester domain.Requester) ([]*domain.Order, error)
	ListAllOrders(ctx context.Context, requester domain.Requester) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, requester domain.Requester, orderNumber string, next domain.Status) (*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, requester domain.Requester, orderNumber string, next domain.PaymentStatus) (*domain.Order, error)
}

type OrdersHandler struct {
	orders  OrderService
	timeout time.Duration
}

func NewOrdersHandler(orders OrderService, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

type SubmitOrderItemDTO struct {
	ProductID string            `json:"product_id"`
	UnitPrice int64             `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Variants  map[string]string `json:"variants,omitempty"`
}

type SubmitOrderRequestDTO struct {
	Items           []SubmitOrderItemDTO    `json:"items"`
	Email           string                  `json:"email"`
	PaymentMethod   string                  `json:"payment_method"`
	ShippingAddress *domain.ShippingAddress `json:"shipping_address,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type UpdatePaymentStatusRequestDTO struct {
	PaymentStatus string `json:"payment_status"`
}

type OrderDTO struct {
	OrderNumber     string                  `json:"order_number"`
	CustomerID      string                  `json:"customer_id,omitempty"`
	Email           string                  `json:"email"`
	Items           []domain.OrderItem      `json:"items"`
	Currency        string                  `json:"currency"`
	Subtotal        int64                   `json:"subtotal"`
	Tax             int64                   `json:"tax"`
	Shipping        int64                   `json:"shipping"`
	Total           int64                   `json:"total"`
	Status          string                  `json:"status"`
	PaymentStatus   string                  `json:"payment_status"`
	PaymentMethod   string                  `json:"payment_method"`
	ShippingAddress *domain.ShippingAddress `json:"shipping_address,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func toOrderDTO(order *domain.Order) OrderDTO {
	return OrderDTO{
		OrderNumber:     order.OrderNumber,
		CustomerID:      order.CustomerID,
		Email:           order.Email,
		Items:           order.Items,
		Currency:        order.Currency,
		Subtotal:        order.Subtotal,
		Tax:             order.Tax,
		Shipping:        order.Shipping,
		Total:           order.Total,
		Status:          order.Status.String(),
		PaymentStatus:   order.PaymentStatus.String(),
		PaymentMethod:   string(order.PaymentMethod),
		ShippingAddress: order.ShippingAddress,
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func toOrderDTOs(orders []*domain.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, order := range orders {
		out = append(out, toOrderDTO(order))
	}
	return out
}

func (h *OrdersHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SubmitOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	items := make([]service.SubmitItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, service.SubmitItem{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Variants:  item.Variants,
		})
	}

	order, err := h.orders.SubmitOrder(ctx, requesterFromContext(r.Context()), service.SubmitRequest{
		Items:           items,
		Email:           req.Email,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
	})
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderDTO(order))
}

func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderNumber := chi.URLParam(r, "order_number")
	order, err := h.orders.GetOrder(ctx, requesterFromContext(r.Context()), orderNumber)
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListOrders(ctx, requesterFromContext(r.Context()))
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *OrdersHandler) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orders, err := h.orders.ListAllOrders(ctx, requesterFromContext(r.Context()))
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTOs(orders))
}

func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderNumber := chi.URLParam(r, "order_number")
	order, err := h.orders.UpdateStatus(ctx, requesterFromContext(r.Context()), orderNumber, domain.Status(req.Status))
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}

func (h *OrdersHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdatePaymentStatusRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orderNumber := chi.URLParam(r, "order_number")
	order, err := h.orders.UpdatePaymentStatus(ctx, requesterFromContext(r.Context()), orderNumber, domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		handleOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toOrderDTO(order))
}
