package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	cartdomain "storefront/internal/cart/domain"
	"storefront/internal/catalog"
)

// CartService is the slice of the cart service the handler needs.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*cartdomain.Cart, error)
	AddItem(ctx context.Context, sessionID, productID string, quantity int, variants map[string]string) (*cartdomain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, productID string, quantity int, variants map[string]string) (*cartdomain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productID string) (*cartdomain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	carts   CartService
	timeout time.Duration
}

func NewCartHandler(carts CartService, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string            `json:"product_id"`
	Quantity  int               `json:"quantity"`
	Variants  map[string]string `json:"variants,omitempty"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int               `json:"quantity"`
	Variants map[string]string `json:"variants,omitempty"`
}

type CartItemDTO struct {
	ProductID string            `json:"product_id"`
	UnitPrice int64             `json:"unit_price"`
	Quantity  int               `json:"quantity"`
	Variants  map[string]string `json:"variants,omitempty"`
	LineTotal int64             `json:"line_total"`
}

type CartDTO struct {
	SessionID  string        `json:"session_id"`
	Items      []CartItemDTO `json:"items"`
	TotalItems int           `json:"total_items"`
	TotalPrice int64         `json:"total_price"`
}

func toCartDTO(cart *cartdomain.Cart) CartDTO {
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ProductID: item.ProductID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Variants:  item.Variants,
			LineTotal: item.UnitPrice * int64(item.Quantity),
		})
	}
	return CartDTO{
		SessionID:  cart.SessionID,
		Items:      items,
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	cart, err := h.carts.GetCart(ctx, sessionID)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	cart, err := h.carts.AddItem(ctx, sessionID, req.ProductID, req.Quantity, req.Variants)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, toCartDTO(cart))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must not exceed 99")
		return
	}

	// quantity <= 0 removes the line
	cart, err := h.carts.UpdateQuantity(ctx, sessionID, productID, req.Quantity, req.Variants)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	cart, err := h.carts.RemoveItem(ctx, sessionID, productID)
	if err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sessionID := sessionFromContext(r.Context())
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "missing_session", "no cart session")
		return
	}

	if err := h.carts.ClearCart(ctx, sessionID); err != nil {
		handleCartError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toCartDTO(&cartdomain.Cart{SessionID: sessionID}))
}

func handleCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", "product not found")
	case errors.Is(err, catalog.ErrUnknownVariant):
		respondError(w, http.StatusBadRequest, "invalid_variants", "unknown variant selection")
	case errors.Is(err, cartdomain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be at least 1")
	default:
		log.Printf("unhandled cart error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
