package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"storefront/internal/catalog"
)

// ProductCatalog is the read surface shoppers browse before carting.
type ProductCatalog interface {
	Get(ctx context.Context, id string) (catalog.Product, error)
	List(ctx context.Context) ([]catalog.Product, error)
}

type ProductsHandler struct {
	products ProductCatalog
	timeout  time.Duration
}

func NewProductsHandler(products ProductCatalog, timeout time.Duration) *ProductsHandler {
	return &ProductsHandler{
		products: products,
		timeout:  timeout,
	}
}

type ProductDTO struct {
	ID       string            `json:"id"`
	SKU      string            `json:"sku"`
	Name     string            `json:"name"`
	Price    int64             `json:"price"`
	Currency string            `json:"currency"`
	Stock    int               `json:"stock"`
	Digital  bool              `json:"digital"`
	Variants []catalog.Variant `json:"variants,omitempty"`
}

func toProductDTO(p catalog.Product) ProductDTO {
	return ProductDTO{
		ID:       p.ID,
		SKU:      p.SKU,
		Name:     p.Name,
		Price:    p.Price,
		Currency: p.Currency,
		Stock:    p.Stock,
		Digital:  p.Digital,
		Variants: p.Variants,
	}
}

func (h *ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.List(ctx)
	if err != nil {
		log.Printf("failed to list products: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toProductDTO(p))
	}
	respondJSON(w, http.StatusOK, out)
}

func (h *ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	product, err := h.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		log.Printf("failed to get product %s: %v", productID, err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, toProductDTO(product))
}
