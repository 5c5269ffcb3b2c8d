package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/services"
)

// ProductsHandler serves catalog product search.
type ProductsHandler struct {
	catalog services.CatalogService
	logger  *zap.Logger
}

// NewProductsHandler creates a new ProductsHandler.
func NewProductsHandler(catalog services.CatalogService, logger *zap.Logger) *ProductsHandler {
	return &ProductsHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers the products handler's routes on the given mux.
func (h *ProductsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/search", h.Search)
}

// Search handles GET /api/search?q=<text>.
func (h *ProductsHandler) Search(w http.ResponseWriter, r *http.Request) {
	hits, err := h.catalog.SearchProducts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("Product search failed", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "search_failed", "error searching products")
		return
	}

	if err := WriteJSON(w, http.StatusOK, hits); err != nil {
		h.logger.Error("Failed to encode search response", zap.Error(err))
	}
}
