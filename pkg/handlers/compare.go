package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/apperrors"
	"github.com/pricecart/pricecart-engine/pkg/auth"
	"github.com/pricecart/pricecart-engine/pkg/services"
)

// CompareHandler serves the list price-comparison endpoint.
type CompareHandler struct {
	comparisons services.ComparisonService
	logger      *zap.Logger
}

// NewCompareHandler creates a new CompareHandler.
func NewCompareHandler(comparisons services.ComparisonService, logger *zap.Logger) *CompareHandler {
	return &CompareHandler{comparisons: comparisons, logger: logger}
}

// RegisterRoutes registers the compare handler's routes on the given mux.
func (h *CompareHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/lists/{id}/compare", h.Compare)
}

// Compare handles GET /api/lists/{id}/compare. Whether the caller may read
// the list is decided by the external list service; here the list id and the
// authenticated caller are all that is needed.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	listID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_list_id", "list id must be a UUID")
		return
	}

	result, err := h.comparisons.Compare(r.Context(), listID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrListTooLarge):
			_ = ErrorResponse(w, http.StatusBadRequest, "list_too_large", "list has too many items to compare")
		case errors.Is(err, apperrors.ErrNotFound):
			_ = ErrorResponse(w, http.StatusNotFound, "not_found", "list not found")
		default:
			h.logger.Error("Comparison failed",
				zap.String("list_id", listID.String()),
				zap.String("user_id", auth.UserIDFromContext(r.Context())),
				zap.Error(err))
			_ = ErrorResponse(w, http.StatusInternalServerError, "comparison_failed", "error comparing prices")
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to encode comparison response", zap.Error(err))
	}
}
