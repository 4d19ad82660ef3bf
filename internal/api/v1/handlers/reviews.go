package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reviewly/reviewly/pkg/httpext"
	"github.com/reviewly/reviewly/pkg/logger"
)

type anchorRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	ReviewID   int    `json:"review_id" validate:"required,gt=0"`
	TotalPages int    `json:"total_pages" validate:"required,gt=0,lte=500"`
}

type anchorResponse struct {
	Found bool `json:"found"`
	Page  int  `json:"page,omitempty"`
}

// HandleReviewAnchor finds the review page holding a review and moves connected widgets there
func (b *Bridge) HandleReviewAnchor(w http.ResponseWriter, r *http.Request) {
	var req anchorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpext.JsonError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if err := b.validate.Struct(req); err != nil {
		httpext.JsonErrorWithDetails(w, http.StatusBadRequest, httpext.ErrorResponse{
			Error:            "Invalid request",
			ErrorDescription: err.Error(),
		})
		return
	}

	logger.Debug(logger.HANDLER, "Resolving review %d of product %s", req.ReviewID, req.ProductID)
	page, found := b.resolver.Resolve(r.Context(), req.ProductID, req.ReviewID, req.TotalPages, widgetSelector{bridge: b})

	httpext.JsonResponse(w, http.StatusOK, anchorResponse{Found: found, Page: page})
}
