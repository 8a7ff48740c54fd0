package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iamsonukr/storefront/internal/service"
	"github.com/iamsonukr/storefront/pkg/httputil"
	"github.com/iamsonukr/storefront/pkg/middleware"
	"github.com/iamsonukr/storefront/pkg/pagination"
	"github.com/iamsonukr/storefront/pkg/validator"
)

// ReviewHandler handles HTTP requests for product review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(reviews *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews: reviews,
		logger:  logger,
	}
}

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title  string `json:"title" validate:"required,min=1,max=200"`
	Body   string `json:"body" validate:"max=5000"`
}

// ListReviews handles GET /api/v1/products/{id}/reviews
// @Summary List reviews for a product
// @Tags reviews
// @Produce json
// @Param id path string true "Product UUID"
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Param rating query int false "Filter to an exact star rating (1-5)"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products/{id}/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	params := pagination.FromRequest(r)

	// A malformed rating filter is ignored, same policy as the catalog's
	// price bounds.
	rating := 0
	if v := r.URL.Query().Get("rating"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			rating = parsed
		}
	}

	reviews, total, err := h.reviews.ListReviews(r.Context(), id.String(), rating, params.Page, params.PerPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(reviews, total, params),
	})
}

// GetSummary handles GET /api/v1/products/{id}/reviews/summary
// @Summary Get the aggregate rating for a product
// @Tags reviews
// @Produce json
// @Param id path string true "Product UUID"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products/{id}/reviews/summary [get]
func (h *ReviewHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	summary, err := h.reviews.GetSummary(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// SubmitReview handles POST /api/v1/products/{id}/reviews
// Requires a signed-in user; each user may review a product once.
// @Summary Submit a product review
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Product UUID"
// @Param request body SubmitReviewRequest true "Review to submit"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/products/{id}/reviews [post]
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req SubmitReviewRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	principal := middleware.PrincipalFromContext(r.Context())

	review, err := h.reviews.SubmitReview(r.Context(), id.String(), principal.UserID, service.SubmitReviewInput{
		Rating: req.Rating,
		Title:  req.Title,
		Body:   req.Body,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: review})
}
