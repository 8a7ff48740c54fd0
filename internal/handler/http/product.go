package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iamsonukr/storefront/internal/domain"
	"github.com/iamsonukr/storefront/internal/repository"
	"github.com/iamsonukr/storefront/internal/service"
	"github.com/iamsonukr/storefront/pkg/httputil"
	"github.com/iamsonukr/storefront/pkg/pagination"
	"github.com/iamsonukr/storefront/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new catalog HTTP handler.
func NewProductHandler(catalog *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// CreateProductRequest is the JSON request body for adding a product.
type CreateProductRequest struct {
	Name         string            `json:"name" validate:"required,min=1,max=200"`
	Description  string            `json:"description" validate:"max=5000"`
	Category     string            `json:"category" validate:"required"`
	Price        int64             `json:"price" validate:"required,gte=0"`
	ComparePrice int64             `json:"compare_price" validate:"gte=0"`
	Currency     string            `json:"currency" validate:"required,len=3"`
	Images       []string          `json:"images" validate:"dive,url"`
	Stock        int               `json:"stock" validate:"gte=0"`
	Specs        map[string]string `json:"specs"`
	Tags         []string          `json:"tags" validate:"max=20,dive,min=1,max=50"`
}

// ListProducts handles GET /api/v1/products
// @Summary List products
// @Description Returns a paginated catalog page with optional filtering and sorting
// @Tags catalog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(20)
// @Param category query string false "Filter by category"
// @Param search query string false "Search in name and description"
// @Param min_price query int false "Minimum price in cents"
// @Param max_price query int false "Maximum price in cents"
// @Param sort query string false "Sort order" Enums(newest,price_asc,price_desc,rating)
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/products [get]
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	filter := repository.ProductFilter{
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	q := r.URL.Query()
	if v := q.Get("category"); v != "" {
		filter.Category = &v
	}
	if v := q.Get("search"); v != "" {
		filter.Search = &v
	}
	// Malformed price bounds are treated as absent rather than rejected;
	// the browse endpoint is forgiving about hand-edited URLs.
	if v := q.Get("min_price"); v != "" {
		if price, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MinPrice = &price
		}
	}
	if v := q.Get("max_price"); v != "" {
		if price, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.MaxPrice = &price
		}
	}
	if v := q.Get("sort"); v != "" {
		filter.Sort = v
	}

	products, total, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(products, total, params),
	})
}

// GetProduct handles GET /api/v1/products/{idOrSlug}
// It accepts both a UUID (product ID) and a URL slug for lookup.
// @Summary Get product by ID or slug
// @Tags catalog
// @Produce json
// @Param idOrSlug path string true "Product UUID or URL slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{idOrSlug} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	idOrSlug := chi.URLParam(r, "idOrSlug")
	if idOrSlug == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "product id or slug is required"},
		})
		return
	}

	var (
		product *domain.Product
		err     error
	)

	if _, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = h.catalog.GetProduct(r.Context(), idOrSlug)
	} else {
		product, err = h.catalog.GetProductBySlug(r.Context(), idOrSlug)
	}

	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// ListCategories handles GET /api/v1/categories
// @Summary List categories with product counts
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/categories [get]
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// ListRelated handles GET /api/v1/products/{id}/related
// @Summary List related products
// @Description Returns best-rated products from the same category
// @Tags catalog
// @Produce json
// @Param id path string true "Product UUID"
// @Param limit query int false "Maximum results" default(4)
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/products/{id}/related [get]
func (h *ProductHandler) ListRelated(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 20 {
			limit = n
		}
	}

	related, err := h.catalog.ListRelated(r.Context(), id.String(), limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: related})
}

// CreateProduct handles POST /api/v1/products
// @Summary Add a product to the catalog
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body CreateProductRequest true "Product to create"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/products [post]
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), service.CreateProductInput{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Price:        req.Price,
		ComparePrice: req.ComparePrice,
		Currency:     req.Currency,
		Images:       req.Images,
		Stock:        req.Stock,
		Specs:        req.Specs,
		Tags:         req.Tags,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}
