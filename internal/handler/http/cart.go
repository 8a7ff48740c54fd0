package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iamsonukr/storefront/internal/service"
	"github.com/iamsonukr/storefront/pkg/httputil"
	"github.com/iamsonukr/storefront/pkg/middleware"
	"github.com/iamsonukr/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints. The cart addressed
// is always the requester's own, identified by the principal resolved by the
// identity middleware: the user ID for signed-in customers, the session ID
// for guests.
type CartHandler struct {
	cart      *service.CartService
	reconcile *service.ReconcileService
	logger    *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(cart *service.CartService, reconcile *service.ReconcileService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		cart:      cart,
		reconcile: reconcile,
		logger:    logger,
	}
}

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gte=1"`
}

// UpdateQuantityRequest is the JSON request body for setting an item quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// GetCart handles GET /api/v1/cart
// @Summary Get the requester's cart
// @Tags cart
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/cart [get]
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	cart, err := h.cart.GetCart(r.Context(), principal.OwnerID())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// AddItem handles POST /api/v1/cart/items
// @Summary Add a product to the cart
// @Tags cart
// @Accept json
// @Produce json
// @Param request body AddItemRequest true "Item to add"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/cart/items [post]
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	principal := middleware.PrincipalFromContext(r.Context())

	cart, err := h.cart.AddItem(r.Context(), principal.OwnerID(), service.AddItemInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{productID}
// A quantity of zero removes the item.
// @Summary Set the quantity of a cart item
// @Tags cart
// @Accept json
// @Produce json
// @Param productID path string true "Product UUID"
// @Param request body UpdateQuantityRequest true "New quantity"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/cart/items/{productID} [put]
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	principal := middleware.PrincipalFromContext(r.Context())

	cart, err := h.cart.UpdateItemQuantity(r.Context(), principal.OwnerID(), productID.String(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// RemoveItem handles DELETE /api/v1/cart/items/{productID}
// @Summary Remove an item from the cart
// @Tags cart
// @Produce json
// @Param productID path string true "Product UUID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/cart/items/{productID} [delete]
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := httputil.ParseUUID(w, chi.URLParam(r, "productID"))
	if !ok {
		return
	}

	principal := middleware.PrincipalFromContext(r.Context())

	cart, err := h.cart.RemoveItem(r.Context(), principal.OwnerID(), productID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: cart})
}

// ClearCart handles DELETE /api/v1/cart
// @Summary Clear the requester's cart
// @Tags cart
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/cart [delete]
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	if err := h.cart.ClearCart(r.Context(), principal.OwnerID()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "cleared"}})
}

// MergeCart handles POST /api/v1/cart/merge
// Invoked once after sign-in: folds the guest session's cart into the
// user's cart. Requires a signed-in user with a guest session to merge from.
// @Summary Merge the guest cart into the signed-in user's cart
// @Tags cart
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/cart/merge [post]
func (h *CartHandler) MergeCart(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	result, err := h.reconcile.MergeCarts(r.Context(), principal.UserID, principal.SessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}
