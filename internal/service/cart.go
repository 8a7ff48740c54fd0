package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iamsonukr/storefront/internal/domain"
	"github.com/iamsonukr/storefront/internal/event"
	"github.com/iamsonukr/storefront/internal/repository"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerItem is the maximum quantity allowed for a single cart item.
	MaxQuantityPerItem = 100
	// MaxItemsPerCart is the maximum number of distinct items allowed in a cart.
	MaxItemsPerCart = 50
)

// AddItemInput holds the parameters for adding an item to the cart.
type AddItemInput struct {
	ProductID string
	Quantity  int
}

// CartService implements the business logic for cart operations. The cart's
// owner is a session ID for guests and a user ID for signed-in customers;
// the service does not care which.
type CartService struct {
	store    repository.CartStore
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
	cartTTL  time.Duration
}

// NewCartService creates a new cart service.
func NewCartService(store repository.CartStore, products repository.ProductRepository, producer *event.Producer, logger *slog.Logger, cartTTL time.Duration) *CartService {
	return &CartService{
		store:    store,
		products: products,
		producer: producer,
		logger:   logger,
		cartTTL:  cartTTL,
	}
}

// GetCart retrieves the cart for an owner. If no cart exists, returns an
// empty cart rather than an error.
func (s *CartService) GetCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("cart owner id is required")
	}

	cart, err := s.store.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(ownerID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	return cart, nil
}

// AddItem adds a product to the owner's cart, capturing the product's
// current price. If the product is already in the cart the quantities merge
// and the originally captured price is kept. Quantities are clamped to the
// available stock. Uses optimistic locking to prevent lost updates on
// concurrent cart modifications.
func (s *CartService) AddItem(ctx context.Context, ownerID string, input AddItemInput) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("cart owner id is required")
	}
	if input.ProductID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if input.Quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	product, err := s.products.GetByID(ctx, input.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product for add: %w", err)
	}
	if !product.InStock() {
		return nil, apperrors.Conflict(fmt.Sprintf("product %s is out of stock", product.ID))
	}

	cart, err := s.getOrCreateCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	expectedVersion := cart.Version

	if idx := cart.FindItemIndex(input.ProductID); idx >= 0 {
		// Merge quantities; the price captured when the item was first
		// added stays in effect.
		cart.Items[idx].Quantity = clampQuantity(cart.Items[idx].Quantity+input.Quantity, product.Stock)
	} else {
		if len(cart.Items) >= MaxItemsPerCart {
			return nil, apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d items", MaxItemsPerCart))
		}
		cart.Items = append(cart.Items, domain.CartItem{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.Price,
			Quantity:  clampQuantity(input.Quantity, product.Stock),
			ImageURL:  product.PrimaryImage(),
			AddedAt:   time.Now().UTC(),
		})
	}

	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.store.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	s.publishCartUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("owner_id", ownerID),
		slog.String("product_id", input.ProductID),
		slog.Int("quantity", input.Quantity),
	)

	return cart, nil
}

// UpdateItemQuantity sets the quantity of an item in the cart. A quantity of
// zero removes the item. Quantities are clamped to the available stock.
func (s *CartService) UpdateItemQuantity(ctx context.Context, ownerID, productID string, quantity int) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("cart owner id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity < 0 {
		return nil, apperrors.InvalidInput("quantity must not be negative")
	}
	if quantity > MaxQuantityPerItem {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	cart, err := s.store.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for update: %w", err)
	}

	expectedVersion := cart.Version

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}

	if quantity == 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get product for update: %w", err)
		}
		cart.Items[idx].Quantity = clampQuantity(quantity, product.Stock)
	}

	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.store.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	s.publishCartUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("owner_id", ownerID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return cart, nil
}

// RemoveItem removes a specific item from the cart.
func (s *CartService) RemoveItem(ctx context.Context, ownerID, productID string) (*domain.Cart, error) {
	if ownerID == "" {
		return nil, apperrors.InvalidInput("cart owner id is required")
	}
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	cart, err := s.store.Get(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for remove: %w", err)
	}

	expectedVersion := cart.Version

	idx := cart.FindItemIndex(productID)
	if idx < 0 {
		return nil, apperrors.NotFound("cart item", productID)
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	now := time.Now().UTC()
	cart.UpdatedAt = now
	cart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.store.SaveIfVersion(ctx, cart, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}

	s.publishCartUpdated(ctx, cart)

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("owner_id", ownerID),
		slog.String("product_id", productID),
	)

	return cart, nil
}

// ClearCart removes the owner's cart entirely.
func (s *CartService) ClearCart(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return apperrors.InvalidInput("cart owner id is required")
	}

	if err := s.store.Delete(ctx, ownerID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}

	if err := s.producer.PublishCartCleared(ctx, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("owner_id", ownerID),
	)

	return nil
}

// publishCartUpdated emits a cart.updated event; failures are logged but do
// not fail the cart operation.
func (s *CartService) publishCartUpdated(ctx context.Context, cart *domain.Cart) {
	if err := s.producer.PublishCartUpdated(ctx, cart); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("owner_id", cart.OwnerID),
			slog.String("error", err.Error()),
		)
	}
}

// getOrCreateCart retrieves the cart for an owner, creating an empty one if
// it does not exist.
func (s *CartService) getOrCreateCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart, err := s.store.Get(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return s.newEmptyCart(ownerID), nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// newEmptyCart creates a new empty cart for the given owner.
func (s *CartService) newEmptyCart(ownerID string) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Items:     []domain.CartItem{},
		Currency:  "USD",
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.cartTTL),
	}
}

// clampQuantity caps a requested quantity at the available stock and the
// per-item limit.
func clampQuantity(quantity, stock int) int {
	if quantity > stock {
		quantity = stock
	}
	if quantity > MaxQuantityPerItem {
		quantity = MaxQuantityPerItem
	}
	return quantity
}
