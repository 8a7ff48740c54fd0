package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iamsonukr/storefront/internal/domain"
	"github.com/iamsonukr/storefront/internal/event"
	"github.com/iamsonukr/storefront/internal/repository"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

// PriceConflict records a price discrepancy discovered while merging a guest
// cart into a user cart. The merged cart keeps the higher price; the
// conflict is surfaced so it can be reviewed rather than silently absorbed.
type PriceConflict struct {
	ProductID    string `json:"product_id"`
	GuestPrice   int64  `json:"guest_price"`
	ServerPrice  int64  `json:"server_price"`
	AppliedPrice int64  `json:"applied_price"`
}

// ReconcileResult is the outcome of merging a guest cart into a user cart.
type ReconcileResult struct {
	Cart      *domain.Cart    `json:"cart"`
	Conflicts []PriceConflict `json:"conflicts"`
}

// ReconcileService merges a guest session's cart into a signed-in user's
// server cart. It is the only bridge between the two cart populations.
type ReconcileService struct {
	store    repository.CartStore
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
	cartTTL  time.Duration
}

// NewReconcileService creates a new cart reconciliation service.
func NewReconcileService(store repository.CartStore, products repository.ProductRepository, producer *event.Producer, logger *slog.Logger, cartTTL time.Duration) *ReconcileService {
	return &ReconcileService{
		store:    store,
		products: products,
		producer: producer,
		logger:   logger,
		cartTTL:  cartTTL,
	}
}

// MergeCarts merges the guest cart stored under sessionID into the cart
// stored under userID, writes the merged cart back, and clears the guest
// cart. Quantities for products present in both carts add up, clamped to
// current stock. Prices stay as captured at add time; when the two carts
// captured different prices the higher one wins and the discrepancy is
// reported as a conflict.
//
// The operation is atomic from the caller's point of view: if clearing the
// guest cart fails after the merged cart was written, the previous server
// cart is restored and an error returned, so the caller can retry against
// the still-intact guest cart.
func (s *ReconcileService) MergeCarts(ctx context.Context, userID, sessionID string) (*ReconcileResult, error) {
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}
	if userID == sessionID {
		return nil, apperrors.InvalidInput("user id and session id must differ")
	}

	guestCart, err := s.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Nothing to merge; the user keeps whatever cart they had.
			return s.resultWithoutMerge(ctx, userID)
		}
		return nil, fmt.Errorf("get guest cart: %w", err)
	}

	serverCart, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			serverCart = s.newEmptyCart(userID)
		} else {
			return nil, fmt.Errorf("get server cart: %w", err)
		}
	}

	snapshot := serverCart.Clone()
	expectedVersion := serverCart.Version

	mergedItems, conflicts := s.mergeItems(ctx, guestCart.Items, serverCart.Items)

	now := time.Now().UTC()
	serverCart.Items = mergedItems
	serverCart.UpdatedAt = now
	serverCart.ExpiresAt = now.Add(s.cartTTL)

	ok, err := s.store.SaveIfVersion(ctx, serverCart, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("save merged cart: %w", err)
	}
	if !ok {
		return nil, apperrors.Conflict("cart was modified concurrently, please retry")
	}
	serverCart.Version = expectedVersion + 1

	if err := s.store.Delete(ctx, sessionID); err != nil {
		// Roll the server cart back so a retry starts from a clean slate
		// instead of double-counting the guest items.
		s.restoreServerCart(ctx, snapshot, serverCart.Version)
		return nil, fmt.Errorf("clear guest cart after merge: %w", err)
	}

	if err := s.producer.PublishCartReconciled(ctx, userID, sessionID, serverCart.ItemCount(), len(conflicts)); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.reconciled event",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "guest cart merged into user cart",
		slog.String("user_id", userID),
		slog.String("session_id", sessionID),
		slog.Int("item_count", serverCart.ItemCount()),
		slog.Int("conflict_count", len(conflicts)),
	)

	return &ReconcileResult{Cart: serverCart, Conflicts: conflicts}, nil
}

// mergeItems combines guest and server cart items per product. Quantities
// add where a product appears in both carts; every quantity is clamped to
// current stock. Products that have disappeared from the catalog are
// dropped.
func (s *ReconcileService) mergeItems(ctx context.Context, guestItems, serverItems []domain.CartItem) ([]domain.CartItem, []PriceConflict) {
	type mergeEntry struct {
		item     domain.CartItem
		quantity int
	}

	entries := make(map[string]*mergeEntry)
	order := make([]string, 0, len(guestItems)+len(serverItems))
	conflicts := []PriceConflict{}

	for _, item := range serverItems {
		entries[item.ProductID] = &mergeEntry{item: item, quantity: item.Quantity}
		order = append(order, item.ProductID)
	}

	for _, item := range guestItems {
		existing, ok := entries[item.ProductID]
		if !ok {
			entries[item.ProductID] = &mergeEntry{item: item, quantity: item.Quantity}
			order = append(order, item.ProductID)
			continue
		}

		existing.quantity += item.Quantity

		// The guest entry is the more recently added one, so its captured
		// price normally wins. A server price above the guest price means
		// one of the captures is wrong; keep the higher and report it.
		if existing.item.Price > item.Price {
			conflicts = append(conflicts, PriceConflict{
				ProductID:    item.ProductID,
				GuestPrice:   item.Price,
				ServerPrice:  existing.item.Price,
				AppliedPrice: existing.item.Price,
			})
		} else {
			existing.item.Price = item.Price
		}
		existing.item.AddedAt = item.AddedAt
	}

	merged := make([]domain.CartItem, 0, len(entries))
	for _, productID := range order {
		entry := entries[productID]

		product, err := s.products.GetByID(ctx, productID)
		if err != nil {
			s.logger.WarnContext(ctx, "dropping cart item for unavailable product",
				slog.String("product_id", productID),
				slog.String("error", err.Error()),
			)
			continue
		}

		quantity := clampQuantity(entry.quantity, product.Stock)
		if quantity <= 0 {
			continue
		}

		entry.item.Quantity = quantity
		merged = append(merged, entry.item)
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		return conflicts[i].ProductID < conflicts[j].ProductID
	})

	return merged, conflicts
}

// resultWithoutMerge returns the user's existing cart when there is no guest
// cart to fold in.
func (s *ReconcileService) resultWithoutMerge(ctx context.Context, userID string) (*ReconcileResult, error) {
	cart, err := s.store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &ReconcileResult{Cart: s.newEmptyCart(userID), Conflicts: []PriceConflict{}}, nil
		}
		return nil, fmt.Errorf("get server cart: %w", err)
	}
	return &ReconcileResult{Cart: cart, Conflicts: []PriceConflict{}}, nil
}

// restoreServerCart writes the pre-merge snapshot back over the merged cart.
// Failure to restore is logged rather than returned: the caller already gets
// the clear-guest-cart error and a retry will converge via the quantity
// clamp.
func (s *ReconcileService) restoreServerCart(ctx context.Context, snapshot *domain.Cart, mergedVersion int) {
	ok, err := s.store.SaveIfVersion(ctx, snapshot, mergedVersion)
	switch {
	case err != nil:
		s.logger.ErrorContext(ctx, "failed to restore server cart after merge rollback",
			slog.String("owner_id", snapshot.OwnerID),
			slog.String("error", err.Error()),
		)
	case !ok:
		s.logger.ErrorContext(ctx, "server cart changed before merge rollback could restore it",
			slog.String("owner_id", snapshot.OwnerID),
		)
	}
}

func (s *ReconcileService) newEmptyCart(ownerID string) *domain.Cart {
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
