package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iamsonukr/storefront/internal/domain"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

func newTestReconcileService(store *mockCartStore, products *mockProductRepository) *ReconcileService {
	return NewReconcileService(store, products, newTestProducer(), newTestLogger(), 7*24*time.Hour)
}

func cartWithItems(ownerID string, items ...domain.CartItem) *domain.Cart {
	now := time.Now().UTC()
	return &domain.Cart{
		ID:        "cart-" + ownerID,
		OwnerID:   ownerID,
		Items:     items,
		Currency:  "USD",
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(7 * 24 * time.Hour),
	}
}

func stockedProduct(id string, stock int, price int64) *domain.Product {
	return &domain.Product{
		ID:       id,
		Name:     "Product " + id,
		Category: domain.CategoryElectronics,
		Price:    price,
		Currency: "USD",
		Stock:    stock,
	}
}

func itemQuantities(cart *domain.Cart) map[string]int {
	out := make(map[string]int, len(cart.Items))
	for _, item := range cart.Items {
		out[item.ProductID] = item.Quantity
	}
	return out
}

func TestMergeCarts(t *testing.T) {
	store := new(mockCartStore)
	products := new(mockProductRepository)
	svc := newTestReconcileService(store, products)
	ctx := context.Background()

	guest := cartWithItems("session-1",
		domain.CartItem{ProductID: "A", Quantity: 2, Price: 1000},
		domain.CartItem{ProductID: "B", Quantity: 1, Price: 2000},
	)
	server := cartWithItems("user-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1000},
		domain.CartItem{ProductID: "C", Quantity: 4, Price: 3000},
	)

	store.On("Get", ctx, "session-1").Return(guest, nil)
	store.On("Get", ctx, "user-1").Return(server, nil)
	products.On("GetByID", ctx, "A").Return(stockedProduct("A", 10, 1000), nil)
	products.On("GetByID", ctx, "B").Return(stockedProduct("B", 10, 2000), nil)
	products.On("GetByID", ctx, "C").Return(stockedProduct("C", 2, 3000), nil)
	store.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(true, nil)
	store.On("Delete", ctx, "session-1").Return(nil)

	result, err := svc.MergeCarts(ctx, "user-1", "session-1")

	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	// Shared products add up, lone products carry over, C clamps to stock.
	assert.Equal(t, map[string]int{"A": 3, "B": 1, "C": 2}, itemQuantities(result.Cart))
	assert.Equal(t, "user-1", result.Cart.OwnerID)

	store.AssertExpectations(t)
	products.AssertExpectations(t)
}

func TestMergeCarts_PriceConflictKeepsHigher(t *testing.T) {
	store := new(mockCartStore)
	products := new(mockProductRepository)
	svc := newTestReconcileService(store, products)
	ctx := context.Background()

	guest := cartWithItems("session-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 900},
	)
	server := cartWithItems("user-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1200},
	)

	store.On("Get", ctx, "session-1").Return(guest, nil)
	store.On("Get", ctx, "user-1").Return(server, nil)
	products.On("GetByID", ctx, "A").Return(stockedProduct("A", 10, 1200), nil)
	store.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(true, nil)
	store.On("Delete", ctx, "session-1").Return(nil)

	result, err := svc.MergeCarts(ctx, "user-1", "session-1")

	require.NoError(t, err)
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "A", result.Conflicts[0].ProductID)
	assert.Equal(t, int64(900), result.Conflicts[0].GuestPrice)
	assert.Equal(t, int64(1200), result.Conflicts[0].ServerPrice)
	assert.Equal(t, int64(1200), result.Conflicts[0].AppliedPrice)
	assert.Equal(t, int64(1200), result.Cart.Items[0].Price)
}

func TestMergeCarts_GuestPriceWinsWhenNewer(t *testing.T) {
	store := new(mockCartStore)
	products := new(mockProductRepository)
	svc := newTestReconcileService(store, products)
	ctx := context.Background()

	guest := cartWithItems("session-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1500},
	)
	server := cartWithItems("user-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1200},
	)

	store.On("Get", ctx, "session-1").Return(guest, nil)
	store.On("Get", ctx, "user-1").Return(server, nil)
	products.On("GetByID", ctx, "A").Return(stockedProduct("A", 10, 1500), nil)
	store.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(true, nil)
	store.On("Delete", ctx, "session-1").Return(nil)

	result, err := svc.MergeCarts(ctx, "user-1", "session-1")

	require.NoError(t, err)
	assert.Empty(t, result.Conflicts)
	assert.Equal(t, int64(1500), result.Cart.Items[0].Price)
}

func TestMergeCarts_NoGuestCart(t *testing.T) {
	store := new(mockCartStore)
	svc := newTestReconcileService(store, new(mockProductRepository))
	ctx := context.Background()

	server := cartWithItems("user-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1000},
	)

	store.On("Get", ctx, "session-1").Return(nil, apperrors.NotFound("cart", "session-1"))
	store.On("Get", ctx, "user-1").Return(server, nil)

	result, err := svc.MergeCarts(ctx, "user-1", "session-1")

	require.NoError(t, err)
	assert.Equal(t, server, result.Cart)
	store.AssertNotCalled(t, "SaveIfVersion")
	store.AssertNotCalled(t, "Delete")
}

func TestMergeCarts_NoServerCart(t *testing.T) {
	store := new(mockCartStore)
	products := new(mockProductRepository)
	svc := newTestReconcileService(store, products)
	ctx := context.Background()

	guest := cartWithItems("session-1",
		domain.CartItem{ProductID: "A", Quantity: 2, Price: 1000},
	)

	store.On("Get", ctx, "session-1").Return(guest, nil)
	store.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	products.On("GetByID", ctx, "A").Return(stockedProduct("A", 10, 1000), nil)
	store.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 0).Return(true, nil)
	store.On("Delete", ctx, "session-1").Return(nil)

	result, err := svc.MergeCarts(ctx, "user-1", "session-1")

	require.NoError(t, err)
	assert.Equal(t, "user-1", result.Cart.OwnerID)
	assert.Equal(t, map[string]int{"A": 2}, itemQuantities(result.Cart))
}

func TestMergeCarts_DiscontinuedProductDropped(t *testing.T) {
	store := new(mockCartStore)
	products := new(mockProductRepository)
	svc := newTestReconcileService(store, products)
	ctx := context.Background()

	guest := cartWithItems("session-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1000},
		domain.CartItem{ProductID: "gone", Quantity: 2, Price: 500},
	)

	store.On("Get", ctx, "session-1").Return(guest, nil)
	store.On("Get", ctx, "user-1").Return(nil, apperrors.NotFound("cart", "user-1"))
	products.On("GetByID", ctx, "A").Return(stockedProduct("A", 10, 1000), nil)
	products.On("GetByID", ctx, "gone").Return(nil, apperrors.NotFound("product", "gone"))
	store.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 0).Return(true, nil)
	store.On("Delete", ctx, "session-1").Return(nil)

	result, err := svc.MergeCarts(ctx, "user-1", "session-1")

	require.NoError(t, err)
	assert.Equal(t, map[string]int{"A": 1}, itemQuantities(result.Cart))
}

func TestMergeCarts_VersionConflict(t *testing.T) {
	store := new(mockCartStore)
	products := new(mockProductRepository)
	svc := newTestReconcileService(store, products)
	ctx := context.Background()

	guest := cartWithItems("session-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1000},
	)
	server := cartWithItems("user-1")

	store.On("Get", ctx, "session-1").Return(guest, nil)
	store.On("Get", ctx, "user-1").Return(server, nil)
	products.On("GetByID", ctx, "A").Return(stockedProduct("A", 10, 1000), nil)
	store.On("SaveIfVersion", ctx, mock.AnythingOfType("*domain.Cart"), 1).Return(false, nil)

	_, err := svc.MergeCarts(ctx, "user-1", "session-1")

	assert.ErrorIs(t, err, apperrors.ErrConflict)
	// The guest cart stays intact for the retry.
	store.AssertNotCalled(t, "Delete")
}

func TestMergeCarts_ClearFailureRestoresServerCart(t *testing.T) {
	store := new(mockCartStore)
	products := new(mockProductRepository)
	svc := newTestReconcileService(store, products)
	ctx := context.Background()

	guest := cartWithItems("session-1",
		domain.CartItem{ProductID: "A", Quantity: 1, Price: 1000},
	)
	server := cartWithItems("user-1",
		domain.CartItem{ProductID: "B", Quantity: 1, Price: 2000},
	)

	store.On("Get", ctx, "session-1").Return(guest, nil)
	store.On("Get", ctx, "user-1").Return(server, nil)
	products.On("GetByID", ctx, "A").Return(stockedProduct("A", 10, 1000), nil)
	products.On("GetByID", ctx, "B").Return(stockedProduct("B", 10, 2000), nil)

	// Merge write succeeds at version 1, clearing the guest cart fails, and
	// the pre-merge snapshot is written back over the merged cart.
	store.On("SaveIfVersion", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 2
	}), 1).Return(true, nil)
	store.On("Delete", ctx, "session-1").Return(errors.New("store unavailable"))
	store.On("SaveIfVersion", ctx, mock.MatchedBy(func(c *domain.Cart) bool {
		return len(c.Items) == 1 && c.Items[0].ProductID == "B"
	}), 2).Return(true, nil)

	_, err := svc.MergeCarts(ctx, "user-1", "session-1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "clear guest cart")
	store.AssertExpectations(t)
}

func TestMergeCarts_SameOwner(t *testing.T) {
	svc := newTestReconcileService(new(mockCartStore), new(mockProductRepository))

	_, err := svc.MergeCarts(context.Background(), "user-1", "user-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
