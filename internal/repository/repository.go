package repository

import (
	"context"

	"github.com/iamsonukr/storefront/internal/domain"
)

// ProductFilter narrows a catalog listing. Nil fields mean "no bound".
type ProductFilter struct {
	Category *string
	Search   *string
	MinPrice *int64
	MaxPrice *int64
	Sort     string
	Page     int
	PerPage  int
}

// ProductRepository defines catalog persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	ListCategories(ctx context.Context) ([]domain.CategoryCount, error)
	ListRelated(ctx context.Context, productID string, limit int) ([]domain.Product, error)
}

// ReviewRepository defines review persistence operations. The aggregate
// rating on the product row is always recomputed from the review rows, never
// patched incrementally.
type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ListByProductID(ctx context.Context, productID string, rating, page, perPage int) ([]domain.Review, int, error)
	GetSummary(ctx context.Context, productID string) (*domain.ReviewSummary, error)
	RecomputeProductRating(ctx context.Context, productID string) error
}

// CartStore defines cart persistence. Carts are stored whole under the owner
// ID; SaveIfVersion only writes when the stored version still matches
// expectedVersion, returning false on a concurrent modification.
type CartStore interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	SaveIfVersion(ctx context.Context, cart *domain.Cart, expectedVersion int) (bool, error)
	Delete(ctx context.Context, ownerID string) error
}
