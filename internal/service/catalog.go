package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iamsonukr/storefront/internal/domain"
	"github.com/iamsonukr/storefront/internal/repository"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
	"github.com/iamsonukr/storefront/pkg/slug"
)

// CatalogService implements the business logic for browsing the product
// catalog.
type CatalogService struct {
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(products repository.ProductRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   logger,
	}
}

// CreateProductInput holds the parameters for adding a product to the
// catalog.
type CreateProductInput struct {
	Name         string            `json:"name" validate:"required,max=200"`
	Description  string            `json:"description" validate:"max=5000"`
	Category     string            `json:"category" validate:"required"`
	Price        int64             `json:"price" validate:"required,gte=0"`
	ComparePrice int64             `json:"compare_price" validate:"gte=0"`
	Currency     string            `json:"currency" validate:"required,len=3"`
	Images       []string          `json:"images"`
	Stock        int               `json:"stock" validate:"gte=0"`
	Specs        map[string]string `json:"specs"`
	Tags         []string          `json:"tags"`
}

// CreateProduct adds a product to the catalog.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if !domain.IsValidCategory(input.Category) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid category %q, must be one of: %s", input.Category, strings.Join(domain.CategoryNames(), ", ")))
	}
	if input.Price < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if input.Stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
	}

	// Tags are matched exactly, case-insensitively, so normalize on write.
	tags := make([]string, 0, len(input.Tags))
	for _, tag := range input.Tags {
		if t := strings.ToLower(strings.TrimSpace(tag)); t != "" {
			tags = append(tags, t)
		}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Slug:         slug.Generate(input.Name),
		Description:  input.Description,
		Category:     domain.Category(input.Category),
		Price:        input.Price,
		ComparePrice: input.ComparePrice,
		Currency:     strings.ToUpper(input.Currency),
		Images:       input.Images,
		Stock:        input.Stock,
		Specs:        input.Specs,
		Tags:         tags,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductBySlug retrieves a product by its URL slug.
func (s *CatalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	product, err := s.products.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return product, nil
}

// ListProducts returns a filtered, paginated slice of the catalog. An
// inverted price range (min above max) matches nothing, so it short-circuits
// to an empty page instead of hitting the database.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	if filter.Category != nil && !domain.IsValidCategory(*filter.Category) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid category %q, must be one of: %s", *filter.Category, strings.Join(domain.CategoryNames(), ", ")))
	}

	if filter.Sort != "" && !domain.IsValidSort(filter.Sort) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("invalid sort %q", filter.Sort))
	}

	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return []domain.Product{}, 0, nil
	}

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	return products, total, nil
}

// ListCategories returns every category that has products, with counts.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.CategoryCount, error) {
	categories, err := s.products.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListRelated returns products from the same category as the given product,
// best rated first. The product itself must exist.
func (s *CatalogService) ListRelated(ctx context.Context, productID string, limit int) ([]domain.Product, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product for related: %w", err)
	}

	related, err := s.products.ListRelated(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}

	return related, nil
}
