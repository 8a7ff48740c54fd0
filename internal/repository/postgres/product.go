package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/iamsonukr/storefront/internal/domain"
	"github.com/iamsonukr/storefront/internal/repository"
	"github.com/iamsonukr/storefront/pkg/database"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

const productColumns = "id, name, slug, description, category, price, compare_price, currency, images, stock, specs, tags, rating_avg, rating_count, created_at, updated_at"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (err error) {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	ctx, end := database.TraceQuery(ctx, "CreateProduct", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		string(p.Category),
		p.Price,
		p.ComparePrice,
		p.Currency,
		p.Images,
		p.Stock,
		p.Specs,
		p.Tags,
		p.RatingAvg,
		p.RatingCount,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return r.scanProduct(ctx, "GetProduct", query, id)
}

// GetBySlug retrieves a product by its URL slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	return r.scanProduct(ctx, "GetProductBySlug", query, slug)
}

// List returns products matching the filter along with the total match count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (_ []domain.Product, _ int, err error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, *filter.Category)
		argIndex++
	}

	if filter.Search != nil {
		// Tags match by substring, same as name and description.
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR description ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%d))",
			argIndex, argIndex, argIndex,
		))
		args = append(args, "%"+*filter.Search+"%")
		argIndex++
	}

	if filter.MinPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price >= $%d", argIndex))
		args = append(args, *filter.MinPrice)
		argIndex++
	}

	if filter.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIndex))
		args = append(args, *filter.MaxPrice)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// count(*) OVER() folds the total match count into each row so one
	// round trip serves both the page and the pagination metadata.
	query := fmt.Sprintf(`
		SELECT `+productColumns+`,
		       count(*) OVER() AS total_count
		FROM products
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		whereClause, orderBy(filter.Sort), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	ctx, end := database.TraceQuery(ctx, "ListProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products   []domain.Product
		totalCount int
	)

	for rows.Next() {
		var p domain.Product
		if err := scanProductRow(rows, &p, &totalCount); err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, totalCount, nil
}

// ListCategories returns every category that has at least one product, with
// its product count.
func (r *ProductRepository) ListCategories(ctx context.Context) (_ []domain.CategoryCount, err error) {
	query := `
		SELECT category, count(*)
		FROM products
		GROUP BY category
		ORDER BY category`

	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.CategoryCount
	for rows.Next() {
		var cc domain.CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, cc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	if categories == nil {
		categories = []domain.CategoryCount{}
	}

	return categories, nil
}

// ListRelated returns up to limit products sharing the given product's
// category, best rated first, excluding the product itself.
func (r *ProductRepository) ListRelated(ctx context.Context, productID string, limit int) (_ []domain.Product, err error) {
	if limit <= 0 {
		limit = 4
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE category = (SELECT category FROM products WHERE id = $1)
		  AND id <> $1
		ORDER BY rating_avg DESC, rating_count DESC
		LIMIT $2`

	ctx, end := database.TraceQuery(ctx, "ListRelatedProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("list related products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := scanProductRow(rows, &p, nil); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related rows: %w", err)
	}

	if products == nil {
		products = []domain.Product{}
	}

	return products, nil
}

// orderBy maps a sort key to an ORDER BY clause. Every clause ends with an id
// tiebreak so pages are deterministic under equal keys.
func orderBy(sort string) string {
	switch sort {
	case domain.SortOldest:
		return "created_at ASC, id ASC"
	case domain.SortPriceAsc:
		return "price ASC, id ASC"
	case domain.SortPriceDesc:
		return "price DESC, id ASC"
	case domain.SortRatingAsc:
		return "rating_avg ASC, rating_count ASC, id ASC"
	case domain.SortRating:
		return "rating_avg DESC, rating_count DESC, id ASC"
	default:
		return "created_at DESC, id ASC"
	}
}

func (r *ProductRepository) scanProduct(ctx context.Context, operation, query string, args ...any) (_ *domain.Product, err error) {
	var p domain.Product

	ctx, end := database.TraceQuery(ctx, operation, query)
	defer func() { end(err) }()

	err = r.pool.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.ComparePrice,
		&p.Currency,
		&p.Images,
		&p.Stock,
		&p.Specs,
		&p.Tags,
		&p.RatingAvg,
		&p.RatingCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &p, nil
}

// scanProductRow scans one listing row; totalCount may be nil when the query
// carries no count(*) OVER() column.
func scanProductRow(rows pgx.Rows, p *domain.Product, totalCount *int) error {
	dest := []any{
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Category,
		&p.Price,
		&p.ComparePrice,
		&p.Currency,
		&p.Images,
		&p.Stock,
		&p.Specs,
		&p.Tags,
		&p.RatingAvg,
		&p.RatingCount,
		&p.CreatedAt,
		&p.UpdatedAt,
	}
	if totalCount != nil {
		dest = append(dest, totalCount)
	}

	if err := rows.Scan(dest...); err != nil {
		return fmt.Errorf("scan product row: %w", err)
	}
	return nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
