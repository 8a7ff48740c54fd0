package postgres

import (
	"context"
	"fmt"
	"math"

	"github.com/iamsonukr/storefront/internal/domain"
	"github.com/iamsonukr/storefront/pkg/database"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a review. The UNIQUE (product_id, user_id) constraint is the
// authority on duplicates, so concurrent submissions cannot slip past a
// read-then-write check.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) (err error) {
	query := `
		INSERT INTO reviews (id, product_id, user_id, rating, title, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, end := database.TraceQuery(ctx, "CreateReview", query)
	defer func() { end(err) }()

	_, err = r.pool.Exec(ctx, query,
		review.ID,
		review.ProductID,
		review.UserID,
		review.Rating,
		review.Title,
		review.Body,
		review.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "product_id/user_id", review.ProductID+"/"+review.UserID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// ListByProductID returns paginated reviews for a product, newest first,
// along with the total count. A rating of 1-5 filters to that exact star
// rating; 0 returns all reviews.
func (r *ReviewRepository) ListByProductID(ctx context.Context, productID string, rating, page, perPage int) (_ []domain.Review, _ int, err error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	// $2 = 0 disables the rating filter without needing a second query shape.
	query := `
		SELECT id, product_id, user_id, rating, title, body, created_at,
		       count(*) OVER() AS total_count
		FROM reviews
		WHERE product_id = $1
		  AND ($2 = 0 OR rating = $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	ctx, end := database.TraceQuery(ctx, "ListReviews", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID, rating, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var (
		reviews    []domain.Review
		totalCount int
	)

	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ID,
			&rv.ProductID,
			&rv.UserID,
			&rv.Rating,
			&rv.Title,
			&rv.Body,
			&rv.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	if reviews == nil {
		reviews = []domain.Review{}
	}

	return reviews, totalCount, nil
}

// GetSummary returns the mean rating (rounded to one decimal), the review
// count, and the per-star distribution for a product.
func (r *ReviewRepository) GetSummary(ctx context.Context, productID string) (_ *domain.ReviewSummary, err error) {
	query := `
		SELECT rating, count(*)
		FROM reviews
		WHERE product_id = $1
		GROUP BY rating`

	ctx, end := database.TraceQuery(ctx, "GetReviewSummary", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}
	defer rows.Close()

	summary := domain.ReviewSummary{
		Distribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	var ratingSum int
	for rows.Next() {
		var rating, count int
		if err := rows.Scan(&rating, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary.Distribution[rating] = count
		summary.TotalCount += count
		ratingSum += rating * count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}

	if summary.TotalCount > 0 {
		summary.AverageRating = math.Round(float64(ratingSum)/float64(summary.TotalCount)*10) / 10
	}

	return &summary, nil
}

// RecomputeProductRating folds the review rows into the product's aggregate
// rating in one statement. The aggregate is always derived from the rows, so
// it cannot drift the way an incrementally patched average would.
func (r *ReviewRepository) RecomputeProductRating(ctx context.Context, productID string) (err error) {
	query := `
		UPDATE products SET
			rating_avg = sub.avg_rating,
			rating_count = sub.review_count,
			updated_at = NOW()
		FROM (
			SELECT COALESCE(ROUND(AVG(rating)::numeric, 1), 0) AS avg_rating,
			       COUNT(*) AS review_count
			FROM reviews
			WHERE product_id = $1
		) AS sub
		WHERE products.id = $1`

	ctx, end := database.TraceQuery(ctx, "RecomputeProductRating", query)
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, productID)
	if err != nil {
		return fmt.Errorf("recompute product rating: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", productID)
	}

	return nil
}
