package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/iamsonukr/storefront/internal/domain"
	"github.com/iamsonukr/storefront/internal/event"
	"github.com/iamsonukr/storefront/internal/repository"
	apperrors "github.com/iamsonukr/storefront/pkg/errors"
)

// MaxReviewBodyLength bounds the free-text body of a review.
const MaxReviewBodyLength = 5000

// SubmitReviewInput holds the parameters for submitting a product review.
type SubmitReviewInput struct {
	Rating int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title  string `json:"title" validate:"required,max=200"`
	Body   string `json:"body" validate:"max=5000"`
}

// ReviewService implements the business logic for product reviews. Aggregate
// ratings are always recomputed from the review rows after a write, never
// patched incrementally.
type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, producer *event.Producer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// SubmitReview records a review for a product and refreshes the product's
// aggregate rating. A user can review each product at most once.
func (s *ReviewService) SubmitReview(ctx context.Context, productID, userID string, input SubmitReviewInput) (*domain.Review, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if userID == "" {
		return nil, apperrors.InvalidInput("user id is required")
	}
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if input.Title == "" {
		return nil, apperrors.InvalidInput("review title is required")
	}
	if len(input.Body) > MaxReviewBodyLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("review body must not exceed %d characters", MaxReviewBodyLength))
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, fmt.Errorf("get product for review: %w", err)
	}

	review := &domain.Review{
		ID:        uuid.New().String(),
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     input.Title,
		Body:      input.Body,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.reviews.RecomputeProductRating(ctx, productID); err != nil {
		return nil, fmt.Errorf("recompute product rating: %w", err)
	}

	if err := s.producer.PublishReviewSubmitted(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.submitted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", review.ID),
		slog.String("product_id", productID),
		slog.Int("rating", input.Rating),
	)

	return review, nil
}

// ListReviews returns paginated reviews for a product, newest first. A
// rating of 1-5 filters to that exact star rating; 0 returns all reviews.
func (s *ReviewService) ListReviews(ctx context.Context, productID string, rating, page, perPage int) ([]domain.Review, int, error) {
	if productID == "" {
		return nil, 0, apperrors.InvalidInput("product id is required")
	}
	if rating != 0 && (rating < domain.MinRating || rating > domain.MaxRating) {
		return nil, 0, apperrors.InvalidInput(fmt.Sprintf("rating filter must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	reviews, total, err := s.reviews.ListByProductID(ctx, productID, rating, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// GetSummary returns the aggregate rating for a product.
func (s *ReviewService) GetSummary(ctx context.Context, productID string) (*domain.ReviewSummary, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	summary, err := s.reviews.GetSummary(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get review summary: %w", err)
	}

	return summary, nil
}
