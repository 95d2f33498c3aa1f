package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/printforge/printforge/api/internal/domain"
	"github.com/printforge/printforge/api/internal/pkg/database"
	apperrors "github.com/printforge/printforge/api/internal/pkg/errors"
)

// ReviewRepository handles product review data operations in PostgreSQL
type ReviewRepository struct {
	db *database.PostgresDB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *database.PostgresDB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create creates a new review
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, tenant_id, product_id, customer_id, rating, title, body, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		review.ID,
		review.TenantID,
		review.ProductID,
		review.CustomerID,
		review.Rating,
		review.Title,
		review.Body,
		review.Status,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "reviews_product_id_customer_id_key") {
			return apperrors.Conflict("customer has already reviewed this product")
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by ID within a tenant
func (r *ReviewRepository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.Review, error) {
	query := `
		SELECT id, tenant_id, product_id, customer_id, rating, title, body, status, created_at, updated_at
		FROM reviews
		WHERE tenant_id = $1 AND id = $2
	`

	var review domain.Review
	err := r.db.Pool.QueryRow(ctx, query, tenantID, id).Scan(
		&review.ID,
		&review.TenantID,
		&review.ProductID,
		&review.CustomerID,
		&review.Rating,
		&review.Title,
		&review.Body,
		&review.Status,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review")
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// Update updates a review's content
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET rating = $3, title = $4, body = $5, status = $6, updated_at = NOW()
		WHERE tenant_id = $1 AND id = $2
	`

	_, err := r.db.Pool.Exec(ctx, query,
		review.TenantID,
		review.ID,
		review.Rating,
		review.Title,
		review.Body,
		review.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	return nil
}

// UpdateStatus sets a review's moderation status
func (r *ReviewRepository) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, status domain.ReviewStatus) error {
	query := `UPDATE reviews SET status = $3, updated_at = NOW() WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id, status)
	if err != nil {
		return fmt.Errorf("failed to update review status: %w", err)
	}

	return nil
}

// Delete deletes a review
func (r *ReviewRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query := `DELETE FROM reviews WHERE tenant_id = $1 AND id = $2`

	_, err := r.db.Pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	return nil
}

// List retrieves reviews with filtering
func (r *ReviewRepository) List(ctx context.Context, filter *domain.ReviewFilter, limit, offset int) (*domain.ReviewList, error) {
	baseQuery := `FROM reviews WHERE tenant_id = $1`
	args := []interface{}{filter.TenantID}
	argIndex := 2

	if filter.ProductID != nil {
		baseQuery += fmt.Sprintf(" AND product_id = $%d", argIndex)
		args = append(args, *filter.ProductID)
		argIndex++
	}

	if filter.CustomerID != nil {
		baseQuery += fmt.Sprintf(" AND customer_id = $%d", argIndex)
		args = append(args, *filter.CustomerID)
		argIndex++
	}

	if filter.Status != nil {
		baseQuery += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *filter.Status)
		argIndex++
	}

	if filter.MinRating != nil {
		baseQuery += fmt.Sprintf(" AND rating >= $%d", argIndex)
		args = append(args, *filter.MinRating)
		argIndex++
	}

	// Get count
	countQuery := "SELECT COUNT(*) " + baseQuery
	var totalCount int64
	err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	// Get reviews
	query := fmt.Sprintf(`
		SELECT id, tenant_id, product_id, customer_id, rating, title, body, status, created_at, updated_at
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, baseQuery, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []domain.Review
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID,
			&review.TenantID,
			&review.ProductID,
			&review.CustomerID,
			&review.Rating,
			&review.Title,
			&review.Body,
			&review.Status,
			&review.CreatedAt,
			&review.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	return &domain.ReviewList{
		Reviews:    reviews,
		TotalCount: totalCount,
		HasMore:    int64(offset+len(reviews)) < totalCount,
	}, nil
}

// Summary computes the average rating over published reviews of a product
func (r *ReviewRepository) Summary(ctx context.Context, tenantID, productID uuid.UUID) (*domain.ReviewSummary, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(*)
		FROM reviews
		WHERE tenant_id = $1 AND product_id = $2 AND status = 'published'
	`

	summary := domain.ReviewSummary{ProductID: productID}
	err := r.db.Pool.QueryRow(ctx, query, tenantID, productID).Scan(&summary.AverageRating, &summary.ReviewCount)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize reviews: %w", err)
	}

	return &summary, nil
}
