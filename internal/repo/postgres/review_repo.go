package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ivankudzin/orgreviews/internal/domain/model"
)

type ReviewRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewReviewRepo(pool *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{pool: pool, now: time.Now}
}

func (r *ReviewRepo) Create(ctx context.Context, review model.Review) (model.Review, error) {
	if r.pool == nil {
		return model.Review{}, fmt.Errorf("postgres pool is nil")
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}

	var created model.Review
	err := WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := lockOrganization(ctx, tx, review.OrganizationID); err != nil {
			return err
		}

		return tx.QueryRow(ctx, `
INSERT INTO reviews (id, organization_id, user_id, rating, text, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, organization_id, user_id, rating, text, created_at
`, review.ID, review.OrganizationID, review.UserID, review.Rating, review.Text, r.now().UTC()).Scan(
			&created.ID,
			&created.OrganizationID,
			&created.UserID,
			&created.Rating,
			&created.Text,
			&created.CreatedAt,
		)
	})
	if err != nil {
		return model.Review{}, fmt.Errorf("create review: %w", err)
	}
	created.CreatedAt = created.CreatedAt.UTC()
	return created, nil
}

// ListByUser returns the user's reviews joined with the reviewed
// organization, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ReviewWithOrganizationInfo, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT r.id, r.organization_id, r.user_id, r.rating, r.text, r.created_at, o.name
FROM reviews r
JOIN organizations o ON o.id = r.organization_id
WHERE r.user_id = $1
ORDER BY r.created_at DESC, r.id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	defer rows.Close()

	items := make([]model.ReviewWithOrganizationInfo, 0)
	for rows.Next() {
		var item model.ReviewWithOrganizationInfo
		if err := rows.Scan(
			&item.ID,
			&item.OrganizationID,
			&item.UserID,
			&item.Rating,
			&item.Text,
			&item.CreatedAt,
			&item.OrganizationName,
		); err != nil {
			return nil, fmt.Errorf("scan user review: %w", err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user reviews: %w", err)
	}
	return items, nil
}

func (r *ReviewRepo) ListByOrganization(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]model.Review, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, organization_id, user_id, rating, text, created_at
FROM reviews
WHERE organization_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list organization reviews: %w", err)
	}
	defer rows.Close()

	items := make([]model.Review, 0)
	for rows.Next() {
		var item model.Review
		if err := rows.Scan(&item.ID, &item.OrganizationID, &item.UserID, &item.Rating, &item.Text, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan organization review: %w", err)
		}
		item.CreatedAt = item.CreatedAt.UTC()
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization reviews: %w", err)
	}
	return items, nil
}
