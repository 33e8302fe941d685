package postgres

import (
	"context"
	"database/sql"
	"errors"

	"guestgate/internal/domain"
)

type quotaRepository struct {
	DB *sql.DB
}

func NewQuotaRepository(db *sql.DB) domain.QuotaRepository {
	return &quotaRepository{
		DB: db,
	}
}

func (r *quotaRepository) Upsert(ctx context.Context, q *domain.TierQuota) error {
	// Full-replace upsert on the (user, tier) key. Never additive.
	query := `
		INSERT INTO tier_quotas (user_id, tier_id, quota, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, tier_id) DO UPDATE SET quota = EXCLUDED.quota, updated_at = EXCLUDED.updated_at
	`
	_, err := r.DB.ExecContext(ctx, query, q.UserID, q.TierID, q.Quota, q.UpdatedAt)
	return err
}

func (r *quotaRepository) GetByUserAndTier(ctx context.Context, userID, tierID string) (*domain.TierQuota, error) {
	query := `
		SELECT user_id, tier_id, quota, updated_at
		FROM tier_quotas
		WHERE user_id = $1 AND tier_id = $2
	`
	q := &domain.TierQuota{}
	err := r.DB.QueryRowContext(ctx, query, userID, tierID).Scan(&q.UserID, &q.TierID, &q.Quota, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

func (r *quotaRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.TierQuota, error) {
	query := `
		SELECT user_id, tier_id, quota, updated_at
		FROM tier_quotas
		WHERE user_id = $1
	`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	quotas := make([]*domain.TierQuota, 0)
	for rows.Next() {
		q := &domain.TierQuota{}
		if err := rows.Scan(&q.UserID, &q.TierID, &q.Quota, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quotas = append(quotas, q)
	}
	return quotas, rows.Err()
}
