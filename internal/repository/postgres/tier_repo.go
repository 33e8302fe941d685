package postgres

import (
	"context"
	"database/sql"
	"errors"

	"guestgate/internal/domain"
)

type tierRepository struct {
	DB *sql.DB
}

func NewTierRepository(db *sql.DB) domain.TierRepository {
	return &tierRepository{
		DB: db,
	}
}

const tierColumns = `id, name, min_guests, max_guests, is_unlimited, is_active, sort_order, created_at, updated_at`

func scanTier(scan func(dest ...any) error) (*domain.CapacityTier, error) {
	t := &domain.CapacityTier{}
	if err := scan(&t.ID, &t.Name, &t.MinGuests, &t.MaxGuests, &t.IsUnlimited, &t.IsActive, &t.SortOrder, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *tierRepository) Create(ctx context.Context, t *domain.CapacityTier) error {
	query := `
		INSERT INTO capacity_tiers (name, min_guests, max_guests, is_unlimited, is_active, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		t.Name, t.MinGuests, t.MaxGuests, t.IsUnlimited, t.IsActive, t.SortOrder, t.CreatedAt, t.UpdatedAt,
	).Scan(&t.ID)
}

func (r *tierRepository) GetByID(ctx context.Context, id string) (*domain.CapacityTier, error) {
	query := `SELECT ` + tierColumns + ` FROM capacity_tiers WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, query, id)
	t, err := scanTier(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *tierRepository) List(ctx context.Context, activeOnly bool) ([]*domain.CapacityTier, error) {
	query := `SELECT ` + tierColumns + ` FROM capacity_tiers`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY sort_order ASC, name ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tiers := make([]*domain.CapacityTier, 0)
	for rows.Next() {
		t, err := scanTier(rows.Scan)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (r *tierRepository) Update(ctx context.Context, t *domain.CapacityTier) error {
	query := `
		UPDATE capacity_tiers
		SET name = $1, min_guests = $2, max_guests = $3, is_unlimited = $4, sort_order = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := r.DB.ExecContext(ctx, query,
		t.Name, t.MinGuests, t.MaxGuests, t.IsUnlimited, t.SortOrder, t.UpdatedAt, t.ID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *tierRepository) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE capacity_tiers SET is_active = $1, updated_at = NOW() WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, active, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *tierRepository) CountReferences(ctx context.Context, id string) (int, int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM events WHERE tier_id = $1),
			(SELECT COUNT(*) FROM tier_quotas WHERE tier_id = $1)
	`
	var events, quotaRows int
	if err := r.DB.QueryRowContext(ctx, query, id).Scan(&events, &quotaRows); err != nil {
		return 0, 0, err
	}
	return events, quotaRows, nil
}
