package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"guestgate/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) CreateWithinQuota(ctx context.Context, e *domain.Event, quota int) (bool, error) {
	// Conditional insert: the live event count for (owner, tier) is
	// compared against quota inside the statement, so two concurrent
	// creates cannot both land on the last slot.
	query := `
		INSERT INTO events (name, owner_id, tier_id, date, is_active, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE (SELECT COUNT(*) FROM events WHERE owner_id = $2 AND tier_id = $3) < $8
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Name, e.OwnerID, e.TierID, e.Date, e.IsActive, e.CreatedAt, e.UpdatedAt, quota,
	).Scan(&e.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func scanEvent(scan func(dest ...any) error) (*domain.Event, error) {
	e := &domain.Event{}
	var tierNull sql.NullString
	var dateNull sql.NullTime
	if err := scan(&e.ID, &e.Name, &e.OwnerID, &tierNull, &dateNull, &e.IsActive, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	if tierNull.Valid {
		e.TierID = &tierNull.String
	}
	if dateNull.Valid {
		e.Date = &dateNull.Time
	}
	return e, nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, name, owner_id, tier_id, date, is_active, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	row := r.DB.QueryRowContext(ctx, query, id)
	e, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `
		SELECT id, name, owner_id, tier_id, date, is_active, created_at, updated_at
		FROM events
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) CountByOwnerAndTier(ctx context.Context, ownerID, tierID string) (int, error) {
	query := `SELECT COUNT(*) FROM events WHERE owner_id = $1 AND tier_id = $2`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, ownerID, tierID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *eventRepository) Update(ctx context.Context, eventID string, name *string, date *time.Time, isActive *bool) (*domain.Event, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []interface{}{}
	n := 1
	if name != nil {
		setClauses = append(setClauses, fmt.Sprintf("name = $%d", n))
		args = append(args, *name)
		n++
	}
	if date != nil {
		setClauses = append(setClauses, fmt.Sprintf("date = $%d", n))
		args = append(args, *date)
		n++
	}
	if isActive != nil {
		setClauses = append(setClauses, fmt.Sprintf("is_active = $%d", n))
		args = append(args, *isActive)
		n++
	}
	if n == 1 {
		// No fields to update; just fetch current row
		return r.GetByID(ctx, eventID)
	}
	args = append(args, eventID)
	query := fmt.Sprintf(`
		UPDATE events SET %s
		WHERE id = $%d
		RETURNING id, name, owner_id, tier_id, date, is_active, created_at, updated_at
	`, strings.Join(setClauses, ", "), n)
	row := r.DB.QueryRowContext(ctx, query, args...)
	e, err := scanEvent(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
