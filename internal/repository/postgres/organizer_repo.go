package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"guestgate/internal/domain"
)

type organizerRepository struct {
	DB *sql.DB
}

func NewOrganizerRepository(db *sql.DB) domain.EventOrganizerRepository {
	return &organizerRepository{
		DB: db,
	}
}

func (r *organizerRepository) Add(ctx context.Context, eventID, userID string) error {
	query := `
		INSERT INTO event_organizers (event_id, user_id, created_at)
		VALUES ($1, $2, NOW())
	`
	_, err := r.DB.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return domain.ErrAlreadyAssigned
		}
		return err
	}
	return nil
}

func (r *organizerRepository) Remove(ctx context.Context, eventID, userID string) error {
	query := `DELETE FROM event_organizers WHERE event_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *organizerRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventOrganizer, error) {
	query := `
		SELECT o.event_id, o.user_id, u.name, u.last_name, u.email
		FROM event_organizers o
		JOIN users u ON u.id = o.user_id
		WHERE o.event_id = $1
		ORDER BY u.name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	organizers := make([]*domain.EventOrganizer, 0)
	for rows.Next() {
		o := &domain.EventOrganizer{}
		if err := rows.Scan(&o.EventID, &o.UserID, &o.Name, &o.LastName, &o.Email); err != nil {
			return nil, err
		}
		organizers = append(organizers, o)
	}
	return organizers, rows.Err()
}

func (r *organizerRepository) IsAssigned(ctx context.Context, eventID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM event_organizers WHERE event_id = $1 AND user_id = $2)`
	var assigned bool
	if err := r.DB.QueryRowContext(ctx, query, eventID, userID).Scan(&assigned); err != nil {
		return false, err
	}
	return assigned, nil
}
