package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"

	"guestgate/internal/domain"
)

const pqUniqueViolation = "23505"

type guestRepository struct {
	DB *sql.DB
}

func NewGuestRepository(db *sql.DB) domain.GuestRepository {
	return &guestRepository{
		DB: db,
	}
}

// isAccessCodeConflict detects the global access-code unique constraint.
func isAccessCodeConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation && strings.Contains(pqErr.Constraint, "access_code")
	}
	return false
}

func (r *guestRepository) Create(ctx context.Context, g *domain.Guest) error {
	query := `
		INSERT INTO guests (event_id, name, phone, category, companions, notes, access_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		g.EventID, g.Name, g.Phone, string(g.Category), g.Companions, g.Notes, g.AccessCode, g.CreatedAt, g.UpdatedAt,
	).Scan(&g.ID)
	if err != nil {
		if isAccessCodeConflict(err) {
			return domain.ErrAccessCodeTaken
		}
		return err
	}
	return nil
}

func (r *guestRepository) CreateWithinCapacity(ctx context.Context, g *domain.Guest, maxGuests int) (bool, error) {
	// Conditional insert: the live guest count for the event is compared
	// against the tier ceiling inside the statement, so concurrent adds
	// cannot overfill the event.
	query := `
		INSERT INTO guests (event_id, name, phone, category, companions, notes, access_code, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
		WHERE (SELECT COUNT(*) FROM guests WHERE event_id = $1) < $10
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		g.EventID, g.Name, g.Phone, string(g.Category), g.Companions, g.Notes, g.AccessCode, g.CreatedAt, g.UpdatedAt, maxGuests,
	).Scan(&g.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if isAccessCodeConflict(err) {
			return false, domain.ErrAccessCodeTaken
		}
		return false, err
	}
	return true, nil
}

func scanGuest(scan func(dest ...any) error) (*domain.Guest, error) {
	g := &domain.Guest{}
	var category string
	var phoneNull sql.NullString
	var checkedInAtNull sql.NullTime
	var checkedInByNull sql.NullString
	if err := scan(
		&g.ID, &g.EventID, &g.Name, &phoneNull, &category, &g.Companions, &g.Notes,
		&g.AccessCode, &g.CheckedIn, &checkedInAtNull, &checkedInByNull, &g.CreatedAt, &g.UpdatedAt,
	); err != nil {
		return nil, err
	}
	g.Category = domain.GuestCategory(category)
	if phoneNull.Valid {
		g.Phone = &phoneNull.String
	}
	if checkedInAtNull.Valid {
		g.CheckedInAt = &checkedInAtNull.Time
	}
	if checkedInByNull.Valid {
		g.CheckedInBy = &checkedInByNull.String
	}
	return g, nil
}

const guestColumns = `id, event_id, name, phone, category, companions, notes, access_code, checked_in, checked_in_at, checked_in_by, created_at, updated_at`

func (r *guestRepository) GetByID(ctx context.Context, id string) (*domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE id = $1`
	row := r.DB.QueryRowContext(ctx, query, id)
	g, err := scanGuest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *guestRepository) GetByAccessCode(ctx context.Context, code string) (*domain.Guest, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	query := `SELECT ` + guestColumns + ` FROM guests WHERE access_code = $1`
	row := r.DB.QueryRowContext(ctx, query, code)
	g, err := scanGuest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *guestRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.Guest, error) {
	query := `SELECT ` + guestColumns + ` FROM guests WHERE event_id = $1 ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	guests := make([]*domain.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows.Scan)
		if err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, rows.Err()
}

func (r *guestRepository) CountByEventID(ctx context.Context, eventID string) (int, error) {
	query := `SELECT COUNT(*) FROM guests WHERE event_id = $1`
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *guestRepository) Update(ctx context.Context, guestID string, rec *domain.GuestRecord) (*domain.Guest, error) {
	query := `
		UPDATE guests
		SET name = $1, phone = $2, category = $3, companions = $4, notes = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + guestColumns
	row := r.DB.QueryRowContext(ctx, query,
		rec.Name, rec.Phone, string(rec.Category), rec.Companions, rec.Notes, guestID,
	)
	g, err := scanGuest(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func (r *guestRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM guests WHERE id = $1`
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

func (r *guestRepository) CheckIn(ctx context.Context, guestID, actorID string, at time.Time) (bool, error) {
	// The one-way PENDING -> CHECKED_IN transition. The WHERE clause on
	// checked_in = FALSE makes the read-check-write a single atomic
	// statement; the affected-row count decides SUCCESS vs DUPLICATE.
	query := `
		UPDATE guests
		SET checked_in = TRUE, checked_in_at = $2, checked_in_by = $3, updated_at = $2
		WHERE id = $1 AND checked_in = FALSE
	`
	result, err := r.DB.ExecContext(ctx, query, guestID, at, actorID)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}
