package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"guestgate/internal/domain"
)

type auditRepository struct {
	DB *sql.DB
}

func NewAuditRepository(db *sql.DB) domain.AuditRepository {
	return &auditRepository{
		DB: db,
	}
}

func (r *auditRepository) Create(ctx context.Context, e *domain.AuditEntry) error {
	// IDs are generated app-side so the entry carries its identity before
	// the insert returns.
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	query := `
		INSERT INTO audit_entries (id, actor_id, event_id, guest_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query,
		e.ID, e.ActorID, e.EventID, e.GuestID, string(e.Action), e.Details, e.CreatedAt,
	)
	return err
}

// buildAuditWhere renders the filter into a WHERE clause and arg list.
func buildAuditWhere(filter domain.AuditFilter) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	n := 1
	if filter.EventID != "" {
		clauses = append(clauses, fmt.Sprintf("event_id = $%d", n))
		args = append(args, filter.EventID)
		n++
	}
	if filter.ActorID != "" {
		clauses = append(clauses, fmt.Sprintf("actor_id = $%d", n))
		args = append(args, filter.ActorID)
		n++
	}
	if filter.Action != "" {
		clauses = append(clauses, fmt.Sprintf("action = $%d", n))
		args = append(args, string(filter.Action))
		n++
	}
	if filter.From != nil {
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", n))
		args = append(args, *filter.From)
		n++
	}
	if filter.To != nil {
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", n))
		args = append(args, *filter.To)
		n++
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (r *auditRepository) List(ctx context.Context, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditEntry, int, error) {
	where, args := buildAuditWhere(filter)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM audit_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT id, actor_id, event_id, guest_id, action, details, created_at
		FROM audit_entries%s
		ORDER BY created_at ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, params.PageSize, params.Offset())

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	entries := make([]*domain.AuditEntry, 0)
	for rows.Next() {
		e := &domain.AuditEntry{}
		var action string
		var eventNull, guestNull sql.NullString
		if err := rows.Scan(&e.ID, &e.ActorID, &eventNull, &guestNull, &action, &e.Details, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Action = domain.AuditAction(action)
		if eventNull.Valid {
			e.EventID = &eventNull.String
		}
		if guestNull.Valid {
			e.GuestID = &guestNull.String
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *auditRepository) CountByAction(ctx context.Context, filter domain.AuditFilter) (map[domain.AuditAction]int, error) {
	where, args := buildAuditWhere(filter)
	query := `SELECT action, COUNT(*) FROM audit_entries` + where + ` GROUP BY action`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[domain.AuditAction]int)
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, err
		}
		counts[domain.AuditAction(action)] = count
	}
	return counts, rows.Err()
}
