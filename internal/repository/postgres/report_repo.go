package postgres

import (
	"context"
	"database/sql"

	"guestgate/internal/domain"
)

type reportRepository struct {
	DB *sql.DB
}

func NewReportRepository(db *sql.DB) domain.ReportRepository {
	return &reportRepository{
		DB: db,
	}
}

func (r *reportRepository) CountEvents(ctx context.Context) (int, error) {
	var count int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *reportRepository) CountGuests(ctx context.Context) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE checked_in) FROM guests`
	var total, checkedIn int
	if err := r.DB.QueryRowContext(ctx, query).Scan(&total, &checkedIn); err != nil {
		return 0, 0, err
	}
	return total, checkedIn, nil
}

func (r *reportRepository) TierUsage(ctx context.Context) ([]*domain.TierUsageLine, error) {
	query := `
		SELECT t.id, t.name, COUNT(e.id)
		FROM capacity_tiers t
		LEFT JOIN events e ON e.tier_id = t.id
		GROUP BY t.id, t.name
		ORDER BY t.name ASC
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := make([]*domain.TierUsageLine, 0)
	for rows.Next() {
		l := &domain.TierUsageLine{}
		if err := rows.Scan(&l.TierID, &l.TierName, &l.EventCount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
