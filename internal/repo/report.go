package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/cabin-booking/internal/domain"
)

// ReportRepo runs the read-only aggregates behind the admin reports.
type ReportRepo interface {
	// TotalsByStatus aggregates reservations whose check-in is in [from, to],
	// one row per status present, ordered by status.
	TotalsByStatus(ctx context.Context, from, to time.Time) ([]domain.StatusTotals, error)
}

type pgReportRepo struct {
	db db
}

// NewReportRepo constructs a ReportRepo backed by the provided db connection.
func NewReportRepo(db db) ReportRepo {
	return &pgReportRepo{db: db}
}

func (r *pgReportRepo) TotalsByStatus(ctx context.Context, from, to time.Time) ([]domain.StatusTotals, error) {
	const q = `
		SELECT status, COUNT(*), COALESCE(SUM(total_price), 0), COALESCE(SUM(amount_paid), 0)
		FROM reservations
		WHERE check_in BETWEEN @from AND @to
		GROUP BY status
		ORDER BY status`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.ReportRepo.TotalsByStatus: %w", classify(err))
	}
	defer rows.Close()

	out := []domain.StatusTotals{}
	for rows.Next() {
		var (
			t                 domain.StatusTotals
			status            string
			billed, collected pgtype.Numeric
		)
		if err := rows.Scan(&status, &t.Count, &billed, &collected); err != nil {
			return nil, fmt.Errorf("repo.ReportRepo.TotalsByStatus: scan: %w", err)
		}
		t.Status = domain.Status(status)
		t.Billed = fromNumeric(billed)
		t.Collected = fromNumeric(collected)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.ReportRepo.TotalsByStatus: rows: %w", classify(err))
	}
	return out, nil
}
