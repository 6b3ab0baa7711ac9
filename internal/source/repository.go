package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/bankrank/backend/internal/contracts"
)

// Repository reads published bank ratios from PostgreSQL.
// It never writes: rankings are computed on demand and not stored.
type Repository struct {
	db *pgxpool.Pool
}

var _ contracts.RatioSource = (*Repository)(nil)

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListPeriods returns reporting periods, newest first
func (r *Repository) ListPeriods(ctx context.Context) ([]contracts.Period, error) {
	query := `
		SELECT
			period,
			COUNT(*)          AS bank_count,
			MAX(published_at) AS published_at
		FROM data.bank_ratios
		GROUP BY period
		ORDER BY period DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query periods: %w", err)
	}
	defer rows.Close()

	periods := make([]contracts.Period, 0)
	for rows.Next() {
		var p contracts.Period
		if err := rows.Scan(&p.Code, &p.BankCount, &p.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan period: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate periods: %w", err)
	}

	return periods, nil
}

// LoadPeriod returns the ratios of one period as raw records, ordered by
// display_order then bank name. NULL ratios are left out of the record so the
// engine rejects the batch instead of ranking a hole.
func (r *Repository) LoadPeriod(ctx context.Context, period string) ([]contracts.RawBank, error) {
	fields := contracts.RequiredFields()

	columns := make([]string, 0, len(fields))
	for _, f := range fields {
		columns = append(columns, f+"::float8")
	}

	query := fmt.Sprintf(`
		SELECT bank_name, %s
		FROM data.bank_ratios
		WHERE period = $1
		ORDER BY display_order, bank_name
	`, strings.Join(columns, ", "))

	rows, err := r.db.Query(ctx, query, period)
	if err != nil {
		return nil, fmt.Errorf("query ratios for %s: %w", period, err)
	}
	defer rows.Close()

	banks := make([]contracts.RawBank, 0)
	for rows.Next() {
		var name string
		values := make([]*float64, len(fields))

		dest := make([]interface{}, 0, len(fields)+1)
		dest = append(dest, &name)
		for i := range values {
			dest = append(dest, &values[i])
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan ratios: %w", err)
		}

		bank := contracts.RawBank{}
		bank.SetString(contracts.FieldName, name)
		for i, f := range fields {
			if values[i] != nil {
				bank.SetNumber(f, *values[i])
			}
		}
		banks = append(banks, bank)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ratios: %w", err)
	}

	if len(banks) == 0 {
		return nil, fmt.Errorf("%w: %s", contracts.ErrPeriodNotFound, period)
	}

	return banks, nil
}
