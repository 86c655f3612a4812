package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
)

// SQLiteHolidayRepo implements HolidayRepo using a SQLite database.
type SQLiteHolidayRepo struct {
	db db.DBTX
}

// NewSQLiteHolidayRepo creates a new SQLiteHolidayRepo.
func NewSQLiteHolidayRepo(conn db.DBTX) *SQLiteHolidayRepo {
	return &SQLiteHolidayRepo{db: conn}
}

func (r *SQLiteHolidayRepo) LoadHolidays(ctx context.Context, fiscalYear int) (domain.HolidaySet, error) {
	var importedAt string
	err := r.db.QueryRowContext(ctx, `SELECT imported_at FROM holiday_years WHERE fiscal_year = ?`, fiscalYear).Scan(&importedAt)
	if err == sql.ErrNoRows {
		return domain.HolidaySet{}, fmt.Errorf("holiday set %d: %w", fiscalYear, ErrNotFound)
	}
	if err != nil {
		return domain.HolidaySet{}, fmt.Errorf("loading holiday set %d: %w", fiscalYear, err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT date, name FROM holidays WHERE fiscal_year = ? ORDER BY date`, fiscalYear)
	if err != nil {
		return domain.HolidaySet{}, fmt.Errorf("loading holidays %d: %w", fiscalYear, err)
	}
	defer rows.Close()

	set := domain.NewHolidaySet(fiscalYear)
	for rows.Next() {
		var dateStr, name string
		if err := rows.Scan(&dateStr, &name); err != nil {
			return domain.HolidaySet{}, fmt.Errorf("scanning holiday: %w", err)
		}
		d, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return domain.HolidaySet{}, fmt.Errorf("parsing holiday date %q: %w", dateStr, err)
		}
		set.Add(domain.Holiday{Date: d, Name: name})
	}
	if err := rows.Err(); err != nil {
		return domain.HolidaySet{}, fmt.Errorf("iterating holidays: %w", err)
	}
	return set, nil
}

// ReplaceHolidays swaps the stored set for set.FiscalYear in one transaction.
func (r *SQLiteHolidayRepo) ReplaceHolidays(ctx context.Context, set domain.HolidaySet) error {
	return withTx(ctx, r.db, func(tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO holiday_years (fiscal_year, imported_at) VALUES (?, ?)
			 ON CONFLICT (fiscal_year) DO UPDATE SET imported_at = excluded.imported_at`,
			set.FiscalYear, formatTimestamp(time.Now()),
		); err != nil {
			return fmt.Errorf("registering holiday year %d: %w", set.FiscalYear, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM holidays WHERE fiscal_year = ?`, set.FiscalYear); err != nil {
			return fmt.Errorf("clearing holidays %d: %w", set.FiscalYear, err)
		}
		for _, h := range set.Holidays() {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO holidays (fiscal_year, date, name) VALUES (?, ?, ?)`,
				set.FiscalYear, h.Date.Format(dateLayout), h.Name,
			); err != nil {
				return fmt.Errorf("inserting holiday %s: %w", h.Date.Format(dateLayout), err)
			}
		}
		return nil
	})
}

func (r *SQLiteHolidayRepo) ListYears(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT fiscal_year FROM holiday_years ORDER BY fiscal_year`)
	if err != nil {
		return nil, fmt.Errorf("listing holiday years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scanning holiday year: %w", err)
		}
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating holiday years: %w", err)
	}
	return years, nil
}
