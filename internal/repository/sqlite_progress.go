package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
)

const progressColumns = `item_id, actual_start_date, actual_end_date, progress_percent,
		status_notes, updated_by, updated_at`

// SQLiteProgressRepo implements ProgressRepo using a SQLite database.
type SQLiteProgressRepo struct {
	db db.DBTX
}

// NewSQLiteProgressRepo creates a new SQLiteProgressRepo.
func NewSQLiteProgressRepo(conn db.DBTX) *SQLiteProgressRepo {
	return &SQLiteProgressRepo{db: conn}
}

func (r *SQLiteProgressRepo) Get(ctx context.Context, itemID string) (*domain.ActualProgress, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+progressColumns+` FROM actual_progress WHERE item_id = ?`, itemID)
	p, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("actual progress %s: %w", itemID, ErrNotFound)
	}
	return p, err
}

func (r *SQLiteProgressRepo) Upsert(ctx context.Context, p *domain.ActualProgress) error {
	query := `INSERT OR REPLACE INTO actual_progress (` + progressColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ItemID,
		nullableTimeToString(p.ActualStartDate, dateLayout),
		nullableTimeToString(p.ActualEndDate, dateLayout),
		p.ProgressPercent,
		p.StatusNotes,
		p.UpdatedBy,
		formatTimestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting actual progress: %w", err)
	}
	return nil
}

// ListByItems returns the recorded progress for each id that has any.
func (r *SQLiteProgressRepo) ListByItems(ctx context.Context, itemIDs []string) (map[string]*domain.ActualProgress, error) {
	out := make(map[string]*domain.ActualProgress, len(itemIDs))
	if len(itemIDs) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(itemIDs)), ",")
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+progressColumns+` FROM actual_progress WHERE item_id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing actual progress: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out[p.ItemID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actual progress: %w", err)
	}
	return out, nil
}

func scanProgress(row rowScanner) (*domain.ActualProgress, error) {
	var p domain.ActualProgress
	var startStr, endStr sql.NullString
	var updatedAtStr string
	err := row.Scan(&p.ItemID, &startStr, &endStr, &p.ProgressPercent, &p.StatusNotes, &p.UpdatedBy, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning actual progress: %w", err)
	}
	p.ActualStartDate = parseNullableTime(startStr, dateLayout)
	p.ActualEndDate = parseNullableTime(endStr, dateLayout)
	if p.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return nil, err
	}
	return &p, nil
}
