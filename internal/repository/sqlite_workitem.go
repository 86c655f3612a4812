package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
)

// workItemColumns is the canonical SELECT column list for work_items.
const workItemColumns = `id, resource_key, fiscal_year, title, status, created_at, updated_at`

// SQLiteWorkItemRepo implements WorkItemRepo using a SQLite database.
type SQLiteWorkItemRepo struct {
	db db.DBTX
}

// NewSQLiteWorkItemRepo creates a new SQLiteWorkItemRepo.
func NewSQLiteWorkItemRepo(conn db.DBTX) *SQLiteWorkItemRepo {
	return &SQLiteWorkItemRepo{db: conn}
}

func (r *SQLiteWorkItemRepo) Create(ctx context.Context, w *domain.WorkItem) error {
	query := `INSERT INTO work_items (` + workItemColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		w.ID,
		w.ResourceKey,
		w.FiscalYear,
		w.Title,
		string(w.Status),
		formatTimestamp(w.CreatedAt),
		formatTimestamp(w.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting work item: %w", err)
	}
	return nil
}

func (r *SQLiteWorkItemRepo) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	w, err := scanWorkItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return w, err
}

// ListEligible returns the work items of a chain that still need a slot,
// oldest first.
func (r *SQLiteWorkItemRepo) ListEligible(ctx context.Context, resourceKey string, fiscalYear int) ([]*domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items
		WHERE resource_key = ? AND fiscal_year = ?
		  AND status NOT IN ('completed', 'withdrawn')
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, resourceKey, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("listing eligible work items: %w", err)
	}
	defer rows.Close()

	var items []*domain.WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating work items: %w", err)
	}
	return items, nil
}

// ListChainKeys returns every resource and fiscal year that has work items.
func (r *SQLiteWorkItemRepo) ListChainKeys(ctx context.Context) ([]domain.ChainKey, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT resource_key, fiscal_year FROM work_items ORDER BY fiscal_year, resource_key`)
	if err != nil {
		return nil, fmt.Errorf("listing work item chains: %w", err)
	}
	defer rows.Close()
	return scanChainKeys(rows)
}

func (r *SQLiteWorkItemRepo) UpdateStatus(ctx context.Context, id string, status domain.WorkItemStatus, at time.Time) error {
	if !domain.ValidWorkItemStatuses[string(status)] {
		return domain.NewValidationError("status", "invalid work item status %q", status)
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE work_items SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("updating work item status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (*domain.WorkItem, error) {
	var w domain.WorkItem
	var status, createdAtStr, updatedAtStr string
	if err := row.Scan(&w.ID, &w.ResourceKey, &w.FiscalYear, &w.Title, &status, &createdAtStr, &updatedAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning work item: %w", err)
	}
	w.Status = domain.WorkItemStatus(status)

	var err error
	if w.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return nil, err
	}
	if w.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return nil, err
	}
	return &w, nil
}
