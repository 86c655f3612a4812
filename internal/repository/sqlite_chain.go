package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
)

// scheduleItemColumns is the canonical SELECT column list for schedule_items.
const scheduleItemColumns = `id, resource_key, fiscal_year, order_index, title, assignment_type,
		start_date, duration_workdays, end_date, exclude_non_workdays,
		assigned_by, assigned_at, closed_at`

// SQLiteChainRepo implements ChainRepo using a SQLite database.
type SQLiteChainRepo struct {
	db  db.DBTX
	now func() time.Time
}

// NewSQLiteChainRepo creates a new SQLiteChainRepo.
func NewSQLiteChainRepo(conn db.DBTX) *SQLiteChainRepo {
	return &SQLiteChainRepo{db: conn, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SQLiteChainRepo) LoadChain(ctx context.Context, resourceKey string, fiscalYear int) (*domain.Chain, error) {
	c := &domain.Chain{
		Key:   domain.ChainKey{ResourceKey: resourceKey, FiscalYear: fiscalYear},
		Items: []domain.ScheduleItem{},
	}

	var updatedAtStr string
	err := r.db.QueryRowContext(ctx,
		`SELECT version, updated_at FROM chains WHERE resource_key = ? AND fiscal_year = ?`,
		resourceKey, fiscalYear,
	).Scan(&c.Version, &updatedAtStr)
	if err == sql.ErrNoRows {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading chain %s: %w", c.Key, err)
	}
	if c.UpdatedAt, err = parseTimestamp("chains.updated_at", updatedAtStr); err != nil {
		return nil, err
	}

	query := `SELECT ` + scheduleItemColumns + ` FROM schedule_items
		WHERE resource_key = ? AND fiscal_year = ? AND closed_at IS NULL
		ORDER BY order_index`
	rows, err := r.db.QueryContext(ctx, query, resourceKey, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("loading chain items %s: %w", c.Key, err)
	}
	defer rows.Close()

	items, err := scanScheduleItems(rows)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckOrder(items); err != nil {
		return nil, fmt.Errorf("loading chain %s: %w", c.Key, err)
	}
	c.Items = items
	return c, nil
}

func (r *SQLiteChainRepo) SaveChain(ctx context.Context, c *domain.Chain, expectedVersion int64, closed ...domain.ScheduleItem) error {
	if err := domain.CheckOrder(c.Items); err != nil {
		return fmt.Errorf("saving chain %s: %w", c.Key, err)
	}
	now := r.now()

	err := withTx(ctx, r.db, func(tx db.DBTX) error {
		if err := bumpVersion(ctx, tx, c.Key, expectedVersion, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM schedule_items WHERE resource_key = ? AND fiscal_year = ? AND closed_at IS NULL`,
			c.Key.ResourceKey, c.Key.FiscalYear,
		); err != nil {
			return fmt.Errorf("clearing chain items %s: %w", c.Key, err)
		}

		for i := range c.Items {
			it := c.Items[i]
			it.ClosedAt = nil
			if err := upsertItem(ctx, tx, c.Key, it); err != nil {
				return err
			}
		}
		for _, it := range closed {
			if it.ClosedAt == nil {
				return domain.NewValidationError("closed_at", "item %s is passed as closed without a close time", it.ID)
			}
			if err := upsertItem(ctx, tx, c.Key, it); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.Version = expectedVersion + 1
	c.UpdatedAt = now.Truncate(time.Second)
	return nil
}

// bumpVersion creates the chain row for a first save or advances its version
// when the stored one matches expected.
func bumpVersion(ctx context.Context, tx db.DBTX, key domain.ChainKey, expected int64, now time.Time) error {
	var res sql.Result
	var err error
	if expected == 0 {
		res, err = tx.ExecContext(ctx,
			`INSERT INTO chains (resource_key, fiscal_year, version, updated_at) VALUES (?, ?, 1, ?)
			 ON CONFLICT (resource_key, fiscal_year) DO NOTHING`,
			key.ResourceKey, key.FiscalYear, formatTimestamp(now))
	} else {
		res, err = tx.ExecContext(ctx,
			`UPDATE chains SET version = version + 1, updated_at = ?
			 WHERE resource_key = ? AND fiscal_year = ? AND version = ?`,
			formatTimestamp(now), key.ResourceKey, key.FiscalYear, expected)
	}
	if err != nil {
		return fmt.Errorf("updating chain version %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating chain version %s: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("saving chain %s at version %d: %w", key, expected, ErrConflict)
	}
	return nil
}

// upsertItem writes one row. An id already active in a different chain is
// refused so no other chain loses an item silently.
func upsertItem(ctx context.Context, tx db.DBTX, key domain.ChainKey, it domain.ScheduleItem) error {
	query := `INSERT INTO schedule_items (id, resource_key, fiscal_year, order_index, title, assignment_type,
		start_date, duration_workdays, end_date, exclude_non_workdays, assigned_by, assigned_at, closed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			resource_key = excluded.resource_key,
			fiscal_year = excluded.fiscal_year,
			order_index = excluded.order_index,
			title = excluded.title,
			assignment_type = excluded.assignment_type,
			start_date = excluded.start_date,
			duration_workdays = excluded.duration_workdays,
			end_date = excluded.end_date,
			exclude_non_workdays = excluded.exclude_non_workdays,
			assigned_by = excluded.assigned_by,
			assigned_at = excluded.assigned_at,
			closed_at = excluded.closed_at
		WHERE schedule_items.closed_at IS NOT NULL
		   OR (schedule_items.resource_key = excluded.resource_key AND schedule_items.fiscal_year = excluded.fiscal_year)`
	res, err := tx.ExecContext(ctx, query,
		it.ID,
		key.ResourceKey,
		key.FiscalYear,
		it.Order,
		it.Title,
		string(it.AssignmentType),
		nullableTimeToString(it.StartDate, dateLayout),
		nullableIntToValue(it.DurationWorkdays),
		nullableTimeToString(it.EndDate, dateLayout),
		boolToInt(it.ExcludeNonWorkdays),
		it.AssignedBy,
		formatTimestamp(it.AssignedAt),
		nullableTimeToString(it.ClosedAt, time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing schedule item %s: %w", it.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("schedule item %s is active in another chain: %w", it.ID, domain.ErrDataIntegrity)
	}
	return nil
}

func (r *SQLiteChainRepo) ListClosed(ctx context.Context, resourceKey string, fiscalYear int) ([]domain.ScheduleItem, error) {
	query := `SELECT ` + scheduleItemColumns + ` FROM schedule_items
		WHERE resource_key = ? AND fiscal_year = ? AND closed_at IS NOT NULL
		ORDER BY closed_at, id`
	rows, err := r.db.QueryContext(ctx, query, resourceKey, fiscalYear)
	if err != nil {
		return nil, fmt.Errorf("listing closed items: %w", err)
	}
	defer rows.Close()
	return scanScheduleItems(rows)
}

func (r *SQLiteChainRepo) ListChains(ctx context.Context) ([]domain.ChainKey, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT resource_key, fiscal_year FROM chains ORDER BY fiscal_year, resource_key`)
	if err != nil {
		return nil, fmt.Errorf("listing chains: %w", err)
	}
	defer rows.Close()
	return scanChainKeys(rows)
}

func (r *SQLiteChainRepo) FindItem(ctx context.Context, itemID string) (*domain.ScheduleItem, error) {
	query := `SELECT ` + scheduleItemColumns + ` FROM schedule_items WHERE id = ?`
	rows, err := r.db.QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("finding schedule item: %w", err)
	}
	defer rows.Close()
	items, err := scanScheduleItems(rows)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("schedule item %s: %w", itemID, ErrNotFound)
	}
	return &items[0], nil
}

func scanScheduleItems(rows *sql.Rows) ([]domain.ScheduleItem, error) {
	items := []domain.ScheduleItem{}
	for rows.Next() {
		var it domain.ScheduleItem
		var assignmentType, assignedAtStr string
		var startStr, endStr, closedStr sql.NullString
		var duration sql.NullInt64
		var excludeInt int

		err := rows.Scan(
			&it.ID, &it.ResourceKey, &it.FiscalYear, &it.Order, &it.Title, &assignmentType,
			&startStr, &duration, &endStr, &excludeInt,
			&it.AssignedBy, &assignedAtStr, &closedStr,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule item: %w", err)
		}

		it.AssignmentType = domain.AssignmentType(assignmentType)
		it.StartDate = parseNullableTime(startStr, dateLayout)
		it.DurationWorkdays = nullableIntFromSQL(duration)
		it.EndDate = parseNullableTime(endStr, dateLayout)
		it.ExcludeNonWorkdays = intToBool(excludeInt)
		it.ClosedAt = parseNullableTime(closedStr, time.RFC3339)
		if it.AssignedAt, err = parseTimestamp("assigned_at", assignedAtStr); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule items: %w", err)
	}
	return items, nil
}

func scanChainKeys(rows *sql.Rows) ([]domain.ChainKey, error) {
	var keys []domain.ChainKey
	for rows.Next() {
		var k domain.ChainKey
		if err := rows.Scan(&k.ResourceKey, &k.FiscalYear); err != nil {
			return nil, fmt.Errorf("scanning chain key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chain keys: %w", err)
	}
	return keys, nil
}
