package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/alexanderramin/timeline/internal/domain"
)

const dateLayout = domain.DateLayout

// parseNullableTime reads an optional date column. NULL, blank and
// unparsable values all read as unset.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func nullableTimeToString(t *time.Time, layout string) any {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

func nullableIntToValue(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableIntFromSQL(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

// SQLite has no boolean type; flags are stored as 0 or 1.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

// withTx runs fn inside a transaction. When conn already is a transaction
// fn joins it; a bare *sql.DB gets a transaction of its own.
func withTx(ctx context.Context, conn db.DBTX, fn func(tx db.DBTX) error) error {
	sqlDB, ok := conn.(*sql.DB)
	if !ok {
		return fn(conn)
	}
	return db.NewSQLiteUnitOfWork(sqlDB).WithinTx(ctx, func(_ context.Context, tx db.DBTX) error {
		return fn(tx)
	})
}
