package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/timeline/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

func insertChain(ctx context.Context, tx db.DBTX, resource string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO chains (resource_key, fiscal_year, version, updated_at) VALUES (?, 2024, 1, '2024-04-01T00:00:00Z')`, resource)
	return err
}

func chainCount(t *testing.T, uow *db.SQLiteUnitOfWork) int {
	t.Helper()
	var n int
	require.NoError(t, uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM chains`).Scan(&n)
	}))
	return n
}

func TestWithinTx(t *testing.T) {
	errAbort := errors.New("abort unit")

	tests := []struct {
		name      string
		fn        func(ctx context.Context, tx db.DBTX) error
		wantErr   error
		wantPanic bool
		wantRows  int
	}{
		{
			name:     "commits on success",
			fn:       func(ctx context.Context, tx db.DBTX) error { return insertChain(ctx, tx, "crew-a") },
			wantRows: 1,
		},
		{
			name: "rolls back on error",
			fn: func(ctx context.Context, tx db.DBTX) error {
				if err := insertChain(ctx, tx, "crew-a"); err != nil {
					return err
				}
				return errAbort
			},
			wantErr: errAbort,
		},
		{
			name: "rolls back on panic",
			fn: func(ctx context.Context, tx db.DBTX) error {
				_ = insertChain(ctx, tx, "crew-a")
				panic("boom")
			},
			wantPanic: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uow := openTestDB(t)
			run := func() error { return uow.WithinTx(context.Background(), tt.fn) }
			if tt.wantPanic {
				assert.Panics(t, func() { _ = run() })
			} else if tt.wantErr != nil {
				require.ErrorIs(t, run(), tt.wantErr)
			} else {
				require.NoError(t, run())
			}
			assert.Equal(t, tt.wantRows, chainCount(t, uow))
		})
	}
}

func TestWithinTx_WritesVisibleInsideTheUnit(t *testing.T) {
	uow := openTestDB(t)
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		require.NoError(t, insertChain(ctx, tx, "crew-b"))
		var version int
		require.NoError(t, tx.QueryRowContext(ctx, `SELECT version FROM chains WHERE resource_key = 'crew-b'`).Scan(&version))
		assert.Equal(t, 1, version)
		return nil
	})
	require.NoError(t, err)
}

func TestWithinTx_ChainVersionBumpIsAtomic(t *testing.T) {
	uow := openTestDB(t)
	ctx := context.Background()

	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chains (resource_key, fiscal_year, version, updated_at) VALUES ('crew-a', 2024, 1, '2024-04-01T00:00:00Z')`)
		return err
	})
	require.NoError(t, err)

	err = uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `UPDATE chains SET version = version + 1 WHERE resource_key = 'crew-a'`); err != nil {
			return err
		}
		// Second statement violates the order_index check and aborts the unit.
		_, err := tx.ExecContext(ctx, `INSERT INTO schedule_items (id, resource_key, fiscal_year, order_index, assigned_at)
			VALUES ('wi-1', 'crew-a', 2024, -1, '2024-04-01T00:00:00Z')`)
		return err
	})
	require.Error(t, err)

	_ = uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		var version int
		require.NoError(t, tx.QueryRowContext(ctx, `SELECT version FROM chains WHERE resource_key = 'crew-a'`).Scan(&version))
		assert.Equal(t, 1, version, "version bump must roll back with the failed item write")
		return nil
	})
}
