package testutil

import (
	"context"
	"database/sql"
	"strings"

	"github.com/alexanderramin/timeline/internal/db"
)

// FaultyUoW runs each unit in a real transaction but fails one write. It
// counts the ExecContext calls whose query contains Match (every write when
// Match is empty) and returns Err from the FailOn-th of them, starting at 1.
// Reads are never counted.
type FaultyUoW struct {
	DB     *sql.DB
	FailOn int
	Match  string
	Err    error
}

func (u *FaultyUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return db.NewSQLiteUnitOfWork(u.DB).WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &faultyTx{DBTX: tx, uow: u})
	})
}

type faultyTx struct {
	db.DBTX
	uow  *FaultyUoW
	seen int
}

func (f *faultyTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if strings.Contains(query, f.uow.Match) {
		f.seen++
		if f.seen == f.uow.FailOn {
			return nil, f.uow.Err
		}
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
