package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// WithTx begins a transaction, runs fn with it, and commits on success or rolls
// back on error or panic. Panics are rethrown after the rollback.
//
// A cancelled ctx aborts the transaction, so a timed-out request never leaves a
// row half-updated.
func WithTx(ctx context.Context, db *sqlx.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
