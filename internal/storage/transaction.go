package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// TxFunc is a function that runs within a transaction.
type TxFunc func(*sql.Tx) error

// WithTransaction executes fn within a database transaction.
// It commits on success and rolls back on error or panic; a panic is re-raised.
func (db *DB) WithTransaction(ctx context.Context, fn TxFunc) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction error: %w, rollback error: %v", err, rbErr)
			}
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(tx)
}
