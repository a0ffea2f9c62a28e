// internal/pkg/database/tx.go
package database

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TxFunc is the unit of work executed inside a transaction
type TxFunc func(tx *gorm.DB) error

// WithTransaction runs fn inside a single database transaction.
// Any error returned by fn rolls back every statement; driver errors are classified
// so callers see domain error kinds rather than raw SQLSTATE codes.
func WithTransaction(ctx context.Context, db *gorm.DB, fn TxFunc) error {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx)
	})
	if err != nil {
		return Classify(err)
	}
	return nil
}

// ForUpdate adds a row lock (SELECT ... FOR UPDATE) to the query.
// Dialects without row locks (sqlite) drop the clause.
func ForUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
