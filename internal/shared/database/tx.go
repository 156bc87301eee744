package database

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// Conn returns db bound to ctx. When tx is set every statement runs on it, so
// gorm repositories and raw sql.Tx writers (the outbox) share one transaction.
func Conn(ctx context.Context, db *gorm.DB, tx *sql.Tx) *gorm.DB {
	conn := db.WithContext(ctx)
	if tx != nil {
		conn.Statement.ConnPool = tx
	}
	return conn
}

// BeginSerializable opens a transaction for check-then-act invariants such as
// the single active cycle and the evaluation item cap.
func BeginSerializable(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	return db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
}
