// Package store holds the transactional plumbing shared by the Postgres
// repositories.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

// Postgres SQLSTATE codes the repositories react to.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeDeadlockDetected    = "40P01"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transactor groups a sequence of repository calls into one atomic unit.
// Calls made with the context passed to fn join the transaction; a nested
// WithinTx joins the outer one instead of opening a new transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type sqlTransactor struct{ db *sql.DB }

// NewSQLTransactor creates a Transactor over a database/sql pool.
func NewSQLTransactor(db *sql.DB) Transactor { return &sqlTransactor{db: db} }

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return aborted(err)
	}
	if err := tx.Commit(); err != nil {
		return aborted(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// aborted reports a transaction Postgres chose as a deadlock victim as a
// Conflict the caller may retry. Other errors pass through unchanged.
func aborted(err error) error {
	if IsDeadlock(err) {
		return apperr.Wrap(apperr.KindConflict, err, "transaction aborted by a concurrent update")
	}
	return err
}

// Conn returns the transaction bound to ctx, or db when there is none.
func Conn(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// IsUniqueViolation reports whether err is a Postgres unique constraint violation.
func IsUniqueViolation(err error) bool { return hasCode(err, codeUniqueViolation) }

// IsForeignKeyViolation reports whether err is a Postgres foreign key violation.
func IsForeignKeyViolation(err error) bool { return hasCode(err, codeForeignKeyViolation) }

// IsDeadlock reports whether Postgres aborted the statement to break a deadlock.
func IsDeadlock(err error) bool { return hasCode(err, codeDeadlockDetected) }

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == code
	}
	return false
}
