package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound    = errors.New("record not found")
	ErrDatabase    = errors.New("database error")
	ErrConflict    = errors.New("record already exists")
	ErrStaleStatus = errors.New("order status changed concurrently")
)

// Queries are written with ? placeholders and rebound for the driver of q, so the same
// SQL runs on PostgreSQL and on the SQLite database used in tests.

func getOne(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.GetContext(ctx, q, dest, q.Rebind(query), args...)
}

func selectAll(ctx context.Context, q sqlx.ExtContext, dest interface{}, query string, args ...interface{}) error {
	return sqlx.SelectContext(ctx, q, dest, q.Rebind(query), args...)
}

func execute(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) (sql.Result, error) {
	return q.ExecContext(ctx, q.Rebind(query), args...)
}

// executeOne runs an UPDATE or DELETE and returns ErrNotFound when no row matched
func executeOne(ctx context.Context, q sqlx.ExtContext, query string, args ...interface{}) error {
	result, err := execute(ctx, q, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation recognizes duplicate key errors from both supported drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// pageArgs applies defaults to list paging
func pageArgs(limit, offset int) (int, int) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
