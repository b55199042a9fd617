package store

import (
	"context"
	"database/sql"
	"strings"
)

// DB exposes the internal *sql.DB for test helpers in store_test.
// This file only compiles during `go test`.
func (s *Store) DB() *sql.DB {
	return s.db
}

// FailExecMatching makes every exec whose query contains substr fail with err.
func (s *Store) FailExecMatching(substr string, err error) {
	s.hooks.exec = func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
		if strings.Contains(query, substr) {
			return nil, err
		}
		return db.ExecContext(ctx, query, args...)
	}
}

// SetOpenDB swaps the database opener and returns a function restoring it.
func SetOpenDB(f func(driverName, dsn string) (*sql.DB, error)) (restore func()) {
	prev := openDB
	openDB = f
	return func() { openDB = prev }
}
