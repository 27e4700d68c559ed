package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubExecutor satisfies infra.SQLExecutor with canned responses and records
// the last query and arguments.
type stubExecutor struct {
	lastQuery string
	lastArgs  []any
	scan      func(dest ...any) error
	rows      *stubRows
	execErr   error
	queryErr  error
}

func (s *stubExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.lastQuery = query
	s.lastArgs = args
	return pgconn.CommandTag{}, s.execErr
}

func (s *stubExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	s.lastQuery = query
	s.lastArgs = args
	return stubRow{scan: s.scan}
}

func (s *stubExecutor) Query(_ context.Context, query string, args ...any) (pgx.Rows, error) {
	s.lastQuery = query
	s.lastArgs = args
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	if s.rows == nil {
		return &stubRows{}, nil
	}
	return s.rows, nil
}

type stubRow struct {
	scan func(dest ...any) error
}

func (r stubRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

// stubRows serves a fixed sequence of scan functions.
type stubRows struct {
	scans []func(dest ...any) error
	idx   int
}

func (r *stubRows) Next() bool {
	return r.idx < len(r.scans)
}

func (r *stubRows) Scan(dest ...any) error {
	if r.idx >= len(r.scans) {
		return errors.New("scan past end of rows")
	}
	fn := r.scans[r.idx]
	r.idx++
	return fn(dest...)
}

func (r *stubRows) Close()                                       {}
func (r *stubRows) Err() error                                   { return nil }
func (r *stubRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *stubRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *stubRows) Values() ([]any, error)                       { return nil, errors.New("not supported") }
func (r *stubRows) RawValues() [][]byte                          { return nil }
func (r *stubRows) Conn() *pgx.Conn                              { return nil }
