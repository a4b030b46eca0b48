package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrLastInsertID is returned by PgxResult.LastInsertId; PostgreSQL reports
// generated keys through RETURNING instead.
var ErrLastInsertID = errors.New("database: LastInsertId not supported by PostgreSQL")

// PgxDatabase implements Database for pgxpool.Pool.
type PgxDatabase struct {
	pool *pgxpool.Pool
}

// NewPgxDatabase creates a new PgxDatabase.
func NewPgxDatabase(pool *pgxpool.Pool) *PgxDatabase {
	return &PgxDatabase{pool: pool}
}

// Pool exposes the underlying pool.
func (p *PgxDatabase) Pool() *pgxpool.Pool { return p.pool }

// Query executes a query that returns rows.
func (p *PgxDatabase) Query(query string, args ...any) (Rows, error) {
	return p.QueryContext(context.Background(), query, args...)
}

// QueryContext executes a query with a context.
func (p *PgxDatabase) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &PgxRows{rows: rows}, nil
}

// Exec executes a query without returning rows.
func (p *PgxDatabase) Exec(query string, args ...any) (Result, error) {
	return p.ExecContext(context.Background(), query, args...)
}

// ExecContext executes a query without returning rows.
func (p *PgxDatabase) ExecContext(ctx context.Context, query string, args ...any) (Result, error) {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return PgxResult{tag: tag}, nil
}

// PingContext verifies the connection to the database is alive.
func (p *PgxDatabase) PingContext(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the pool.
func (p *PgxDatabase) Close() error {
	p.pool.Close()
	return nil
}

// PgxRows implements Rows for pgx.Rows.
type PgxRows struct {
	rows    pgx.Rows
	columns []string
}

// NewPgxRows wraps rows.
func NewPgxRows(rows pgx.Rows) *PgxRows { return &PgxRows{rows: rows} }

func (p *PgxRows) Next() bool             { return p.rows.Next() }
func (p *PgxRows) Scan(dest ...any) error { return p.rows.Scan(dest...) }
func (p *PgxRows) Close() error           { p.rows.Close(); return nil }
func (p *PgxRows) Err() error             { return p.rows.Err() }

// Columns returns the column names from the field descriptions. The slice
// is computed once and shared between calls.
func (p *PgxRows) Columns() ([]string, error) {
	if p.columns == nil {
		p.columns = fieldNames(p.rows.FieldDescriptions())
	}
	return p.columns, nil
}

// Values returns the decoded values of the current row.
func (p *PgxRows) Values() ([]any, error) {
	return p.rows.Values()
}

func fieldNames(fds []pgconn.FieldDescription) []string {
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	return names
}

// PgxResult implements Result for a pgconn command tag.
type PgxResult struct {
	tag pgconn.CommandTag
}

func (r PgxResult) LastInsertId() (int64, error) { return 0, ErrLastInsertID }
func (r PgxResult) RowsAffected() (int64, error) { return r.tag.RowsAffected(), nil }

var _ Database = (*PgxDatabase)(nil)
var _ Rows = (*PgxRows)(nil)
