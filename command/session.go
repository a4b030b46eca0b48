package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Konsultn-Engineering/colmap/cache"
	"github.com/Konsultn-Engineering/colmap/database"
	"github.com/Konsultn-Engineering/colmap/dialect"
	"github.com/Konsultn-Engineering/colmap/logging"
	"github.com/Konsultn-Engineering/colmap/utils"
)

// Session runs commands against one database.
type Session struct {
	db       database.Database
	dialect  dialect.Dialect
	mappers  *cache.MapperCache
	rewrites cache.RewriteCache
	log      *logging.Logger
	timeout  time.Duration
	ownsMaps bool
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger sets the statement logger.
func WithLogger(l *logging.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithMapperCache shares a column resolver cache between sessions.
func WithMapperCache(c *cache.MapperCache) SessionOption {
	return func(s *Session) { s.mappers = c }
}

// WithRewriteCache sets the cache for rewritten statements.
func WithRewriteCache(c cache.RewriteCache) SessionOption {
	return func(s *Session) { s.rewrites = c }
}

// WithQueryTimeout bounds every command that sets no timeout of its own.
func WithQueryTimeout(d time.Duration) SessionOption {
	return func(s *Session) { s.timeout = d }
}

// NewSession creates a session over db.
func NewSession(db database.Database, d dialect.Dialect, opts ...SessionOption) (*Session, error) {
	if db == nil {
		return nil, errors.New("command: nil database")
	}
	if d == nil {
		d = dialect.Postgres{}
	}
	s := &Session{db: db, dialect: d}
	for _, opt := range opts {
		opt(s)
	}
	if s.mappers == nil {
		c, err := cache.NewMapperCache(cache.DefaultMapperCacheSize)
		if err != nil {
			return nil, err
		}
		s.mappers = c
		s.ownsMaps = true
	}
	if s.rewrites == nil {
		s.rewrites = cache.NewRewriteCache()
	}
	if s.log == nil {
		s.log = logging.NoopLogger()
	}
	return s, nil
}

// DB returns the underlying database.
func (s *Session) DB() database.Database { return s.db }

// Dialect returns the session dialect.
func (s *Session) Dialect() dialect.Dialect { return s.dialect }

// Mappers returns the column resolver cache.
func (s *Session) Mappers() *cache.MapperCache { return s.mappers }

// Close releases the session caches. The database stays open.
func (s *Session) Close() error {
	if s.ownsMaps {
		return s.mappers.Close()
	}
	return nil
}

// prepare rewrites cmd for the dialect and binds its arguments.
func (s *Session) prepare(cmd Command) (string, []any, error) {
	key := utils.Mix64(utils.FingerprintString(cmd.SQL), utils.FingerprintString(s.dialect.Name()))
	rw, ok := s.rewrites.Get(key)
	if !ok || rw.Source != cmd.SQL {
		rw = Rewrite(cmd.SQL, s.dialect)
		s.rewrites.Set(key, rw)
	}
	if len(rw.Params) == 0 {
		return rw.SQL, cmd.Args, nil
	}
	args, err := bind(rw, cmd.Params)
	if err != nil {
		return "", nil, err
	}
	return rw.SQL, args, nil
}

func (s *Session) context(ctx context.Context, cmd Command) (context.Context, context.CancelFunc) {
	d := cmd.Timeout
	if d <= 0 {
		d = s.timeout
	}
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

// Query runs cmd and reads every row.
func (s *Session) Query(ctx context.Context, cmd Command) (*RecordSet, error) {
	sql, args, err := s.prepare(cmd)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.context(ctx, cmd)
	defer cancel()

	log := s.log.WithCommand(ulid.Make().String())
	start := time.Now()
	rs, err := s.read(ctx, sql, args)
	log.LogQuery(ctx, sql, time.Since(start), err)
	return rs, err
}

func (s *Session) read(ctx context.Context, sql string, args []any) (*RecordSet, error) {
	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	sb := getScanBuffers(len(columns))
	defer sb.release()

	var data [][]any
	for rows.Next() {
		if err := rows.Scan(sb.targets()...); err != nil {
			return nil, err
		}
		data = append(data, sb.row())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &RecordSet{
		columns: columns,
		lease:   s.mappers.Acquire(columns),
		rows:    data,
	}, nil
}

// QueryRow runs cmd and returns its first row.
func (s *Session) QueryRow(ctx context.Context, cmd Command) (Record, error) {
	rs, err := s.Query(ctx, cmd)
	if err != nil {
		return Record{}, err
	}
	defer rs.Close()
	if rs.Len() == 0 {
		return Record{}, ErrNoRows
	}
	return rs.Row(0).detach(), nil
}

// Scalar runs cmd and returns the first column of the first row.
func (s *Session) Scalar(ctx context.Context, cmd Command) (any, error) {
	rs, err := s.Query(ctx, cmd)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	if rs.Len() == 0 || len(rs.columns) == 0 {
		return nil, ErrNoRows
	}
	return rs.Row(0).Value(0), nil
}

// ScalarAs is Scalar with a type assertion.
func ScalarAs[T any](ctx context.Context, s *Session, cmd Command) (T, error) {
	var zero T
	v, err := s.Scalar(ctx, cmd)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T to %T", ErrConvert, v, zero)
	}
	return t, nil
}

// Exec runs cmd and returns the number of affected rows.
func (s *Session) Exec(ctx context.Context, cmd Command) (int64, error) {
	sql, args, err := s.prepare(cmd)
	if err != nil {
		return 0, err
	}
	ctx, cancel := s.context(ctx, cmd)
	defer cancel()

	log := s.log.WithCommand(ulid.Make().String())
	start := time.Now()
	res, err := s.db.ExecContext(ctx, sql, args...)
	log.LogExec(ctx, sql, time.Since(start), err)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
