package connector

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Konsultn-Engineering/colmap/database"
	"github.com/Konsultn-Engineering/colmap/dialect"
)

var errNotConnected = errors.New("connector: not connected")

// PostgresConnector is a pgxpool-backed connection.
type PostgresConnector struct {
	config Config
	pool   *pgxpool.Pool
	db     *database.PgxDatabase
}

func connectPostgres(ctx context.Context, cfg Config) (Connection, error) {
	p := &PostgresConnector{config: cfg}
	if err := p.connect(ctx); err != nil {
		return nil, err
	}
	return p, nil
}

// PgxPoolConfig translates cfg into a pgxpool config.
func PgxPoolConfig(cfg Config) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	poolCfg.MaxConns = int32(cfg.Pool.MaxOpen)
	poolCfg.MinConns = int32(cfg.Pool.MaxIdle)
	poolCfg.MaxConnLifetime = cfg.Pool.MaxLifetime
	poolCfg.MaxConnIdleTime = cfg.Pool.MaxIdleTime
	return poolCfg, nil
}

// connect establishes the PostgreSQL connection.
func (p *PostgresConnector) connect(ctx context.Context) error {
	if p.pool != nil {
		return nil // Already connected
	}

	poolCfg, err := PgxPoolConfig(p.config)
	if err != nil {
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}

	p.pool = pool
	p.db = database.NewPgxDatabase(pool)
	return nil
}

// Database returns the pool as a database.Database.
func (p *PostgresConnector) Database() database.Database {
	return p.db
}

// Dialect returns the PostgreSQL dialect.
func (p *PostgresConnector) Dialect() dialect.Dialect {
	return dialect.Postgres{}
}

// Health checks the connection health.
func (p *PostgresConnector) Health(ctx context.Context) error {
	if p.pool == nil {
		return errNotConnected
	}
	return p.pool.Ping(ctx)
}

// Stats returns connection pool statistics.
func (p *PostgresConnector) Stats() ConnectionStats {
	if p.pool == nil {
		return ConnectionStats{}
	}
	s := p.pool.Stat()
	return ConnectionStats{
		OpenConnections: int(s.TotalConns()),
		InUse:           int(s.AcquiredConns()),
		Idle:            int(s.IdleConns()),
	}
}

// Close closes the connection pool.
func (p *PostgresConnector) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}
