package connector

import (
	"context"

	"github.com/Konsultn-Engineering/colmap/database"
	"github.com/Konsultn-Engineering/colmap/dialect"
)

// SQLConnector is a database/sql connection through the pgx stdlib driver.
type SQLConnector struct {
	db *database.SqlDatabase
}

func connectPgxSQL(ctx context.Context, cfg Config) (Connection, error) {
	db, err := database.OpenSQL("pgx", buildDSN(cfg))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.Pool.MaxOpen)
	db.SetMaxIdleConns(cfg.Pool.MaxIdle)
	db.DB().SetConnMaxLifetime(cfg.Pool.MaxLifetime)
	db.DB().SetConnMaxIdleTime(cfg.Pool.MaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLConnector{db: db}, nil
}

func (s *SQLConnector) Database() database.Database { return s.db }

func (s *SQLConnector) Dialect() dialect.Dialect { return dialect.Postgres{} }

func (s *SQLConnector) Health(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLConnector) Stats() ConnectionStats {
	st := s.db.DB().Stats()
	return ConnectionStats{
		OpenConnections: st.OpenConnections,
		InUse:           st.InUse,
		Idle:            st.Idle,
	}
}

func (s *SQLConnector) Close() error { return s.db.Close() }
