// Package colmap runs SQL and resolves result columns by name without
// regard to ASCII or Unicode case.
//
//	db, err := colmap.Open(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	rs, err := db.Query(ctx, command.New("SELECT * FROM users WHERE id = @id",
//		command.Named("id", 42)))
package colmap

import (
	"context"
	"errors"

	"github.com/Konsultn-Engineering/colmap/cache"
	"github.com/Konsultn-Engineering/colmap/command"
	"github.com/Konsultn-Engineering/colmap/connector"
)

// DB is a session bound to the connection it owns.
type DB struct {
	*command.Session
	conn    connector.Connection
	mappers *cache.MapperCache
}

// Open connects per cfg and builds a session with the configured logger,
// query timeout and column resolver cache.
func Open(ctx context.Context, cfg connector.Config, opts ...command.SessionOption) (*DB, error) {
	cfg = cfg.WithDefaults()
	conn, err := connector.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	db, err := Wrap(conn, cfg, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Wrap builds a DB over an open connection.
func Wrap(conn connector.Connection, cfg connector.Config, opts ...command.SessionOption) (*DB, error) {
	cfg = cfg.WithDefaults()
	mappers, err := cache.NewMapperCache(cfg.Mapper.CacheSize, cfg.Mapper.Options()...)
	if err != nil {
		return nil, err
	}

	base := []command.SessionOption{
		command.WithMapperCache(mappers),
		command.WithLogger(cfg.Log.Logger()),
		command.WithQueryTimeout(cfg.QueryTimeout),
	}
	s, err := command.NewSession(conn.Database(), conn.Dialect(), append(base, opts...)...)
	if err != nil {
		mappers.Close()
		return nil, err
	}
	return &DB{Session: s, conn: conn, mappers: mappers}, nil
}

// Connection returns the underlying connection.
func (db *DB) Connection() connector.Connection { return db.conn }

// Health pings the database.
func (db *DB) Health(ctx context.Context) error { return db.conn.Health(ctx) }

// Close releases the resolver cache and closes the connection.
func (db *DB) Close() error {
	return errors.Join(db.Session.Close(), db.mappers.Close(), db.conn.Close())
}
