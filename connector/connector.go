// Package connector turns a Config into a live Connection.
package connector

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/colmap/database"
	"github.com/Konsultn-Engineering/colmap/dialect"
)

// Registered driver names.
const (
	DriverPostgres = "postgres"
	DriverPgxSQL   = "pgx-sql"
)

type Connection interface {
	Database() database.Database
	Dialect() dialect.Dialect
	Health(ctx context.Context) error
	Stats() ConnectionStats
	Close() error
}

// ConnectionStats represents database connection pool statistics.
type ConnectionStats struct {
	OpenConnections int
	InUse           int
	Idle            int
}

// Provider opens connections for one driver.
type Provider interface {
	Connect(ctx context.Context, cfg Config) (Connection, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, cfg Config) (Connection, error)

func (f ProviderFunc) Connect(ctx context.Context, cfg Config) (Connection, error) {
	return f(ctx, cfg)
}

var registry = struct {
	mu        sync.RWMutex
	providers map[string]Provider
}{providers: make(map[string]Provider)}

// Register makes a provider available under name, case-insensitively.
func Register(name string, p Provider) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[strings.ToLower(name)] = p
}

func init() {
	Register(DriverPostgres, ProviderFunc(connectPostgres))
	Register(DriverPgxSQL, ProviderFunc(connectPgxSQL))
}

// Connect opens a connection through the provider registered for
// cfg.Driver, retrying per cfg.Retry.
func Connect(ctx context.Context, cfg Config) (Connection, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry.mu.RLock()
	p, ok := registry.providers[strings.ToLower(cfg.Driver)]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: provider %s not registered", ErrInvalidConfig, cfg.Driver)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	if cfg.Retry == nil {
		return p.Connect(ctx, cfg)
	}

	var conn Connection
	err := retry(ctx, cfg.Retry, func(ctx context.Context) error {
		c, err := p.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d retries: %w", cfg.Retry.MaxRetries, err)
	}
	return conn, nil
}

// buildDSN creates a PostgreSQL connection string.
func buildDSN(cfg Config) string {
	return NewDSNBuilder("postgres").
		Auth(cfg.Username, cfg.Password).
		Host(cfg.Host, cfg.Port).
		Database(cfg.Database).
		Param("sslmode", cfg.SSLMode).
		Params(cfg.Params).
		Build()
}
