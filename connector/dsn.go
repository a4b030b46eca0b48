package connector

import (
	"fmt"
	"maps"
	"net/url"
	"slices"

	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// DSNBuilder provides a fluent interface for building database connection strings
type DSNBuilder struct {
	scheme   string
	username string
	password string
	host     string
	port     int
	database string
	params   map[string]string
}

// NewDSNBuilder creates a new DSN builder
func NewDSNBuilder(scheme string) *DSNBuilder {
	return &DSNBuilder{
		scheme: scheme,
		params: make(map[string]string),
	}
}

// Auth sets username and password
func (b *DSNBuilder) Auth(username, password string) *DSNBuilder {
	b.username = username
	b.password = password
	return b
}

// Host sets the host and port
func (b *DSNBuilder) Host(host string, port int) *DSNBuilder {
	b.host = host
	b.port = port
	return b
}

// Database sets the database name
func (b *DSNBuilder) Database(name string) *DSNBuilder {
	b.database = name
	return b
}

// Param adds a single parameter; empty values are skipped.
func (b *DSNBuilder) Param(key, value string) *DSNBuilder {
	if value != "" {
		b.params[key] = value
	}
	return b
}

// Params adds multiple parameters
func (b *DSNBuilder) Params(params map[string]string) *DSNBuilder {
	for k, v := range params {
		b.Param(k, v)
	}
	return b
}

func (b *DSNBuilder) Validate() error {
	if b.host == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if b.port <= 0 || b.port > 65535 {
		return fmt.Errorf("%w: invalid port: %d", ErrInvalidConfig, b.port)
	}
	return nil
}

// Build constructs the final DSN string. Parameters are written in key
// order.
func (b *DSNBuilder) Build() string {
	var scratch [256]byte
	dsn := strbuf.New(scratch[:])

	dsn.AppendString(b.scheme)
	dsn.AppendString("://")

	if b.username != "" {
		dsn.AppendString(url.QueryEscape(b.username))
		if b.password != "" {
			dsn.AppendByte(':')
			dsn.AppendString(url.QueryEscape(b.password))
		}
		dsn.AppendByte('@')
	}

	dsn.AppendString(b.host)
	if b.port > 0 {
		dsn.AppendByte(':')
		dsn.AppendInt(int64(b.port))
	}

	if b.database != "" {
		dsn.AppendByte('/')
		dsn.AppendString(url.PathEscape(b.database))
	}

	for i, key := range slices.Sorted(maps.Keys(b.params)) {
		if i == 0 {
			dsn.AppendByte('?')
		} else {
			dsn.AppendByte('&')
		}
		dsn.AppendString(url.QueryEscape(key))
		dsn.AppendByte('=')
		dsn.AppendString(url.QueryEscape(b.params[key]))
	}

	return dsn.StringAndDispose()
}
