// Package dialect renders the driver-specific parts of a statement into a
// strbuf.Builder.
package dialect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// ErrUnknownDialect is returned by ForName.
var ErrUnknownDialect = errors.New("dialect: unknown dialect")

type Dialect interface {
	Name() string

	// Numbered reports whether placeholders carry a position, so one
	// placeholder can be referenced several times.
	Numbered() bool

	AppendPlaceholder(b *strbuf.Builder, n int)
	AppendIdent(b *strbuf.Builder, name string)
	AppendValue(b *strbuf.Builder, v any)
}

// ForName returns the dialect registered under name, case-insensitively.
// "postgresql" and "pgx" alias postgres; "tidb" and "mariadb" alias mysql.
func ForName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	case "mysql", "mariadb", "tidb":
		return MySQL{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// Placeholder renders a single placeholder.
func Placeholder(d Dialect, n int) string {
	var scratch [16]byte
	b := strbuf.New(scratch[:])
	d.AppendPlaceholder(&b, n)
	return b.StringAndDispose()
}

// QuoteIdentifier renders a single quoted identifier.
func QuoteIdentifier(d Dialect, name string) string {
	var scratch [64]byte
	b := strbuf.New(scratch[:])
	d.AppendIdent(&b, name)
	return b.StringAndDispose()
}

// RenderValue renders v as a literal.
func RenderValue(d Dialect, v any) string {
	var scratch [64]byte
	b := strbuf.New(scratch[:])
	d.AppendValue(&b, v)
	return b.StringAndDispose()
}

// appendQuoted writes s between quote characters, doubling embedded quotes.
func appendQuoted(b *strbuf.Builder, s string, quote byte) {
	b.AppendByte(quote)
	for i := 0; i < len(s); i++ {
		if s[i] == quote {
			b.AppendByte(quote)
		}
		b.AppendByte(s[i])
	}
	b.AppendByte(quote)
}

// appendLiteral covers the literal forms shared by every dialect. It
// reports false for values the dialect must render itself.
func appendLiteral(b *strbuf.Builder, v any) bool {
	switch val := v.(type) {
	case nil:
		b.AppendString("NULL")
	case string:
		appendQuoted(b, val, '\'')
	case bool:
		if val {
			b.AppendString("TRUE")
		} else {
			b.AppendString("FALSE")
		}
	case int:
		b.AppendInt(int64(val))
	case int8:
		b.AppendInt(int64(val))
	case int16:
		b.AppendInt(int64(val))
	case int32:
		b.AppendInt(int64(val))
	case int64:
		b.AppendInt(val)
	case uint:
		b.AppendUint(uint64(val))
	case uint8:
		b.AppendUint(uint64(val))
	case uint16:
		b.AppendUint(uint64(val))
	case uint32:
		b.AppendUint(uint64(val))
	case uint64:
		b.AppendUint(val)
	case float32:
		appendFloat(b, float64(val), 32)
	case float64:
		appendFloat(b, val, 64)
	case time.Time:
		b.AppendByte('\'')
		appendTime(b, val)
		b.AppendByte('\'')
	case []byte:
		return false
	default:
		appendQuoted(b, fmt.Sprint(val), '\'')
	}
	return true
}

func appendFloat(b *strbuf.Builder, f float64, bitSize int) {
	var scratch [32]byte
	b.AppendBytes(strconv.AppendFloat(scratch[:0], f, 'f', -1, bitSize))
}

func appendTime(b *strbuf.Builder, t time.Time) {
	var scratch [32]byte
	b.AppendBytes(t.AppendFormat(scratch[:0], "2006-01-02 15:04:05.000000"))
}

func appendHex(b *strbuf.Builder, p []byte) {
	hex.Encode(b.AppendSpan(hex.EncodedLen(len(p))), p)
}
