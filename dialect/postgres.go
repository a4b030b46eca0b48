package dialect

import (
	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// Postgres numbers its placeholders ($1, $2, ...) and double-quotes
// identifiers.
type Postgres struct{}

func (Postgres) Name() string   { return "postgres" }
func (Postgres) Numbered() bool { return true }

func (Postgres) AppendPlaceholder(b *strbuf.Builder, n int) {
	b.AppendByte('$')
	b.AppendInt(int64(n))
}

func (Postgres) AppendIdent(b *strbuf.Builder, name string) {
	appendQuoted(b, name, '"')
}

func (Postgres) AppendValue(b *strbuf.Builder, v any) {
	if appendLiteral(b, v) {
		return
	}
	// bytea hex format
	b.AppendString(`'\x`)
	appendHex(b, v.([]byte))
	b.AppendString("'::bytea")
}
