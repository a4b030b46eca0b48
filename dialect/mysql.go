package dialect

import (
	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// MySQL uses positional ? placeholders and backtick identifiers.
type MySQL struct{}

func (MySQL) Name() string   { return "mysql" }
func (MySQL) Numbered() bool { return false }

func (MySQL) AppendPlaceholder(b *strbuf.Builder, _ int) {
	b.AppendByte('?')
}

func (MySQL) AppendIdent(b *strbuf.Builder, name string) {
	appendQuoted(b, name, '`')
}

func (MySQL) AppendValue(b *strbuf.Builder, v any) {
	if appendLiteral(b, v) {
		return
	}
	b.AppendString("X'")
	appendHex(b, v.([]byte))
	b.AppendByte('\'')
}
