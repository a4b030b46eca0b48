package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"

	pluralizer "github.com/gertd/go-pluralize"

	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// pluralizeClient is shared; the client is safe for concurrent use once built.
var pluralizeClient = pluralizer.NewClient()

// TableName derives a table name from a struct name: snake_case with the
// last word pluralized. OrderItem becomes order_items, Person becomes people.
func TableName(structName string) string {
	snake := toSnakeCase(structName)
	if snake == "" {
		return ""
	}
	cut := strings.LastIndexByte(snake, '_') + 1
	return snake[:cut] + pluralizeClient.Plural(snake[cut:])
}

// ColumnName derives a column name from a field name.
func ColumnName(fieldName string) string {
	return toSnakeCase(fieldName)
}

// toSnakeCase converts any naming convention to snake_case. Acronyms stay
// together: UserID becomes user_id and HTTPServer becomes http_server.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	var scratch [64]byte
	b := strbuf.New(scratch[:])

	var prev rune
	for i, r := range name {
		if i > 0 && unicode.IsUpper(r) {
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			next, _ := utf8.DecodeRuneInString(name[i+utf8.RuneLen(r):])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && unicode.IsLower(next)) {
				b.AppendByte('_')
			}
		}
		b.AppendRune(unicode.ToLower(r))
		prev = r
	}
	return b.StringAndDispose()
}
