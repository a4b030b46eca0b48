// Package command executes SQL through a database.Database and resolves
// result columns by name with a mapper.Mapper.
//
// Statements may use named parameters, written @name or :name. They are
// rewritten to the dialect's placeholders once per statement text and bound
// case-insensitively:
//
//	cmd := command.New("SELECT * FROM users WHERE id = @id OR parent = @ID",
//		command.Named("id", 42))
package command

import (
	"fmt"
	"time"

	"github.com/Konsultn-Engineering/colmap/cache"
	"github.com/Konsultn-Engineering/colmap/dialect"
	"github.com/Konsultn-Engineering/colmap/mapper"
	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// Param is a named statement parameter.
type Param struct {
	Name  string
	Value any
}

// Named builds a Param.
func Named(name string, value any) Param {
	return Param{Name: name, Value: value}
}

// Command is one statement with its parameters. Positional Args are used
// as given when the statement has no named placeholders.
type Command struct {
	SQL     string
	Params  []Param
	Args    []any
	Timeout time.Duration
}

// New creates a command with named parameters.
func New(sql string, params ...Param) Command {
	return Command{SQL: sql, Params: params}
}

// Positional creates a command whose arguments bind in order.
func Positional(sql string, args ...any) Command {
	return Command{SQL: sql, Args: args}
}

// With returns a copy of c with one more parameter.
func (c Command) With(name string, value any) Command {
	params := make([]Param, len(c.Params), len(c.Params)+1)
	copy(params, c.Params)
	c.Params = append(params, Param{Name: name, Value: value})
	return c
}

// WithTimeout returns a copy of c bounded by d.
func (c Command) WithTimeout(d time.Duration) Command {
	c.Timeout = d
	return c
}

// Rewrite replaces the named placeholders of sql with d's placeholders.
// Quoted strings, quoted identifiers, comments and :: casts are copied
// untouched.
func Rewrite(sql string, d dialect.Dialect) *cache.Rewrite {
	var scratch [512]byte
	b := strbuf.New(scratch[:])

	var params []string
	numbered := d.Numbered()
	named := false

	for i := 0; i < len(sql); {
		c := sql[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(sql, i, c)
			b.AppendString(sql[i:end])
			i = end
		case c == '-' && i+1 < len(sql) && sql[i+1] == '-':
			end := skipLineComment(sql, i)
			b.AppendString(sql[i:end])
			i = end
		case c == '/' && i+1 < len(sql) && sql[i+1] == '*':
			end := skipBlockComment(sql, i)
			b.AppendString(sql[i:end])
			i = end
		case c == ':' && i+1 < len(sql) && sql[i+1] == ':':
			b.AppendString("::")
			i += 2
		case (c == '@' || c == ':') && i+1 < len(sql) && isNameStart(sql[i+1]):
			end := i + 2
			for end < len(sql) && isNamePart(sql[end]) {
				end++
			}
			name := sql[i+1 : end]
			named = true

			n := 0
			if numbered {
				n = indexFold(params, name) + 1
			}
			if n == 0 {
				params = append(params, name)
				n = len(params)
			}
			d.AppendPlaceholder(&b, n)
			i = end
		default:
			b.AppendByte(c)
			i++
		}
	}

	if !named {
		b.Dispose()
		return &cache.Rewrite{Source: sql, SQL: sql}
	}
	return &cache.Rewrite{Source: sql, SQL: b.StringAndDispose(), Params: params}
}

// bind orders the values of params to match rw's placeholders. Names
// resolve case-insensitively and the first of several equal names wins.
func bind(rw *cache.Rewrite, params []Param) ([]any, error) {
	if len(rw.Params) == 0 {
		return nil, nil
	}

	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	m := mapper.New(names)
	defer m.Dispose()

	// first[k] is the position in params of the name with ordinal k.
	first := make([]int, 0, m.Count())
	for i, name := range names {
		if m.Index(name) == len(first) {
			first = append(first, i)
		}
	}

	args := make([]any, len(rw.Params))
	for i, name := range rw.Params {
		k := m.Index(name)
		if k < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
		}
		args[i] = params[first[k]].Value
	}
	return args, nil
}

func indexFold(names []string, name string) int {
	for i, n := range names {
		if mapper.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

func isNameStart(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isNamePart(c byte) bool {
	return isNameStart(c) || ('0' <= c && c <= '9')
}

// skipQuoted returns the index just past the quoted run starting at i.
// A doubled quote character is an escaped quote.
func skipQuoted(s string, i int, q byte) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] == q {
			if j+1 < len(s) && s[j+1] == q {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(s)
}

func skipLineComment(s string, i int) int {
	for j := i; j < len(s); j++ {
		if s[j] == '\n' {
			return j + 1
		}
	}
	return len(s)
}

func skipBlockComment(s string, i int) int {
	for j := i + 2; j+1 < len(s); j++ {
		if s[j] == '*' && s[j+1] == '/' {
			return j + 2
		}
	}
	return len(s)
}
