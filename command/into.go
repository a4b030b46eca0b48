package command

import (
	"context"
	"fmt"
	"reflect"
	"time"
	"unsafe"

	"github.com/oklog/ulid/v2"

	"github.com/Konsultn-Engineering/colmap/schema"
)

// QueryInto runs cmd and scans each row into a T. Result columns match
// struct fields case-insensitively; columns with no field are discarded
// and fields with no column keep their zero value.
func QueryInto[T any](ctx context.Context, s *Session, cmd Command) ([]T, error) {
	meta, err := schema.IntrospectOf[T]()
	if err != nil {
		return nil, err
	}
	if meta.Type != reflect.TypeFor[T]() {
		return nil, fmt.Errorf("%w: %s is not a struct", schema.ErrInvalidModel, reflect.TypeFor[T]())
	}

	sql, args, err := s.prepare(cmd)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.context(ctx, cmd)
	defer cancel()

	log := s.log.WithCommand(ulid.Make().String())
	start := time.Now()
	out, err := scanInto[T](ctx, s, meta, sql, args)
	log.LogQuery(ctx, sql, time.Since(start), err)
	return out, err
}

func scanInto[T any](ctx context.Context, s *Session, meta *schema.EntityMeta, sql string, args []any) ([]T, error) {
	rows, err := s.db.QueryContext(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	// fields[i] is the field receiving column i, or nil.
	fields := make([]*schema.FieldMeta, len(columns))
	for i, c := range columns {
		if f, ok := meta.Field(c); ok {
			fields[i] = f
		}
	}

	var discard any
	dest := make([]any, len(columns))
	out := make([]T, 0)
	for rows.Next() {
		var zero T
		out = append(out, zero)
		base := unsafe.Pointer(&out[len(out)-1])
		for i, f := range fields {
			if f == nil {
				dest[i] = &discard
				continue
			}
			dest[i] = f.Addr(base)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// QueryOneInto is QueryInto for a single row.
func QueryOneInto[T any](ctx context.Context, s *Session, cmd Command) (T, error) {
	var zero T
	out, err := QueryInto[T](ctx, s, cmd)
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, ErrNoRows
	}
	return out[0], nil
}
