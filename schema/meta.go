// Package schema derives column metadata from Go struct types.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/Konsultn-Engineering/colmap/mapper"
)

var (
	// ErrInvalidModel reports a type that is not a struct or pointer to one.
	ErrInvalidModel = errors.New("schema: invalid model type")

	// ErrDuplicateColumn reports two fields mapping to the same column
	// under case-insensitive comparison.
	ErrDuplicateColumn = errors.New("schema: duplicate column")
)

// TableNamer overrides the derived table name.
type TableNamer interface {
	TableName() string
}

// FieldMeta describes one mapped struct field.
type FieldMeta struct {
	Name   string
	Column string
	Type   reflect.Type
	Index  []int
	Offset uintptr // from the start of the outermost struct
	Tag    *ParsedTag
}

// Addr returns a pointer to the field inside the struct at base, typed as
// *FieldType, suitable as a Scan destination.
func (f *FieldMeta) Addr(base unsafe.Pointer) any {
	return reflect.NewAt(f.Type, unsafe.Add(base, f.Offset)).Interface()
}

// EntityMeta describes a struct type.
type EntityMeta struct {
	Type               reflect.Type
	Name               string
	TableName          string
	HasCustomTableName bool
	Fields             []*FieldMeta

	// Resolver maps column names to positions in Fields. It lives as long
	// as the metadata and is never disposed.
	Resolver *mapper.Mapper
}

// Columns returns the column names in field order.
func (m *EntityMeta) Columns() []string {
	return m.Resolver.Keys()
}

// Field resolves a result column to its field, case-insensitively.
func (m *EntityMeta) Field(column string) (*FieldMeta, bool) {
	if i := m.Resolver.Index(column); i >= 0 {
		return m.Fields[i], true
	}
	return nil, false
}

// FieldBytes is Field for a byte view of the column name.
func (m *EntityMeta) FieldBytes(column []byte) (*FieldMeta, bool) {
	if i := m.Resolver.IndexBytes(column); i >= 0 {
		return m.Fields[i], true
	}
	return nil, false
}

var entityCache sync.Map // map[reflect.Type]*EntityMeta

// Introspect retrieves or builds metadata for a struct type.
func Introspect(t reflect.Type) (*EntityMeta, error) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrInvalidModel, t.Kind())
	}

	if meta, ok := entityCache.Load(t); ok {
		return meta.(*EntityMeta), nil
	}

	meta, err := buildMeta(t)
	if err != nil {
		return nil, err
	}
	actual, loaded := entityCache.LoadOrStore(t, meta)
	if loaded {
		meta.Resolver.Dispose()
	}
	return actual.(*EntityMeta), nil
}

// IntrospectOf is Introspect for a type parameter.
func IntrospectOf[T any]() (*EntityMeta, error) {
	return Introspect(reflect.TypeFor[T]())
}

func buildMeta(t reflect.Type) (*EntityMeta, error) {
	meta := &EntityMeta{
		Type: t,
		Name: t.Name(),
	}

	if tn, ok := reflect.New(t).Interface().(TableNamer); ok {
		meta.TableName = tn.TableName()
		meta.HasCustomTableName = true
	} else {
		meta.TableName = TableName(t.Name())
	}

	if err := collectFields(meta, t, nil, 0); err != nil {
		return nil, err
	}

	columns := make([]string, len(meta.Fields))
	for i, f := range meta.Fields {
		columns[i] = f.Column
	}
	meta.Resolver = mapper.New(columns)
	if meta.Resolver.Count() != len(columns) {
		dup := firstDuplicate(meta.Resolver, columns)
		meta.Resolver.Dispose()
		return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateColumn, t.Name(), dup)
	}
	return meta, nil
}

// collectFields appends the mapped fields of t. Embedded structs are
// flattened; their fields follow the embedding position.
func collectFields(meta *EntityMeta, t reflect.Type, index []int, base uintptr) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		path := append(index[:len(index):len(index)], i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			if f.Tag.Get("db") == "-" {
				continue
			}
			if err := collectFields(meta, f.Type, path, base+f.Offset); err != nil {
				return err
			}
			continue
		}
		if !f.IsExported() {
			continue
		}

		tag, err := parseTag(f.Name, f.Tag)
		if err != nil {
			return fmt.Errorf("error parsing tag for field %s: %w", f.Name, err)
		}
		if tag.Skip {
			continue
		}

		meta.Fields = append(meta.Fields, &FieldMeta{
			Name:   f.Name,
			Column: tag.ColumnName,
			Type:   f.Type,
			Index:  path,
			Offset: base + f.Offset,
			Tag:    tag,
		})
	}
	return nil
}

func firstDuplicate(m *mapper.Mapper, columns []string) string {
	for i, c := range columns {
		if m.Index(c) != i {
			return c
		}
	}
	return ""
}
