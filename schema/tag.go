package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// ParsedTag is the parsed form of a `db` struct tag.
type ParsedTag struct {
	ColumnName string // explicit or derived from the field name
	Skip       bool   // db:"-"
	Type       string
	Primary    bool
	Null       bool
	ReadOnly   bool // mapped on reads, never bound on writes
}

// parseTag parses the db tag of a field.
//
// Supported tag syntax:
//
//	`db:"column_name"`                 // Basic column mapping
//	`db:"column:custom_name"`          // Explicit column name
//	`db:"primary;type:uuid"`           // Flags and key:value options
//	`db:"-"`                           // Skip field entirely
func parseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	value, ok := tag.Lookup("db")
	if !ok || value == "" {
		return &ParsedTag{ColumnName: toSnakeCase(fieldName)}, nil
	}
	if value == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{ColumnName: toSnakeCase(fieldName)}

	// Handle simple column name (most common case)
	if !strings.ContainsAny(value, ";:") {
		parsed.ColumnName = value
		return parsed, nil
	}

	for _, option := range strings.Split(value, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		if err := parsed.parseOption(option); err != nil {
			return nil, fmt.Errorf("field %s: %w", fieldName, err)
		}
	}
	return parsed, nil
}

func (t *ParsedTag) parseOption(option string) error {
	key, val, hasValue := strings.Cut(option, ":")
	key = strings.TrimSpace(key)
	if !hasValue {
		switch key {
		case "primary", "primary_key":
			t.Primary = true
		case "null":
			t.Null = true
		case "readonly", "read_only":
			t.ReadOnly = true
		default:
			// Ignore unknown flags for forward compatibility
		}
		return nil
	}

	val = strings.TrimSpace(val)
	switch key {
	case "column", "name":
		if val == "" {
			return fmt.Errorf("empty column name")
		}
		t.ColumnName = val
	case "type":
		t.Type = val
	default:
		// Ignore unknown key:value pairs for extensibility
	}
	return nil
}
