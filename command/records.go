package command

import (
	"fmt"
	"iter"
	"strconv"

	"github.com/google/uuid"

	"github.com/Konsultn-Engineering/colmap/cache"
	"github.com/Konsultn-Engineering/colmap/mapper"
)

// RecordSet is a fully read result. Column names resolve through a shared
// mapper; Close releases it.
type RecordSet struct {
	columns []string
	lease   *cache.Lease
	rows    [][]any
}

// Columns returns the result column names as reported by the driver.
func (rs *RecordSet) Columns() []string { return rs.columns }

// Len returns the number of rows.
func (rs *RecordSet) Len() int { return len(rs.rows) }

// Row returns row i.
func (rs *RecordSet) Row(i int) Record {
	return Record{set: rs, values: rs.rows[i]}
}

// All yields every row.
func (rs *RecordSet) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, values := range rs.rows {
			if !yield(i, Record{set: rs, values: values}) {
				return
			}
		}
	}
}

// Index resolves a column name to its position, or -1.
func (rs *RecordSet) Index(name string) int {
	i, err := rs.ordinal(name)
	if err != nil {
		return -1
	}
	return i
}

// Column returns the canonical column name matching name. Duplicate column
// names in a result resolve to the first.
func (rs *RecordSet) Column(name string) (string, bool) {
	i, err := rs.ordinal(name)
	if err != nil {
		return "", false
	}
	return rs.columns[i], true
}

// Stats describes the resolver behind the column names.
func (rs *RecordSet) Stats() mapper.Stats {
	if rs.lease == nil {
		return mapper.Stats{}
	}
	return rs.lease.Mapper().Stats()
}

// Close releases the column resolver. Records keep their values.
func (rs *RecordSet) Close() error {
	if rs.lease != nil {
		rs.lease.Release()
	}
	return nil
}

// ordinal maps name to a value position. Result column positions equal
// mapper ordinals only when no name repeats, so the first occurrence is
// looked up explicitly.
func (rs *RecordSet) ordinal(name string) (int, error) {
	if rs.lease == nil {
		return rs.scan(name)
	}
	m := rs.lease.Mapper()
	k := m.Index(name)
	if k < 0 {
		if m.Disposed() {
			return -1, fmt.Errorf("%w: %s (record set closed)", ErrUnknownColumn, name)
		}
		return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	if m.Count() == len(rs.columns) {
		return k, nil
	}
	return rs.scan(name)
}

func (rs *RecordSet) scan(name string) (int, error) {
	for i, c := range rs.columns {
		if mapper.EqualFold(c, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
}

// Record is one row of a RecordSet.
type Record struct {
	set    *RecordSet
	values []any
}

// detach returns a copy of r that outlives its RecordSet. Names resolve by
// a linear scan since a single row does not need the shared resolver.
func (r Record) detach() Record {
	return Record{
		set:    &RecordSet{columns: r.set.columns, rows: [][]any{r.values}},
		values: r.values,
	}
}

// Values returns the row values in column order.
func (r Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Value returns the value at position i.
func (r Record) Value(i int) any { return r.values[i] }

// Index resolves a column name to its position, or -1.
func (r Record) Index(name string) int {
	i, err := r.set.ordinal(name)
	if err != nil {
		return -1
	}
	return i
}

// Get returns the value of the named column.
func (r Record) Get(name string) (any, error) {
	i, err := r.set.ordinal(name)
	if err != nil {
		return nil, err
	}
	return r.values[i], nil
}

// String reads the named column as text. NULL reads as "".
func (r Record) String(name string) (string, error) {
	v, err := r.Get(name)
	if err != nil {
		return "", err
	}
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case []byte:
		return string(val), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return fmt.Sprint(val), nil
	}
}

// Int64 reads the named column as an integer.
func (r Record) Int64(name string) (int64, error) {
	v, err := r.Get(name)
	if err != nil {
		return 0, err
	}
	switch val := v.(type) {
	case int64:
		return val, nil
	case int32:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case string:
		return parseInt(name, val)
	case []byte:
		return parseInt(name, string(val))
	}
	return 0, fmt.Errorf("%w: column %s: %T to int64", ErrConvert, name, v)
}

func parseInt(name, s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: column %s: %v", ErrConvert, name, err)
	}
	return n, nil
}

// UUID reads the named column as a UUID. Drivers hand UUIDs back as
// 16-byte arrays, raw bytes or text.
func (r Record) UUID(name string) (uuid.UUID, error) {
	v, err := r.Get(name)
	if err != nil {
		return uuid.Nil, err
	}
	switch val := v.(type) {
	case uuid.UUID:
		return val, nil
	case [16]byte:
		return uuid.UUID(val), nil
	case []byte:
		if len(val) == 16 {
			return uuid.FromBytes(val)
		}
		return uuid.ParseBytes(val)
	case string:
		return uuid.Parse(val)
	}
	return uuid.Nil, fmt.Errorf("%w: column %s: %T to uuid", ErrConvert, name, v)
}
