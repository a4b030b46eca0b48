package schema

import (
	"reflect"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type User struct {
	ID        uint64    `db:"id"`
	FirstName string    `db:"first_name"`
	Email     string    // derived
	CreatedAt time.Time `db:"column:created;readonly"`
	Secret    string    `db:"-"`
	internal  int
}

type Audit struct {
	CreatedBy string
	UpdatedBy string `db:"updated_by"`
}

type OrderItem struct {
	ID    int64
	Audit
	Price float64 `db:"primary;type:numeric"`
}

type Person struct {
	Name string
}

type Custom struct {
	ID int64
}

func (Custom) TableName() string { return "legacy_custom" }

type Clash struct {
	UserID  int64
	UserId2 int64 `db:"USER_ID"`
}

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ID", "id"},
		{"FirstName", "first_name"},
		{"UserID", "user_id"},
		{"HTTPServer", "http_server"},
		{"Address2Line", "address2_line"},
		{"already_snake", "already_snake"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toSnakeCase(tt.in), tt.in)
	}
}

func TestTableName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"User", "users"},
		{"Person", "people"},
		{"OrderItem", "order_items"},
		{"Category", "categories"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TableName(tt.in), tt.in)
	}
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		name  string
		field string
		tag   reflect.StructTag
		want  ParsedTag
	}{
		{"NoTag", "FirstName", ``, ParsedTag{ColumnName: "first_name"}},
		{"Simple", "FirstName", `db:"given"`, ParsedTag{ColumnName: "given"}},
		{"Skip", "X", `db:"-"`, ParsedTag{Skip: true}},
		{"Options", "ID", `db:"primary;type:uuid"`, ParsedTag{ColumnName: "id", Primary: true, Type: "uuid"}},
		{"Column", "ID", `db:"column:user_id;null"`, ParsedTag{ColumnName: "user_id", Null: true}},
		{"UnknownIgnored", "ID", `db:"frobnicate;color:red"`, ParsedTag{ColumnName: "id"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTag(tt.field, tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}

	_, err := parseTag("ID", `db:"column:"`)
	assert.Error(t, err)
}

func TestIntrospect(t *testing.T) {
	meta, err := Introspect(reflect.TypeOf(&User{}))
	require.NoError(t, err)

	assert.Equal(t, "users", meta.TableName)
	assert.Equal(t, []string{"id", "first_name", "email", "created"}, meta.Columns())
	assert.True(t, meta.Fields[3].Tag.ReadOnly)

	f, ok := meta.Field("FIRST_NAME")
	require.True(t, ok)
	assert.Equal(t, "FirstName", f.Name)

	f, ok = meta.FieldBytes([]byte("Email"))
	require.True(t, ok)
	assert.Equal(t, "Email", f.Name)

	_, ok = meta.Field("secret")
	assert.False(t, ok)
	_, ok = meta.Field("internal")
	assert.False(t, ok)

	again, err := IntrospectOf[User]()
	require.NoError(t, err)
	assert.Same(t, meta, again)
}

func TestIntrospect_Embedded(t *testing.T) {
	meta, err := IntrospectOf[OrderItem]()
	require.NoError(t, err)

	assert.Equal(t, "order_items", meta.TableName)
	assert.Equal(t, []string{"id", "created_by", "updated_by", "price"}, meta.Columns())

	var item OrderItem
	f, ok := meta.Field("created_by")
	require.True(t, ok)
	*(f.Addr(unsafe.Pointer(&item)).(*string)) = "alice"
	assert.Equal(t, "alice", item.CreatedBy)
	assert.Equal(t, []int{1, 0}, f.Index)

	p, ok := meta.Field("PRICE")
	require.True(t, ok)
	assert.True(t, p.Tag.Primary)
	*(p.Addr(unsafe.Pointer(&item)).(*float64)) = 9.5
	assert.Equal(t, 9.5, item.Price)
}

func TestIntrospect_TableNames(t *testing.T) {
	meta, err := IntrospectOf[Person]()
	require.NoError(t, err)
	assert.Equal(t, "people", meta.TableName)
	assert.False(t, meta.HasCustomTableName)

	meta, err = IntrospectOf[Custom]()
	require.NoError(t, err)
	assert.Equal(t, "legacy_custom", meta.TableName)
	assert.True(t, meta.HasCustomTableName)
}

func TestIntrospect_Errors(t *testing.T) {
	_, err := Introspect(reflect.TypeOf(42))
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = IntrospectOf[Clash]()
	assert.ErrorIs(t, err, ErrDuplicateColumn)
	assert.Contains(t, err.Error(), "USER_ID")
}

func TestIntrospect_Concurrent(t *testing.T) {
	type Row struct {
		A, B, C string
	}
	var wg sync.WaitGroup
	metas := make([]*EntityMeta, 16)
	for i := range metas {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := IntrospectOf[Row]()
			if err == nil {
				metas[i] = m
			}
		}()
	}
	wg.Wait()
	for _, m := range metas {
		require.NotNil(t, m)
		assert.Same(t, metas[0], m)
	}
}
