package mapper

import (
	"fmt"
	"slices"
	"strings"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func panicErr(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				e = fmt.Errorf("non-error panic: %v", r)
			}
			err = e
		}
	}()
	fn()
	return nil
}

// forced builds the same keys under every representation that can hold them.
func forced(t *testing.T, keys []string) map[string]*Mapper {
	t.Helper()
	out := map[string]*Mapper{
		"Auto":         New(keys),
		"MaskTable":    New(keys, WithRepresentation(KindMaskTable)),
		"HashFallback": New(keys, WithRepresentation(KindHashFallback)),
	}
	t.Cleanup(func() {
		for _, m := range out {
			m.Dispose()
		}
	})
	return out
}

func TestNew_FirstApparition(t *testing.T) {
	m := New([]string{"Key1", "Key2", "KEY1", "Key3", "key2", "KEY3"})
	defer m.Dispose()

	assert.Equal(t, []string{"Key1", "Key2", "Key3"}, m.Keys())
	assert.Equal(t, 3, m.Count())
	assert.Equal(t, KindMaskTable, m.Kind())

	tests := []struct {
		in   string
		want int
	}{
		{"Key1", 0}, {"KEY1", 0}, {"key1", 0},
		{"kEy2", 1}, {"KEY3", 2}, {"Key4", -1},
		{"Key", -1}, {"", -1}, {"Key1 ", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.Index(tt.in), tt.in)
		assert.Equal(t, tt.want, m.IndexOf(tt.in), tt.in)
		assert.Equal(t, tt.want, m.IndexBytes([]byte(tt.in)), tt.in)
		assert.Equal(t, tt.want >= 0, m.Contains(tt.in), tt.in)
		assert.Equal(t, tt.want >= 0, m.ContainsBytes([]byte(tt.in)), tt.in)

		i, ok := m.TryGet(tt.in)
		assert.Equal(t, tt.want, i)
		assert.Equal(t, tt.want >= 0, ok)

		i, ok = m.TryGetBytes([]byte(tt.in))
		assert.Equal(t, tt.want, i)
		assert.Equal(t, tt.want >= 0, ok)
	}
}

func TestNew_FirstApparitionPastLinearDedupe(t *testing.T) {
	var keys, want []string
	for i := 0; i < 20; i++ {
		k := fmt.Sprintf("Column_%d", i)
		want = append(want, k)
		keys = append(keys, k, strings.ToUpper(k))
	}
	keys = append(keys, "column_3", "COLUMN_19")

	for name, m := range forced(t, keys) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, m.Keys())
			for i, k := range want {
				assert.Equal(t, i, m.Index(strings.ToLower(k)))
			}
		})
	}
}

func TestNew_Shapes(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		kind Kind
	}{
		{"Empty", nil, KindEmpty},
		{"EmptySlice", []string{}, KindEmpty},
		{"Single", []string{"id"}, KindSingle},
		{"SingleAfterDedupe", []string{"id", "ID", "Id"}, KindSingle},
		{"Pair", []string{"id", "name"}, KindPair},
		{"PairAfterDedupe", []string{"id", "name", "NAME"}, KindPair},
		{"Mask", []string{"id", "name", "email"}, KindMaskTable},
		{"EmptyKey", []string{""}, KindSingle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.keys)
			defer m.Dispose()
			assert.Equal(t, tt.kind, m.Kind())
		})
	}
}

func TestMapper_Empty(t *testing.T) {
	m := New(nil)
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.Keys())
	assert.Equal(t, -1, m.Index(""))
	assert.False(t, m.Disposed())
	assert.ErrorIs(t, panicErr(func() { m.Key(0) }), ErrOutOfRange)

	var zero Mapper
	assert.Equal(t, KindEmpty, zero.Kind())
	assert.Equal(t, 0, zero.Count())
	assert.Equal(t, -1, zero.Index("x"))
}

func TestMapper_EmptyKey(t *testing.T) {
	m := New([]string{"", "a", "b"})
	defer m.Dispose()

	assert.Equal(t, 0, m.Index(""))
	assert.Equal(t, 1, m.Index("A"))
	assert.Equal(t, "", m.Key(0))
}

func TestNew_SliceIsolation(t *testing.T) {
	buf := []string{"POISON", "Key1", "Key2", "Key3", "key1", "POISON"}
	m := New(buf[1:5])
	defer m.Dispose()

	buf[1] = "Mutated"
	buf[2] = "POISON"
	buf[5] = "Key4"

	assert.Equal(t, []string{"Key1", "Key2", "Key3"}, m.Keys())
	assert.Equal(t, -1, m.Index("POISON"))
	assert.Equal(t, -1, m.Index("Mutated"))
	assert.Equal(t, -1, m.Index("Key4"))
	assert.Equal(t, 1, m.Index("key2"))

	keys := m.Keys()
	keys[0] = "changed"
	assert.Equal(t, "Key1", m.Key(0))
}

func TestMapper_RepresentationTransparency(t *testing.T) {
	sets := map[string][]string{
		"ASCII":    {"Id", "Name", "EMAIL", "name", "created_at", "CreatedAt", "id"},
		"Unicode":  {"Größe", "GRÖSSE", "größe", "Ärger", "ärger", "straße", "Ωmega"},
		"Mixed":    {"a", "é", "É", "\xff", "Z", "ｚ", "Ｚ"},
		"Prefixed": {"prefix_a", "prefix_b", "PREFIX_A", "prefix_c", "prefix_"},
	}
	queries := []string{
		"", "id", "ID", "NAME", "email", "CREATED_AT", "createdat", "missing",
		"GRÖSSE", "größe", "ÄRGER", "STRASSE", "STRAßE", "ωMEGA", "ΩMEGA",
		"A", "É", "é", "\xff", "\xfe", "z", "ｚ", "Ｚ", "PREFIX_C", "prefix_",
	}

	for name, keys := range sets {
		t.Run(name, func(t *testing.T) {
			ms := forced(t, keys)
			want := ms["Auto"]
			for kind, m := range ms {
				assert.Equal(t, want.Count(), m.Count(), kind)
				assert.Equal(t, want.Keys(), m.Keys(), kind)
				for _, q := range queries {
					assert.Equal(t, want.Index(q), m.Index(q), "%s %q", kind, q)
				}
				for i, k := range want.Keys() {
					assert.Equal(t, i, m.Index(k), "%s %q", kind, k)
				}
			}
		})
	}
}

func TestMapper_OrdinalStrictness(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		query string
		equal bool
	}{
		{"AsciiLetter", "i", "I", true},
		{"AsciiWord", "ColumnName", "COLUMNNAME", true},
		{"DottedCapitalI", "İ", "i", false},
		{"DottedCapitalIUpper", "İ", "I", false},
		{"DotlessI", "ı", "I", false},
		{"DotlessIItself", "ı", "ı", true},
		{"LongS", "ſ", "S", false},
		{"KelvinSign", "\u212a", "k", false},
		{"FullWidth", "ａｂｃ", "ＡＢＣ", true},
		{"FullWidthVsHalfWidth", "ＡＢＣ", "ABC", false},
		{"Latin1", "é", "É", true},
		{"Greek", "ωμέγα", "ΩΜΈΓΑ", true},
		{"Cyrillic", "привет", "ПРИВЕТ", true},
		{"WidthChangingPair", "ɐx", "Ɐx", true},
		{"ZeroByte", "a\x00b", "ab", false},
		{"ZeroByteSame", "a\x00b", "A\x00B", true},
		{"Control", "a\x01b", "ab", false},
		{"ZeroWidthSpace", "a\u200bb", "ab", false},
		{"ByteOrderMark", "\ufeffab", "ab", false},
		{"NoBreakSpace", "a\u00a0b", "a b", false},
		{"EmSpace", "a\u2003b", "a b", false},
		{"Tab", "a\tb", "a b", false},
		{"TrailingSpace", "ab ", "ab", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, EqualFold(tt.key, tt.query))
			assert.Equal(t, tt.equal, EqualFold(tt.query, tt.key))

			fa := AppendFold(nil, tt.key)
			fb := AppendFold(nil, tt.query)
			assert.Equal(t, tt.equal, string(fa) == string(fb))

			keys := []string{tt.key, "filler_one", "filler_two"}
			want := -1
			if tt.equal {
				want = 0
			}
			for kind, m := range forced(t, keys) {
				assert.Equal(t, want, m.Index(tt.query), kind)
			}

			single := New([]string{tt.key})
			defer single.Dispose()
			assert.Equal(t, want, single.Index(tt.query))
		})
	}
}

func TestMapper_WhitespaceVariantsAreDistinct(t *testing.T) {
	keys := []string{
		"a b", "a\u00a0b", "a\tb", "a\u2003b", "a\u3000b",
		"a\x00b", "a\u200bb", "\ufeffab", "ab", "a\r\nb",
	}
	for kind, m := range forced(t, keys) {
		require.Equal(t, len(keys), m.Count(), kind)
		for i, k := range keys {
			assert.Equal(t, i, m.Index(k), "%s %q", kind, k)
		}
	}
}

func TestMapper_InvalidUTF8(t *testing.T) {
	keys := []string{"\xff", "\xfe", "\ufffd", "é", "\xc3"}
	for kind, m := range forced(t, keys) {
		require.Equal(t, 5, m.Count(), kind)

		assert.Equal(t, 0, m.Index("\xff"), kind)
		assert.Equal(t, 1, m.Index("\xfe"), kind)
		assert.Equal(t, 2, m.Index("\ufffd"), kind)
		assert.Equal(t, 3, m.Index("É"), kind)
		assert.Equal(t, 4, m.Index("\xc3"), kind)

		// A truncated sequence never matches the whole character.
		assert.Equal(t, -1, m.Index("\xa9"), kind)
		assert.Equal(t, -1, m.Index("\xc3\xc3"), kind)
		assert.Equal(t, -1, m.Index("é\xff"), kind)
	}
}

func TestMapper_SplitMultiByteViews(t *testing.T) {
	src := []byte("日本語")
	m := New([]string{"日本語", "日", "本"})
	defer m.Dispose()

	for i := 0; i <= len(src); i++ {
		for j := i; j <= len(src); j++ {
			view := src[i:j]
			got := m.IndexBytes(view)
			switch string(view) {
			case "日本語":
				assert.Equal(t, 0, got)
			case "日":
				assert.Equal(t, 1, got)
			case "本":
				assert.Equal(t, 2, got)
			default:
				assert.Equal(t, -1, got, "%q", view)
			}
		}
	}
}

func TestMapper_SameKey(t *testing.T) {
	key := strings.Clone("Key1")
	m := New([]string{key, "Key2", "KEY1"})
	defer m.Dispose()

	got, ok := m.SameKey(strings.Clone("key1"))
	require.True(t, ok)
	assert.Equal(t, "Key1", got)
	assert.Same(t, unsafe.StringData(key), unsafe.StringData(got))

	got, ok = m.SameKeyBytes([]byte("KEY1"))
	require.True(t, ok)
	assert.Same(t, unsafe.StringData(key), unsafe.StringData(got))

	got, ok = m.SameKey("missing")
	assert.False(t, ok)
	assert.Equal(t, "", got)

	// The stored instance short-circuits against itself.
	assert.Equal(t, 0, m.Index(key))
}

func TestMapper_Key(t *testing.T) {
	m := New([]string{"a", "b", "c"})
	defer m.Dispose()

	assert.Equal(t, "b", m.Key(1))
	for _, i := range []int{-1, 3, 100} {
		assert.ErrorIs(t, panicErr(func() { m.Key(i) }), ErrOutOfRange, "index %d", i)
	}
}

func TestMapper_Iteration(t *testing.T) {
	m := New([]string{"x", "y", "X", "z"})
	defer m.Dispose()

	for range 2 {
		assert.Equal(t, []int{0, 1, 2}, slices.Collect(m.Values()))
	}

	var keys []string
	var idx []int
	for k, i := range m.All() {
		keys = append(keys, k)
		idx = append(idx, i)
	}
	assert.Equal(t, []string{"x", "y", "z"}, keys)
	assert.Equal(t, []int{0, 1, 2}, idx)

	n := 0
	for range m.All() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

type stringList []string

func (l stringList) Len() int         { return len(l) }
func (l stringList) At(i int) string { return l[i] }

func TestConstructors(t *testing.T) {
	want := []string{"Key1", "Key2", "Key3"}
	input := []string{"Key1", "Key2", "KEY1", "Key3", "key2"}

	seq := FromSeq(slices.Values(input))
	defer seq.Dispose()
	assert.Equal(t, want, seq.Keys())

	list := FromList(stringList(input))
	defer list.Dispose()
	assert.Equal(t, want, list.Keys())

	ptrs := make([]*string, len(input))
	for i := range input {
		ptrs[i] = &input[i]
	}
	nullable, err := FromNullable(ptrs)
	require.NoError(t, err)
	defer nullable.Dispose()
	assert.Equal(t, want, nullable.Keys())
}

func TestConstructors_NilKey(t *testing.T) {
	a, b := "a", "b"
	m, err := FromNullable([]*string{&a, nil, &b})
	assert.Nil(t, m)
	assert.ErrorIs(t, err, ErrNilKey)
	assert.Contains(t, err.Error(), "position 1")
}

func TestMapper_Dispose(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		opts []Option
	}{
		{"Empty", nil, nil},
		{"Single", []string{"a"}, nil},
		{"Pair", []string{"a", "b"}, nil},
		{"MaskTable", []string{"a", "b", "c"}, nil},
		{"HashFallback", []string{"a", "b", "c"}, []Option{WithRepresentation(KindHashFallback)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.keys, tt.opts...)
			m.Dispose()
			m.Dispose()

			assert.True(t, m.Disposed())
			assert.Equal(t, KindReleased, m.Kind())
			assert.Equal(t, 1, m.Count())
			assert.Equal(t, []string{""}, m.Keys())
			assert.Equal(t, "", m.Key(0))
			assert.ErrorIs(t, panicErr(func() { m.Key(1) }), ErrOutOfRange)
			assert.Equal(t, -1, m.Index("a"))
			assert.Equal(t, -1, m.Index(""))
			assert.False(t, m.Contains("a"))
			assert.Equal(t, []int{0}, slices.Collect(m.Values()))

			_, ok := m.SameKey("a")
			assert.False(t, ok)
		})
	}
}

func TestMapper_TombstoneVersusSingleEmptyKey(t *testing.T) {
	live := New([]string{""})
	defer live.Dispose()

	dead := New([]string{"x"})
	dead.Dispose()

	assert.Equal(t, live.Count(), dead.Count())
	assert.Equal(t, live.Keys(), dead.Keys())
	assert.False(t, live.Disposed())
	assert.True(t, dead.Disposed())
	assert.Equal(t, 0, live.Index(""))
	assert.Equal(t, -1, dead.Index(""))
}

func TestMapper_ConcurrentDispose(t *testing.T) {
	for round := 0; round < 50; round++ {
		m := New([]string{"a", "b", "c", "d"})

		var g errgroup.Group
		for i := 0; i < 16; i++ {
			g.Go(func() error {
				m.Dispose()
				if !m.Disposed() || m.Count() != 1 {
					return fmt.Errorf("round %d: not disposed", round)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		assert.Equal(t, []string{""}, m.Keys())
	}
}

func TestNew_Concurrent(t *testing.T) {
	var g errgroup.Group
	for w := 0; w < 32; w++ {
		g.Go(func() error {
			for i := 0; i < 50; i++ {
				keys := make([]string, 0, 40)
				for k := 0; k < 20; k++ {
					name := fmt.Sprintf("w%d_col%d", w, k)
					keys = append(keys, name, strings.ToUpper(name))
				}
				m := New(keys)
				if m.Count() != 20 {
					return fmt.Errorf("worker %d: count %d", w, m.Count())
				}
				for k := 0; k < 20; k++ {
					q := fmt.Sprintf("W%d_COL%d", w, k)
					if got := m.Index(q); got != k {
						return fmt.Errorf("worker %d: %s resolved to %d", w, q, got)
					}
				}
				m.Dispose()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestMapper_ConcurrentLookups(t *testing.T) {
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = fmt.Sprintf("field%03d", i)
	}
	m := New(keys)
	defer m.Dispose()

	var g errgroup.Group
	for w := 0; w < 16; w++ {
		g.Go(func() error {
			for i := range keys {
				if got := m.Index(strings.ToUpper(keys[i])); got != i {
					return fmt.Errorf("%s resolved to %d", keys[i], got)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestNew_FallbackHeuristics(t *testing.T) {
	t.Run("ManyKeys", func(t *testing.T) {
		keys := make([]string, DefaultMaskTableLimit+1)
		for i := range keys {
			keys[i] = fmt.Sprintf("k%d", i)
		}
		m := New(keys)
		defer m.Dispose()
		assert.Equal(t, KindHashFallback, m.Kind())
		assert.Equal(t, len(keys), m.Count())
		assert.Equal(t, 200, m.Index("K200"))

		limited := New(keys[:DefaultMaskTableLimit])
		defer limited.Dispose()
		assert.Equal(t, KindMaskTable, limited.Kind())
	})

	t.Run("SharedPrefixAndSuffix", func(t *testing.T) {
		prefix, suffix := strings.Repeat("p", 64), strings.Repeat("s", 64)
		keys := make([]string, 20)
		for i := range keys {
			keys[i] = prefix + string(rune('a'+i)) + suffix
		}
		m := New(keys)
		defer m.Dispose()
		assert.Equal(t, KindHashFallback, m.Kind())
		for i, k := range keys {
			assert.Equal(t, i, m.Index(strings.ToUpper(k)))
		}

		// Forcing the table keeps results correct, just slower.
		mt := New(keys, WithRepresentation(KindMaskTable))
		defer mt.Dispose()
		assert.Equal(t, KindMaskTable, mt.Kind())
		assert.Equal(t, len(keys), mt.Stats().MaxSlotLoad)
		for i, k := range keys {
			assert.Equal(t, i, mt.Index(strings.ToUpper(k)))
		}
	})

	t.Run("Tunable", func(t *testing.T) {
		keys := []string{"a", "b", "c", "d"}
		m := New(keys, WithMaskTableLimit(3))
		defer m.Dispose()
		assert.Equal(t, KindHashFallback, m.Kind())
	})
}

func TestMapper_Stats(t *testing.T) {
	keys := make([]string, 40)
	for i := range keys {
		keys[i] = fmt.Sprintf("c%d", i)
	}
	m := New(keys)
	defer m.Dispose()

	s := m.Stats()
	require.Equal(t, KindMaskTable, s.Kind)
	assert.Equal(t, StrategyASCII, s.Strategy)
	assert.Equal(t, 40, s.Count)
	assert.GreaterOrEqual(t, s.Slots, 80)
	assert.Zero(t, s.Slots&(s.Slots-1))
	assert.LessOrEqual(t, s.OccupiedSlots, s.Slots)
	assert.Positive(t, s.OccupiedSlots)
	assert.LessOrEqual(t, s.MaxSlotLoad, DefaultMaxSlotLoad)

	u := New([]string{"a", "b", "ü"})
	defer u.Dispose()
	assert.Equal(t, StrategyFull, u.Stats().Strategy)
}

func TestMaskTable_WideOrdinals(t *testing.T) {
	// More than 64 keys spread candidate bits over several words per slot.
	keys := make([]string, 150)
	for i := range keys {
		keys[i] = fmt.Sprintf("x%dx", i)
	}
	m := New(keys, WithRepresentation(KindMaskTable))
	defer m.Dispose()

	for i, k := range keys {
		assert.Equal(t, i, m.Index(strings.ToUpper(k)))
	}
	assert.Equal(t, -1, m.Index("x150x"))
}

func BenchmarkMapper_Index(b *testing.B) {
	keys := []string{"id", "name", "email", "created_at", "updated_at", "deleted_at", "version"}
	for _, kind := range []Kind{KindMaskTable, KindHashFallback} {
		m := New(keys, WithRepresentation(kind))
		b.Run(kind.String(), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = m.Index("CREATED_AT")
			}
		})
		m.Dispose()
	}
}

func BenchmarkNew(b *testing.B) {
	keys := []string{"id", "name", "email", "created_at", "updated_at", "deleted_at", "version"}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		New(keys).Dispose()
	}
}
