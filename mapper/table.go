package mapper

import (
	"math/bits"

	"github.com/bits-and-blooms/bitset"

	"github.com/Konsultn-Engineering/colmap/buffer"
	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// Kind identifies the representation chosen at construction.
type Kind uint8

const (
	KindEmpty Kind = iota
	KindSingle
	KindPair
	KindMaskTable
	KindHashFallback
	KindReleased

	kindAuto Kind = 0xFF
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindSingle:
		return "single"
	case KindPair:
		return "pair"
	case KindMaskTable:
		return "mask-table"
	case KindHashFallback:
		return "hash-fallback"
	case KindReleased:
		return "released"
	default:
		return "unknown"
	}
}

// table is the representation behind a Mapper. Exactly one group of fields
// is meaningful, selected by kind.
type table struct {
	kind     Kind
	strategy Strategy
	keys     *buffer.Locked[string]

	// KindMaskTable
	slots    *buffer.Locked[uint64]
	words    int // bitmask words per slot
	mask     uint32
	occupied int
	maxLoad  int

	// KindHashFallback
	index map[string]int32
}

var (
	emptyTable    = &table{kind: KindEmpty}
	releasedTable = &table{kind: KindReleased}
)

func (t *table) count() int {
	switch t.kind {
	case KindEmpty:
		return 0
	case KindReleased:
		return 1
	default:
		return t.keys.Len()
	}
}

func (t *table) key(i int) string {
	if t.kind == KindReleased {
		if i != 0 {
			outOfRange(i, 1)
		}
		return ""
	}
	if i < 0 || i >= t.count() {
		outOfRange(i, t.count())
	}
	return t.keys.At(i)
}

func (t *table) equal(a, b string) bool {
	if t.strategy == StrategyASCII {
		return equalASCII(a, b)
	}
	return equalFull(a, b)
}

func (t *table) lookup(s string) int {
	switch t.kind {
	case KindSingle:
		if t.equal(t.keys.At(0), s) {
			return 0
		}
	case KindPair:
		if t.equal(t.keys.At(0), s) {
			return 0
		}
		if t.equal(t.keys.At(1), s) {
			return 1
		}
	case KindMaskTable:
		return t.lookupMask(s)
	case KindHashFallback:
		return t.lookupHash(s)
	}
	return -1
}

func (t *table) signature(s string) signature {
	if t.strategy == StrategyASCII {
		return signatureASCII(s)
	}
	return signatureFull(s)
}

func (t *table) lookupMask(s string) int {
	slot := int(t.signature(s).hash() & t.mask)
	words := t.slots.ViewN(slot*t.words, t.words)
	for wi, w := range words {
		for w != 0 {
			i := wi<<6 | bits.TrailingZeros64(w)
			if t.equal(t.keys.At(i), s) {
				return i
			}
			w &= w - 1
		}
	}
	return -1
}

func (t *table) lookupHash(s string) int {
	var scratch [128]byte
	b := strbuf.New(scratch[:])
	foldInto(&b, s)
	i, ok := t.index[string(b.View(false))]
	b.Dispose()
	if !ok {
		return -1
	}
	return int(i)
}

func (t *table) release() {
	if t.keys != nil {
		t.keys.Dispose()
	}
	if t.slots != nil {
		t.slots.Dispose()
	}
	t.index = nil
}

// maskLayout is one candidate slot layout for a mask table.
type maskLayout struct {
	nslots   int
	occupied int
	maxLoad  int
}

// planMask picks the slot count for sigs. It starts at the next power of
// two above twice the key count and doubles, up to eight times the key
// count, until no slot holds more than two keys. The layout with the
// lowest maximum load wins.
func planMask(sigs []signature) maskLayout {
	n := len(sigs)
	start := nextPow2(2 * n)
	if start < 8 {
		start = 8
	}
	limit := nextPow2(8 * n)
	if limit < start {
		limit = start
	}

	loads := buffer.New[uint16](limit)
	defer loads.Dispose()

	var best maskLayout
	for nslots := start; nslots <= limit; nslots <<= 1 {
		layout := measure(sigs, nslots, loads)
		if best.nslots == 0 || layout.maxLoad < best.maxLoad {
			best = layout
		}
		if best.maxLoad <= 2 {
			break
		}
	}
	return best
}

func measure(sigs []signature, nslots int, loads *buffer.Array[uint16]) maskLayout {
	mask := uint32(nslots - 1)
	used := bitset.New(uint(nslots))
	for i := 0; i < nslots; i++ {
		loads.Set(i, 0)
	}

	layout := maskLayout{nslots: nslots}
	for _, sig := range sigs {
		slot := int(sig.hash() & mask)
		used.Set(uint(slot))
		l := loads.At(slot)
		*l++
		if int(*l) > layout.maxLoad {
			layout.maxLoad = int(*l)
		}
	}
	layout.occupied = int(used.Count())
	return layout
}

// buildMask lays keys out in a mask table. keys is consumed.
func buildMask(keys *buffer.Array[string], strategy Strategy, sigs []signature, layout maskLayout) *table {
	n := keys.Len()
	words := (n + 63) >> 6
	total := layout.nslots * words
	mask := uint32(layout.nslots - 1)

	slots := buffer.New[uint64](total)
	for i := 0; i < total; i++ {
		slots.Add(0)
	}
	for i, sig := range sigs {
		slot := int(sig.hash() & mask)
		*slots.At(slot*words + i>>6) |= 1 << (uint(i) & 63)
	}

	return &table{
		kind:     KindMaskTable,
		strategy: strategy,
		keys:     keys.Lock(),
		slots:    slots.Lock(),
		words:    words,
		mask:     mask,
		occupied: layout.occupied,
		maxLoad:  layout.maxLoad,
	}
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
