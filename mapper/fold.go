package mapper

import (
	"unicode"
	"unicode/utf8"
	"unsafe"

	"github.com/Konsultn-Engineering/colmap/strbuf"
)

// Strategy is the folding rule bound to a mask table.
type Strategy uint8

const (
	// StrategyASCII folds a-z and compares every other byte literally. It is
	// bound when every key is 7-bit ASCII.
	StrategyASCII Strategy = iota

	// StrategyFull folds decoded runes by simple uppercase mapping.
	StrategyFull
)

func (s Strategy) String() string {
	if s == StrategyASCII {
		return "ascii"
	}
	return "full"
}

// A unit is one comparison element: a folded rune, or a byte that is not
// part of a valid UTF-8 sequence. Raw bytes map to -1..-256 so they never
// equal a decoded rune, U+FFFD included.
type unit = rune

// noUnit stands in for the first/last unit of the empty string.
const noUnit unit = -1 << 30

func rawUnit(b byte) unit { return -1 - unit(b) }

func upperASCII(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// foldRune maps r to its simple uppercase form. A rune outside ASCII never
// folds into ASCII (dotless i and long s keep their identity), so the ASCII
// and full strategies agree on every input.
func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		return rune(upperASCII(byte(r)))
	}
	u := unicode.ToUpper(r)
	if u < utf8.RuneSelf {
		return r
	}
	return u
}

// nextUnit decodes and folds the unit starting at s[i].
func nextUnit(s string, i int) (unit, int) {
	b := s[i]
	if b < utf8.RuneSelf {
		return unit(upperASCII(b)), 1
	}
	r, w := utf8.DecodeRuneInString(s[i:])
	if r == utf8.RuneError && w == 1 {
		return rawUnit(b), 1
	}
	return foldRune(r), w
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sameString reports whether a and b share their backing data.
func sameString(a, b string) bool {
	return len(a) == len(b) && unsafe.StringData(a) == unsafe.StringData(b)
}

func equalASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	if sameString(a, b) {
		return true
	}
	for i := 0; i < len(a); i++ {
		x, y := a[i], b[i]
		if x != y && upperASCII(x) != upperASCII(y) {
			return false
		}
	}
	return true
}

func equalFull(a, b string) bool {
	if sameString(a, b) {
		return true
	}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if x, y := a[i], b[j]; x < utf8.RuneSelf && y < utf8.RuneSelf {
			if x != y && upperASCII(x) != upperASCII(y) {
				return false
			}
			i++
			j++
			continue
		}
		u, wa := nextUnit(a, i)
		v, wb := nextUnit(b, j)
		if u != v {
			return false
		}
		i += wa
		j += wb
	}
	return i == len(a) && j == len(b)
}

// EqualFold reports whether a and b are equal under the ordinal
// case-insensitive fold used by Mapper.
func EqualFold(a, b string) bool {
	return equalFull(a, b)
}

// AppendFold appends the folded form of s to dst. Two strings are equal
// under EqualFold exactly when their folded forms are byte-identical.
func AppendFold(dst []byte, s string) []byte {
	for i := 0; i < len(s); {
		u, w := nextUnit(s, i)
		switch {
		case u < 0:
			dst = append(dst, s[i])
		case u < utf8.RuneSelf:
			dst = append(dst, byte(u))
		default:
			dst = utf8.AppendRune(dst, u)
		}
		i += w
	}
	return dst
}

// foldInto writes the folded form of s into b.
func foldInto(b *strbuf.Builder, s string) {
	for i := 0; i < len(s); {
		if c := s[i]; c < utf8.RuneSelf {
			b.AppendByte(upperASCII(c))
			i++
			continue
		}
		u, w := nextUnit(s, i)
		if u < 0 {
			b.AppendByte(s[i])
		} else {
			b.AppendRune(u)
		}
		i += w
	}
}

// signature is the (unit count, first unit, last two units) tuple a mask
// table slots keys by.
type signature struct {
	units int
	first unit
	prev  unit
	last  unit
}

func signatureASCII(s string) signature {
	sig := signature{units: len(s), first: noUnit, prev: noUnit, last: noUnit}
	switch n := len(s); {
	case n >= 2:
		sig.prev = unit(upperASCII(s[n-2]))
		fallthrough
	case n == 1:
		sig.first = unit(upperASCII(s[0]))
		sig.last = unit(upperASCII(s[n-1]))
	}
	return sig
}

func signatureFull(s string) signature {
	sig := signature{first: noUnit, prev: noUnit, last: noUnit}
	for i := 0; i < len(s); {
		u, w := nextUnit(s, i)
		if sig.units == 0 {
			sig.first = u
		} else {
			sig.prev = sig.last
		}
		sig.last = u
		sig.units++
		i += w
	}
	return sig
}

func (s signature) hash() uint32 {
	h := uint32(s.units)*0x9E3779B1 ^ uint32(s.first)*0x85EBCA77
	h ^= uint32(s.prev)*0x27D4EB2F ^ uint32(s.last)*0xC2B2AE3D
	h ^= h >> 16
	h *= 0x7FEB352D
	h ^= h >> 15
	return h
}
