package strbuf

import "math/bits"

// AppendInt appends the decimal form of v. The most negative int64 is
// rendered from its unsigned magnitude since -v overflows.
func (b *Builder) AppendInt(v int64) {
	if v >= 0 {
		b.AppendUint(uint64(v))
		return
	}
	// Two's complement magnitude; correct for math.MinInt64 as well.
	u := ^uint64(v) + 1
	dst := b.AppendSpan(CountDigits(u) + 1)
	dst[0] = '-'
	formatUint(dst[1:], u)
}

// AppendUint appends the decimal form of v.
func (b *Builder) AppendUint(v uint64) {
	formatUint(b.AppendSpan(CountDigits(v)), v)
}

// formatUint writes v right-aligned into dst, which must be exactly
// CountDigits(v) long.
func formatUint(dst []byte, v uint64) {
	i := len(dst)
	for v >= 10 {
		q := v / 10
		i--
		dst[i] = byte('0' + v - q*10)
		v = q
	}
	dst[i-1] = byte('0' + v)
}

// powers10[i] is 10^i.
var powers10 = [...]uint64{
	1, 10, 100, 1000, 10000, 100000, 1000000, 10000000, 100000000,
	1000000000, 10000000000, 100000000000, 1000000000000,
	10000000000000, 100000000000000, 1000000000000000,
	10000000000000000, 100000000000000000, 1000000000000000000,
	10000000000000000000,
}

// CountDigits returns the number of decimal digits in v; 1 for zero.
func CountDigits(v uint64) int {
	if v < 10 {
		return 1
	}
	// log10(2) ~= 1233/4096
	t := (bits.Len64(v) * 1233) >> 12
	if v < powers10[t] {
		return t
	}
	return t + 1
}
