// Package utils holds small hashing helpers shared by the caches.
package utils

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// FingerprintString hashes s.
func FingerprintString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// FingerprintColumns hashes an ordered column-name set. Names are length
// prefixed, so ["ab","c"] and ["a","bc"] differ, and compared byte for byte:
// two sets that differ only in case get different fingerprints because the
// canonical text they resolve to differs.
func FingerprintColumns(columns []string) uint64 {
	var lenBuf [8]byte
	d := xxhash.New()
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(columns)))
	_, _ = d.Write(lenBuf[:])
	for _, c := range columns {
		binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(c)))
		_, _ = d.Write(lenBuf[:])
		_, _ = d.WriteString(c)
	}
	return d.Sum64()
}

// Mix64 combines two fingerprints.
func Mix64(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	return xxhash.Sum64(buf[:])
}
