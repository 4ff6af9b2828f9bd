// Package hash provides the xxHash64-based identifiers used for schema field
// lookup and parameter fingerprints.
package hash

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Floats computes a fingerprint over the bit patterns of one or more float
// vectors. Vector boundaries are part of the hash, so {1,2},{3} and {1},{2,3}
// produce different fingerprints.
func Floats(vectors ...[]float64) uint64 {
	d := xxhash.New()
	var buf [8]byte
	for _, vec := range vectors {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(vec)))
		_, _ = d.Write(buf[:])
		for _, v := range vec {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			_, _ = d.Write(buf[:])
		}
	}

	return d.Sum64()
}
