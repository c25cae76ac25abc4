// Package hash wraps xxHash64 for the fast-path fingerprints the merge
// engine uses ahead of an exact byte comparison when suppressing duplicate
// records.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// RecordFingerprint computes the xxHash64 of a record header plus payload,
// used to cheaply rule out most non-duplicate record pairs before falling
// back to an exact byte comparison.
func RecordFingerprint(header, payload []byte) uint64 {
	d := xxhash.New()
	d.Write(header)
	d.Write(payload)
	return d.Sum64()
}
