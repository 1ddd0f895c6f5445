package lrudict

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/dchest/siphash"
)

// Hasher computes the hash LRUDict caches on each node (see node.go,
// index.go). Hashing a key is a suspension point (spec §5(a)): a Hasher
// is foreign code as far as LRUDict is concerned. For a single-key
// operation it runs with the busy latch already held (see
// LRUDict.enterHash in dict.go) — the one reentrancy path this Go port
// can actually detect — so a Hasher that re-enters the same LRUDict is
// refused with BusyError rather than silently observing half-updated
// structures, and a Hasher that panics fails the operation cleanly.
type Hasher[K comparable] interface {
	Hash(key K) uint64
}

// HasherFunc adapts a plain function to the Hasher interface.
type HasherFunc[K comparable] func(key K) uint64

// Hash implements Hasher.
func (f HasherFunc[K]) Hash(key K) uint64 { return f(key) }

// process-lifetime SipHash keys. Randomizing them mirrors CPython's hash
// randomization for str/bytes keys, so two runs of the same program never
// produce the same hash stream — a defense against hash-flooding, and the
// actual historical reason lru_dict's C source caches key_hash instead of
// recomputing it (computing a keyed PRF per lookup would otherwise be
// wasted twice over).
var sipK0, sipK1 = newSipKeys()

func newSipKeys() (uint64, uint64) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is a platform-level emergency; fall back to
		// fixed keys rather than leaving the hasher uninitialized.
		return 0x9ae16a3b2f90404f, 0xc949d7c7509e6557
	}
	return binary.LittleEndian.Uint64(buf[0:8]), binary.LittleEndian.Uint64(buf[8:16])
}

// defaultHasher hashes the %#v representation of a key with SipHash-2-4.
// It works for any comparable K, at the cost of a string formatting pass
// per call — callers with a hot key type (string, int, ...) should supply
// a cheaper Hasher via WithHasher; StringHasher and IntHasher below cover
// the common cases.
type defaultHasher[K comparable] struct{}

func (defaultHasher[K]) Hash(key K) uint64 {
	return siphash.Hash(sipK0, sipK1, []byte(fmt.Sprintf("%#v", key)))
}

// StringHasher returns a Hasher[string] that SipHashes the key bytes
// directly, skipping the default Hasher's fmt.Sprintf formatting pass.
func StringHasher() Hasher[string] {
	return HasherFunc[string](func(key string) uint64 {
		return siphash.Hash(sipK0, sipK1, []byte(key))
	})
}

// IntHasher returns a Hasher[int] that SipHashes the key's native byte
// representation directly.
func IntHasher() Hasher[int] {
	return HasherFunc[int](func(key int) uint64 {
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(key))
		return siphash.Hash(sipK0, sipK1, buf[:])
	})
}
