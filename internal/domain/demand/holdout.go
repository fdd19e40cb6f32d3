package demand

import "encoding/binary"

// ---------------------------------------------------------------------------
// Deterministic holdout split
// ---------------------------------------------------------------------------
//
// The train/holdout partition is derived from a hash of the listing's
// marketplace code, not from a random draw, so repeated training runs produce
// the same partition and model-quality comparisons across retrains stay
// meaningful. Roughly one fifth of listings land in holdout.

// HoldoutBuckets is the modulus of the holdout hash; one residue is held out.
const HoldoutBuckets = 5

// DefaultHoldoutResidue is the residue held out unless configured otherwise.
const DefaultHoldoutResidue = 0

// HoldoutBucket maps a marketplace code to its stable bucket in [0,
// HoldoutBuckets). The same code always lands in the same bucket, across
// calls and across process restarts.
func HoldoutBucket(marketplaceCode string) int {
	return int(murmur3Hash32([]byte(marketplaceCode), 0) % HoldoutBuckets)
}

// IsHoldout reports whether a listing belongs to the holdout partition for
// the given residue.
func IsHoldout(marketplaceCode string, residue int) bool {
	return HoldoutBucket(marketplaceCode) == ((residue%HoldoutBuckets)+HoldoutBuckets)%HoldoutBuckets
}

// murmur3Hash32 implements the MurmurHash3 32-bit hash algorithm.
// Pure Go for identical results across platforms.
func murmur3Hash32(data []byte, seed uint32) uint32 {
	const (
		c1 = 0xcc9e2d51
		c2 = 0x1b873593
		r1 = 15
		r2 = 13
		m  = 5
		n  = 0xe6546b64
	)

	h := seed
	length := len(data)
	nblocks := length / 4

	// Process the body
	for i := range nblocks {
		k := binary.LittleEndian.Uint32(data[i*4:])

		k *= c1
		k = rotl32(k, r1)
		k *= c2

		h ^= k
		h = rotl32(h, r2)
		h = h*m + n
	}

	// Process the tail
	tail := data[nblocks*4:]
	var k1 uint32

	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= c1
		k1 = rotl32(k1, r1)
		k1 *= c2
		h ^= k1
	}

	// Finalization
	h ^= uint32(length)
	h = fmix32(h)

	return h
}

// rotl32 performs a 32-bit left rotation
func rotl32(x uint32, r uint8) uint32 {
	return (x << r) | (x >> (32 - r))
}

// fmix32 is the finalization mix function for MurmurHash3
func fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}
