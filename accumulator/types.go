package accumulator

import (
	"crypto/sha256"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Hash is a 32 byte digest: a leaf value, or an interior node of the forest.
type Hash [32]byte

// Prefix returns the first 4 bytes, for compact printing.
func (h Hash) Prefix() []byte {
	return h[:4]
}

// Mini returns the first 12 bytes, used as the leaf index key.
func (h Hash) Mini() (m MiniHash) {
	copy(m[:], h[:12])
	return
}

// MiniHash is the first 12 bytes of a Hash, used to key the leaf index.
// 12 bytes keeps collisions astronomically unlikely while keeping the
// index's memory footprint well below storing the full digest twice.
type MiniHash [12]byte

// HashFromString hashes a string with sha256. Handy for building test
// fixtures and for the scenarios fixed in the package's test vectors.
func HashFromString(s string) Hash {
	return sha256.Sum256([]byte(s))
}

// arrow describes the movement of one forest slot to another: read from
// `from`, write to `to`.
type arrow struct {
	from, to uint64
}

// node pairs a position with the digest that was (or will be) stored there.
type node struct {
	Pos uint64
	Val Hash
}

// Leaf is a digest a caller adds to the forest, with a hint for whether the
// caller wants to keep tracking it (used by callers building short-lived
// inclusion proofs; the forest itself ignores the hint).
type Leaf struct {
	Hash
	Remember bool
}

// parentBufPool holds reusable 64-byte concatenation buffers for parentHash,
// following the teacher's common.FreeBytes pooling idiom for hash-input
// scratch space instead of allocating per call.
var parentBufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 0, 64)
		return &b
	},
}

// parentHash returns the merkle parent of two children: double-SHA256 over
// the 64-byte left||right concatenation. This is the one place this repo
// deliberately departs from the teacher's native sha512/256 choice — the
// wire format and test vectors this package is built against are pinned to
// double-SHA256 (see DESIGN.md).
func parentHash(l, r Hash) Hash {
	var empty Hash
	if l == empty || r == empty {
		panic("accumulator: parentHash called with an empty child")
	}
	bufp := parentBufPool.Get().(*[]byte)
	buf := (*bufp)[:0]
	buf = append(buf, l[:]...)
	buf = append(buf, r[:]...)
	sum := chainhash.DoubleHashH(buf)
	*bufp = buf
	parentBufPool.Put(bufp)
	return Hash(sum)
}
