package accumulator

import (
	"os"
)

// leafSize is the width of one stored hash: a [32]byte sha256d digest.
const leafSize = 32

// ForestData is the thing that holds all the hashes in the forest: every
// row, not just the leaves. Could be in a file, or in ram, or maybe
// something else.
type ForestData interface {
	// read returns the hash value at the given position.
	read(pos uint64) Hash

	// write writes the given hash at the given position.
	write(pos uint64, h Hash)

	// size returns how many positions (slots across every row, not just
	// row 0) the store currently holds.
	size() uint64

	// resize grows the store to hold newSize positions across every row.
	// Can't shrink.
	resize(newSize uint64)

	// close releases any underlying OS resources.
	close() error
}

// ramForestData holds the entire forest (every row) as one flat in-memory
// byte slice, indexed by pos*leafSize. This is what NewForest uses; forests
// built with NewForestOnDisk use diskForestData below instead. Durable
// snapshot persistence is handled separately by Forest.Commit, which only
// ever needs row 0 regardless of which backend is live.
type ramForestData struct {
	m []byte
}

func (r *ramForestData) read(pos uint64) (h Hash) {
	pos <<= 5
	copy(h[:], r.m[pos:pos+leafSize])
	return
}

func (r *ramForestData) write(pos uint64, h Hash) {
	pos <<= 5
	copy(r.m[pos:pos+leafSize], h[:])
}

func (r *ramForestData) size() uint64 {
	return uint64(len(r.m) / leafSize)
}

func (r *ramForestData) resize(newSize uint64) {
	r.m = append(r.m, make([]byte, (newSize-r.size())*leafSize)...)
}

func (r *ramForestData) close() error {
	r.m = nil
	return nil
}

// diskForestData backs the full (every-row) node store with a flat file,
// using ReadAt/WriteAt instead of the teacher's copy-on-write tree-block
// and manifest engine. SPEC_FULL.md's persistence contract only asks for a
// leaves-only snapshot with atomic rename-commit (see Forest.Commit), so
// there is no need for the teacher's versioned-manifest machinery here;
// this backend exists purely so a forest too big for ram can still run,
// trading every read/write/resize for a syscall.
type diskForestData struct {
	f *os.File
}

func newDiskForestData(path string) (*diskForestData, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, errIO("open forest scratch file", err)
	}
	return &diskForestData{f: f}, nil
}

func (d *diskForestData) read(pos uint64) (h Hash) {
	_, err := d.f.ReadAt(h[:], int64(pos*leafSize))
	if err != nil && err.Error() != "EOF" {
		panic(errIO("read", err))
	}
	return
}

func (d *diskForestData) write(pos uint64, h Hash) {
	_, err := d.f.WriteAt(h[:], int64(pos*leafSize))
	if err != nil {
		panic(errIO("write", err))
	}
}

func (d *diskForestData) size() uint64 {
	fi, err := d.f.Stat()
	if err != nil {
		panic(errIO("stat", err))
	}
	return uint64(fi.Size()) / leafSize
}

func (d *diskForestData) resize(newSize uint64) {
	if err := d.f.Truncate(int64(newSize * leafSize)); err != nil {
		panic(errIO("truncate", err))
	}
}

func (d *diskForestData) close() error {
	return d.f.Close()
}
