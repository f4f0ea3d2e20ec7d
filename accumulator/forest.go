package accumulator

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/btcsuite/btclog"
)

// empty is the zero Hash, used as a sentinel for "nothing stored here yet".
var empty Hash

// Forest is the whole accumulator: a flat, row-major array of hashes large
// enough to hold every leaf plus every interior node above it, addressed
// bottom-left to top-right.
//
//	06
//	|------\
//	04......05
//	|---\...|---\
//	00..01..02..03
//
// 04 is the hash of 00 and 01 concatenated; 06 is a root. This forest has
// rows = 2.
//
// Every exported method that mutates state takes mtx: Forest is built for
// one writer at a time, with readers (GetRoots, Stats, FindLeaf) sharing
// the same lock rather than a RWMutex, since writes dwarf reads in cost and
// the extra contention is not worth the complexity.
type Forest struct {
	mtx sync.Mutex

	numLeaves uint64 // number of leaves (row 0 occupancy)
	rows      uint8  // allocated forest rows; grows via reMap, never shrinks

	data        ForestData
	positionMap map[MiniHash]uint64 // leaf digest -> row-0 position

	// dirty holds every position written by the current Modify's deleter
	// whose parent hash is now stale. reHash consumes and clears it in
	// one pass after both the deleter and the adder have run.
	dirty map[uint64]struct{}

	hashCount uint64 // lifetime count of parentHash calls, for Stats

	path        string // leaves-only snapshot file written by Commit and read by NewForest; "" means ram-only, no persistence
	scratchPath string // non-empty only for a NewForestOnDisk forest; lets Empty rebuild the same backend

	// poisoned is set if a mutation fails partway through and the forest's
	// internal state can no longer be trusted. Once it is set, Modify, Undo
	// and Commit refuse to run (Commit on a forest with no storage path
	// returns nil without looking at it). The read-only accessors
	// (GetRoots, NumLeaves, FindLeaf, Stats, ToString) do not check it and
	// keep answering from the untrusted state.
	poisoned bool

	log btclog.Logger
}

// NewForest creates or loads a forest backed entirely by ram. An empty or
// not-yet-existent storagePath yields a fresh forest at numLeaves=0. An
// existing storagePath is read as a leaves-only snapshot (see Commit) and
// every interior hash is recomputed from scratch. Commit persists the live
// forest back to storagePath; an empty storagePath means the forest is
// ram-only for the life of the process.
func NewForest(storagePath string) (*Forest, error) {
	return newForest(new(ramForestData), storagePath)
}

// NewForestOnDisk is NewForest, but the working node store (every row, not
// just the leaves-only snapshot Commit writes) lives in scratchPath on disk
// instead of ram, for forests too large to hold in memory. scratchPath is
// separate from storagePath: scratchPath is scratch working state, rewritten
// on every swap; storagePath is the durable leaves-only snapshot Commit
// produces.
func NewForestOnDisk(storagePath, scratchPath string) (*Forest, error) {
	d, err := newDiskForestData(scratchPath)
	if err != nil {
		return nil, err
	}
	f, err := newForest(d, storagePath)
	if err != nil {
		return nil, err
	}
	f.scratchPath = scratchPath
	return f, nil
}

func newForest(data ForestData, storagePath string) (*Forest, error) {
	f := &Forest{
		data:        data,
		positionMap: make(map[MiniHash]uint64),
		dirty:       make(map[uint64]struct{}),
		path:        storagePath,
		log:         log,
	}
	f.data.resize((2 << f.rows) - 1)
	if storagePath == "" {
		return f, nil
	}

	file, err := os.Open(storagePath)
	if os.IsNotExist(err) {
		return f, nil
	}
	if err != nil {
		return nil, errIO("open snapshot", err)
	}
	defer file.Close()

	var leaves []Leaf
	for {
		var h Hash
		_, err := io.ReadFull(file, h[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errIO("read snapshot", err)
		}
		leaves = append(leaves, Leaf{Hash: h})
	}

	if err := f.growTo(uint64(len(leaves))); err != nil {
		return nil, err
	}
	f.addLeaves(leaves)

	f.log.Infof("loaded %d leaves from %s", f.numLeaves, storagePath)
	return f, nil
}

// Commit atomically snapshots the current leaf set (row 0 only) to disk:
// write to a temp file, fsync, then rename over the prior snapshot. Rows
// above 0 are never persisted -- NewForest recomputes them when it reads
// the snapshot back.
func (f *Forest) Commit() error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.path == "" {
		return nil
	}
	if f.poisoned {
		return ErrInternalInvariantBroken
	}

	var randSuffix [2]byte
	if _, err := rand.Read(randSuffix[:]); err != nil {
		return errIO("generate tmp suffix", err)
	}
	tmpPath := fmt.Sprintf("%s.%x.tmp", f.path, randSuffix)
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errIO("create snapshot tmp file", err)
	}

	for i := uint64(0); i < f.numLeaves; i++ {
		h := f.data.read(i)
		if _, err := file.Write(h[:]); err != nil {
			file.Close()
			return errIO("write snapshot", err)
		}
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return errIO("fsync snapshot", err)
	}
	if err := file.Close(); err != nil {
		return errIO("close snapshot", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return errIO("rename snapshot", err)
	}

	f.log.Debugf("committed %d leaves to %s", f.numLeaves, f.path)
	return nil
}

// Empty resets the forest to zero leaves, discarding all state, and
// removes any persisted snapshot at storagePath. Unlike every other
// exported method, Empty runs even on a poisoned forest -- it is the
// documented escape hatch.
func (f *Forest) Empty() error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.data.close()
	if f.scratchPath != "" {
		d, err := newDiskForestData(f.scratchPath)
		if err != nil {
			return err
		}
		f.data = d
	} else {
		f.data = new(ramForestData)
	}
	f.numLeaves = 0
	f.rows = 0
	f.positionMap = make(map[MiniHash]uint64)
	f.dirty = make(map[uint64]struct{})
	f.poisoned = false
	f.data.resize((2 << f.rows) - 1)

	if f.path != "" {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return errIO("remove snapshot", err)
		}
	}
	return nil
}

// Modify adds new leaves and deletes existing ones in one atomic step,
// growing the forest's row count first if the post-modify leaf count would
// exceed current capacity. Deletes are resolved against the live leaf set
// by hash; Modify returns ErrUnknownLeaf if any deleted hash isn't present.
//
// On any failure partway through, the forest is poisoned: it has likely
// been left in an inconsistent state and every further call will fail
// until Empty resets it.
func (f *Forest) Modify(adds []Leaf, deletes []Hash) (*UndoBlock, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.poisoned {
		return nil, fmt.Errorf("%w: forest poisoned by a prior failed Modify", ErrInternalInvariantBroken)
	}

	dels := make([]uint64, 0, len(deletes))
	for _, d := range deletes {
		pos, ok := f.positionMap[d.Mini()]
		if !ok {
			return nil, errUnknownLeaf(d)
		}
		dels = append(dels, pos)
	}
	sortUint64s(dels)
	if !checkSortedNoDupes(dels) {
		return nil, fmt.Errorf("%w: duplicate deletion", ErrUnknownLeaf)
	}

	delta := int64(len(adds)) - int64(len(dels))
	if int64(f.numLeaves)+delta < 0 {
		return nil, fmt.Errorf("%w: can't delete %d leaves, only %d exist",
			ErrInternalInvariantBroken, len(dels), f.numLeaves)
	}
	for _, a := range adds {
		if a.Hash == empty {
			return nil, fmt.Errorf("%w: can't add the all-zero leaf", ErrInternalInvariantBroken)
		}
	}

	for int64(f.numLeaves)+delta > int64(1<<f.rows) {
		if err := f.reMap(f.rows + 1); err != nil {
			f.poisoned = true
			return nil, err
		}
	}

	ub := f.buildUndo(uint32(len(adds)), dels)
	for _, d := range deletes {
		delete(f.positionMap, d.Mini())
	}

	// §4.G ordering: deleter, then adder, then one final rehash of
	// everything the deleter left dirty (the adder hashes its own leaves
	// up as it writes them).
	if err := f.deletePositions(dels); err != nil {
		f.poisoned = true
		return nil, err
	}
	f.addLeaves(adds)
	if err := f.reHash(); err != nil {
		f.poisoned = true
		return nil, err
	}

	f.log.Debugf("modify: +%d -%d leaves, now %d leaves %d rows",
		len(adds), len(dels), f.numLeaves, f.rows)
	return ub, nil
}

// deletePositions removes the leaves at dels (already sorted, deduped,
// verified present, and already cleared from positionMap by the caller)
// via a climb up the forest one row at a time. Per row: sort what's
// left to delete, zero it out (dropping a row's root from the climb if
// it's one of the dels), extract sibling pairs (both halves gone means
// the parent is simply gone too, no data to move), swap remaining
// only-children in from the right using moveSubtree, and resolve
// whatever's left -- at most one orphan against at most one root -- via
// rootPhase. A row's rootPhase can lift a subtree out into stashMap
// instead of writing it immediately, because its final resting place
// (nextRootPosMap) depends on the post-delete leaf count, which isn't
// settled until every row has climbed. A swap marks the filled slot in
// f.dirty, derooting marks the filled slot's pair, and moved or stashed
// subtrees carry the dirty bits they already had; Modify rehashes it all
// in one pass once the adder has also run.
func (f *Forest) deletePositions(dels []uint64) error {
	if len(dels) == 0 {
		return nil
	}

	numDeletions := uint64(len(dels))
	nextNumLeaves := f.numLeaves - numDeletions

	rootPosMap := rootPosMapFor(f.numLeaves, f.rows)
	nextRootPosMap := rootPosMapFor(nextNumLeaves, f.rows)
	stashMap := make(map[uint8]rootStash)

	dels = append([]uint64(nil), dels...)
	var up1Del []uint64

	for h := uint8(0); h <= f.rows; h++ {
		if len(dels) == 0 {
			break
		}
		sortUint64s(dels)

		for _, d := range dels {
			f.data.write(d, empty)
			delete(f.dirty, d)
		}
		if rootPos, haveRoot := rootPosMap[h]; haveRoot && dels[len(dels)-1] == rootPos {
			dels = dels[:len(dels)-1]
			delete(rootPosMap, h)
		}

		parents, onlyChildren := extractTwins(dels, f.rows)
		up1Del = append(up1Del, parents...)
		dels = onlyChildren

		for len(dels) >= 2 {
			a, b := dels[0], dels[1]
			if err := f.moveSubtree(b^1, a); err != nil {
				return err
			}
			f.dirty[a] = struct{}{}
			up1Del = append(up1Del, parent(b, f.rows))
			dels = dels[2:]
		}

		haveDel := len(dels) == 1
		var delPos uint64
		if haveDel {
			delPos = dels[0]
		}
		rootPos, haveRoot := rootPosMap[h]

		res, err := f.rootPhase(haveDel, delPos, haveRoot, rootPos)
		if err != nil {
			return err
		}
		if res.hasDirect {
			f.dirty[res.directDirty] = struct{}{}
		}
		if res.hasUpDel {
			up1Del = append(up1Del, res.upDel)
		}
		if res.hasStash {
			stashMap[h] = res.stash
		}

		dels = up1Del
		up1Del = nil
	}

	if len(dels) != 0 {
		return fmt.Errorf("%w: %d position(s) left unresolved after the delete climb",
			ErrInternalInvariantBroken, len(dels))
	}

	for _, h := range sortedStashRows(stashMap) {
		dest, ok := nextRootPosMap[h]
		if !ok {
			return fmt.Errorf("%w: stashed subtree at row %d has no destination top",
				ErrInternalInvariantBroken, h)
		}
		if err := f.writeSubtree(stashMap[h], dest); err != nil {
			return err
		}
	}

	f.numLeaves = nextNumLeaves
	return nil
}

// addLeaves appends leaves to the forest, rolling each one up into its
// tree's root as it goes -- the simple half of Modify.
func (f *Forest) addLeaves(adds []Leaf) {
	for _, add := range adds {
		f.positionMap[add.Mini()] = f.numLeaves

		rootPositions, _ := getRootsReverse(f.numLeaves, f.rows)
		pos := f.numLeaves
		n := add.Hash
		f.data.write(pos, n)
		for h := uint8(0); (f.numLeaves>>h)&1 == 1; h++ {
			root := f.data.read(rootPositions[h])
			n = parentHash(root, n)
			pos = parent(pos, f.rows)
			f.data.write(pos, n)
			f.hashCount++
		}
		f.numLeaves++
	}
}

// growTo grows the forest so it can hold at least n leaves, one row at a
// time (reMap only knows how to grow by exactly one row).
func (f *Forest) growTo(n uint64) error {
	for n > uint64(1<<f.rows) {
		if err := f.reMap(f.rows + 1); err != nil {
			return err
		}
	}
	return nil
}

// reMap grows the forest by exactly one row, relocating every existing
// interior row into the wider layout the new row count implies. Row 0
// never moves; rows 1..destRows-1 shift right by the gap the new top row
// opens up above them.
func (f *Forest) reMap(destRows uint8) error {
	if destRows != f.rows+1 {
		return errUnsupportedRemap(f.rows, destRows)
	}

	f.data.resize((2 << destRows) - 1)

	pos := uint64(1) << destRows // leftmost position of row 1, in the new layout
	reach := pos >> 1
	for h := uint8(1); h < destRows; h++ {
		runLength := reach >> 1
		for x := uint64(0); x < runLength; x++ {
			srcPos := (pos >> 1) + x
			if f.data.size() > srcPos {
				if src := f.data.read(srcPos); src != empty {
					f.data.write(pos+x, src)
				}
			}
		}
		pos += reach
		reach >>= 1
	}

	for x := uint64(1) << f.rows; x < uint64(1)<<destRows; x++ {
		f.data.write(x, empty)
	}

	f.rows = destRows
	return nil
}

// GetRoots returns the hash of every current root (top), tallest row
// first.
func (f *Forest) GetRoots() []Hash {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	rootPositions, _ := getRootsForwards(f.numLeaves, f.rows)
	roots := make([]Hash, len(rootPositions))
	for i := range roots {
		roots[i] = f.data.read(rootPositions[i])
	}
	return roots
}

// NumLeaves returns the current leaf count.
func (f *Forest) NumLeaves() uint64 {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.numLeaves
}

// FindLeaf reports whether a digest is currently present in the forest.
func (f *Forest) FindLeaf(leaf Hash) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	_, found := f.positionMap[leaf.Mini()]
	return found
}

// Stats summarizes forest size and lifetime work, for the CLI's stats
// subcommand.
func (f *Forest) Stats() string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return fmt.Sprintf("numleaves: %d hashesever: %d posmap: %d rows: %d forestcap: %d",
		f.numLeaves, f.hashCount, len(f.positionMap), f.rows, f.data.size())
}

// ToString renders the whole forest as ascii art. Only usable for small
// forests.
func (f *Forest) ToString() string {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	fh := f.rows
	if fh > 6 {
		return "forest too big to print"
	}
	output := make([]string, (fh*2)+1)
	var pos uint64
	for h := uint8(0); h <= fh; h++ {
		rowlen := uint64(1) << (fh - h)
		for j := uint64(0); j < rowlen; j++ {
			var valstring string
			if f.data.size() > pos {
				if val := f.data.read(pos); val != empty {
					valstring = fmt.Sprintf("%x", val[:2])
				}
			}
			if valstring != "" {
				output[h*2] += fmt.Sprintf("%02d:%s ", pos, valstring)
			} else {
				output[h*2] += "        "
			}
			if h > 0 {
				output[(h*2)-1] += "|-------"
				for q := uint8(0); q < ((1<<h)-1)/2; q++ {
					output[(h*2)-1] += "--------"
				}
				output[(h*2)-1] += "\\       "
				for q := uint8(0); q < ((1<<h)-1)/2; q++ {
					output[(h*2)-1] += "        "
				}
				for q := uint8(0); q < (1<<h)-1; q++ {
					output[h*2] += "        "
				}
			}
			pos++
		}
	}
	var s string
	for z := len(output) - 1; z >= 0; z-- {
		s += output[z] + "\n"
	}
	return s
}
