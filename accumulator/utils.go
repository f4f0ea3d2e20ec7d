package accumulator

import (
	"math/bits"
	"sort"
)

// extractTwins takes a sorted slice of positions, removes sibling pairs and
// returns, as new slices, the parents of those pairs alongside everything
// left over (the only-children). nodes itself is not modified.
//
// Example with a 15-leaf tree: deleting nodes 4 through 8 with forestRows=4
// returns (parents=[18,19], dels=[8]) because only 8 has no sibling also
// scheduled for deletion.
func extractTwins(nodes []uint64, forestRows uint8) (parents, dels []uint64) {
	for i := 0; i < len(nodes); i++ {
		if i+1 < len(nodes) && nodes[i]|1 == nodes[i+1] {
			parents = append(parents, parent(nodes[i], forestRows))
			i++ // skip one here
		} else {
			dels = append(dels, nodes[i])
		}
	}
	return
}

// detectRow finds the current row of a position given the total forest
// rows, by counting preceding 1 bits.
func detectRow(position uint64, forestRows uint8) uint8 {
	marker := uint64(1 << forestRows)
	var h uint8
	for h = 0; position&marker != 0; h++ {
		marker >>= 1
	}
	return h
}

// child gives you the left child (LSB will be 0)
func child(position uint64, forestRows uint8) uint64 {
	mask := uint64(2<<forestRows) - 1
	return (position << 1) & mask
}

// childMany goes down drop times (always left; LSBs will be 0) and returns
// the position.
func childMany(position uint64, drop, forestRows uint8) uint64 {
	if drop == 0 {
		return position
	}
	if drop > forestRows {
		panic("childMany drop > forestRows")
	}
	mask := uint64(2<<forestRows) - 1
	return (position << drop) & mask
}

// parent returns the position of the parent of this position.
func parent(position uint64, forestRows uint8) uint64 {
	return (position >> 1) | (1 << forestRows)
}

// parentMany goes up rise times and returns the position.
func parentMany(position uint64, rise, forestRows uint8) uint64 {
	if rise == 0 {
		return position
	}
	if rise > forestRows {
		panic("parentMany rise > forestRows")
	}
	mask := uint64(2<<forestRows) - 1
	return (position>>rise | (mask << uint64(forestRows-(rise-1)))) & mask
}

// cousin returns the child of the parent's sibling: xor with 2.
func cousin(position uint64) uint64 {
	return position ^ 2
}

// inForest checks if a node is in the forest based on numLeaves: descend
// down and right to the bottom row, then check against numLeaves.
func inForest(pos, numLeaves uint64, forestRows uint8) bool {
	if pos < numLeaves {
		return true
	}
	marker := uint64(1 << forestRows)
	mask := (marker << 1) - 1
	if pos >= mask {
		return false
	}
	for pos&marker != 0 {
		pos = ((pos << 1) & mask) | 1
	}
	return pos < numLeaves
}

// treeRows returns the number of rows needed to hold n leaves: the next
// power of 2 at or above n, log2'd. Utreexo forests are always a collection
// of perfect trees backed by a power-of-2-sized flat array; unused slots
// above numLeaves sit zeroed.
func treeRows(n uint64) uint8 {
	if n == 0 {
		return 0
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return uint8(bits.TrailingZeros64(n))
}

// numRoots returns the number of 1 bits in n, i.e. the number of tops a
// forest of n leaves has.
func numRoots(n uint64) uint8 {
	return uint8(bits.OnesCount64(n))
}

// rootPosition finds the position of the root at row h given a number of
// leaves. Does not check whether a root actually exists at that row;
// callers check first via leaves&(1<<h).
func rootPosition(leaves uint64, h, forestRows uint8) uint64 {
	mask := uint64(2<<forestRows) - 1
	before := leaves & (mask << (h + 1))
	shifted := (before >> h) | (mask << (forestRows + 1 - h))
	return shifted & mask
}

// getRootsForwards gives the positions of the tree roots (tops), tallest
// row first, given a number of leaves.
func getRootsForwards(leaves uint64, forestRows uint8) (roots []uint64, rows []uint8) {
	position := uint64(0)
	for row := forestRows; position < leaves; row-- {
		if (1<<row)&leaves != 0 {
			root := parentMany(position, row, forestRows)
			roots = append(roots, root)
			rows = append(rows, row)
			position += 1 << row
		}
	}
	return
}

// getRootsReverse gives the positions of the tree roots, shortest row
// first -- the order reHash walks the forest bottom-up in.
func getRootsReverse(leaves uint64, forestRows uint8) (roots []uint64, rows []uint8) {
	roots, rows = getRootsForwards(leaves, forestRows)
	for i, j := 0, len(roots)-1; i < j; i, j = i+1, j-1 {
		roots[i], roots[j] = roots[j], roots[i]
		rows[i], rows[j] = rows[j], rows[i]
	}
	return
}

// rowStart returns the position of the leftmost slot of row r in a forest
// of the given total rows.
func rowStart(r, rows uint8) uint64 {
	return (uint64(1) << (rows + 1)) - (uint64(1) << (rows - r + 1))
}

// rowLen returns the number of slots row r has in a forest of the given
// total rows.
func rowLen(r, rows uint8) uint64 {
	return uint64(1) << (rows - r)
}

// subTreePositions takes a node position and forestRows and returns the
// positions of every node of the subtree rooted there (including the root
// itself), paired with the position each should move to under a
// translation of moveTo-subroot scaled per row. Passing subroot as moveTo
// enumerates the subtree in place without moving anything.
func subTreePositions(subroot uint64, moveTo uint64, forestRows uint8) (as []arrow) {
	subRow := detectRow(subroot, forestRows)
	rootDelta := int64(moveTo) - int64(subroot)
	for r := uint8(0); r <= subRow; r++ {
		depth := subRow - r
		leftmost := childMany(subroot, depth, forestRows)
		rowDelta := rootDelta << depth
		for i := uint64(0); i < 1<<depth; i++ {
			f := leftmost + i
			t := uint64(int64(f) + rowDelta)
			as = append(as, arrow{from: f, to: t})
		}
	}
	return
}

func sortUint64s(s []uint64) {
	sort.Slice(s, func(a, b int) bool { return s[a] < s[b] })
}

func sortNodeSlice(s []node) {
	sort.Slice(s, func(a, b int) bool { return s[a].Pos < s[b].Pos })
}

// checkSortedNoDupes returns true for strictly increasing slices.
func checkSortedNoDupes(s []uint64) bool {
	for i := range s {
		if i == 0 {
			continue
		}
		if s[i-1] >= s[i] {
			return false
		}
	}
	return true
}

// mergeSortedSlices merges two sorted uint64 slices into one sorted slice,
// discarding duplicates across the two inputs (not within either input).
// e.g. [1, 5, 8, 9], [2, 3, 4, 5, 6] -> [1, 2, 3, 4, 5, 6, 8, 9]
func mergeSortedSlices(a []uint64, b []uint64) (c []uint64) {
	maxa := len(a)
	maxb := len(b)

	if maxa == 0 {
		return b
	}
	if maxb == 0 {
		return a
	}

	c = make([]uint64, maxa+maxb)

	idxa, idxb := 0, 0
	for j := 0; j < len(c); j++ {
		if idxa >= maxa {
			j += copy(c[j:], b[idxb:])
			c = c[:j]
			break
		}
		if idxb >= maxb {
			j += copy(c[j:], a[idxa:])
			c = c[:j]
			break
		}

		vala, valb := a[idxa], b[idxb]
		if vala < valb {
			c[j] = vala
			idxa++
		} else if vala > valb {
			c[j] = valb
			idxb++
		} else {
			c[j] = vala
			idxa++
			idxb++
		}
	}
	return
}
