package accumulator

import "sort"

// rootStash is a subtree lifted out of the forest in one piece: every
// digest from its root down to its leaves, plus which of those digests
// were dirty (pending a rehash) at the moment they were read out. Ported
// from the teacher's original UtreexoRootStash; the forgets field that
// struct carried is never read anywhere in the original deleter, so it
// has no counterpart here.
type rootStash struct {
	values  []Hash
	dirties []int // indices into values, ascending
}

// heightForStashLen recovers the subtree height a stash of this many
// values must belong to: a subtree of height h holds 2^(h+1)-1 nodes.
func heightForStashLen(n int) uint8 {
	h := uint8(0)
	for (2<<h)-1 < n {
		h++
	}
	return h
}

// moveSubtree relocates the whole subtree rooted at from onto to, which
// must sit on the same row. Every source slot is read, copied, and
// zeroed; row-0 copies are reindexed in positionMap; a dirty source
// slot carries its dirty bit to its new home.
func (f *Forest) moveSubtree(from, to uint64) error {
	fromRow := detectRow(from, f.rows)
	toRow := detectRow(to, f.rows)
	if fromRow != toRow {
		return errHeightMismatch(toRow, fromRow)
	}

	for _, m := range subTreePositions(from, to, f.rows) {
		h := f.data.read(m.from)
		if h == empty {
			return errEmptyMove(m.from)
		}
		f.data.write(m.to, h)
		if detectRow(m.from, f.rows) == 0 {
			f.positionMap[h.Mini()] = m.to
		}
		f.data.write(m.from, empty)
		if _, dirty := f.dirty[m.from]; dirty {
			delete(f.dirty, m.from)
			f.dirty[m.to] = struct{}{}
		}
	}
	return nil
}

// getSubTree lifts the subtree rooted at src out into a rootStash,
// bottom-up, same order subTreePositions enumerates it in. If del is
// set every source slot is zeroed and un-dirtied as it's read, leaving
// nothing behind; otherwise the subtree is left untouched in place.
func (f *Forest) getSubTree(src uint64, del bool) (rootStash, error) {
	if !inForest(src, f.numLeaves, f.rows) {
		return rootStash{}, errNotInForest(src)
	}
	if f.data.read(src) == empty {
		return rootStash{}, errNotInForest(src)
	}

	moves := subTreePositions(src, src, f.rows)
	st := rootStash{values: make([]Hash, len(moves))}
	for i, m := range moves {
		st.values[i] = f.data.read(m.from)
		if _, dirty := f.dirty[m.from]; dirty {
			st.dirties = append(st.dirties, i)
			if del {
				delete(f.dirty, m.from)
			}
		}
		if del {
			f.data.write(m.from, empty)
		}
	}
	return st, nil
}

// writeSubtree writes a previously lifted rootStash back into the
// forest rooted at dest, re-establishing positionMap entries for its
// leaves and re-marking whichever of its slots were dirty when lifted.
// The stash's size must match the height dest sits at.
func (f *Forest) writeSubtree(st rootStash, dest uint64) error {
	destRow := detectRow(dest, f.rows)
	gotRow := heightForStashLen(len(st.values))
	if gotRow != destRow {
		return errHeightMismatch(destRow, gotRow)
	}

	moves := subTreePositions(dest, dest, f.rows)
	dirtyIdx := 0
	for i, m := range moves {
		f.data.write(m.to, st.values[i])
		if detectRow(m.to, f.rows) == 0 && st.values[i] != empty {
			f.positionMap[st.values[i].Mini()] = m.to
		}
		if dirtyIdx < len(st.dirties) && st.dirties[dirtyIdx] == i {
			f.dirty[m.to] = struct{}{}
			dirtyIdx++
		}
	}
	return nil
}

// rootPhaseResult reports what a row's root phase produced: at most one
// position to carry up to the next row (upDel), at most one position to
// mark dirty directly in this row (directDirty), and at most one
// subtree lifted out to be written back once the whole climb settles
// (stash).
type rootPhaseResult struct {
	upDel       uint64
	hasUpDel    bool
	directDirty uint64
	hasDirect   bool
	stash       rootStash
	hasStash    bool
}

// rootPhase resolves the one remaining orphan (if any) against the
// one remaining root (if any) for a single row of the delete climb.
// Ported from the teacher's original rootPhase: four cases, named for
// what happens to this row's root.
func (f *Forest) rootPhase(haveDel bool, delPos uint64, haveRoot bool, rootPos uint64) (rootPhaseResult, error) {
	switch {
	case !haveDel && !haveRoot:
		return rootPhaseResult{}, nil

	case haveDel && haveRoot:
		// derooting: the root moves down to fill the orphan's slot.
		if err := f.moveSubtree(rootPos, delPos); err != nil {
			return rootPhaseResult{}, err
		}
		return rootPhaseResult{directDirty: delPos | 1, hasDirect: true}, nil

	case !haveDel && haveRoot:
		// stashing: the root has nothing left to pair with this row; it
		// gets lifted out whole and will collapse onto its new, lower
		// position once the climb finishes.
		st, err := f.getSubTree(rootPos, true)
		if err != nil {
			return rootPhaseResult{}, err
		}
		return rootPhaseResult{stash: st, hasStash: true}, nil

	default: // haveDel && !haveRoot
		// rooting: no root to absorb the orphan, so its sibling subtree
		// is lifted out instead -- it becomes the new root at this row
		// once the climb finishes.
		stashPos := delPos ^ 1
		st, err := f.getSubTree(stashPos, true)
		if err != nil {
			return rootPhaseResult{}, err
		}
		return rootPhaseResult{upDel: parent(stashPos, f.rows), hasUpDel: true, stash: st, hasStash: true}, nil
	}
}

// rootPosMapFor builds a row -> top-position lookup for a forest of the
// given leaf count, from getRootsForwards.
func rootPosMapFor(leaves uint64, rows uint8) map[uint8]uint64 {
	roots, rootRows := getRootsForwards(leaves, rows)
	m := make(map[uint8]uint64, len(roots))
	for i, r := range rootRows {
		m[r] = roots[i]
	}
	return m
}

// sortedStashRows returns stashMap's keys in ascending order, so
// writeSubtree runs shortest row first the same way the teacher's
// original does.
func sortedStashRows(stashMap map[uint8]rootStash) []uint8 {
	rows := make([]uint8, 0, len(stashMap))
	for r := range stashMap {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i] < rows[j] })
	return rows
}
