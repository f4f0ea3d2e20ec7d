package accumulator

import (
	"encoding/binary"
	"fmt"
	"io"
)

// UndoBlock carries what's needed to reverse exactly one Modify call: how
// many leaves it added, and the position and prior hash of every leaf it
// deleted.
//
// Undo is only valid called immediately after its matching Modify, on the
// same Forest, with nothing else applied in between -- it is not a general
// rollback log. If the Modify being undone grew the forest's row count via
// reMap, that row growth is not unwound (rows only ever grow; shrinking is
// out of scope, see DESIGN.md).
type UndoBlock struct {
	NumAdds   uint32
	Positions []uint64
	Hashes    []Hash
}

// buildUndo captures an UndoBlock for the deletion about to happen. Must
// be called before deletePositions mutates the forest.
func (f *Forest) buildUndo(numAdds uint32, dels []uint64) *UndoBlock {
	u := &UndoBlock{
		NumAdds:   numAdds,
		Positions: make([]uint64, len(dels)),
		Hashes:    make([]Hash, len(dels)),
	}
	copy(u.Positions, dels)
	for i, pos := range dels {
		u.Hashes[i] = f.data.read(pos)
	}
	return u
}

// Undo reverses the Modify call that produced u, but only to the extent
// Modify's own contract promises: the leaf set goes back to what it was,
// not necessarily the exact interior layout. It strips the leaves Modify
// appended, then re-adds the leaves it deleted through the ordinary
// adder, which reconverges the top set the same way any other add would
// (see invariant 7 in SPEC_FULL.md §8) -- there's no need to replay the
// deleter's stash climb in reverse.
func (f *Forest) Undo(u *UndoBlock) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.poisoned {
		return fmt.Errorf("%w: forest poisoned, cannot undo", ErrInternalInvariantBroken)
	}

	if uint64(u.NumAdds) > f.numLeaves {
		return fmt.Errorf("%w: undo wants to remove %d adds but only %d leaves exist",
			ErrInternalInvariantBroken, u.NumAdds, f.numLeaves)
	}
	tailStart := f.numLeaves - uint64(u.NumAdds)
	for p := tailStart; p < f.numLeaves; p++ {
		if h := f.data.read(p); h != empty {
			delete(f.positionMap, h.Mini())
			f.data.write(p, empty)
		}
	}
	f.numLeaves = tailStart

	restored := make([]Leaf, len(u.Hashes))
	for i, h := range u.Hashes {
		restored[i] = Leaf{Hash: h}
	}
	f.addLeaves(restored)

	if err := f.reHash(); err != nil {
		f.poisoned = true
		return err
	}

	f.log.Debugf("undo: -%d adds +%d dels, now %d leaves", u.NumAdds, len(u.Positions), f.numLeaves)
	return nil
}

// SerializeSize returns how many bytes Serialize would write.
func (u *UndoBlock) SerializeSize() int {
	return 4 + 8 + (len(u.Positions) * 8) + 8 + (len(u.Hashes) * 32)
}

// Serialize encodes the undo block: numAdds, then a length-prefixed
// position list, then a length-prefixed hash list.
func (u *UndoBlock) Serialize(w io.Writer) error {
	if err := binary.Write(w, binary.BigEndian, u.NumAdds); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(u.Positions))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, u.Positions); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint64(len(u.Hashes))); err != nil {
		return err
	}
	for _, h := range u.Hashes {
		if _, err := w.Write(h[:]); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize decodes an undo block written by Serialize.
func (u *UndoBlock) Deserialize(r io.Reader) error {
	if err := binary.Read(r, binary.BigEndian, &u.NumAdds); err != nil {
		return err
	}

	var posCount uint64
	if err := binary.Read(r, binary.BigEndian, &posCount); err != nil {
		return err
	}
	u.Positions = make([]uint64, posCount)
	if err := binary.Read(r, binary.BigEndian, u.Positions); err != nil {
		return err
	}

	var hashCount uint64
	if err := binary.Read(r, binary.BigEndian, &hashCount); err != nil {
		return err
	}
	u.Hashes = make([]Hash, hashCount)
	for i := uint64(0); i < hashCount; i++ {
		if _, err := io.ReadFull(r, u.Hashes[i][:]); err != nil {
			return err
		}
	}
	return nil
}
