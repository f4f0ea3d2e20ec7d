package accumulator

import (
	"path/filepath"
	"testing"
)

func TestRamForestDataReadWrite(t *testing.T) {
	d := new(ramForestData)
	d.resize(4)

	var h1, h2 Hash
	h1[0] = 1
	h2[0] = 2
	d.write(0, h1)
	d.write(1, h2)

	if got := d.read(0); got != h1 {
		t.Fatalf("read(0) = %x, want %x", got.Prefix(), h1.Prefix())
	}
	if got := d.read(1); got != h2 {
		t.Fatalf("read(1) = %x, want %x", got.Prefix(), h2.Prefix())
	}
	if d.size() != 4 {
		t.Fatalf("size() = %d, want 4", d.size())
	}
}

func TestDiskForestDataReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratch.dat")
	d, err := newDiskForestData(path)
	if err != nil {
		t.Fatalf("newDiskForestData: %v", err)
	}
	defer d.close()

	d.resize(4)

	var h1, h2 Hash
	h1[0] = 1
	h2[0] = 2
	d.write(0, h1)
	d.write(1, h2)

	if got := d.read(0); got != h1 {
		t.Fatalf("read(0) = %x, want %x", got.Prefix(), h1.Prefix())
	}
	if got := d.read(1); got != h2 {
		t.Fatalf("read(1) = %x, want %x", got.Prefix(), h2.Prefix())
	}
	if d.size() != 4 {
		t.Fatalf("size() = %d, want 4", d.size())
	}

	d.resize(8)
	if d.size() != 8 {
		t.Fatalf("size() after grow = %d, want 8", d.size())
	}
	if got := d.read(0); got != h1 {
		t.Fatalf("read(0) after resize = %x, want %x", got.Prefix(), h1.Prefix())
	}
}

// TestForestOnDiskModify runs add/delete traffic through a disk-backed
// forest, checking the forest invariants after each Modify and the leaf
// count, then confirms Empty rebuilds a usable disk-backed store. It does
// not compare results against a ram-backed forest.
func TestForestOnDiskModify(t *testing.T) {
	dir := t.TempDir()
	f, err := NewForestOnDisk(filepath.Join(dir, "forest.dat"), filepath.Join(dir, "scratch.dat"))
	if err != nil {
		t.Fatalf("NewForestOnDisk: %v", err)
	}

	modifyOrFatal(t, f, leavesFromStrings("a", "b", "c", "d", "e"), nil)
	modifyOrFatal(t, f, leavesFromStrings("f"), hashesFromStrings("b", "d"))

	if f.NumLeaves() != 4 {
		t.Fatalf("NumLeaves() = %d, want 4", f.NumLeaves())
	}

	if err := f.Empty(); err != nil {
		t.Fatalf("Empty: %v", err)
	}
	if f.NumLeaves() != 0 {
		t.Fatalf("NumLeaves() after Empty = %d, want 0", f.NumLeaves())
	}
	modifyOrFatal(t, f, leavesFromStrings("g"), nil)
}
