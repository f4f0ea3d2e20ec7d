package accumulator

import "testing"

func TestTreeRows(t *testing.T) {
	for i := uint8(1); i <= 62; i++ {
		nLeaves := uint64(1) << i
		if got, want := treeRows(nLeaves), treeRowsOrig(nLeaves); got != want {
			t.Fatalf("treeRows(%d) = %d, want %d", nLeaves, got, want)
		}
	}
	for n := uint64(0); n <= 200000; n++ {
		if got, want := treeRows(n), treeRowsOrig(n); got != want {
			t.Fatalf("treeRows(%d) = %d, want %d", n, got, want)
		}
	}
}

// treeRowsOrig is the naive definition treeRows is checked against: the
// smallest e such that 2**e >= n.
func treeRowsOrig(n uint64) (e uint8) {
	for (uint64(1) << e) < n {
		e++
	}
	return
}

func TestExtractTwins(t *testing.T) {
	nodes := []uint64{4, 5, 6, 7, 8}
	parents, dels := extractTwins(nodes, 4)

	wantParents := []uint64{18, 19}
	wantDels := []uint64{8}

	if len(parents) != len(wantParents) {
		t.Fatalf("parents = %v, want %v", parents, wantParents)
	}
	for i := range parents {
		if parents[i] != wantParents[i] {
			t.Fatalf("parents = %v, want %v", parents, wantParents)
		}
	}
	if len(dels) != len(wantDels) || dels[0] != wantDels[0] {
		t.Fatalf("dels = %v, want %v", dels, wantDels)
	}
}

func TestMergeSortedSlices(t *testing.T) {
	cases := []struct {
		a, b, want []uint64
	}{
		{nil, nil, nil},
		{[]uint64{1, 5, 8, 9}, []uint64{2, 3, 4, 5, 6}, []uint64{1, 2, 3, 4, 5, 6, 8, 9}},
		{[]uint64{1, 2, 3}, nil, []uint64{1, 2, 3}},
		{nil, []uint64{1, 2, 3}, []uint64{1, 2, 3}},
	}
	for _, c := range cases {
		got := mergeSortedSlices(c.a, c.b)
		if len(got) != len(c.want) {
			t.Fatalf("mergeSortedSlices(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("mergeSortedSlices(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		}
	}
}

func TestRowStartRowLen(t *testing.T) {
	// A forest of rows=2 (4 leaves, 7 slots total) has row 0 starting
	// at 0 with 4 slots, row 1 starting at 4 with 2 slots, row 2 (the
	// top) starting at 6 with 1 slot.
	rows := uint8(2)
	cases := []struct {
		r         uint8
		start, ln uint64
	}{
		{0, 0, 4},
		{1, 4, 2},
		{2, 6, 1},
	}
	for _, c := range cases {
		if got := rowStart(c.r, rows); got != c.start {
			t.Fatalf("rowStart(%d, %d) = %d, want %d", c.r, rows, got, c.start)
		}
		if got := rowLen(c.r, rows); got != c.ln {
			t.Fatalf("rowLen(%d, %d) = %d, want %d", c.r, rows, got, c.ln)
		}
	}
}

func TestRootPositionMatchesGetRoots(t *testing.T) {
	// For every leaf count from 1 to 64, rootPosition(leaves, h, rows)
	// for each set bit h must match what getRootsForwards independently
	// computes by walking the leaf offsets.
	for n := uint64(1); n <= 64; n++ {
		rows := treeRows(n)
		roots, rowsOf := getRootsForwards(n, rows)
		for i, h := range rowsOf {
			want := roots[i]
			got := rootPosition(n, h, rows)
			if got != want {
				t.Fatalf("rootPosition(%d, %d, %d) = %d, want %d", n, h, rows, got, want)
			}
		}
	}
}

func TestInForest(t *testing.T) {
	rows := uint8(3)
	numLeaves := uint64(5)
	for p := uint64(0); p < numLeaves; p++ {
		if !inForest(p, numLeaves, rows) {
			t.Fatalf("leaf position %d should be in forest", p)
		}
	}
	if inForest(numLeaves, numLeaves, rows) {
		t.Fatalf("position %d should not be in forest with only %d leaves", numLeaves, numLeaves)
	}
}

func TestCheckSortedNoDupes(t *testing.T) {
	if !checkSortedNoDupes([]uint64{1, 2, 3}) {
		t.Fatal("expected sorted slice to pass")
	}
	if checkSortedNoDupes([]uint64{1, 1, 2}) {
		t.Fatal("expected duplicate to fail")
	}
	if checkSortedNoDupes([]uint64{2, 1, 3}) {
		t.Fatal("expected unsorted slice to fail")
	}
}
