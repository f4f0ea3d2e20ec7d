/*
Package accumulator implements a Utreexo-style forest: a dynamic set
accumulator backed by a dense, row-major array of perfect binary trees,
supporting batched insert and delete with logarithmic-sized membership
proofs implicit in its positional layout.

Forest:

The forest stores every hash, not just the leaves, in a flat array ordered
like a 2x2 row-major grid. A forest holding 4 leaves looks like:

	06
	|-------\
	04      05
	|---\   |---\
	00  01  02  03

In the backing array, this is:

	[]Hash{00, 01, 02, 03, 04, 05, 06}

For perfect trees this is straightforward. For trees that aren't perfect,
adding past a power-of-two leaf count triggers a reMap: a new, one-row-taller
array is allocated and the existing interior rows are relocated into it,
leaving the new row's slots empty (the zero Hash).

	em
	|---------------\
	12              em
	|-------\       |-------\
	08      09      em      em
	|---\   |---\   |---\   |---\
	00  01  02  03  04  em  em  em

em denotes an empty slot: the zero Hash. reMap never runs on delete --
deleting a leaf can leave a whole subtree empty rather than collapsing the
array, which is intentional: a set that oscillates across a power-of-two
boundary would otherwise pay for a reMap on every such crossing.
*/
package accumulator
