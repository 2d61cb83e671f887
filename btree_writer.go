package dsstore

// wnode is a mutable B-tree node living in an arena addressed by index
// rather than by pointer, so the builder never needs a shared mutable
// node graph. For a leaf, entries holds encoded data records. For an
// internal node, entries holds the promoted separator records and
// children holds one more index than entries: children[i] is the left
// child of entries[i], and children[len(entries)] is the rightmost child.
type wnode struct {
	isLeaf   bool
	entries  [][]byte
	children []int
}

func newLeaf() *wnode { return &wnode{isLeaf: true} }

func (n *wnode) entryOverhead() int {
	if n.isLeaf {
		return 0
	}
	return 4
}

// serializedSize computes the on-disk size:
// 8 + sum(len(entry) + overhead).
func (n *wnode) serializedSize() int {
	total := 8
	overhead := n.entryOverhead()
	for _, e := range n.entries {
		total += len(e) + overhead
	}
	return total
}

// btreeBuilder bulk-loads a sorted, already-encoded record stream into a
// page-bounded tree via right-spine insertion. Insertion always descends
// the rightmost child since records arrive in order, so no general
// search is needed.
type btreeBuilder struct {
	arena []*wnode
	// spine holds, for each level from the root down to the currently
	// active rightmost leaf, the arena index of that level's node.
	spine []int
}

func newBTreeBuilder() *btreeBuilder {
	root := newLeaf()
	b := &btreeBuilder{arena: []*wnode{root}, spine: []int{0}}
	return b
}

// insert appends one already-encoded record to the rightmost leaf and
// cascades splits up the right spine as needed.
func (b *btreeBuilder) insert(encoded []byte) error {
	if len(encoded)+8 > pageSize {
		return newErr(CorruptedFile, "encoded record of %d bytes plus 8-byte node header exceeds page size %d", len(encoded), pageSize)
	}
	leafIdx := b.spine[len(b.spine)-1]
	leaf := b.arena[leafIdx]
	leaf.entries = append(leaf.entries, encoded)

	level := len(b.spine) - 1
	for level >= 0 && b.arena[b.spine[level]].serializedSize() > pageSize {
		if err := b.splitAtLevel(level); err != nil {
			return err
		}
		level--
	}
	return nil
}

// splitAtLevel splits the node at b.spine[level], promoting a separator
// (and its new right sibling's index) into the parent, creating a new
// root if level is 0.
func (b *btreeBuilder) splitAtLevel(level int) error {
	idx := b.spine[level]
	node := b.arena[idx]

	sizes := make([]int, len(node.entries))
	for i, e := range node.entries {
		sizes[i] = len(e)
	}
	sep, err := chooseSplitIndex(sizes, node.entryOverhead())
	if err != nil {
		return err
	}

	separator := node.entries[sep]
	leftEntries := node.entries[:sep]
	rightEntries := append([][]byte{}, node.entries[sep+1:]...)

	right := &wnode{isLeaf: node.isLeaf}
	right.entries = rightEntries

	if !node.isLeaf {
		leftChildren := node.children[:sep+1]
		rightChildren := append([]int{}, node.children[sep+1:]...)
		right.children = rightChildren
		node.children = leftChildren
	}
	node.entries = append([][]byte{}, leftEntries...)

	rightIdx := len(b.arena)
	b.arena = append(b.arena, right)

	if level == 0 {
		newRoot := &wnode{
			isLeaf:   false,
			entries:  [][]byte{separator},
			children: []int{idx, rightIdx},
		}
		newRootIdx := len(b.arena)
		b.arena = append(b.arena, newRoot)
		b.spine = append([]int{newRootIdx}, b.spine...)
		// The old root's subtree now hangs off the new root as its left
		// child, but the active rightmost path descends through rightIdx
		// (it inherited the old root's rightmost children), not idx.
		b.spine[1] = rightIdx
		return nil
	}

	parent := b.arena[b.spine[level-1]]
	parent.entries = append(parent.entries, separator)
	parent.children = append(parent.children, rightIdx)
	b.spine[level] = rightIdx
	return nil
}

// chooseSplitIndex picks the separator index that minimizes the size
// imbalance between the two halves, preferring both halves non-empty,
// subject to both fitting within one page.
func chooseSplitIndex(sizes []int, overhead int) (int, error) {
	n := len(sizes)
	prefix := make([]int, n+1)
	for i, s := range sizes {
		prefix[i+1] = prefix[i] + s + overhead
	}
	total := prefix[n]

	fits := func(sep int) (left, right int, ok bool) {
		left = 8 + prefix[sep]
		right = 8 + (total - prefix[sep+1])
		return left, right, left <= pageSize && right <= pageSize
	}
	abs := func(x int) int {
		if x < 0 {
			return -x
		}
		return x
	}

	bestSep, bestDiff := -1, 0
	for sep := 1; sep <= n-2; sep++ {
		left, right, ok := fits(sep)
		if !ok {
			continue
		}
		diff := abs(left - right)
		if bestSep == -1 || diff < bestDiff {
			bestSep, bestDiff = sep, diff
		}
	}
	if bestSep >= 0 {
		return bestSep, nil
	}
	for _, sep := range []int{0, n - 1} {
		if sep < 0 || sep > n-1 {
			continue
		}
		left, right, ok := fits(sep)
		if !ok {
			continue
		}
		diff := abs(left - right)
		if bestSep == -1 || diff < bestDiff {
			bestSep, bestDiff = sep, diff
		}
	}
	if bestSep >= 0 {
		return bestSep, nil
	}
	return 0, newErr(CorruptedFile, "unable to split: no separator index satisfies the page-size constraint")
}

// builtTree is the finalized output of a btreeBuilder run: nodes in the
// order layout.go must number them, plus the header fields the root
// metadata block requires.
type builtTree struct {
	nodes              []*wnode   // index i is block number i+2
	childBlockNumbers  [][]uint32 // per internal node, aligned with nodes; nil for leaves
	rootBlockIndex     int        // index into nodes
	recordCount        uint32
	internalLevelCount uint32
}

// blockNumberForOrder converts a node-order index (into nodes) to its on-disk
// block number: node order 0 is block 2, since block 1 is reserved for
// the fixed root-metadata block.
func blockNumberForOrder(orderIndex int) uint32 {
	return uint32(orderIndex) + 2
}

// finish numbers every reachable node in the same order the reader
// visits them during descent, so a written tree round-trips through a
// read without any renumbering.
func (b *btreeBuilder) finish() (*builtTree, error) {
	rootArenaIdx := b.spine[0]
	order := []int{}
	var record uint32
	maxInternalDepth := -1
	anyInternal := false

	var visit func(arenaIdx int, depth int) error
	visit = func(arenaIdx int, depth int) error {
		order = append(order, arenaIdx)
		n := b.arena[arenaIdx]
		record += uint32(len(n.entries))
		if n.isLeaf {
			return nil
		}
		anyInternal = true
		if depth > maxInternalDepth {
			maxInternalDepth = depth
		}
		for i := 0; i < len(n.entries); i++ {
			if err := visit(n.children[i], depth+1); err != nil {
				return err
			}
		}
		return visit(n.children[len(n.entries)], depth+1)
	}
	if err := visit(rootArenaIdx, 0); err != nil {
		return nil, err
	}

	arenaToBlockOrder := make(map[int]int, len(order))
	nodes := make([]*wnode, len(order))
	for i, arenaIdx := range order {
		arenaToBlockOrder[arenaIdx] = i
		nodes[i] = b.arena[arenaIdx]
	}

	childBlockNumbers := make([][]uint32, len(nodes))
	for i, n := range nodes {
		if n.isLeaf {
			continue
		}
		nums := make([]uint32, len(n.children))
		for j, childArenaIdx := range n.children {
			nums[j] = blockNumberForOrder(arenaToBlockOrder[childArenaIdx])
		}
		childBlockNumbers[i] = nums
	}

	internalLevels := uint32(0)
	if anyInternal {
		internalLevels = uint32(maxInternalDepth + 1)
	}

	return &builtTree{
		nodes:              nodes,
		childBlockNumbers:  childBlockNumbers,
		rootBlockIndex:     arenaToBlockOrder[rootArenaIdx],
		recordCount:        record,
		internalLevelCount: internalLevels,
	}, nil
}

// serializeNode renders a node to its on-disk bytes. childBlockNumbers
// holds the final block number for each entry's left child, with the
// rightmost child's block number appended last (len(entries)+1 total);
// leaves pass nil.
func serializeNode(n *wnode, childBlockNumbers []uint32) []byte {
	w := newWriteBuffer()
	if n.isLeaf {
		w.U32(0)
		w.U32(uint32(len(n.entries)))
		for _, e := range n.entries {
			w.Write(e)
		}
		return w.Bytes()
	}
	w.U32(childBlockNumbers[len(n.entries)]) // rightmostChild
	w.U32(uint32(len(n.entries)))
	for i, e := range n.entries {
		w.U32(childBlockNumbers[i])
		w.Write(e)
	}
	return w.Bytes()
}
