package dsstore

const (
	rootMetadataOffset = 0x20
	rootMetadataSize   = 32
	rootMetadataP      = 5

	allocatorMinP = 12
	allocatorMaxP = 31
)

func roundUpToPow2(n, pow2 uint32) uint32 {
	if n%pow2 == 0 {
		return n
	}
	return n + (pow2 - n%pow2)
}

// nodePlacement is where one B-tree node lands in the address space.
type nodePlacement struct {
	blockNumber uint32
	offset      uint32
	p           uint32
}

func (pl nodePlacement) size() uint32 { return uint32(1) << pl.p }

// planNodePlacements assigns each node in traversal order a power-of-two
// block size and an aligned offset, packed sequentially starting right
// after the fixed root-metadata block.
func planNodePlacements(tree *builtTree) ([]nodePlacement, uint32, error) {
	cursor := uint32(rootMetadataOffset + rootMetadataSize)
	placements := make([]nodePlacement, len(tree.nodes))
	for i, n := range tree.nodes {
		sz := n.serializedSize()
		if sz > pageSize {
			return nil, 0, newErr(CorruptedFile, "node %d serialized size %d exceeds page size %d", i, sz, pageSize)
		}
		p := smallestPowerOfTwoAtLeast(uint32(sz), 5)
		blockSize := uint32(1) << p
		offset := roundUpToPow2(cursor, blockSize)
		placements[i] = nodePlacement{blockNumber: blockNumberForOrder(i), offset: offset, p: p}
		cursor = offset + blockSize
	}
	return placements, cursor, nil
}

// layoutPlan is the fully resolved placement of every block plus the
// allocator bytes ready to copy into the final file.
type layoutPlan struct {
	blockCount          uint32
	blockAddresses      []blockAddress
	tableOfContents     map[string]uint32
	freeLists           [32][]uint32
	allocatorOffset     uint32
	allocatorSize       uint32
	serializedAllocator []byte
}

// planLayout searches for the smallest allocator block size that fits
// its own serialized contents, re-deriving the free lists at each
// candidate size since a larger allocator block shifts its own offset
// and therefore the free-list gaps that precede it.
func planLayout(placements []nodePlacement, nodesEnd uint32) (*layoutPlan, error) {
	blockCount := uint32(2 + len(placements))
	tableLen := roundUpTo256(blockCount)
	if tableLen < 256 {
		tableLen = 256
	}
	addrs := make([]blockAddress, tableLen)

	rootAddr, err := encodeAddress(rootMetadataOffset, rootMetadataP)
	if err != nil {
		return nil, err
	}
	addrs[1] = rootAddr
	for _, pl := range placements {
		a, err := encodeAddress(pl.offset, pl.p)
		if err != nil {
			return nil, err
		}
		addrs[pl.blockNumber] = a
	}
	toc := map[string]uint32{"DSDB": 1}

	allocatedBase := []byteRange{
		{offset: 0, size: rootMetadataOffset},
		{offset: rootMetadataOffset, size: rootMetadataSize},
	}
	for _, pl := range placements {
		allocatedBase = append(allocatedBase, byteRange{offset: pl.offset, size: pl.size()})
	}

	for p := allocatorMinP; p <= allocatorMaxP; p++ {
		blockSize := uint32(1) << uint(p)
		allocatorOffset := roundUpToPow2(nodesEnd, blockSize)
		fileEnd := allocatorOffset + blockSize

		a0, err := encodeAddress(allocatorOffset, uint32(p))
		if err != nil {
			return nil, err
		}
		addrs[0] = a0

		allocated := append(append([]byteRange{}, allocatedBase...), byteRange{offset: allocatorOffset, size: blockSize})
		freeLists, err := buildFreeLists(allocated, fileEnd)
		if err != nil {
			return nil, err
		}

		serialized := serializeAllocatorBlock(blockCount, addrs, toc, freeLists)
		if uint32(len(serialized)) <= blockSize {
			return &layoutPlan{
				blockCount:          blockCount,
				blockAddresses:      addrs,
				tableOfContents:     toc,
				freeLists:           freeLists,
				allocatorOffset:     allocatorOffset,
				allocatorSize:       blockSize,
				serializedAllocator: serialized,
			}, nil
		}
	}
	return nil, newErr(CorruptedFile, "allocator block exceeds maximum size at p=%d", allocatorMaxP)
}
