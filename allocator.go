package dsstore

import (
	"fmt"
	"sort"
)

// allocatorState is the parsed form of the allocator block: the buddy
// block-address table, the named table of contents, and the 32 free
// lists, as produced by read-side parsing (parseAllocator). The write
// side does not use this type: layout.go keeps the same fields in
// layoutPlan and renders them with serializeAllocatorBlock.
type allocatorState struct {
	BlockCount      uint32
	BlockAddresses  []blockAddress // indexed by block number; len >= 256, multiple of 256
	TableOfContents map[string]uint32
	FreeLists       [32][]uint32
}

// readBlockBytes resolves a (offset, size) pair to the underlying data
// region of a block: addresses are relative to file offset 0 but denote
// the data position, so this adds 4 to skip the alignment prefix
// preceding each block's data.
func readBlockBytes(fileData []byte, offset, size uint32) ([]byte, error) {
	start := uint64(offset) + 4
	end := start + uint64(size)
	if end > uint64(len(fileData)) {
		return nil, newErr(CorruptedFile, "block at offset 0x%X size %d exceeds file length %d", offset, size, len(fileData))
	}
	return fileData[start:end], nil
}

func roundUpTo256(n uint32) uint32 {
	if n%256 == 0 {
		return n
	}
	return n + (256 - n%256)
}

// parseAllocator validates and parses the allocator block.
// allocatorOffset/allocatorSize are the header-declared values, used to
// cross-check block-address table entry 0.
func parseAllocator(fileData []byte, allocatorOffset, allocatorSize uint32, diag diagnosticSink) (*allocatorState, error) {
	body, err := readBlockBytes(fileData, allocatorOffset, allocatorSize)
	if err != nil {
		return nil, wrapErr(CorruptedFile, err, "reading allocator block")
	}
	c := newCursor(body)

	blockCount, err := c.U32()
	if err != nil {
		return nil, wrapErr(CorruptedFile, err, "reading allocator block count")
	}
	if blockCount == 0 {
		return nil, newErr(CorruptedFile, "allocator blockCount must be > 0")
	}

	reserved, err := c.U32()
	if err != nil {
		return nil, wrapErr(CorruptedFile, err, "reading allocator reserved word")
	}
	if reserved != 0 {
		diag.emit(Diagnostic{Kind: DiagReservedNonZero, Message: fmt.Sprintf("allocator reserved word after blockCount is 0x%X, expected 0", reserved)})
	}

	tableLen := roundUpTo256(blockCount)
	if tableLen < 256 {
		tableLen = 256
	}
	addrs := make([]blockAddress, tableLen)
	for i := uint32(0); i < tableLen; i++ {
		v, err := c.U32()
		if err != nil {
			return nil, wrapErr(CorruptedFile, err, "reading block address table entry %d", i)
		}
		if i >= blockCount && v != 0 {
			return nil, newErr(CorruptedFile, "block address table entry %d (>= blockCount %d) is non-zero", i, blockCount)
		}
		addrs[i] = blockAddress(v)
	}

	tocCount, err := c.U32()
	if err != nil {
		return nil, wrapErr(CorruptedFile, err, "reading table-of-contents count")
	}
	if tocCount < 1 || tocCount > blockCount {
		return nil, newErr(CorruptedFile, "table-of-contents count %d out of range [1,%d]", tocCount, blockCount)
	}
	toc := make(map[string]uint32, tocCount)
	for i := uint32(0); i < tocCount; i++ {
		nameLen, err := c.Byte()
		if err != nil {
			return nil, wrapErr(CorruptedFile, err, "reading topic %d name length", i)
		}
		if nameLen == 0 {
			return nil, newErr(CorruptedFile, "topic %d has zero-length name", i)
		}
		nameBytes, err := c.Bytes(int(nameLen))
		if err != nil {
			return nil, wrapErr(CorruptedFile, err, "reading topic %d name", i)
		}
		name := string(nameBytes)
		blockNum, err := c.U32()
		if err != nil {
			return nil, wrapErr(CorruptedFile, err, "reading topic %q block number", name)
		}
		if blockNum < 1 || blockNum >= blockCount {
			return nil, newErr(CorruptedFile, "topic %q block number %d out of range [1,%d)", name, blockNum, blockCount)
		}
		if _, dup := toc[name]; dup {
			return nil, newErr(CorruptedFile, "duplicate table-of-contents entry %q", name)
		}
		toc[name] = blockNum
		if name != "DSDB" {
			diag.emit(Diagnostic{Kind: DiagUnknownTOCName, Message: fmt.Sprintf("unrecognized table-of-contents name %q (block %d)", name, blockNum)})
		}
	}
	if _, ok := toc["DSDB"]; !ok {
		return nil, newErr(CorruptedFile, "table of contents is missing required entry \"DSDB\"")
	}

	var freeLists [32][]uint32
	for i := 0; i < 32; i++ {
		count, err := c.U32()
		if err != nil {
			return nil, wrapErr(CorruptedFile, err, "reading free list %d count", i)
		}
		bucket := uint32(1) << uint(i)
		list := make([]uint32, 0, count)
		for j := uint32(0); j < count; j++ {
			off, err := c.U32()
			if err != nil {
				return nil, wrapErr(CorruptedFile, err, "reading free list %d entry %d", i, j)
			}
			if off%bucket != 0 {
				return nil, newErr(CorruptedFile, "free list %d offset 0x%X is not aligned to bucket size %d", i, off, bucket)
			}
			list = append(list, off)
		}
		freeLists[i] = list
	}

	if int(addrs[0]) != 0 {
		offset, size, derr := decodeAddress(addrs[0])
		if derr != nil {
			return nil, wrapErr(CorruptedFile, derr, "decoding block-address table entry 0 (allocator block self-description)")
		}
		if offset != allocatorOffset || size != allocatorSize {
			return nil, newErr(CorruptedFile, "block-address table entry 0 describes offset=0x%X size=%d, header says offset=0x%X size=%d", offset, size, allocatorOffset, allocatorSize)
		}
	}

	return &allocatorState{
		BlockCount:      blockCount,
		BlockAddresses:  addrs,
		TableOfContents: toc,
		FreeLists:       freeLists,
	}, nil
}

// blockOffsetSize resolves a block number to its (offset, size) pair.
func (a *allocatorState) blockOffsetSize(blockNum uint32) (offset, size uint32, err error) {
	if blockNum >= uint32(len(a.BlockAddresses)) {
		return 0, 0, newErr(CorruptedFile, "block number %d out of range (table length %d)", blockNum, len(a.BlockAddresses))
	}
	return decodeAddress(a.BlockAddresses[blockNum])
}

// serializeAllocatorBlock renders the allocator block's bytes: blockCount,
// a reserved zero word, the block-address table, the table of contents
// sorted by name for determinism, and the 32 free lists.
func serializeAllocatorBlock(blockCount uint32, addrs []blockAddress, toc map[string]uint32, freeLists [32][]uint32) []byte {
	w := newWriteBuffer()
	w.U32(blockCount)
	w.U32(0)
	for _, a := range addrs {
		w.U32(uint32(a))
	}

	names := make([]string, 0, len(toc))
	for name := range toc {
		names = append(names, name)
	}
	sort.Strings(names)
	w.U32(uint32(len(names)))
	for _, name := range names {
		w.Byte(byte(len(name)))
		w.Write([]byte(name))
		w.U32(toc[name])
	}

	for _, list := range freeLists {
		w.U32(uint32(len(list)))
		for _, off := range list {
			w.U32(off)
		}
	}
	return w.Bytes()
}
