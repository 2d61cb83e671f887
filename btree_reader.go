package dsstore

import "fmt"

// btreeHeader is the 20-byte root metadata block prefix:
// (rootNodeBlock, internalLevelCount, recordCount, nodeCount, pageSize).
type btreeHeader struct {
	RootNodeBlock      uint32
	InternalLevelCount uint32
	RecordCount        uint32
	NodeCount          uint32
	PageSize           uint32
}

const pageSize = 0x1000

func parseBTreeHeader(body []byte) (*btreeHeader, error) {
	c := newCursor(body)
	h := &btreeHeader{}
	var err error
	if h.RootNodeBlock, err = c.U32(); err != nil {
		return nil, wrapErr(InvalidBTreeHeader, err, "reading rootNodeBlock")
	}
	if h.InternalLevelCount, err = c.U32(); err != nil {
		return nil, wrapErr(InvalidBTreeHeader, err, "reading internalLevelCount")
	}
	if h.RecordCount, err = c.U32(); err != nil {
		return nil, wrapErr(InvalidBTreeHeader, err, "reading recordCount")
	}
	if h.NodeCount, err = c.U32(); err != nil {
		return nil, wrapErr(InvalidBTreeHeader, err, "reading nodeCount")
	}
	if h.PageSize, err = c.U32(); err != nil {
		return nil, wrapErr(InvalidBTreeHeader, err, "reading pageSize")
	}
	if h.PageSize != pageSize {
		return nil, newErr(InvalidBTreeHeader, "pageSize 0x%X, expected 0x%X", h.PageSize, pageSize)
	}
	if h.RootNodeBlock == 0 {
		return nil, newErr(InvalidBTreeHeader, "rootNodeBlock is 0")
	}
	if h.InternalLevelCount > h.NodeCount {
		return nil, newErr(InvalidBTreeHeader, "internalLevelCount %d exceeds nodeCount %d", h.InternalLevelCount, h.NodeCount)
	}
	return h, nil
}

// btreeReadState threads the bookkeeping needed through the recursive
// descent: visited blocks (cycle rejection), depth cap, running record
// count/order tracking, and whether any internal node was seen.
type btreeReadState struct {
	fileData []byte
	alloc    *allocatorState
	codec    PropertyListCodec
	diag     diagnosticSink
	strict   bool

	visited         map[uint32]bool
	maxDepth        int
	records         []Record
	lastKey         *recordKey
	anyInternal     bool
	maxInternalDepk int // max depth at which an internal node was observed
}

// readBTree walks the tree rooted at the DSDB table-of-contents entry and
// returns its records in traversal (sorted) order.
func readBTree(fileData []byte, alloc *allocatorState, codec PropertyListCodec, diag diagnosticSink, strict bool) ([]Record, error) {
	dsdbBlockNum, ok := alloc.TableOfContents["DSDB"]
	if !ok {
		return nil, newErr(InvalidBTreeHeader, "table of contents has no DSDB entry")
	}
	offset, size, err := alloc.blockOffsetSize(dsdbBlockNum)
	if err != nil {
		return nil, wrapErr(InvalidBTreeHeader, err, "resolving DSDB block %d", dsdbBlockNum)
	}
	body, err := readBlockBytes(fileData, offset, size)
	if err != nil {
		return nil, wrapErr(InvalidBTreeHeader, err, "reading DSDB block")
	}
	header, err := parseBTreeHeader(body)
	if err != nil {
		return nil, err
	}

	depthCap := int(header.NodeCount)
	if depthCap > 1024 {
		depthCap = 1024
	}

	st := &btreeReadState{
		fileData:        fileData,
		alloc:           alloc,
		codec:           codec,
		diag:            diag,
		strict:          strict,
		visited:         make(map[uint32]bool),
		maxInternalDepk: -1,
	}
	if err := st.visitNode(header.RootNodeBlock, 0, depthCap); err != nil {
		return nil, err
	}

	if len(st.visited) != int(header.NodeCount) {
		return nil, newErr(CorruptedFile, "traversal visited %d nodes, header declares nodeCount=%d", len(st.visited), header.NodeCount)
	}
	if len(st.records) != int(header.RecordCount) {
		return nil, newErr(CorruptedFile, "traversal emitted %d records, header declares recordCount=%d", len(st.records), header.RecordCount)
	}
	computedLevels := uint32(0)
	if st.anyInternal {
		computedLevels = uint32(st.maxInternalDepk + 1)
	}
	if computedLevels != header.InternalLevelCount {
		return nil, newErr(CorruptedFile, "traversal computed internalLevelCount=%d, header declares %d", computedLevels, header.InternalLevelCount)
	}
	return st.records, nil
}

func (st *btreeReadState) visitNode(blockNum uint32, depth int, depthCap int) error {
	if st.visited[blockNum] {
		return newErr(CorruptedFile, "block %d visited more than once (cycle or shared node)", blockNum)
	}
	if depth > depthCap {
		return newErr(CorruptedFile, "traversal depth %d exceeds cap %d", depth, depthCap)
	}
	st.visited[blockNum] = true

	offset, size, err := st.alloc.blockOffsetSize(blockNum)
	if err != nil {
		return wrapErr(CorruptedFile, err, "resolving block %d", blockNum)
	}
	body, err := readBlockBytes(st.fileData, offset, size)
	if err != nil {
		return wrapErr(CorruptedFile, err, "reading block %d", blockNum)
	}
	c := newCursor(body)

	rightmostChild, err := c.U32()
	if err != nil {
		return wrapErr(CorruptedFile, err, "reading rightmostChild in block %d", blockNum)
	}
	entryCount, err := c.U32()
	if err != nil {
		return wrapErr(CorruptedFile, err, "reading entryCount in block %d", blockNum)
	}

	if rightmostChild == 0 {
		for i := uint32(0); i < entryCount; i++ {
			r, err := decodeRecordAt(c, st.codec)
			if err != nil {
				return wrapErr(CorruptedFile, err, "decoding leaf record %d in block %d", i, blockNum)
			}
			if err := st.emit(r, false); err != nil {
				return err
			}
		}
		return nil
	}

	st.anyInternal = true
	if depth > st.maxInternalDepk {
		st.maxInternalDepk = depth
	}
	for i := uint32(0); i < entryCount; i++ {
		childBlock, err := c.U32()
		if err != nil {
			return wrapErr(CorruptedFile, err, "reading child pointer %d in block %d", i, blockNum)
		}
		if childBlock == 0 {
			return newErr(CorruptedFile, "child pointer %d in block %d is zero", i, blockNum)
		}
		savedPos := c.Pos()
		if err := st.visitNode(childBlock, depth+1, depthCap); err != nil {
			return err
		}
		if err := c.Seek(savedPos); err != nil {
			return wrapErr(CorruptedFile, err, "restoring cursor after child %d in block %d", i, blockNum)
		}
		r, err := decodeRecordAt(c, st.codec)
		if err != nil {
			return wrapErr(CorruptedFile, err, "decoding separator record %d in block %d", i, blockNum)
		}
		if err := st.emit(r, true); err != nil {
			return err
		}
	}
	return st.visitNode(rightmostChild, depth+1, depthCap)
}

func (st *btreeReadState) emit(r Record, isInternalSeparator bool) error {
	key := r.key()
	if st.lastKey != nil {
		if *st.lastKey == key {
			return newErr(CorruptedFile, "duplicate record (filename=%q, typeCode=%s)", r.FileName, r.TypeCode)
		}
		cmp := compareRecordKeys(*st.lastKey, key)
		if cmp > 0 {
			msg := fmt.Sprintf("record (%q, %s) is out of order after (%q, %s)", r.FileName, r.TypeCode, st.lastKey.FileName, st.lastKey.TypeCode)
			if isInternalSeparator && st.strict {
				return newErr(CorruptedFile, "internal node order violation: %s", msg)
			}
			kind := DiagOrderViolation
			if isInternalSeparator {
				kind = DiagInternalOrderViolation
			}
			st.diag.emit(Diagnostic{Kind: kind, Message: msg})
		}
	}
	st.lastKey = &key
	st.records = append(st.records, r)
	return nil
}
