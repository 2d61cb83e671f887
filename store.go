package dsstore

import "sort"

const (
	headerAlignment = 1
	magicBud1       = 0x42756431
	headerSize      = 36
)

// Options configures a single Read or Write call.
type Options struct {
	// StrictInternalOrder promotes an internal-node order violation from
	// a diagnostic to a fatal corruptedFile error.
	StrictInternalOrder bool
	// OnDiagnostic, when non-nil, receives every non-fatal anomaly
	// observed during the call. A nil handler silently drops them.
	OnDiagnostic DiagnosticHandler
	// PropertyListCodec decodes and encodes blob payloads that sniff as
	// property lists. Nil falls back to DefaultPropertyListCodec.
	PropertyListCodec PropertyListCodec
}

func (o Options) codec() PropertyListCodec {
	if o.PropertyListCodec != nil {
		return o.PropertyListCodec
	}
	return DefaultPropertyListCodec
}

func (o Options) diag() diagnosticSink {
	return newDiagnosticSink(o.OnDiagnostic)
}

// Container is the in-memory record set: the unit of mutation, and the
// thing Read populates and Write serializes. Allocator and tree state
// are never retained across a read — only the record set survives.
type Container struct {
	records map[recordKey]Record
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{records: make(map[recordKey]Record)}
}

// NewContainerFromRecords builds a container from an initial record
// list, applying the (filename, typeCode) replace-on-duplicate rule
// up front; later entries in records win over earlier ones with the
// same identity.
func NewContainerFromRecords(records []Record) (*Container, error) {
	c := NewContainer()
	for _, r := range records {
		if err := validateFileName(r.FileName); err != nil {
			return nil, err
		}
		c.records[r.key()] = r
	}
	return c, nil
}

// Put inserts r, replacing any existing record with the same identity.
// It reports whether a record was replaced. Filename validity is
// enforced at Write time, not here, so callers can stage records
// before deciding on a final name.
func (c *Container) Put(r Record) (replaced bool) {
	k := r.key()
	_, replaced = c.records[k]
	c.records[k] = r
	return replaced
}

// Remove deletes the record with the given identity, reporting whether
// one was present.
func (c *Container) Remove(filename string, typeCode FourCC) bool {
	k := recordKey{FileName: filename, TypeCode: typeCode}
	_, ok := c.records[k]
	delete(c.records, k)
	return ok
}

// Get looks up a record by identity.
func (c *Container) Get(filename string, typeCode FourCC) (Record, bool) {
	r, ok := c.records[recordKey{FileName: filename, TypeCode: typeCode}]
	return r, ok
}

// Len returns the number of records currently held.
func (c *Container) Len() int { return len(c.records) }

// Records returns a sorted snapshot of every record in total order.
func (c *Container) Records() []Record {
	out := make([]Record, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return compareRecords(out[i], out[j]) < 0 })
	return out
}

// Read parses a complete container image and returns the record set it
// holds. The allocator and tree used to find those records are not
// retained.
func Read(data []byte, opts Options) (*Container, error) {
	if len(data) < headerSize {
		return nil, newErr(InvalidHeader, "file is %d bytes, shorter than the %d-byte header", len(data), headerSize)
	}
	c := newCursor(data[:headerSize])

	alignment, err := c.U32()
	if err != nil {
		return nil, wrapErr(InvalidHeader, err, "reading alignment field")
	}
	if alignment != headerAlignment {
		return nil, newErr(InvalidHeader, "alignment field is %d, expected %d", alignment, headerAlignment)
	}
	magic, err := c.U32()
	if err != nil {
		return nil, wrapErr(InvalidHeader, err, "reading magic field")
	}
	if magic != magicBud1 {
		return nil, newErr(InvalidMagic, "magic field is 0x%X, expected 0x%X", magic, uint32(magicBud1))
	}
	allocatorOffset, err := c.U32()
	if err != nil {
		return nil, wrapErr(InvalidHeader, err, "reading allocatorOffset field")
	}
	allocatorSize, err := c.U32()
	if err != nil {
		return nil, wrapErr(InvalidHeader, err, "reading allocatorSize field")
	}
	allocatorOffsetCheck, err := c.U32()
	if err != nil {
		return nil, wrapErr(InvalidHeader, err, "reading allocatorOffsetCheck field")
	}
	if allocatorOffsetCheck != allocatorOffset {
		return nil, newErr(OffsetMismatch, "allocatorOffsetCheck=0x%X disagrees with allocatorOffset=0x%X", allocatorOffsetCheck, allocatorOffset)
	}

	diag := opts.diag()
	alloc, err := parseAllocator(data, allocatorOffset, allocatorSize, diag)
	if err != nil {
		return nil, err
	}
	records, err := readBTree(data, alloc, opts.codec(), diag, opts.StrictInternalOrder)
	if err != nil {
		return nil, err
	}
	return NewContainerFromRecords(records)
}

// Write serializes the container's records into a fresh container
// image: sorted, re-encoded, rebuilt tree, freshly planned layout and
// free lists. Write never mutates a file in place and never reuses a
// prior allocator or tree.
func (c *Container) Write(opts Options) ([]byte, error) {
	records := c.Records()
	codec := opts.codec()

	builder := newBTreeBuilder()
	for _, r := range records {
		encoded, err := encodeRecord(r, codec)
		if err != nil {
			return nil, err
		}
		if err := builder.insert(encoded); err != nil {
			return nil, err
		}
	}
	tree, err := builder.finish()
	if err != nil {
		return nil, err
	}

	placements, nodesEnd, err := planNodePlacements(tree)
	if err != nil {
		return nil, err
	}
	layout, err := planLayout(placements, nodesEnd)
	if err != nil {
		return nil, err
	}

	fileEnd := layout.allocatorOffset + layout.allocatorSize
	buf := make([]byte, fileEnd+4)

	hw := newWriteBuffer()
	hw.U32(headerAlignment)
	hw.U32(magicBud1)
	hw.U32(layout.allocatorOffset)
	hw.U32(layout.allocatorSize)
	hw.U32(layout.allocatorOffset)
	hw.Write(make([]byte, 16))
	copy(buf[0:headerSize], hw.Bytes())

	rootBlockNum := blockNumberForOrder(tree.rootBlockIndex)
	rw := newWriteBuffer()
	rw.U32(rootBlockNum)
	rw.U32(tree.internalLevelCount)
	rw.U32(tree.recordCount)
	rw.U32(uint32(len(tree.nodes)))
	rw.U32(pageSize)
	copy(buf[rootMetadataOffset+4:], rw.Bytes())

	for i, n := range tree.nodes {
		nb := serializeNode(n, tree.childBlockNumbers[i])
		start := placements[i].offset + 4
		copy(buf[start:], nb)
	}

	astart := layout.allocatorOffset + 4
	copy(buf[astart:], layout.serializedAllocator)

	return buf, nil
}
