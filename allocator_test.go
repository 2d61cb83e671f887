package dsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAllocatorFile places a serialized allocator block's body at
// allocatorOffset+4 within a zero-filled file buffer of the given total
// length, mirroring the +4 alignment-prefix convention every block uses.
func buildAllocatorFile(body []byte, allocatorOffset, fileLen uint32) []byte {
	buf := make([]byte, fileLen)
	copy(buf[allocatorOffset+4:], body)
	return buf
}

func TestParseAllocatorRoundTrip(t *testing.T) {
	const allocatorOffset = 0x1000
	const p = 12
	allocatorSize := uint32(1) << p

	addrs := make([]blockAddress, 256)
	selfAddr, err := encodeAddress(allocatorOffset, p)
	require.NoError(t, err)
	addrs[0] = selfAddr
	rootAddr, err := encodeAddress(0x20, 5)
	require.NoError(t, err)
	addrs[1] = rootAddr

	var freeLists [32][]uint32
	freeLists[5] = []uint32{0x40, 0x60}

	body := serializeAllocatorBlock(2, addrs, map[string]uint32{"DSDB": 1}, freeLists)
	require.LessOrEqual(t, len(body), int(allocatorSize))

	fileData := buildAllocatorFile(body, allocatorOffset, allocatorOffset+allocatorSize+4)

	alloc, err := parseAllocator(fileData, allocatorOffset, allocatorSize, newDiagnosticSink(nil))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), alloc.BlockCount)
	assert.Equal(t, uint32(1), alloc.TableOfContents["DSDB"])
	assert.Equal(t, []uint32{0x40, 0x60}, alloc.FreeLists[5])

	offset, size, err := alloc.blockOffsetSize(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x20), offset)
	assert.Equal(t, uint32(32), size)
}

func TestParseAllocatorRejectsMissingDSDB(t *testing.T) {
	const allocatorOffset = 0x1000
	const p = 12
	allocatorSize := uint32(1) << p

	addrs := make([]blockAddress, 256)
	selfAddr, err := encodeAddress(allocatorOffset, p)
	require.NoError(t, err)
	addrs[0] = selfAddr
	addrs[1], err = encodeAddress(0x20, 5)
	require.NoError(t, err)

	var freeLists [32][]uint32
	body := serializeAllocatorBlock(2, addrs, map[string]uint32{"XTRA": 1}, freeLists)

	fileData := buildAllocatorFile(body, allocatorOffset, allocatorOffset+allocatorSize+4)
	_, err = parseAllocator(fileData, allocatorOffset, allocatorSize, newDiagnosticSink(nil))
	assert.Error(t, err)
}

func TestParseAllocatorRejectsSelfAddressMismatch(t *testing.T) {
	const allocatorOffset = 0x1000
	const p = 12
	allocatorSize := uint32(1) << p

	addrs := make([]blockAddress, 256)
	wrongSelf, err := encodeAddress(allocatorOffset, 11)
	require.NoError(t, err)
	addrs[0] = wrongSelf
	addrs[1], err = encodeAddress(0x20, 5)
	require.NoError(t, err)

	var freeLists [32][]uint32
	body := serializeAllocatorBlock(2, addrs, map[string]uint32{"DSDB": 1}, freeLists)
	fileData := buildAllocatorFile(body, allocatorOffset, allocatorOffset+allocatorSize+4)

	_, err = parseAllocator(fileData, allocatorOffset, allocatorSize, newDiagnosticSink(nil))
	assert.Error(t, err)
}

func TestParseAllocatorEmitsDiagnosticForUnknownTOCName(t *testing.T) {
	const allocatorOffset = 0x1000
	const p = 12
	allocatorSize := uint32(1) << p

	addrs := make([]blockAddress, 256)
	selfAddr, err := encodeAddress(allocatorOffset, p)
	require.NoError(t, err)
	addrs[0] = selfAddr
	addrs[1], err = encodeAddress(0x20, 5)
	require.NoError(t, err)
	addrs[2], err = encodeAddress(0x40, 5)
	require.NoError(t, err)

	var freeLists [32][]uint32
	body := serializeAllocatorBlock(3, addrs, map[string]uint32{"DSDB": 1, "cust": 2}, freeLists)
	fileData := buildAllocatorFile(body, allocatorOffset, allocatorOffset+allocatorSize+4)

	var diags []Diagnostic
	sink := newDiagnosticSink(func(d Diagnostic) { diags = append(diags, d) })
	_, err = parseAllocator(fileData, allocatorOffset, allocatorSize, sink)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagUnknownTOCName, diags[0].Kind)
}

func TestRoundUpTo256(t *testing.T) {
	assert.Equal(t, uint32(256), roundUpTo256(1))
	assert.Equal(t, uint32(256), roundUpTo256(256))
	assert.Equal(t, uint32(512), roundUpTo256(257))
}
