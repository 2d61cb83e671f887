package dsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallBuiltTree(t *testing.T, n int) *builtTree {
	t.Helper()
	b := newBTreeBuilder()
	for i := 0; i < n; i++ {
		r := Record{FileName: string(rune('a' + i)), TypeCode: MustFourCC("long"), Value: LongValue(uint32(i))}
		encoded, err := encodeRecord(r, DefaultPropertyListCodec)
		require.NoError(t, err)
		require.NoError(t, b.insert(encoded))
	}
	tree, err := b.finish()
	require.NoError(t, err)
	return tree
}

func TestPlanNodePlacementsSequentialNonOverlapping(t *testing.T) {
	tree := smallBuiltTree(t, 5)
	placements, end, err := planNodePlacements(tree)
	require.NoError(t, err)
	require.Len(t, placements, len(tree.nodes))

	cursor := uint32(rootMetadataOffset + rootMetadataSize)
	for _, pl := range placements {
		assert.GreaterOrEqual(t, pl.offset, cursor)
		assert.Equal(t, uint32(0), pl.offset%pl.size())
		cursor = pl.offset + pl.size()
	}
	assert.Equal(t, cursor, end)
}

func TestPlanLayoutProducesFittingAllocator(t *testing.T) {
	tree := smallBuiltTree(t, 5)
	placements, nodesEnd, err := planNodePlacements(tree)
	require.NoError(t, err)

	layout, err := planLayout(placements, nodesEnd)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(layout.serializedAllocator), int(layout.allocatorSize))
	assert.Equal(t, uint32(2+len(placements)), layout.blockCount)
	assert.Equal(t, uint32(1), layout.tableOfContents["DSDB"])

	offset, size, err := decodeAddress(layout.blockAddresses[0])
	require.NoError(t, err)
	assert.Equal(t, layout.allocatorOffset, offset)
	assert.Equal(t, layout.allocatorSize, size)
}

func TestRoundUpToPow2(t *testing.T) {
	assert.Equal(t, uint32(0x100), roundUpToPow2(0x100, 0x100))
	assert.Equal(t, uint32(0x200), roundUpToPow2(0x101, 0x100))
}
