package dsstore

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainerPutGetRemove(t *testing.T) {
	c := NewContainer()
	r := Record{FileName: "Icon\r", TypeCode: TypeIcon, Value: IconPositionValue(10, 20)}

	replaced := c.Put(r)
	assert.False(t, replaced)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("Icon\r", TypeIcon)
	require.True(t, ok)
	assert.Equal(t, r, got)

	replaced = c.Put(Record{FileName: "Icon\r", TypeCode: TypeIcon, Value: IconPositionValue(30, 40)})
	assert.True(t, replaced)
	assert.Equal(t, 1, c.Len())

	ok = c.Remove("Icon\r", TypeIcon)
	assert.True(t, ok)
	assert.Equal(t, 0, c.Len())

	ok = c.Remove("Icon\r", TypeIcon)
	assert.False(t, ok)
}

func TestContainerRecordsSortedOrder(t *testing.T) {
	c := NewContainer()
	c.Put(Record{FileName: "banana", TypeCode: MustFourCC("long"), Value: LongValue(1)})
	c.Put(Record{FileName: "Apple", TypeCode: MustFourCC("long"), Value: LongValue(2)})
	c.Put(Record{FileName: "cherry", TypeCode: MustFourCC("long"), Value: LongValue(3)})

	records := c.Records()
	require.Len(t, records, 3)
	assert.Equal(t, "Apple", records[0].FileName)
	assert.Equal(t, "banana", records[1].FileName)
	assert.Equal(t, "cherry", records[2].FileName)
}

func TestWriteThenReadRoundTripsSmallContainer(t *testing.T) {
	c := NewContainer()
	c.Put(Record{FileName: ".", TypeCode: TypeWindowState, Value: BlobValue([]byte("bag-of-bytes"))})
	c.Put(Record{FileName: "photo.jpg", TypeCode: TypeIcon, Value: IconPositionValue(100, 200)})
	c.Put(Record{FileName: "photo.jpg", TypeCode: TypeLogicalSize, Value: SizeValue(123456)})
	c.Put(Record{FileName: "résumé.pdf", TypeCode: TypeComment, Value: UstrValue("final draft")})

	data, err := c.Write(Options{})
	require.NoError(t, err)

	roundTripped, err := Read(data, Options{})
	require.NoError(t, err)

	assert.Equal(t, c.Records(), roundTripped.Records())
}

func TestWriteThenReadRoundTripsManyRecords(t *testing.T) {
	c := NewContainer()
	for i := 0; i < 200; i++ {
		name := fmt.Sprintf("item-%04d.dat", i)
		c.Put(Record{FileName: name, TypeCode: TypeIcon, Value: IconPositionValue(uint32(i), uint32(i*2))})
		c.Put(Record{FileName: name, TypeCode: TypeLogicalSize, Value: SizeValue(uint64(i) * 1024)})
	}

	data, err := c.Write(Options{})
	require.NoError(t, err)

	roundTripped, err := Read(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, c.Len(), roundTripped.Len())
	assert.Equal(t, c.Records(), roundTripped.Records())
}

func TestWriteThenReadRoundTripsThroughRootSplit(t *testing.T) {
	c := NewContainer()
	blob := make([]byte, 600)
	// Enough bulky records that the root's internal node overflows and
	// splits, producing a tree at least three levels deep: the regression
	// case for a builder that loses track of which node inherits the
	// active rightmost path after a root split.
	for i := 0; i < 150; i++ {
		name := fmt.Sprintf("file-%03d", i)
		c.Put(Record{FileName: name, TypeCode: MustFourCC("blob"), Value: BlobValue(blob)})
	}

	data, err := c.Write(Options{})
	require.NoError(t, err)

	roundTripped, err := Read(data, Options{})
	require.NoError(t, err)
	assert.Equal(t, c.Len(), roundTripped.Len())
	assert.Equal(t, c.Records(), roundTripped.Records())
}

func TestWriteThenReadDistinguishesCaseFoldedFileNames(t *testing.T) {
	c := NewContainer()
	c.Put(Record{FileName: "A.txt", TypeCode: TypeIcon, Value: IconPositionValue(1, 1)})
	c.Put(Record{FileName: "a.txt", TypeCode: TypeIcon, Value: IconPositionValue(2, 2)})

	// Both records fold to the same comparison key but have distinct raw
	// identities, so both must survive as separate records with no
	// order diagnostic.
	assert.Equal(t, 2, c.Len())

	var diags []Diagnostic
	data, err := c.Write(Options{})
	require.NoError(t, err)

	roundTripped, err := Read(data, Options{OnDiagnostic: func(d Diagnostic) { diags = append(diags, d) }})
	require.NoError(t, err)
	assert.Equal(t, 2, roundTripped.Len())
	assert.Empty(t, diags)

	a, ok := roundTripped.Get("A.txt", TypeIcon)
	require.True(t, ok)
	lowerA, ok := roundTripped.Get("a.txt", TypeIcon)
	require.True(t, ok)
	assert.NotEqual(t, a.Value, lowerA.Value)
}

func TestReadRejectsZeroAlignmentField(t *testing.T) {
	buf := make([]byte, headerSize)
	_, err := Read(buf, Options{})
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidHeader))
}

func TestReadRejectsShortHeader(t *testing.T) {
	_, err := Read(make([]byte, 10), Options{})
	assert.Error(t, err)
	assert.True(t, IsKind(err, InvalidHeader))
}

func TestReadRejectsOffsetMismatch(t *testing.T) {
	w := newWriteBuffer()
	w.U32(headerAlignment)
	w.U32(magicBud1)
	w.U32(0x2000)
	w.U32(0x1000)
	w.U32(0x3000) // disagrees with allocatorOffset above
	w.Write(make([]byte, 16))

	_, err := Read(w.Bytes(), Options{})
	assert.Error(t, err)
	assert.True(t, IsKind(err, OffsetMismatch))
}

func TestNewContainerFromRecordsAppliesReplaceOnDuplicate(t *testing.T) {
	records := []Record{
		{FileName: "x", TypeCode: MustFourCC("long"), Value: LongValue(1)},
		{FileName: "x", TypeCode: MustFourCC("long"), Value: LongValue(2)},
	}
	c, err := NewContainerFromRecords(records)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	got, _ := c.Get("x", MustFourCC("long"))
	assert.Equal(t, LongValue(2), got.Value)
}

func TestNewContainerFromRecordsRejectsInvalidFileName(t *testing.T) {
	_, err := NewContainerFromRecords([]Record{{FileName: "bad\x00", TypeCode: MustFourCC("long"), Value: LongValue(1)}})
	assert.Error(t, err)
}

func TestWriteRejectsInvalidFileNameAtEncodeTime(t *testing.T) {
	c := NewContainer()
	c.Put(Record{FileName: "bad\x00name", TypeCode: MustFourCC("long"), Value: LongValue(1)})
	_, err := c.Write(Options{})
	assert.Error(t, err)
}

func TestOptionsStrictInternalOrderLeavesLeafDisorderNonFatal(t *testing.T) {
	records := []Record{
		{FileName: "b.txt", TypeCode: MustFourCC("long"), Value: LongValue(2)},
		{FileName: "a.txt", TypeCode: MustFourCC("long"), Value: LongValue(1)},
	}
	buf, alloc := buildSingleLeafFile(t, records)

	_, err := readBTree(buf, alloc, DefaultPropertyListCodec, newDiagnosticSink(nil), false)
	require.NoError(t, err)

	_, err = readBTree(buf, alloc, DefaultPropertyListCodec, newDiagnosticSink(nil), true)
	// leaf-level disorder is not an internal separator, so strict mode
	// does not change this particular case's outcome.
	assert.NoError(t, err)
}
