package dsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorPrimitivesRoundTrip(t *testing.T) {
	w := newWriteBuffer()
	w.Byte(0x7F)
	w.U16(0xBEEF)
	w.U32(0xDEADBEEF)
	w.U64(0x0102030405060708)
	w.FourCC(MustFourCC("DSDB"))

	c := newCursor(w.Bytes())
	b, err := c.Byte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x7F), b)

	u16, err := c.U16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), u16)

	u32, err := c.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, err := c.U64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	fcc, err := c.FourCC()
	require.NoError(t, err)
	assert.Equal(t, MustFourCC("DSDB"), fcc)

	assert.Equal(t, 0, c.remaining())
}

func TestCursorFailsOnShortRead(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02})
	_, err := c.U32()
	assert.Error(t, err)
}

func TestCursorSeekBounds(t *testing.T) {
	c := newCursor(make([]byte, 4))
	require.NoError(t, c.Seek(4))
	assert.Error(t, c.Seek(5))
	assert.Error(t, c.Seek(-1))
}

func TestUTF16BERoundTrip(t *testing.T) {
	w := newWriteBuffer()
	require.NoError(t, w.UTF16BE("Résumé.pdf"))

	c := newCursor(w.Bytes())
	s, err := c.UTF16BE(uint32(utf16Len("Résumé.pdf")))
	require.NoError(t, err)
	assert.Equal(t, "Résumé.pdf", s)
}

func TestUTF16BERejectsOverflowingCount(t *testing.T) {
	c := newCursor(nil)
	_, err := c.UTF16BE(1 << 31)
	assert.Error(t, err)
}

func TestPadTo(t *testing.T) {
	w := newWriteBuffer()
	w.Byte(1)
	require.NoError(t, w.padTo(4))
	assert.Equal(t, 4, w.Len())
	assert.Error(t, w.padTo(1))
}
