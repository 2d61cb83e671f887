package dsstore

import (
	"encoding/binary"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// cursor is a bounds-checked big-endian reader over an immutable byte
// slice. Every multi-byte read is checked against the remaining window
// before it touches the slice, rather than repeating
// binary.Read(b, binary.BigEndian, &x) at every call site.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(buf []byte) *cursor {
	return &cursor{buf: buf}
}

// remaining returns the number of unread bytes.
func (c *cursor) remaining() int {
	return len(c.buf) - c.pos
}

// Pos returns the current read offset.
func (c *cursor) Pos() int { return c.pos }

// Seek repositions the cursor to an absolute offset, failing if it lies
// outside the buffer.
func (c *cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return newErr(CorruptedFile, "seek to %d out of bounds (len=%d)", pos, len(c.buf))
	}
	c.pos = pos
	return nil
}

func (c *cursor) need(n int) error {
	if n < 0 || c.remaining() < n {
		return newErr(CorruptedFile, "need %d bytes at offset %d, only %d remaining", n, c.pos, c.remaining())
	}
	return nil
}

// Bytes reads n raw bytes and advances.
func (c *cursor) Bytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// Byte reads a single byte and advances.
func (c *cursor) Byte() (byte, error) {
	b, err := c.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a big-endian uint16 and advances.
func (c *cursor) U16() (uint16, error) {
	b, err := c.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// U32 reads a big-endian uint32 and advances.
func (c *cursor) U32() (uint32, error) {
	b, err := c.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// U64 reads a big-endian uint64 and advances.
func (c *cursor) U64() (uint64, error) {
	b, err := c.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// FourCC reads a 4-byte type code and advances.
func (c *cursor) FourCC() (FourCC, error) {
	u, err := c.U32()
	if err != nil {
		return 0, err
	}
	return FourCC(u), nil
}

// UTF16BE reads count UTF-16BE code units (count*2 bytes) and decodes them
// to a Go string. Fails on overflow of the byte-count multiply or on a
// decoding error.
func (c *cursor) UTF16BE(count uint32) (string, error) {
	if count > (1<<31-1)/2 {
		return "", newErr(CorruptedFile, "utf16 char count %d overflows byte length", count)
	}
	raw, err := c.Bytes(int(count) * 2)
	if err != nil {
		return "", err
	}
	out, _, err := transform.Bytes(utf16BEDecoder(), raw)
	if err != nil {
		return "", wrapErr(InvalidUTF16String, err, "decoding UTF-16BE string")
	}
	return string(out), nil
}

func utf16BEDecoder() transform.Transformer {
	return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
}

func utf16BEEncoder() transform.Transformer {
	return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
}

// writeBuffer is an append-only big-endian writer, the inverse of cursor.
type writeBuffer struct {
	buf []byte
}

func newWriteBuffer() *writeBuffer {
	return &writeBuffer{}
}

func (w *writeBuffer) Len() int       { return len(w.buf) }
func (w *writeBuffer) Bytes() []byte  { return w.buf }
func (w *writeBuffer) Write(b []byte) { w.buf = append(w.buf, b...) }

func (w *writeBuffer) Byte(b byte) { w.buf = append(w.buf, b) }

func (w *writeBuffer) U16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func (w *writeBuffer) U32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}

func (w *writeBuffer) U64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.Write(b[:])
}

func (w *writeBuffer) FourCC(f FourCC) { w.U32(uint32(f)) }

// UTF16BE encodes s as UTF-16BE and appends the raw bytes (no length
// prefix — callers write that themselves, since some callers need the
// character count before the byte count).
func (w *writeBuffer) UTF16BE(s string) error {
	enc, _, err := transform.Bytes(utf16BEEncoder(), []byte(s))
	if err != nil {
		return wrapErr(InvalidUTF16String, err, "encoding UTF-16BE string %q", s)
	}
	w.Write(enc)
	return nil
}

// padTo zero-fills up to the target absolute offset. It fails if the
// buffer has already grown past that offset.
func (w *writeBuffer) padTo(offset int) error {
	if offset < w.Len() {
		return newErr(CorruptedFile, "padTo(%d) but buffer is already %d bytes", offset, w.Len())
	}
	w.buf = append(w.buf, make([]byte, offset-w.Len())...)
	return nil
}
