package dsstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFileNameRejectsEmbeddedNull(t *testing.T) {
	assert.Error(t, validateFileName("bad\x00name"))
	assert.NoError(t, validateFileName("good name"))
}

func TestUTF16LenCountsSurrogatePairsAsTwo(t *testing.T) {
	assert.Equal(t, 5, utf16Len("hello"))
	// U+1F600 (an emoji outside the BMP) encodes as a surrogate pair.
	assert.Equal(t, 2, utf16Len("😀"))
}

func TestRecordKeyIdentity(t *testing.T) {
	r1 := Record{FileName: "a", TypeCode: MustFourCC("long")}
	r2 := Record{FileName: "a", TypeCode: MustFourCC("long")}
	r3 := Record{FileName: "a", TypeCode: MustFourCC("shor")}
	assert.Equal(t, r1.key(), r2.key())
	assert.NotEqual(t, r1.key(), r3.key())
}

func TestValueKindCodeMapping(t *testing.T) {
	code, ok := KindBlob.code()
	assert.True(t, ok)
	assert.Equal(t, MustFourCC("blob"), code)

	code, ok = KindPropertyList.code()
	assert.True(t, ok)
	assert.Equal(t, MustFourCC("blob"), code)

	_, ok = ValueKind(999).code()
	assert.False(t, ok)
}
