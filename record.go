package dsstore

import "strings"

// ValueKind identifies which on-disk representation a Value carries.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindBool
	KindLong
	KindShort
	KindComp
	KindDUTC
	KindType
	KindUstr
	KindBlob
	KindBook
	// KindPropertyList is the decoded form of a Blob whose bytes sniffed as
	// a property list on read. It is distinct from
	// KindBlob: the writer downgrades it back to a blob on emission.
	KindPropertyList
)

func (k ValueKind) code() (FourCC, bool) {
	switch k {
	case KindNull:
		return FourCC(0), true
	case KindBool:
		return MustFourCC("bool"), true
	case KindLong:
		return MustFourCC("long"), true
	case KindShort:
		return MustFourCC("shor"), true
	case KindComp:
		return MustFourCC("comp"), true
	case KindDUTC:
		return MustFourCC("dutc"), true
	case KindType:
		return MustFourCC("type"), true
	case KindUstr:
		return MustFourCC("ustr"), true
	case KindBlob, KindPropertyList:
		return MustFourCC("blob"), true
	case KindBook:
		return MustFourCC("book"), true
	default:
		return 0, false
	}
}

// Value is a tagged union over the on-disk record value types. Only the
// field matching Kind is meaningful.
type Value struct {
	Kind ValueKind

	Bool  bool
	Long  uint32
	Short uint16
	Comp  uint64
	DUTC  uint64
	Type  FourCC
	Ustr  string
	Blob  []byte
	Book  []byte
	Plist interface{}
}

func BoolValue(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func LongValue(v uint32) Value       { return Value{Kind: KindLong, Long: v} }
func ShortValue(v uint16) Value      { return Value{Kind: KindShort, Short: v} }
func CompValue(v uint64) Value       { return Value{Kind: KindComp, Comp: v} }
func DUTCValue(v uint64) Value       { return Value{Kind: KindDUTC, DUTC: v} }
func TypeValue(t FourCC) Value       { return Value{Kind: KindType, Type: t} }
func UstrValue(s string) Value       { return Value{Kind: KindUstr, Ustr: s} }
func BlobValue(b []byte) Value       { return Value{Kind: KindBlob, Blob: b} }
func BookValue(b []byte) Value       { return Value{Kind: KindBook, Book: b} }
func PropertyListValue(v interface{}) Value {
	return Value{Kind: KindPropertyList, Plist: v}
}
func NullValue() Value { return Value{Kind: KindNull} }

// recordKey is the (filename, typeCode) identity used for deduplication.
type recordKey struct {
	FileName string
	TypeCode FourCC
}

// Record is the user-visible unit of metadata: (filename, typeCode, value).
type Record struct {
	FileName string
	TypeCode FourCC
	Value    Value
}

func (r Record) key() recordKey {
	return recordKey{FileName: r.FileName, TypeCode: r.TypeCode}
}

// SelfSentinel is the reserved filename denoting the directory itself.
const SelfSentinel = "."

// validateFileName enforces the filename rules: no U+0000, and a
// UTF-16 code-unit length that fits in a uint32.
func validateFileName(name string) error {
	if strings.ContainsRune(name, 0) {
		return newErr(CorruptedFile, "filename %q contains U+0000", name)
	}
	n := utf16Len(name)
	if n > 0xFFFFFFFF {
		return newErr(CorruptedFile, "filename %q has %d UTF-16 code units, exceeds uint32", name, n)
	}
	return nil
}

// utf16Len returns the number of UTF-16 code units s would encode to.
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
