package dsstore

import "strings"

// IconPosition is the decoded form of an Iloc record: an icon's (x, y)
// position within its containing window.
type IconPosition struct {
	X, Y uint32
}

// IconPositionValue encodes an icon position into its 16-byte blob
// payload: x, y, six 0xFF bytes, two zero bytes.
func IconPositionValue(x, y uint32) Value {
	w := newWriteBuffer()
	w.U32(x)
	w.U32(y)
	w.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00})
	return BlobValue(w.Bytes())
}

// DecodeIconPosition reads back the (x, y) pair from an Iloc blob value.
func DecodeIconPosition(v Value) (IconPosition, error) {
	if v.Kind != KindBlob || len(v.Blob) < 16 {
		return IconPosition{}, newErr(CorruptedFile, "Iloc value is not a 16-byte blob")
	}
	c := newCursor(v.Blob)
	x, err := c.U32()
	if err != nil {
		return IconPosition{}, err
	}
	y, err := c.U32()
	if err != nil {
		return IconPosition{}, err
	}
	return IconPosition{X: x, Y: y}, nil
}

// BackgroundKind identifies which BKGD variant a record carries.
type BackgroundKind int

const (
	BackgroundDefault BackgroundKind = iota
	BackgroundColor
	BackgroundPicture
)

// Background is the decoded form of a BKGD record.
type Background struct {
	Kind          BackgroundKind
	R, G, B       uint16 // valid when Kind == BackgroundColor
	PictureAlias  []byte // the separate `pict` record's payload, not carried here
	PictureLength uint32 // aliasLen field of the PctB payload
}

func backgroundTagDefault() []byte { return []byte("DefB") }
func backgroundTagColor() []byte   { return []byte("ClrB") }
func backgroundTagPicture() []byte { return []byte("PctB") }

// DefaultBackgroundValue encodes the "use the default background" BKGD
// payload.
func DefaultBackgroundValue() Value {
	return BlobValue(append([]byte{}, backgroundTagDefault()...))
}

// ColorBackgroundValue encodes a solid-color BKGD payload.
func ColorBackgroundValue(r, g, b uint16) Value {
	w := newWriteBuffer()
	w.Write(backgroundTagColor())
	w.U16(r)
	w.U16(g)
	w.U16(b)
	w.U16(0)
	return BlobValue(w.Bytes())
}

// PictureBackgroundValue encodes a picture-backed BKGD payload; the
// picture bytes themselves live in a companion `pict` record.
func PictureBackgroundValue(aliasLen uint32) Value {
	w := newWriteBuffer()
	w.Write(backgroundTagPicture())
	w.U32(aliasLen)
	w.U32(0)
	return BlobValue(w.Bytes())
}

// DecodeBackground reads back a Background from a BKGD blob value.
func DecodeBackground(v Value) (Background, error) {
	if v.Kind != KindBlob || len(v.Blob) < 4 {
		return Background{}, newErr(CorruptedFile, "BKGD value is not a tagged blob")
	}
	tag := v.Blob[:4]
	switch {
	case string(tag) == "DefB":
		return Background{Kind: BackgroundDefault}, nil
	case string(tag) == "ClrB":
		c := newCursor(v.Blob[4:])
		r, err := c.U16()
		if err != nil {
			return Background{}, err
		}
		g, err := c.U16()
		if err != nil {
			return Background{}, err
		}
		b, err := c.U16()
		if err != nil {
			return Background{}, err
		}
		return Background{Kind: BackgroundColor, R: r, G: g, B: b}, nil
	case string(tag) == "PctB":
		c := newCursor(v.Blob[4:])
		aliasLen, err := c.U32()
		if err != nil {
			return Background{}, err
		}
		return Background{Kind: BackgroundPicture, PictureLength: aliasLen}, nil
	default:
		return Background{}, newErr(CorruptedFile, "unrecognized BKGD tag %q", tag)
	}
}

// WindowInfo is the decoded form of an fwi0 record: window bounds plus
// the view style shown when the window was last saved open.
type WindowInfo struct {
	Top, Left, Bottom, Right uint16
	ViewStyle                FourCC
}

// WindowInfoValue encodes an fwi0 payload.
func WindowInfoValue(w WindowInfo) Value {
	buf := newWriteBuffer()
	buf.U16(w.Top)
	buf.U16(w.Left)
	buf.U16(w.Bottom)
	buf.U16(w.Right)
	buf.FourCC(w.ViewStyle)
	buf.Write(make([]byte, 4))
	return BlobValue(buf.Bytes())
}

// DecodeWindowInfo reads back a WindowInfo from an fwi0 blob value.
func DecodeWindowInfo(v Value) (WindowInfo, error) {
	if v.Kind != KindBlob || len(v.Blob) < 12 {
		return WindowInfo{}, newErr(CorruptedFile, "fwi0 value is not a 12-byte blob")
	}
	c := newCursor(v.Blob)
	var w WindowInfo
	var err error
	if w.Top, err = c.U16(); err != nil {
		return WindowInfo{}, err
	}
	if w.Left, err = c.U16(); err != nil {
		return WindowInfo{}, err
	}
	if w.Bottom, err = c.U16(); err != nil {
		return WindowInfo{}, err
	}
	if w.Right, err = c.U16(); err != nil {
		return WindowInfo{}, err
	}
	if w.ViewStyle, err = c.FourCC(); err != nil {
		return WindowInfo{}, err
	}
	return w, nil
}

// View style codes for the vstl record.
var (
	ViewStyleIcon   = MustFourCC("icnv")
	ViewStyleColumn = MustFourCC("clmv")
	ViewStyleList   = MustFourCC("Nlsv")
	ViewStyleFlow   = MustFourCC("Flwv")
)

// ViewStyleValue encodes a vstl record's value.
func ViewStyleValue(style FourCC) Value { return TypeValue(style) }

// View sort codes for the vSrn record.
var (
	ViewSortNone     = MustFourCC("none")
	ViewSortName     = MustFourCC("name")
	ViewSortKind     = MustFourCC("kind")
	ViewSortModified = MustFourCC("modd")
	ViewSortCreated  = MustFourCC("crea")
	ViewSortSize     = MustFourCC("size")
	ViewSortLabel    = MustFourCC("labl")
)

// ViewSortValue encodes a vSrn record's value.
func ViewSortValue(sort FourCC) Value { return TypeValue(sort) }

// PutBackLocationValue encodes a ptbL record's value, prefixing the
// path with "/" if it isn't already rooted.
func PutBackLocationValue(path string) Value {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return UstrValue(path)
}

// DecodePutBackLocation reads back the path from a ptbL record's value.
func DecodePutBackLocation(v Value) (string, error) {
	if v.Kind != KindUstr {
		return "", newErr(CorruptedFile, "ptbL value is not a ustr")
	}
	return v.Ustr, nil
}

// SizeValue encodes one of the logS/lg1S/phyS directory-size cache
// records, all of which share the comp (u64) on-disk representation.
func SizeValue(bytes uint64) Value { return CompValue(bytes) }

// DecodeSize reads back the byte count from a logS/lg1S/phyS value.
func DecodeSize(v Value) (uint64, error) {
	if v.Kind != KindComp {
		return 0, newErr(CorruptedFile, "size record value is not a comp")
	}
	return v.Comp, nil
}

// PlistSettings exposes the decoded property-list value of a
// bwsp/icvp/lsvp/lsvP/glvp record, when the injected codec was able to
// decode it. Key-level typed views are left to callers; this is a thin
// pass-through, not a parser.
func PlistSettings(v Value) (interface{}, bool) {
	if v.Kind != KindPropertyList {
		return nil, false
	}
	return v.Plist, true
}
