package dsstore

import "fmt"

// FourCC is a four-ASCII-byte identifier stored on disk as a big-endian
// uint32, the way .DS_Store type codes and table-of-contents names are
// represented.
type FourCC uint32

// NewFourCC builds a FourCC from exactly four bytes. It never fails: any
// four bytes, ASCII or not, pack into a valid FourCC.
func NewFourCC(b [4]byte) FourCC {
	return FourCC(uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3]))
}

// ParseFourCC builds a FourCC from a text input. It fails unless s is
// exactly four bytes of 7-bit ASCII.
func ParseFourCC(s string) (FourCC, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("fourcc: %q is not exactly 4 bytes", s)
	}
	var b [4]byte
	for i := 0; i < 4; i++ {
		if s[i] > 0x7f {
			return 0, fmt.Errorf("fourcc: %q contains a non-ASCII byte at index %d", s, i)
		}
		b[i] = s[i]
	}
	return NewFourCC(b), nil
}

// MustFourCC is ParseFourCC for literals known at compile time to be valid.
// It panics on failure; callers should only use it with 4-byte string
// literals such as MustFourCC("Iloc").
func MustFourCC(s string) FourCC {
	f, err := ParseFourCC(s)
	if err != nil {
		panic(err)
	}
	return f
}

// Bytes returns the four raw bytes of the code, most significant first.
func (f FourCC) Bytes() [4]byte {
	return [4]byte{
		byte(f >> 24),
		byte(f >> 16),
		byte(f >> 8),
		byte(f),
	}
}

// String renders the code as text when it is printable ASCII, falling
// back to a hex form otherwise (the on-disk value is never required to be
// printable — unknown/custom codes are preserved verbatim).
func (f FourCC) String() string {
	b := f.Bytes()
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return fmt.Sprintf("0x%08X", uint32(f))
		}
	}
	return string(b[:])
}

// Well-known .DS_Store type codes, named by KnownTypeName. Nothing in
// reading, writing or validation checks a record's code against them; an
// unrecognized code is always a valid "custom" record, never a validity
// error.
var (
	TypeIcon           = MustFourCC("Iloc")
	TypeBackground     = MustFourCC("BKGD")
	TypeWindowState    = MustFourCC("bwsp")
	TypeIconViewProps  = MustFourCC("icvp")
	TypeListViewProps  = MustFourCC("lsvp")
	TypeListViewPropsP = MustFourCC("lsvP")
	TypeGalleryProps   = MustFourCC("glvp")
	TypeViewStyle      = MustFourCC("vstl")
	TypeViewSort       = MustFourCC("vSrn")
	TypeWindowInfo     = MustFourCC("fwi0")
	TypeComment        = MustFourCC("cmmt")
	TypePutBack        = MustFourCC("ptbL")
	TypePicture        = MustFourCC("pict")
	TypeDiskLabel      = MustFourCC("dscl")
	TypeExtension      = MustFourCC("extn")
	TypeGroupFlag      = MustFourCC("GRP0")
	TypeLogicalSize    = MustFourCC("logS")
	TypeLogicalSize64  = MustFourCC("lg1S")
	TypePhysicalSize   = MustFourCC("phyS")
)

var knownTypeNames = map[FourCC]string{
	TypeIcon:           "icon location",
	TypeBackground:     "folder background",
	TypeWindowState:    "window settings",
	TypeIconViewProps:  "icon view properties",
	TypeListViewProps:  "list view properties",
	TypeListViewPropsP: "list view properties (alt)",
	TypeGalleryProps:   "gallery view properties",
	TypeViewStyle:      "view style",
	TypeViewSort:       "view sort order",
	TypeWindowInfo:     "window info",
	TypeComment:        "Finder comment",
	TypePutBack:        "trash put-back location",
	TypePicture:        "background picture alias",
	TypeDiskLabel:      "disk label",
	TypeExtension:      "extension visibility",
	TypeGroupFlag:      "grouping flag",
	TypeLogicalSize:    "logical size cache",
	TypeLogicalSize64:  "logical size cache (64-bit)",
	TypePhysicalSize:   "physical size cache",
}

// KnownTypeName returns a human-readable name for well-known type codes,
// and ok=false for anything else (including all custom/vendor codes,
// which are first-class and valid but unnamed).
func KnownTypeName(f FourCC) (name string, ok bool) {
	name, ok = knownTypeNames[f]
	return name, ok
}
