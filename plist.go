package dsstore

import "bytes"

var (
	plistBinarySignature = []byte("bplist")
	plistXMLSignature    = []byte("<?xml")
)

// PropertyListCodec is the injectable boundary for property-list
// encoding and decoding, kept deliberately outside the core. Callers
// that need the `bwsp`/`icvp`/`lsvp`/`lsvP`/`glvp`/picture-alias
// payloads as structured values supply an implementation backed by
// whichever plist library they already depend on (e.g.
// howett.net/plist); this package only needs to sniff the magic and
// round-trip opaque bytes.
type PropertyListCodec interface {
	// Sniff reports whether b looks like a property list (binary or XML).
	Sniff(b []byte) bool
	// Decode parses plist bytes into a codec-defined value. Decode is only
	// called after Sniff has returned true for the same bytes.
	Decode(b []byte) (interface{}, error)
	// Encode serializes a previously-decoded value back to binary
	// property-list bytes for the `blob` on-disk representation.
	Encode(v interface{}) ([]byte, error)
}

// defaultPropertyListCodec sniffs the standard bplist/XML magic bytes but
// never actually parses the tree. Decode and Encode are round-trip
// no-ops over the raw bytes, which keeps the read-upgrade /
// write-downgrade contract well-defined even with nothing smarter wired
// in: a blob that sniffs as a plist survives a read/write cycle unchanged.
type defaultPropertyListCodec struct{}

// DefaultPropertyListCodec is the zero-dependency PropertyListCodec used
// when Options.PropertyListCodec is left nil.
var DefaultPropertyListCodec PropertyListCodec = defaultPropertyListCodec{}

func (defaultPropertyListCodec) Sniff(b []byte) bool {
	return bytes.HasPrefix(b, plistBinarySignature) || bytes.HasPrefix(b, plistXMLSignature)
}

func (defaultPropertyListCodec) Decode(b []byte) (interface{}, error) {
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (defaultPropertyListCodec) Encode(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out, nil
	default:
		return nil, newErr(PlistSerializationFailed, "default property-list codec cannot encode %T; supply a real PropertyListCodec via Options", v)
	}
}
