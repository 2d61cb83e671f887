package dsstore

import "time"

// The on-disk record layout: a length-prefixed UTF-16BE filename,
// followed by the property's typeCode (a FourCC such as "Iloc"), followed
// by the value's on-disk type code (a FourCC such as "long" or "blob"),
// followed by that type's payload.

var (
	codeBool = MustFourCC("bool")
	codeLong = MustFourCC("long")
	codeShor = MustFourCC("shor")
	codeComp = MustFourCC("comp")
	codeDutc = MustFourCC("dutc")
	codeType = MustFourCC("type")
	codeUstr = MustFourCC("ustr")
	codeBlob = MustFourCC("blob")
	codeBook = MustFourCC("book")
	codeNull = FourCC(0)
)

// dutcOffsetSeconds is the number of seconds between the dutc epoch
// (1904-01-01 UTC) and the Unix epoch (1970-01-01 UTC).
const dutcOffsetSeconds int64 = 2082844800

// dutcScale is the number of dutc units per second.
const dutcScale = 65536

// DUTCFromTime converts a wall-clock time to the dutc on-disk
// representation, rounding toward zero and rejecting times that would
// require values outside uint64 (i.e. before the 1904 epoch).
func DUTCFromTime(t time.Time) (uint64, error) {
	sec := t.Unix() + dutcOffsetSeconds
	if sec < 0 {
		return 0, newErr(CorruptedFile, "time %v is before the dutc epoch (1904-01-01 UTC)", t)
	}
	if uint64(sec) > ^uint64(0)/dutcScale {
		return 0, newErr(CorruptedFile, "time %v is too far in the future for a dutc value", t)
	}
	nsec := int64(t.Nanosecond())
	units := uint64(sec)*dutcScale + uint64(nsec)*dutcScale/1_000_000_000
	return units, nil
}

// TimeFromDUTC converts a dutc on-disk value to a wall-clock time.
func TimeFromDUTC(u uint64) time.Time {
	sec := int64(u/dutcScale) - dutcOffsetSeconds
	fracUnits := u % dutcScale
	nsec := int64(fracUnits) * 1_000_000_000 / dutcScale
	return time.Unix(sec, nsec).UTC()
}

// encodeRecord serializes a single record to its on-disk byte form:
// name length, UTF-16BE name, property typeCode, value-type code, payload.
func encodeRecord(r Record, codec PropertyListCodec) ([]byte, error) {
	if err := validateFileName(r.FileName); err != nil {
		return nil, err
	}
	w := newWriteBuffer()
	nameLen := utf16Len(r.FileName)
	w.U32(uint32(nameLen))
	if err := w.UTF16BE(r.FileName); err != nil {
		return nil, err
	}
	w.FourCC(r.TypeCode)

	valueCode, ok := r.Value.Kind.code()
	if !ok {
		return nil, newErr(UnknownDataType, "value kind %d has no on-disk code", r.Value.Kind)
	}
	w.FourCC(valueCode)

	if err := encodeValuePayload(w, r.Value, codec); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

func encodeValuePayload(w *writeBuffer, v Value, codec PropertyListCodec) error {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		if v.Bool {
			w.Byte(1)
		} else {
			w.Byte(0)
		}
		return nil
	case KindLong:
		w.U32(v.Long)
		return nil
	case KindShort:
		w.U32(uint32(v.Short))
		return nil
	case KindComp:
		w.U64(v.Comp)
		return nil
	case KindDUTC:
		w.U64(v.DUTC)
		return nil
	case KindType:
		w.FourCC(v.Type)
		return nil
	case KindUstr:
		n := utf16Len(v.Ustr)
		w.U32(uint32(n))
		return w.UTF16BE(v.Ustr)
	case KindBlob:
		w.U32(uint32(len(v.Blob)))
		w.Write(v.Blob)
		return nil
	case KindPropertyList:
		encoded, err := codec.Encode(v.Plist)
		if err != nil {
			return wrapErr(PlistSerializationFailed, err, "encoding property-list value for blob record")
		}
		w.U32(uint32(len(encoded)))
		w.Write(encoded)
		return nil
	case KindBook:
		w.U32(uint32(len(v.Book)))
		w.Write(v.Book)
		return nil
	default:
		return newErr(UnknownDataType, "unsupported value kind %d", v.Kind)
	}
}

// decodeRecordAt parses one record from the cursor's current position.
// On blob payloads it attempts a property-list sniff and upgrades the
// value to KindPropertyList on success, falling back to an opaque
// KindBlob on sniff failure or decode error.
func decodeRecordAt(c *cursor, codec PropertyListCodec) (Record, error) {
	nameLen, err := c.U32()
	if err != nil {
		return Record{}, wrapErr(CorruptedFile, err, "reading record filename length")
	}
	name, err := c.UTF16BE(nameLen)
	if err != nil {
		return Record{}, err
	}
	typeCode, err := c.FourCC()
	if err != nil {
		return Record{}, wrapErr(CorruptedFile, err, "reading record typeCode for %q", name)
	}
	valueCode, err := c.FourCC()
	if err != nil {
		return Record{}, wrapErr(CorruptedFile, err, "reading value type code for %q/%s", name, typeCode)
	}
	val, err := decodeValuePayload(c, valueCode, codec)
	if err != nil {
		return Record{}, err
	}
	return Record{FileName: name, TypeCode: typeCode, Value: val}, nil
}

func decodeValuePayload(c *cursor, valueCode FourCC, codec PropertyListCodec) (Value, error) {
	switch valueCode {
	case codeNull:
		return NullValue(), nil
	case codeBool:
		b, err := c.Byte()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading bool payload")
		}
		if b > 1 {
			return Value{}, newErr(CorruptedFile, "bool payload %d is not 0 or 1", b)
		}
		return BoolValue(b == 1), nil
	case codeLong:
		v, err := c.U32()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading long payload")
		}
		return LongValue(v), nil
	case codeShor:
		v, err := c.U32()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading shor payload")
		}
		if v > 0xFFFF {
			return Value{}, newErr(CorruptedFile, "shor payload 0x%X exceeds 16 bits", v)
		}
		return ShortValue(uint16(v)), nil
	case codeComp:
		v, err := c.U64()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading comp payload")
		}
		return CompValue(v), nil
	case codeDutc:
		v, err := c.U64()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading dutc payload")
		}
		return DUTCValue(v), nil
	case codeType:
		t, err := c.FourCC()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading type payload")
		}
		return TypeValue(t), nil
	case codeUstr:
		n, err := c.U32()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading ustr length")
		}
		s, err := c.UTF16BE(n)
		if err != nil {
			return Value{}, err
		}
		return UstrValue(s), nil
	case codeBlob:
		n, err := c.U32()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading blob length")
		}
		raw, err := c.Bytes(int(n))
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading blob payload")
		}
		buf := make([]byte, len(raw))
		copy(buf, raw)
		if codec != nil && codec.Sniff(buf) {
			if decoded, derr := codec.Decode(buf); derr == nil {
				return PropertyListValue(decoded), nil
			}
		}
		return BlobValue(buf), nil
	case codeBook:
		n, err := c.U32()
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading book length")
		}
		raw, err := c.Bytes(int(n))
		if err != nil {
			return Value{}, wrapErr(CorruptedFile, err, "reading book payload")
		}
		buf := make([]byte, len(raw))
		copy(buf, raw)
		return BookValue(buf), nil
	default:
		return Value{}, newErr(UnknownDataType, "unknown value type code %s", valueCode)
	}
}
