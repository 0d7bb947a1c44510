package wire

import "verity.dev/core/errs"

// TLV length-byte escapes. A field whose definition marks it
// fixed-length carries no length byte at all: its header is the
// single type byte (spec.md §4.2, "derive header length from the
// definition's length table rather than hard-coding the literal 2",
// spec.md §9). A variable-length field carries a type byte followed
// by one of:
//
//	0x00-0xFD  literal length, 0-253 bytes
//	0xFE       escape: a 2-byte big-endian length follows (254-65535)
//	0xFF       escape: no length bytes and no body follow (length 0)
const (
	lenEscape2Byte byte = 0xFE
	lenEscapeEmpty byte = 0xFF
	maxLiteralLen       = 0xFD // 253
)

// headerLen returns the number of header bytes (type byte included)
// that encoding a field of the given fixed-or-not length would need
// for a value of length valueLen. It is a pure function of the
// definition's length table, never an inlined constant (spec.md §9's
// redesign flag on the hard-coded "2").
func headerLen(fixed bool, valueLen int) int {
	if fixed {
		return 1
	}
	switch {
	case valueLen == 0:
		return 1 + 1 // type byte + 0x00 literal
	case valueLen <= maxLiteralLen:
		return 1 + 1
	default:
		return 1 + 1 + 2
	}
}

// encodeHeader appends the type byte and (if not fixed-length) the
// length header for a value of length valueLen.
func encodeHeader(out []byte, typeByte byte, fixed bool, valueLen int) ([]byte, error) {
	out = append(out, typeByte)
	if fixed {
		return out, nil
	}
	switch {
	case valueLen == 0:
		out = append(out, 0x00)
	case valueLen <= maxLiteralLen:
		out = append(out, byte(valueLen))
	case valueLen <= 0xFFFF:
		out = append(out, lenEscape2Byte, byte(valueLen>>8), byte(valueLen))
	default:
		return nil, errs.NewReason(errs.KindFieldError, errs.ReasonLengthOverflow, "value exceeds 65535 bytes")
	}
	return out, nil
}

// readLength reads a variable-length field's length header (the type
// byte has already been consumed).
func readLength(c *cursor) (int, error) {
	b, err := c.readByte()
	if err != nil {
		return 0, err
	}
	switch {
	case b == lenEscapeEmpty:
		return 0, nil
	case b == lenEscape2Byte:
		n, err := c.readU16be()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	case b <= maxLiteralLen:
		return int(b), nil
	default:
		return 0, errs.NewReason(errs.KindFieldError, errs.ReasonLengthOverflow, "invalid length escape byte")
	}
}
