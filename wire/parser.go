// Package wire implements the Cube field parser (C2): compiling a
// field.FieldSet to a fixed-size buffer and back, under a
// field.FieldDefinition. Modeled on consensus/wire.go's cursor-based
// reads and consensus/encode.go's append-style writes, generalized
// from Bitcoin-style positional+varint wire records to the Cube's
// positional-front/TLV-payload/positional-back layout.
package wire

import (
	"crypto/rand"
	"fmt"

	"verity.dev/core/errs"
	"verity.dev/core/field"
)

// Compile writes fs into a cubeSize-byte buffer: positional-front
// fields at offset 0, TLV-encoded payload fields in the middle, and
// positional-back fields at the end. When the payload is shorter than
// its region's capacity, a single CCI_END marker is written followed
// by filler (a PADDING field when there's room for one, otherwise raw
// random bytes) so the compiled buffer is always exactly cubeSize
// bytes (spec.md §4.2, invariant 1).
func Compile(fs *field.FieldSet, cubeSize int) ([]byte, error) {
	def := fs.Def
	all := fs.All()
	nFront := len(def.FrontPositionals)
	nBack := len(def.BackPositionals)

	if len(all) < nFront+nBack {
		return nil, errs.NewReason(errs.KindFieldError, errs.ReasonMissingPositional, "field set shorter than positional schema")
	}

	frontSlice := all[:nFront]
	backSlice := all[len(all)-nBack:]
	payloadSlice := all[nFront : len(all)-nBack]

	frontBytes, err := encodePositionals(def, def.FrontPositionals, frontSlice)
	if err != nil {
		return nil, err
	}
	backBytes, err := encodePositionals(def, def.BackPositionals, backSlice)
	if err != nil {
		return nil, err
	}

	capacity := cubeSize - len(frontBytes) - len(backBytes)
	if capacity < 0 {
		return nil, errs.NewReason(errs.KindFieldError, errs.ReasonOversized, "positional schema exceeds cube size")
	}

	payloadBytes, err := encodePayload(def, payloadSlice)
	if err != nil {
		return nil, err
	}
	if len(payloadBytes) > capacity {
		return nil, errs.NewReason(errs.KindFieldError, errs.ReasonOversized, "field list exceeds cube capacity; split before compiling")
	}

	payloadBytes, err = pad(def, payloadBytes, capacity)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, cubeSize)
	out = append(out, frontBytes...)
	out = append(out, payloadBytes...)
	out = append(out, backBytes...)
	if len(out) != cubeSize {
		return nil, errs.New(errs.KindFieldError, "internal: compiled length mismatch")
	}
	return out, nil
}

func encodePositionals(def *field.FieldDefinition, order []uint16, fields []field.Field) ([]byte, error) {
	var out []byte
	for i, t := range order {
		f := fields[i]
		if f.Type != t {
			return nil, errs.NewReason(errs.KindFieldError, errs.ReasonWrongPositionalOrder,
				fmt.Sprintf("expected positional %s at slot %d, got %s", def.Name(t), i, def.Name(f.Type)))
		}
		n, ok := def.FixedLength(t)
		if !ok {
			return nil, errs.NewReason(errs.KindFieldError, errs.ReasonMissingPositional, "positional type has no fixed length in definition")
		}
		if len(f.Value) != n {
			return nil, errs.NewReason(errs.KindFieldError, errs.ReasonValueLengthMismatch,
				fmt.Sprintf("%s: got %d bytes, want %d", def.Name(t), len(f.Value), n))
		}
		out = append(out, f.Value...)
	}
	return out, nil
}

// EncodedFieldSize returns the number of bytes f would occupy once
// TLV-encoded under def — header plus value. The veritum splitter uses
// this to pack fields into chunks without compiling a trial buffer.
func EncodedFieldSize(def *field.FieldDefinition, f field.Field) int {
	_, isFixed := def.FixedLength(f.Type)
	return headerLen(isFixed, len(f.Value)) + len(f.Value)
}

func encodePayload(def *field.FieldDefinition, fields []field.Field) ([]byte, error) {
	var out []byte
	for _, f := range fields {
		fixedLen, isFixed := def.FixedLength(f.Type)
		if isFixed && len(f.Value) != fixedLen {
			return nil, errs.NewReason(errs.KindFieldError, errs.ReasonValueLengthMismatch,
				fmt.Sprintf("%s: got %d bytes, want %d", def.Name(f.Type), len(f.Value), fixedLen))
		}
		var err error
		out, err = encodeHeader(out, byte(f.Type), isFixed, len(f.Value))
		if err != nil {
			return nil, err
		}
		out = append(out, f.Value...)
	}
	return out, nil
}

// pad appends the CCI_END marker and filler bytes so that payload
// grows to exactly capacity bytes.
func pad(def *field.FieldDefinition, payload []byte, capacity int) ([]byte, error) {
	remaining := capacity - len(payload)
	if remaining <= 0 {
		return payload, nil
	}
	payload = append(payload, byte(def.StopType))
	remaining--
	if remaining == 0 {
		return payload, nil
	}
	if remaining == 1 {
		b := make([]byte, 1)
		if _, err := rand.Read(b); err != nil {
			return nil, err
		}
		return append(payload, b...), nil
	}

	valueLen := remaining - 2
	extra := 0
	if valueLen > maxLiteralLen {
		valueLen = remaining - 4
		if valueLen <= maxLiteralLen {
			// 256 or 257 bytes left: too many for a literal-length
			// PADDING, too few for an escaped one. Use the largest
			// literal PADDING and follow it with raw random bytes.
			valueLen = maxLiteralLen
			extra = remaining - 2 - maxLiteralLen
		}
	}
	filler := make([]byte, valueLen+extra)
	if _, err := rand.Read(filler); err != nil {
		return nil, err
	}
	hdr, err := encodeHeader(nil, byte(def.PaddingType), false, valueLen)
	if err != nil {
		return nil, err
	}
	payload = append(payload, hdr...)
	payload = append(payload, filler...)
	return payload, nil
}

// Decompile parses a cubeSize-byte buffer into a FieldSet. With tlv
// true, the payload region is parsed as a TLV stream and an unknown
// type is a fatal FieldError (spec.md §4.2). With tlv false, the
// entire payload region is surfaced as one RAWCONTENT field — the
// "core only" interpretation used by forwarding-only peers.
func Decompile(buf []byte, def *field.FieldDefinition, cubeSize int, tlv bool) (*field.FieldSet, error) {
	if len(buf) != cubeSize {
		return nil, errs.New(errs.KindBinaryLengthError, fmt.Sprintf("buffer is %d bytes, want %d", len(buf), cubeSize))
	}

	frontLen := sumFixed(def, def.FrontPositionals)
	backLen := sumFixed(def, def.BackPositionals)
	if frontLen+backLen > len(buf) {
		return nil, errs.New(errs.KindBinaryLengthError, "buffer shorter than positional schema")
	}

	fs := field.NewFieldSet(def)
	offset := 0
	for _, t := range def.FrontPositionals {
		n := def.Lengths[t]
		fs.AppendField(field.New(t, buf[offset:offset+n]).AtStart(uint16(offset)))
		offset += n
	}

	payloadStart := offset
	payloadEnd := len(buf) - backLen
	payload := buf[payloadStart:payloadEnd]

	if tlv {
		if err := decompilePayload(def, fs, payload, payloadStart); err != nil {
			return nil, err
		}
	} else {
		fs.AppendField(field.New(def.RawContentType, append([]byte(nil), payload...)).AtStart(uint16(payloadStart)))
	}

	offset = payloadEnd
	for _, t := range def.BackPositionals {
		n := def.Lengths[t]
		fs.AppendField(field.New(t, buf[offset:offset+n]).AtStart(uint16(offset)))
		offset += n
	}

	return fs, nil
}

func decompilePayload(def *field.FieldDefinition, fs *field.FieldSet, payload []byte, payloadStart int) error {
	c := newCursor(payload)
	for c.remaining() > 0 {
		start := c.pos
		tb, err := c.readByte()
		if err != nil {
			return err
		}
		t := uint16(tb)

		if t == def.StopType {
			fs.AppendField(field.New(def.StopType, nil).AtStart(uint16(payloadStart + start)))
			if c.remaining() > 0 {
				rem := append([]byte(nil), payload[c.pos:]...)
				fs.AppendField(field.New(def.RemainderType, rem).AtStart(uint16(payloadStart + c.pos)))
			}
			return nil
		}

		if def.Recognized != nil && !def.Recognized(t) {
			return errs.NewReason(errs.KindFieldError, errs.ReasonUnknownType, fmt.Sprintf("unknown TLV type 0x%02x", t))
		}

		fixedLen, isFixed := def.FixedLength(t)
		var value []byte
		if isFixed {
			value, err = c.readExact(fixedLen)
		} else {
			var n int
			n, err = readLength(c)
			if err == nil {
				value, err = c.readExact(n)
			}
		}
		if err != nil {
			return err
		}
		fs.AppendField(field.New(t, value).AtStart(uint16(payloadStart + start)))
	}
	return nil
}

// EncodeFields TLV-encodes fields with no positional framing and no
// padding — used where a caller needs a flat TLV buffer that isn't a
// cube payload region, such as crypt's pre-encryption serialization.
func EncodeFields(def *field.FieldDefinition, fields []field.Field) ([]byte, error) {
	return encodePayload(def, fields)
}

// DecodeFields parses a flat TLV buffer with no outer framing, reading
// until the buffer is exhausted or a CCI_END marker is hit (anything
// after CCI_END is discarded, mirroring decompilePayload's REMAINDER
// handling but without surfacing it as a field).
func DecodeFields(def *field.FieldDefinition, buf []byte) ([]field.Field, error) {
	fs := field.NewFieldSet(def)
	if err := decompilePayload(def, fs, buf, 0); err != nil {
		return nil, err
	}
	var out []field.Field
	for _, f := range fs.All() {
		if f.Type == def.StopType || f.Type == def.RemainderType {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func sumFixed(def *field.FieldDefinition, order []uint16) int {
	n := 0
	for _, t := range order {
		n += def.Lengths[t]
	}
	return n
}
