package veritum

import (
	"fmt"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/errs"
	"verity.dev/core/field"
	"verity.dev/core/wire"
)

// splitMarker is an internal-only field type, never surfaced to a
// veritum caller: it flags "the field immediately before this one in
// this chunk continues into the next chunk's first field." It lives in
// the CCI-reserved 0x01-0x0F range but is not part of the public CCI
// vocabulary (spec.md §4.6.1's "split marker carried internally").
const splitMarker uint16 = 0x0F

// maxSplitLiteralLen mirrors wire's 1-byte TLV length-literal ceiling,
// so the capacity estimate for an in-progress split matches what
// wire.Compile will actually charge for the header.
const maxSplitLiteralLen = 253

func withSplitMarker(def *field.FieldDefinition) *field.FieldDefinition {
	names := make(map[uint16]string, len(def.Names)+1)
	for k, v := range def.Names {
		names[k] = v
	}
	names[splitMarker] = "SPLIT_CONTINUATION"

	orig := def.Recognized
	out := *def
	out.Names = names
	out.Recognized = func(t uint16) bool {
		if t == splitMarker {
			return true
		}
		if orig != nil {
			return orig(t)
		}
		return false
	}
	return &out
}

func relatesToReserve(def *field.FieldDefinition) int {
	return wire.EncodedFieldSize(def, field.New(cci.RelatesTo, make([]byte, 33)))
}

func splitMarkerSize(def *field.FieldDefinition) int {
	return wire.EncodedFieldSize(def, field.New(splitMarker, nil))
}

// maxSplitValueLen returns the largest value length that fits in
// capacity bytes once TLV-header overhead (type byte plus a 1-byte
// length literal or a 3-byte escaped length) is subtracted.
func maxSplitValueLen(capacity int) int {
	if capacity <= 2 {
		return 0
	}
	avail := capacity - 2
	if avail > maxSplitLiteralLen {
		avail = capacity - 4
		if avail < maxSplitLiteralLen {
			avail = maxSplitLiteralLen
		}
	}
	if avail < 0 {
		return 0
	}
	return avail
}

// split packs fields greedily into chunks, each bounded by capFor(i)
// minus room for the CONTINUED_IN relationship every non-terminal
// chunk will need (reserved pessimistically on every chunk, including
// the eventual last one, trading a little packing density for a
// single straightforward forward pass — spec.md §4.6.1 steps 1-3).
// A field too large for an empty chunk is split in place if it is
// variable-length (step 2a); a fixed-length field that doesn't fit at
// all is an error, since fixed fields can never be partial.
func split(plainDef, notifyDef *field.FieldDefinition, plainType, notifyType cube.Type, isNotify bool, fields []field.Field) ([][]field.Field, error) {
	defFor := func(i int) *field.FieldDefinition {
		if i == 0 && isNotify {
			return notifyDef
		}
		return plainDef
	}
	capFor := func(i int) int {
		if i == 0 && isNotify {
			return cube.PositionalCapacity(notifyType)
		}
		return cube.PositionalCapacity(plainType)
	}

	var chunks [][]field.Field
	var current []field.Field
	used := 0
	idx := 0
	queue := append([]field.Field(nil), fields...)

	flush := func() {
		chunks = append(chunks, current)
		current = nil
		used = 0
		idx++
	}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		def := defFor(idx)
		capacity := capFor(idx) - relatesToReserve(def)
		size := wire.EncodedFieldSize(def, f)

		if used+size <= capacity {
			current = append(current, f)
			used += size
			continue
		}

		if used > 0 {
			flush()
			queue = append([]field.Field{f}, queue...)
			continue
		}

		if _, isFixed := def.FixedLength(f.Type); isFixed {
			return nil, errs.NewReason(errs.KindFieldError, errs.ReasonOversized,
				fmt.Sprintf("%s: fixed-length field larger than chunk capacity", def.Name(f.Type)))
		}

		markerSize := splitMarkerSize(def)
		avail := maxSplitValueLen(capacity - markerSize)
		if avail <= 0 {
			return nil, errs.NewReason(errs.KindFieldError, errs.ReasonOversized, "chunk capacity too small for any field content")
		}
		if avail >= len(f.Value) {
			// Shouldn't happen (size > capacity implied f doesn't fit
			// whole), but guards against an off-by-one in the header
			// size estimate rather than emitting a zero-length remainder.
			avail = len(f.Value)
		}

		part := field.New(f.Type, append([]byte(nil), f.Value[:avail]...))
		current = append(current, part, field.New(splitMarker, nil))
		used += wire.EncodedFieldSize(def, part) + markerSize
		remainder := field.New(f.Type, f.Value[avail:])
		flush()
		if len(remainder.Value) > 0 {
			queue = append([]field.Field{remainder}, queue...)
		}
	}
	if used > 0 || len(chunks) == 0 {
		chunks = append(chunks, current)
	}
	return chunks, nil
}
