package cube

import (
	"fmt"

	"verity.dev/core/errs"
	"verity.dev/core/field"
)

func sumLengths(d *field.FieldDefinition, list []uint16) int {
	n := 0
	for _, t := range list {
		n += d.Lengths[t]
	}
	return n
}

// fieldOffset returns the byte offset of positional field type ft
// within a compiled buffer of cube type t.
func fieldOffset(t Type, ft uint16) (int, bool) {
	d := Definition(t)

	off := 0
	for _, f := range d.FrontPositionals {
		if f == ft {
			return off, true
		}
		off += d.Lengths[f]
	}

	off = Size - sumLengths(d, d.BackPositionals)
	for _, f := range d.BackPositionals {
		if f == ft {
			return off, true
		}
		off += d.Lengths[f]
	}
	return 0, false
}

// zeroField overwrites positional field ft's bytes in buf with zeros,
// a no-op if t's layout doesn't carry ft.
func zeroField(buf []byte, t Type, ft uint16) {
	off, ok := fieldOffset(t, ft)
	if !ok {
		return
	}
	n := Definition(t).Lengths[ft]
	for i := 0; i < n; i++ {
		buf[off+i] = 0
	}
}

// writeField copies value into ft's positional slot in buf.
func writeField(buf []byte, t Type, ft uint16, value []byte) error {
	off, ok := fieldOffset(t, ft)
	if !ok {
		return errUnimplementedType(t)
	}
	n := Definition(t).Lengths[ft]
	if len(value) != n {
		return errs.NewReason(errs.KindFieldError, errs.ReasonValueLengthMismatch,
			fmt.Sprintf("%s: got %d bytes, want %d", Definition(t).Names[ft], len(value), n))
	}
	copy(buf[off:off+n], value)
	return nil
}

// readField returns a copy of ft's positional slot in buf.
func readField(buf []byte, t Type, ft uint16) ([]byte, bool) {
	off, ok := fieldOffset(t, ft)
	if !ok {
		return nil, false
	}
	n := Definition(t).Lengths[ft]
	out := make([]byte, n)
	copy(out, buf[off:off+n])
	return out, true
}

func errUnimplementedType(t Type) error {
	return errs.NewReason(errs.KindSmartCubeTypeNotImplemented, errs.ReasonNone,
		fmt.Sprintf("cube type %s has no key/layout rule", t))
}
