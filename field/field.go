// Package field implements the Cube field model (C1): typed records
// with lengths, ordering, and equality, independent of any one cube
// type's byte layout.
package field

import "bytes"

// Field is a single typed record. Start is populated only once a
// field has a known byte offset in a compiled buffer — by the parser
// during decompilation, or by the compiler after layout. HasStart
// distinguishes "not yet placed" from "placed at offset 0" (Design
// Notes: no lazy nil/undefined offsets).
type Field struct {
	Type     uint16
	Value    []byte
	Start    uint16
	HasStart bool
}

// New builds an unplaced field.
func New(t uint16, value []byte) Field {
	return Field{Type: t, Value: append([]byte(nil), value...)}
}

// AtStart returns a copy of f placed at the given byte offset.
func (f Field) AtStart(start uint16) Field {
	f.Start = start
	f.HasStart = true
	return f
}

// Equals compares type and value, and optionally byte offset.
func (f Field) Equals(other Field, compareLocation bool) bool {
	if f.Type != other.Type {
		return false
	}
	if !bytes.Equal(f.Value, other.Value) {
		return false
	}
	if compareLocation {
		if f.HasStart != other.HasStart {
			return false
		}
		if f.HasStart && f.Start != other.Start {
			return false
		}
	}
	return true
}
