package cci

import "verity.dev/core/field"

// NewCubeFieldDefinition layers the CCI TLV vocabulary onto a cube's
// positional layout (cube.Definition), producing the FieldDefinition the
// wire package compiles and decompiles against. The two packages stay
// decoupled (cube doesn't import cci) by having the caller — normally
// the cube package's own constructors — merge them through this
// function rather than cci reaching into cube's internals.
func NewCubeFieldDefinition(base *field.FieldDefinition) *field.FieldDefinition {
	names := make(map[uint16]string, len(base.Names)+len(Names))
	for k, v := range base.Names {
		names[k] = v
	}
	for k, v := range Names {
		names[k] = v
	}

	lengths := make(map[uint16]int, len(base.Lengths)+len(LengthTable))
	for k, v := range base.Lengths {
		lengths[k] = v
	}
	for k, v := range LengthTable {
		lengths[k] = v
	}

	return &field.FieldDefinition{
		Names:            names,
		Lengths:          lengths,
		FrontPositionals: base.FrontPositionals,
		BackPositionals:  base.BackPositionals,
		Defaults:         base.Defaults,
		StopType:         CCIEnd,
		RemainderType:    Remainder,
		PaddingType:      Padding,
		RawContentType:   RawContent,
		Recognized:       Recognized,
	}
}

// Recognized reports whether t is a known TLV type under the core
// vocabulary: a standard field, a custom application field, or the stop
// marker. Unknown standard-range types are rejected per spec.md §4.2
// rather than silently skipped, so a core-only peer never corrupts a
// cube it doesn't fully understand.
func Recognized(t uint16) bool {
	if t == CCIEnd {
		return true
	}
	if IsCustom(t) {
		return true
	}
	_, named := Names[t]
	return named
}
