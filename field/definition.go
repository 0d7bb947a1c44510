package field

// FieldDefinition describes everything about a cube family's field
// vocabulary that is NOT positional-layout arithmetic (that lives in
// the cube package, which owns byte offsets): the type-name table, the
// per-type fixed-length table, the positional-front/back orderings,
// default-field factories for auto-insertion, and the stop/remainder
// field types.
//
// One FieldDefinition instance is shared by every FieldSet built for a
// given cube type; it is passed in, never looked up from a global
// registry (Design Notes: no singleton parser keyed by type).
type FieldDefinition struct {
	Names map[uint16]string

	// Lengths maps a field type to its fixed byte length. A type absent
	// from this map, or mapped to 0, is variable-length.
	Lengths map[uint16]int

	// FrontPositionals and BackPositionals list positional field types
	// in on-wire order. The cube package resolves them to byte offsets;
	// this package only enforces presence and ordering.
	FrontPositionals []uint16
	BackPositionals  []uint16

	// Defaults supplies a zero-value constructor for a positional field
	// type, used by EnsureInFront/EnsureInBack.
	Defaults map[uint16]func() Field

	StopType       uint16 // CCI_END
	RemainderType  uint16 // synthetic REMAINDER
	PaddingType    uint16 // PADDING
	RawContentType uint16 // synthetic RAWCONTENT, used when TLV parsing is disabled

	// Recognized reports whether t is a known TLV type. nil disables
	// the unknown-type check entirely (not used by any cube type in
	// this revision, but left pluggable for forward-compatible vocab
	// extensions per spec.md §4.2).
	Recognized func(t uint16) bool
}

// FixedLength reports the fixed byte length of t, if any.
func (d *FieldDefinition) FixedLength(t uint16) (int, bool) {
	if d == nil {
		return 0, false
	}
	n, ok := d.Lengths[t]
	if !ok || n == 0 {
		return 0, false
	}
	return n, true
}

// Name returns a human-readable name for t, or a placeholder.
func (d *FieldDefinition) Name(t uint16) string {
	if d == nil {
		return "UNKNOWN"
	}
	if n, ok := d.Names[t]; ok {
		return n
	}
	return "UNKNOWN"
}

func (d *FieldDefinition) isPositional(t uint16, list []uint16) bool {
	for _, p := range list {
		if p == t {
			return true
		}
	}
	return false
}

// IsFrontPositional reports whether t is a front positional field type.
func (d *FieldDefinition) IsFrontPositional(t uint16) bool {
	if d == nil {
		return false
	}
	return d.isPositional(t, d.FrontPositionals)
}

// IsBackPositional reports whether t is a back positional field type.
func (d *FieldDefinition) IsBackPositional(t uint16) bool {
	if d == nil {
		return false
	}
	return d.isPositional(t, d.BackPositionals)
}
