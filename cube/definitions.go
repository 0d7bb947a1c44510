package cube

import "verity.dev/core/field"

// Definitions built here leave Recognized nil; cci.NewCubeFieldDefinition
// fills it in when it layers the TLV vocabulary over a cube layout, so
// each cube type's TLV vocabulary can be swapped in by the caller
// without this package importing cci.

func baseNames() map[uint16]string {
	return map[uint16]string{
		FieldTypeCode:    "TYPE",
		FieldNonce:       "NONCE",
		FieldDate:        "DATE",
		FieldSignature:   "SIGNATURE",
		FieldPublicKey:   "PUBLIC_KEY",
		FieldNotify:      "NOTIFY",
		FieldUpdateCount: "PMUC_UPDATE_COUNT",
	}
}

func baseLengths() map[uint16]int {
	return map[uint16]int{
		FieldTypeCode:    lenType,
		FieldNonce:       lenNonce,
		FieldDate:        lenDate,
		FieldSignature:   lenSignature,
		FieldPublicKey:   lenPublicKey,
		FieldNotify:      lenNotify,
		FieldUpdateCount: lenUpdateCount,
	}
}

func baseDefaults() map[uint16]func() field.Field {
	return map[uint16]func() field.Field{
		FieldNonce:  func() field.Field { return field.New(FieldNonce, make([]byte, lenNonce)) },
		FieldDate:   func() field.Field { return field.New(FieldDate, make([]byte, lenDate)) },
		FieldNotify: func() field.Field { return field.New(FieldNotify, make([]byte, lenNotify)) },
	}
}

// Definition returns the field.FieldDefinition describing t's positional
// layout. The stop/remainder/padding types and Recognized hook are left
// for the caller (normally cci.NewCubeFieldDefinition) to fill in, since
// the TLV payload vocabulary is a CCI concern, not a cube-layout concern.
func Definition(t Type) *field.FieldDefinition {
	d := &field.FieldDefinition{
		Names:    baseNames(),
		Lengths:  baseLengths(),
		Defaults: baseDefaults(),
	}

	d.FrontPositionals = []uint16{FieldTypeCode}

	// Back run follows spec.md §3 exactly: NONCE, then SIGNATURE for
	// signed types, then DATE (every type carries one), then PUBLIC_KEY
	// for signed types, then PMUC_UPDATE_COUNT, then NOTIFY last.
	back := []uint16{FieldNonce}
	if t.IsSigned() {
		back = append(back, FieldSignature)
	}
	back = append(back, FieldDate)
	if t.IsSigned() {
		back = append(back, FieldPublicKey)
	}
	if t.IsPMUC() {
		back = append(back, FieldUpdateCount)
	}
	if t.IsNotify() {
		back = append(back, FieldNotify)
	}
	d.BackPositionals = back

	return d
}

// PositionalCapacity returns the number of payload bytes left after t's
// positional fields, i.e. Size minus the front and back positional
// regions.
func PositionalCapacity(t Type) int {
	d := Definition(t)
	n := Size
	for _, f := range d.FrontPositionals {
		n -= d.Lengths[f]
	}
	for _, f := range d.BackPositionals {
		n -= d.Lengths[f]
	}
	return n
}

func init() {
	for _, t := range AllTypes {
		if PositionalCapacity(t) <= 0 {
			panic("cube: positional layout leaves no payload capacity for " + t.String())
		}
	}
}
