package cci

import (
	"fmt"

	"verity.dev/core/field"
)

// Relationship types (spec.md §3/§4.5). Codes >= 128 are
// application-private.
const (
	RelContinuedIn uint8 = 1
	RelReplyTo     uint8 = 3
	RelQuotation   uint8 = 4
	RelMyPost      uint8 = 5
	RelMention     uint8 = 6
	RelAuthorHint  uint8 = 7
	RelReplacedBy  uint8 = 11
	RelReplaces    uint8 = 12
)

// relationshipLimits maps a relationship type to its per-cube count
// limit. A type absent here is unlimited. Enforcement is the
// application's responsibility; the core only exposes the lookup
// (spec.md §4.5).
var relationshipLimits = map[uint8]int{
	RelContinuedIn: 1,
	RelReplyTo:     1,
	RelAuthorHint:  1,
	RelReplacedBy:  1,
}

// RelationshipLimit returns the per-cube count limit for t, and
// whether a limit exists at all (unlimited otherwise).
func RelationshipLimit(t uint8) (limit int, limited bool) {
	n, ok := relationshipLimits[t]
	return n, ok
}

// Relationship is the parsed form of a RELATES_TO field's value: a
// typed 32-byte reference from one cube to another.
type Relationship struct {
	Type      uint8
	RemoteKey [32]byte
}

// BuildRelatesTo encodes a Relationship as a RELATES_TO field.
func BuildRelatesTo(r Relationship) field.Field {
	v := make([]byte, 33)
	v[0] = r.Type
	copy(v[1:], r.RemoteKey[:])
	return field.New(RelatesTo, v)
}

// ParseRelatesTo decodes a RELATES_TO field's value back into a
// Relationship. f.Value must be exactly 33 bytes.
func ParseRelatesTo(f field.Field) (Relationship, error) {
	if f.Type != RelatesTo {
		return Relationship{}, fmt.Errorf("cci: ParseRelatesTo: wrong field type %d", f.Type)
	}
	if len(f.Value) != 33 {
		return Relationship{}, fmt.Errorf("cci: ParseRelatesTo: value length %d, want 33", len(f.Value))
	}
	var r Relationship
	r.Type = f.Value[0]
	copy(r.RemoteKey[:], f.Value[1:])
	return r, nil
}
