// Package external declares the narrow contracts the Cube core
// exposes to its out-of-scope collaborators (spec.md §6): a cube
// store, a cube retriever, and the capability set shared by a single
// Cube and a multi-chunk Veritum. None of these are implemented here
// beyond the reference adapter in package storetest — the core must
// not depend on any concrete transport, index, or identity layer
// (spec.md §1's Non-goals).
package external

import (
	"context"
	"encoding/hex"
	"iter"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/field"
)

func hexKey(k cube.Key) string { return hex.EncodeToString(k[:]) }

// CubeInfo is the event payload CubeStore emits on cubeAdded, mirroring
// spec.md §6's "emits cubeAdded(CubeInfo)".
type CubeInfo struct {
	Key  cube.Key
	Type cube.Type
}

// CubeStore is the external key/cube map the core's output feeds. The
// core produces a Cube and a key; a CubeStore maps keys to cubes and
// exposes notification routing. The Cube core never implements this
// interface itself (spec.md §1: "the on-disk cube index... out of
// scope").
type CubeStore interface {
	Put(ctx context.Context, c *cube.Cube) error
	Get(ctx context.Context, key cube.Key, opts RetrieveOptions) (*cube.Cube, error)
	AllKeys(ctx context.Context) iter.Seq[cube.Key]
	Notifications(ctx context.Context, recipient cube.Key) iter.Seq[*cube.Cube]

	// OnCubeAdded and OnNotificationAdded register callbacks fired
	// synchronously from Put, matching spec.md §6's cubeAdded /
	// notificationAdded events.
	OnCubeAdded(func(CubeInfo))
	OnNotificationAdded(func(recipient cube.Key, c *cube.Cube))
}

// RetrieveOptions configures a CubeRetriever.Get call. TLV controls
// whether the returned cube should be parseable under the CCI
// vocabulary (true) or only as RAWCONTENT (false) — the "core only"
// interpretation of spec.md §4.2.
type RetrieveOptions struct {
	TLV bool
}

// CubeRetriever returns a single cube by key, asynchronously (in Go
// terms: it may block on I/O, so it takes a context). Used by Resolve
// to walk a relationship graph.
type CubeRetriever interface {
	Get(ctx context.Context, key cube.Key, opts RetrieveOptions) (*cube.Cube, error)
}

// Veritable is the capability set spec.md §6 requires of both a single
// Cube and a composed Veritum: identity plus read access to its
// relationships and fields. A *cube.Cube satisfies it through the
// CubeVeritable adapter and a recombined Veritum's field list through
// VeritumVeritable; neither type implements it directly.
type Veritable interface {
	Key() cube.Key
	KeyString() string
	Relationships(relType *uint8) []cci.Relationship
	Fields(fieldType *uint16) []field.Field
}

// CubeVeritable adapts a single compiled *cube.Cube to Veritable.
type CubeVeritable struct {
	C *cube.Cube
}

func (v CubeVeritable) Key() cube.Key    { return v.C.Key() }
func (v CubeVeritable) KeyString() string { return v.C.KeyHex() }

func (v CubeVeritable) Relationships(relType *uint8) []cci.Relationship {
	fields, err := v.C.PayloadFields()
	if err != nil {
		return nil
	}
	return relationshipsFromFields(fields, relType)
}

func (v CubeVeritable) Fields(fieldType *uint16) []field.Field {
	fields, err := v.C.PayloadFields()
	if err != nil {
		return nil
	}
	return filterFields(fields, fieldType)
}

// VeritumVeritable adapts a *veritum.Veritum to Veritable. Veritum
// itself exposes its logical field list as the struct field Fields, so
// the method name Fields() would collide; the adapter lives here
// rather than on the veritum package to keep veritum free of an
// external import.
type VeritumVeritable struct {
	Key_    cube.Key
	Fields_ []field.Field
}

func (v VeritumVeritable) Key() cube.Key    { return v.Key_ }
func (v VeritumVeritable) KeyString() string { return hexKey(v.Key_) }

func (v VeritumVeritable) Relationships(relType *uint8) []cci.Relationship {
	return relationshipsFromFields(v.Fields_, relType)
}

func (v VeritumVeritable) Fields(fieldType *uint16) []field.Field {
	return filterFields(v.Fields_, fieldType)
}

func relationshipsFromFields(fields []field.Field, relType *uint8) []cci.Relationship {
	var out []cci.Relationship
	for _, f := range fields {
		if f.Type != cci.RelatesTo {
			continue
		}
		rel, err := cci.ParseRelatesTo(f)
		if err != nil {
			continue
		}
		if relType != nil && rel.Type != *relType {
			continue
		}
		out = append(out, rel)
	}
	return out
}

func filterFields(fields []field.Field, fieldType *uint16) []field.Field {
	if fieldType == nil {
		return fields
	}
	var out []field.Field
	for _, f := range fields {
		if f.Type == *fieldType {
			out = append(out, f)
		}
	}
	return out
}
