// Package veritum implements the Veritum composer (C6): splitting a
// field list across as many fixed-size cubes as it takes, and
// recombining a chain of cubes back into one logical field list.
// Modeled on consensus/block.go's "pack transactions into a weight
// budget" loop, generalized from a byte-weight budget to a cube's TLV
// payload capacity.
package veritum

import (
	"context"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/errs"
	"verity.dev/core/field"
)

// Veritum is a not-yet-split (or freshly recombined) logical content
// item: a field list addressed under one cube.Type. Type carries the
// notify bit the caller wants on chunk 0; later chunks always compile
// under PlainVariant() regardless of Type's notify bit (spec.md §4.6.1
// step 5: "notify variant only on the first chunk").
type Veritum struct {
	Type        cube.Type
	Keys        *cube.Keys
	Notify      [32]byte
	UpdateCount uint32
	Fields      []field.Field

	// Chunks is populated by Compile and FromChunks.
	Chunks []*cube.Cube
}

// New builds an uncompiled Veritum from a field list.
func New(t cube.Type, fields []field.Field) *Veritum {
	return &Veritum{Type: t, Fields: append([]field.Field(nil), fields...)}
}

func plainDef(t cube.Type) *field.FieldDefinition {
	return cci.NewCubeFieldDefinition(cube.Definition(t.PlainVariant()))
}

func notifyDef(t cube.Type) *field.FieldDefinition {
	return cci.NewCubeFieldDefinition(cube.Definition(t.NotifyVariant()))
}

// Compile splits v.Fields across as many chunks as needed and compiles
// each one, chaining them with CONTINUED_IN relationships. Chunks are
// ed25519-signed/nonce-ground last to first (spec.md §4.6.1 step 4) so
// each non-terminal chunk's CONTINUED_IN can reference the already-known
// key of its successor.
func (v *Veritum) Compile(ctx context.Context, difficulty int) ([]*cube.Cube, error) {
	pDef := withSplitMarker(plainDef(v.Type))
	nDef := withSplitMarker(notifyDef(v.Type))

	chunkFields, err := split(pDef, nDef, v.Type.PlainVariant(), v.Type.NotifyVariant(), v.Type.IsNotify(), v.Fields)
	if err != nil {
		return nil, err
	}

	n := len(chunkFields)
	cubes := make([]*cube.Cube, n)
	var nextKey *cube.Key

	for i := n - 1; i >= 0; i-- {
		typ := v.Type.PlainVariant()
		def := pDef
		if i == 0 && v.Type.IsNotify() {
			typ = v.Type.NotifyVariant()
			def = nDef
		}

		payload := chunkFields[i]
		if nextKey != nil {
			payload = append(payload, cci.BuildRelatesTo(cci.Relationship{Type: cci.RelContinuedIn, RemoteKey: [32]byte(*nextKey)}))
		}

		c, err := cube.NewDraft(cube.DraftParams{
			Type:        typ,
			Definition:  def,
			Keys:        v.Keys,
			Notify:      v.Notify,
			UpdateCount: v.UpdateCount,
			Payload:     payload,
		})
		if err != nil {
			return nil, err
		}
		if err := c.Compile(ctx, difficulty); err != nil {
			return nil, err
		}
		cubes[i] = c
		k := c.Key()
		nextKey = &k
	}

	v.Chunks = cubes
	return cubes, nil
}

var errBrokenChain = errs.New(errs.KindCubeRelationshipError, "veritum chunk chain is broken")
