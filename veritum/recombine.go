package veritum

import (
	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/errs"
	"verity.dev/core/field"
)

// FromChunks recombines an ordered chain of compiled cubes into one
// logical Veritum: it checks every non-terminal chunk's CONTINUED_IN
// relationship against the next chunk's key, drops CONTINUED_IN and the
// internal split marker from the surfaced field list, reassembles
// fields that were split across a chunk boundary, and adopts
// type/notify/update-count from the first chunk (spec.md §4.6.2).
func FromChunks(chunks []*cube.Cube) (*Veritum, error) {
	if len(chunks) == 0 {
		return nil, errs.New(errs.KindCubeRelationshipError, "no chunks to recombine")
	}

	for i := 0; i < len(chunks)-1; i++ {
		next, err := continuedInTarget(chunks[i])
		if err != nil {
			return nil, err
		}
		if next == nil || *next != chunks[i+1].Key() {
			return nil, errBrokenChain
		}
	}
	if last, err := continuedInTarget(chunks[len(chunks)-1]); err != nil {
		return nil, err
	} else if last != nil {
		return nil, errs.New(errs.KindCubeRelationshipError, "terminal chunk carries a CONTINUED_IN relationship")
	}

	var out []field.Field
	var pending *field.Field

	for _, c := range chunks {
		fields, err := c.PayloadFields()
		if err != nil {
			return nil, err
		}
		fields = dropContinuedIn(fields)

		if pending != nil {
			if len(fields) == 0 || fields[0].Type != pending.Type {
				return nil, errBrokenChain
			}
			merged := field.New(pending.Type, append(append([]byte(nil), pending.Value...), fields[0].Value...))
			fields = append([]field.Field{merged}, fields[1:]...)
			pending = nil
		}

		for idx := 0; idx < len(fields); idx++ {
			f := fields[idx]
			if idx+1 < len(fields) && fields[idx+1].Type == splitMarker {
				p := field.New(f.Type, append([]byte(nil), f.Value...))
				pending = &p
				idx++ // also skip the marker itself
				continue
			}
			if f.Type == splitMarker {
				continue
			}
			out = append(out, f)
		}
	}
	if pending != nil {
		return nil, errs.New(errs.KindCubeRelationshipError, "chunk chain ended mid-split")
	}

	first := chunks[0]
	v := &Veritum{
		Type:   first.Type(),
		Fields: out,
		Chunks: chunks,
	}
	if notify, ok := first.Notify(); ok {
		v.Notify = notify
	}
	if uc, ok := first.UpdateCount(); ok {
		v.UpdateCount = uc
	}
	return v, nil
}

func continuedInTarget(c *cube.Cube) (*cube.Key, error) {
	fields, err := c.PayloadFields()
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.Type != cci.RelatesTo {
			continue
		}
		rel, err := cci.ParseRelatesTo(f)
		if err != nil {
			continue
		}
		if rel.Type == cci.RelContinuedIn {
			k := cube.Key(rel.RemoteKey)
			return &k, nil
		}
	}
	return nil, nil
}

func dropContinuedIn(fields []field.Field) []field.Field {
	out := make([]field.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type == cci.RelatesTo {
			if rel, err := cci.ParseRelatesTo(f); err == nil && rel.Type == cci.RelContinuedIn {
				continue
			}
		}
		out = append(out, f)
	}
	return out
}
