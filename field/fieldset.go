package field

// FieldSet is an ordered collection of Fields plus a reference to the
// FieldDefinition describing the vocabulary it was built against.
// Ordering is insertion order; positional slots are enforced by the
// compiler (package wire), not by FieldSet itself.
type FieldSet struct {
	Def    *FieldDefinition
	fields []Field
}

// NewFieldSet builds an empty set bound to def.
func NewFieldSet(def *FieldDefinition) *FieldSet {
	return &FieldSet{Def: def}
}

// All returns the fields in insertion order. Callers must not mutate
// the returned slice.
func (fs *FieldSet) All() []Field {
	return fs.fields
}

// Count returns the number of fields.
func (fs *FieldSet) Count() int {
	return len(fs.fields)
}

// AppendField appends f at the end of the set.
func (fs *FieldSet) AppendField(f Field) {
	fs.fields = append(fs.fields, f)
}

// InsertInFront inserts f as the very first field.
func (fs *FieldSet) InsertInFront(f Field) {
	fs.fields = append([]Field{f}, fs.fields...)
}

// InsertAfterFrontPositionals inserts f immediately after the last
// front-positional field currently present (or at the front if none
// are present yet).
func (fs *FieldSet) InsertAfterFrontPositionals(f Field) {
	idx := 0
	for i, existing := range fs.fields {
		if fs.Def.IsFrontPositional(existing.Type) {
			idx = i + 1
		}
	}
	fs.insertAt(idx, f)
}

// InsertBeforeBackPositionals inserts f immediately before the first
// back-positional field currently present (or at the end if none are
// present yet).
func (fs *FieldSet) InsertBeforeBackPositionals(f Field) {
	idx := len(fs.fields)
	for i, existing := range fs.fields {
		if fs.Def.IsBackPositional(existing.Type) {
			idx = i
			break
		}
	}
	fs.insertAt(idx, f)
}

// InsertBefore inserts f immediately before the first field of type t.
// If no field of type t exists, f is appended.
func (fs *FieldSet) InsertBefore(t uint16, f Field) {
	for i, existing := range fs.fields {
		if existing.Type == t {
			fs.insertAt(i, f)
			return
		}
	}
	fs.AppendField(f)
}

func (fs *FieldSet) insertAt(idx int, f Field) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(fs.fields) {
		idx = len(fs.fields)
	}
	fs.fields = append(fs.fields, Field{})
	copy(fs.fields[idx+1:], fs.fields[idx:])
	fs.fields[idx] = f
}

// EnsureInFront inserts a field of type t at the front iff one is not
// already present anywhere in the set. Idempotent: calling it twice
// yields the same set as calling it once.
func (fs *FieldSet) EnsureInFront(t uint16, factory func() Field) {
	if _, ok := fs.GetFirst(t); ok {
		return
	}
	fs.InsertInFront(factory())
}

// EnsureInBack inserts a field of type t at the back iff one is not
// already present anywhere in the set. Idempotent.
func (fs *FieldSet) EnsureInBack(t uint16, factory func() Field) {
	if _, ok := fs.GetFirst(t); ok {
		return
	}
	fs.AppendField(factory())
}

// Remove removes the first field equal to f (ignoring location) and
// reports whether it removed anything.
func (fs *FieldSet) Remove(f Field) bool {
	for i, existing := range fs.fields {
		if existing.Equals(f, false) {
			return fs.RemoveAt(i)
		}
	}
	return false
}

// RemoveAt removes the field at index i.
func (fs *FieldSet) RemoveAt(i int) bool {
	if i < 0 || i >= len(fs.fields) {
		return false
	}
	fs.fields = append(fs.fields[:i], fs.fields[i+1:]...)
	return true
}

// Get returns every field of type t, in insertion order.
func (fs *FieldSet) Get(t uint16) []Field {
	var out []Field
	for _, f := range fs.fields {
		if f.Type == t {
			out = append(out, f)
		}
	}
	return out
}

// GetFirst returns the first field of type t, if any.
func (fs *FieldSet) GetFirst(t uint16) (Field, bool) {
	for _, f := range fs.fields {
		if f.Type == t {
			return f, true
		}
	}
	return Field{}, false
}

// Equals compares two sets field-by-field in order.
func (fs *FieldSet) Equals(other *FieldSet, compareLocation bool) bool {
	if fs == nil || other == nil {
		return fs == other
	}
	if len(fs.fields) != len(other.fields) {
		return false
	}
	for i, f := range fs.fields {
		if !f.Equals(other.fields[i], compareLocation) {
			return false
		}
	}
	return true
}

// Clone returns a deep-enough copy (fields themselves are copied by
// value; their byte slices are shared, which is safe since Field
// values are treated as immutable once constructed).
func (fs *FieldSet) Clone() *FieldSet {
	out := &FieldSet{Def: fs.Def, fields: make([]Field, len(fs.fields))}
	copy(out.fields, fs.fields)
	return out
}
