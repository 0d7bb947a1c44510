package field

import "testing"

func testDef() *FieldDefinition {
	return &FieldDefinition{
		Names:            map[uint16]string{0x01: "TYPE", 0x02: "DATE", 0x10: "PAYLOAD"},
		Lengths:          map[uint16]int{0x01: 1, 0x02: 5},
		FrontPositionals: []uint16{0x01},
		BackPositionals:  []uint16{0x02},
		Defaults: map[uint16]func() Field{
			0x01: func() Field { return New(0x01, []byte{0x10}) },
			0x02: func() Field { return New(0x02, make([]byte, 5)) },
		},
	}
}

func TestEnsureInFrontIdempotent(t *testing.T) {
	def := testDef()
	fs := NewFieldSet(def)
	fs.AppendField(New(0x10, []byte("hello")))

	fs.EnsureInFront(0x01, def.Defaults[0x01])
	snapshot := fs.Clone()

	fs.EnsureInFront(0x01, def.Defaults[0x01])

	if !fs.Equals(snapshot, true) {
		t.Fatalf("EnsureInFront not idempotent: got %+v, want %+v", fs.All(), snapshot.All())
	}
}

func TestEnsureInBackIdempotent(t *testing.T) {
	def := testDef()
	fs := NewFieldSet(def)
	fs.AppendField(New(0x10, []byte("hello")))

	fs.EnsureInBack(0x02, def.Defaults[0x02])
	snapshot := fs.Clone()
	fs.EnsureInBack(0x02, def.Defaults[0x02])

	if !fs.Equals(snapshot, true) {
		t.Fatalf("EnsureInBack not idempotent")
	}
}

func TestGetFirstAndGet(t *testing.T) {
	def := testDef()
	fs := NewFieldSet(def)
	fs.AppendField(New(0x10, []byte("a")))
	fs.AppendField(New(0x10, []byte("b")))

	all := fs.Get(0x10)
	if len(all) != 2 {
		t.Fatalf("Get: got %d fields, want 2", len(all))
	}
	first, ok := fs.GetFirst(0x10)
	if !ok || string(first.Value) != "a" {
		t.Fatalf("GetFirst: got %+v", first)
	}
}

func TestInsertBefore(t *testing.T) {
	def := testDef()
	fs := NewFieldSet(def)
	fs.AppendField(New(0x10, []byte("a")))
	fs.AppendField(New(0x11, []byte("b")))

	fs.InsertBefore(0x11, New(0x12, []byte("x")))

	all := fs.All()
	if len(all) != 3 || all[1].Type != 0x12 {
		t.Fatalf("InsertBefore: got %+v", all)
	}
}

func TestRemove(t *testing.T) {
	def := testDef()
	fs := NewFieldSet(def)
	f := New(0x10, []byte("a"))
	fs.AppendField(f)
	fs.AppendField(New(0x11, []byte("b")))

	if !fs.Remove(f) {
		t.Fatalf("Remove reported no match")
	}
	if fs.Count() != 1 {
		t.Fatalf("Remove: got %d fields, want 1", fs.Count())
	}
}

func TestFieldEqualsLocation(t *testing.T) {
	a := New(0x10, []byte("x")).AtStart(4)
	b := New(0x10, []byte("x")).AtStart(8)

	if !a.Equals(b, false) {
		t.Fatalf("fields should be equal ignoring location")
	}
	if a.Equals(b, true) {
		t.Fatalf("fields should differ when comparing location")
	}
}
