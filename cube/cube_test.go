package cube_test

import (
	"context"
	"crypto/ed25519"
	"testing"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/field"
)

const testDifficulty = 8

func TestFrozenCompileValidateRoundTrip(t *testing.T) {
	def := cci.NewCubeFieldDefinition(cube.Definition(cube.Frozen))
	c, err := cube.NewDraft(cube.DraftParams{
		Type:       cube.Frozen,
		Definition: def,
		Payload:    []field.Field{field.New(cci.Payload, []byte("hello, frozen world"))},
	})
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if err := c.Compile(context.Background(), testDifficulty); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(c.BinaryData()) != cube.Size {
		t.Fatalf("BinaryData length: got %d, want %d", len(c.BinaryData()), cube.Size)
	}
	if c.Key().IsZero() {
		t.Fatalf("expected non-zero key after compile")
	}
	if err := c.Validate(testDifficulty); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	parsed, err := cube.FromBinary(cube.Frozen, def, c.BinaryData())
	if err != nil {
		t.Fatalf("FromBinary: %v", err)
	}
	if parsed.Key() != c.Key() {
		t.Fatalf("parsed key mismatch: got %x, want %x", parsed.Key(), c.Key())
	}
	fs, err := parsed.Fields(true)
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	payload, ok := fs.GetFirst(cci.Payload)
	if !ok || string(payload.Value) != "hello, frozen world" {
		t.Fatalf("PAYLOAD round trip: got %+v", payload)
	}
	if _, ok := fs.GetFirst(cube.FieldDate); !ok {
		t.Fatalf("decompiled FROZEN field set missing DATE")
	}
	if _, ok := fs.GetFirst(cube.FieldNonce); !ok {
		t.Fatalf("decompiled FROZEN field set missing NONCE")
	}
}

func TestFrozenValidateFailsOnTamperedBuffer(t *testing.T) {
	def := cci.NewCubeFieldDefinition(cube.Definition(cube.Frozen))
	c, err := cube.NewDraft(cube.DraftParams{
		Type:       cube.Frozen,
		Definition: def,
		Payload:    []field.Field{field.New(cci.Payload, []byte("x"))},
	})
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if err := c.Compile(context.Background(), testDifficulty); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	tampered := append([]byte(nil), c.BinaryData()...)
	tampered[5] ^= 0xFF
	parsed, err := cube.FromBinary(cube.Frozen, def, tampered)
	if err != nil {
		t.Fatalf("FromBinary: %v", err)
	}
	if err := parsed.Validate(testDifficulty); err == nil {
		t.Fatalf("expected tampered buffer to fail difficulty check")
	}
}

func TestMUCSignAndVerify(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	def := cci.NewCubeFieldDefinition(cube.Definition(cube.Muc))
	keys := &cube.Keys{Public: pub, Private: priv}

	c, err := cube.NewDraft(cube.DraftParams{
		Type:       cube.Muc,
		Definition: def,
		Keys:       keys,
		Payload:    []field.Field{field.New(cci.Username, []byte("alice"))},
	})
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if err := c.Compile(context.Background(), testDifficulty); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if err := c.Validate(testDifficulty); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if string(c.Key().Bytes()) != string([]byte(pub)) {
		t.Fatalf("MUC key should be the verbatim public key")
	}
}

func TestMUCRejectsMissingKeys(t *testing.T) {
	def := cci.NewCubeFieldDefinition(cube.Definition(cube.Muc))
	_, err := cube.NewDraft(cube.DraftParams{Type: cube.Muc, Definition: def})
	if err == nil {
		t.Fatalf("expected error building a signed draft with no keys")
	}
}

func TestPMUCUpdateCountMonotonicity(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	def := cci.NewCubeFieldDefinition(cube.Definition(cube.Pmuc))
	keys := &cube.Keys{Public: pub, Private: priv}

	build := func(count uint32) *cube.Cube {
		c, err := cube.NewDraft(cube.DraftParams{
			Type:        cube.Pmuc,
			Definition:  def,
			Keys:        keys,
			UpdateCount: count,
			Payload:     []field.Field{field.New(cci.Username, []byte("v"))},
		})
		if err != nil {
			t.Fatalf("NewDraft: %v", err)
		}
		if err := c.Compile(context.Background(), testDifficulty); err != nil {
			t.Fatalf("Compile: %v", err)
		}
		return c
	}

	v1 := build(1)
	v2 := build(2)
	if err := v2.Supersedes(v1); err != nil {
		t.Fatalf("v2 should supersede v1: %v", err)
	}
	if err := v1.Supersedes(v2); err == nil {
		t.Fatalf("v1 should not supersede v2")
	}
}
