package veritum_test

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/field"
	"verity.dev/core/veritum"
)

const testDifficulty = 0

func TestSingleChunkRoundTrip(t *testing.T) {
	v := veritum.New(cube.Frozen, []field.Field{field.New(cci.Payload, []byte("small payload"))})
	chunks, err := v.Compile(context.Background(), testDifficulty)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}

	recombined, err := veritum.FromChunks(chunks)
	if err != nil {
		t.Fatalf("FromChunks: %v", err)
	}
	if len(recombined.Fields) != 1 || string(recombined.Fields[0].Value) != "small payload" {
		t.Fatalf("recombined fields: got %+v", recombined.Fields)
	}
}

func TestMultiChunkSplitAndRecombine(t *testing.T) {
	big := bytes.Repeat([]byte("x"), 2500)
	v := veritum.New(cube.Frozen, []field.Field{field.New(cci.Payload, big)})

	chunks, err := v.Compile(context.Background(), testDifficulty)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for a %d-byte payload, got %d", len(big), len(chunks))
	}

	recombined, err := veritum.FromChunks(chunks)
	if err != nil {
		t.Fatalf("FromChunks: %v", err)
	}
	if len(recombined.Fields) != 1 {
		t.Fatalf("expected the split PAYLOAD field to recombine into one field, got %d", len(recombined.Fields))
	}
	if !bytes.Equal(recombined.Fields[0].Value, big) {
		t.Fatalf("recombined PAYLOAD mismatch: got %d bytes, want %d", len(recombined.Fields[0].Value), len(big))
	}
}

func TestFromChunksRejectsBrokenChain(t *testing.T) {
	big := bytes.Repeat([]byte("y"), 2500)
	v := veritum.New(cube.Frozen, []field.Field{field.New(cci.Payload, big)})
	chunks, err := v.Compile(context.Background(), testDifficulty)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("need at least 2 chunks for this test")
	}

	reordered := append([]*cube.Cube{chunks[0]}, chunks[2:]...)
	reordered = append(reordered, chunks[1])
	if _, err := veritum.FromChunks(reordered); err == nil {
		t.Fatalf("expected a broken-chain error for a reordered chunk list")
	}
}

func TestNotifyVariantAppliesOnlyToFirstChunk(t *testing.T) {
	big := bytes.Repeat([]byte("z"), 2500)
	notifyKey := [32]byte{1, 2, 3}
	v := veritum.New(cube.FrozenNotify, []field.Field{field.New(cci.Payload, big)})
	v.Notify = notifyKey

	chunks, err := v.Compile(context.Background(), testDifficulty)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("need at least 2 chunks for this test")
	}
	if chunks[0].Type() != cube.FrozenNotify {
		t.Fatalf("chunk 0 should be the notify variant, got %s", chunks[0].Type())
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].Type() != cube.Frozen {
			t.Fatalf("chunk %d should be the plain variant, got %s", i, chunks[i].Type())
		}
	}
	if n, ok := chunks[0].Notify(); !ok || n != notifyKey {
		t.Fatalf("chunk 0 NOTIFY mismatch: got %x", n)
	}
}

func TestMUCVeritumChunksAreSigned(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	big := bytes.Repeat([]byte("m"), 2000)
	v := veritum.New(cube.Muc, []field.Field{field.New(cci.Payload, big)})
	v.Keys = &cube.Keys{Public: pub, Private: priv}

	chunks, err := v.Compile(context.Background(), testDifficulty)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	for _, c := range chunks {
		if err := c.Validate(testDifficulty); err != nil {
			t.Fatalf("chunk failed validation: %v", err)
		}
		if c.Key() != cube.Key(pub2key(pub)) {
			t.Fatalf("chunk key should be the verbatim public key")
		}
	}
}

func pub2key(pub ed25519.PublicKey) [32]byte {
	var k [32]byte
	copy(k[:], pub)
	return k
}
