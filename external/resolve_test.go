package external_test

import (
	"context"
	"path/filepath"
	"testing"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/external"
	"verity.dev/core/field"
	"verity.dev/core/storetest"
)

func defs(t cube.Type) *field.FieldDefinition {
	return cci.NewCubeFieldDefinition(cube.Definition(t))
}

func buildLeaf(t *testing.T, payload string) *cube.Cube {
	t.Helper()
	c, err := cube.NewDraft(cube.DraftParams{
		Type:       cube.Frozen,
		Definition: defs(cube.Frozen),
		Payload:    []field.Field{field.New(cci.Payload, []byte(payload))},
	})
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if err := c.Compile(context.Background(), 0); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

func buildWithRelations(t *testing.T, payload string, rels ...cci.Relationship) *cube.Cube {
	t.Helper()
	fields := []field.Field{field.New(cci.Payload, []byte(payload))}
	for _, r := range rels {
		fields = append(fields, cci.BuildRelatesTo(r))
	}
	c, err := cube.NewDraft(cube.DraftParams{
		Type:       cube.Frozen,
		Definition: defs(cube.Frozen),
		Payload:    fields,
	})
	if err != nil {
		t.Fatalf("NewDraft: %v", err)
	}
	if err := c.Compile(context.Background(), 0); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

func openStore(t *testing.T) *storetest.Store {
	t.Helper()
	s, err := storetest.Open(filepath.Join(t.TempDir(), "kv.db"), defs)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestResolveDirectRelationship(t *testing.T) {
	s := openStore(t)
	leaf := buildLeaf(t, "leaf")
	if err := s.Put(context.Background(), leaf); err != nil {
		t.Fatalf("Put: %v", err)
	}
	main := buildWithRelations(t, "main", cci.Relationship{Type: cci.RelReplyTo, RemoteKey: [32]byte(leaf.Key())})
	if err := s.Put(context.Background(), main); err != nil {
		t.Fatalf("Put: %v", err)
	}

	result := external.Resolve(context.Background(), external.CubeVeritable{C: main}, s, external.ResolveOptions{})
	if !result.AllResolved() {
		t.Fatalf("expected Success, got %s", result.State)
	}
	futures := result.ByType[cci.RelReplyTo]
	if len(futures) != 1 {
		t.Fatalf("expected 1 resolved REPLY_TO, got %d", len(futures))
	}
	sub, err := futures[0].Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if sub.Main.Key() != leaf.Key() {
		t.Fatalf("resolved main key mismatch")
	}
}

func TestResolveReportsFailureOnMissingTarget(t *testing.T) {
	s := openStore(t)
	var missing [32]byte
	missing[0] = 0xFF
	main := buildWithRelations(t, "main", cci.Relationship{Type: cci.RelMention, RemoteKey: missing})
	if err := s.Put(context.Background(), main); err != nil {
		t.Fatalf("Put: %v", err)
	}

	result := external.Resolve(context.Background(), external.CubeVeritable{C: main}, s, external.ResolveOptions{})
	if result.State != external.PartialFailure {
		t.Fatalf("expected PartialFailure, got %s", result.State)
	}
}

func TestResolveRecursiveWalksChain(t *testing.T) {
	s := openStore(t)
	leaf := buildLeaf(t, "leaf")
	mid := buildWithRelations(t, "mid", cci.Relationship{Type: cci.RelMention, RemoteKey: [32]byte(leaf.Key())})
	root := buildWithRelations(t, "root", cci.Relationship{Type: cci.RelMention, RemoteKey: [32]byte(mid.Key())})
	for _, c := range []*cube.Cube{leaf, mid, root} {
		if err := s.Put(context.Background(), c); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	result := external.Resolve(context.Background(), external.CubeVeritable{C: root}, s, external.ResolveOptions{Recursive: true, Depth: 5})
	if !result.AllResolved() {
		t.Fatalf("expected Success, got %s", result.State)
	}
	midFuture := result.ByType[cci.RelMention][0]
	midResult, err := midFuture.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if midResult.Main.Key() != mid.Key() {
		t.Fatalf("mid key mismatch")
	}
	if len(midResult.ByType[cci.RelMention]) != 1 {
		t.Fatalf("expected recursion to reach leaf via mid")
	}
}

func TestResolveDepthLimitStopsRecursion(t *testing.T) {
	s := openStore(t)
	leaf := buildLeaf(t, "leaf")
	root := buildWithRelations(t, "root", cci.Relationship{Type: cci.RelMention, RemoteKey: [32]byte(leaf.Key())})
	for _, c := range []*cube.Cube{leaf, root} {
		if err := s.Put(context.Background(), c); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	result := external.Resolve(context.Background(), external.CubeVeritable{C: root}, s, external.ResolveOptions{Recursive: true, Depth: 1})
	midFuture := result.ByType[cci.RelMention][0]
	leafResult, err := midFuture.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if leafResult.State != external.DepthLimited {
		t.Fatalf("expected leaf resolution to be depth-limited, got %s", leafResult.State)
	}
}
