// Package storetest provides a bbolt-backed reference implementation
// of the external.CubeStore/CubeRetriever contracts, adapted from the
// teacher's node/store/db.go bucket layout. It exists only so the
// core's collaborator contracts (spec.md §6) have one concrete,
// testable adapter to run integration tests against; it is explicitly
// NOT part of the Cube core (spec.md §1 places the on-disk cube index
// out of scope).
package storetest

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"verity.dev/core/cube"
	"verity.dev/core/external"
	"verity.dev/core/field"
)

var (
	bucketCubes  = []byte("cubes_by_key")
	bucketNotify = []byte("notify_by_recipient")
)

var (
	_ external.CubeStore     = (*Store)(nil)
	_ external.CubeRetriever = (*Store)(nil)
)

// Store is a bbolt-backed CubeStore/CubeRetriever. Every compiled cube
// is stored verbatim under its 32-byte key; notify-family cubes are
// additionally indexed under their NOTIFY recipient so Notifications
// can enumerate them, mirroring the teacher's bucketHeaders/bucketIndex
// split of one logical record across purpose-specific buckets.
type Store struct {
	db *bolt.DB

	mu           sync.Mutex
	onCubeAdded  []func(external.CubeInfo)
	onNotifyAdd  []func(cube.Key, *cube.Cube)
	definitionOf func(cube.Type) *field.FieldDefinition
}

// DefinitionLookup resolves a cube.Type to the field.FieldDefinition
// needed to decompile it back from bytes (storetest carries no TLV
// vocabulary of its own; the caller supplies the cci-layered
// definitions it compiled cubes with).
type DefinitionLookup func(cube.Type) *field.FieldDefinition

// Open creates or opens a bbolt database at path.
func Open(path string, defs DefinitionLookup) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("storetest: open bbolt: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketCubes, bucketNotify} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("create bucket %s: %w", b, err)
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, definitionOf: defs}, nil
}

// Close releases the underlying bbolt handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Put stores c under its key and, if c is a notify-family cube,
// additionally indexes it under its NOTIFY recipient. Registered
// cubeAdded/notificationAdded callbacks (spec.md §6) fire synchronously
// after the write commits.
func (s *Store) Put(ctx context.Context, c *cube.Cube) error {
	if c == nil {
		return fmt.Errorf("storetest: nil cube")
	}
	key := c.Key()
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketCubes).Put(key.Bytes(), c.BinaryData()); err != nil {
			return err
		}
		if notify, ok := c.Notify(); ok {
			nkey := cube.Key(notify)
			existing := tx.Bucket(bucketNotify).Get(nkey.Bytes())
			existing = append(append([]byte(nil), existing...), key.Bytes()...)
			return tx.Bucket(bucketNotify).Put(nkey.Bytes(), existing)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	cbs := append([]func(external.CubeInfo){}, s.onCubeAdded...)
	s.mu.Unlock()
	for _, cb := range cbs {
		cb(external.CubeInfo{Key: key, Type: c.Type()})
	}
	if notify, ok := c.Notify(); ok {
		s.mu.Lock()
		ncbs := append([]func(cube.Key, *cube.Cube){}, s.onNotifyAdd...)
		s.mu.Unlock()
		for _, cb := range ncbs {
			cb(cube.Key(notify), c)
		}
	}
	return nil
}

// Get returns the cube stored under key, parsed under the definition
// its type requires, implementing external.CubeRetriever. opts.TLV is
// not consulted here: Store always parses the positional layout and
// leaves TLV-vs-RAWCONTENT interpretation to the caller's later
// c.Fields(tlv) call, matching the teacher's GetBlockBytes(hash)
// returning raw bytes for the caller to interpret. A missing key
// surfaces as a plain error (the core's CubeRetriever contract has no
// separate not-found boolean).
func (s *Store) Get(ctx context.Context, key cube.Key, opts external.RetrieveOptions) (*cube.Cube, error) {
	var buf []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketCubes).Get(key.Bytes())
		if v == nil {
			return nil
		}
		buf = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if buf == nil {
		return nil, fmt.Errorf("storetest: key %x not found", key.Bytes())
	}
	typ, err := typeFromBuffer(buf)
	if err != nil {
		return nil, err
	}
	def := s.definitionOf(typ)
	return cube.FromBinary(typ, def, buf)
}

func typeFromBuffer(buf []byte) (cube.Type, error) {
	if len(buf) != cube.Size {
		return 0, fmt.Errorf("storetest: stored value is not a full cube (%d bytes)", len(buf))
	}
	return cube.Type(buf[0]), nil
}

// AllKeys iterates every stored key.
func (s *Store) AllKeys(ctx context.Context) iter.Seq[cube.Key] {
	return func(yield func(cube.Key) bool) {
		_ = s.db.View(func(tx *bolt.Tx) error {
			c := tx.Bucket(bucketCubes).Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				var key cube.Key
				copy(key[:], k)
				if !yield(key) {
					return nil
				}
			}
			return nil
		})
	}
}

// Notifications iterates every cube indexed under recipient.
func (s *Store) Notifications(ctx context.Context, recipient cube.Key) iter.Seq[*cube.Cube] {
	return func(yield func(*cube.Cube) bool) {
		var keys [][]byte
		_ = s.db.View(func(tx *bolt.Tx) error {
			raw := tx.Bucket(bucketNotify).Get(recipient.Bytes())
			for i := 0; i+32 <= len(raw); i += 32 {
				keys = append(keys, append([]byte(nil), raw[i:i+32]...))
			}
			return nil
		})
		for _, kb := range keys {
			var key cube.Key
			copy(key[:], kb)
			c, err := s.Get(ctx, key, external.RetrieveOptions{TLV: true})
			if err != nil {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}

// OnCubeAdded registers cb to fire after every successful Put.
func (s *Store) OnCubeAdded(cb func(external.CubeInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onCubeAdded = append(s.onCubeAdded, cb)
}

// OnNotificationAdded registers cb to fire after every Put of a
// notify-family cube.
func (s *Store) OnNotificationAdded(cb func(recipient cube.Key, c *cube.Cube)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNotifyAdd = append(s.onNotifyAdd, cb)
}
