package cube

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"time"

	"verity.dev/core/errs"
	"verity.dev/core/field"
	"verity.dev/core/wire"
)

// Keys holds the Ed25519 keypair addressing a MUC/PMUC family cube.
// Private may be nil for a cube only being validated, never one being
// compiled.
type Keys struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// DraftParams describes a not-yet-compiled cube. Definition must come
// from a caller that has already layered a TLV vocabulary over
// cube.Definition(Type) — normally via cci.NewCubeFieldDefinition.
type DraftParams struct {
	Type       Type
	Definition *field.FieldDefinition
	Keys       *Keys

	// Notify is required when Type.IsNotify().
	Notify [32]byte
	// UpdateCount is required when Type.IsPMUC(); callers must increment
	// it themselves across successive re-sculpts of the same key.
	UpdateCount uint32

	// Payload is the TLV field list, in the order it should appear in
	// the cube's payload region.
	Payload []field.Field
}

// Cube is a draft-or-compiled instance of the fixed-size record. A
// freshly constructed Cube (via NewDraft) has no binary form yet;
// Compile grinds a nonce (and signs, for MUC/PMUC families) to produce
// one.
type Cube struct {
	typ  Type
	def  *field.FieldDefinition
	keys *Keys
	buf  []byte
	key  Key
}

// NewDraft validates p and builds an uncompiled Cube.
func NewDraft(p DraftParams) (*Cube, error) {
	if p.Type.IsSigned() {
		if p.Keys == nil || len(p.Keys.Public) != ed25519.PublicKeySize {
			return nil, errs.New(errs.KindInvalidCubeKey, "signed cube type requires a public key")
		}
	}

	fs := field.NewFieldSet(p.Definition)
	fs.AppendField(field.New(FieldTypeCode, []byte{byte(p.Type)}))
	for _, f := range p.Payload {
		fs.AppendField(f)
	}
	// Back positionals, in the same order as Definition(p.Type).BackPositionals:
	// NONCE, SIGNATURE, DATE, PUBLIC_KEY, PMUC_UPDATE_COUNT, NOTIFY.
	fs.AppendField(field.New(FieldNonce, make([]byte, lenNonce)))
	if p.Type.IsSigned() {
		fs.AppendField(field.New(FieldSignature, make([]byte, lenSignature)))
	}
	fs.AppendField(field.New(FieldDate, make([]byte, lenDate)))
	if p.Type.IsSigned() {
		fs.AppendField(field.New(FieldPublicKey, append([]byte(nil), p.Keys.Public...)))
	}
	if p.Type.IsPMUC() {
		var b [lenUpdateCount]byte
		binary.BigEndian.PutUint32(b[:], p.UpdateCount)
		fs.AppendField(field.New(FieldUpdateCount, b[:]))
	}
	if p.Type.IsNotify() {
		fs.AppendField(field.New(FieldNotify, append([]byte(nil), p.Notify[:]...)))
	}

	buf, err := wire.Compile(fs, Size)
	if err != nil {
		return nil, err
	}

	return &Cube{typ: p.Type, def: p.Definition, keys: p.Keys, buf: buf}, nil
}

// dateBytes encodes t as a 5-byte big-endian Unix-second timestamp
// (40 bits, good past year 36000 — chosen over a 4-byte field so the
// format never needs a breaking change for Y2038-style rollover).
func dateBytes(t time.Time) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(t.Unix()))
	return b[3:8]
}

// Compile finalizes a draft: stamps DATE, signs (for MUC/PMUC families,
// over the buffer with SIGNATURE and NONCE zeroed, so a later nonce
// re-grind never invalidates the signature), then grinds NONCE until
// the full-buffer hash meets difficulty (spec.md §4.3/§4.4).
func (c *Cube) Compile(ctx context.Context, difficulty int) error {
	if err := writeField(c.buf, c.typ, FieldDate, dateBytes(time.Now())); err != nil {
		return err
	}

	if c.typ.IsSigned() {
		if c.keys == nil || len(c.keys.Private) != ed25519.PrivateKeySize {
			return errs.New(errs.KindCubeSignatureError, "compiling a signed cube requires a private key")
		}
		scratch := append([]byte(nil), c.buf...)
		zeroField(scratch, c.typ, FieldSignature)
		zeroField(scratch, c.typ, FieldNonce)
		sig := ed25519.Sign(c.keys.Private, scratch)
		if err := writeField(c.buf, c.typ, FieldSignature, sig); err != nil {
			return err
		}
	}

	if err := grindNonce(ctx, c.buf, c.typ, difficulty); err != nil {
		return err
	}

	key, err := keyFor(c.typ, c.buf)
	if err != nil {
		return err
	}
	c.key = key
	return nil
}

// FromBinary parses a compiled buffer without re-deriving it; the
// caller is responsible for eventually calling Validate.
func FromBinary(t Type, def *field.FieldDefinition, buf []byte) (*Cube, error) {
	if len(buf) != Size {
		return nil, errs.New(errs.KindBinaryLengthError, "buffer is not a full cube")
	}
	key, err := keyFor(t, buf)
	if err != nil {
		return nil, err
	}
	return &Cube{typ: t, def: def, buf: append([]byte(nil), buf...), key: key}, nil
}

// Validate checks the proof-of-work difficulty and, for signed
// families, the Ed25519 signature, against the compiled buffer.
func (c *Cube) Validate(difficulty int) error {
	if c.buf == nil {
		return errs.New(errs.KindBinaryLengthError, "cube has not been compiled")
	}
	if !meetsDifficulty(hashBuffer(c.buf), difficulty) {
		return insufficientDifficultyErr(difficulty)
	}
	if c.typ.IsSigned() {
		pub, ok := readField(c.buf, c.typ, FieldPublicKey)
		if !ok {
			return errUnimplementedType(c.typ)
		}
		sig, ok := readField(c.buf, c.typ, FieldSignature)
		if !ok {
			return errUnimplementedType(c.typ)
		}
		scratch := append([]byte(nil), c.buf...)
		zeroField(scratch, c.typ, FieldSignature)
		zeroField(scratch, c.typ, FieldNonce)
		if !ed25519.Verify(ed25519.PublicKey(pub), scratch, sig) {
			return errs.New(errs.KindCubeSignatureError, "signature does not verify")
		}
	}
	return nil
}

// Type returns the cube's type tag.
func (c *Cube) Type() Type { return c.typ }

// Key returns the cube's 32-byte network address. Only valid once the
// cube has been compiled or parsed from binary.
func (c *Cube) Key() Key { return c.key }

// KeyHex returns Key as a lowercase hex string.
func (c *Cube) KeyHex() string { return hex.EncodeToString(c.key[:]) }

// BinaryData returns the compiled Size-byte buffer. Callers must not
// mutate the returned slice.
func (c *Cube) BinaryData() []byte { return c.buf }

// Fields decompiles the compiled buffer's TLV payload into a FieldSet.
// tlv false returns the core-only RAWCONTENT interpretation.
func (c *Cube) Fields(tlv bool) (*field.FieldSet, error) {
	return wire.Decompile(c.buf, c.def, Size, tlv)
}

// PayloadFields returns just the TLV payload fields: positionals,
// CCI_END, and REMAINDER are stripped out, leaving the content a
// composer like veritum reasons about.
func (c *Cube) PayloadFields() ([]field.Field, error) {
	fs, err := c.Fields(true)
	if err != nil {
		return nil, err
	}
	def := c.def
	var out []field.Field
	for _, f := range fs.All() {
		if def.IsFrontPositional(f.Type) || def.IsBackPositional(f.Type) {
			continue
		}
		if f.Type == def.StopType || f.Type == def.RemainderType {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Notify returns a notify-family cube's NOTIFY positional field value.
func (c *Cube) Notify() ([32]byte, bool) {
	var out [32]byte
	if !c.typ.IsNotify() {
		return out, false
	}
	b, ok := readField(c.buf, c.typ, FieldNotify)
	if !ok {
		return out, false
	}
	copy(out[:], b)
	return out, true
}

// UpdateCount returns a PMUC cube's monotonic update counter.
func (c *Cube) UpdateCount() (uint32, bool) {
	if !c.typ.IsPMUC() {
		return 0, false
	}
	b, ok := readField(c.buf, c.typ, FieldUpdateCount)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

// Supersedes reports whether c is a valid successor of prev under the
// same PMUC key: same key, strictly greater update count (spec.md's
// PMUC monotonicity invariant).
func (c *Cube) Supersedes(prev *Cube) error {
	if !c.typ.IsPMUC() || !prev.typ.IsPMUC() {
		return errUnimplementedType(c.typ)
	}
	if c.Key() != prev.Key() {
		return errs.New(errs.KindCubeRelationshipError, "PMUC update under a different key")
	}
	curr, _ := c.UpdateCount()
	prior, _ := prev.UpdateCount()
	if curr <= prior {
		return errs.NewReason(errs.KindCubeRelationshipError, errs.ReasonNone,
			"PMUC update count did not increase")
	}
	return nil
}

// Equals compares two cubes by compiled bytes.
func (c *Cube) Equals(other *Cube) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.typ != other.typ || len(c.buf) != len(other.buf) {
		return false
	}
	for i := range c.buf {
		if c.buf[i] != other.buf[i] {
			return false
		}
	}
	return true
}
