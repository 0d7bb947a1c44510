// Package crypt implements the Veritum encryption layer (C7): sealing
// a subset of a field list inside one ENCRYPTED field via NaCl's
// crypto_box construction. Grounded on the teacher's pluggable-provider
// shape in crypto/provider.go, but fixed to the one algorithm spec.md
// mandates rather than left pluggable (there's exactly one scheme here,
// so a provider interface would be indirection with a single
// implementation).
package crypt

import (
	"crypto/rand"

	"golang.org/x/crypto/nacl/box"

	"verity.dev/core/cci"
	"verity.dev/core/errs"
	"verity.dev/core/field"
)

// isExcluded reports whether f must stay outside the sealed payload:
// a type listed in extra, a positional field of def (NOTIFY included),
// or a CONTINUED_IN relationship — chain-following must work without
// decrypting (spec.md §4.7).
func isExcluded(def *field.FieldDefinition, f field.Field, extra map[uint16]bool) bool {
	if extra != nil && extra[f.Type] {
		return true
	}
	if def.IsFrontPositional(f.Type) || def.IsBackPositional(f.Type) {
		return true
	}
	if f.Type == cci.RelatesTo {
		if rel, err := cci.ParseRelatesTo(f); err == nil && rel.Type == cci.RelContinuedIn {
			return true
		}
	}
	return false
}

// EncryptOptions configures Encrypt. RecipientPublic is required;
// SenderPublic/SenderPrivate may be supplied to use a caller-controlled
// sender identity, otherwise Encrypt generates an ephemeral keypair and
// splices CRYPTO_PUBKEY into the output so the recipient can derive the
// shared secret.
type EncryptOptions struct {
	RecipientPublic *[32]byte
	SenderPublic    *[32]byte
	SenderPrivate   *[32]byte
	// Excluded additionally exempts field types from encryption, beyond
	// the always-excluded positionals/NOTIFY/CONTINUED_IN.
	Excluded map[uint16]bool
}

// Encrypt serializes every field not excluded (by default or by
// opts.Excluded) into a TLV buffer, seals it with crypto_box, and
// returns a field list with those fields replaced by ENCRYPTED,
// CRYPTO_NONCE, and (for an ephemeral sender) CRYPTO_PUBKEY.
func Encrypt(def *field.FieldDefinition, fields []field.Field, opts EncryptOptions) ([]field.Field, error) {
	if opts.RecipientPublic == nil {
		return nil, errs.New(errs.KindInvalidCubeKey, "crypt.Encrypt requires a recipient public key")
	}

	var plain, passthrough []field.Field
	for _, f := range fields {
		if isExcluded(def, f, opts.Excluded) {
			passthrough = append(passthrough, f)
			continue
		}
		plain = append(plain, f)
	}
	if len(plain) == 0 {
		return fields, nil
	}

	serialized, err := serialize(def, plain)
	if err != nil {
		return nil, err
	}

	senderPub, senderPriv := opts.SenderPublic, opts.SenderPrivate
	ephemeral := senderPub == nil || senderPriv == nil
	if ephemeral {
		pub, priv, err := box.GenerateKey(rand.Reader)
		if err != nil {
			return nil, err
		}
		senderPub, senderPriv = pub, priv
	}

	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}

	sealed := box.Seal(nil, serialized, &nonce, opts.RecipientPublic, senderPriv)

	out := append([]field.Field(nil), passthrough...)
	out = append(out, field.New(cci.Encrypted, sealed))
	out = append(out, field.New(cci.CryptoNonce, nonce[:]))
	if ephemeral {
		out = append(out, field.New(cci.CryptoPubkey, senderPub[:]))
	}
	return out, nil
}

// Decrypt reverses Encrypt. Per spec.md §4.7's deliberate non-throwing
// contract, any failure — missing ENCRYPTED/CRYPTO_NONCE, no usable
// sender public key, or a box.Open authentication failure — returns
// fields unchanged rather than an error, since a peer without the right
// key is an expected, not exceptional, situation.
func Decrypt(def *field.FieldDefinition, fields []field.Field, recipientPriv *[32]byte, senderPublic *[32]byte) []field.Field {
	var sealed, nonceBytes, pubkeyBytes []byte
	var passthrough []field.Field
	splicePos := -1
	for _, f := range fields {
		switch f.Type {
		case cci.Encrypted:
			sealed = f.Value
			splicePos = len(passthrough)
		case cci.CryptoNonce:
			nonceBytes = f.Value
		case cci.CryptoPubkey:
			pubkeyBytes = f.Value
		default:
			passthrough = append(passthrough, f)
		}
	}
	if sealed == nil || len(nonceBytes) != 24 || recipientPriv == nil {
		return fields
	}

	sender := senderPublic
	if pubkeyBytes != nil {
		if len(pubkeyBytes) != 32 {
			return fields
		}
		var k [32]byte
		copy(k[:], pubkeyBytes)
		sender = &k
	}
	if sender == nil {
		return fields
	}

	var nonce [24]byte
	copy(nonce[:], nonceBytes)

	opened, ok := box.Open(nil, sealed, &nonce, sender, recipientPriv)
	if !ok {
		return fields
	}

	plain, err := deserialize(def, opened)
	if err != nil {
		return fields
	}
	out := make([]field.Field, 0, len(passthrough)+len(plain))
	out = append(out, passthrough[:splicePos]...)
	out = append(out, plain...)
	out = append(out, passthrough[splicePos:]...)
	return out
}
