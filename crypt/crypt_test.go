package crypt_test

import (
	"bytes"
	"crypto/rand"
	"testing"

	"golang.org/x/crypto/nacl/box"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
	"verity.dev/core/crypt"
	"verity.dev/core/field"
)

func testDef() *field.FieldDefinition {
	return cci.NewCubeFieldDefinition(cube.Definition(cube.Frozen))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	recipientPub, recipientPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	def := testDef()
	fields := []field.Field{field.New(cci.Payload, []byte("secret message"))}

	sealed, err := crypt.Encrypt(def, fields, crypt.EncryptOptions{RecipientPublic: recipientPub})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	var foundEncrypted, foundNonce, foundPubkey bool
	for _, f := range sealed {
		switch f.Type {
		case cci.Encrypted:
			foundEncrypted = true
		case cci.CryptoNonce:
			foundNonce = true
		case cci.CryptoPubkey:
			foundPubkey = true
		case cci.Payload:
			t.Fatalf("PAYLOAD should not appear in plaintext after Encrypt")
		}
	}
	if !foundEncrypted || !foundNonce || !foundPubkey {
		t.Fatalf("missing expected fields: encrypted=%v nonce=%v pubkey=%v", foundEncrypted, foundNonce, foundPubkey)
	}

	opened := crypt.Decrypt(def, sealed, recipientPriv, nil)
	payload, ok := firstOfType(opened, cci.Payload)
	if !ok || string(payload.Value) != "secret message" {
		t.Fatalf("decrypted PAYLOAD: got %+v", payload)
	}
}

func TestDecryptSilentlySkipsOnWrongKey(t *testing.T) {
	recipientPub, _, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_, wrongPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	def := testDef()
	fields := []field.Field{field.New(cci.Payload, []byte("secret"))}
	sealed, err := crypt.Encrypt(def, fields, crypt.EncryptOptions{RecipientPublic: recipientPub})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	out := crypt.Decrypt(def, sealed, wrongPriv, nil)
	if !bytes.Equal(mustMarshal(out), mustMarshal(sealed)) {
		t.Fatalf("Decrypt with the wrong key should return the input unchanged")
	}
}

func TestEncryptExcludesContinuedIn(t *testing.T) {
	recipientPub, recipientPriv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	def := testDef()
	rel := cci.BuildRelatesTo(cci.Relationship{Type: cci.RelContinuedIn, RemoteKey: [32]byte{9}})
	fields := []field.Field{field.New(cci.Payload, []byte("chunked")), rel}

	sealed, err := crypt.Encrypt(def, fields, crypt.EncryptOptions{RecipientPublic: recipientPub})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, ok := firstOfType(sealed, cci.RelatesTo); !ok {
		t.Fatalf("CONTINUED_IN should remain visible, unencrypted")
	}

	opened := crypt.Decrypt(def, sealed, recipientPriv, nil)
	if _, ok := firstOfType(opened, cci.Payload); !ok {
		t.Fatalf("expected PAYLOAD to decrypt back")
	}
}

func firstOfType(fields []field.Field, t uint16) (field.Field, bool) {
	for _, f := range fields {
		if f.Type == t {
			return f, true
		}
	}
	return field.Field{}, false
}

func mustMarshal(fields []field.Field) []byte {
	var buf []byte
	for _, f := range fields {
		buf = append(buf, byte(f.Type))
		buf = append(buf, f.Value...)
	}
	return buf
}
