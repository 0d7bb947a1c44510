package cube

import (
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// Key is a cube's 32-byte network address.
type Key [32]byte

func (k Key) Bytes() []byte { return k[:] }

func (k Key) IsZero() bool {
	return k == Key{}
}

// hashBuffer returns the BLAKE2b-256 digest of buf, used both as the
// difficulty-grinding target and (for unsigned families) as the key
// itself.
func hashBuffer(buf []byte) [32]byte {
	return blake2b.Sum256(buf)
}

// keyFor derives the network key for a compiled buffer of type t,
// following spec.md §4.3/§5: content hash for FROZEN, a date/nonce-
// independent content hash for PIC, and the verbatim PUBLIC_KEY for
// signed families.
func keyFor(t Type, buf []byte) (Key, error) {
	switch {
	case t == Frozen || t == FrozenNotify:
		return hashBuffer(buf), nil
	case t == Pic || t == PicNotify:
		scratch := append([]byte(nil), buf...)
		zeroField(scratch, t, FieldDate)
		zeroField(scratch, t, FieldNonce)
		return hashBuffer(scratch), nil
	case t.IsSigned():
		off, ok := fieldOffset(t, FieldPublicKey)
		if !ok {
			return Key{}, errUnimplementedType(t)
		}
		var k Key
		copy(k[:], buf[off:off+lenPublicKey])
		return k, nil
	default:
		return Key{}, errUnimplementedType(t)
	}
}

// meetsDifficulty reports whether hash, read as a big-endian unsigned
// integer, has its top difficulty bits zero (spec.md §4.4).
func meetsDifficulty(hash [32]byte, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if difficulty > 256 {
		difficulty = 256
	}
	n := new(big.Int).SetBytes(hash[:])
	threshold := new(big.Int).Lsh(big.NewInt(1), uint(256-difficulty))
	return n.Cmp(threshold) < 0
}
