package cube

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"verity.dev/core/errs"
)

// yieldInterval is how many nonce attempts run between context checks.
// Grinding is CPU-bound and ctx.Err() is comparatively expensive, so
// the search only checks for cancellation periodically rather than on
// every attempt (consensus/pow.go's cooperative-yield pattern).
const yieldInterval = 1 << 14

// grindNonce repeatedly overwrites the NONCE positional field of buf
// and rehashes until the result meets difficulty, or ctx is canceled.
// buf is mutated in place; the search starts from a random nonce so
// concurrent miners working the same content don't collide.
func grindNonce(ctx context.Context, buf []byte, t Type, difficulty int) error {
	off, ok := fieldOffset(t, FieldNonce)
	if !ok {
		return errUnimplementedType(t)
	}

	var seed [4]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return err
	}
	nonce := binary.BigEndian.Uint32(seed[:])

	for attempts := 0; ; attempts++ {
		if attempts%yieldInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		binary.BigEndian.PutUint32(buf[off:off+lenNonce], nonce)
		if meetsDifficulty(hashBuffer(buf), difficulty) {
			return nil
		}
		nonce++
	}
}

// insufficientDifficultyErr wraps a key that was presented without
// having actually met the claimed difficulty on validation.
func insufficientDifficultyErr(difficulty int) error {
	return errs.NewReason(errs.KindInsufficientDifficulty, errs.ReasonNone,
		fmt.Sprintf("hash does not meet required difficulty %d", difficulty))
}
