// Package errs defines the Cube core's error taxonomy (spec.md §6/§7).
// Surface names are advisory; stability requires the *kinds* below, so
// every layer of the core builds its errors through this one
// constructor rather than ad hoc fmt.Errorf, the way
// consensus/errors.go centralizes TxError across the teacher's wire
// and validation code.
package errs

import "fmt"

// Kind is one of the stable error kinds from spec.md §6.
type Kind string

const (
	KindFieldError                  Kind = "FieldError"
	KindInsufficientDifficulty      Kind = "InsufficientDifficulty"
	KindInvalidCubeKey              Kind = "InvalidCubeKey"
	KindBinaryLengthError           Kind = "BinaryLengthError"
	KindCubeSignatureError          Kind = "CubeSignatureError"
	KindCubeRelationshipError       Kind = "CubeRelationshipError"
	KindSmartCubeTypeNotImplemented Kind = "SmartCubeTypeNotImplemented"
)

// Reason further qualifies a Kind, the way the teacher pairs
// TX_ERR_PARSE with TX_ERR_WITNESS_OVERFLOW under one taxonomy.
type Reason string

const (
	ReasonWrongPositionalOrder Reason = "wrong_positional_order"
	ReasonMissingPositional    Reason = "missing_positional"
	ReasonValueLengthMismatch  Reason = "value_length_mismatch"
	ReasonLengthOverflow       Reason = "length_overflow"
	ReasonUnknownType          Reason = "unknown_type"
	ReasonOversized            Reason = "oversized"
	ReasonNone                 Reason = ""
)

// CubeError is the error type every core package returns.
type CubeError struct {
	Kind   Kind
	Reason Reason
	Msg    string
}

func (e *CubeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch {
	case e.Reason != "" && e.Msg != "":
		return fmt.Sprintf("%s(%s): %s", e.Kind, e.Reason, e.Msg)
	case e.Reason != "":
		return fmt.Sprintf("%s(%s)", e.Kind, e.Reason)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	default:
		return string(e.Kind)
	}
}

// New builds a CubeError with no reason qualifier.
func New(kind Kind, msg string) error {
	return &CubeError{Kind: kind, Msg: msg}
}

// NewReason builds a CubeError qualified by a reason.
func NewReason(kind Kind, reason Reason, msg string) error {
	return &CubeError{Kind: kind, Reason: reason, Msg: msg}
}

// Is reports whether err is a *CubeError of the given kind, following
// the same manual unwrap style as the teacher (no errors.As boilerplate
// needed for a single concrete error type).
func Is(err error, kind Kind) bool {
	ce, ok := err.(*CubeError)
	return ok && ce.Kind == kind
}
