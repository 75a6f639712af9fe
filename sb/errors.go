package sb

import (
	"errors"
	"fmt"
)

// ErrorKind is a stable category for programmatic error handling.
//
// Callers should branch on ErrorKind/RuleID rather than matching error strings.
//
// NOTE: Error() strings are intentionally kept human-readable and may evolve.
// Use errors.As to extract *Error for structured handling.
type ErrorKind string

const (
	// KindMalformed covers every format violation: bad magic or header
	// delimiters, truncated input, unknown typecodes, count/terminator
	// disagreement, bad entry markers. Always fatal to the current
	// decode or scan; never silently recovered.
	KindMalformed ErrorKind = "Malformed"

	// KindIO wraps failures of the underlying byte source. The cause is
	// carried unmodified and no retry is attempted.
	KindIO ErrorKind = "IO"
)

// Error is the library's structured error type.
//
// RuleID is a stable identifier (e.g., SB-DEC-001, CAS-001) that names the
// violated format rule. Offset is the byte position the violation was
// detected at, relative to the start of the decoded payload, or -1 when no
// position applies.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    ErrorKind
	RuleID  string
	Message string
	Offset  int64
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Offset >= 0 {
		return fmt.Sprintf("%s (at offset %d)", e.Message, e.Offset)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func newError(kind ErrorKind, ruleID, msg string) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Offset: -1}
}

func errorAt(kind ErrorKind, ruleID, msg string, off int64) error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Offset: off}
}

func wrapError(kind ErrorKind, ruleID, msg string, cause error) error {
	if cause == nil {
		return newError(kind, ruleID, msg)
	}
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Offset: -1, Cause: cause}
}

// IsKind reports whether err is (or wraps) a *Error with the given ErrorKind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
