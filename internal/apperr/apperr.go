// Package apperr defines the error taxonomy shared by the crypto core,
// the services and the persistence layer.
//
// Every error produced by the application carries one of the sentinel
// kinds below, so callers classify failures with errors.Is:
//
//	if errors.Is(err, apperr.ErrConflict) { ... }
package apperr

import (
	"errors"
	"strings"
)

// Kinds of failure.
var (
	// ErrValidation marks bad input, e.g. a non-positive id or empty label.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks a uniqueness violation such as a duplicate label.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks a missing row.
	ErrNotFound = errors.New("not found")
	// ErrCrypto marks a sealing or opening failure.
	ErrCrypto = errors.New("crypto error")
	// ErrHash marks a corrupt credential hash or an internal hashing failure.
	ErrHash = errors.New("hash error")
	// ErrStorage marks a persistence I/O failure.
	ErrStorage = errors.New("storage error")
	// ErrAuth marks rejected login credentials.
	ErrAuth = errors.New("authentication failed")
)

// Error is a classified application error.
type Error struct {
	// Kind is one of the sentinel kinds declared in this package.
	Kind error
	// Op names the operation that failed, e.g. "secrets.Create".
	Op string
	// Err is the underlying cause, if any.
	Err error
}

// Error renders "op: kind: cause".
func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Kind != nil {
		parts = append(parts, e.Kind.Error())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// E builds a classified error. A nil cause is allowed.
func E(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Msg builds a classified error from a plain message.
func Msg(kind error, op, msg string) error {
	return &Error{Kind: kind, Op: op, Err: errors.New(msg)}
}

// Storage wraps err as a storage failure unless it is already classified.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return E(ErrStorage, op, err)
}

// KindOf returns the sentinel kind carried by err, or nil when err is not
// classified.
func KindOf(err error) error {
	for _, kind := range []error{ErrValidation, ErrConflict, ErrNotFound, ErrCrypto, ErrHash, ErrStorage, ErrAuth} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
