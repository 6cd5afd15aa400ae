// Package storeerr defines the kind-tagged error taxonomy from spec §7.
// NotFound and KeyExist are deliberately absent here: per the propagation
// policy they never escape the read/write APIs as errors (NotFound folds
// into a nil/zero-value result, KeyExist on idempotent inserts is
// absorbed).
package storeerr

import "fmt"

// Kind identifies one of the error categories the database surfaces to
// callers.
type Kind string

const (
	KindIO                  Kind = "io"
	KindStore               Kind = "store"
	KindIncompatibleVersion Kind = "incompatible_version"
	KindInvalidRecord       Kind = "invalid_record"
	KindCancelled           Kind = "cancelled"
)

// Error is the single error type returned across package boundaries. It
// carries a Kind so callers can branch with errors.As without string
// matching, and wraps the underlying cause for %w unwrapping.
type Error struct {
	Kind Kind
	// Op names the failing operation or, for StoreError, the store-level
	// operation (spec calls this "op" in StoreError(op, code)).
	Op string
	// Path is set for IoError.
	Path string
	// Code is the underlying store's error code, set for StoreError.
	Code string
	Err  error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIO:
		return fmt.Sprintf("io error: %s: %s: %v", e.Op, e.Path, e.Err)
	case KindStore:
		if e.Code != "" {
			return fmt.Sprintf("store error: %s: %s: %v", e.Op, e.Code, e.Err)
		}
		return fmt.Sprintf("store error: %s: %v", e.Op, e.Err)
	case KindIncompatibleVersion:
		return fmt.Sprintf("incompatible schema version: %v", e.Err)
	case KindInvalidRecord:
		return fmt.Sprintf("invalid record: %s: %v", e.Op, e.Err)
	case KindCancelled:
		return fmt.Sprintf("transaction cancelled: %s", e.Op)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, storeerr.Cancelled) work without exposing Kind
// comparisons to callers.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func IO(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

func Store(op, code string, err error) error {
	return &Error{Kind: KindStore, Op: op, Code: code, Err: err}
}

func IncompatibleVersion(found, expected int) error {
	return &Error{Kind: KindIncompatibleVersion, Err: fmt.Errorf("found %d, expected %d", found, expected)}
}

func InvalidRecord(op, reason string) error {
	return &Error{Kind: KindInvalidRecord, Op: op, Err: fmt.Errorf("%s", reason)}
}

// Cancelled is a shared sentinel: transactions discarded by the caller
// without commit report this.
var Cancelled = &Error{Kind: KindCancelled, Op: "commit"}
