// Package condaerr defines the fatal error taxonomy shared by every
// condadist component. Each fatal error maps to exactly one Kind so the
// CLI layer can choose an exit code and an actionable hint without
// string-matching error text.
package condaerr

import (
	"errors"
	"fmt"
)

// Kind is a closed enumeration of the fatal error categories a condadist
// operation can fail with.
type Kind int

const (
	// Unknown is never produced directly; it is the zero value, used when
	// an error hasn't been classified.
	Unknown Kind = iota
	ManifestInvalid
	LockStale
	LockMissing
	SolveFailed
	FetchFailed
	StagingFailed
	MetadataInvalid
	ImageCorrupt
	PayloadInvalid
	InstallFailed
	EngineMissing
)

func (k Kind) String() string {
	switch k {
	case ManifestInvalid:
		return "ManifestInvalid"
	case LockStale:
		return "LockStale"
	case LockMissing:
		return "LockMissing"
	case SolveFailed:
		return "SolveFailed"
	case FetchFailed:
		return "FetchFailed"
	case StagingFailed:
		return "StagingFailed"
	case MetadataInvalid:
		return "MetadataInvalid"
	case ImageCorrupt:
		return "ImageCorrupt"
	case PayloadInvalid:
		return "PayloadInvalid"
	case InstallFailed:
		return "InstallFailed"
	case EngineMissing:
		return "EngineMissing"
	default:
		return "Unknown"
	}
}

// Error wraps an underlying error with its taxonomy Kind and enough
// context (an offending path, URL, or field name) to be actionable.
type Error struct {
	Kind    Kind
	Context string // offending path / URL / field, if any
	Err     error
}

func (e *Error) Error() string {
	if e.Context == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Context, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a classified error.
func New(kind Kind, context string, err error) *Error {
	return &Error{Kind: kind, Context: context, Err: err}
}

// Newf is a convenience constructor for a classified error built from a
// format string instead of a wrapped error.
func Newf(kind Kind, context, format string, args ...any) *Error {
	return &Error{Kind: kind, Context: context, Err: fmt.Errorf(format, args...)}
}

// As extracts the Kind of err if it (or something it wraps) is a *Error.
// Returns (Unknown, false) otherwise.
func As(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return Unknown, false
}
