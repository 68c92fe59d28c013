package cursor

import (
	"errors"
	"fmt"
)

// Kind classifies cursor failures. Callers switch on the kind instead of
// matching message text.
type Kind int

const (
	// KindUnknown is reported by KindOf for errors that did not come from a cursor.
	KindUnknown Kind = iota
	// KindPathNotFound means no absolute, position-relative or root-relative
	// interpretation of a fragment exists.
	KindPathNotFound
	// KindAccessDenied means a candidate resolved outside root.
	KindAccessDenied
	// KindIO wraps host filesystem failures (permissions, unreadable directories).
	KindIO
	// KindInvalidConfig means the cursor was constructed with bad arguments.
	KindInvalidConfig
)

func (k Kind) String() string {
	switch k {
	case KindPathNotFound:
		return "path not found"
	case KindAccessDenied:
		return "access denied"
	case KindIO:
		return "i/o failure"
	case KindInvalidConfig:
		return "invalid configuration"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks, one per kind.
var (
	ErrPathNotFound  = errors.New("path not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrIO            = errors.New("i/o failure")
	ErrInvalidConfig = errors.New("invalid configuration")
)

func (k Kind) sentinel() error {
	switch k {
	case KindPathNotFound:
		return ErrPathNotFound
	case KindAccessDenied:
		return ErrAccessDenied
	case KindIO:
		return ErrIO
	case KindInvalidConfig:
		return ErrInvalidConfig
	default:
		return nil
	}
}

// Error is the error type returned by cursor operations.
type Error struct {
	Kind     Kind
	Op       string // operation, e.g. "list"
	Fragment string // fragment as given by the caller
	Path     string // candidate or offending path, if any
	Err      error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindPathNotFound:
		msg = fmt.Sprintf("no absolute or relative path found for %q", e.Fragment)
	case KindAccessDenied:
		msg = fmt.Sprintf("%s is not a subdirectory of root, access is denied", e.Path)
	default:
		msg = e.Kind.String()
		if e.Path != "" {
			msg += " at " + e.Path
		}
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
