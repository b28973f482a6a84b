package tabvault

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested path or object id is absent.
	ErrNotFound = errors.New("tabvault: not found")

	// ErrWrongKind is returned when an object exists but has a different
	// kind than the caller asked for (e.g. a blob where a tree was expected).
	ErrWrongKind = errors.New("tabvault: wrong object kind")

	// ErrNoRemote is returned by sync operations when no remote is configured.
	ErrNoRemote = errors.New("tabvault: no remote configured")
)

// IntegrityError reports a structural invariant violation found while
// scanning a tree, such as a dataset marker that cannot be dereferenced.
// Discovery is all-or-nothing: once an IntegrityError occurs no partial
// results are returned.
type IntegrityError struct {
	Path string // path of the offending entry, relative to the scanned root
	Err  error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("tabvault: integrity error at %q: %v", e.Path, e.Err)
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}
