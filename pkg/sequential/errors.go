package sequential

import "errors"

var (
	// ErrInconsistentModel signals a broken structural invariant or a trace
	// requested against derived tables that are out of date.
	ErrInconsistentModel = errors.New("sequential: inconsistent model")

	// ErrCursorOutOfRange is returned by edit operations given an index that
	// does not name an editable interface.
	ErrCursorOutOfRange = errors.New("sequential: index out of range")
)
