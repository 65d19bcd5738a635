package content

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a slug lookup matches no record. Callers treat
// it as a valid empty state rather than a failure.
var ErrNotFound = errors.New("content: record not found")

// FetchFailure reports a failed read against the store.
type FetchFailure struct {
	Query string // which sub-query failed: "featured", "list" or "record"
	Err   error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("content: fetch %s: %v", e.Query, e.Err)
}

func (e *FetchFailure) Unwrap() error { return e.Err }

// SearchFailure reports a failed title search.
type SearchFailure struct {
	Query string
	Err   error
}

func (e *SearchFailure) Error() string {
	return fmt.Sprintf("content: search %q: %v", e.Query, e.Err)
}

func (e *SearchFailure) Unwrap() error { return e.Err }
