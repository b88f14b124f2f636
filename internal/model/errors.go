package model

import "fmt"

// ValidationError reports an invariant violation detected before a persist.
// The store is never touched when one is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid task: %s %s", e.Field, e.Reason)
}

// NotFoundError reports an operation against an id absent from the store.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// IOError wraps a store failure (connectivity, timeout, query error). The
// engine propagates it unchanged; retry policy belongs to the caller.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
