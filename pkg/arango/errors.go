package arango

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrConnect marks connection failures that survived the retry budget.
	// Callers degrade to a source rebuild when they see it.
	ErrConnect = errors.New("cannot reach arangodb")
	// ErrSchema marks an unrecoverable schema bootstrap fault. Callers must
	// abort rather than write into a half-made schema.
	ErrSchema = errors.New("schema bootstrap failed")
	// ErrNotReady is returned by operations invoked before EnsureSchema.
	ErrNotReady = errors.New("store schema not ready")
)

// StoreError provides structured error information for store operations.
type StoreError struct {
	Op     string // operation that failed ("dial", "ensure-schema", "load", "persist")
	Entity string // entity involved ("server", "database", "collection", "document")
	Name   string // entity name, if applicable
	Cause  error  // underlying error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.Name, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *StoreError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// connectError wraps a connection failure with the ErrConnect marker.
func connectError(op string, cause error) error {
	return &StoreError{Op: op, Entity: "server", Cause: fmt.Errorf("%w: %w", ErrConnect, cause)}
}

// schemaError wraps a bootstrap failure with the ErrSchema marker.
func schemaError(entity, name string, cause error) error {
	return &StoreError{Op: "ensure-schema", Entity: entity, Name: name, Cause: fmt.Errorf("%w: %w", ErrSchema, cause)}
}
