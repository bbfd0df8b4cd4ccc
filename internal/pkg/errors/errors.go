package errors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedInput marks an import document that cannot be turned into a forest.
	ErrMalformedInput = errors.New("malformed import input")
	// ErrPersistence marks a failed taxonomy store call.
	ErrPersistence = errors.New("persistence failure")
	// ErrImportInProgress is returned when another run holds the import lock.
	ErrImportInProgress = errors.New("import already in progress")
)

// MalformedInputError is raised while parsing or building the forest, before any
// store call is made.
type MalformedInputError struct {
	Reason string
	// Index is the zero-based record position, or -1 for document-level failures.
	Index int
	Err   error
}

func Malformed(reason string, index int, err error) *MalformedInputError {
	return &MalformedInputError{Reason: strings.TrimSpace(reason), Index: index, Err: err}
}

func (e *MalformedInputError) Error() string {
	if e == nil {
		return ""
	}
	msg := "invalid import file"
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(" (record %d)", e.Index)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// PersistenceKind classifies store failures for callers that want to react
// differently to conflicts and transient faults.
type PersistenceKind string

const (
	PersistenceConflict     PersistenceKind = "conflict"
	PersistencePrecondition PersistenceKind = "precondition"
	PersistenceRetryable    PersistenceKind = "retryable"
	PersistenceStorage      PersistenceKind = "storage"
)

// PersistenceError wraps the first failing store call of a run.
type PersistenceError struct {
	Op         string
	Identifier string
	Kind       PersistenceKind
	Err        error
}

func (e *PersistenceError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Identifier != "" {
		b.WriteString(" ")
		b.WriteString(e.Identifier)
	}
	b.WriteString(" failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }
