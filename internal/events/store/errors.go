package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("event not found")
	ErrPersistence = errors.New("failed to persist events")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// joinValidation merges field failures into one ValidationError whose Field
// and Message list every failure in order, separated by ", ". It returns nil
// when there is nothing to report.
func joinValidation(errs []*ValidationError) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	fields := make([]string, len(errs))
	messages := make([]string, len(errs))
	for i, e := range errs {
		fields[i] = e.Field
		messages[i] = e.Message
	}
	return &ValidationError{Field: strings.Join(fields, ", "), Message: strings.Join(messages, ", ")}
}

type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Event with ID '%s' not found.", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError means the backend write failed and the in-memory
// collection was left as it was before the operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: failed to persist events: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
