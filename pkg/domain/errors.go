package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrValidationFailed matches any *ValidationFailed.
	ErrValidationFailed = errors.New("validation failed")

	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("aggregate not found")

	// ErrConcurrencyConflict matches any *ConcurrencyConflictError.
	ErrConcurrencyConflict = errors.New("concurrency conflict: aggregate version mismatch")

	// ErrPersistence matches any *PersistenceError.
	ErrPersistence = errors.New("persistence failure")

	// ErrUniqueConstraintViolation is returned by stores when a write would
	// duplicate a unique value. Stores wrap it in a PersistenceError.
	ErrUniqueConstraintViolation = errors.New("unique constraint violation")
)

// Failure is a single rule violation reported by a validator.
type Failure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f Failure) String() string {
	return f.Field + ": " + f.Message
}

// Failures is the ordered list of violations for one command. Empty means valid.
type Failures []Failure

// Add appends a violation.
func (fs *Failures) Add(field, message string) {
	*fs = append(*fs, Failure{Field: field, Message: message})
}

// Err returns a *ValidationFailed carrying the failures, or nil when empty.
func (fs Failures) Err() error {
	if len(fs) == 0 {
		return nil
	}
	out := make(Failures, len(fs))
	copy(out, fs)
	return &ValidationFailed{Failures: out}
}

// ValidationFailed is returned when a validator rejects a command.
type ValidationFailed struct {
	Failures Failures
}

func (e *ValidationFailed) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = f.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationFailed) Is(target error) bool {
	return target == ErrValidationFailed
}

// Has reports whether a failure was recorded for field.
func (e *ValidationFailed) Has(field string) bool {
	for _, f := range e.Failures {
		if f.Field == field {
			return true
		}
	}
	return false
}

// NotFoundError is returned when no aggregate exists for the requested identity.
type NotFoundError struct {
	AggregateType string
	ID            uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.AggregateType, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ConcurrencyConflictError is returned by Update when the stored version no
// longer matches the version the aggregate was loaded with.
type ConcurrencyConflictError struct {
	AggregateType string
	ID            uuid.UUID
	Expected      int64
	Actual        int64
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on %s %s: expected version %d, found %d",
		e.AggregateType, e.ID, e.Expected, e.Actual)
}

func (e *ConcurrencyConflictError) Is(target error) bool {
	return target == ErrConcurrencyConflict
}

// PersistenceError wraps a storage failure unrelated to validation.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure in %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError wraps cause unless it already is one of the domain
// error types, which are returned unchanged.
func NewPersistenceError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	var (
		pe *PersistenceError
		nf *NotFoundError
		cc *ConcurrencyConflictError
		vf *ValidationFailed
	)
	if errors.As(cause, &pe) || errors.As(cause, &nf) || errors.As(cause, &cc) || errors.As(cause, &vf) {
		return cause
	}
	return &PersistenceError{Op: op, Cause: cause}
}

// UniqueConstraintError describes a duplicate value rejected by a store.
type UniqueConstraintError struct {
	Constraint string
	Value      string
}

func (e *UniqueConstraintError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("unique constraint violation: %s", e.Constraint)
	}
	return fmt.Sprintf("unique constraint violation: %s='%s'", e.Constraint, e.Value)
}

func (e *UniqueConstraintError) Is(target error) bool {
	return target == ErrUniqueConstraintViolation
}
