// Package invariant reports structural violations of the decomposition engine's
// bookkeeping. These errors indicate a bug in graph or instance handling, never a
// property of the input, and callers abort the run when they see one.
package invariant

import (
	"errors"
	"fmt"
	"strings"
)

// ErrViolation is the cause wrapped by every invariant Error.
var ErrViolation = errors.New("invariant violation")

// Error carries the diagnostic context of a violated invariant.
type Error struct {
	Op         string // Operation that detected the violation (e.g. "materialize")
	InstanceID string // Instance being decomposed, if known
	Candidate  []int  // Deletion set under evaluation, if any
	Detail     string // Human readable description
	Cause      error  // Underlying error, defaults to ErrViolation
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.InstanceID != "" {
		fmt.Fprintf(&b, " instance %s", e.InstanceID)
	}
	if e.Candidate != nil {
		fmt.Fprintf(&b, " candidate %v", e.Candidate)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " (%s)", e.Detail)
	}
	fmt.Fprintf(&b, ": %v", e.cause())
	return b.String()
}

func (e *Error) cause() error {
	if e.Cause == nil {
		return ErrViolation
	}
	return e.Cause
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause()
}

// Is reports whether target is ErrViolation or matches the cause chain.
func (e *Error) Is(target error) bool {
	if target == ErrViolation {
		return true
	}
	return errors.Is(e.cause(), target)
}

// Builder assembles an Error fluently.
type Builder struct {
	err Error
}

// New starts an invariant error for the given operation.
func New(op string) *Builder {
	return &Builder{err: Error{Op: op}}
}

// Instance records the instance being processed.
func (b *Builder) Instance(id string) *Builder {
	b.err.InstanceID = id
	return b
}

// Candidate records the deletion set being evaluated.
func (b *Builder) Candidate(ids []int) *Builder {
	b.err.Candidate = append([]int{}, ids...)
	return b
}

// Detailf sets a formatted description.
func (b *Builder) Detailf(format string, args ...any) *Builder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Build returns the constructed Error.
func (b *Builder) Build() *Error {
	e := b.err
	return &e
}

// Err returns the constructed Error as an error.
func (b *Builder) Err() error {
	return b.Build()
}

// IsViolation reports whether err is (or wraps) an invariant violation.
func IsViolation(err error) bool {
	return errors.Is(err, ErrViolation)
}

// Context attaches instance and candidate context to err when it is an invariant
// Error lacking them. Other errors are returned unchanged.
func Context(err error, instanceID string, candidate []int) error {
	var ie *Error
	if !errors.As(err, &ie) {
		return err
	}
	out := *ie
	if out.InstanceID == "" {
		out.InstanceID = instanceID
	}
	if out.Candidate == nil && candidate != nil {
		out.Candidate = append([]int{}, candidate...)
	}
	return &out
}
