package network

import (
	"errors"
	"fmt"
	"strings"
)

// Construction errors. Any of these aborts the build; no Network is produced.
var (
	ErrMalformedSpec     = errors.New("malformed spec")
	ErrDuplicateIdentity = errors.New("duplicate identity")
	ErrCycleDetected     = errors.New("cycle detected")
	ErrDanglingBridge    = errors.New("dangling bridge")
)

// State errors
var (
	ErrImmutableGraph    = errors.New("graph is finalized and immutable")
	ErrInvalidTransition = errors.New("invalid build state transition")
)

// Query errors
var (
	ErrUnknownNode      = errors.New("unknown node")
	ErrUnknownRegion    = errors.New("unknown region")
	ErrUnknownSubsystem = errors.New("unknown subsystem")
	ErrUnknownTopology  = errors.New("unknown network type")
	ErrInvalidPath      = errors.New("invalid path")
)

// BuildError provides structured error information for network construction
// and queries.
type BuildError struct {
	Op        string // Operation that failed (e.g., "AddSubsystem", "ResolveBridges")
	Subsystem string
	Node      string // Declared node name
	Target    string // Bridge or edge target name
	Detail    string // Additional context
	Cause     error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	if e.Subsystem != "" {
		fmt.Fprintf(&sb, " subsystem %s", e.Subsystem)
	}
	if e.Node != "" {
		fmt.Fprintf(&sb, " node %q", e.Node)
	}
	if e.Target != "" {
		fmt.Fprintf(&sb, " -> %q", e.Target)
	}
	if e.Detail != "" {
		fmt.Fprintf(&sb, " (%s)", e.Detail)
	}
	fmt.Fprintf(&sb, ": %v", e.Cause)
	return sb.String()
}

// Unwrap returns the underlying cause for error chain support.
func (e *BuildError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *BuildError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// ErrorBuilder provides a fluent interface for building BuildErrors.
type ErrorBuilder struct {
	err BuildError
}

// NewError creates a new error builder with the given operation.
func NewError(op string) *ErrorBuilder {
	return &ErrorBuilder{err: BuildError{Op: op}}
}

func (b *ErrorBuilder) Subsystem(name string) *ErrorBuilder {
	b.err.Subsystem = name
	return b
}

func (b *ErrorBuilder) Node(name string) *ErrorBuilder {
	b.err.Node = name
	return b
}

func (b *ErrorBuilder) Target(name string) *ErrorBuilder {
	b.err.Target = name
	return b
}

// Detail sets additional context information.
func (b *ErrorBuilder) Detail(format string, args ...any) *ErrorBuilder {
	b.err.Detail = fmt.Sprintf(format, args...)
	return b
}

// Cause sets the underlying error cause.
func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

// Build returns the constructed BuildError.
func (b *ErrorBuilder) Build() *BuildError {
	return &b.err
}

// Err returns the error as an error interface.
func (b *ErrorBuilder) Err() error {
	return &b.err
}

func unknownNodeError(op string, id NodeID) error {
	return NewError(op).Detail("id %d", id).Cause(ErrUnknownNode).Err()
}

// IsConstructionError reports whether err aborted a build. Callers must fix
// the input document; retrying the same input fails the same way.
func IsConstructionError(err error) bool {
	return errors.Is(err, ErrMalformedSpec) ||
		errors.Is(err, ErrDuplicateIdentity) ||
		errors.Is(err, ErrCycleDetected) ||
		errors.Is(err, ErrDanglingBridge) ||
		errors.Is(err, ErrUnknownSubsystem)
}

// IsQueryError reports whether err is a recoverable lookup failure.
func IsQueryError(err error) bool {
	return errors.Is(err, ErrUnknownNode) ||
		errors.Is(err, ErrUnknownRegion) ||
		errors.Is(err, ErrUnknownSubsystem) ||
		errors.Is(err, ErrInvalidPath)
}
