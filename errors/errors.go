package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Phase indicates where in the lifecycle the error occurred
type Phase string

const (
	PhaseBoot      Phase = "boot"      // primary thread startup
	PhaseConfig    Phase = "config"    // configuration loading
	PhaseGraphics  Phase = "graphics"  // graphics context acquisition
	PhaseAudio     Phase = "audio"     // audio context acquisition
	PhaseRuntime   Phase = "runtime"   // shared runtime construction
	PhaseScript    Phase = "script"    // script execution
	PhaseHost      Phase = "host"      // host function calls from scripts
	PhaseHandshake Phase = "handshake" // termination handshake
	PhaseTeardown  Phase = "teardown"  // resource release
)

// Kind categorizes the error
type Kind string

const (
	KindContextCreation  Kind = "context_creation"
	KindRuntimeInit      Kind = "runtime_init"
	KindScript           Kind = "script"
	KindHandshakeTimeout Kind = "handshake_timeout"
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindClosed           Kind = "closed"
	KindIO               Kind = "io"
	KindPanic            Kind = "panic"
)

// Error is the structured error type used throughout the player
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target with an empty Phase matches any phase.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return (t.Phase == "" || e.Phase == t.Phase) && e.Kind == t.Kind
	}
	return false
}

// Is is errors.Is from the standard library.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As from the standard library.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// IsKind reports whether err carries a structured error of kind.
func IsKind(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Reason renders err for an operator: the detail and cause chain without the
// phase/kind prefix. Non-structured errors render as err.Error().
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch {
	case e.Detail == "" && e.Cause == nil:
		return string(e.Kind)
	case e.Detail == "":
		return Reason(e.Cause)
	case e.Cause == nil:
		return e.Detail
	default:
		return e.Detail + ": " + Reason(e.Cause)
	}
}

// Convenience constructors for common error patterns

// ContextCreation creates a graphics or audio context acquisition error
func ContextCreation(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindContextCreation,
		Detail: detail,
		Cause:  cause,
	}
}

// RuntimeInit creates a shared runtime construction error for subsystem
func RuntimeInit(subsystem string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindRuntimeInit,
		Detail: fmt.Sprintf("initialize %s", subsystem),
		Value:  subsystem,
		Cause:  cause,
	}
}

// Script creates a script execution error
func Script(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseScript,
		Kind:   KindScript,
		Detail: detail,
		Cause:  cause,
	}
}

// HandshakeTimeout describes a termination handshake that ran out of budget.
// It is a protocol outcome, not something returned across threads.
func HandshakeTimeout(budget time.Duration) *Error {
	return &Error{
		Phase:  PhaseHandshake,
		Kind:   KindHandshakeTimeout,
		Detail: fmt.Sprintf("worker did not acknowledge within %s", budget),
		Value:  budget,
	}
}

// Panic wraps a recovered panic value
func Panic(phase Phase, v any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindPanic,
		Detail: fmt.Sprintf("panic: %v", v),
		Value:  v,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Closed creates an error for operations on a released handle
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: fmt.Sprintf("%s is closed", what),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
