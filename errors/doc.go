// Package errors provides structured error types for the player runtime.
//
// Errors are categorized by Phase (which lifecycle stage failed) and Kind
// (error category). The Error type carries a human-readable detail, the
// offending value and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseGraphics, errors.KindContextCreation).
//		Detail("surface %q already has a context", title).
//		Cause(cause).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.ContextCreation(errors.PhaseAudio, "device closed", nil)
//	err := errors.RuntimeInit("compilation cache", cause)
//	err := errors.Script("trap in _start", cause)
//
// Worker failures never cross the thread boundary as error values. They are
// flattened with Reason into the message stored on the thread context.
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
