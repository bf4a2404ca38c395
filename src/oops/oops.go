package oops

import (
	"errors"
	"fmt"

	"github.com/go-stack/stack"
	"github.com/rs/zerolog"
)

type Error struct {
	Message string
	Wrapped error
	Stack   CallStack

	// Set for problems with the export data or the run configuration, as
	// opposed to failures of the converter itself.
	Input bool
}

func (e *Error) Error() string {
	if e.Wrapped == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Wrapped)
}

func (e *Error) Unwrap() error {
	return e.Wrapped
}

type CallStack []StackFrame

func (s CallStack) MarshalZerologArray(a *zerolog.Array) {
	for _, frame := range s {
		a.Object(frame)
	}
}

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) MarshalZerologObject(e *zerolog.Event) {
	e.
		Str("file", f.File).
		Int("line", f.Line).
		Str("function", f.Function)
}

var ZerologStackMarshaler = func(err error) interface{} {
	var asOops *Error
	if errors.As(err, &asOops) {
		return asOops.Stack
	}
	return nil
}

func New(wrapped error, format string, args ...interface{}) error {
	return newError(wrapped, false, format, args...)
}

// Input creates an error describing bad input data or configuration. The
// conversion run is aborted, but no stack trace is worth showing to the user.
func Input(wrapped error, format string, args ...interface{}) error {
	return newError(wrapped, true, format, args...)
}

// IsInput reports whether any error in the chain was created with Input.
func IsInput(err error) bool {
	for err != nil {
		if asOops, ok := err.(*Error); ok && asOops.Input {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

func newError(wrapped error, input bool, format string, args ...interface{}) error {
	trace := stack.Trace().TrimRuntime()
	// Drop newError and its exported caller.
	if len(trace) > 2 {
		trace = trace[2:]
	}
	frames := make(CallStack, len(trace))
	for i, call := range trace {
		callFrame := call.Frame()
		frames[i] = StackFrame{
			File:     callFrame.File,
			Line:     callFrame.Line,
			Function: callFrame.Function,
		}
	}

	return &Error{
		Message: fmt.Sprintf(format, args...),
		Wrapped: wrapped,
		Stack:   frames,
		Input:   input,
	}
}

// Trace returns the current call stack in the same shape as Error.Stack.
func Trace() CallStack {
	trace := stack.Trace().TrimRuntime()
	if len(trace) > 1 {
		trace = trace[1:]
	}
	frames := make(CallStack, len(trace))
	for i, call := range trace {
		callFrame := call.Frame()
		frames[i] = StackFrame{
			File:     callFrame.File,
			Line:     callFrame.Line,
			Function: callFrame.Function,
		}
	}
	return frames
}
