package vm

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Error kinds
// ---------------------------------------------------------------------------

// Sentinel error kinds. Every *Error unwraps to one of these.
var (
	ErrLexical       = errors.New("lexical error")
	ErrUndefinedWord = errors.New("undefined word")
	ErrArithmetic    = errors.New("arithmetic error")
	ErrCapacity      = errors.New("capacity exceeded")
	ErrRange         = errors.New("range error")
	ErrIO            = errors.New("i/o error")
	ErrStack         = errors.New("stack error")
	ErrAbort         = errors.New("aborted")
)

// Error is an error raised inside the VM, with the place of the token
// being processed when it was raised.
type Error struct {
	Kind    error
	Message string
	Place   Place
}

func (e *Error) Error() string {
	return e.Place.String() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// ErrorHandler receives every raised error before unwinding starts.
type ErrorHandler func(vm *VM, err *Error)

// DefaultErrorHandler prints the error to the VM's diagnostic writer.
func DefaultErrorHandler(vm *VM, err *Error) {
	fmt.Fprintln(vm.Diagnostics, err.Error())
}

// ---------------------------------------------------------------------------
// Handler stack (Go panic/recover scoped by explicit frames)
// ---------------------------------------------------------------------------

// HandlerFrame is a recovery checkpoint. Frames form a singly linked stack
// whose top is held by the VM.
type HandlerFrame struct {
	next *HandlerFrame
}

// unwind is panicked to transfer control to frame.
type unwind struct {
	frame *HandlerFrame
	err   *Error
}

// fatal is panicked when no handler exists and the exit hook returned.
type fatal struct {
	err *Error
}

func (f fatal) Error() string {
	return "tusl: unhandled error: " + f.err.Error()
}

// raise reports an error and unwinds to the innermost handler frame.
// It does not return.
func (vm *VM) raise(kind error, format string, args ...any) {
	err := &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Place:   vm.tokenPlace,
	}
	if vm.OnError != nil {
		vm.OnError(vm, err)
	}
	vm.escape(err)
}

// Raise lets primitives and host code signal an error of the given kind.
// It does not return.
func (vm *VM) Raise(kind error, format string, args ...any) {
	vm.raise(kind, format, args...)
}

// escape pops the top handler frame and transfers control to it. With no
// frame left, the process exits with status 1.
func (vm *VM) escape(err *Error) {
	frame := vm.handlers
	if frame == nil {
		vm.Exit(1)
		panic(fatal{err})
	}
	vm.handlers = frame.next
	panic(&unwind{frame: frame, err: err})
}

// protect runs body inside a new handler frame. It returns the error that
// unwound to the frame, or nil if body finished normally. Panics that are
// not unwinds pass through after the frame is popped.
func (vm *VM) protect(body func()) (err *Error) {
	frame := &HandlerFrame{next: vm.handlers}
	vm.handlers = frame
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if u, ok := r.(*unwind); ok && u.frame == frame {
			err = u.err
			return
		}
		vm.handlers = frame.next
		panic(r)
	}()
	body()
	vm.handlers = frame.next
	return nil
}

// guard is protect for the public API: it returns a plain error.
func (vm *VM) guard(body func()) error {
	if err := vm.protect(body); err != nil {
		return err
	}
	return nil
}
