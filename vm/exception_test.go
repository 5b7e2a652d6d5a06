package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Handler frames
// ---------------------------------------------------------------------------

func TestProtectCatchesRaise(t *testing.T) {
	vm := NewVM()
	vm.OnError = nil

	err := vm.protect(func() {
		vm.Raise(ErrRange, "value %d", 7)
		t.Error("Raise returned")
	})
	if err == nil || !errors.Is(err, ErrRange) {
		t.Fatalf("expected range error, got %v", err)
	}
	if err.Message != "value 7" {
		t.Errorf("message = %q", err.Message)
	}
	if vm.handlers != nil {
		t.Error("frame not popped after unwind")
	}
}

func TestProtectNormalExitPopsFrame(t *testing.T) {
	vm := NewVM()
	ran := false
	if err := vm.protect(func() { ran = true }); err != nil {
		t.Fatal(err)
	}
	if !ran || vm.handlers != nil {
		t.Errorf("ran=%v handlers=%v", ran, vm.handlers)
	}
}

func TestNestedProtect(t *testing.T) {
	vm := NewVM()
	vm.OnError = nil

	var inner *Error
	outer := vm.protect(func() {
		inner = vm.protect(func() {
			vm.Raise(ErrAbort, "inner")
		})
		vm.Raise(ErrIO, "outer")
	})
	if inner == nil || inner.Message != "inner" {
		t.Errorf("inner = %v", inner)
	}
	if outer == nil || outer.Message != "outer" {
		t.Errorf("outer = %v", outer)
	}
	if vm.handlers != nil {
		t.Error("frames left behind")
	}
}

func TestForeignPanicPassesThrough(t *testing.T) {
	vm := NewVM()
	defer func() {
		if r := recover(); r != "boom" {
			t.Errorf("recovered %v", r)
		}
		if vm.handlers != nil {
			t.Error("frame not popped by foreign panic")
		}
	}()
	vm.protect(func() { panic("boom") })
}

func TestErrorHookSeesPlace(t *testing.T) {
	vm := NewVM()
	vm.SetOutput(&bytes.Buffer{})
	var got []*Error
	vm.OnError = func(_ *VM, err *Error) {
		got = append(got, err)
	}
	vm.LoadSource("1 2 +\n  nope", "hook.tsl")

	if len(got) != 1 {
		t.Fatalf("hook called %d times", len(got))
	}
	p := got[0].Place
	if p.Filename != "hook.tsl" || p.Line != 2 || p.Column != 3 {
		t.Errorf("place = %+v", p)
	}
	if got[0].Error() != "hook.tsl:2.3: nope ?" {
		t.Errorf("Error() = %q", got[0].Error())
	}
}

func TestRaiseWithoutHandlerExits(t *testing.T) {
	vm := NewVM()
	var diag bytes.Buffer
	vm.Diagnostics = &diag
	code := -1
	vm.Exit = func(c int) { code = c }

	defer func() {
		r := recover()
		f, ok := r.(fatal)
		if !ok {
			t.Fatalf("recovered %v, want fatal", r)
		}
		if code != 1 {
			t.Errorf("exit code = %d, want 1", code)
		}
		if !errors.Is(f.err, ErrAbort) {
			t.Errorf("fatal error = %v", f.err)
		}
		if !strings.Contains(diag.String(), "no handler") {
			t.Errorf("diagnostics = %q", diag.String())
		}
	}()
	vm.Raise(ErrAbort, "no handler")
}

func TestErrorKindsAreDistinct(t *testing.T) {
	kinds := []error{ErrLexical, ErrUndefinedWord, ErrArithmetic, ErrCapacity,
		ErrRange, ErrIO, ErrStack, ErrAbort}
	for i, a := range kinds {
		for j, b := range kinds {
			if (i == j) != errors.Is(a, b) {
				t.Errorf("errors.Is(%v, %v) = %v", a, b, errors.Is(a, b))
			}
		}
	}
}
