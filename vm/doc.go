// Package vm implements the tusl virtual machine.
//
// This package contains:
//   - 32-bit untyped cells, with float cells as IEEE-754 bit patterns
//   - a bounded value stack
//   - the data space: compiled code grows up from 0, strings grow down
//   - the dictionary of words, searched newest first
//   - buffered input/output streams with source places
//   - the tokenizer and the mode-driven dispatcher/compiler
//   - the threaded-code executor with tail calls and ;will closures
//   - handler-frame based error unwinding
//   - the native bridge for fixed-arity host functions
//
// Inside a colon-definition, ";" compiles a return and puts the dispatcher
// back in run mode. It does not close the definition for good: words after
// an early ";" run immediately as the source is loaded, and a group such
// as "(then)" resumes compiling into the same definition. So
//
//	:f 1 ; 2 .
//
// defines f to push 1 and prints 2 while loading.
package vm
